package simulate

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/pedigree"
	"github.com/zmaroti/grups2/pileup"
)

// PairResult is one pair's full simulation output: per-comparison-label
// per-replicate average PWDs, ready for the aggregator's distribution
// roll-up (spec §4.7).
type PairResult struct {
	PairLabel  string
	Replicates int
	Missing    int
	ByLabel    map[string][]SimReplicate
}

// SimReplicate is one replicate's row for the `.sims` output (spec §4.7):
// index, label, chosen founders, overlap, mismatch, avg-PWD. A single
// replicate produces one SimReplicate per pedigree comparison label, since
// one pedigree draw simultaneously realizes every labeled relationship
// hypothesis it contains; Founders is therefore identical across all of a
// replicate's rows.
type SimReplicate struct {
	Index    int
	Label    string
	Founders string
	Overlap  uint64
	Mismatch uint64
	AvgPWD   float64
}

// RunPair runs `replicates` independent replicates for one pair's
// pedigree, each with its own RNG seeded from globalSeed XOR pairSeed XOR
// replicate-index so results are reproducible under reordering (spec §5
// "seeded from the global seed pair-id replicate-index"). Replicates run
// concurrently; workers <= 0 means unlimited.
func RunPair(ctx context.Context, pairLabel string, ped *pedigree.Pedigree, founderPop []panel.Sample, observed []pileup.ObservedSite, store RefStore, opts ReplicateOptions, replicates int, globalSeed, pairSeed int64, workers int) (*PairResult, error) {
	perReplicate := make([][]SimReplicate, replicates)
	missingCounts := make([]int, replicates)

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for r := 0; r < replicates; r++ {
		r := r
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return pfx.Err(&kinerr.Aborted{Reason: "cancelled during pair " + pairLabel})
			default:
			}

			seed := globalSeed ^ pairSeed ^ int64(r)
			rng := rand.New(rand.NewSource(seed))

			accs, chosenFounders, missing, err := RunReplicate(ped, founderPop, observed, store, opts, rng)
			if err != nil {
				return err
			}

			missingCounts[r] = missing
			rows := make([]SimReplicate, 0, len(accs))
			for label, acc := range accs {
				rows = append(rows, SimReplicate{Index: r, Label: label, Founders: chosenFounders, Overlap: acc.Overlap, Mismatch: acc.Mismatch, AvgPWD: acc.AvgPWD()})
			}
			perReplicate[r] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byLabel := make(map[string][]SimReplicate)
	totalMissing := 0
	for r := 0; r < replicates; r++ {
		for _, row := range perReplicate[r] {
			byLabel[row.Label] = append(byLabel[row.Label], row)
		}
		totalMissing += missingCounts[r]
	}
	// Ordering guarantee: within one pair's .sims output, replicate indices
	// are monotonically increasing per label (spec §5) — already true here
	// since perReplicate is indexed by r and we iterate r ascending.

	return &PairResult{
		PairLabel:  pairLabel,
		Replicates: replicates,
		Missing:    totalMissing,
		ByLabel:    byLabel,
	}, nil
}
