package simulate

import (
	"math/rand"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/pedigree"
	"github.com/zmaroti/grups2/pileup"
)

// SimAccumulator is one replicate's per-comparison result: overlap and
// mismatch counts (spec §3). It keeps no sum of per-site sampled
// probabilities.
type SimAccumulator struct {
	Overlap  uint64
	Mismatch uint64
}

// AvgPWD returns this accumulator's average pairwise-difference rate.
func (a SimAccumulator) AvgPWD() float64 {
	if a.Overlap == 0 {
		return 0
	}
	return float64(a.Mismatch) / float64(a.Overlap)
}

// ReplicateOptions bundles every per-replicate knob (spec §4.6).
type ReplicateOptions struct {
	Founder   FounderOptions
	Meiosis   MeiosisOptions
	Left      EmitOptions
	Right     EmitOptions
	ContamPop []panel.Sample
	ContamNum int
}

// RunReplicate executes the AssignFounders -> PropagateMeiosis ->
// EmitObservations -> Accumulate state machine once, for every comparison
// in ped, over the observed sites of a single pair, returning one
// SimAccumulator per comparison label, the replicate's chosen-founders field
// for the `.sims` output, and a count of skipped (comparison, site) pairs at
// which either side emitted no read, whether because a genotype was missing
// or because SNP downsampling dropped the site (spec §4.6 "State machine of
// a replicate", §4.7 "chosen founders" column).
func RunReplicate(ped *pedigree.Pedigree, founderPop []panel.Sample, observed []pileup.ObservedSite, store RefStore, opts ReplicateOptions, rng *rand.Rand) (map[string]SimAccumulator, string, int, error) {
	coords := make([]genome.Coordinate, len(observed))
	for i, o := range observed {
		coords[i] = genome.Coordinate{Chr: o.Chr, Pos: o.Pos}
	}
	positions := GroupPositions(coords)

	founders, chosen, err := AssignFounders(ped, founderPop, positions, store, opts.Founder, rng)
	if err != nil {
		return nil, "", 0, err
	}
	chosenFounders := FormatChosenFounders(ped, chosen)

	genomes := PropagateMeiosis(ped, founders, positions, opts.Meiosis, rng)

	var leftPool, rightPool *ContaminantPool
	if opts.ContamNum > 0 && len(opts.ContamPop) > 0 {
		leftPool = NewContaminantPool(opts.ContamPop, opts.ContamNum, rng)
		rightPool = NewContaminantPool(opts.ContamPop, opts.ContamNum, rng)
	}

	accs := make(map[string]SimAccumulator, len(ped.Comparisons))
	missing := 0

	for _, cmp := range ped.Comparisons {
		leftInd := genomes[cmp.Left]
		rightInd := genomes[cmp.Right]
		acc := accs[cmp.Label]

		for _, o := range observed {
			leftBase, leftOk, err := EmitRead(o.Chr, o.Pos, leftInd, leftPool, store, opts.Left, rng)
			if err != nil {
				return nil, "", missing, err
			}
			rightBase, rightOk, err := EmitRead(o.Chr, o.Pos, rightInd, rightPool, store, opts.Right, rng)
			if err != nil {
				return nil, "", missing, err
			}
			if !leftOk || !rightOk {
				missing++
				continue
			}

			acc.Overlap++
			if leftBase != rightBase {
				acc.Mismatch++
			}
		}

		accs[cmp.Label] = acc
	}

	return accs, chosenFounders, missing, nil
}
