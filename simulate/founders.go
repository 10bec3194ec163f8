package simulate

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/pedigree"
)

// RefStore is the subset of refstore.Store the simulation engine needs.
type RefStore interface {
	LookupGenotype(chr, pos, sampleIdx int) (genome.Genotype, bool, error)
}

// FounderOptions configures one replicate's founder draw (spec §4.6 step 1).
type FounderOptions struct {
	Population     string
	SexSpecific    bool
	XChromosomeMode bool
}

// AssignFounders draws one distinct reference sample per pedigree founder
// from opts.Population, without replacement within the replicate, then
// looks up each founder's genotype at every position the pair observed.
// Returns FounderShortage (fatal) if the population can't supply enough
// distinct, sex-matching samples. The second return value names which
// reference sample was drawn for each founder, keyed by the founder's
// pedigree arena index, for the `.sims` "chosen founders" column (spec §4.7).
func AssignFounders(ped *pedigree.Pedigree, pop []panel.Sample, positions Positions, store RefStore, opts FounderOptions, rng *rand.Rand) (map[int]*DiploidGenome, map[int]string, error) {
	founderIdxs := founderIndices(ped)

	pool := make([]panel.Sample, len(pop))
	copy(pool, pop)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	genomes := make(map[int]*DiploidGenome, len(founderIdxs))
	chosen := make(map[int]string, len(founderIdxs))
	used := 0
	for _, idx := range founderIdxs {
		individual := ped.At(idx)

		sampleSlot := -1
		for i := used; i < len(pool); i++ {
			if opts.SexSpecific || opts.XChromosomeMode {
				if individual.Sex != genome.SexUnknown && pool[i].Sex != individual.Sex {
					continue
				}
			}
			pool[used], pool[i] = pool[i], pool[used]
			sampleSlot = used
			used++
			break
		}
		if sampleSlot < 0 {
			return nil, nil, pfx.Err(&kinerr.FounderShortage{Population: opts.Population, Needed: len(founderIdxs), Available: used})
		}

		sample := pool[sampleSlot]
		chosen[idx] = sample.ID
		g := newDiploidGenome()
		for chr, posList := range positions {
			for _, pos := range posList {
				genotype, ok, err := store.LookupGenotype(chr, pos, sample.Index)
				if err != nil {
					return nil, nil, pfx.Err(err)
				}
				if !ok {
					continue // ReferenceMissing: position skipped for this founder
				}
				g.set(chr, pos, genotype)
			}
		}
		genomes[idx] = g
	}

	return genomes, chosen, nil
}

// FormatChosenFounders renders a replicate's founder draw as a single
// deterministic field for the `.sims` output: "founderID=sampleID" pairs,
// comma-joined in ascending pedigree arena-index order.
func FormatChosenFounders(ped *pedigree.Pedigree, chosen map[int]string) string {
	idxs := make([]int, 0, len(chosen))
	for idx := range chosen {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	parts := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		parts = append(parts, ped.At(idx).ID+"="+chosen[idx])
	}
	return strings.Join(parts, ",")
}

func founderIndices(ped *pedigree.Pedigree) []int {
	var out []int
	for i, ind := range ped.Individuals() {
		if ind.IsFounder() {
			out = append(out, i)
		}
	}
	return out
}
