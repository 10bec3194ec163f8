package simulate

import (
	"math/rand"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/pedigree"
)

// MeiosisOptions configures crossover and allele-fixation behavior.
type MeiosisOptions struct {
	GeneticMap      *genome.GeneticMap
	XChromosomeMode bool
	// AFKeepProb is p_keep for AF-downsampling: with probability 1-p_keep a
	// transmitted allele is replaced by a draw from the reference AF at
	// that position (spec §4.6 step 2). 1.0 disables downsampling.
	AFKeepProb float64
	RefStore   afLookup
	Population string
}

type afLookup interface {
	LookupAF(chr, pos int, pop string) (float32, bool, error)
}

// gameteStrand walks one parent's positions on one chromosome in ascending
// order and returns one transmitted allele per position, applying the
// random-starting-strand / flip-on-recombination-probability model (spec
// §4.6 step 2, grounded in the original engine's Chromosome::meiosis).
// pick selects which of a genotype's two alleles the current strand reads.
func gameteStrand(parent *DiploidGenome, chr int, positions []int, gm *genome.GeneticMap, rng *rand.Rand) map[int]genome.Allele {
	out := make(map[int]genome.Allele, len(positions))
	if len(positions) == 0 {
		return out
	}

	strand := rng.Float64() < 0.5 // false = paternal, true = maternal
	prevPos := positions[0]

	for i, pos := range positions {
		if i > 0 {
			prob := gm.RecombProb(chr, prevPos, pos)
			if rng.Float64() < prob {
				strand = !strand
			}
		}

		g, ok := parent.At(chr, pos)
		if ok {
			if strand {
				out[pos] = g.Maternal
			} else {
				out[pos] = g.Paternal
			}
		}
		prevPos = pos
	}
	return out
}

// hemizygousXStrand returns a father's single, unrecombined X allele at
// every position — used when transmitting X to a daughter, since a male
// founder/individual carries only one copy (spec §4.6 step 2, "males
// transmit their single X to daughters unrecombined").
func hemizygousXStrand(parent *DiploidGenome, chr int, positions []int) map[int]genome.Allele {
	out := make(map[int]genome.Allele, len(positions))
	for _, pos := range positions {
		if g, ok := parent.At(chr, pos); ok {
			out[pos] = g.Paternal
		}
	}
	return out
}

// downsample applies AF-downsampling in place: with probability 1-p_keep,
// replaces a transmitted allele with a draw weighted toward the reference
// allele at that position (spec §4.6 step 2).
func downsample(strand map[int]genome.Allele, chr int, opts MeiosisOptions, rng *rand.Rand) {
	if opts.AFKeepProb >= 1.0 || opts.RefStore == nil {
		return
	}
	for pos, base := range strand {
		if rng.Float64() < opts.AFKeepProb {
			continue
		}
		af, ok, err := opts.RefStore.LookupAF(chr, pos, opts.Population)
		if err != nil || !ok {
			continue
		}
		if rng.Float64() < float64(af) {
			strand[pos] = altOf(base)
		}
	}
}

// altOf picks the fixation target for AF-downsampling once the random
// draw has already decided to replace base.
func altOf(base genome.Allele) genome.Allele {
	return base.Other()[0]
}

// PropagateMeiosis walks the pedigree in topological order and produces a
// DiploidGenome for every non-founder individual, combining one gamete
// strand from each parent per chromosome (spec §4.6 step 2).
func PropagateMeiosis(ped *pedigree.Pedigree, founders map[int]*DiploidGenome, positions Positions, opts MeiosisOptions, rng *rand.Rand) map[int]*DiploidGenome {
	genomes := make(map[int]*DiploidGenome, len(ped.Individuals()))
	for idx, g := range founders {
		genomes[idx] = g
	}

	for _, idx := range ped.Order {
		ind := ped.At(idx)
		if ind.IsFounder() {
			continue
		}
		father := genomes[ind.FatherIdx]
		mother := genomes[ind.MotherIdx]
		child := newDiploidGenome()

		for chr, posList := range positions {
			var paternalStrand, maternalStrand map[int]genome.Allele

			if opts.XChromosomeMode && chr == genome.ChrX {
				if ind.Sex == genome.SexMale {
					// sons get no paternal X; both slots come from mother
					// so the child is structurally hemizygous (never
					// carries his father's X allele, spec §8 property 5).
					maternalStrand = gameteStrand(mother, chr, posList, opts.GeneticMap, rng)
					paternalStrand = maternalStrand
				} else {
					paternalStrand = hemizygousXStrand(father, chr, posList)
					maternalStrand = gameteStrand(mother, chr, posList, opts.GeneticMap, rng)
				}
			} else {
				paternalStrand = gameteStrand(father, chr, posList, opts.GeneticMap, rng)
				maternalStrand = gameteStrand(mother, chr, posList, opts.GeneticMap, rng)
			}

			downsample(paternalStrand, chr, opts, rng)
			downsample(maternalStrand, chr, opts, rng)

			for _, pos := range posList {
				pat, okP := paternalStrand[pos]
				mat, okM := maternalStrand[pos]
				if okP && okM {
					child.set(chr, pos, genome.Genotype{Paternal: pat, Maternal: mat})
				}
			}
		}

		genomes[idx] = child
	}

	return genomes
}
