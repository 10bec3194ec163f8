package simulate

import (
	"math/rand"

	"github.com/carbocation/pfx"
	"github.com/sirupsen/logrus"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/panel"
)

// ContaminantPool holds the fixed set of reference individuals drawn once
// per replicate to stand in for contaminating DNA, one per side (spec §4.6
// step 3 "drawn once per replicate from --contam-pop, --contam-num-ind such
// individuals, round-robin").
type ContaminantPool struct {
	samples []panel.Sample
	next    int
}

var warnedSmallPool = false

// NewContaminantPool draws contamNumInd distinct samples from pop. If the
// population has fewer members than requested, the pool is capped to what's
// available and a one-time warning is logged — this is not a fatal
// FounderShortage since contamination is an optional noise model, not a
// required pedigree founder.
func NewContaminantPool(pop []panel.Sample, contamNumInd int, rng *rand.Rand) *ContaminantPool {
	n := contamNumInd
	if n > len(pop) {
		n = len(pop)
		if !warnedSmallPool {
			logrus.Warnf("contaminant pool requested %d individuals but population only has %d; capping", contamNumInd, len(pop))
			warnedSmallPool = true
		}
	}
	shuffled := make([]panel.Sample, len(pop))
	copy(shuffled, pop)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return &ContaminantPool{samples: shuffled[:n]}
}

// draw returns the next sample in round-robin order.
func (p *ContaminantPool) draw() panel.Sample {
	s := p.samples[p.next%len(p.samples)]
	p.next++
	return s
}

// EmitOptions configures one side's observation noise model (spec §4.6 step 3).
type EmitOptions struct {
	ContamRate   float64
	SeqErrorRate float64
	SNPKeepProb  float64 // snp_keep: probability a position survives SNP downsampling on one EmitRead call
}

// EmitRead draws one simulated base for individual `ind`'s genome at
// (chr,pos), mixing in contamination and sequencing error per spec §4.6
// step 3. Returns ok=false if SNP downsampling dropped the position or there
// is no genotype to draw from. The downsampling draw is made on every call,
// so the two sides of a comparison, and different comparisons, keep or drop
// a position independently of each other.
func EmitRead(chr, pos int, ind *DiploidGenome, pool *ContaminantPool, store RefStore, opts EmitOptions, rng *rand.Rand) (genome.Allele, bool, error) {
	if rng.Float64() >= opts.SNPKeepProb {
		return 0, false, nil
	}

	var base genome.Allele
	if pool != nil && rng.Float64() < opts.ContamRate {
		contaminant := pool.draw()
		g, ok, err := store.LookupGenotype(chr, pos, contaminant.Index)
		if err != nil {
			return 0, false, pfx.Err(err)
		}
		if !ok {
			return 0, false, nil
		}
		if rng.Float64() < 0.5 {
			base = g.Paternal
		} else {
			base = g.Maternal
		}
	} else {
		g, ok := ind.At(chr, pos)
		if !ok {
			return 0, false, nil
		}
		if rng.Float64() < 0.5 {
			base = g.Paternal
		} else {
			base = g.Maternal
		}
	}

	if rng.Float64() < opts.SeqErrorRate {
		others := base.Other()
		base = others[rng.Intn(3)]
	}

	return base, true, nil
}
