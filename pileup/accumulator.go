package pileup

import (
	"github.com/zmaroti/grups2/genome"
)

// PairAccumulator holds the running sufficient statistics for one ordered
// sample pair as the pileup streams past (spec §3 "PwdAccumulator").
type PairAccumulator struct {
	Left, Right string

	RawOverlap  uint64
	RawMismatch uint64
	SumPhred    float64

	CorrectedOverlap  uint64
	CorrectedMismatch uint64

	Jackknife *genome.JackknifeBlocks

	// Positions records, in ascending per-chromosome order, every site this
	// pair had a valid draw at — the per-pair position list the simulation
	// engine replays (spec §4.6 step 3 "for each of the pair's observed
	// positions, replay the observed depth on each side").
	Positions []ObservedSite
}

// ObservedSite is one position this pair had a valid draw at, plus the
// per-side depth that was available there (so the simulator can replicate
// read-sampling at the same coverage, spec §4.6 step 3).
type ObservedSite struct {
	Chr, Pos      int
	LeftDepth     int
	RightDepth    int
	LeftPhred     genome.Phred
	RightPhred    genome.Phred
}

// NewPairAccumulator creates an accumulator for one ordered pair, with its
// own private jack-knife block set sized by chrLengths/blockSize — blocks
// are never shared across pairs (spec §3 "PwdAccumulator (per ordered
// pair)").
func NewPairAccumulator(left, right string, chrLengths map[int]int, blockSize int) *PairAccumulator {
	return &PairAccumulator{
		Left: left, Right: right,
		Jackknife: genome.NewJackknifeBlocks(chrLengths, blockSize),
	}
}

// Observe records one site's outcome: mismatch is the drawn-allele
// disagreement, corrected reports whether this site also passed the
// reference-frequency filter (spec §4.4 "corrected PWD").
func (p *PairAccumulator) Observe(chr, pos int, leftBase, rightBase genome.Allele, leftPhred, rightPhred genome.Phred, leftDepth, rightDepth int, corrected bool) {
	p.RawOverlap++
	if leftBase != rightBase {
		p.RawMismatch++
	}
	p.SumPhred += float64(leftPhred) + float64(rightPhred)

	if corrected {
		p.CorrectedOverlap++
		if leftBase != rightBase {
			p.CorrectedMismatch++
		}
	}

	if p.Jackknife != nil {
		if b := p.Jackknife.FindBlock(chr, pos); b != nil {
			b.AddCount()
			if leftBase != rightBase {
				b.AddPwd(1)
			}
		}
	}

	p.Positions = append(p.Positions, ObservedSite{
		Chr: chr, Pos: pos,
		LeftDepth: leftDepth, RightDepth: rightDepth,
		LeftPhred: leftPhred, RightPhred: rightPhred,
	})
}

// RawPWD returns the raw pairwise-mismatch rate.
func (p *PairAccumulator) RawPWD() float64 {
	if p.RawOverlap == 0 {
		return 0
	}
	return float64(p.RawMismatch) / float64(p.RawOverlap)
}

// CorrectedPWD returns the reference-frequency-filtered pairwise-mismatch rate.
func (p *PairAccumulator) CorrectedPWD() float64 {
	if p.CorrectedOverlap == 0 {
		return 0
	}
	return float64(p.CorrectedMismatch) / float64(p.CorrectedOverlap)
}

// AvgPhred returns the mean of both sides' summed PHRED scores over raw overlap.
func (p *PairAccumulator) AvgPhred() float64 {
	if p.RawOverlap == 0 {
		return 0
	}
	return p.SumPhred / float64(2*p.RawOverlap)
}

// JackknifeCI returns the delete-one-block jackknife estimate and its 95%
// CI half-width over this pair's raw PWD (spec §4.7).
func (p *PairAccumulator) JackknifeCI() (genome.JackknifeEstimates, float64) {
	if p.Jackknife == nil {
		return genome.JackknifeEstimates{}, 0
	}
	est := p.Jackknife.ComputeUnequalDeleteMPseudoValues(float64(p.RawMismatch), p.RawOverlap)
	return est, est.CI95()
}
