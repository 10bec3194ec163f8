package genome

import "math"

// JackknifeBlock accumulates overlap (site_count) and mismatch-weighted pwd
// sums for one fixed-width genomic window, keyed by (chr, [start,end))
// (spec §3 PwdAccumulator "jack-knife blocks keyed by (chr, position/blocksize)").
type JackknifeBlock struct {
	Chr        int
	Start, End int // [Start, End)
	siteCount  uint32
	pwdCount   float64
}

// Contains reports whether pos falls within this block's [Start, End) range.
func (b *JackknifeBlock) Contains(chr, pos int) bool {
	return b.Chr == chr && pos >= b.Start && pos < b.End
}

// AddCount records one overlapping site in this block.
func (b *JackknifeBlock) AddCount() { b.siteCount++ }

// AddPwd accumulates a pairwise-difference contribution (0 or 1, or a
// sampled probability under simulation) into this block.
func (b *JackknifeBlock) AddPwd(pwd float64) { b.pwdCount += pwd }

// SiteCount returns the number of overlapping sites recorded in this block.
func (b *JackknifeBlock) SiteCount() uint32 { return b.siteCount }

// PwdCount returns the summed pairwise-difference contribution recorded in this block.
func (b *JackknifeBlock) PwdCount() float64 { return b.pwdCount }

type pseudovalue struct {
	hj     float64
	thetaJ float64
}

func (b *JackknifeBlock) weightedPseudovalue(sumPwd float64, sumOverlap uint64) pseudovalue {
	overlap := float64(sumOverlap)
	counts := float64(b.siteCount)

	hj := overlap / counts
	theta := sumPwd / overlap
	thetaMinusJ := (sumPwd - b.pwdCount) / (overlap - counts)
	thetaJ := hj*theta - (hj-1)*thetaMinusJ
	return pseudovalue{hj: hj, thetaJ: thetaJ}
}

func (p pseudovalue) weighted() float64 { return p.thetaJ / p.hj }

// JackknifeEstimates is the delete-one-block jackknife point estimate and
// variance of the average PWD, per spec §4.7 "95% CI over jack-knife blocks".
type JackknifeEstimates struct {
	Estimate float64
	Variance float64
}

// CI95 returns the symmetric 95% confidence interval half-width (1.96*sqrt(variance)).
func (e JackknifeEstimates) CI95() float64 {
	return 1.96 * math.Sqrt(e.Variance)
}

// JackknifeBlocks partitions every chromosome into fixed-width windows and
// accumulates per-pair sufficient statistics within each (spec §4.7).
type JackknifeBlocks struct {
	blocks map[int][]*JackknifeBlock
}

// NewJackknifeBlocks builds one set of blocks per chromosome, sized by
// chrLengths (chr -> length in bp) and blockSize.
func NewJackknifeBlocks(chrLengths map[int]int, blockSize int) *JackknifeBlocks {
	jb := &JackknifeBlocks{blocks: make(map[int][]*JackknifeBlock, len(chrLengths))}
	for chr, length := range chrLengths {
		var blocks []*JackknifeBlock
		for start := 1; start <= length; start += blockSize {
			end := start + blockSize
			if end > length+1 {
				end = length + 1
			}
			blocks = append(blocks, &JackknifeBlock{Chr: chr, Start: start, End: end})
		}
		jb.blocks[chr] = blocks
	}
	return jb
}

// All returns every block across every chromosome, for callers that need
// to walk the full set (e.g. the .blk file writer).
func (jb *JackknifeBlocks) All() []*JackknifeBlock {
	var out []*JackknifeBlock
	for _, blocksOfChr := range jb.blocks {
		out = append(out, blocksOfChr...)
	}
	return out
}

// FindBlock returns the block containing (chr, pos), or nil if chr has no
// blocks registered (e.g. chromosome length unknown).
func (jb *JackknifeBlocks) FindBlock(chr, pos int) *JackknifeBlock {
	for _, b := range jb.blocks[chr] {
		if b.Contains(chr, pos) {
			return b
		}
	}
	return nil
}

// ComputeUnequalDeleteMPseudoValues implements the delete-one-block jackknife
// estimator from the original engine's genome::jackknife module: for each
// block, compute a weighted pseudo-value from the overall and
// leave-one-block-out average PWD, sum them for the point estimate, then
// compute the jackknife variance from the squared deviations of those
// pseudo-values, normalized by the number of blocks.
func (jb *JackknifeBlocks) ComputeUnequalDeleteMPseudoValues(sumPwd float64, sumOverlap uint64) JackknifeEstimates {
	var thetaJK float64
	var pseudos []pseudovalue

	for _, blocksOfChr := range jb.blocks {
		for _, b := range blocksOfChr {
			if b.siteCount == 0 {
				continue
			}
			pv := b.weightedPseudovalue(sumPwd, sumOverlap)
			if !math.IsInf(pv.hj, 0) && !math.IsNaN(pv.hj) {
				thetaJK += pv.weighted()
				pseudos = append(pseudos, pv)
			}
		}
	}

	var varJK float64
	for _, pv := range pseudos {
		varJK += math.Pow(pv.weighted()-thetaJK, 2) / (pv.hj - 1)
	}
	g := len(pseudos)
	if g > 0 {
		varJK /= float64(g)
	}

	return JackknifeEstimates{Estimate: thetaJK, Variance: varJK}
}
