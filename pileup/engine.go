package pileup

import (
	"bufio"
	"context"
	"io"
	"math/rand"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

// TargetFilter narrows pileup sites to a known variant list and optionally
// identifies transitions for exclusion (spec §4.4). A nil TargetFilter
// disables both filters.
type TargetFilter interface {
	// Lookup returns the known alternate allele at (chr,pos) and whether the
	// site is present in the target list at all.
	Lookup(chr, pos int) (alt genome.Allele, ok bool)
}

// isTransition reports whether (ref,alt) is one of the two transition pairs.
func isTransition(ref, alt genome.Allele) bool {
	return (ref == genome.A && alt == genome.G) || (ref == genome.G && alt == genome.A) ||
		(ref == genome.C && alt == genome.T) || (ref == genome.T && alt == genome.C)
}

// Pair names one requested ordered sample comparison by its pileup column
// index (0-based).
type Pair struct {
	LeftCol, RightCol int
	LeftName, RightName string
}

// RefFreqLookup resolves a population allele frequency at (chr,pos) for the
// corrected-PWD filter (spec §4.4 "corrected PWD ... AF >= --maf").
type RefFreqLookup interface {
	LookupAF(chr, pos int, pop string) (float32, bool, error)
}

// Options configures one streaming pass of the engine.
type Options struct {
	MinDepth     int
	MinQual      genome.Phred
	KeepDels     bool
	Targets      TargetFilter         // nil disables target-site filtering
	ExcludeTs    bool                 // exclude transitions
	RefStore     RefFreqLookup        // nil disables the corrected-PWD filter
	MinAF        float32              // --maf
	Population   string               // pedigree population used for the AF filter
	ChrLengths   map[int]int
	BlockSize    int
	Rand         *rand.Rand
}

// Run streams r line by line, parsing pileup records and feeding every
// requested pair's accumulator. Returns the accumulators keyed by pair
// label (LeftName+"\t"+RightName, chosen by the caller when constructing
// pairs so labels stay stable). ctx is checked between records (spec §5
// "Cancellation"); a cancelled ctx aborts the stream with kinerr.Aborted.
func Run(ctx context.Context, r io.Reader, path string, pairs []Pair, opts Options) (map[string]*PairAccumulator, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}

	accs := make(map[string]*PairAccumulator, len(pairs))
	for _, p := range pairs {
		label := p.LeftName + "\t" + p.RightName
		accs[label] = NewPairAccumulator(p.LeftName, p.RightName, opts.ChrLengths, opts.BlockSize)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return accs, pfx.Err(&kinerr.Aborted{Reason: "cancelled while streaming " + path})
		default:
		}

		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}

		rec, err := ParseLine(line, path, lineNo, opts.KeepDels)
		if err != nil {
			return nil, err
		}

		if opts.Targets != nil {
			alt, ok := opts.Targets.Lookup(rec.Chr, rec.Pos)
			if !ok {
				continue // site-filter rejection: silent drop, not an error
			}
			if opts.ExcludeTs && isTransition(rec.Ref, alt) {
				continue
			}
		}

		for i := range rec.Samples {
			rec.Samples[i].FilterQuality(opts.MinQual)
		}

		for _, pair := range pairs {
			label := pair.LeftName + "\t" + pair.RightName
			acc := accs[label]

			minDepth := opts.MinDepth
			if pair.LeftCol == pair.RightCol {
				// self-comparison: two alleles are needed from the same
				// column (spec §4.4).
				if minDepth < 2 {
					minDepth = 2
				}
			}

			if pair.LeftCol >= len(rec.Samples) || pair.RightCol >= len(rec.Samples) {
				continue
			}
			left := rec.Samples[pair.LeftCol]
			right := rec.Samples[pair.RightCol]

			if len(left.Nucleotides) == 0 || len(right.Nucleotides) == 0 {
				continue
			}
			if left.Depth < minDepth || right.Depth < minDepth {
				continue
			}

			var leftN, rightN genome.Nucleotide
			if pair.LeftCol == pair.RightCol {
				i, j := drawDistinctPair(opts.Rand, len(left.Nucleotides))
				leftN, rightN = left.Nucleotides[i], left.Nucleotides[j]
			} else {
				leftN = left.Nucleotides[opts.Rand.Intn(len(left.Nucleotides))]
				rightN = right.Nucleotides[opts.Rand.Intn(len(right.Nucleotides))]
			}

			corrected := false
			if opts.RefStore != nil {
				af, ok, err := opts.RefStore.LookupAF(rec.Chr, rec.Pos, opts.Population)
				if err != nil {
					return nil, pfx.Err(err)
				}
				corrected = ok && af >= opts.MinAF
			}

			acc.Observe(rec.Chr, rec.Pos, leftN.Base, rightN.Base, leftN.Phred, rightN.Phred, left.Depth, right.Depth, corrected)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "read", Path: path, Err: err})
	}

	return accs, nil
}

// drawDistinctPair draws two distinct indices in [0,n) uniformly — used for
// self-comparisons, which need two independent alleles from the same
// pileup column.
func drawDistinctPair(r *rand.Rand, n int) (int, int) {
	i := r.Intn(n)
	j := r.Intn(n)
	for j == i && n > 1 {
		j = r.Intn(n)
	}
	return i, j
}
