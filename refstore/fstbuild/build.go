// Package fstbuild implements the offline FST-build subcomponent of spec
// §4.3 ("FST builder algorithm"): scan a reference VCF once, filter to
// bi-allelic SNPs, optionally recompute per-(super-)population allele
// frequencies, and emit the ordered genotype/frequency FST pair for one
// chromosome.
package fstbuild

import (
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vcfgo"
	"github.com/klauspost/compress/gzip"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/refstore"
)

// Options configures one shard build.
type Options struct {
	VCFPath       string
	Chr           int
	OutPrefix     string // writes OutPrefix+".fst" and OutPrefix+".fst.frq"
	ComputePopAFs bool   // --compute-pop-afs: derive AFs from panel dosages instead of trusting INFO
	Panel         *panel.Panel
}

// BuildShard runs the full per-chromosome build algorithm. It is meant to be
// called once per worker goroutine, one worker per input VCF (spec §5 "FST
// build: one worker thread per input VCF shard"). ctx is checked between
// variant records (spec §5 "Cancellation"); on cancellation the shard's
// in-progress .fst/.fst.frq files are renamed with a .partial suffix and
// BuildShard returns kinerr.Aborted.
func BuildShard(ctx context.Context, opts Options) error {
	f, err := openMaybeGzip(opts.VCFPath)
	if err != nil {
		return pfx.Err(&kinerr.IoError{Op: "open", Path: opts.VCFPath, Err: err})
	}
	defer f.Close()

	rdr, err := vcfgo.NewReader(f, false)
	if err != nil {
		return pfx.Err(err)
	}

	samples := rdr.Header.SampleNames
	populations := collectPopulations(opts.Panel, samples)

	genoW, err := os.Create(opts.OutPrefix + ".fst")
	if err != nil {
		return pfx.Err(&kinerr.IoError{Op: "create", Path: opts.OutPrefix + ".fst", Err: err})
	}
	defer genoW.Close()
	freqW, err := os.Create(opts.OutPrefix + ".fst.frq")
	if err != nil {
		return pfx.Err(&kinerr.IoError{Op: "create", Path: opts.OutPrefix + ".fst.frq", Err: err})
	}
	defer freqW.Close()

	genoBuilder, err := refstore.NewFSTBuilder(genoW)
	if err != nil {
		return pfx.Err(err)
	}
	freqBuilder, err := refstore.NewFSTBuilder(freqW)
	if err != nil {
		return pfx.Err(err)
	}

	popID := make(map[string]uint16, len(populations))
	for i, p := range populations {
		popID[p] = uint16(i)
	}

	prevPos := -1
	for {
		select {
		case <-ctx.Done():
			genoBuilder.Close()
			freqBuilder.Close()
			genoW.Close()
			freqW.Close()
			os.Rename(opts.OutPrefix+".fst", opts.OutPrefix+".fst.partial")
			os.Rename(opts.OutPrefix+".fst.frq", opts.OutPrefix+".fst.frq.partial")
			return pfx.Err(&kinerr.Aborted{Reason: "cancelled while building shard " + opts.OutPrefix})
		default:
		}

		variant := rdr.Read()
		if variant == nil {
			if rerr := rdr.Error(); rerr != nil && rerr != io.EOF {
				return pfx.Err(rerr)
			}
			break
		}

		chr, cerr := genome.ParseChr(strings.TrimPrefix(variant.Chromosome, "chr"))
		if cerr != nil || chr != opts.Chr {
			continue
		}

		if !isBiallelicSNP(variant) {
			continue
		}

		pos := int(variant.Pos)
		if pos == prevPos {
			// "drop records...whose position duplicates the previous one"
			continue
		}
		if pos < prevPos {
			return pfx.Err(&kinerr.FstBuildNonMonotonic{Shard: opts.OutPrefix, PrevPosition: prevPos, Position: pos})
		}

		ref := variant.Reference
		alts := variant.Alt()
		if len(ref) != 1 || len(alts) == 0 || len(alts[0]) != 1 {
			continue
		}
		refA, ok1 := genome.ParseAllele(ref[0])
		altA, ok2 := genome.ParseAllele(alts[0][0])
		if !ok1 || !ok2 {
			continue
		}

		for i, sample := range variant.Samples {
			if sample == nil || len(sample.GT) != 2 {
				continue
			}
			pat := alleleAt(sample.GT[0], refA, altA)
			mat := alleleAt(sample.GT[1], refA, altA)
			key := refstore.GenotypeKey(pos, i)
			val := uint64(refstore.PackGenotype(byte(pat), byte(mat)))
			if err := genoBuilder.Insert(key, val); err != nil {
				return pfx.Err(err)
			}
		}

		afs := computeAFs(variant, populations, opts.Panel, samples, opts.ComputePopAFs)
		for _, pop := range populations {
			af, ok := afs[pop]
			if !ok {
				continue
			}
			key := refstore.FreqKey(pos, popID[pop])
			if err := freqBuilder.Insert(key, uint64(refstore.PackAF(af))); err != nil {
				return pfx.Err(err)
			}
		}

		prevPos = pos
	}

	if err := genoBuilder.Close(); err != nil {
		return pfx.Err(err)
	}
	if err := freqBuilder.Close(); err != nil {
		return pfx.Err(err)
	}

	return refstore.WriteShardHeader(opts.OutPrefix+".fst", refstore.ShardHeader{
		Chr:        opts.Chr,
		Samples:    samples,
		Population: populations,
	})
}

func alleleAt(idx int, ref, alt genome.Allele) genome.Allele {
	if idx == 0 {
		return ref
	}
	return alt
}

func isBiallelicSNP(v *vcfgo.Variant) bool {
	info := v.Info()
	if _, err := info.Get("MULTI_ALLELIC"); err == nil {
		return false
	}
	vt, err := info.Get("VT")
	if err != nil {
		return len(v.Reference) == 1 && len(v.Alt()) == 1 && len(v.Alt()[0]) == 1
	}
	s, _ := vt.(string)
	return s == "SNP"
}

// collectPopulations returns the sorted, de-duplicated set of populations to
// index, drawn from the panel entries of samples present in this VCF.
func collectPopulations(p *panel.Panel, vcfSamples []string) []string {
	seen := make(map[string]struct{})
	for _, id := range vcfSamples {
		if s, ok := p.Lookup(id); ok {
			seen[s.Population] = struct{}{}
			seen[s.SuperPop] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for pop := range seen {
		out = append(out, pop)
	}
	sort.Strings(out)
	return out
}

// computeAFs either trusts the VCF's own <POP>_AF INFO fields, or — when
// ComputePopAFs is set — sums ALT dosages over the panel's members of each
// population (spec §4.3 "FST builder algorithm").
func computeAFs(v *vcfgo.Variant, populations []string, p *panel.Panel, vcfSamples []string, compute bool) map[string]float32 {
	out := make(map[string]float32, len(populations))
	if !compute {
		for _, key := range v.Info().Keys() {
			if !strings.HasSuffix(key, "_AF") {
				continue
			}
			val, err := v.Info().Get(key)
			if err != nil {
				continue
			}
			pop := strings.TrimSuffix(key, "_AF")
			if f, ok := toFloat32(val); ok {
				out[pop] = f
			}
		}
		return out
	}

	for _, pop := range populations {
		var dosage, n int
		for i, sample := range v.Samples {
			if sample == nil || len(sample.GT) != 2 {
				continue
			}
			id := vcfSamples[i]
			s, ok := p.Lookup(id)
			if !ok || (s.Population != pop && s.SuperPop != pop) {
				continue
			}
			for _, gt := range sample.GT {
				if gt == 1 {
					dosage++
				}
			}
			n += 2
		}
		if n > 0 {
			out[pop] = float32(dosage) / float32(n)
		}
	}
	return out
}

func toFloat32(v interface{}) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		return float32(x), true
	case string:
		f, err := strconv.ParseFloat(x, 32)
		if err != nil {
			return 0, false
		}
		return float32(f), true
	default:
		return 0, false
	}
}

func openMaybeGzip(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return &gzipCloser{gz: gz, fh: fh}, nil
	}
	return fh, nil
}

type gzipCloser struct {
	gz *gzip.Reader
	fh *os.File
}

func (g *gzipCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzipCloser) Close() error {
	g.gz.Close()
	return g.fh.Close()
}
