package refstore

import (
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
)

func openFile(path string) (*os.File, error) {
	return os.Open(path)
}

// VCFStore streams one chromosome's worth of a .vcf[.gz] reference panel
// forward-only (spec §4.3 "VCF-backed"). The simulator must consume
// positions in ascending order per chromosome; VCFStore enforces that by
// buffering exactly the records at the current position and advancing on
// demand.
type VCFStore struct {
	chr      int
	path     string
	close    func() error
	reader   *vcfgo.Reader
	samples  []string // VCF header sample order; index matches panel.Sample.Index
	cur      *vcfRecord
	advanced bool
}

type vcfRecord struct {
	pos        int
	genotypes  map[int]genome.Genotype // sampleIdx -> genotype
	afs        map[string]float32      // population -> frequency
}

// OpenVCF opens a (possibly gzip-compressed) VCF stream for a single
// chromosome. Bi-allelic-SNP filtering (INFO lacks MULTI_ALLELIC, contains
// VT=SNP) happens transparently as records are consumed (spec §4.3).
func OpenVCF(path string, chr int) (*VCFStore, error) {
	f, err := openMaybeGzip(path)
	if err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "open", Path: path, Err: err})
	}

	rdr, err := vcfgo.NewReader(f.r, false)
	if err != nil {
		f.close()
		return nil, pfx.Err(err)
	}

	return &VCFStore{
		chr:     chr,
		path:    path,
		close:   f.close,
		reader:  rdr,
		samples: rdr.Header.SampleNames,
	}, nil
}

type closeableReader struct {
	r     io.Reader
	close func() error
}

func openMaybeGzip(path string) (*closeableReader, error) {
	fh, err := openFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return &closeableReader{r: gz, close: func() error { gz.Close(); return fh.Close() }}, nil
	}
	return &closeableReader{r: fh, close: fh.Close}, nil
}

// sampleIndexOf returns the VCF header index of a sample id, or -1.
func (v *VCFStore) sampleIndexOf(sampleID string) int {
	for i, s := range v.samples {
		if s == sampleID {
			return i
		}
	}
	return -1
}

// advance pulls the next bi-allelic SNP record on v.chr, skipping anything
// that fails the filter, duplicate positions, and records on other
// chromosomes. Mirrors the original FST builder's scan loop (spec §4.3).
func (v *VCFStore) advance() error {
	for {
		variant := v.reader.Read()
		if variant == nil {
			if err := v.reader.Error(); err != nil && err != io.EOF {
				return pfx.Err(err)
			}
			v.cur = nil
			return nil
		}

		chr, err := genome.ParseChr(strings.TrimPrefix(variant.Chromosome, "chr"))
		if err != nil || chr != v.chr {
			continue
		}

		if !isBiallelicSNP(variant) {
			continue
		}
		if v.cur != nil && int(variant.Pos) == v.cur.pos {
			continue
		}

		rec := &vcfRecord{
			pos:       int(variant.Pos),
			genotypes: make(map[int]genome.Genotype),
			afs:       make(map[string]float32),
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
			g := genome.Genotype{
				Paternal: gtAllele(sample.GT[0], refA, altA),
				Maternal: gtAllele(sample.GT[1], refA, altA),
			}
			rec.genotypes[i] = g
		}

		for _, key := range variant.Info().Keys() {
			if !strings.HasSuffix(key, "_AF") {
				continue
			}
			val, err := variant.Info().Get(key)
			if err != nil {
				continue
			}
			pop := strings.TrimSuffix(key, "_AF")
			if f, ok := toFloat32(val); ok {
				rec.afs[pop] = f
			}
		}

		v.cur = rec
		return nil
	}
}

func gtAllele(idx int, ref, alt genome.Allele) genome.Allele {
	if idx == 0 {
		return ref
	}
	return alt
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
	case []string:
		if len(x) == 0 {
			return 0, false
		}
		return toFloat32(x[0])
	default:
		return 0, false
	}
}

// isBiallelicSNP implements spec §4.3's filter: INFO lacks MULTI_ALLELIC,
// contains VT=SNP.
func isBiallelicSNP(v *vcfgo.Variant) bool {
	info := v.Info()
	if _, err := info.Get("MULTI_ALLELIC"); err == nil {
		return false
	}
	vt, err := info.Get("VT")
	if err != nil {
		// Absent VT: fall back to REF/ALT length check only.
		return len(v.Reference) == 1 && len(v.Alt()) == 1 && len(v.Alt()[0]) == 1
	}
	s, _ := vt.(string)
	return s == "SNP"
}

// LookupGenotype implements Store. VCFStore is forward-only: callers must
// request ascending positions; a position behind the current cursor is
// reported as ok=false, the same as a position with no record.
func (v *VCFStore) LookupGenotype(chr, pos, sampleIdx int) (genome.Genotype, bool, error) {
	if err := v.seekTo(chr, pos); err != nil {
		return genome.Genotype{}, false, err
	}
	if v.cur == nil || v.cur.pos != pos {
		return genome.Genotype{}, false, nil
	}
	g, ok := v.cur.genotypes[sampleIdx]
	return g, ok, nil
}

func (v *VCFStore) LookupAF(chr, pos int, pop string) (float32, bool, error) {
	if err := v.seekTo(chr, pos); err != nil {
		return 0, false, err
	}
	if v.cur == nil || v.cur.pos != pos {
		return 0, false, nil
	}
	f, ok := v.cur.afs[pop]
	return f, ok, nil
}

func (v *VCFStore) seekTo(chr, pos int) error {
	if chr != v.chr {
		return pfx.Err(&kinerr.IoError{Op: "seek", Path: v.path, Err: io.ErrClosedPipe})
	}
	if !v.advanced {
		if err := v.advance(); err != nil {
			return err
		}
		v.advanced = true
	}
	for v.cur != nil && v.cur.pos < pos {
		if err := v.advance(); err != nil {
			return err
		}
	}
	return nil
}

// IterPositions drains the forward-only stream and returns, in ascending
// order, every position on chr from the current cursor onward. Positions the
// cursor has already passed are not included, and later lookups on this
// store find no records.
func (v *VCFStore) IterPositions(chr int) ([]int, error) {
	var positions []int
	if err := v.seekTo(chr, 0); err != nil {
		return nil, err
	}
	for v.cur != nil {
		positions = append(positions, v.cur.pos)
		if err := v.advance(); err != nil {
			return nil, err
		}
	}
	sort.Ints(positions)
	return positions, nil
}

func (v *VCFStore) Close() error { return v.close() }
