// Package targets loads the variant-site list a pileup run restricts
// itself to: EIGENSTRAT .snp, .vcf, or delimited {.tsv,.csv,.txt} files
// with chr/pos/ref/alt columns (spec §6).
package targets

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vcfgo"
	"github.com/gocarina/gocsv"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

// Site is one target variant: its coordinate plus the reference/alternate
// alleles needed by the transition-exclusion filter (spec §4.4).
type Site struct {
	Chr, Pos int
	Ref, Alt genome.Allele
}

// List is an immutable, position-indexed set of target sites, implementing
// pileup.TargetFilter.
type List struct {
	byChrPos map[[2]int]Site
}

// Lookup implements pileup.TargetFilter.
func (l *List) Lookup(chr, pos int) (genome.Allele, bool) {
	s, ok := l.byChrPos[[2]int{chr, pos}]
	if !ok {
		return 0, false
	}
	return s.Alt, true
}

// Contains reports whether (chr,pos) is a target site at all.
func (l *List) Contains(chr, pos int) bool {
	_, ok := l.byChrPos[[2]int{chr, pos}]
	return ok
}

func newList(sites []Site) *List {
	l := &List{byChrPos: make(map[[2]int]Site, len(sites))}
	for _, s := range sites {
		l.byChrPos[[2]int{s.Chr, s.Pos}] = s
	}
	return l
}

// Load dispatches on path's extension to the matching parser (spec §6).
func Load(path string) (*List, error) {
	switch {
	case strings.HasSuffix(path, ".snp"):
		return loadEigenstrat(path)
	case strings.HasSuffix(path, ".vcf") || strings.HasSuffix(path, ".vcf.gz"):
		return loadVCF(path)
	case strings.HasSuffix(path, ".tsv") || strings.HasSuffix(path, ".csv") || strings.HasSuffix(path, ".txt"):
		return loadDelimited(path)
	default:
		return nil, pfx.Err(&kinerr.BadTargets{Reason: fmt.Sprintf("%s: unrecognized target file extension", path)})
	}
}

// loadEigenstrat parses the six whitespace-separated EIGENSTRAT .snp
// columns: snp-id, chr, genetic-position, physical-position, ref, alt.
func loadEigenstrat(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "open", Path: path, Err: err})
	}
	defer f.Close()

	var sites []Site
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 6 {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: "EIGENSTRAT .snp requires exactly 6 columns"})
		}
		chr, err := genome.ParseChr(fields[1])
		if err != nil {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("bad chromosome %q", fields[1])})
		}
		pos, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("bad position %q", fields[3])})
		}
		ref, ok1 := genome.ParseAllele(fields[4][0])
		alt, ok2 := genome.ParseAllele(fields[5][0])
		if !ok1 || !ok2 {
			continue // non-SNP target sites are silently dropped, not an error
		}
		sites = append(sites, Site{Chr: chr, Pos: pos, Ref: ref, Alt: alt})
	}
	if err := sc.Err(); err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "read", Path: path, Err: err})
	}
	return newList(sites), nil
}

func loadVCF(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "open", Path: path, Err: err})
	}
	defer f.Close()

	rdr, err := vcfgo.NewReader(f, false)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var sites []Site
	for {
		v := rdr.Read()
		if v == nil {
			if rerr := rdr.Error(); rerr != nil && rerr != io.EOF {
				return nil, pfx.Err(rerr)
			}
			break
		}
		chr, err := genome.ParseChr(strings.TrimPrefix(v.Chromosome, "chr"))
		if err != nil {
			continue
		}
		alts := v.Alt()
		if len(v.Reference) != 1 || len(alts) == 0 || len(alts[0]) != 1 {
			continue
		}
		ref, ok1 := genome.ParseAllele(v.Reference[0])
		alt, ok2 := genome.ParseAllele(alts[0][0])
		if !ok1 || !ok2 {
			continue
		}
		sites = append(sites, Site{Chr: chr, Pos: int(v.Pos), Ref: ref, Alt: alt})
	}
	return newList(sites), nil
}

// delimitedRow is the gocsv-bound shape for .tsv/.csv/.txt target files
// (header "chr pos ref alt").
type delimitedRow struct {
	Chr string `csv:"chr"`
	Pos string `csv:"pos"`
	Ref string `csv:"ref"`
	Alt string `csv:"alt"`
}

func loadDelimited(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "open", Path: path, Err: err})
	}
	defer f.Close()

	comma := ','
	if strings.HasSuffix(path, ".tsv") || strings.HasSuffix(path, ".txt") {
		comma = '\t'
	}
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = comma
		r.LazyQuotes = true
		return r
	})

	var rows []*delimitedRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, pfx.Err(&kinerr.ParseError{File: path, Reason: err.Error()})
	}

	var sites []Site
	for i, row := range rows {
		chr, err := genome.ParseChr(row.Chr)
		if err != nil {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: i + 2, Reason: fmt.Sprintf("bad chromosome %q", row.Chr)})
		}
		pos, err := strconv.Atoi(row.Pos)
		if err != nil {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: i + 2, Reason: fmt.Sprintf("bad position %q", row.Pos)})
		}
		ref, ok1 := genome.ParseAllele(row.Ref[0])
		alt, ok2 := genome.ParseAllele(row.Alt[0])
		if !ok1 || !ok2 {
			continue
		}
		sites = append(sites, Site{Chr: chr, Pos: pos, Ref: ref, Alt: alt})
	}
	return newList(sites), nil
}
