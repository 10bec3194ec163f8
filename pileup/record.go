package pileup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

// SamplePileup is one sample's column within a pileup line, already
// base-quality filtered.
type SamplePileup struct {
	Depth       int
	Nucleotides []genome.Nucleotide
}

// Record is one parsed pileup line: `chr pos ref depth bases quals [depth
// bases quals]...` (spec §6).
type Record struct {
	Chr     int
	Pos     int
	Ref     genome.Allele
	Samples []SamplePileup
}

// ParseLine parses one tab/whitespace-separated pileup line into a Record.
// keepDels controls whether '*' deletion markers survive into the sample's
// nucleotide list.
func ParseLine(line string, path string, lineNo int, keepDels bool) (*Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: "pileup line needs chr, pos, ref, and at least one depth/bases/quals triple"})
	}
	if (len(fields)-3)%3 != 0 {
		return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: "sample columns must come in depth/bases/quals triples"})
	}

	chr, err := genome.ParseChr(fields[0])
	if err != nil {
		return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("bad chromosome %q", fields[0])})
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("bad position %q", fields[1])})
	}
	refAllele, ok := genome.ParseAllele(fields[2][0])
	if !ok {
		return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("bad reference base %q", fields[2])})
	}

	rec := &Record{Chr: chr, Pos: pos, Ref: refAllele}

	for i := 3; i < len(fields); i += 3 {
		depth, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("bad depth %q", fields[i])})
		}
		nucs, err := expandBases(fields[i+1], fields[i+2], refAllele, keepDels)
		if err != nil {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: err.Error()})
		}
		rec.Samples = append(rec.Samples, SamplePileup{Depth: depth, Nucleotides: nucs})
	}

	return rec, nil
}

// FilterQuality drops nucleotides below minQual (PHRED-33).
func (s *SamplePileup) FilterQuality(minQual genome.Phred) {
	kept := s.Nucleotides[:0]
	for _, n := range s.Nucleotides {
		if n.Phred >= minQual {
			kept = append(kept, n)
		}
	}
	s.Nucleotides = kept
	s.Depth = len(s.Nucleotides)
}

// FilterTriallelic drops nucleotides that aren't '.', ref, or alt — used
// once a site's known reference/alternate alleles are resolved.
func (s *SamplePileup) FilterTriallelic(ref, alt genome.Allele) {
	kept := s.Nucleotides[:0]
	for _, n := range s.Nucleotides {
		if n.Base == ref || n.Base == alt {
			kept = append(kept, n)
		}
	}
	s.Nucleotides = kept
	s.Depth = len(s.Nucleotides)
}
