// Package pileup streams samtools-style text pileup records and maintains
// per-pair pairwise-mismatch accumulators (spec §4.4).
package pileup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zmaroti/grups2/genome"
)

// expandBases walks a pileup base-string alongside its quality-string and
// returns the list of valid draws, collapsing indel markers (+N{bases},
// -N{bases}), read-start/end markers (^X, $), resolving '.'/',' to ref, and
// dropping 'N' and, unless keepDels, '*'. Mirrors the original engine's
// Pileup::new base-string walk.
func expandBases(bases, quals string, ref genome.Allele, keepDels bool) ([]genome.Nucleotide, error) {
	upper := strings.ReplaceAll(strings.ToUpper(bases), ",", ".")
	qi := 0
	var out []genome.Nucleotide

	runes := []rune(upper)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '+', '-':
			skip, err := skipIndel(runes, i+1)
			if err != nil {
				return nil, err
			}
			i = skip
			continue
		case '^':
			// start-of-read marker is followed by one mapping-quality char,
			// which is not a base and consumes no quality-string slot.
			i++
			continue
		case '$':
			continue
		case '*':
			if !keepDels {
				continue
			}
		case '>', '<':
			return nil, fmt.Errorf("pileup: unsupported reference-skip marker %q", c)
		}

		if qi >= len(quals) {
			return nil, fmt.Errorf("pileup: base string longer than quality string")
		}
		q := genome.ParsePhred(quals[qi])
		qi++

		var base genome.Allele
		switch c {
		case '.':
			base = ref
		case 'N':
			continue
		case '*':
			out = append(out, genome.Nucleotide{Base: '*', Phred: q})
			continue
		default:
			a, ok := genome.ParseAllele(byte(c))
			if !ok {
				continue
			}
			base = a
		}
		out = append(out, genome.Nucleotide{Base: base, Phred: q})
	}

	if qi != len(quals) {
		return nil, fmt.Errorf("pileup: base string and quality string length mismatch")
	}

	return out, nil
}

// skipIndel parses the decimal length following a +/- marker starting at
// idx and returns the rune index of the last base consumed by the indel.
func skipIndel(runes []rune, idx int) (int, error) {
	start := idx
	for idx < len(runes) && runes[idx] >= '0' && runes[idx] <= '9' {
		idx++
	}
	if idx == start {
		return 0, fmt.Errorf("pileup: indel marker missing a length")
	}
	n, err := strconv.Atoi(string(runes[start:idx]))
	if err != nil {
		return 0, fmt.Errorf("pileup: malformed indel length: %w", err)
	}
	return idx + n - 1, nil
}
