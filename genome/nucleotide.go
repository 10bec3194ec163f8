package genome

import (
	"fmt"
	"math"
)

// Allele is a single nucleotide base. Only the four canonical bases are
// valid; pileup expansion drops 'N' before it ever reaches this type.
type Allele byte

const (
	A Allele = 'A'
	C Allele = 'C'
	G Allele = 'G'
	T Allele = 'T'
)

// ParseAllele validates a raw base byte, uppercasing lowercase input (the
// pileup convention for reverse-strand reads).
func ParseAllele(b byte) (Allele, bool) {
	switch b {
	case 'A', 'a':
		return A, true
	case 'C', 'c':
		return C, true
	case 'G', 'g':
		return G, true
	case 'T', 't':
		return T, true
	default:
		return 0, false
	}
}

// Other returns the three bases other than a, for sequencing-error injection
// (spec §4.6 step 3: "replace the base with a uniform draw over the other
// three nucleotides").
func (a Allele) Other() [3]Allele {
	all := [4]Allele{A, C, G, T}
	var out [3]Allele
	i := 0
	for _, x := range all {
		if x != a {
			out[i] = x
			i++
		}
	}
	return out
}

func (a Allele) String() string { return string([]byte{byte(a)}) }

// Phred is a PHRED-33 base-quality score.
type Phred uint8

// PhredASCIIBase is the ASCII offset of PHRED-33 encoding.
const PhredASCIIBase = 33

// ParsePhred decodes one PHRED-33 ASCII quality character.
func ParsePhred(c byte) Phred {
	if int(c) < PhredASCIIBase {
		return 0
	}
	return Phred(c - PhredASCIIBase)
}

// ASCII re-encodes the score back to its PHRED-33 character.
func (p Phred) ASCII() byte { return byte(p) + PhredASCIIBase }

// ErrorProb converts the PHRED score to a sequencing-error probability:
// P = 10^(-Q/10).
func (p Phred) ErrorProb() float64 {
	return math.Pow(10, -float64(p)/10)
}

// Nucleotide is one observed base with its PHRED-33 quality, the unit the
// pileup parser emits per valid draw (spec §4.4).
type Nucleotide struct {
	Base  Allele
	Phred Phred
}

// Sex is a pedigree individual's or sample's chromosomal sex.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

func ParseSex(s string) Sex {
	switch s {
	case "1", "male", "Male", "M", "m":
		return SexMale
	case "2", "female", "Female", "F", "f":
		return SexFemale
	default:
		return SexUnknown
	}
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return "unknown"
	}
}

// Genotype is a pair of allele bytes. For reference panel samples it is
// phased (allele 0 = paternal, per spec §3); for pileup-derived
// pseudo-genotypes it's a single draw duplicated is never implied — callers
// track phase separately when it matters.
type Genotype struct {
	Paternal Allele
	Maternal Allele
}

func (g Genotype) String() string {
	return fmt.Sprintf("%c/%c", g.Paternal, g.Maternal)
}

// Has reports whether allele a is one of this genotype's two alleles —
// used by the allele-conservation property test (spec §8 property 3).
func (g Genotype) Has(a Allele) bool {
	return g.Paternal == a || g.Maternal == a
}
