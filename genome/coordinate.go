// Package genome provides the coordinate system, genetic map, and jack-knife
// block accumulators shared by every other package in the engine.
package genome

import "fmt"

// ChrX and ChrY are the numeric chromosome ids used throughout the engine;
// autosomes are 1..22.
const (
	ChrX = 23
	ChrY = 24
)

// Coordinate is an immutable, totally-ordered genomic position: (chromosome,
// 1-based position). FST ingest depends on the total order below holding.
type Coordinate struct {
	Chr int
	Pos int
}

// Less implements the (chr, pos) lexicographic order required for FST ingest
// and for sorting a pair's observed-position list.
func (c Coordinate) Less(o Coordinate) bool {
	if c.Chr != o.Chr {
		return c.Chr < o.Chr
	}
	return c.Pos < o.Pos
}

// Equal reports whether two coordinates are the same (chr, pos) pair.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Chr == o.Chr && c.Pos == o.Pos
}

func (c Coordinate) String() string {
	switch c.Chr {
	case ChrX:
		return fmt.Sprintf("X:%d", c.Pos)
	case ChrY:
		return fmt.Sprintf("Y:%d", c.Pos)
	default:
		return fmt.Sprintf("%d:%d", c.Chr, c.Pos)
	}
}

// ParseChr accepts "1".."22", "X"/"x"/"23" and "Y"/"y"/"24" and returns the
// numeric chromosome id used internally.
func ParseChr(s string) (int, error) {
	switch s {
	case "X", "x", "23":
		return ChrX, nil
	case "Y", "y", "24":
		return ChrY, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("unrecognized chromosome %q", s)
	}
	if n < 1 || n > ChrY {
		return 0, fmt.Errorf("chromosome %q out of range 1..24", s)
	}
	return n, nil
}

// DefaultChrLengths returns the GRCh37 chromosome lengths (1..22, X, Y) used
// to size jack-knife blocks when the caller has no reference .fai to hand.
func DefaultChrLengths() map[int]int {
	return map[int]int{
		1: 249250621, 2: 243199373, 3: 198022430, 4: 191154276, 5: 180915260,
		6: 171115067, 7: 159138663, 8: 146364022, 9: 141213431, 10: 135534747,
		11: 135006516, 12: 133851895, 13: 115169878, 14: 107349540, 15: 102531392,
		16: 90354753, 17: 81195210, 18: 78077248, 19: 59128983, 20: 63025520,
		21: 48129895, 22: 51304566, ChrX: 155270560, ChrY: 59373566,
	}
}

// CoordinateSort sorts coordinates in ascending (chr, pos) order; used
// wherever a pair's observed-position list must be walked in ascending order
// per chromosome (spec §4.3 VCF forward-only contract, §4.6 meiosis walk).
type CoordinateSort []Coordinate

func (s CoordinateSort) Len() int           { return len(s) }
func (s CoordinateSort) Less(i, j int) bool { return s[i].Less(s[j]) }
func (s CoordinateSort) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
