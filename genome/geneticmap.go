package genome

import (
	"bufio"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/kinerr"
)

// MapEntry is one (position, cM) sample of a genetic map.
type MapEntry struct {
	Pos int
	Cm  float64
}

// GeneticMap holds, per chromosome, a strictly position-increasing slice of
// MapEntry, and supports interpolated cM lookup and interval recombination
// probability (spec §4.1).
type GeneticMap struct {
	entries map[int][]MapEntry
}

// NewGeneticMap builds an empty map; chromosomes are added with Load.
func NewGeneticMap() *GeneticMap {
	return &GeneticMap{entries: make(map[int][]MapEntry)}
}

// Load reads one genetic-map file (header "Chromosome Position(bp) Rate(cM/Mb) Map(cM)")
// for a single chromosome, per spec §6 Input files.
func (g *GeneticMap) Load(chr int, r *bufio.Reader, path string) error {
	scanner := bufio.NewScanner(r)
	lineno := 0
	var entries []MapEntry
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		if lineno == 1 && !isNumericField(fields[1]) {
			// header row
			continue
		}
		pos, err := strconv.Atoi(fields[1])
		if err != nil {
			return pfx.Err(&kinerr.ParseError{File: path, Line: lineno, Reason: "bad position: " + err.Error()})
		}
		cm, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return pfx.Err(&kinerr.ParseError{File: path, Line: lineno, Reason: "bad cM: " + err.Error()})
		}
		entries = append(entries, MapEntry{Pos: pos, Cm: cm})
	}
	if err := scanner.Err(); err != nil {
		return pfx.Err(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Pos < entries[j].Pos })
	for i := 1; i < len(entries); i++ {
		if entries[i].Pos <= entries[i-1].Pos {
			return pfx.Err(&kinerr.ParseError{File: path, Reason: "genetic map positions must be strictly increasing"})
		}
	}
	g.entries[chr] = entries
	return nil
}

func isNumericField(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// CmAt returns the interpolated cM position for (chr, pos). Edge policy:
// positions before the first entry use the first entry's rate; positions
// after the last entry use the last entry's rate (spec §4.1).
func (g *GeneticMap) CmAt(chr, pos int) float64 {
	entries := g.entries[chr]
	if len(entries) == 0 {
		return 0
	}
	if pos <= entries[0].Pos {
		if len(entries) == 1 {
			return entries[0].Cm
		}
		return extrapolate(entries[0], entries[1], pos)
	}
	last := entries[len(entries)-1]
	if pos >= last.Pos {
		if len(entries) == 1 {
			return last.Cm
		}
		prev := entries[len(entries)-2]
		return extrapolate(prev, last, pos)
	}

	i := sort.Search(len(entries), func(i int) bool { return entries[i].Pos >= pos })
	if entries[i].Pos == pos {
		return entries[i].Cm
	}
	lo, hi := entries[i-1], entries[i]
	return interpolate(lo, hi, pos)
}

func interpolate(lo, hi MapEntry, pos int) float64 {
	if hi.Pos == lo.Pos {
		return lo.Cm
	}
	frac := float64(pos-lo.Pos) / float64(hi.Pos-lo.Pos)
	return lo.Cm + frac*(hi.Cm-lo.Cm)
}

// extrapolate applies the bracketing pair's rate beyond the map's edges,
// per the edge policy in spec §4.1 ("before the first...use the first
// entry's rate; after the last...use the last entry's rate").
func extrapolate(a, b MapEntry, pos int) float64 {
	rate := (b.Cm - a.Cm) / float64(b.Pos-a.Pos)
	if pos <= a.Pos {
		return a.Cm - float64(a.Pos-pos)*rate
	}
	return b.Cm + float64(pos-b.Pos)*rate
}

// RecombProb computes 1 - exp(-2*|cm(b)-cm(a)|/100) for an interval between
// two positions on the same chromosome (spec §4.1).
func (g *GeneticMap) RecombProb(chr, posA, posB int) float64 {
	cmA := g.CmAt(chr, posA)
	cmB := g.CmAt(chr, posB)
	delta := math.Abs(cmB - cmA)
	return 1 - math.Exp(-2*delta/100)
}

// HasChromosome reports whether a genetic map was loaded for chr.
func (g *GeneticMap) HasChromosome(chr int) bool {
	_, ok := g.entries[chr]
	return ok
}
