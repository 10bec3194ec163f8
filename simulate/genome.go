// Package simulate implements the per-pair Monte-Carlo pedigree simulation
// engine (spec §4.6): founder assignment, meiotic propagation along a
// genetic map, noisy observation emission, and per-relationship roll-up.
package simulate

import (
	"sort"

	"github.com/zmaroti/grups2/genome"
)

// site is a (chr,pos) key into a DiploidGenome.
type site struct {
	Chr, Pos int
}

// DiploidGenome is one simulated individual's genotype at every position
// the current pair cares about. Only observed positions are ever
// populated — full-genome representation would be wasted work (spec §3
// "Per-replicate simulated haplotypes are transient").
type DiploidGenome struct {
	sites map[site]genome.Genotype
}

func newDiploidGenome() *DiploidGenome {
	return &DiploidGenome{sites: make(map[site]genome.Genotype)}
}

func (d *DiploidGenome) set(chr, pos int, g genome.Genotype) {
	d.sites[site{chr, pos}] = g
}

// At returns the genotype at (chr,pos), or false if this individual was
// never assigned a value there (e.g. ReferenceMissing was recovered by
// skipping the position).
func (d *DiploidGenome) At(chr, pos int) (genome.Genotype, bool) {
	g, ok := d.sites[site{chr, pos}]
	return g, ok
}

// Positions groups this genome's populated sites into one ascending
// per-chromosome position list each, the order meiosis must walk in
// (spec §4.6 step 2 "for every position p ... ascending").
type Positions map[int][]int

// GroupPositions sorts coord into ascending per-chromosome lists.
func GroupPositions(coords []genome.Coordinate) Positions {
	byChr := make(map[int][]int)
	for _, c := range coords {
		byChr[c.Chr] = append(byChr[c.Chr], c.Pos)
	}
	out := make(Positions, len(byChr))
	for chr, positions := range byChr {
		sorted := append([]int(nil), positions...)
		sort.Ints(sorted)
		out[chr] = sorted
	}
	return out
}
