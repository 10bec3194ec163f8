// Package pedigree parses both pedigree definition formats of spec §4.5 into
// a DAG of individuals stored in a contiguous arena, referencing parents by
// index rather than by pointer (spec §9 "Cyclic refs / parent pointers in
// pedigrees").
package pedigree

import (
	"github.com/zmaroti/grups2/genome"
)

// noParent marks a founder's missing father/mother.
const noParent = -1

// Individual is one pedigree member. FatherIdx/MotherIdx index into
// Pedigree.individuals; noParent (-1) marks a founder.
type Individual struct {
	ID        string
	Sex       genome.Sex
	FatherIdx int
	MotherIdx int
}

// IsFounder reports whether this individual has no declared parents.
func (i Individual) IsFounder() bool { return i.FatherIdx == noParent && i.MotherIdx == noParent }

// Comparison is one user-labeled pair to compare; Left/Right index into
// Pedigree.individuals and may be equal (self-comparison, spec §3).
type Comparison struct {
	Label string
	Left  int
	Right int
}

// Pedigree is the parsed DAG plus the user's requested comparisons. The
// Order slice holds a valid topological order of individual indices
// (parents before children), computed once at parse time (spec §4.5, §9).
type Pedigree struct {
	individuals []Individual
	byID        map[string]int
	Order       []int
	Comparisons []Comparison
}

// Individuals returns the arena of pedigree members in declaration order
// (not topological order — use Order for that).
func (p *Pedigree) Individuals() []Individual { return p.individuals }

// IndexOf returns the arena index of id, or -1.
func (p *Pedigree) IndexOf(id string) int {
	if i, ok := p.byID[id]; ok {
		return i
	}
	return -1
}

// At returns the individual at arena index i.
func (p *Pedigree) At(i int) Individual { return p.individuals[i] }
