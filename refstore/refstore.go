// Package refstore implements the reference genotype store capability set of
// spec §4.3: "at coordinate C, give me the diploid genotype of reference
// sample S" and "give me the population allele frequency for population P",
// behind two variants (VCF-backed, FST-backed) selected once at startup
// (spec §9 "Dynamic dispatch over data source").
package refstore

import "github.com/zmaroti/grups2/genome"

// Store is the capability set both the VCF-backed and FST-backed readers
// implement. It is read-only: the simulation engine never mutates it, so it
// can be shared across worker goroutines without locking (spec §5).
type Store interface {
	// LookupGenotype returns the phased diploid genotype of sample sampleIdx
	// at (chr, pos), or ok=false if no record covers that coordinate for
	// that sample.
	LookupGenotype(chr, pos, sampleIdx int) (genome.Genotype, bool, error)

	// LookupAF returns the population allele frequency of pop at (chr, pos),
	// or ok=false if unavailable.
	LookupAF(chr, pos int, pop string) (float32, bool, error)

	// IterPositions returns every bi-allelic SNP position recorded for chr,
	// in ascending order.
	IterPositions(chr int) ([]int, error)

	// Close releases any open file handles / memory maps.
	Close() error
}
