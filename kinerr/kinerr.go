// Package kinerr defines the error taxonomy shared across the engine's
// packages. Every kind here satisfies error and is meant to be wrapped with
// github.com/carbocation/pfx at the point it is returned, so a caller can both
// unwrap it with errors.As to branch on kind and print the full context chain.
package kinerr

import "fmt"

// IoError wraps a filesystem/stream failure that isn't a parse error.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// ParseError names the file and line where a malformed record was found.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// BadPanel is raised when the population panel is missing populations or
// lacks enough distinct samples for a requested founder assignment.
type BadPanel struct {
	Reason string
}

func (e *BadPanel) Error() string { return "bad panel: " + e.Reason }

// BadPedigree covers UnknownParent, CycleInPedigree and UnknownCompareTarget.
type BadPedigree struct {
	Kind   string // "UnknownParent" | "CycleInPedigree" | "UnknownCompareTarget"
	Reason string
}

func (e *BadPedigree) Error() string {
	return fmt.Sprintf("bad pedigree (%s): %s", e.Kind, e.Reason)
}

// BadTargets is raised for malformed target-site files.
type BadTargets struct {
	Reason string
}

func (e *BadTargets) Error() string { return "bad targets: " + e.Reason }

// FstBuildNonMonotonic is raised by the FST builder when input keys are not
// strictly ascending.
type FstBuildNonMonotonic struct {
	Shard        string
	PrevPosition int
	Position     int
}

func (e *FstBuildNonMonotonic) Error() string {
	return fmt.Sprintf("fst build: shard %s received non-monotonic position %d after %d",
		e.Shard, e.Position, e.PrevPosition)
}

// ReferenceMissing is raised (and locally recovered) when a simulation
// replicate needs a reference genotype that the store does not have.
type ReferenceMissing struct {
	Chr int
	Pos int
}

func (e *ReferenceMissing) Error() string {
	return fmt.Sprintf("reference genotype missing at chr%d:%d", e.Chr, e.Pos)
}

// FounderShortage is fatal: the reference panel can't supply enough distinct
// samples of the required population/sex to populate every founder.
type FounderShortage struct {
	Population string
	Needed     int
	Available  int
}

func (e *FounderShortage) Error() string {
	return fmt.Sprintf("founder shortage in population %s: need %d distinct samples, have %d",
		e.Population, e.Needed, e.Available)
}

// ConfigConflict is raised eagerly at construction time for incompatible flag
// combinations (e.g. --x-chromosome-mode with no sexed founders available).
type ConfigConflict struct {
	Reason string
}

func (e *ConfigConflict) Error() string { return "config conflict: " + e.Reason }

// Aborted is returned when a run was cooperatively cancelled.
type Aborted struct {
	Reason string
}

func (e *Aborted) Error() string { return "aborted: " + e.Reason }
