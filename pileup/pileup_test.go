package pileup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

func TestExpandBasesReverseStrand(t *testing.T) {
	nucs, err := expandBases("...,..,.,...,.", "JEJEEECCcagGgZ", genome.T, false)
	if err != nil {
		t.Fatalf("expandBases: %v", err)
	}
	for _, n := range nucs {
		if n.Base != genome.T {
			t.Fatalf("expected every base to resolve to ref T, got %c", n.Base)
		}
	}
}

func TestExpandBasesIndelsAndDeletions(t *testing.T) {
	bases := ",..,,+4ACTAGca,,.,-2AT..,.+15ATCGCCCCGCCCTAGc"
	quals := "JEEeCCeCCc$cagGgc"
	nucs, err := expandBases(bases, quals, genome.G, true)
	if err != nil {
		t.Fatalf("expandBases: %v", err)
	}
	if len(nucs) != len(quals) {
		t.Fatalf("expected %d nucleotides (one per quality char), got %d", len(quals), len(nucs))
	}
}

func TestExpandBasesStartEndMarkers(t *testing.T) {
	bases := ",.$ac.N^JTA$^AC,."
	quals := "JEECc$cagGg"
	nucs, err := expandBases(bases, quals, genome.A, false)
	if err != nil {
		t.Fatalf("expandBases: %v", err)
	}
	// the single 'N' consumes a quality char but is dropped.
	if len(nucs) != len(quals)-1 {
		t.Fatalf("expected %d nucleotides, got %d", len(quals)-1, len(nucs))
	}
}

func TestParseLineAndRun(t *testing.T) {
	// two samples, column 0 vs column 1, identical bases at every site.
	data := "1\t100\tA\t3\t...\tJJJ\t3\t...\tJJJ\n" +
		"1\t200\tA\t2\tAT\tJJ\t2\tAT\tJJ\n"

	pairs := []Pair{{LeftCol: 0, RightCol: 1, LeftName: "S1", RightName: "S2"}}
	accs, err := Run(context.Background(), strings.NewReader(data), "test.pileup", pairs, Options{
		MinDepth:   1,
		MinQual:    0,
		ChrLengths: map[int]int{1: 1000},
		BlockSize:  500,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	acc := accs["S1\tS2"]
	if acc.RawOverlap == 0 {
		t.Fatalf("expected nonzero overlap")
	}
	if acc.RawMismatch > acc.RawOverlap {
		t.Fatalf("mismatch must never exceed overlap: %d > %d", acc.RawMismatch, acc.RawOverlap)
	}
}

func TestSelfComparisonRaisesMinDepth(t *testing.T) {
	data := "1\t100\tA\t1\tA\tJ\n"
	pairs := []Pair{{LeftCol: 0, RightCol: 0, LeftName: "S1", RightName: "S1"}}
	accs, err := Run(context.Background(), strings.NewReader(data), "test.pileup", pairs, Options{
		MinDepth:   1,
		ChrLengths: map[int]int{1: 1000},
		BlockSize:  500,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if accs["S1\tS1"].RawOverlap != 0 {
		t.Fatalf("self-comparison with depth 1 should never contribute an observation")
	}
}

func TestRunAbortsOnCancellation(t *testing.T) {
	data := "1\t100\tA\t1\tA\tJ\n1\t200\tA\t1\tA\tJ\n"
	pairs := []Pair{{LeftCol: 0, RightCol: 0, LeftName: "S1", RightName: "S1"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, strings.NewReader(data), "test.pileup", pairs, Options{
		MinDepth:   1,
		ChrLengths: map[int]int{1: 1000},
		BlockSize:  500,
	})
	var aborted *kinerr.Aborted
	if !errors.As(err, &aborted) {
		t.Fatalf("expected a kinerr.Aborted error, got %v", err)
	}
}
