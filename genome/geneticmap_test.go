package genome

import (
	"bufio"
	"math"
	"strings"
	"testing"
)

func TestGeneticMapLoadAndInterpolate(t *testing.T) {
	raw := "Chromosome\tPosition(bp)\tRate(cM/Mb)\tMap(cM)\n" +
		"1\t1000\t1.0\t0.0\n" +
		"1\t2000\t1.0\t1.0\n" +
		"1\t3000\t1.0\t2.0\n"

	gm := NewGeneticMap()
	if err := gm.Load(1, bufio.NewReader(strings.NewReader(raw)), "map.txt"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !gm.HasChromosome(1) {
		t.Fatalf("expected chromosome 1 to be loaded")
	}

	if got := gm.CmAt(1, 1500); got != 0.5 {
		t.Fatalf("CmAt(1500) = %v, want 0.5", got)
	}
	if got := gm.CmAt(1, 1000); got != 0 {
		t.Fatalf("CmAt(1000) = %v, want 0", got)
	}
	if got := gm.CmAt(1, 3000); got != 2.0 {
		t.Fatalf("CmAt(3000) = %v, want 2.0", got)
	}
}

func TestGeneticMapEdgeExtrapolation(t *testing.T) {
	raw := "1\t1000\t1.0\t5.0\n1\t2000\t1.0\t6.0\n"
	gm := NewGeneticMap()
	if err := gm.Load(1, bufio.NewReader(strings.NewReader(raw)), "map.txt"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	// the only interval runs at 1 cM per 1000 bp.
	if got := gm.CmAt(1, 1); math.Abs(got-4.001) > 1e-9 {
		t.Fatalf("before-first CmAt = %v, want 4.001 (first interval's rate)", got)
	}
	if got := gm.CmAt(1, 9999); math.Abs(got-13.999) > 1e-9 {
		t.Fatalf("after-last CmAt = %v, want 13.999 (last interval's rate)", got)
	}
}

func TestGeneticMapRejectsDuplicatePositions(t *testing.T) {
	raw := "1\t1000\t1.0\t0.0\n1\t1000\t1.0\t1.0\n"
	gm := NewGeneticMap()
	if err := gm.Load(1, bufio.NewReader(strings.NewReader(raw)), "map.txt"); err == nil {
		t.Fatalf("expected an error for duplicate positions, got nil")
	}
}

func TestRecombProbGrowsWithDistance(t *testing.T) {
	raw := "1\t1000\t1.0\t0.0\n1\t2000\t1.0\t50.0\n"
	gm := NewGeneticMap()
	if err := gm.Load(1, bufio.NewReader(strings.NewReader(raw)), "map.txt"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	near := gm.RecombProb(1, 1000, 1010)
	far := gm.RecombProb(1, 1000, 2000)
	if !(near < far) {
		t.Fatalf("expected RecombProb to grow with genetic distance: near=%v far=%v", near, far)
	}
}
