package fstbuild

import (
	"strings"
	"testing"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/panel"
)

func testPanel(t *testing.T) *panel.Panel {
	p, err := panel.Parse(strings.NewReader(
		"S1\tCEU\tEUR\n S2\tCEU\tEUR\n S3\tYRI\tAFR\n"), "panel.tsv")
	if err != nil {
		t.Fatalf("panel.Parse: %v", err)
	}
	return p
}

func TestCollectPopulationsDedupesAndSorts(t *testing.T) {
	p := testPanel(t)
	pops := collectPopulations(p, []string{"S2", "S1", "S3", "UNKNOWN"})
	want := []string{"AFR", "CEU", "EUR", "YRI"}
	if len(pops) != len(want) {
		t.Fatalf("collectPopulations = %v, want %v", pops, want)
	}
	for i := range want {
		if pops[i] != want[i] {
			t.Fatalf("collectPopulations = %v, want %v", pops, want)
		}
	}
}

func TestAlleleAt(t *testing.T) {
	if got := alleleAt(0, genome.A, genome.G); got != genome.A {
		t.Fatalf("alleleAt(0,...) = %v, want A", got)
	}
	if got := alleleAt(1, genome.A, genome.G); got != genome.G {
		t.Fatalf("alleleAt(1,...) = %v, want G", got)
	}
}

func TestToFloat32Variants(t *testing.T) {
	cases := []interface{}{float32(0.5), float64(0.5), "0.5"}
	for _, c := range cases {
		got, ok := toFloat32(c)
		if !ok || got != 0.5 {
			t.Fatalf("toFloat32(%v) = %v, %v", c, got, ok)
		}
	}
	if _, ok := toFloat32([]int{1}); ok {
		t.Fatalf("expected toFloat32 to reject an unsupported type")
	}
}
