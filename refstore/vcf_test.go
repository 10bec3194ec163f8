package refstore

import (
	"testing"

	"github.com/zmaroti/grups2/genome"
)

func TestGtAllele(t *testing.T) {
	if got := gtAllele(0, genome.C, genome.T); got != genome.C {
		t.Fatalf("gtAllele(0,...) = %v, want C", got)
	}
	if got := gtAllele(1, genome.C, genome.T); got != genome.T {
		t.Fatalf("gtAllele(1,...) = %v, want T", got)
	}
}

func TestToFloat32StringSlice(t *testing.T) {
	got, ok := toFloat32([]string{"0.25", "ignored"})
	if !ok || got != 0.25 {
		t.Fatalf("toFloat32([]string{...}) = %v, %v", got, ok)
	}
	if _, ok := toFloat32([]string{}); ok {
		t.Fatalf("expected an empty slice to be rejected")
	}
}
