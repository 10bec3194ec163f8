package simulate

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/pedigree"
	"github.com/zmaroti/grups2/pileup"
)

// fakeStore is an in-memory RefStore/afLookup for tests: every sample is
// homozygous for A at every position, except sample index 1 which is
// homozygous G, so meiosis/contamination paths are distinguishable.
type fakeStore struct{}

func (fakeStore) LookupGenotype(chr, pos, sampleIdx int) (genome.Genotype, bool, error) {
	if sampleIdx == 1 {
		return genome.Genotype{Paternal: genome.G, Maternal: genome.G}, true, nil
	}
	return genome.Genotype{Paternal: genome.A, Maternal: genome.A}, true, nil
}

func (fakeStore) LookupAF(chr, pos int, pop string) (float32, bool, error) {
	return 0.1, true, nil
}

func buildTrioPedigree(t *testing.T) *pedigree.Pedigree {
	text := `
Father 0 0
Mother 0 0
Child  Father Mother
COMPARE parent-child Father Child
`
	ped, err := pedigree.Parse(strings.NewReader(text), "trio.ped")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ped
}

func TestAssignFoundersDistinct(t *testing.T) {
	ped := buildTrioPedigree(t)
	pop := []panel.Sample{{ID: "s0", Index: 0}, {ID: "s1", Index: 1}, {ID: "s2", Index: 2}}
	positions := Positions{1: {100, 200}}
	rng := rand.New(rand.NewSource(42))

	founders, chosen, err := AssignFounders(ped, pop, positions, fakeStore{}, FounderOptions{}, rng)
	if err != nil {
		t.Fatalf("AssignFounders: %v", err)
	}
	if len(founders) != 2 {
		t.Fatalf("expected 2 founder genomes (Father, Mother), got %d", len(founders))
	}
	if len(chosen) != 2 {
		t.Fatalf("expected 2 chosen founder sample ids, got %d", len(chosen))
	}
	formatted := FormatChosenFounders(ped, chosen)
	if !strings.Contains(formatted, "Father=") || !strings.Contains(formatted, "Mother=") {
		t.Fatalf("expected formatted founders to name both Father and Mother, got %q", formatted)
	}
}

func TestAssignFoundersShortage(t *testing.T) {
	ped := buildTrioPedigree(t)
	pop := []panel.Sample{{ID: "s0", Index: 0}} // only one sample, two founders needed
	positions := Positions{1: {100}}
	rng := rand.New(rand.NewSource(1))

	_, _, err := AssignFounders(ped, pop, positions, fakeStore{}, FounderOptions{}, rng)
	if err == nil {
		t.Fatalf("expected FounderShortage error")
	}
}

func TestRunReplicateAlleleConservation(t *testing.T) {
	ped := buildTrioPedigree(t)
	pop := []panel.Sample{{ID: "s0", Index: 0}, {ID: "s2", Index: 2}}
	gm := genome.NewGeneticMap()
	observed := []pileup.ObservedSite{{Chr: 1, Pos: 100}, {Chr: 1, Pos: 200}}

	opts := ReplicateOptions{
		Meiosis: MeiosisOptions{GeneticMap: gm, AFKeepProb: 1.0},
		Left:    EmitOptions{SNPKeepProb: 1.0},
		Right:   EmitOptions{SNPKeepProb: 1.0},
	}
	rng := rand.New(rand.NewSource(7))

	accs, chosenFounders, _, err := RunReplicate(ped, pop, observed, fakeStore{}, opts, rng)
	if err != nil {
		t.Fatalf("RunReplicate: %v", err)
	}
	if chosenFounders == "" {
		t.Fatalf("expected a non-empty chosen-founders field")
	}
	acc, ok := accs["parent-child"]
	if !ok {
		t.Fatalf("expected parent-child accumulator")
	}
	if acc.Mismatch > acc.Overlap {
		t.Fatalf("mismatch must never exceed overlap: %+v", acc)
	}
	// every founder in this fake store is homozygous A, so no recombination
	// or AF-downsampling can ever introduce a non-A allele: overlap must be
	// fully matching.
	if acc.Overlap > 0 && acc.Mismatch != 0 {
		t.Fatalf("expected zero mismatch under a uniformly homozygous-A reference, got %+v", acc)
	}
}

func TestRunPairReproducibleUnderFixedSeed(t *testing.T) {
	ped := buildTrioPedigree(t)
	pop := []panel.Sample{{ID: "s0", Index: 0}, {ID: "s2", Index: 2}}
	gm := genome.NewGeneticMap()
	observed := []pileup.ObservedSite{{Chr: 1, Pos: 100}, {Chr: 1, Pos: 200}, {Chr: 1, Pos: 300}}

	opts := ReplicateOptions{
		Meiosis: MeiosisOptions{GeneticMap: gm, AFKeepProb: 1.0},
		Left:    EmitOptions{SNPKeepProb: 1.0},
		Right:   EmitOptions{SNPKeepProb: 1.0},
	}

	run := func() *PairResult {
		res, err := RunPair(context.Background(), "Father\tChild", ped, pop, observed, fakeStore{}, opts, 5, 1000, 42, 0)
		if err != nil {
			t.Fatalf("RunPair: %v", err)
		}
		return res
	}

	a := run()
	b := run()
	for label, rowsA := range a.ByLabel {
		rowsB := b.ByLabel[label]
		if len(rowsA) != len(rowsB) {
			t.Fatalf("label %s: replicate count mismatch", label)
		}
		for i := range rowsA {
			if rowsA[i].AvgPWD != rowsB[i].AvgPWD {
				t.Fatalf("label %s replicate %d: expected byte-identical avg-PWD under fixed seed, got %v vs %v", label, i, rowsA[i].AvgPWD, rowsB[i].AvgPWD)
			}
		}
	}
}

func TestRunPairAbortsOnCancellation(t *testing.T) {
	ped := buildTrioPedigree(t)
	pop := []panel.Sample{{ID: "s0", Index: 0}, {ID: "s2", Index: 2}}
	gm := genome.NewGeneticMap()
	observed := []pileup.ObservedSite{{Chr: 1, Pos: 100}, {Chr: 1, Pos: 200}, {Chr: 1, Pos: 300}}

	opts := ReplicateOptions{
		Meiosis: MeiosisOptions{GeneticMap: gm, AFKeepProb: 1.0},
		Left:    EmitOptions{SNPKeepProb: 1.0},
		Right:   EmitOptions{SNPKeepProb: 1.0},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunPair(ctx, "Father\tChild", ped, pop, observed, fakeStore{}, opts, 1000, 1000, 42, 0)
	var aborted *kinerr.Aborted
	if !errors.As(err, &aborted) {
		t.Fatalf("expected a kinerr.Aborted error, got %v", err)
	}
}
