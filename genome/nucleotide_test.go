package genome

import "testing"

func TestParseAlleleUppercases(t *testing.T) {
	a, ok := ParseAllele('a')
	if !ok || a != A {
		t.Fatalf("ParseAllele('a') = %v, %v", a, ok)
	}
	if _, ok := ParseAllele('N'); ok {
		t.Fatalf("ParseAllele('N') should be rejected")
	}
}

func TestAlleleOtherExcludesSelf(t *testing.T) {
	others := A.Other()
	for _, o := range others {
		if o == A {
			t.Fatalf("Other() included the allele itself: %v", others)
		}
	}
	if len(others) != 3 {
		t.Fatalf("expected 3 others, got %d", len(others))
	}
}

func TestPhredRoundTrip(t *testing.T) {
	p := ParsePhred('?') // '?' = 63, 63-33 = 30
	if p != 30 {
		t.Fatalf("ParsePhred('?') = %d, want 30", p)
	}
	if p.ASCII() != '?' {
		t.Fatalf("ASCII() = %q, want '?'", p.ASCII())
	}
}

func TestParseSex(t *testing.T) {
	cases := map[string]Sex{"1": SexMale, "M": SexMale, "2": SexFemale, "f": SexFemale, "?": SexUnknown}
	for in, want := range cases {
		if got := ParseSex(in); got != want {
			t.Errorf("ParseSex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGenotypeHas(t *testing.T) {
	g := Genotype{Paternal: A, Maternal: G}
	if !g.Has(A) || !g.Has(G) {
		t.Fatalf("Has() missed a present allele: %v", g)
	}
	if g.Has(C) {
		t.Fatalf("Has() reported a false positive: %v", g)
	}
}
