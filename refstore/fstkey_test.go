package refstore

import "testing"

func TestGenotypeKeyRoundTrip(t *testing.T) {
	key := GenotypeKey(123456, 7)
	pos, sampleIdx := DecodeGenotypeKey(key)
	if pos != 123456 || sampleIdx != 7 {
		t.Fatalf("DecodeGenotypeKey(GenotypeKey(123456,7)) = %d, %d", pos, sampleIdx)
	}
}

func TestGenotypeKeySortsByPositionThenSample(t *testing.T) {
	a := GenotypeKey(100, 5)
	b := GenotypeKey(100, 6)
	c := GenotypeKey(101, 0)
	if !(lexLess(a, b) && lexLess(b, c)) {
		t.Fatalf("expected a < b < c lexicographically, got a=%v b=%v c=%v", a, b, c)
	}
}

func TestFreqKeyRoundTrip(t *testing.T) {
	key := FreqKey(999, 3)
	pos, popID := DecodeFreqKey(key)
	if pos != 999 || popID != 3 {
		t.Fatalf("DecodeFreqKey(FreqKey(999,3)) = %d, %d", pos, popID)
	}
}

func TestPackUnpackGenotype(t *testing.T) {
	cases := [][2]byte{{'A', 'C'}, {'G', 'T'}, {'A', 'A'}, {'T', 'G'}}
	for _, c := range cases {
		packed := PackGenotype(c[0], c[1])
		pat, mat := UnpackGenotype(packed)
		if pat != c[0] || mat != c[1] {
			t.Fatalf("PackGenotype/UnpackGenotype(%c,%c) round-tripped to (%c,%c)", c[0], c[1], pat, mat)
		}
	}
}

func TestPackUnpackAF(t *testing.T) {
	for _, af := range []float32{0, 0.5, 0.123456, 1.0} {
		packed := PackAF(af)
		got := UnpackAF(packed)
		if diff := float64(got) - float64(af); diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("PackAF/UnpackAF(%v) round-tripped to %v", af, got)
		}
	}
}

func lexLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
