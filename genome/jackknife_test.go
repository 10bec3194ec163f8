package genome

import "testing"

func TestJackknifeBlocksPartitioning(t *testing.T) {
	jb := NewJackknifeBlocks(map[int]int{1: 2500}, 1000)
	blocks := jb.All()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks for a 2500bp chromosome with 1000bp blocks, got %d", len(blocks))
	}

	b := jb.FindBlock(1, 1500)
	if b == nil || b.Start != 1001 || b.End != 2001 {
		t.Fatalf("FindBlock(1500) = %+v, want block [1001,2001)", b)
	}
	if jb.FindBlock(2, 1) != nil {
		t.Fatalf("expected nil for an unregistered chromosome")
	}
}

func TestJackknifeEstimateMatchesSimpleMean(t *testing.T) {
	jb := NewJackknifeBlocks(map[int]int{1: 4000}, 1000)
	// Four blocks, each with 10 sites; block i has i mismatches.
	for i, pos := range []int{500, 1500, 2500, 3500} {
		b := jb.FindBlock(1, pos)
		for s := 0; s < 10; s++ {
			b.AddCount()
		}
		for m := 0; m < i; m++ {
			b.AddPwd(1)
		}
	}
	sumPwd := 0.0 + 1 + 2 + 3
	sumOverlap := uint64(40)

	est := jb.ComputeUnequalDeleteMPseudoValues(sumPwd, sumOverlap)
	wantMean := sumPwd / float64(sumOverlap)
	if diff := est.Estimate - wantMean; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("jackknife point estimate = %v, want close to simple mean %v", est.Estimate, wantMean)
	}
	if est.Variance < 0 {
		t.Fatalf("variance should never be negative, got %v", est.Variance)
	}
}

func TestJackknifeCI95ScalesWithVariance(t *testing.T) {
	e := JackknifeEstimates{Estimate: 0.1, Variance: 0.0001}
	ci := e.CI95()
	if ci <= 0 {
		t.Fatalf("CI95() = %v, want positive", ci)
	}
	wider := JackknifeEstimates{Estimate: 0.1, Variance: 0.01}
	if wider.CI95() <= ci {
		t.Fatalf("higher variance should give a wider CI")
	}
}
