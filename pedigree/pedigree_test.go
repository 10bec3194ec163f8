package pedigree

import (
	"strings"
	"testing"

	"github.com/zmaroti/grups2/kinerr"
)

func TestParseStandardFounder(t *testing.T) {
	text := `
# two founders, one child, one comparison
Father 0 0
Mother 0 0
Child  Father Mother
COMPARE parent-child Father Child
`
	ped, err := Parse(strings.NewReader(text), "test.ped")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	child := ped.At(ped.IndexOf("Child"))
	if ped.At(child.FatherIdx).ID != "Father" || ped.At(child.MotherIdx).ID != "Mother" {
		t.Fatalf("child has wrong parents: %+v", child)
	}
	if len(ped.Comparisons) != 1 || ped.Comparisons[0].Label != "parent-child" {
		t.Fatalf("unexpected comparisons: %+v", ped.Comparisons)
	}

	// parents must precede the child in topological order.
	pos := make(map[int]int, len(ped.Order))
	for i, idx := range ped.Order {
		pos[idx] = i
	}
	if pos[child.FatherIdx] >= pos[ped.IndexOf("Child")] {
		t.Fatalf("father does not precede child in topological order")
	}
}

func TestParseStandardUnknownParent(t *testing.T) {
	text := `Child Father Mother`
	_, err := Parse(strings.NewReader(text), "test.ped")
	if err == nil {
		t.Fatalf("expected UnknownParent error")
	}
	var bp *kinerr.BadPedigree
	if !asBadPedigree(err, &bp) || bp.Kind != "UnknownParent" {
		t.Fatalf("expected BadPedigree{Kind: UnknownParent}, got %v", err)
	}
}

func TestParseLegacyFormat(t *testing.T) {
	text := `
INDIVIDUALS
A B C
RELATIONSHIPS
Child=repro(A,B)
COMPARISONS
sib=compare(Child,C)
`
	ped, err := Parse(strings.NewReader(text), "test.ped")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	child := ped.At(ped.IndexOf("Child"))
	if ped.At(child.FatherIdx).ID != "A" || ped.At(child.MotherIdx).ID != "B" {
		t.Fatalf("legacy repro() parents wrong: %+v", child)
	}
	if len(ped.Comparisons) != 1 || ped.Comparisons[0].Label != "sib" {
		t.Fatalf("legacy compare() missing: %+v", ped.Comparisons)
	}
}

func TestParseCycleDetected(t *testing.T) {
	// Drive topoSort directly with a hand-built two-individual arena
	// (A's father is B, B's father is A) to exercise the CycleInPedigree path.
	individuals := []Individual{
		{ID: "A", FatherIdx: 1, MotherIdx: noParent},
		{ID: "B", FatherIdx: 0, MotherIdx: noParent},
	}
	_, err := topoSort(individuals)
	if err == nil {
		t.Fatalf("expected CycleInPedigree error")
	}
	var bp *kinerr.BadPedigree
	if !asBadPedigree(err, &bp) || bp.Kind != "CycleInPedigree" {
		t.Fatalf("expected BadPedigree{Kind: CycleInPedigree}, got %v", err)
	}
}

func TestParseUnknownCompareTarget(t *testing.T) {
	text := `
Founder 0 0
COMPARE x Founder Ghost
`
	_, err := Parse(strings.NewReader(text), "test.ped")
	if err == nil {
		t.Fatalf("expected UnknownCompareTarget error")
	}
	var bp *kinerr.BadPedigree
	if !asBadPedigree(err, &bp) || bp.Kind != "UnknownCompareTarget" {
		t.Fatalf("expected BadPedigree{Kind: UnknownCompareTarget}, got %v", err)
	}
}

// asBadPedigree unwraps pfx-wrapped errors looking for a *kinerr.BadPedigree.
func asBadPedigree(err error, out **kinerr.BadPedigree) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if bp, ok := err.(*kinerr.BadPedigree); ok {
			*out = bp
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if ok {
			err = u.Unwrap()
			continue
		}
		c, ok := err.(causer)
		if ok {
			err = c.Cause()
			continue
		}
		break
	}
	return false
}
