package aggregate

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/pileup"
	"github.com/zmaroti/grups2/simulate"
)

func TestClassifyPicksClosestMean(t *testing.T) {
	acc := pileup.NewPairAccumulator("A", "B", map[int]int{1: 1000}, 500)
	acc.Observe(1, 100, genome.A, genome.G, 30, 30, 5, 5, true)
	acc.Observe(1, 200, genome.A, genome.A, 30, 30, 5, 5, true)

	sim := &simulate.PairResult{
		ByLabel: map[string][]simulate.SimReplicate{
			"unrelated":    {{AvgPWD: 0.5}, {AvgPWD: 0.48}, {AvgPWD: 0.52}},
			"parent-child": {{AvgPWD: 0.25}, {AvgPWD: 0.24}, {AvgPWD: 0.26}},
		},
	}

	c := Classify("A\tB", acc, sim)
	if c.BestLabel != "parent-child" {
		t.Fatalf("expected parent-child to win given observed corrected PWD=0.5, got %s (z=%v)", c.BestLabel, c.ZScore)
	}
}

func TestWritePWDFormat(t *testing.T) {
	acc := pileup.NewPairAccumulator("A", "B", map[int]int{1: 1000}, 500)
	acc.Observe(1, 100, genome.A, genome.G, 30, 30, 5, 5, false)

	var buf bytes.Buffer
	if err := writePWD(&buf, map[string]*pileup.PairAccumulator{"A\tB": acc}); err != nil {
		t.Fatalf("writePWD: %v", err)
	}
	if !strings.Contains(buf.String(), "A\tB\t1\t1") {
		t.Fatalf("expected pair row with overlap=1 mismatch=1, got:\n%s", buf.String())
	}
}

func TestWriteSimsIncludesFounders(t *testing.T) {
	result := &simulate.PairResult{
		ByLabel: map[string][]simulate.SimReplicate{
			"parent-child": {
				{Index: 0, Label: "parent-child", Founders: "Father=s0,Mother=s2", Overlap: 10, Mismatch: 1, AvgPWD: 0.1},
			},
		},
	}

	var buf bytes.Buffer
	if err := writeSims(&buf, result); err != nil {
		t.Fatalf("writeSims: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "founders") {
		t.Fatalf("expected a founders column header, got:\n%s", out)
	}
	if !strings.Contains(out, "Father=s0,Mother=s2") {
		t.Fatalf("expected the chosen-founders field in the data row, got:\n%s", out)
	}
}

func TestWriteBlocksOutputsOverlappingBlocks(t *testing.T) {
	acc := pileup.NewPairAccumulator("A", "B", map[int]int{1: 1000}, 500)
	acc.Observe(1, 100, genome.A, genome.G, 30, 30, 5, 5, true)
	acc.Observe(1, 600, genome.A, genome.A, 30, 30, 5, 5, true)

	var buf bytes.Buffer
	if err := writeBlocks(&buf, acc); err != nil {
		t.Fatalf("writeBlocks: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header plus 2 blocks with sites, got:\n%s", buf.String())
	}
}

func TestWriteResultSortsByLabel(t *testing.T) {
	rows := []Classification{
		{PairLabel: "Z\tY", BestLabel: "unrelated"},
		{PairLabel: "A\tB", BestLabel: "sibling"},
	}
	var buf bytes.Buffer
	if err := writeResult(&buf, rows); err != nil {
		t.Fatalf("writeResult: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[1], "A\tB") {
		t.Fatalf("expected A\\tB to sort first, got: %s", lines[1])
	}
}
