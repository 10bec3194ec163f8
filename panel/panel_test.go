package panel

import (
	"strings"
	"testing"

	"github.com/zmaroti/grups2/genome"
)

const samplePanel = `# comment line
IND1	CEU	EUR	1
IND2	CEU	EUR	2
IND3	YRI	AFR
`

func TestParsePopulationIndexes(t *testing.T) {
	p, err := Parse(strings.NewReader(samplePanel), "panel.tsv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	ceu := p.Population("CEU")
	if len(ceu) != 2 {
		t.Fatalf("expected 2 CEU samples, got %d", len(ceu))
	}
	if ceu[0].Sex != genome.SexMale || ceu[1].Sex != genome.SexFemale {
		t.Fatalf("unexpected sexes: %+v", ceu)
	}

	yri := p.SuperPopulation("AFR")
	if len(yri) != 1 || yri[0].ID != "IND3" {
		t.Fatalf("expected IND3 in AFR, got %+v", yri)
	}
	if yri[0].Sex != genome.SexUnknown {
		t.Fatalf("expected missing sex column to default to SexUnknown, got %v", yri[0].Sex)
	}
}

func TestLookupAndSampleIndex(t *testing.T) {
	p, err := Parse(strings.NewReader(samplePanel), "panel.tsv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, ok := p.Lookup("IND2")
	if !ok || s.Index != 1 {
		t.Fatalf("Lookup(IND2) = %+v, %v", s, ok)
	}
	if _, ok := p.Lookup("NOPE"); ok {
		t.Fatalf("expected Lookup to fail for an unknown id")
	}
}

func TestRequirePopulation(t *testing.T) {
	p, err := Parse(strings.NewReader(samplePanel), "panel.tsv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := p.RequirePopulation("CEU", 2); err != nil {
		t.Fatalf("RequirePopulation(CEU, 2): %v", err)
	}
	if err := p.RequirePopulation("CEU", 3); err == nil {
		t.Fatalf("expected an error requiring more distinct members than exist")
	}
	if err := p.RequirePopulation("GBR", 1); err == nil {
		t.Fatalf("expected an error for an absent population")
	}
}

func TestParseRejectsShortRows(t *testing.T) {
	if _, err := Parse(strings.NewReader("IND1\tCEU\n"), "panel.tsv"); err == nil {
		t.Fatalf("expected an error for a row with fewer than 3 columns")
	}
}
