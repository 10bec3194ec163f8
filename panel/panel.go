// Package panel parses the (sample -> population, super-population,
// chromosomal-sex) definition table and exposes population membership
// indexes, per spec §4.2.
package panel

import (
	"bufio"
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

// Sample is one reference-panel entry (spec §3 Sample).
type Sample struct {
	ID         string
	Population string
	SuperPop   string
	Sex        genome.Sex
	Index      int // position within the panel's sample order; used as the FST/VCF sample index
}

// Panel holds the full sample table plus the reverse and population-keyed
// indexes described in spec §4.2.
type Panel struct {
	samples    []Sample
	byID       map[string]*Sample
	byPop      map[string][]*Sample
	bySuperPop map[string][]*Sample
}

// Parse reads a tab-separated panel definition with at least columns
// "sample pop super_pop" and an optional fourth "sex" column (spec §6).
func Parse(r io.Reader, path string) (*Panel, error) {
	p := &Panel{
		byID:       make(map[string]*Sample),
		byPop:      make(map[string][]*Sample),
		bySuperPop: make(map[string][]*Sample),
	}

	scanner := bufio.NewScanner(r)
	lineno := 0
	idx := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineno, Reason: "panel rows need at least 3 columns: sample pop super_pop"})
		}
		s := Sample{
			ID:         fields[0],
			Population: fields[1],
			SuperPop:   fields[2],
			Index:      idx,
		}
		if len(fields) >= 4 {
			s.Sex = genome.ParseSex(fields[3])
		}
		p.samples = append(p.samples, s)
		idx++
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	for i := range p.samples {
		s := &p.samples[i]
		p.byID[s.ID] = s
		p.byPop[s.Population] = append(p.byPop[s.Population], s)
		p.bySuperPop[s.SuperPop] = append(p.bySuperPop[s.SuperPop], s)
	}

	return p, nil
}

// Samples returns the full ordered sample slice; index order matches the
// FST/VCF sample index assumed by refstore.
func (p *Panel) Samples() []Sample { return p.samples }

// Lookup returns the sample entry for id, or false if absent.
func (p *Panel) Lookup(id string) (Sample, bool) {
	s, ok := p.byID[id]
	if !ok {
		return Sample{}, false
	}
	return *s, true
}

// Population returns every sample in population pop, in panel order.
func (p *Panel) Population(pop string) []Sample {
	return derefAll(p.byPop[pop])
}

// SuperPopulation returns every sample in super-population sp.
func (p *Panel) SuperPopulation(sp string) []Sample {
	return derefAll(p.bySuperPop[sp])
}

func derefAll(in []*Sample) []Sample {
	out := make([]Sample, len(in))
	for i, s := range in {
		out[i] = *s
	}
	return out
}

// RequirePopulation fails with BadPanel if pop is absent, or has fewer than
// minDistinct members — the founder-assignment preflight check of spec §4.2.
func (p *Panel) RequirePopulation(pop string, minDistinct int) error {
	members := p.byPop[pop]
	if len(members) == 0 {
		return pfx.Err(&kinerr.BadPanel{Reason: "population " + pop + " referenced by the simulation config is absent from the panel"})
	}
	if len(members) < minDistinct {
		return pfx.Err(&kinerr.BadPanel{Reason: "population " + pop + " has fewer distinct members than required for founder assignment"})
	}
	return nil
}
