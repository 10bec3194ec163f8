package pedigree

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
)

// Parse detects the format (legacy keyword-section vs standard
// iid/fid/mid) and parses path's contents into a Pedigree (spec §4.5).
func Parse(r io.Reader, path string) (*Pedigree, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "read", Path: path, Err: err})
	}

	if isLegacy(lines) {
		return parseLegacy(lines, path)
	}
	return parseStandard(lines, path)
}

func isLegacy(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(stripComment(line)) == "INDIVIDUALS" {
			return true
		}
	}
	return false
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// builder accumulates individuals/comparisons while parsing either format,
// then finalizes into a Pedigree with a verified topological order.
type builder struct {
	individuals []Individual
	byID        map[string]int
	comparisons []Comparison
}

func newBuilder() *builder {
	return &builder{byID: make(map[string]int)}
}

// ensure returns the arena index for id, creating a founder placeholder
// (parents unresolved) if this is the first mention.
func (b *builder) ensure(id string) int {
	if idx, ok := b.byID[id]; ok {
		return idx
	}
	idx := len(b.individuals)
	b.individuals = append(b.individuals, Individual{ID: id, FatherIdx: noParent, MotherIdx: noParent})
	b.byID[id] = idx
	return idx
}

func (b *builder) finish(path string) (*Pedigree, error) {
	order, err := topoSort(b.individuals)
	if err != nil {
		return nil, err
	}
	for _, c := range b.comparisons {
		if c.Left < 0 || c.Right < 0 {
			return nil, pfx.Err(&kinerr.BadPedigree{Kind: "UnknownCompareTarget", Reason: fmt.Sprintf("%s: comparison %q refers to an undeclared individual", path, c.Label)})
		}
	}
	return &Pedigree{
		individuals: b.individuals,
		byID:        b.byID,
		Order:       order,
		Comparisons: b.comparisons,
	}, nil
}

// topoSort returns a parents-before-children order over individuals, or a
// CycleInPedigree error if none exists (spec §4.5, §9).
func topoSort(individuals []Individual) ([]int, error) {
	n := len(individuals)
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]int, n)
	order := make([]int, 0, n)

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return pfx.Err(&kinerr.BadPedigree{Kind: "CycleInPedigree", Reason: fmt.Sprintf("cycle detected at individual %q", individuals[i].ID)})
		}
		state[i] = visiting
		if individuals[i].FatherIdx != noParent {
			if err := visit(individuals[i].FatherIdx); err != nil {
				return err
			}
		}
		if individuals[i].MotherIdx != noParent {
			if err := visit(individuals[i].MotherIdx); err != nil {
				return err
			}
		}
		state[i] = done
		order = append(order, i)
		return nil
	}

	for i := range individuals {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// parseStandard handles the "iid fid mid [sex]" + "COMPARE label id1 id2"
// file format (spec §6).
func parseStandard(lines []string, path string) (*Pedigree, error) {
	b := newBuilder()

	for lineNo, raw := range lines {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		fields := strings.Fields(line)

		if strings.EqualFold(fields[0], "COMPARE") {
			if len(fields) != 4 {
				return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo + 1, Reason: "COMPARE line needs exactly label, id1, id2"})
			}
			b.comparisons = append(b.comparisons, Comparison{
				Label: fields[1],
				Left:  indexOrUnknown(b, fields[2]),
				Right: indexOrUnknown(b, fields[3]),
			})
			continue
		}

		if len(fields) < 3 || len(fields) > 4 {
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo + 1, Reason: "expected 'iid fid mid [sex]'"})
		}

		idx := b.ensure(fields[0])
		sex := genome.SexUnknown
		if len(fields) == 4 {
			sex = genome.ParseSex(fields[3])
		}
		b.individuals[idx].Sex = sex

		fatherIdx, err := resolveParent(b, fields[1], path, lineNo+1)
		if err != nil {
			return nil, err
		}
		motherIdx, err := resolveParent(b, fields[2], path, lineNo+1)
		if err != nil {
			return nil, err
		}
		b.individuals[idx].FatherIdx = fatherIdx
		b.individuals[idx].MotherIdx = motherIdx
	}

	return b.finish(path)
}

// resolveParent returns noParent for "0", or the declared index of id —
// UnknownParent if id was never declared as an individual before this line.
func resolveParent(b *builder, id string, path string, lineNo int) (int, error) {
	if id == "0" {
		return noParent, nil
	}
	idx, ok := b.byID[id]
	if !ok {
		return 0, pfx.Err(&kinerr.BadPedigree{Kind: "UnknownParent", Reason: fmt.Sprintf("%s:%d: parent %q not previously declared", path, lineNo, id)})
	}
	return idx, nil
}

func indexOrUnknown(b *builder, id string) int {
	if idx, ok := b.byID[id]; ok {
		return idx
	}
	return -1
}

// parseLegacy handles the INDIVIDUALS/RELATIONSHIPS/COMPARISONS
// keyword-section format, e.g.
//
//	INDIVIDUALS
//	A B C
//	RELATIONSHIPS
//	Child=repro(A,B)
//	COMPARISONS
//	label=compare(Child,C)
func parseLegacy(lines []string, path string) (*Pedigree, error) {
	b := newBuilder()

	const (
		modeNone = iota
		modeIndividuals
		modeRelationships
		modeComparisons
	)
	mode := modeNone

	for lineNo, raw := range lines {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		switch line {
		case "INDIVIDUALS":
			mode = modeIndividuals
			continue
		case "RELATIONSHIPS":
			mode = modeRelationships
			continue
		case "COMPARISONS":
			mode = modeComparisons
			continue
		}

		switch mode {
		case modeIndividuals:
			for _, id := range strings.Fields(line) {
				b.ensure(id)
			}

		case modeRelationships:
			offspring, p1, p2, err := parsePedLine(line, "=repro(", path, lineNo+1)
			if err != nil {
				return nil, err
			}
			idx := b.ensure(offspring)
			fatherIdx, err := resolveParent(b, p1, path, lineNo+1)
			if err != nil {
				return nil, err
			}
			motherIdx, err := resolveParent(b, p2, path, lineNo+1)
			if err != nil {
				return nil, err
			}
			b.individuals[idx].FatherIdx = fatherIdx
			b.individuals[idx].MotherIdx = motherIdx

		case modeComparisons:
			label, i1, i2, err := parsePedLine(line, "=compare(", path, lineNo+1)
			if err != nil {
				return nil, err
			}
			b.comparisons = append(b.comparisons, Comparison{
				Label: label,
				Left:  indexOrUnknown(b, i1),
				Right: indexOrUnknown(b, i2),
			})

		default:
			return nil, pfx.Err(&kinerr.ParseError{File: path, Line: lineNo + 1, Reason: "content before an INDIVIDUALS/RELATIONSHIPS/COMPARISONS section"})
		}
	}

	return b.finish(path)
}

// parsePedLine splits a "name=fn(a,b)" line into (name, a, b).
func parsePedLine(line, fn, path string, lineNo int) (name, a, b string, err error) {
	eq := strings.Index(line, fn)
	if eq < 0 || !strings.HasSuffix(line, ")") {
		return "", "", "", pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: fmt.Sprintf("expected 'name%sa,b)'", fn)})
	}
	name = strings.TrimSpace(line[:eq])
	inner := line[eq+len(fn) : len(line)-1]
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return "", "", "", pfx.Err(&kinerr.ParseError{File: path, Line: lineNo, Reason: "expected exactly two comma-separated arguments"})
	}
	return name, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}
