package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zmaroti/grups2/genome"
)

func TestLoadEigenstrat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.snp")
	content := "rs1\t1\t0.0\t100\tA\tG\nrs2\t2\t0.0\t200\tC\tT\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !list.Contains(1, 100) || !list.Contains(2, 200) {
		t.Fatalf("expected both sites present")
	}
	alt, ok := list.Lookup(1, 100)
	if !ok || alt != genome.G {
		t.Fatalf("expected alt G at chr1:100, got %c ok=%v", alt, ok)
	}
	if list.Contains(1, 999) {
		t.Fatalf("unexpected site present")
	}
}

func TestLoadDelimited(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.tsv")
	content := "chr\tpos\tref\talt\n1\t150\tA\tC\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	list, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !list.Contains(1, 150) {
		t.Fatalf("expected chr1:150 present")
	}
}
