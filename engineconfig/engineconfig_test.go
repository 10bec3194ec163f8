package engineconfig

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Seed = 99
	cfg.PedigreePop = "CEU"

	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Seed != 99 || got.PedigreePop != "CEU" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}
