// Package engineconfig holds the single source-of-truth run configuration
// consumed by both the engine and the thin cmd/ wrappers (spec §4.7, §6).
package engineconfig

import (
	"encoding/json"
	"io"
)

// Run is every tunable parameter referenced throughout the engine's
// components. It is the one struct both the library API and the CLI
// wrappers populate, and it is serialized verbatim as the `.conf` output
// record (spec §4.7 "a serialized config record of all run parameters").
type Run struct {
	// Filters (spec §4.4)
	MinDepth  int     `json:"min_depth"`
	MinQual   uint8   `json:"min_qual"`
	MAF       float32 `json:"maf"`
	KeepDels  bool    `json:"keep_dels"`
	ExcludeTs bool    `json:"exclude_transitions"`

	// Jack-knife (spec §4.4, §4.7)
	JackknifeBlockSize int `json:"jackknife_block_size"`

	// Simulation (spec §4.6)
	Replicates      int     `json:"reps"`
	PedigreePop     string  `json:"pedigree_pop"`
	ContamPop       string  `json:"contam_pop"`
	ContamNumInd    int     `json:"contam_num_ind"`
	ContamRateLeft  float64 `json:"contam_rate_left"`
	ContamRateRight float64 `json:"contam_rate_right"`
	SeqErrorLeft    float64 `json:"seq_error_rate_left"`
	SeqErrorRight   float64 `json:"seq_error_rate_right"`
	SexSpecificMode bool    `json:"sex_specific_mode"`
	XChromosomeMode bool    `json:"x_chromosome_mode"`
	SNPDownsampling float64 `json:"snp_downsampling"`
	AFDownsampling  float64 `json:"af_downsampling"`

	// Run mechanics (spec §5, §6)
	Seed      int64 `json:"seed"`
	Threads   int   `json:"threads"`
	Overwrite bool  `json:"overwrite"`
}

// Write serializes cfg as indented JSON, the engine's `.conf` output record.
func Write(w io.Writer, cfg Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// Read parses a previously written `.conf` record, e.g. for reproducing a run.
func Read(r io.Reader) (Run, error) {
	var cfg Run
	err := json.NewDecoder(r).Decode(&cfg)
	return cfg, err
}

// Default returns the engine's baseline parameters before CLI flags are applied.
func Default() Run {
	return Run{
		MinDepth:           1,
		MinQual:            20,
		MAF:                0.0,
		JackknifeBlockSize: 1_000_000,
		Replicates:         1000,
		ContamNumInd:       1,
		SNPDownsampling:    1.0,
		AFDownsampling:     1.0,
		Seed:               1,
		Threads:            0,
	}
}
