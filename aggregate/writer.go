package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/pileup"
	"github.com/zmaroti/grups2/simulate"
)

// createFresh opens path for writing, refusing to clobber an existing file
// unless overwrite is set (spec §6 "created fresh, refusing to clobber
// unless --overwrite").
func createFresh(path string, overwrite bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, pfx.Err(&kinerr.IoError{Op: "create", Path: path, Err: err})
	}
	return f, nil
}

// WritePWD writes the `.pwd` file: one line per pair with overlap,
// sum-mismatch, avg-PWD, 95% CI over jack-knife blocks, avg-phred.
func WritePWD(path string, accs map[string]*pileup.PairAccumulator, overwrite bool) error {
	f, err := createFresh(path, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()
	return writePWD(f, accs)
}

func writePWD(w io.Writer, accs map[string]*pileup.PairAccumulator) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	fmt.Fprintln(bw, "pair\toverlap\tmismatch\tavg_pwd\tci95\tavg_phred")
	for _, label := range sortedKeys(accs) {
		acc := accs[label]
		_, ci := acc.JackknifeCI()
		fmt.Fprintf(bw, "%s\t%d\t%d\t%.6f\t%.6f\t%.4f\n",
			label, acc.RawOverlap, acc.RawMismatch, acc.RawPWD(), ci, acc.AvgPhred())
	}
	return nil
}

// WriteResult writes the `.result` file: adds corrected counters,
// most-likely-relationship, simulated mean for that relationship, z-score.
func WriteResult(path string, classifications []Classification, overwrite bool) error {
	f, err := createFresh(path, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeResult(f, classifications)
}

func writeResult(w io.Writer, classifications []Classification) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	// the aggregator must sort before producing human-stable .result lines
	// (by pair label ascending, spec §5).
	sorted := append([]Classification(nil), classifications...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PairLabel < sorted[j].PairLabel })

	fmt.Fprintln(bw, "pair\traw_pwd\tcorrected_pwd\tmost_likely\tsim_mean\tsim_stddev\tz_score")
	for _, c := range sorted {
		fmt.Fprintf(bw, "%s\t%.6f\t%.6f\t%s\t%.6f\t%.6f\t%.4f\n",
			c.PairLabel, c.ObservedRawPWD, c.ObservedCorrected, c.BestLabel, c.BestMean, c.BestStdDev, c.ZScore)
	}
	return nil
}

// WriteSims writes one pair's `.sims` file: index, label, chosen founders,
// overlap, mismatch, avg-PWD per replicate, in monotonically increasing
// replicate order (spec §4.7, §5 ordering guarantee).
func WriteSims(path string, result *simulate.PairResult, overwrite bool) error {
	f, err := createFresh(path, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeSims(f, result)
}

func writeSims(w io.Writer, result *simulate.PairResult) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	var rows []simulate.SimReplicate
	for _, labelRows := range result.ByLabel {
		rows = append(rows, labelRows...)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Index != rows[j].Index {
			return rows[i].Index < rows[j].Index
		}
		return rows[i].Label < rows[j].Label
	})

	fmt.Fprintln(bw, "replicate\tlabel\tfounders\toverlap\tmismatch\tavg_pwd")
	for _, r := range rows {
		fmt.Fprintf(bw, "%d\t%s\t%s\t%d\t%d\t%.6f\n", r.Index, r.Label, r.Founders, r.Overlap, r.Mismatch, r.AvgPWD)
	}
	return nil
}

// WriteBlocks writes one pair's `.blk` file: chr, block-start, block-end,
// overlap, mismatch, one line per jack-knife block that saw at least one
// overlapping site.
func WriteBlocks(path string, acc *pileup.PairAccumulator, overwrite bool) error {
	f, err := createFresh(path, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeBlocks(f, acc)
}

func writeBlocks(w io.Writer, acc *pileup.PairAccumulator) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	fmt.Fprintln(bw, "chr\tstart\tend\toverlap\tmismatch")
	if acc.Jackknife == nil {
		return nil
	}

	blocks := acc.Jackknife.All()
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Chr != blocks[j].Chr {
			return blocks[i].Chr < blocks[j].Chr
		}
		return blocks[i].Start < blocks[j].Start
	})
	for _, b := range blocks {
		if b.SiteCount() == 0 {
			continue
		}
		fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%.4f\n", b.Chr, b.Start, b.End, b.SiteCount(), b.PwdCount())
	}
	return nil
}

func sortedKeys(m map[string]*pileup.PairAccumulator) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
