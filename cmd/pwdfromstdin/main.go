// Command pwdfromstdin streams a pileup from standard input and computes
// observed pairwise-mismatch statistics for a set of requested sample pairs
// (spec §4.4).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/zmaroti/grups2/aggregate"
	"github.com/zmaroti/grups2/engineconfig"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/pileup"
	"github.com/zmaroti/grups2/targets"
)

func printHelp() {
	fmt.Fprintln(os.Stderr,
		`USAGE
pwdfromstdin -pairs "0:1,0:2" -out OUTPREFIX < pileup.txt

Reads a samtools-style pileup from stdin and writes OUTPREFIX.pwd plus one
OUTPREFIX.<COL>-<COL>.blk per requested pair of pileup columns. SIGINT/SIGTERM
abort the stream between records, dump whatever was accumulated to
OUTPREFIX.pwd.partial, and exit 130.

optional flags:
 -help              print this help
 -pairs value       comma-separated list of COL:COL pairs, 0-based
 -min-depth value   minimum per-side read depth, DEFAULT: 1
 -min-qual value    minimum PHRED-33 base quality, DEFAULT: 20
 -targets value     target-site file (.snp, .vcf, .tsv/.csv/.txt)
 -exclude-ts        drop transition sites
 -keep-dels         keep '*' deletion markers as valid draws
 -block-size value  jack-knife block size in bp, DEFAULT: 1000000
 -overwrite         allow clobbering existing output files
`)
	os.Exit(1)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var help, excludeTs, keepDels, overwrite bool
	var pairsArg, outPrefix, targetsPath string
	var minDepth, minQual, blockSize int

	flag.BoolVar(&help, "help", false, "print help")
	flag.BoolVar(&excludeTs, "exclude-ts", false, "drop transition sites")
	flag.BoolVar(&keepDels, "keep-dels", false, "keep deletion markers")
	flag.BoolVar(&overwrite, "overwrite", false, "allow clobbering output files")
	flag.StringVar(&pairsArg, "pairs", "", "comma-separated COL:COL pairs")
	flag.StringVar(&outPrefix, "out", "", "output file prefix")
	flag.StringVar(&targetsPath, "targets", "", "target-site file")
	flag.IntVar(&minDepth, "min-depth", 1, "minimum per-side read depth")
	flag.IntVar(&minQual, "min-qual", 20, "minimum PHRED-33 base quality")
	flag.IntVar(&blockSize, "block-size", 1_000_000, "jack-knife block size in bp")
	flag.Parse()

	if help || pairsArg == "" || outPrefix == "" {
		printHelp()
	}

	pairs, err := parsePairs(pairsArg)
	if err != nil {
		logrus.Errorf("parsing -pairs: %v", err)
		os.Exit(1)
	}

	var filter *targets.List
	if targetsPath != "" {
		filter, err = targets.Load(targetsPath)
		if err != nil {
			logrus.Errorf("loading targets: %v", err)
			os.Exit(1)
		}
	}

	opts := pileup.Options{
		MinDepth:   minDepth,
		MinQual:    genome.Phred(minQual),
		KeepDels:   keepDels,
		ExcludeTs:  excludeTs,
		ChrLengths: genome.DefaultChrLengths(),
		BlockSize:  blockSize,
	}
	if filter != nil {
		opts.Targets = filter
	}

	accs, err := pileup.Run(ctx, os.Stdin, "stdin", pairs, opts)
	if err != nil {
		var aborted *kinerr.Aborted
		if errors.As(err, &aborted) {
			logrus.Errorf("%v", err)
			if werr := aggregate.WritePWD(outPrefix+".pwd.partial", accs, true); werr != nil {
				logrus.Errorf("writing partial .pwd: %v", werr)
			}
			os.Exit(130)
		}
		logrus.Errorf("streaming pileup: %v", err)
		os.Exit(2)
	}

	if err := aggregate.WritePWD(outPrefix+".pwd", accs, overwrite); err != nil {
		logrus.Errorf("writing .pwd: %v", err)
		os.Exit(1)
	}

	for _, pair := range pairs {
		label := pair.LeftName + "\t" + pair.RightName
		blkPath := fmt.Sprintf("%s.%s-%s.blk", outPrefix, pair.LeftName, pair.RightName)
		if err := aggregate.WriteBlocks(blkPath, accs[label], overwrite); err != nil {
			logrus.Errorf("writing .blk for %s: %v", label, err)
			os.Exit(1)
		}
	}

	cfg := engineconfig.Default()
	cfg.MinDepth, cfg.MinQual, cfg.JackknifeBlockSize, cfg.ExcludeTs, cfg.KeepDels, cfg.Overwrite =
		minDepth, uint8(minQual), blockSize, excludeTs, keepDels, overwrite
	confFile, err := os.Create(outPrefix + ".conf")
	if err != nil {
		logrus.Errorf("writing .conf: %v", err)
		os.Exit(1)
	}
	defer confFile.Close()
	if err := engineconfig.Write(confFile, cfg); err != nil {
		logrus.Errorf("writing .conf: %v", err)
		os.Exit(1)
	}

	logrus.Infof("wrote %d pair(s) to %s.pwd", len(accs), outPrefix)
}

func parsePairs(arg string) ([]pileup.Pair, error) {
	var out []pileup.Pair
	for _, tok := range strings.Split(arg, ",") {
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q: expected COL:COL", tok)
		}
		l, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", tok, err)
		}
		r, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", tok, err)
		}
		out = append(out, pileup.Pair{
			LeftCol: l, RightCol: r,
			LeftName: strconv.Itoa(l), RightName: strconv.Itoa(r),
		})
	}
	return out, nil
}
