// Command fstbuild scans one or more reference VCFs and emits the
// per-chromosome FST genotype/frequency shards consumed by pwdfromstdin
// and pedsims (spec §4.3).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/refstore/fstbuild"
)

func printHelp() {
	fmt.Fprintln(os.Stderr,
		`USAGE
fstbuild -panel PANEL.tsv -out OUTPREFIX CHR:VCF [CHR:VCF...]

Scans one reference VCF per chromosome (CHR:VCF pairs) and writes
OUTPREFIX.chrN.fst / OUTPREFIX.chrN.fst.frq for each. SIGINT/SIGTERM abort
the in-progress shard between records, renaming its files with a .partial
suffix, and exit 130.

optional flags:
 -help             print this help
 -compute-pop-afs  recompute population allele frequencies from panel dosages
                    instead of trusting INFO fields
 -workers value    number of VCF shards to build concurrently, DEFAULT: 1
`)
	os.Exit(1)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var help, computePopAFs bool
	var panelPath, outPrefix string
	var workers int

	flag.BoolVar(&help, "help", false, "print help")
	flag.BoolVar(&computePopAFs, "compute-pop-afs", false, "recompute population AFs from panel dosages")
	flag.StringVar(&panelPath, "panel", "", "panel definition file")
	flag.StringVar(&outPrefix, "out", "", "output file prefix")
	flag.IntVar(&workers, "workers", 1, "number of shards to build concurrently")
	flag.Parse()

	args := flag.Args()
	if help || panelPath == "" || outPrefix == "" || len(args) == 0 {
		printHelp()
	}

	f, err := os.Open(panelPath)
	if err != nil {
		logrus.Errorf("opening panel: %v", err)
		os.Exit(1)
	}
	p, err := panel.Parse(f, panelPath)
	f.Close()
	if err != nil {
		logrus.Errorf("parsing panel: %v", err)
		os.Exit(1)
	}

	opts, err := parseShardArgs(args, p, outPrefix, computePopAFs)
	if err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}

	if err := fstbuild.BuildAll(ctx, opts, workers); err != nil {
		var aborted *kinerr.Aborted
		if errors.As(err, &aborted) {
			logrus.Errorf("%v", err)
			os.Exit(130)
		}
		logrus.Errorf("fst build: %v", err)
		os.Exit(2)
	}

	logrus.Infof("built %d shards into %s.*", len(opts), outPrefix)
}
