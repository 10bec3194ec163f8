// Command pedsims runs the per-pair Monte-Carlo pedigree simulation against
// a pileup's observed positions and writes the classification and per-pair
// simulation output files (spec §4.6, §4.7).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/carbocation/pfx"

	"github.com/zmaroti/grups2/aggregate"
	"github.com/zmaroti/grups2/engineconfig"
	"github.com/zmaroti/grups2/genome"
	"github.com/zmaroti/grups2/kinerr"
	"github.com/zmaroti/grups2/panel"
	"github.com/zmaroti/grups2/pedigree"
	"github.com/zmaroti/grups2/pileup"
	"github.com/zmaroti/grups2/refstore"
	"github.com/zmaroti/grups2/simulate"
	"github.com/zmaroti/grups2/targets"
)

func printHelp() {
	fmt.Fprintln(os.Stderr,
		`USAGE
pedsims -pedigree PED -panel PANEL.tsv -fst-prefix PREFIX -pop POP -out OUTPREFIX

Runs the pedigree Monte-Carlo simulation for every comparison in PED and
writes OUTPREFIX.<label>.sims. With -pileup and -sample-cols, also streams
the pileup for the pair's observed positions, writes OUTPREFIX.pwd, and
classifies each comparison into OUTPREFIX.result; without them .result is
skipped, since classification needs an observed corrected PWD to compare
the simulated distributions against. SIGINT/SIGTERM abort between pileup
records or between replicates, dump whatever was accumulated with a
.partial suffix, and exit 130.

optional flags:
 -help               print this help
 -reps value         replicates per pair, DEFAULT: 1000
 -seed value         global RNG seed, DEFAULT: 1
 -contam-pop value   population to draw contaminants from
 -contam-num value   number of contaminating individuals, DEFAULT: 1
 -contam-rate value  per-side contamination rate, DEFAULT: 0
 -seq-error value    per-side sequencing-error rate, DEFAULT: 0
 -af-downsampling value  p_keep for allele-fixation-artefact downsampling, DEFAULT: 1 (disabled)
 -snp-downsampling value snp_keep for global position downsampling, DEFAULT: 1 (disabled)
 -sex-specific       require sex-matched founder draws
 -x-chromosome       enable X-chromosome transmission rules
 -workers value      concurrent replicate workers, DEFAULT: 0 (unlimited)
 -pileup value       samtools-style pileup file backing the comparisons
 -sample-cols value  "IID:COL,IID:COL,..." pileup column for each compared IID
 -min-depth value    minimum per-side read depth, DEFAULT: 1
 -min-qual value     minimum PHRED-33 base quality, DEFAULT: 20
 -targets value      target-site file (.snp, .vcf, .tsv/.csv/.txt)
 -exclude-ts         drop transition sites
 -keep-dels          keep '*' deletion markers as valid draws
 -block-size value   jack-knife block size in bp, DEFAULT: 1000000
 -overwrite          allow clobbering existing output files
`)
	os.Exit(1)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var help, sexSpecific, xChromosome, overwrite, excludeTs, keepDels bool
	var pedPath, panelPath, fstPrefix, population, contamPop, outPrefix string
	var pileupPath, sampleColsArg, targetsPath string
	var reps, contamNum, workers, minDepth, minQual, blockSize int
	var seed int64
	var contamRate, seqError, afDownsampling, snpDownsampling float64

	flag.BoolVar(&help, "help", false, "print help")
	flag.BoolVar(&sexSpecific, "sex-specific", false, "require sex-matched founder draws")
	flag.BoolVar(&xChromosome, "x-chromosome", false, "enable X-chromosome transmission rules")
	flag.BoolVar(&overwrite, "overwrite", false, "allow clobbering output files")
	flag.BoolVar(&excludeTs, "exclude-ts", false, "drop transition sites")
	flag.BoolVar(&keepDels, "keep-dels", false, "keep deletion markers")
	flag.StringVar(&pedPath, "pedigree", "", "pedigree file")
	flag.StringVar(&panelPath, "panel", "", "panel definition file")
	flag.StringVar(&fstPrefix, "fst-prefix", "", "FST shard path prefix (expects PREFIX.chrN.fst)")
	flag.StringVar(&population, "pop", "", "founder-drawing population")
	flag.StringVar(&contamPop, "contam-pop", "", "contaminant-drawing population")
	flag.StringVar(&outPrefix, "out", "", "output file prefix")
	flag.StringVar(&pileupPath, "pileup", "", "samtools-style pileup file backing the comparisons")
	flag.StringVar(&sampleColsArg, "sample-cols", "", "IID:COL,IID:COL,... pileup column for each compared IID")
	flag.StringVar(&targetsPath, "targets", "", "target-site file")
	flag.IntVar(&reps, "reps", 1000, "replicates per pair")
	flag.IntVar(&contamNum, "contam-num", 1, "number of contaminating individuals")
	flag.IntVar(&workers, "workers", 0, "concurrent replicate workers")
	flag.IntVar(&minDepth, "min-depth", 1, "minimum per-side read depth")
	flag.IntVar(&minQual, "min-qual", 20, "minimum PHRED-33 base quality")
	flag.IntVar(&blockSize, "block-size", 1_000_000, "jack-knife block size in bp")
	flag.Int64Var(&seed, "seed", 1, "global RNG seed")
	flag.Float64Var(&contamRate, "contam-rate", 0, "per-side contamination rate")
	flag.Float64Var(&seqError, "seq-error", 0, "per-side sequencing-error rate")
	flag.Float64Var(&afDownsampling, "af-downsampling", 1.0, "p_keep for allele-fixation-artefact downsampling, DEFAULT: 1 (disabled)")
	flag.Float64Var(&snpDownsampling, "snp-downsampling", 1.0, "snp_keep for global position downsampling, DEFAULT: 1 (disabled)")
	flag.Parse()

	if help || pedPath == "" || panelPath == "" || fstPrefix == "" || population == "" || outPrefix == "" {
		printHelp()
	}

	pedFile, err := os.Open(pedPath)
	if err != nil {
		logrus.Errorf("opening pedigree: %v", err)
		os.Exit(1)
	}
	ped, err := pedigree.Parse(pedFile, pedPath)
	pedFile.Close()
	if err != nil {
		logrus.Errorf("parsing pedigree: %v", err)
		os.Exit(1)
	}

	panelFile, err := os.Open(panelPath)
	if err != nil {
		logrus.Errorf("opening panel: %v", err)
		os.Exit(1)
	}
	p, err := panel.Parse(panelFile, panelPath)
	panelFile.Close()
	if err != nil {
		logrus.Errorf("parsing panel: %v", err)
		os.Exit(1)
	}

	if err := validateRunConfig(p, ped, population, xChromosome); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}

	sampleCols, err := parseSampleCols(sampleColsArg)
	if err != nil {
		logrus.Errorf("parsing -sample-cols: %v", err)
		os.Exit(1)
	}
	if pileupPath != "" && len(sampleCols) == 0 {
		logrus.Errorf("config conflict: -pileup requires -sample-cols")
		os.Exit(1)
	}

	var targetFilter *targets.List
	if targetsPath != "" {
		targetFilter, err = targets.Load(targetsPath)
		if err != nil {
			logrus.Errorf("loading targets: %v", err)
			os.Exit(1)
		}
	}

	store := refstore.NewMultiShardStore(func(chr int) string {
		return fmt.Sprintf("%s.chr%d.fst", fstPrefix, chr)
	})
	defer store.Close()

	founderPop := p.Population(population)
	var contamPopSamples []panel.Sample
	if contamPop != "" {
		contamPopSamples = p.Population(contamPop)
	}

	opts := simulate.ReplicateOptions{
		Founder: simulate.FounderOptions{Population: population, SexSpecific: sexSpecific, XChromosomeMode: xChromosome},
		Meiosis: simulate.MeiosisOptions{
			GeneticMap: genome.NewGeneticMap(), XChromosomeMode: xChromosome,
			AFKeepProb: afDownsampling, RefStore: store, Population: population,
		},
		Left:      simulate.EmitOptions{ContamRate: contamRate, SeqErrorRate: seqError, SNPKeepProb: snpDownsampling},
		Right:     simulate.EmitOptions{ContamRate: contamRate, SeqErrorRate: seqError, SNPKeepProb: snpDownsampling},
		ContamPop: contamPopSamples,
		ContamNum: contamNum,
	}

	// observedByLabel holds each comparison's real observed accumulator, keyed
	// by the pedigree comparison label, when -pileup was supplied. It stays
	// empty otherwise, and .result is then skipped below.
	observedByLabel := make(map[string]*pileup.PairAccumulator)
	if pileupPath != "" {
		pairs, err := buildPileupPairs(ped, sampleCols)
		if err != nil {
			logrus.Errorf("%v", err)
			os.Exit(1)
		}

		pileupOpts := pileup.Options{
			MinDepth:   minDepth,
			MinQual:    genome.Phred(minQual),
			KeepDels:   keepDels,
			ExcludeTs:  excludeTs,
			ChrLengths: genome.DefaultChrLengths(),
			BlockSize:  blockSize,
			RefStore:   store,
			Population: population,
		}
		if targetFilter != nil {
			pileupOpts.Targets = targetFilter
		}

		f, err := os.Open(pileupPath)
		if err != nil {
			logrus.Errorf("opening pileup: %v", err)
			os.Exit(1)
		}
		accs, err := pileup.Run(ctx, f, pileupPath, pairs, pileupOpts)
		f.Close()
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
		for _, cmp := range ped.Comparisons {
			left, right := ped.At(cmp.Left), ped.At(cmp.Right)
			acc, ok := accs[left.ID+"\t"+right.ID]
			if !ok {
				continue
			}
			observedByLabel[cmp.Label] = acc
			blkPath := fmt.Sprintf("%s.%s.blk", outPrefix, cmp.Label)
			if err := aggregate.WriteBlocks(blkPath, acc, overwrite); err != nil {
				logrus.Errorf("writing .blk for %s: %v", cmp.Label, err)
				os.Exit(1)
			}
		}
	}

	var classifications []aggregate.Classification
	for pairIdx, cmp := range ped.Comparisons {
		observed := observedByLabel[cmp.Label]
		var observedSites []pileup.ObservedSite
		if observed != nil {
			observedSites = observed.Positions
		}

		result, err := simulate.RunPair(ctx, cmp.Label, ped, founderPop, observedSites, store, opts, reps, seed, int64(pairIdx), workers)
		if err != nil {
			var aborted *kinerr.Aborted
			var shortage *kinerr.FounderShortage
			switch {
			case errors.As(err, &aborted):
				logrus.Errorf("%v", err)
				os.Exit(130)
			case errors.As(err, &shortage):
				logrus.Errorf("%v", err)
				os.Exit(3)
			default:
				logrus.Errorf("simulating pair %s: %v", cmp.Label, err)
				os.Exit(2)
			}
		}
		if err := aggregate.WriteSims(fmt.Sprintf("%s.%s.sims", outPrefix, cmp.Label), result, overwrite); err != nil {
			logrus.Errorf("writing .sims for %s: %v", cmp.Label, err)
			os.Exit(1)
		}

		if observed != nil {
			classifications = append(classifications, aggregate.Classify(cmp.Label, observed, result))
		}
	}

	if len(classifications) > 0 {
		if err := aggregate.WriteResult(outPrefix+".result", classifications, overwrite); err != nil {
			logrus.Errorf("writing .result: %v", err)
			os.Exit(1)
		}
	}

	cfg := engineconfig.Default()
	cfg.Replicates, cfg.Seed, cfg.PedigreePop, cfg.ContamPop, cfg.ContamNumInd = reps, seed, population, contamPop, contamNum
	cfg.SexSpecificMode, cfg.XChromosomeMode, cfg.Overwrite = sexSpecific, xChromosome, overwrite
	cfg.MinDepth, cfg.MinQual, cfg.JackknifeBlockSize, cfg.ExcludeTs, cfg.KeepDels = minDepth, uint8(minQual), blockSize, excludeTs, keepDels
	cfg.ContamRateLeft, cfg.ContamRateRight, cfg.SeqErrorLeft, cfg.SeqErrorRight = contamRate, contamRate, seqError, seqError
	cfg.SNPDownsampling, cfg.AFDownsampling, cfg.Threads = snpDownsampling, afDownsampling, workers
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

	logrus.Infof("simulated %d comparison(s), classified %d, to %s.*", len(ped.Comparisons), len(classifications), outPrefix)
}

// validateRunConfig performs the eager construction-time checks spec §4.6
// requires before any simulation work starts. Population absence or
// insufficient distinct members is a panel-layer concern (spec §4.2) and
// raises BadPanel; only genuinely incompatible option combinations raise
// ConfigConflict.
func validateRunConfig(p *panel.Panel, ped *pedigree.Pedigree, population string, xChromosome bool) error {
	if err := p.RequirePopulation(population, countFounders(ped)); err != nil {
		return err
	}
	if xChromosome && !hasSexedSamples(p.Population(population)) {
		return pfx.Err(&kinerr.ConfigConflict{Reason: fmt.Sprintf("-x-chromosome requires sexed founders in population %s", population)})
	}
	return nil
}

// countFounders returns the number of parentless individuals in ped, i.e.
// the number of distinct reference samples a replicate's founder draw needs.
func countFounders(ped *pedigree.Pedigree) int {
	n := 0
	for _, ind := range ped.Individuals() {
		if ind.IsFounder() {
			n++
		}
	}
	return n
}

func hasSexedSamples(pop []panel.Sample) bool {
	for _, s := range pop {
		if s.Sex != genome.SexUnknown {
			return true
		}
	}
	return false
}

// parseSampleCols parses "IID:COL,IID:COL,..." into a lookup from pedigree
// individual id to 0-based pileup column.
func parseSampleCols(arg string) (map[string]int, error) {
	out := make(map[string]int)
	if arg == "" {
		return out, nil
	}
	for _, tok := range strings.Split(arg, ",") {
		parts := strings.SplitN(tok, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q: expected IID:COL", tok)
		}
		var col int
		if _, err := fmt.Sscanf(parts[1], "%d", &col); err != nil {
			return nil, fmt.Errorf("%q: %w", tok, err)
		}
		out[parts[0]] = col
	}
	return out, nil
}

// buildPileupPairs turns every pedigree comparison into a pileup.Pair named
// by its two individuals' ids; the caller re-keys the resulting accumulator
// map from "leftID\trightID" back to the comparison label afterward.
func buildPileupPairs(ped *pedigree.Pedigree, sampleCols map[string]int) ([]pileup.Pair, error) {
	pairs := make([]pileup.Pair, 0, len(ped.Comparisons))
	for _, cmp := range ped.Comparisons {
		left := ped.At(cmp.Left)
		right := ped.At(cmp.Right)
		leftCol, ok := sampleCols[left.ID]
		if !ok {
			return nil, fmt.Errorf("no -sample-cols entry for %q", left.ID)
		}
		rightCol, ok := sampleCols[right.ID]
		if !ok {
			return nil, fmt.Errorf("no -sample-cols entry for %q", right.ID)
		}
		pairs = append(pairs, pileup.Pair{
			LeftCol: leftCol, RightCol: rightCol,
			LeftName: left.ID, RightName: right.ID,
		})
	}
	return pairs, nil
}
