// Package aggregate collects per-pair observed and simulated statistics
// and writes the engine's output files (spec §4.7).
package aggregate

import (
	"math"

	"github.com/gonum/stat"

	"github.com/zmaroti/grups2/pileup"
	"github.com/zmaroti/grups2/simulate"
)

// Classification is the most-likely-relationship decision for one pair:
// the label whose simulated distribution's mean is closest to the
// observed corrected PWD, by z-score (spec §4.6 step 4, §4.7).
type Classification struct {
	PairLabel          string
	BestLabel          string
	BestMean           float64
	BestStdDev         float64
	ZScore             float64
	ObservedRawPWD     float64
	ObservedCorrected  float64
}

// Classify picks the relationship label whose simulated avg-PWD
// distribution mean is closest to the observed corrected PWD. Ties resolve
// to whichever label is iterated first, but there is effectively never a
// true tie among real floats.
func Classify(pairLabel string, obs *pileup.PairAccumulator, sim *simulate.PairResult) Classification {
	best := Classification{PairLabel: pairLabel, ZScore: math.Inf(1)}
	observedCorrected := obs.CorrectedPWD()

	for label, rows := range sim.ByLabel {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = r.AvgPWD
		}
		mean, sd := stat.MeanStdDev(values, nil)
		z := zScore(observedCorrected, mean, sd)
		if math.Abs(z) < math.Abs(best.ZScore) {
			best = Classification{
				PairLabel:         pairLabel,
				BestLabel:         label,
				BestMean:          mean,
				BestStdDev:        sd,
				ZScore:            z,
				ObservedRawPWD:    obs.RawPWD(),
				ObservedCorrected: observedCorrected,
			}
		}
	}

	return best
}

func zScore(x, mean, sd float64) float64 {
	if sd == 0 {
		if x == mean {
			return 0
		}
		return math.Inf(1)
	}
	return (x - mean) / sd
}

