package subset

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Strategy names how several candidate boundaries drawn for the same channel
// are combined into one cutoff.
type Strategy string

const (
	StrategyMean    Strategy = "mean"
	StrategyMedian  Strategy = "median"
	StrategyMin     Strategy = "min"
	StrategyMax     Strategy = "max"
	StrategyTrimmed Strategy = "trimmed"
)

// DefaultTrimSD is the number of standard deviations beyond which the trimmed
// strategy discards a candidate.
const DefaultTrimSD = 2.0

var strategies = []Strategy{StrategyMean, StrategyMedian, StrategyMin, StrategyMax, StrategyTrimmed}

// ParseStrategy accepts a strategy name, case-insensitively. The empty string
// means StrategyMean.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategyMean, nil
	}

	for _, s := range strategies {
		if strings.EqualFold(name, string(s)) {
			return s, nil
		}
	}

	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, string(s))
	}

	return "", fmt.Errorf("Cutoff strategy %q is not known. Valid strategies include: %s", name, strings.Join(names, ", "))
}

// ResolveCutoff treats every candidate as a noisy estimate of one intended
// threshold and returns the arithmetic mean of the finite ones.
func ResolveCutoff(candidates []float64) (float64, error) {
	return ResolveCutoffWith(StrategyMean, 0, candidates)
}

// ResolveCutoffWith combines the finite candidates using strategy. trimSD is
// only consulted by StrategyTrimmed; values <= 0 mean DefaultTrimSD.
func ResolveCutoffWith(strategy Strategy, trimSD float64, candidates []float64) (float64, error) {
	data := finite(candidates)
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: %d supplied, none finite", ErrNoCandidateValues, len(candidates))
	}

	switch strategy {
	case StrategyMean, "":
		return stats.Mean(data)
	case StrategyMedian:
		return stats.Median(data)
	case StrategyMin:
		return stats.Min(data)
	case StrategyMax:
		return stats.Max(data)
	case StrategyTrimmed:
		return trimmedMean(data, trimSD)
	}

	return 0, fmt.Errorf("Cutoff strategy %q is not implemented", strategy)
}

// trimmedMean drops candidates further than trimSD standard deviations from
// the mean and averages the rest. With fewer than three candidates there is
// no meaningful spread, so it is the plain mean.
func trimmedMean(data stats.Float64Data, trimSD float64) (float64, error) {
	if trimSD <= 0 {
		trimSD = DefaultTrimSD
	}

	mean, sd := stat.MeanStdDev(data, nil)
	if len(data) < 3 || sd == 0 || math.IsNaN(sd) {
		return mean, nil
	}

	kept := make([]float64, 0, len(data))
	for _, v := range data {
		if math.Abs(v-mean) <= trimSD*sd {
			kept = append(kept, v)
		}
	}

	if len(kept) == 0 {
		return mean, nil
	}

	return stat.Mean(kept, nil), nil
}

func finite(values []float64) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}

	return out
}
