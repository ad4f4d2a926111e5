// Package screen flags subsets whose share of events rises with stimulation,
// one sample at a time, using Fisher's exact test. It is a quick screen to
// sanity check count matrices before a COMPASS fit, not a substitute for it.
package screen

import (
	"fmt"
	"math"
	"sort"

	"github.com/carbocation/flowcompass/countmatrix"
	fet "github.com/glycerine/golang-fisher-exact"
)

type Result struct {
	SampleID         string
	Subset           string
	StimCount        int64
	StimTotal        int64
	UnstimCount      int64
	UnstimTotal      int64
	StimProportion   float64
	UnstimProportion float64

	// One-sided P value for enrichment in the stimulated condition
	P float64

	// Benjamini-Hochberg adjusted P value, set by AdjustBH
	Q float64
}

// Fisher tests every subset except the last (all-negative) one in every
// sample. Results are in sample order, then subset order.
func Fisher(p countmatrix.Paired) ([]Result, error) {
	stim, unstim := p.Stimulated, p.Unstimulated
	if len(stim.Subsets) < 2 {
		return nil, fmt.Errorf("At least two subsets are needed, got %d", len(stim.Subsets))
	}

	out := make([]Result, 0, len(stim.Samples)*(len(stim.Subsets)-1))
	for _, sample := range stim.Samples {
		sRow, _ := stim.Row(sample)
		uRow, exists := unstim.Row(sample)
		if !exists {
			return nil, fmt.Errorf("Sample %s has no unstimulated counts", sample)
		}

		sTotal, uTotal := stim.Total(sample), unstim.Total(sample)

		for j := 0; j < len(stim.Subsets)-1; j++ {
			r := Result{
				SampleID:    sample,
				Subset:      stim.Subsets[j],
				StimCount:   sRow[j],
				StimTotal:   sTotal,
				UnstimCount: uRow[j],
				UnstimTotal: uTotal,
			}
			r.StimProportion = proportion(r.StimCount, r.StimTotal)
			r.UnstimProportion = proportion(r.UnstimCount, r.UnstimTotal)

			// Rows: stimulated, unstimulated. Columns: in subset, not in
			// subset. The right tail is enrichment under stimulation.
			_, _, rightP, _ := fet.FisherExactTest(
				int(r.StimCount), int(r.StimTotal-r.StimCount),
				int(r.UnstimCount), int(r.UnstimTotal-r.UnstimCount),
			)
			r.P = math.Min(1, rightP)
			r.Q = r.P

			out = append(out, r)
		}
	}

	return out, nil
}

// AdjustBH sets Q on every result using the Benjamini-Hochberg step-up
// procedure over all results together.
func AdjustBH(results []Result) {
	m := len(results)
	if m == 0 {
		return
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].P < results[order[b]].P
	})

	running := 1.0
	for rank := m; rank >= 1; rank-- {
		i := order[rank-1]
		q := results[i].P * float64(m) / float64(rank)
		if q < running {
			running = q
		}
		results[i].Q = running
	}
}

func proportion(n, total int64) float64 {
	if total == 0 {
		return 0
	}

	return float64(n) / float64(total)
}
