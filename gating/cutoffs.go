package gating

import (
	"fmt"

	"github.com/carbocation/flowcompass/subset"
	"gopkg.in/guregu/null.v3"
)

// CandidateCutoffs collects, for every marker, the boundaries of the
// rectangle gates drawn on its channel. A gate contributes its lower bound,
// which is where "positive" begins; its upper bound only counts when there is
// no lower bound, as for a gate drawn around the negative population.
func CandidateCutoffs(cfg Config) map[string][]float64 {
	out := make(map[string][]float64, len(cfg.Markers))

	for _, m := range cfg.Markers {
		for _, g := range cfg.Gates {
			if g.Channel != m.Name && g.Channel != m.column() {
				continue
			}

			if g.Min != nil {
				out[m.Name] = append(out[m.Name], *g.Min)
			} else if g.Max != nil {
				out[m.Name] = append(out[m.Name], *g.Max)
			}
		}
	}

	return out
}

// Resolve turns the config's markers into resolved channels, in marker
// order. An explicit cutoff wins; otherwise the marker's strategy (or the
// config default) combines the candidate boundaries.
func Resolve(cfg Config) ([]subset.MarkerChannel, error) {
	candidates := CandidateCutoffs(cfg)

	out := make([]subset.MarkerChannel, 0, len(cfg.Markers))
	for _, m := range cfg.Markers {
		if m.Cutoff != nil {
			out = append(out, subset.MarkerChannel{Name: m.Name, Cutoff: null.FloatFrom(*m.Cutoff)})
			continue
		}

		strategyName, trimSD := cfg.Strategy, cfg.TrimSD
		if m.Strategy != "" {
			strategyName = m.Strategy
		}
		if m.TrimSD > 0 {
			trimSD = m.TrimSD
		}

		strategy, err := subset.ParseStrategy(strategyName)
		if err != nil {
			return nil, fmt.Errorf("Marker %s: %w", m.Name, err)
		}

		cutoff, err := subset.ResolveCutoffWith(strategy, trimSD, candidates[m.Name])
		if err != nil {
			return nil, fmt.Errorf("Marker %s: %w", m.Name, err)
		}

		out = append(out, subset.MarkerChannel{Name: m.Name, Cutoff: null.FloatFrom(cutoff)})
	}

	return out, nil
}
