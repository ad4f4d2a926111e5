package gating

import (
	"fmt"
	"io"

	"github.com/carbocation/flowcompass/events"
	"github.com/carbocation/flowcompass/subset"
)

// ColumnFinder locates a named channel within an event Record.
type ColumnFinder interface {
	Column(name string) (int, bool)
}

// RecordSource yields events until io.EOF.
type RecordSource interface {
	Read() (events.Record, error)
}

type boundColumn struct {
	RectangleGate
	col int
}

// Gater applies the parent gate and the boolean subsets to events from one
// table. It keeps scratch space and must not be shared between goroutines.
type Gater struct {
	Channels []subset.MarkerChannel
	Labels   []subset.Label

	markerCols []int
	parent     []boundColumn
	values     []float64
}

// Row is the result of counting one sample.
type Row struct {
	Counts []int64 // One entry per label, in enumeration order
	Parent int64   // Events inside the parent gate
	Total  int64   // Events read
}

// NewGater binds resolved channels and the config's parent gate to the
// columns of an event table.
func NewGater(cfg Config, channels []subset.MarkerChannel, cols ColumnFinder) (*Gater, error) {
	labels, err := subset.Enumerate(channels)
	if err != nil {
		return nil, err
	}

	g := &Gater{
		Channels:   channels,
		Labels:     labels,
		markerCols: make([]int, 0, len(channels)),
		values:     make([]float64, len(channels)),
	}

	columns := make(map[string]string, len(cfg.Markers))
	for _, m := range cfg.Markers {
		columns[m.Name] = m.column()
	}

	for _, c := range channels {
		name, exists := columns[c.Name]
		if !exists {
			name = c.Name
		}

		col, exists := cols.Column(name)
		if !exists {
			return nil, fmt.Errorf("Marker %s: column %q is not present in the event table", c.Name, name)
		}
		g.markerCols = append(g.markerCols, col)
	}

	if cfg.Parent != nil {
		for _, rg := range cfg.Parent.Gates {
			col, exists := cols.Column(rg.Channel)
			if !exists {
				return nil, fmt.Errorf("Parent gate %s: column %q is not present in the event table", cfg.Parent.Name, rg.Channel)
			}
			g.parent = append(g.parent, boundColumn{RectangleGate: rg, col: col})
		}
	}

	return g, nil
}

// InParent reports whether the event lies within every rectangle of the parent
// gate. Without a parent gate, every event is in the parent population.
func (g *Gater) InParent(rec events.Record) bool {
	for _, b := range g.parent {
		if !b.Contains(rec[b.col]) {
			return false
		}
	}

	return true
}

// Classify returns the index, within g.Labels, of the one subset the event
// belongs to.
func (g *Gater) Classify(rec events.Record) int {
	for i, col := range g.markerCols {
		g.values[i] = rec[col]
	}

	return subset.Index(g.Channels, g.values)
}

// Count reads every event from src and tallies the parent-gated events by
// subset. Each parent event is added to exactly one subset, so the counts
// always sum to Row.Parent.
func (g *Gater) Count(src RecordSource) (Row, error) {
	out := Row{Counts: make([]int64, len(g.Labels))}

	for {
		rec, err := src.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return out, err
		}
		out.Total++

		if !g.InParent(rec) {
			continue
		}
		out.Parent++

		out.Counts[g.Classify(rec)]++
	}

	return out, nil
}
