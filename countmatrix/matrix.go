// Package countmatrix holds per-sample subset counts in the layout COMPASS
// consumes: one row per sample, one column per boolean subset, with the
// all-negative subset last.
package countmatrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carbocation/flowcompass/subset"
)

// ErrNotExhaustive is returned when a sample's subset counts don't add up to
// its parent population.
var ErrNotExhaustive = errors.New("subset counts do not sum to the parent population")

type Matrix struct {
	Subsets []string
	Samples []string
	Counts  [][]int64

	index map[string]int
}

// New returns an empty matrix with the given subset columns.
func New(subsets []string) *Matrix {
	return &Matrix{
		Subsets: append([]string(nil), subsets...),
		index:   make(map[string]int),
	}
}

// FromLabels returns an empty matrix whose columns are the enumerated labels.
func FromLabels(labels []subset.Label) *Matrix {
	return New(subset.Strings(labels))
}

// Add appends a sample's row. A row with the wrong number of columns is never
// truncated or padded.
func (m *Matrix) Add(sample string, counts []int64) error {
	if m.index == nil {
		m.reindex()
	}

	if len(counts) != len(m.Subsets) {
		return fmt.Errorf("%w: sample %s has %d counts but there are %d subsets", subset.ErrDimensionMismatch, sample, len(counts), len(m.Subsets))
	}

	if _, exists := m.index[sample]; exists {
		return fmt.Errorf("Sample %s was already added", sample)
	}

	for i, c := range counts {
		if c < 0 {
			return fmt.Errorf("Sample %s has a negative count (%d) for subset %s", sample, c, m.Subsets[i])
		}
	}

	m.index[sample] = len(m.Samples)
	m.Samples = append(m.Samples, sample)
	m.Counts = append(m.Counts, append([]int64(nil), counts...))

	return nil
}

func (m *Matrix) reindex() {
	m.index = make(map[string]int, len(m.Samples))
	for i, s := range m.Samples {
		m.index[s] = i
	}
}

// Row returns the counts for sample.
func (m *Matrix) Row(sample string) ([]int64, bool) {
	if m.index == nil {
		m.reindex()
	}

	i, exists := m.index[sample]
	if !exists {
		return nil, false
	}

	return m.Counts[i], true
}

// Total sums a sample's row.
func (m *Matrix) Total(sample string) int64 {
	row, _ := m.Row(sample)

	var out int64
	for _, c := range row {
		out += c
	}

	return out
}

// CheckExhaustive confirms that every parent event of sample was counted in
// exactly one subset.
func (m *Matrix) CheckExhaustive(sample string, parent int64) error {
	if _, exists := m.Row(sample); !exists {
		return fmt.Errorf("Sample %s is not in the matrix", sample)
	}

	if total := m.Total(sample); total != parent {
		return fmt.Errorf("%w: sample %s counts sum to %d but its parent population has %d events", ErrNotExhaustive, sample, total, parent)
	}

	return nil
}

// CheckLayout checks what every consumer of a matrix relies on, whether or
// not empty subsets were dropped: distinct subset columns ending in the
// all-negative subset, one full row per sample, and no negative counts.
func (m *Matrix) CheckLayout() error {
	if len(m.Subsets) == 0 {
		return fmt.Errorf("%w: the matrix has no subset columns", subset.ErrDimensionMismatch)
	}

	seen := make(map[string]struct{}, len(m.Subsets))
	for _, s := range m.Subsets {
		if _, exists := seen[s]; exists {
			return fmt.Errorf("Subset %s appears more than once", s)
		}
		seen[s] = struct{}{}
	}

	if last := m.Subsets[len(m.Subsets)-1]; !isAllNegative(last) {
		return fmt.Errorf("The last subset column is %s but it must be the all-negative subset", last)
	}

	for i, row := range m.Counts {
		if len(row) != len(m.Subsets) {
			return fmt.Errorf("%w: sample %s has %d counts but there are %d subsets", subset.ErrDimensionMismatch, m.Samples[i], len(row), len(m.Subsets))
		}
		for j, c := range row {
			if c < 0 {
				return fmt.Errorf("Sample %s has a negative count (%d) for subset %s", m.Samples[i], c, m.Subsets[j])
			}
		}
	}

	return nil
}

// isAllNegative reports whether a rendered label such as A-B- has no
// positive channel.
func isAllNegative(label string) bool {
	return strings.HasSuffix(label, subset.Negative.String()) && !strings.Contains(label, subset.Positive.String())
}

// Validate checks that the columns are exactly the enumeration of channels,
// in canonical order, so the all-negative subset is last. It implies
// CheckLayout.
func (m *Matrix) Validate(channels []string) error {
	markers := make([]subset.MarkerChannel, 0, len(channels))
	for _, name := range channels {
		markers = append(markers, subset.NewMarkerChannel(name, 0))
	}

	labels, err := subset.Enumerate(markers)
	if err != nil {
		return err
	}

	if len(labels) != len(m.Subsets) {
		return fmt.Errorf("%w: %d channels need %d subset columns but the matrix has %d", subset.ErrDimensionMismatch, len(channels), len(labels), len(m.Subsets))
	}

	for i, l := range labels {
		if l.String() != m.Subsets[i] {
			return fmt.Errorf("Subset column %d is %s but %s was expected", i, m.Subsets[i], l)
		}
	}

	return m.CheckLayout()
}

// DropSubsets returns a copy of m without the named subset columns, e.g. to
// remove subsets that were never observed before fitting. The all-negative
// column can't be dropped.
func (m *Matrix) DropSubsets(drop map[string]struct{}) (*Matrix, error) {
	if len(m.Subsets) > 0 {
		if _, exists := drop[m.Subsets[len(m.Subsets)-1]]; exists {
			return nil, fmt.Errorf("The last subset (%s) cannot be dropped", m.Subsets[len(m.Subsets)-1])
		}
	}

	keep := make([]int, 0, len(m.Subsets))
	subsets := make([]string, 0, len(m.Subsets))
	for i, s := range m.Subsets {
		if _, exists := drop[s]; exists {
			continue
		}
		keep = append(keep, i)
		subsets = append(subsets, s)
	}

	out := New(subsets)
	for i, sample := range m.Samples {
		row := make([]int64, 0, len(keep))
		for _, j := range keep {
			row = append(row, m.Counts[i][j])
		}
		if err := out.Add(sample, row); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// EmptySubsets lists the subsets with zero events in every sample of every
// matrix given, excluding the last (all-negative) column.
func EmptySubsets(matrices ...*Matrix) map[string]struct{} {
	out := make(map[string]struct{})
	if len(matrices) == 0 {
		return out
	}

	subsets := matrices[0].Subsets
Subsets:
	for j := 0; j < len(subsets)-1; j++ {
		for _, m := range matrices {
			for _, row := range m.Counts {
				if row[j] != 0 {
					continue Subsets
				}
			}
		}
		out[subsets[j]] = struct{}{}
	}

	return out
}
