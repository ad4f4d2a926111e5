package countmatrix

import (
	"fmt"
)

// Paired is the complete input of a COMPASS fit: stimulated and unstimulated
// counts over the same subsets, with rows for the same samples in the same
// order, and the metadata for those samples in that order.
type Paired struct {
	Stimulated   *Matrix
	Unstimulated *Matrix
	Metadata     Metadata
}

// Pair lines up the two conditions. The unstimulated rows and the metadata
// are reordered to follow the stimulated matrix. Any sample present in one
// condition but not the other, any difference in subset columns, and any
// sample without metadata is an error, as is a matrix failing CheckLayout.
// A nil meta skips the metadata check.
func Pair(stim, unstim *Matrix, meta Metadata) (Paired, error) {
	if err := stim.CheckLayout(); err != nil {
		return Paired{}, fmt.Errorf("Stimulated counts: %w", err)
	}
	if err := unstim.CheckLayout(); err != nil {
		return Paired{}, fmt.Errorf("Unstimulated counts: %w", err)
	}

	if len(stim.Subsets) != len(unstim.Subsets) {
		return Paired{}, fmt.Errorf("Stimulated counts have %d subsets but unstimulated counts have %d", len(stim.Subsets), len(unstim.Subsets))
	}
	for i := range stim.Subsets {
		if stim.Subsets[i] != unstim.Subsets[i] {
			return Paired{}, fmt.Errorf("Subset column %d is %s for stimulated but %s for unstimulated counts", i, stim.Subsets[i], unstim.Subsets[i])
		}
	}

	if len(stim.Samples) != len(unstim.Samples) {
		return Paired{}, fmt.Errorf("There are %d stimulated samples but %d unstimulated samples", len(stim.Samples), len(unstim.Samples))
	}

	ordered := New(stim.Subsets)
	for _, sample := range stim.Samples {
		row, exists := unstim.Row(sample)
		if !exists {
			return Paired{}, fmt.Errorf("Sample %s has stimulated counts but no unstimulated counts", sample)
		}
		if err := ordered.Add(sample, row); err != nil {
			return Paired{}, err
		}
	}

	out := Paired{Stimulated: stim, Unstimulated: ordered}

	if meta == nil {
		return out, nil
	}

	byID := meta.ByID()
	out.Metadata = make(Metadata, 0, len(stim.Samples))
	for _, sample := range stim.Samples {
		sm, exists := byID[sample]
		if !exists {
			return Paired{}, fmt.Errorf("Sample %s has no metadata", sample)
		}
		out.Metadata = append(out.Metadata, sm)
	}

	return out, nil
}
