package countmatrix

// LongRow is one cell of a matrix, for tabular sinks.
type LongRow struct {
	Condition string `bigquery:"condition" db:"condition"`
	SampleID  string `bigquery:"sample_id" db:"sample_id"`
	Subset    string `bigquery:"subset" db:"subset"`
	Position  int64  `bigquery:"position" db:"position"`
	Count     int64  `bigquery:"count" db:"count"`
}

// Long flattens the matrix sample by sample, keeping the subset order in
// Position so the columns can be rebuilt.
func (m *Matrix) Long(condition string) []LongRow {
	out := make([]LongRow, 0, len(m.Samples)*len(m.Subsets))
	for i, sample := range m.Samples {
		for j, s := range m.Subsets {
			out = append(out, LongRow{
				Condition: condition,
				SampleID:  sample,
				Subset:    s,
				Position:  int64(j),
				Count:     m.Counts[i][j],
			})
		}
	}

	return out
}
