package countmatrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
)

const SampleIDColumn = "sample_id"

// WriteTSV writes a header of sample_id followed by the subset columns, then
// one line per sample.
func (m *Matrix) WriteTSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(append([]string{SampleIDColumn}, m.Subsets...)); err != nil {
		return pfx.Err(err)
	}

	line := make([]string, len(m.Subsets)+1)
	for i, sample := range m.Samples {
		line[0] = sample
		for j, c := range m.Counts[i] {
			line[j+1] = strconv.FormatInt(c, 10)
		}
		if err := cw.Write(line); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// ReadTSV reads a matrix written by WriteTSV, including one whose empty
// subsets were dropped. The result passes CheckLayout.
func ReadTSV(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("Count matrix is empty")
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	if len(header) < 2 || header[0] != SampleIDColumn {
		return nil, fmt.Errorf("Count matrix header must begin with %s and name at least one subset", SampleIDColumn)
	}

	m := New(header[1:])
	if err := m.CheckLayout(); err != nil {
		return nil, err
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		counts := make([]int64, 0, len(row)-1)
		for j, cell := range row[1:] {
			c, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("Line %d, subset %s: %w", line, m.Subsets[j], err)
			}
			counts = append(counts, c)
		}

		if err := m.Add(row[0], counts); err != nil {
			return nil, fmt.Errorf("Line %d: %w", line, err)
		}
	}

	return m, nil
}
