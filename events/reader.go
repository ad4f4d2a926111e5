// Package events streams per-event measurement tables exported from a
// flow-cytometry session: one header row naming the channels, then one row of
// numeric values per event.
package events

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/flowcompass"
	"github.com/carbocation/pfx"
)

// Record holds one event's values in header column order.
type Record []float64

type Reader struct {
	path   string
	header []string
	cols   map[string]int
	csv    *csv.Reader
	closer io.Closer
	line   int
	record Record
}

// Open opens an event table locally or from Google Storage, decompressing and
// detecting its delimiter as needed, and reads its header.
func Open(ctx context.Context, path string, client *storage.Client) (*Reader, error) {
	br, delim, closer, err := flowcompass.OpenTable(ctx, path, client)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(br, delim)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.path = path
	r.closer = closer

	return r, nil
}

// NewReader reads the header row of an already opened table.
func NewReader(rdr io.Reader, delim rune) (*Reader, error) {
	cr := csv.NewReader(rdr)
	cr.Comma = delim
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("Event table has no header row")
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	r := &Reader{
		header: make([]string, 0, len(header)),
		cols:   make(map[string]int, len(header)),
		csv:    cr,
		line:   1,
	}

	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, exists := r.cols[name]; exists {
			return nil, fmt.Errorf("Event table header names column %q more than once", name)
		}
		r.header = append(r.header, name)
		r.cols[name] = i
	}
	r.record = make(Record, len(r.header))

	return r, nil
}

func (r *Reader) Header() []string {
	return r.header
}

// Column returns the position of the named channel in each Record.
func (r *Reader) Column(name string) (int, bool) {
	i, exists := r.cols[name]
	return i, exists
}

// Read returns the next event, or io.EOF once the table is exhausted. The
// returned Record is reused by the next call to Read.
func (r *Reader) Read() (Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.line++

	if len(row) != len(r.header) {
		return nil, fmt.Errorf("%sline %d has %d columns but the header has %d", r.where(), r.line, len(row), len(r.header))
	}

	for i, cell := range row {
		v, err := parseValue(cell)
		if err != nil {
			return nil, fmt.Errorf("%sline %d column %s: %w", r.where(), r.line, r.header[i], err)
		}
		r.record[i] = v
	}

	return r.record, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

func (r *Reader) where() string {
	if r.path == "" {
		return ""
	}

	return r.path + ": "
}

// parseValue reads a measurement. Blank and NA cells become NaN, which every
// threshold partition treats as negative.
func parseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch cell {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}

	return strconv.ParseFloat(cell, 64)
}
