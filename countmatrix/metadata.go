package countmatrix

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// metadataRecord is the on-disk layout of the per-sample metadata table.
// Columns other than these are ignored.
type metadataRecord struct {
	SampleID string `csv:"sample_id"`
	PTID     string `csv:"ptid"`
	Visit    string `csv:"visit"`
	Antigen  string `csv:"antigen"`
	Acquired string `csv:"acquired"`
}

// SampleMetadata describes one sample. Only SampleID is required.
type SampleMetadata struct {
	SampleID string
	PTID     null.String
	Visit    null.String
	Antigen  null.String
	Acquired null.Time
}

type Metadata []SampleMetadata

// ReadMetadata reads a tab-delimited metadata table with at least a sample_id
// column. Acquisition dates may be in any format dateparse understands.
func ReadMetadata(r io.Reader) (Metadata, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	records := []*metadataRecord{}
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make(Metadata, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if rec.SampleID == "" {
			return nil, fmt.Errorf("Metadata row %d has no %s", i+1, SampleIDColumn)
		}
		if _, exists := seen[rec.SampleID]; exists {
			return nil, fmt.Errorf("Metadata lists sample %s more than once", rec.SampleID)
		}
		seen[rec.SampleID] = struct{}{}

		sm := SampleMetadata{
			SampleID: rec.SampleID,
			PTID:     optionalString(rec.PTID),
			Visit:    optionalString(rec.Visit),
			Antigen:  optionalString(rec.Antigen),
		}

		if acquired := strings.TrimSpace(rec.Acquired); acquired != "" && acquired != "NA" {
			t, err := dateparse.ParseAny(acquired)
			if err != nil {
				return nil, fmt.Errorf("Sample %s: acquisition date %q: %w", rec.SampleID, acquired, err)
			}
			sm.Acquired = null.TimeFrom(t)
		}

		out = append(out, sm)
	}

	return out, nil
}

// WriteMetadata writes the table in the layout ReadMetadata expects, with
// missing values left blank and dates as RFC 3339.
func (md Metadata) WriteMetadata(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write([]string{SampleIDColumn, "ptid", "visit", "antigen", "acquired"}); err != nil {
		return pfx.Err(err)
	}

	for _, sm := range md {
		acquired := ""
		if sm.Acquired.Valid {
			acquired = sm.Acquired.Time.Format(time.RFC3339)
		}

		if err := cw.Write([]string{sm.SampleID, sm.PTID.String, sm.Visit.String, sm.Antigen.String, acquired}); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// ByID indexes the metadata by sample ID.
func (md Metadata) ByID() map[string]SampleMetadata {
	out := make(map[string]SampleMetadata, len(md))
	for _, sm := range md {
		out[sm.SampleID] = sm
	}

	return out
}

func optionalString(s string) null.String {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return null.String{}
	}

	return null.StringFrom(s)
}
