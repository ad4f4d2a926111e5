package countmatrix

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
)

type metadataBQ struct {
	SampleID string                 `bigquery:"sample_id"`
	PTID     bigquery.NullString    `bigquery:"ptid"`
	Visit    bigquery.NullString    `bigquery:"visit"`
	Antigen  bigquery.NullString    `bigquery:"antigen"`
	Acquired bigquery.NullTimestamp `bigquery:"acquired"`
}

// UploadBigQuery appends the matrix, in long format, to dataset.table. The
// table is created with the LongRow schema if it doesn't exist.
func UploadBigQuery(ctx context.Context, client *bigquery.Client, dataset, table, condition string, m *Matrix) error {
	buf := &bytes.Buffer{}
	cw := csv.NewWriter(buf)
	for _, row := range m.Long(condition) {
		if err := cw.Write([]string{
			row.Condition,
			row.SampleID,
			row.Subset,
			strconv.FormatInt(row.Position, 10),
			strconv.FormatInt(row.Count, 10),
		}); err != nil {
			return pfx.Err(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return load(ctx, client, dataset, table, LongRow{}, buf)
}

// UploadMetadataBigQuery appends the metadata table to dataset.table.
func UploadMetadataBigQuery(ctx context.Context, client *bigquery.Client, dataset, table string, md Metadata) error {
	buf := &bytes.Buffer{}
	cw := csv.NewWriter(buf)
	for _, sm := range md {
		acquired := ""
		if sm.Acquired.Valid {
			acquired = sm.Acquired.Time.UTC().Format("2006-01-02 15:04:05")
		}
		if err := cw.Write([]string{sm.SampleID, sm.PTID.String, sm.Visit.String, sm.Antigen.String, acquired}); err != nil {
			return pfx.Err(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return load(ctx, client, dataset, table, metadataBQ{}, buf)
}

func load(ctx context.Context, client *bigquery.Client, dataset, table string, schemaOf interface{}, buf *bytes.Buffer) error {
	schema, err := bigquery.InferSchema(schemaOf)
	if err != nil {
		return pfx.Err(err)
	}

	src := bigquery.NewReaderSource(buf)
	src.SourceFormat = bigquery.CSV
	src.Schema = schema

	loader := client.Dataset(dataset).Table(table).LoaderFrom(src)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return pfx.Err(err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return pfx.Err(err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("Loading %s.%s: %w", dataset, table, err)
	}

	return nil
}
