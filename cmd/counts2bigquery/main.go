// counts2bigquery appends a subset count matrix, in long format, to a
// BigQuery table, and optionally the matching metadata to a second table.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/carbocation/flowcompass"
	"github.com/carbocation/flowcompass/countmatrix"

	_ "github.com/carbocation/flowcompass/compileinfoprint"
)

type WrappedBigQuery struct {
	Context  context.Context
	Client   *bigquery.Client
	Project  string
	Database string
}

func main() {
	var (
		BQ = &WrappedBigQuery{}
	)
	var countsPath, condition, table, metadataPath, metadataTable string

	flag.StringVar(&BQ.Project, "project", "", "Name of the Google Cloud project that hosts your BigQuery database instance")
	flag.StringVar(&BQ.Database, "bigquery", "", "BigQuery dataset name")
	flag.StringVar(&table, "table", "subset_counts", "Table for the counts")
	flag.StringVar(&countsPath, "counts", "", "Count matrix written by events2counts (local or gs://)")
	flag.StringVar(&condition, "condition", "", "Condition label stored with each row, e.g. stim or unstim")
	flag.StringVar(&metadataPath, "metadata", "", "(Optional) Metadata table written by events2counts")
	flag.StringVar(&metadataTable, "metadata-table", "subset_metadata", "(Optional) Table for the metadata")
	flag.Parse()

	if BQ.Project == "" || BQ.Database == "" || countsPath == "" || condition == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Println("Using bigquery database", BQ.Database)

	var err error
	BQ.Context = context.Background()
	BQ.Client, err = bigquery.NewClient(BQ.Context, BQ.Project)
	if err != nil {
		log.Fatalln("Connecting to BigQuery:", err)
	}
	defer BQ.Client.Close()

	var sc *storage.Client
	if strings.HasPrefix(countsPath, "gs://") || strings.HasPrefix(metadataPath, "gs://") {
		if sc, err = storage.NewClient(BQ.Context); err != nil {
			log.Fatalln("Connecting to Google Storage:", err)
		}
		defer sc.Close()
	}

	m, err := readCounts(BQ.Context, countsPath, sc)
	if err != nil {
		log.Fatalln(err)
	}

	if err := countmatrix.UploadBigQuery(BQ.Context, BQ.Client, BQ.Database, table, condition, m); err != nil {
		log.Fatalln(err)
	}
	log.Printf("Loaded %d samples x %d subsets into %s.%s\n", len(m.Samples), len(m.Subsets), BQ.Database, table)

	if metadataPath == "" {
		return
	}

	md, err := readMetadata(BQ.Context, metadataPath, sc)
	if err != nil {
		log.Fatalln(err)
	}

	if err := countmatrix.UploadMetadataBigQuery(BQ.Context, BQ.Client, BQ.Database, metadataTable, md); err != nil {
		log.Fatalln(err)
	}
	log.Printf("Loaded metadata for %d samples into %s.%s\n", len(md), BQ.Database, metadataTable)
}

func readCounts(ctx context.Context, path string, client *storage.Client) (*countmatrix.Matrix, error) {
	f, err := flowcompass.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return countmatrix.ReadTSV(f)
}

func readMetadata(ctx context.Context, path string, client *storage.Client) (countmatrix.Metadata, error) {
	f, err := flowcompass.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return countmatrix.ReadMetadata(f)
}
