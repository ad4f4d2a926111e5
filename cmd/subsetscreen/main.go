// subsetscreen runs a per-sample Fisher exact test of stimulated against
// unstimulated counts for every subset, as a quick look at which subsets
// respond before fitting COMPASS.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/flowcompass"
	"github.com/carbocation/flowcompass/countmatrix"
	"github.com/carbocation/flowcompass/screen"

	_ "github.com/carbocation/flowcompass/compileinfoprint"
)

func main() {
	var stimPath, unstimPath, metadataPath string
	var fdr float64
	var onlySignificant bool

	flag.StringVar(&stimPath, "stim", "", "Stimulated count matrix from events2counts (local or gs://, optionally compressed)")
	flag.StringVar(&unstimPath, "unstim", "", "Unstimulated count matrix from events2counts (local or gs://, optionally compressed)")
	flag.StringVar(&metadataPath, "metadata", "", "(Optional) Metadata table; if set, every sample must be present.")
	flag.Float64Var(&fdr, "fdr", 0.05, "False discovery rate at which a subset is flagged")
	flag.BoolVar(&onlySignificant, "significant", false, "(Optional) Only print flagged subsets.")
	flag.Parse()

	if stimPath == "" || unstimPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var sc *storage.Client
	for _, path := range []string{stimPath, unstimPath, metadataPath} {
		if strings.HasPrefix(path, "gs://") {
			var err error
			if sc, err = storage.NewClient(ctx); err != nil {
				log.Fatalln("Connecting to Google Storage:", err)
			}
			defer sc.Close()
			break
		}
	}

	stim, err := readMatrix(ctx, stimPath, sc)
	if err != nil {
		log.Fatalln(err)
	}
	unstim, err := readMatrix(ctx, unstimPath, sc)
	if err != nil {
		log.Fatalln(err)
	}

	var meta countmatrix.Metadata
	if metadataPath != "" {
		if meta, err = readMetadata(ctx, metadataPath, sc); err != nil {
			log.Fatalln(err)
		}
	}

	paired, err := countmatrix.Pair(stim, unstim, meta)
	if err != nil {
		log.Fatalln(err)
	}

	results, err := screen.Fisher(paired)
	if err != nil {
		log.Fatalln(err)
	}
	screen.AdjustBH(results)

	flagged := printResults(os.Stdout, results, fdr, onlySignificant)
	log.Printf("%d of %d sample-subset pairs flagged at FDR %g\n", flagged, len(results), fdr)
}

func printResults(w io.Writer, results []screen.Result, fdr float64, onlySignificant bool) int {
	fmt.Fprintln(w, strings.Join([]string{"sample_id", "subset", "stim_count", "stim_total", "unstim_count", "unstim_total", "stim_prop", "unstim_prop", "p", "q", "flagged"}, "\t"))

	flagged := 0
	for _, r := range results {
		isFlagged := r.Q <= fdr
		if isFlagged {
			flagged++
		} else if onlySignificant {
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%.6g\t%.6g\t%.6g\t%.6g\t%t\n", r.SampleID, r.Subset, r.StimCount, r.StimTotal, r.UnstimCount, r.UnstimTotal, r.StimProportion, r.UnstimProportion, r.P, r.Q, isFlagged)
	}

	return flagged
}

func readMatrix(ctx context.Context, path string, client *storage.Client) (*countmatrix.Matrix, error) {
	f, err := flowcompass.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := countmatrix.ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

func readMetadata(ctx context.Context, path string, client *storage.Client) (countmatrix.Metadata, error) {
	f, err := flowcompass.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return countmatrix.ReadMetadata(f)
}
