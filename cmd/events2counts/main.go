// events2counts gates a manifest of exported event tables and writes the
// stimulated and unstimulated subset count matrices, plus the matching
// metadata table, that a COMPASS fit consumes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/flowcompass"
	"github.com/carbocation/flowcompass/countmatrix"
	"github.com/carbocation/flowcompass/gating"
	"github.com/carbocation/flowcompass/subset"

	_ "github.com/carbocation/flowcompass/compileinfoprint"
)

func init() {
	flag.Usage = func() {
		flag.PrintDefaults()

		log.Println("The manifest is a delimited file with the columns sample_id, condition (stim or unstim), and path.")
		log.Println("Paths may be local or gs:// and may be compressed.")
	}
}

func main() {
	start := time.Now()
	log.Println("events2counts start")
	defer func() {
		log.Printf("events2counts end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var configPath, manifestPath, metadataPath, outPrefix, sqlitePath string
	var dropEmpty bool
	var concurrency int

	flag.StringVar(&configPath, "config", "", "Gate config (.json, or .yaml/.yml)")
	flag.StringVar(&manifestPath, "manifest", "", "Manifest of event tables: sample_id, condition, path")
	flag.StringVar(&outPrefix, "out", "", "Output prefix. Writes <out>.stim.tsv, <out>.unstim.tsv and, with -metadata, <out>.metadata.tsv")
	flag.StringVar(&metadataPath, "metadata", "", "(Optional) Tab-delimited metadata with a sample_id column. Every sample must be present.")
	flag.StringVar(&sqlitePath, "sqlite", "", "(Optional) Also store both matrices in this SQLite database.")
	flag.BoolVar(&dropEmpty, "drop-empty", false, "(Optional) Drop subsets that have no events in any sample of either condition.")
	flag.IntVar(&concurrency, "concurrency", 0, "(Optional) Number of event tables to process at once. Defaults to 4x the number of CPUs.")
	flag.Parse()

	if configPath == "" || manifestPath == "" || outPrefix == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(configPath, manifestPath, metadataPath, outPrefix, sqlitePath, dropEmpty, concurrency); err != nil {
		log.Fatalln(err)
	}
}

func run(configPath, manifestPath, metadataPath, outPrefix, sqlitePath string, dropEmpty bool, concurrency int) error {
	ctx := context.Background()

	cfg, err := gating.ParseConfigFromPath(configPath)
	if err != nil {
		return err
	}

	channels, err := gating.Resolve(cfg)
	if err != nil {
		return err
	}
	for _, c := range channels {
		log.Printf("%s: cutoff %g\n", c.Name, c.Cutoff.Float64)
	}

	labels, err := subset.Enumerate(channels)
	if err != nil {
		return err
	}
	log.Printf("Counting %d subsets of %d markers\n", len(labels), len(channels))

	var client *storage.Client
	if anyGoogleStorage(manifestPath, metadataPath) {
		if client, err = storage.NewClient(ctx); err != nil {
			return err
		}
		defer client.Close()
	}

	entries, err := readManifest(ctx, manifestPath, client)
	if err != nil {
		return err
	}

	if client == nil {
		paths := make([]string, 0, len(entries))
		for _, e := range entries {
			paths = append(paths, e.Path)
		}
		if anyGoogleStorage(paths...) {
			if client, err = storage.NewClient(ctx); err != nil {
				return err
			}
			defer client.Close()
		}
	}

	results, err := countAll(ctx, cfg, channels, entries, client, concurrency)
	if err != nil {
		return err
	}

	stim, unstim, err := buildMatrices(labels, results)
	if err != nil {
		return err
	}

	var meta countmatrix.Metadata
	if metadataPath != "" {
		f, err := flowcompass.OpenInput(ctx, metadataPath, client)
		if err != nil {
			return err
		}
		meta, err = countmatrix.ReadMetadata(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	paired, err := countmatrix.Pair(stim, unstim, meta)
	if err != nil {
		return err
	}

	if dropEmpty {
		empty := countmatrix.EmptySubsets(paired.Stimulated, paired.Unstimulated)
		log.Printf("Dropping %d subsets with no events in any sample\n", len(empty))

		if paired.Stimulated, err = paired.Stimulated.DropSubsets(empty); err != nil {
			return err
		}
		if paired.Unstimulated, err = paired.Unstimulated.DropSubsets(empty); err != nil {
			return err
		}
	}

	if _, err := writeOutputs(outPrefix, paired); err != nil {
		return err
	}

	if sqlitePath != "" {
		if err := writeSQLite(sqlitePath, paired); err != nil {
			return err
		}
		log.Println("Wrote both conditions to", sqlitePath)
	}

	return nil
}

// writeOutputs writes the stimulated matrix, then the unstimulated one, then
// the metadata, and returns the paths in that order.
func writeOutputs(outPrefix string, paired countmatrix.Paired) ([]string, error) {
	var written []string

	for _, v := range []struct {
		Condition string
		Matrix    *countmatrix.Matrix
	}{
		{ConditionStim, paired.Stimulated},
		{ConditionUnstim, paired.Unstimulated},
	} {
		path := fmt.Sprintf("%s.%s.tsv", outPrefix, v.Condition)
		if err := writeFile(path, v.Matrix.WriteTSV); err != nil {
			return written, err
		}
		log.Println("Wrote", path)
		written = append(written, path)
	}

	if paired.Metadata != nil {
		path := outPrefix + ".metadata.tsv"
		if err := writeFile(path, paired.Metadata.WriteMetadata); err != nil {
			return written, err
		}
		log.Println("Wrote", path)
		written = append(written, path)
	}

	return written, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(flowcompass.ExpandHome(path))
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
