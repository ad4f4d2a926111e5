package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/flowcompass/countmatrix"
	"github.com/carbocation/flowcompass/events"
	"github.com/carbocation/flowcompass/gating"
	"github.com/carbocation/flowcompass/subset"
)

type sampleResult struct {
	ManifestEntry
	gating.Row
	err error
}

// countAll gates every table in the manifest. Results come back in manifest
// order regardless of which goroutine finished first.
func countAll(ctx context.Context, cfg gating.Config, channels []subset.MarkerChannel, entries []ManifestEntry, client *storage.Client, concurrency int) ([]sampleResult, error) {
	if concurrency < 1 {
		concurrency = 4 * runtime.NumCPU()
	}

	results := make([]sampleResult, len(entries))
	sem := make(chan bool, concurrency)
	var wg sync.WaitGroup

	for i, entry := range entries {
		sem <- true
		wg.Add(1)
		go func(i int, entry ManifestEntry) {
			defer func() {
				<-sem
				wg.Done()
			}()

			row, err := countOne(ctx, cfg, channels, entry.Path, client)
			results[i] = sampleResult{ManifestEntry: entry, Row: row, err: err}
		}(i, entry)

		if (i+1)%100 == 0 {
			log.Printf("Started %d of %d event tables\n", i+1, len(entries))
		}
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("Sample %s (%s, %s): %w", r.SampleID, r.Condition, r.Path, r.err)
		}
	}

	return results, nil
}

func countOne(ctx context.Context, cfg gating.Config, channels []subset.MarkerChannel, path string, client *storage.Client) (gating.Row, error) {
	r, err := events.Open(ctx, path, client)
	if err != nil {
		return gating.Row{}, err
	}
	defer r.Close()

	g, err := gating.NewGater(cfg, channels, r)
	if err != nil {
		return gating.Row{}, err
	}

	return g.Count(r)
}

// buildMatrices splits the results by condition and confirms that no parent
// event was lost or counted twice.
func buildMatrices(labels []subset.Label, results []sampleResult) (stim, unstim *countmatrix.Matrix, err error) {
	stim, unstim = countmatrix.FromLabels(labels), countmatrix.FromLabels(labels)

	for _, r := range results {
		m := stim
		if r.Condition == ConditionUnstim {
			m = unstim
		}

		if err := m.Add(r.SampleID, r.Counts); err != nil {
			return nil, nil, err
		}
		if err := m.CheckExhaustive(r.SampleID, r.Parent); err != nil {
			return nil, nil, err
		}

		log.Printf("%s (%s): %d events, %d in the parent gate\n", r.SampleID, r.Condition, r.Total, r.Parent)
	}

	return stim, unstim, nil
}
