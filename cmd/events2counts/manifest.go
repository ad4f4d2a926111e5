package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/flowcompass"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

const (
	ConditionStim   = "stim"
	ConditionUnstim = "unstim"
)

// ManifestEntry is one exported event table.
type ManifestEntry struct {
	SampleID  string `csv:"sample_id"`
	Condition string `csv:"condition"`
	Path      string `csv:"path"`
}

func normalizeCondition(condition string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(condition)) {
	case "stim", "stimulated":
		return ConditionStim, nil
	case "unstim", "unstimulated", "negctrl":
		return ConditionUnstim, nil
	}

	return "", fmt.Errorf("Condition %q is neither %s nor %s", condition, ConditionStim, ConditionUnstim)
}

func readManifest(ctx context.Context, path string, client *storage.Client) ([]ManifestEntry, error) {
	br, delim, closer, err := flowcompass.OpenTable(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	records := []*ManifestEntry{}
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, pfx.Err(err)
	}

	return validateManifest(records)
}

// validateManifest normalizes conditions and requires one stimulated and one
// unstimulated table for every sample.
func validateManifest(records []*ManifestEntry) ([]ManifestEntry, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("Manifest lists no event tables")
	}

	seen := make(map[string]map[string]struct{})
	out := make([]ManifestEntry, 0, len(records))
	for i, rec := range records {
		if rec.SampleID == "" || rec.Path == "" {
			return nil, fmt.Errorf("Manifest row %d needs both a sample_id and a path", i+1)
		}

		condition, err := normalizeCondition(rec.Condition)
		if err != nil {
			return nil, fmt.Errorf("Manifest row %d: %w", i+1, err)
		}
		rec.Condition = condition

		if seen[rec.SampleID] == nil {
			seen[rec.SampleID] = make(map[string]struct{})
		}
		if _, exists := seen[rec.SampleID][condition]; exists {
			return nil, fmt.Errorf("Sample %s has more than one %s table", rec.SampleID, condition)
		}
		seen[rec.SampleID][condition] = struct{}{}

		out = append(out, *rec)
	}

	for sample, conditions := range seen {
		if len(conditions) != 2 {
			return nil, fmt.Errorf("Sample %s needs both a %s and a %s table", sample, ConditionStim, ConditionUnstim)
		}
	}

	return out, nil
}

func anyGoogleStorage(paths ...string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, "gs://") {
			return true
		}
	}

	return false
}
