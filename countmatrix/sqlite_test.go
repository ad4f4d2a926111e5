//go:build cgo
// +build cgo

package countmatrix

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "counts.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	m := twoChannelMatrix(t)
	if err := WriteSQLite(db, "stim", m); err != nil {
		t.Fatal(err)
	}

	// Rewriting replaces rather than duplicates
	if err := WriteSQLite(db, "stim", m); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSQLite(db, "stim")
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(got.Subsets, ",") != strings.Join(m.Subsets, ",") {
		t.Fatalf("Subsets %v, expected %v", got.Subsets, m.Subsets)
	}
	if strings.Join(got.Samples, ",") != strings.Join(m.Samples, ",") {
		t.Fatalf("Samples %v, expected %v", got.Samples, m.Samples)
	}
	for i := range m.Samples {
		for j := range m.Subsets {
			if got.Counts[i][j] != m.Counts[i][j] {
				t.Errorf("%s %s: got %d, expected %d", m.Samples[i], m.Subsets[j], got.Counts[i][j], m.Counts[i][j])
			}
		}
	}

	if _, err := ReadSQLite(db, "unstim"); err == nil {
		t.Error("Expected an error for a condition that was never written")
	}
}
