package countmatrix

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/flowcompass/subset"
)

func twoChannelMatrix(t *testing.T) *Matrix {
	labels, err := subset.Enumerate([]subset.MarkerChannel{
		subset.NewMarkerChannel("IFNg", 1),
		subset.NewMarkerChannel("IL2", 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	m := FromLabels(labels)
	for _, v := range []struct {
		Sample string
		Counts []int64
	}{
		{"S1", []int64{5, 10, 20, 965}},
		{"S2", []int64{0, 3, 1, 996}},
	} {
		if err := m.Add(v.Sample, v.Counts); err != nil {
			t.Fatal(err)
		}
	}

	return m
}

func TestAddRejectsWrongDimensions(t *testing.T) {
	m := New([]string{"A+", "A-"})

	for _, counts := range [][]int64{{1}, {1, 2, 3}} {
		if err := m.Add("S1", counts); !errors.Is(err, subset.ErrDimensionMismatch) {
			t.Errorf("%v: expected ErrDimensionMismatch, got %v", counts, err)
		}
	}

	if err := m.Add("S1", []int64{1, -1}); err == nil {
		t.Error("Expected an error for a negative count")
	}

	if err := m.Add("S1", []int64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("S1", []int64{1, 2}); err == nil {
		t.Error("Expected an error for a duplicate sample")
	}
}

func TestCheckExhaustive(t *testing.T) {
	m := twoChannelMatrix(t)

	if err := m.CheckExhaustive("S1", 1000); err != nil {
		t.Error(err)
	}
	if err := m.CheckExhaustive("S2", 999); !errors.Is(err, ErrNotExhaustive) {
		t.Errorf("Expected ErrNotExhaustive, got %v", err)
	}
	if err := m.CheckExhaustive("S3", 0); err == nil {
		t.Error("Expected an error for an unknown sample")
	}
}

func TestValidate(t *testing.T) {
	m := twoChannelMatrix(t)

	if err := m.Validate([]string{"IFNg", "IL2"}); err != nil {
		t.Error(err)
	}
	if err := m.Validate([]string{"IFNg", "IL2", "TNFa"}); !errors.Is(err, subset.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}

	swapped := New([]string{"IFNg-IL2-", "IFNg+IL2-", "IFNg-IL2+", "IFNg+IL2+"})
	if err := swapped.Validate([]string{"IFNg", "IL2"}); err == nil {
		t.Error("Expected an error when the all-negative subset is not last")
	}
}

func TestTSVRoundTrip(t *testing.T) {
	m := twoChannelMatrix(t)

	buf := &bytes.Buffer{}
	if err := m.WriteTSV(buf); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(buf.String(), "sample_id\tIFNg+IL2+\tIFNg+IL2-\tIFNg-IL2+\tIFNg-IL2-\n") {
		t.Fatalf("Unexpected header in:\n%s", buf.String())
	}

	got, err := ReadTSV(buf)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(got.Samples, ",") != strings.Join(m.Samples, ",") {
		t.Fatalf("Samples %v, expected %v", got.Samples, m.Samples)
	}
	for _, sample := range m.Samples {
		expected, _ := m.Row(sample)
		row, _ := got.Row(sample)
		for j := range expected {
			if row[j] != expected[j] {
				t.Errorf("%s %s: got %d, expected %d", sample, m.Subsets[j], row[j], expected[j])
			}
		}
	}
}

func TestReadTSVErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":             "",
		"no sample column":  "id\tA+\tA-\n",
		"unsigned columns":  "sample_id\tA\tB\tC\n",
		"negative not last": "sample_id\tA-B-\tA+B-\tA-B+\tA+B+\n",
		"repeated column":   "sample_id\tA+B-\tA+B-\tA-B-\n",
		"negative count":    "sample_id\tA+\tA-\nS1\t-1\t3\n",
		"ragged row":        "sample_id\tA+\tA-\nS1\t1\n",
		"not a number":      "sample_id\tA+\tA-\nS1\t1\tmany\n",
	} {
		if _, err := ReadTSV(strings.NewReader(input)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestDropEmptySubsets(t *testing.T) {
	m := twoChannelMatrix(t)
	m2 := New(m.Subsets)
	m2.Add("S1", []int64{0, 1, 0, 10})

	empty := EmptySubsets(m, m2)
	if len(empty) != 0 {
		t.Fatalf("Expected no empty subsets, got %v", empty)
	}

	m3 := New(m.Subsets)
	m3.Add("S1", []int64{0, 1, 0, 10})
	m3.Add("S2", []int64{0, 0, 2, 0})
	empty = EmptySubsets(m3)
	if _, exists := empty["IFNg+IL2+"]; !exists || len(empty) != 1 {
		t.Fatalf("Expected only IFNg+IL2+ to be empty, got %v", empty)
	}

	dropped, err := m3.DropSubsets(empty)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(dropped.Subsets, ",") != "IFNg+IL2-,IFNg-IL2+,IFNg-IL2-" {
		t.Errorf("Unexpected subsets %v", dropped.Subsets)
	}
	if row, _ := dropped.Row("S2"); row[1] != 2 {
		t.Errorf("Unexpected row %v", row)
	}

	if _, err := m3.DropSubsets(map[string]struct{}{"IFNg-IL2-": {}}); err == nil {
		t.Error("Expected an error when dropping the all-negative subset")
	}
}

func TestDroppedSubsetsRoundTrip(t *testing.T) {
	m := New(twoChannelMatrix(t).Subsets)
	m.Add("S1", []int64{0, 1, 0, 10})
	m.Add("S2", []int64{0, 0, 2, 0})

	dropped, err := m.DropSubsets(EmptySubsets(m))
	if err != nil {
		t.Fatal(err)
	}

	buf := &bytes.Buffer{}
	if err := dropped.WriteTSV(buf); err != nil {
		t.Fatal(err)
	}

	got, err := ReadTSV(buf)
	if err != nil {
		t.Fatalf("Could not read a matrix with dropped subsets: %v", err)
	}
	if strings.Join(got.Subsets, ",") != "IFNg+IL2-,IFNg-IL2+,IFNg-IL2-" {
		t.Errorf("Unexpected subsets %v", got.Subsets)
	}
	if row, _ := got.Row("S2"); len(row) != 3 || row[1] != 2 {
		t.Errorf("Unexpected row %v", row)
	}
}

func TestCheckLayout(t *testing.T) {
	if err := twoChannelMatrix(t).CheckLayout(); err != nil {
		t.Fatal(err)
	}

	for name, m := range map[string]*Matrix{
		"no subsets":        {},
		"negative not last": {Subsets: []string{"A-", "A+"}},
		"repeated column":   {Subsets: []string{"A-B-", "A-B-"}},
		"negative count":    {Subsets: []string{"A+", "A-"}, Samples: []string{"S1"}, Counts: [][]int64{{-2, 4}}},
		"short row":         {Subsets: []string{"A+", "A-"}, Samples: []string{"S1"}, Counts: [][]int64{{4}}},
	} {
		if err := m.CheckLayout(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestLong(t *testing.T) {
	m := twoChannelMatrix(t)
	rows := m.Long("stim")

	if len(rows) != 8 {
		t.Fatalf("Expected 8 rows, got %d", len(rows))
	}
	if r := rows[3]; r.Condition != "stim" || r.SampleID != m.Samples[0] || r.Subset != "IFNg-IL2-" || r.Position != 3 {
		t.Errorf("Unexpected row %+v", r)
	}
}
