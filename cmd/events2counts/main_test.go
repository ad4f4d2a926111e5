package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/flowcompass/countmatrix"
)

const testConfig = `{
  "markers": [{"name": "IFNg"}, {"name": "IL2"}],
  "gates": [
    {"name": "IFNg+ a", "channel": "IFNg", "min": 8},
    {"name": "IFNg+ b", "channel": "IFNg", "min": 12},
    {"name": "IL2+", "channel": "IL2", "min": 10}
  ],
  "parent": {"name": "CD4+", "gates": [{"name": "CD4", "channel": "CD4", "min": 500}]}
}`

func writeTestFile(t *testing.T, dir, name, contents string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()

	config := writeTestFile(t, dir, "gates.json", testConfig)
	s1Stim := writeTestFile(t, dir, "s1_stim.tsv", "CD4\tIFNg\tIL2\n600\t20\t20\n600\t20\t1\n600\t1\t1\n100\t20\t20\n")
	s1Unstim := writeTestFile(t, dir, "s1_unstim.tsv", "CD4\tIFNg\tIL2\n600\t1\t1\n600\t1\t1\n")
	s2Stim := writeTestFile(t, dir, "s2_stim.csv", "CD4,IFNg,IL2\n900,10,10\n900,9,11\n")
	s2Unstim := writeTestFile(t, dir, "s2_unstim.csv", "CD4,IFNg,IL2\n900,1,1\n")

	manifest := writeTestFile(t, dir, "manifest.tsv", strings.Join([]string{
		"sample_id\tcondition\tpath",
		"S1\tstim\t" + s1Stim,
		"S1\tunstim\t" + s1Unstim,
		"S2\tUnstimulated\t" + s2Unstim,
		"S2\tstimulated\t" + s2Stim,
	}, "\n")+"\n")

	metadata := writeTestFile(t, dir, "meta.tsv", "sample_id\tptid\tantigen\nS2\tP2\tGAG\nS1\tP1\tENV\n")

	out := filepath.Join(dir, "panel")
	if err := run(config, manifest, metadata, out, "", false, 2); err != nil {
		t.Fatal(err)
	}

	stim := readMatrix(t, out+".stim.tsv")
	unstim := readMatrix(t, out+".unstim.tsv")

	if strings.Join(stim.Subsets, ",") != "IFNg+IL2+,IFNg+IL2-,IFNg-IL2+,IFNg-IL2-" {
		t.Fatalf("Unexpected subsets %v", stim.Subsets)
	}
	if strings.Join(unstim.Samples, ",") != strings.Join(stim.Samples, ",") {
		t.Fatalf("Sample order differs: %v vs %v", stim.Samples, unstim.Samples)
	}

	// IFNg cutoff is the mean of 8 and 12
	for sample, expected := range map[string][]int64{
		"S1": {1, 1, 0, 1},
		"S2": {1, 0, 1, 0},
	} {
		row, exists := stim.Row(sample)
		if !exists {
			t.Fatalf("%s missing from the stimulated matrix", sample)
		}
		for j := range expected {
			if row[j] != expected[j] {
				t.Errorf("%s %s: got %d, expected %d", sample, stim.Subsets[j], row[j], expected[j])
			}
		}
	}

	if row, _ := unstim.Row("S1"); row[3] != 2 {
		t.Errorf("Expected both S1 unstimulated events to be all-negative, got %v", row)
	}

	f, err := os.Open(out + ".metadata.tsv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	md, err := countmatrix.ReadMetadata(f)
	if err != nil {
		t.Fatal(err)
	}
	for i, sample := range stim.Samples {
		if md[i].SampleID != sample {
			t.Errorf("Metadata row %d is %s, expected %s", i, md[i].SampleID, sample)
		}
	}
}

func TestRunDropEmpty(t *testing.T) {
	dir := t.TempDir()

	config := writeTestFile(t, dir, "gates.json", testConfig)
	stimPath := writeTestFile(t, dir, "stim.tsv", "CD4\tIFNg\tIL2\n600\t20\t20\n600\t20\t1\n600\t1\t1\n100\t1\t20\n")
	unstimPath := writeTestFile(t, dir, "unstim.tsv", "CD4\tIFNg\tIL2\n600\t1\t1\n600\t1\t1\n")
	manifest := writeTestFile(t, dir, "manifest.tsv", "sample_id\tcondition\tpath\nS1\tstim\t"+stimPath+"\nS1\tunstim\t"+unstimPath+"\n")

	out := filepath.Join(dir, "panel")
	if err := run(config, manifest, "", out, "", true, 1); err != nil {
		t.Fatal(err)
	}

	// The IFNg-IL2+ event is outside the parent gate, so that subset is empty
	for _, path := range []string{out + ".stim.tsv", out + ".unstim.tsv"} {
		m := readMatrix(t, path)
		if strings.Join(m.Subsets, ",") != "IFNg+IL2+,IFNg+IL2-,IFNg-IL2-" {
			t.Errorf("%s: unexpected subsets %v", path, m.Subsets)
		}
	}

	if row, _ := readMatrix(t, out+".stim.tsv").Row("S1"); row[0] != 1 || row[1] != 1 || row[2] != 1 {
		t.Errorf("Unexpected stimulated row %v", row)
	}
}

func TestWriteOutputsOrder(t *testing.T) {
	m := countmatrix.New([]string{"A+", "A-"})
	m.Add("S1", []int64{1, 2})
	paired := countmatrix.Paired{Stimulated: m, Unstimulated: m, Metadata: countmatrix.Metadata{{SampleID: "S1"}}}

	out := filepath.Join(t.TempDir(), "panel")
	for i := 0; i < 5; i++ {
		written, err := writeOutputs(out, paired)
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(written, ","); got != out+".stim.tsv,"+out+".unstim.tsv,"+out+".metadata.tsv" {
			t.Fatalf("Unexpected write order %s", got)
		}
	}
}

func TestValidateManifest(t *testing.T) {
	for name, records := range map[string][]*ManifestEntry{
		"empty":          nil,
		"no path":        {{SampleID: "S1", Condition: "stim"}},
		"bad condition":  {{SampleID: "S1", Condition: "costim", Path: "a"}},
		"missing unstim": {{SampleID: "S1", Condition: "stim", Path: "a"}},
		"duplicate": {
			{SampleID: "S1", Condition: "stim", Path: "a"},
			{SampleID: "S1", Condition: "stimulated", Path: "b"},
			{SampleID: "S1", Condition: "unstim", Path: "c"},
		},
	} {
		if _, err := validateManifest(records); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func readMatrix(t *testing.T, path string) *countmatrix.Matrix {
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	m, err := countmatrix.ReadTSV(f)
	if err != nil {
		t.Fatal(err)
	}

	return m
}
