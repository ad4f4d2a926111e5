package subset

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/guregu/null.v3"
)

func channelsNamed(names ...string) []MarkerChannel {
	out := make([]MarkerChannel, 0, len(names))
	for i, name := range names {
		out = append(out, NewMarkerChannel(name, float64(100*(i+1))))
	}

	return out
}

func TestEnumerateTwoChannels(t *testing.T) {
	labels, err := Enumerate(channelsNamed("A", "B"))
	if err != nil {
		t.Fatal(err)
	}

	got := Strings(labels)
	expected := []string{"A+B+", "A+B-", "A-B+", "A-B-"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("Got %v, expected %v", got, expected)
	}
}

func TestEnumerateCountsAndOrder(t *testing.T) {
	names := []string{"IFNg", "IL2", "TNFa", "CD154", "IL4", "IL17a", "GzB", "Perf", "CD107", "MIP1b"}

	for n := 1; n <= len(names); n++ {
		labels, err := Enumerate(channelsNamed(names[:n]...))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		if len(labels) != 1<<uint(n) {
			t.Fatalf("n=%d: expected %d labels, got %d", n, 1<<uint(n), len(labels))
		}

		if !labels[len(labels)-1].AllNegative() {
			t.Fatalf("n=%d: last label %s is not all-negative", n, labels[len(labels)-1])
		}

		for i, l := range labels[:len(labels)-1] {
			if l.AllNegative() {
				t.Fatalf("n=%d: label #%d (%s) is all-negative but is not last", n, i, l)
			}
		}

		seen := make(map[string]struct{})
		for _, l := range labels {
			if len(l.Signs) != n {
				t.Fatalf("n=%d: label %s has %d signs", n, l, len(l.Signs))
			}
			if _, exists := seen[l.String()]; exists {
				t.Fatalf("n=%d: duplicate label %s", n, l)
			}
			seen[l.String()] = struct{}{}
		}
	}
}

// Flipping any single channel of any label must give another label in the
// set, which together with the count means every sign combination appears
// exactly once.
func TestEnumerateClosedUnderSignFlips(t *testing.T) {
	labels, err := Enumerate(channelsNamed("A", "B", "C", "D"))
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l.String()] = struct{}{}
	}

	for _, l := range labels {
		for i := range l.Signs {
			flipped := Label{Channels: l.Channels, Signs: append([]Sign(nil), l.Signs...)}
			flipped.Signs[i] = 1 - flipped.Signs[i]
			if _, exists := seen[flipped.String()]; !exists {
				t.Fatalf("Flipping channel %d of %s gave %s, which was not enumerated", i, l, flipped)
			}
		}
	}
}

func TestEnumerateDeterministic(t *testing.T) {
	channels := channelsNamed("A", "B", "C")

	first, err := Enumerate(channels)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Enumerate(channels)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(Strings(first), ",") != strings.Join(Strings(second), ",") {
		t.Fatalf("Enumeration changed between calls:\n%v\n%v", Strings(first), Strings(second))
	}

	// Mutating a returned label must not leak into later calls through the
	// memoized table
	first[0].Signs[0] = Negative
	third, err := Enumerate(channels)
	if err != nil {
		t.Fatal(err)
	}
	if third[0].String() != "A+B+C+" {
		t.Fatalf("Expected A+B+C+, got %s", third[0])
	}
}

func TestEnumerateInvalid(t *testing.T) {
	tooMany := make([]string, MaxChannels+1)
	for i := range tooMany {
		tooMany[i] = string(rune('a'+i%26)) + strings.Repeat("x", i)
	}

	for name, channels := range map[string][]MarkerChannel{
		"empty":      nil,
		"unresolved": {NewMarkerChannel("A", 1), {Name: "B"}},
		"nan":        {{Name: "A", Cutoff: null.FloatFrom(math.NaN())}},
		"unnamed":    {NewMarkerChannel("", 1)},
		"duplicate":  {NewMarkerChannel("A", 1), NewMarkerChannel("A", 2)},
		"too many":   channelsNamed(tooMany...),
	} {
		if _, err := Enumerate(channels); !errors.Is(err, ErrInvalidChannelSet) {
			t.Errorf("%s: expected ErrInvalidChannelSet, got %v", name, err)
		}
	}
}

func TestIndexAgreesWithMatches(t *testing.T) {
	channels := []MarkerChannel{
		NewMarkerChannel("A", 10),
		NewMarkerChannel("B", 20),
		NewMarkerChannel("C", 30),
	}

	labels, err := Enumerate(channels)
	if err != nil {
		t.Fatal(err)
	}

	for _, values := range [][]float64{
		{0, 0, 0},
		{10, 20, 30},
		{9.99, 25, 31},
		{100, 0, 100},
		{math.NaN(), 50, 0},
		{-5, -5, math.Inf(1)},
	} {
		matched := 0
		idx := Index(channels, values)
		for i, l := range labels {
			if l.Matches(channels, values) {
				matched++
				if i != idx {
					t.Errorf("%v: Matches chose %s (#%d) but Index chose #%d", values, l, i, idx)
				}
			}
		}
		if matched != 1 {
			t.Errorf("%v: expected exactly one matching label, got %d", values, matched)
		}
	}
}

func TestIndexWrongValueCount(t *testing.T) {
	channels := []MarkerChannel{
		NewMarkerChannel("A", 10),
		NewMarkerChannel("B", 20),
	}

	for _, values := range [][]float64{nil, {15}, {15, 25, 35}} {
		if idx := Index(channels, values); idx != -1 {
			t.Errorf("%v: expected -1, got %d", values, idx)
		}
	}
}

func TestPartitionBoundary(t *testing.T) {
	c := NewMarkerChannel("A", 5)
	if !c.Positive().Contains(5) || c.Negative().Contains(5) {
		t.Error("A value equal to the cutoff should be positive only")
	}
	if c.Positive().Contains(math.NaN()) || !c.Negative().Contains(math.NaN()) {
		t.Error("NaN should be negative only")
	}
}

func TestExpression(t *testing.T) {
	channels := []MarkerChannel{NewMarkerChannel("IFNg", 1200), NewMarkerChannel("IL2", 800.5)}
	labels, err := Enumerate(channels)
	if err != nil {
		t.Fatal(err)
	}

	if got, expected := labels[1].Expression(channels), "IFNg >= 1200 & IL2 < 800.5"; got != expected {
		t.Errorf("Got %q, expected %q", got, expected)
	}
}
