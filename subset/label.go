package subset

import (
	"strconv"
	"strings"
)

// Label is one mutually exclusive subset: a sign for every channel, in the
// channel order used for enumeration.
type Label struct {
	Channels []string
	Signs    []Sign
}

// String renders the label the way COMPASS column names are usually written,
// e.g. "IFNg+IL2-TNFa-".
func (l Label) String() string {
	b := strings.Builder{}
	for i, name := range l.Channels {
		b.WriteString(name)
		b.WriteString(l.Signs[i].String())
	}

	return b.String()
}

// AllNegative reports whether every channel is called negative.
func (l Label) AllNegative() bool {
	for _, s := range l.Signs {
		if s == Positive {
			return false
		}
	}

	return true
}

// Degree is the number of positive channels in the label.
func (l Label) Degree() int {
	out := 0
	for _, s := range l.Signs {
		if s == Positive {
			out++
		}
	}

	return out
}

// Conjunction returns the partitions whose intersection defines this subset.
// channels must be the same set, in the same order, that produced the label.
func (l Label) Conjunction(channels []MarkerChannel) []Partition {
	out := make([]Partition, 0, len(channels))
	for i, c := range channels {
		if l.Signs[i] == Positive {
			out = append(out, c.Positive())
		} else {
			out = append(out, c.Negative())
		}
	}

	return out
}

// Matches evaluates the conjunction against one event's channel values,
// supplied in channel order.
func (l Label) Matches(channels []MarkerChannel, values []float64) bool {
	for _, p := range l.Conjunction(channels) {
		if !p.Contains(values[indexOf(channels, p.Channel)]) {
			return false
		}
	}

	return true
}

func indexOf(channels []MarkerChannel, name string) int {
	for i, c := range channels {
		if c.Name == name {
			return i
		}
	}

	return -1
}

// Strings is a convenience for writing headers.
func Strings(labels []Label) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.String())
	}

	return out
}

// Expression renders the conjunction as a readable boolean gate, e.g.
// "IFNg >= 1200 & IL2 < 800".
func (l Label) Expression(channels []MarkerChannel) string {
	parts := make([]string, 0, len(channels))
	for _, p := range l.Conjunction(channels) {
		op := "<"
		if p.Sign == Positive {
			op = ">="
		}
		parts = append(parts, p.Channel+" "+op+" "+strconv.FormatFloat(p.Cutoff, 'g', -1, 64))
	}

	return strings.Join(parts, " & ")
}
