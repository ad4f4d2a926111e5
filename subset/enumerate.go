package subset

import (
	"github.com/BenLubar/memoize"
)

// MaxChannels bounds the enumeration at roughly a million subsets.
const MaxChannels = 20

// Sign tables depend only on the number of channels, and the same handful of
// channel counts are requested for every sample.
var memoizedSignTable = memoize.Memoize(signTable)

// Enumerate produces every combination of positive and negative calls across
// channels, one Label per point of the 2^n sign space.
//
// Channel 0 is the most significant bit and the last channel the least
// significant bit of a value v, where a set bit means positive. Values are
// visited in descending order, from 2^n-1 down to 0, so the first label is
// all-positive and the last label is always all-negative. For channels A and
// B the order is A+B+, A+B-, A-B+, A-B-.
func Enumerate(channels []MarkerChannel) ([]Label, error) {
	if err := validateChannels(channels); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(channels))
	for _, c := range channels {
		names = append(names, c.Name)
	}

	table := memoizedSignTable.(func(int) [][]Sign)(len(channels))

	out := make([]Label, 0, len(table))
	for _, signs := range table {
		// The memoized table is shared, so each label gets its own copy
		row := make([]Sign, len(signs))
		copy(row, signs)

		out = append(out, Label{Channels: names, Signs: row})
	}

	return out, nil
}

func signTable(n int) [][]Sign {
	size := 1 << uint(n)
	out := make([][]Sign, 0, size)

	for v := size - 1; v >= 0; v-- {
		signs := make([]Sign, n)
		for i := 0; i < n; i++ {
			if v&(1<<uint(n-1-i)) != 0 {
				signs[i] = Positive
			} else {
				signs[i] = Negative
			}
		}
		out = append(out, signs)
	}

	return out
}

// Index returns the position, within the output of Enumerate, of the single
// label whose conjunction holds for values. values are given in channel
// order. This is the same answer as testing every label with Matches, but
// takes O(n) instead of O(n*2^n). Index returns -1 when there is not exactly
// one value per channel.
func Index(channels []MarkerChannel, values []float64) int {
	n := len(channels)
	if len(values) != n {
		return -1
	}

	v := 0
	for i, c := range channels {
		if c.Positive().Contains(values[i]) {
			v |= 1 << uint(n-1-i)
		}
	}

	return (1<<uint(n) - 1) - v
}
