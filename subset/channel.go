package subset

import (
	"fmt"
	"math"

	"gopkg.in/guregu/null.v3"
)

// Sign is the call made for one channel: positive or negative.
type Sign byte

const (
	Negative Sign = iota
	Positive
)

func (s Sign) String() string {
	if s == Positive {
		return "+"
	}

	return "-"
}

// MarkerChannel is one measured channel together with the cutoff that splits
// it into a positive and a negative partition. The cutoff stays invalid until
// it has been resolved from the gate definitions.
type MarkerChannel struct {
	Name   string
	Cutoff null.Float
}

// NewMarkerChannel returns a channel whose cutoff is already resolved.
func NewMarkerChannel(name string, cutoff float64) MarkerChannel {
	return MarkerChannel{Name: name, Cutoff: null.FloatFrom(cutoff)}
}

// Resolved reports whether the channel has a usable, finite cutoff.
func (c MarkerChannel) Resolved() bool {
	return c.Cutoff.Valid && !math.IsNaN(c.Cutoff.Float64) && !math.IsInf(c.Cutoff.Float64, 0)
}

func (c MarkerChannel) Positive() Partition {
	return Partition{Channel: c.Name, Sign: Positive, Cutoff: c.Cutoff.Float64}
}

func (c MarkerChannel) Negative() Partition {
	return Partition{Channel: c.Name, Sign: Negative, Cutoff: c.Cutoff.Float64}
}

// Partition is one half of a channel split at its cutoff.
type Partition struct {
	Channel string
	Sign    Sign
	Cutoff  float64
}

// Contains reports whether value falls in this partition. Values at or above
// the cutoff are positive; everything else, including NaN, is negative, so
// the two partitions of a channel never overlap and never leave a gap.
func (p Partition) Contains(value float64) bool {
	positive := value >= p.Cutoff
	if p.Sign == Positive {
		return positive
	}

	return !positive
}

func (p Partition) String() string {
	return fmt.Sprintf("%s%s(%g)", p.Channel, p.Sign, p.Cutoff)
}

func validateChannels(channels []MarkerChannel) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidChannelSet)
	}

	if len(channels) > MaxChannels {
		return fmt.Errorf("%w: %d channels requested but at most %d are supported", ErrInvalidChannelSet, len(channels), MaxChannels)
	}

	seen := make(map[string]struct{}, len(channels))
	for i, c := range channels {
		if c.Name == "" {
			return fmt.Errorf("%w: channel #%d has no name", ErrInvalidChannelSet, i)
		}
		if _, exists := seen[c.Name]; exists {
			return fmt.Errorf("%w: channel %s appears more than once", ErrInvalidChannelSet, c.Name)
		}
		seen[c.Name] = struct{}{}

		if !c.Resolved() {
			return fmt.Errorf("%w: channel %s has no resolved cutoff", ErrInvalidChannelSet, c.Name)
		}
	}

	return nil
}
