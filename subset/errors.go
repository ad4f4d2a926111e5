package subset

import "errors"

var (
	// ErrInvalidChannelSet is returned when a channel set is empty, too
	// large, or contains a channel that cannot be partitioned.
	ErrInvalidChannelSet = errors.New("invalid channel set")

	// ErrNoCandidateValues is returned when a cutoff cannot be resolved
	// because no finite candidate values were supplied.
	ErrNoCandidateValues = errors.New("no candidate cutoff values")

	// ErrDimensionMismatch is returned when a count row does not carry
	// exactly one column per enumerated subset.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
