package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrEmptyWeights = errors.New("empty weight table")
)
