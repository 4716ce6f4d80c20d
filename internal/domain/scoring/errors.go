package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNoSamples    = errors.New("no training samples")
	ErrCorruptModel = errors.New("corrupt model")
)
