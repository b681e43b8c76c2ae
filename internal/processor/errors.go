package processor

import "errors"

// ErrInvalidInput is returned when the input buffer cannot be classified at all:
// wrong sample rate, wrong channel count or no samples. It aborts the run.
var ErrInvalidInput = errors.New("invalid input")

// ErrFilterUnstable is returned by the bandpass filter when a signal is too short
// for zero-phase filtering. The pipeline absorbs it per segment.
var ErrFilterUnstable = errors.New("signal too short for stable filtering")

// ErrInvalidThresholds is returned when a Thresholds value fails validation.
var ErrInvalidThresholds = errors.New("invalid thresholds")
