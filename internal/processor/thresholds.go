package processor

import (
	"fmt"
	"math"
)

// WindowFunc names the analysis window applied before the FFT
type WindowFunc string

// Supported analysis windows
const (
	// WindowRectangular applies no taper. All default thresholds are calibrated for it.
	WindowRectangular WindowFunc = "rectangular"

	// WindowHann lowers spectral leakage. Raises flatness contrast and shifts the
	// voice-band ratio, so thresholds need recalibrating when it is selected.
	WindowHann WindowFunc = "hann"
)

// RequiredSampleRate is the only sample rate the classifier accepts.
const RequiredSampleRate = 16000

// Thresholds holds every tunable constant of the classification pipeline.
// A Thresholds value is read-only once validated; pass it by pointer to every stage.
type Thresholds struct {
	// Input and segmentation
	SampleRate         int     `toml:"sample_rate" yaml:"sample_rate" json:"sample_rate"`                            // Hz, must equal RequiredSampleRate
	SegmentSeconds     float64 `toml:"segment_seconds" yaml:"segment_seconds" json:"segment_seconds"`                // Nominal segment duration D
	MinTrailingSeconds float64 `toml:"min_trailing_seconds" yaml:"min_trailing_seconds" json:"min_trailing_seconds"` // Absolute seconds, not a fraction of D; shorter remainders are discarded

	// Bandpass filter (applied to a copy of each segment)
	FilterLowHz  float64 `toml:"filter_low_hz" yaml:"filter_low_hz" json:"filter_low_hz"`
	FilterHighHz float64 `toml:"filter_high_hz" yaml:"filter_high_hz" json:"filter_high_hz"`
	FilterOrder  int     `toml:"filter_order" yaml:"filter_order" json:"filter_order"` // Butterworth prototype order

	// Spectral analysis
	Window WindowFunc `toml:"window" yaml:"window" json:"window"`

	// Pitch tracker search range (Hz)
	PitchSearchMinHz float64 `toml:"pitch_search_min_hz" yaml:"pitch_search_min_hz" json:"pitch_search_min_hz"`
	PitchSearchMaxHz float64 `toml:"pitch_search_max_hz" yaml:"pitch_search_max_hz" json:"pitch_search_max_hz"`

	// Voice band window used by the voice-band ratio
	VoiceBandLowHz  float64 `toml:"voice_band_low_hz" yaml:"voice_band_low_hz" json:"voice_band_low_hz"`
	VoiceBandHighHz float64 `toml:"voice_band_high_hz" yaml:"voice_band_high_hz" json:"voice_band_high_hz"`

	// Temporal smoothing
	SmoothingWindow int `toml:"smoothing_window" yaml:"smoothing_window" json:"smoothing_window"`

	// Classification
	EnergyFloor     float64 `toml:"energy_floor" yaml:"energy_floor" json:"energy_floor"`             // Σx² per segment; below this the segment is noise
	FlatnessCeiling float64 `toml:"flatness_ceiling" yaml:"flatness_ceiling" json:"flatness_ceiling"` // +2 when flatness is below
	PitchMinHz      float64 `toml:"pitch_min_hz" yaml:"pitch_min_hz" json:"pitch_min_hz"`             // +1 when pitch is within [min, max]
	PitchMaxHz      float64 `toml:"pitch_max_hz" yaml:"pitch_max_hz" json:"pitch_max_hz"`
	VoicingFloor    float64 `toml:"voicing_floor" yaml:"voicing_floor" json:"voicing_floor"`          // +1 when voicing probability is above
	VoiceBandFloor  float64 `toml:"voice_band_floor" yaml:"voice_band_floor" json:"voice_band_floor"` // +2 when log voice-band ratio is above
	ScoreThreshold  int     `toml:"score_threshold" yaml:"score_threshold" json:"score_threshold"`    // voice when score >= threshold

	// Post-classification majority vote over labels (0 or 1 disables)
	LabelVoteWindow int `toml:"label_vote_window" yaml:"label_vote_window" json:"label_vote_window"`

	// Mains frequency for the hum diagnostic (0 = not measured)
	MainsHz float64 `toml:"mains_hz" yaml:"mains_hz" json:"mains_hz"`
}

// MaxScore is the highest score the weighted rules can award.
const MaxScore = 6

// DefaultThresholds returns the calibrated default configuration.
//
// EnergyFloor is expressed in Parseval-consistent units (time-domain Σx² over the
// segment, samples in [-1, 1]). 0.0125 over one second at 16 kHz is an RMS of
// roughly -61 dBFS.
func DefaultThresholds() *Thresholds {
	return &Thresholds{
		SampleRate:         RequiredSampleRate,
		SegmentSeconds:     1.0,
		MinTrailingSeconds: 0.2,

		FilterLowHz:  300,
		FilterHighHz: 1500,
		FilterOrder:  4,

		Window: WindowRectangular,

		PitchSearchMinHz: 75,
		PitchSearchMaxHz: 500,

		VoiceBandLowHz:  300,
		VoiceBandHighHz: 3400,

		SmoothingWindow: 3,

		EnergyFloor:     0.0125,
		FlatnessCeiling: 0.4,
		PitchMinHz:      75,
		PitchMaxHz:      500,
		VoicingFloor:    0.25,
		VoiceBandFloor:  -0.35,
		ScoreThreshold:  4,

		LabelVoteWindow: 0,
		MainsHz:         0,
	}
}

// Clone returns an independent copy, so callers can derive per-run overrides
// without touching a shared value.
func (th *Thresholds) Clone() *Thresholds {
	c := *th
	return &c
}

// SegmentSamples returns the nominal number of samples per segment.
func (th *Thresholds) SegmentSamples() int {
	return int(math.Round(th.SegmentSeconds * float64(th.SampleRate)))
}

// Validate checks the thresholds for internal consistency.
func (th *Thresholds) Validate() error {
	nyquist := float64(th.SampleRate) / 2

	switch {
	case th.SampleRate != RequiredSampleRate:
		return fmt.Errorf("%w: sample_rate %d Hz, only %d Hz is supported", ErrInvalidThresholds, th.SampleRate, RequiredSampleRate)
	case th.SegmentSeconds <= 0 || isBad(th.SegmentSeconds):
		return fmt.Errorf("%w: segment_seconds must be positive, got %v", ErrInvalidThresholds, th.SegmentSeconds)
	case th.MinTrailingSeconds < 0 || th.MinTrailingSeconds > th.SegmentSeconds:
		return fmt.Errorf("%w: min_trailing_seconds must be within [0, %v], got %v", ErrInvalidThresholds, th.SegmentSeconds, th.MinTrailingSeconds)
	case th.FilterLowHz <= 0 || th.FilterHighHz <= th.FilterLowHz || th.FilterHighHz >= nyquist:
		return fmt.Errorf("%w: filter band %v-%v Hz must satisfy 0 < low < high < %v", ErrInvalidThresholds, th.FilterLowHz, th.FilterHighHz, nyquist)
	case th.FilterOrder < 1 || th.FilterOrder > 10:
		return fmt.Errorf("%w: filter_order must be within [1, 10], got %d", ErrInvalidThresholds, th.FilterOrder)
	case th.Window != WindowRectangular && th.Window != WindowHann:
		return fmt.Errorf("%w: unknown window %q", ErrInvalidThresholds, th.Window)
	case th.PitchSearchMinHz <= 0 || th.PitchSearchMaxHz <= th.PitchSearchMinHz || th.PitchSearchMaxHz >= nyquist:
		return fmt.Errorf("%w: pitch search range %v-%v Hz is invalid", ErrInvalidThresholds, th.PitchSearchMinHz, th.PitchSearchMaxHz)
	case th.VoiceBandLowHz < 0 || th.VoiceBandHighHz <= th.VoiceBandLowHz:
		return fmt.Errorf("%w: voice band %v-%v Hz is invalid", ErrInvalidThresholds, th.VoiceBandLowHz, th.VoiceBandHighHz)
	case th.SmoothingWindow < 1:
		return fmt.Errorf("%w: smoothing_window must be at least 1, got %d", ErrInvalidThresholds, th.SmoothingWindow)
	case th.EnergyFloor < 0 || isBad(th.EnergyFloor):
		return fmt.Errorf("%w: energy_floor must be non-negative, got %v", ErrInvalidThresholds, th.EnergyFloor)
	case th.PitchMaxHz < th.PitchMinHz:
		return fmt.Errorf("%w: pitch range %v-%v Hz is inverted", ErrInvalidThresholds, th.PitchMinHz, th.PitchMaxHz)
	case th.ScoreThreshold < 0 || th.ScoreThreshold > MaxScore:
		return fmt.Errorf("%w: score_threshold must be within [0, %d], got %d", ErrInvalidThresholds, MaxScore, th.ScoreThreshold)
	case th.LabelVoteWindow < 0:
		return fmt.Errorf("%w: label_vote_window must be non-negative, got %d", ErrInvalidThresholds, th.LabelVoteWindow)
	case th.MainsHz < 0 || th.MainsHz >= nyquist:
		return fmt.Errorf("%w: mains_hz %v is out of range", ErrInvalidThresholds, th.MainsHz)
	}
	return nil
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
