package processor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThresholdsAreValid(t *testing.T) {
	th := DefaultThresholds()
	require.NoError(t, th.Validate())
	assert.Equal(t, 16000, th.SegmentSamples())
	assert.Equal(t, WindowRectangular, th.Window)
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(th *Thresholds)
	}{
		{"sample rate", func(th *Thresholds) { th.SampleRate = 44100 }},
		{"zero segment", func(th *Thresholds) { th.SegmentSeconds = 0 }},
		{"NaN segment", func(th *Thresholds) { th.SegmentSeconds = math.NaN() }},
		{"trailing longer than segment", func(th *Thresholds) { th.MinTrailingSeconds = 2 }},
		{"filter inverted", func(th *Thresholds) { th.FilterLowHz, th.FilterHighHz = 1500, 300 }},
		{"filter above nyquist", func(th *Thresholds) { th.FilterHighHz = 8000 }},
		{"filter order", func(th *Thresholds) { th.FilterOrder = 0 }},
		{"unknown window", func(th *Thresholds) { th.Window = "blackman" }},
		{"pitch search", func(th *Thresholds) { th.PitchSearchMinHz = 0 }},
		{"voice band", func(th *Thresholds) { th.VoiceBandHighHz = 100 }},
		{"smoothing window", func(th *Thresholds) { th.SmoothingWindow = 0 }},
		{"negative energy floor", func(th *Thresholds) { th.EnergyFloor = -1 }},
		{"pitch range", func(th *Thresholds) { th.PitchMinHz = 600 }},
		{"score threshold", func(th *Thresholds) { th.ScoreThreshold = 7 }},
		{"label vote", func(th *Thresholds) { th.LabelVoteWindow = -1 }},
		{"mains", func(th *Thresholds) { th.MainsHz = -50 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestThresholds()
			tt.mutate(th)
			err := th.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidThresholds), "got %v", err)
		})
	}
}

func TestThresholdsClone(t *testing.T) {
	th := DefaultThresholds()
	c := th.Clone()
	c.EnergyFloor = 42

	assert.Equal(t, 0.0125, th.EnergyFloor)
	assert.Equal(t, 42.0, c.EnergyFloor)
}
