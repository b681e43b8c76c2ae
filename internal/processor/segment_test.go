package processor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentBuffer(t *testing.T) {
	th := newTestThresholds()

	tests := []struct {
		name        string
		samples     int
		wantCount   int
		wantLastEnd float64
	}{
		{"exact multiple", 3 * 16000, 3, 3.0},
		{"single segment", 16000, 1, 1.0},
		{"remainder 0.19s discarded", 2*16000 + 3040, 2, 2.0},
		{"remainder 0.20s kept", 2*16000 + 3200, 3, 2.2},
		{"remainder 0.21s kept", 2*16000 + 3360, 3, 2.21},
		{"only a short remainder", 3360, 1, 0.21},
		{"shorter than minimum", 1000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := SegmentBuffer(monoBuffer(make([]float64, tt.samples)), th)
			require.NoError(t, err)
			require.Len(t, segs, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}

			last := segs[len(segs)-1]
			assert.InDelta(t, tt.wantLastEnd, last.EndTime, 1e-9)
			for i, s := range segs {
				assert.Equal(t, i, s.Index)
				assert.InDelta(t, float64(i)*th.SegmentSeconds, s.StartTime, 1e-9)
				if i < len(segs)-1 {
					assert.Len(t, s.Samples, th.SegmentSamples())
				}
			}
		})
	}
}

func TestSegmentBufferTrailingFloorIsAbsolute(t *testing.T) {
	th := newTestThresholds()
	th.SegmentSeconds = 0.5

	tests := []struct {
		name      string
		samples   int
		wantCount int
	}{
		// 0.15 s is above 0.2·D = 0.1 s but below the 0.2 s floor
		{"remainder 0.15s discarded", 2*8000 + 2400, 2},
		{"remainder 0.20s kept", 2*8000 + 3200, 3},
		{"remainder 0.25s kept", 2*8000 + 4000, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := SegmentBuffer(monoBuffer(make([]float64, tt.samples)), th)
			require.NoError(t, err)
			assert.Len(t, segs, tt.wantCount)
		})
	}
}

func TestSegmentBufferCoversInput(t *testing.T) {
	th := newTestThresholds()
	samples := make([]float64, 5*16000)
	for i := range samples {
		samples[i] = float64(i)
	}

	segs, err := SegmentBuffer(monoBuffer(samples), th)
	require.NoError(t, err)
	require.Len(t, segs, 5)

	next := 0
	for _, s := range segs {
		assert.Equal(t, float64(next), s.Samples[0], "segment %d starts where the previous ended", s.Index)
		next += len(s.Samples)
	}
	assert.Equal(t, len(samples), next)
}

func TestSegmentBufferRejectsInvalidInput(t *testing.T) {
	th := newTestThresholds()

	tests := []struct {
		name string
		buf  Buffer
	}{
		{"wrong sample rate", Buffer{Samples: make([]float64, 44100), SampleRate: 44100, Channels: 1}},
		{"stereo", Buffer{Samples: make([]float64, 32000), SampleRate: 16000, Channels: 2}},
		{"empty", Buffer{SampleRate: 16000, Channels: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SegmentBuffer(tt.buf, th)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}
