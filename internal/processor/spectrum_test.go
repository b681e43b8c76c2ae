package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumEnergyMatchesTimeDomain(t *testing.T) {
	a := NewSpectralAnalyzer(16000, WindowRectangular)

	tests := []struct {
		name string
		x    []float64
	}{
		{"noise even length", gaussianNoise(16000, 7)},
		{"noise odd length", gaussianNoise(3201, 9)},
		{"tone", harmonicTone([]float64{440, 1000}, 8000)},
		{"dc offset", func() []float64 {
			x := make([]float64, 1000)
			for i := range x {
				x[i] = 0.25
			}
			return x
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := sumSquares(tt.x)
			got := a.Analyze(tt.x).Energy()
			assert.InEpsilon(t, want, got, 1e-9)
		})
	}
}

func TestSpectrumBins(t *testing.T) {
	a := NewSpectralAnalyzer(16000, WindowRectangular)
	s := a.Analyze(harmonicTone([]float64{1000}, 16000))

	assert.Len(t, s.Magnitudes, 8001)
	assert.Equal(t, 1.0, s.BinHz())
	assert.Equal(t, 1000.0, s.Frequency(1000))

	// All energy of the tone sits in its band
	total := s.Energy()
	assert.InEpsilon(t, total, s.BandEnergy(990, 1010), 1e-9)
	assert.InDelta(t, 0, s.BandEnergy(0, 900), total*1e-12)
}

func TestSpectrumHannWindowKeepsPower(t *testing.T) {
	x := gaussianNoise(16000, 3)
	rect := NewSpectralAnalyzer(16000, WindowRectangular).Analyze(x).Energy()
	hann := NewSpectralAnalyzer(16000, WindowHann).Analyze(x).Energy()
	assert.InEpsilon(t, rect, hann, 0.05)
}

func TestHannWindowShape(t *testing.T) {
	a := NewSpectralAnalyzer(16000, WindowHann)
	w := a.windowFor(512)
	require.Len(t, w, 512)

	var power float64
	for _, v := range w {
		power += v * v
	}
	assert.InDelta(t, 512, power, 1e-9, "taper is rescaled to unit power")
	assert.InDelta(t, 0, w[0], 1e-12)
	assert.InDelta(t, 0, w[511], 1e-12)
	for i := 0; i < 256; i++ {
		assert.InDelta(t, w[i], w[511-i], 1e-12, "taper is symmetric at %d", i)
	}
	assert.Greater(t, w[255], w[100])

	assert.Nil(t, NewSpectralAnalyzer(16000, WindowRectangular).windowFor(512))
}

func TestSpectralAnalyzerReusesPlans(t *testing.T) {
	a := NewSpectralAnalyzer(16000, WindowHann)
	a.Analyze(make([]float64, 512))
	a.Analyze(make([]float64, 512))
	a.Analyze(make([]float64, 300))

	assert.Len(t, a.plans, 2)
	assert.Len(t, a.windows, 2)
	assert.Empty(t, a.Analyze(nil).Magnitudes)
}
