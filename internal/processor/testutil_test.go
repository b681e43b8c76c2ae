package processor

import (
	"math"
	"math/rand"
	"testing"
)

// TestSignalOptions configures a synthetic mono signal at 16 kHz
type TestSignalOptions struct {
	DurationSecs float64   // Total duration in seconds (default: 1.0)
	Harmonics    []float64 // Sine frequencies in Hz, equal amplitude (nil = no tone)
	ToneEnergy   float64   // Σx² of the tonal part over the whole signal
	NoiseEnergy  float64   // Σx² of the Gaussian noise part (0 = no noise)
	Seed         int64     // Noise seed (default: 12345)
}

// generateTestSignal builds a deterministic signal with exactly the requested
// tonal and noise energies, so tests can place features relative to thresholds.
func generateTestSignal(t *testing.T, opts TestSignalOptions) []float64 {
	t.Helper()

	if opts.DurationSecs == 0 {
		opts.DurationSecs = 1.0
	}
	if opts.Seed == 0 {
		opts.Seed = 12345
	}
	n := int(math.Round(opts.DurationSecs * RequiredSampleRate))

	out := make([]float64, n)
	if len(opts.Harmonics) > 0 && opts.ToneEnergy > 0 {
		addScaled(out, harmonicTone(opts.Harmonics, n), opts.ToneEnergy)
	}
	if opts.NoiseEnergy > 0 {
		addScaled(out, gaussianNoise(n, opts.Seed), opts.NoiseEnergy)
	}

	for i, v := range out {
		if v > 1 || v < -1 {
			t.Fatalf("test signal clips at sample %d (%.3f)", i, v)
		}
	}
	return out
}

func harmonicTone(freqs []float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		tm := float64(i) / RequiredSampleRate
		for _, f := range freqs {
			x[i] += math.Sin(2 * math.Pi * f * tm)
		}
	}
	return x
}

func gaussianNoise(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	return x
}

// addScaled adds src to dst after scaling src to the given sum of squares
func addScaled(dst, src []float64, energy float64) {
	var sum float64
	for _, v := range src {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	k := math.Sqrt(energy / sum)
	for i, v := range src {
		dst[i] += k * v
	}
}

func sumSquares(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v * v
	}
	return s
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func monoBuffer(samples []float64) Buffer {
	return Buffer{Samples: samples, SampleRate: RequiredSampleRate, Channels: 1}
}

// newTestThresholds returns an isolated copy of the defaults so tests do not
// break when application defaults change
func newTestThresholds() *Thresholds {
	return DefaultThresholds().Clone()
}

func newTestTools(t *testing.T, th *Thresholds) *FeatureTools {
	t.Helper()
	tools, err := NewFeatureTools(th)
	if err != nil {
		t.Fatalf("NewFeatureTools failed: %v", err)
	}
	return tools
}
