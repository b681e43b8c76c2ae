package processor

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Spectrum is the one-sided magnitude spectrum of a real signal.
// Magnitudes holds bins 0..N/2; bin k sits at k*SampleRate/N Hz.
type Spectrum struct {
	Magnitudes []float64
	N          int // length of the transformed signal
	SampleRate int
}

// BinHz returns the frequency spacing between bins.
func (s *Spectrum) BinHz() float64 {
	if s.N == 0 {
		return 0
	}
	return float64(s.SampleRate) / float64(s.N)
}

// Frequency returns the centre frequency of bin k in Hz.
func (s *Spectrum) Frequency(k int) float64 {
	return float64(k) * s.BinHz()
}

// binWeight is the one-sided Parseval weight: interior bins stand in for their
// negative-frequency mirror, DC and Nyquist do not.
func (s *Spectrum) binWeight(k int) float64 {
	if k == 0 || (s.N%2 == 0 && k == s.N/2) {
		return 1
	}
	return 2
}

// Energy returns the Parseval-scaled energy of the whole spectrum.
// For a rectangular window it equals the time-domain sum of squares.
func (s *Spectrum) Energy() float64 {
	return s.BandEnergy(0, math.Inf(1))
}

// BandEnergy returns the Parseval-scaled energy of bins whose centre lies in
// [lowHz, highHz].
func (s *Spectrum) BandEnergy(lowHz, highHz float64) float64 {
	if s.N == 0 {
		return 0
	}
	binHz := s.BinHz()
	var sum float64
	for k, m := range s.Magnitudes {
		f := float64(k) * binHz
		if f < lowHz || f > highHz {
			continue
		}
		sum += s.binWeight(k) * m * m
	}
	return sum / float64(s.N)
}

// SpectralAnalyzer computes real FFT magnitude spectra, caching one FFT plan and
// window per signal length. It is not safe for concurrent use.
type SpectralAnalyzer struct {
	sampleRate int
	window     WindowFunc

	plans   map[int]*fourier.FFT
	windows map[int][]float64
	coeffs  []complex128
	scratch []float64
}

// NewSpectralAnalyzer creates an analyzer for the given sample rate and window.
func NewSpectralAnalyzer(sampleRate int, window WindowFunc) *SpectralAnalyzer {
	if window == "" {
		window = WindowRectangular
	}
	return &SpectralAnalyzer{
		sampleRate: sampleRate,
		window:     window,
		plans:      make(map[int]*fourier.FFT),
		windows:    make(map[int][]float64),
	}
}

// Analyze returns the magnitude spectrum of samples. samples is not modified.
func (a *SpectralAnalyzer) Analyze(samples []float64) *Spectrum {
	n := len(samples)
	spec := &Spectrum{N: n, SampleRate: a.sampleRate}
	if n == 0 {
		return spec
	}

	fft, ok := a.plans[n]
	if !ok {
		fft = fourier.NewFFT(n)
		a.plans[n] = fft
	}

	input := samples
	if w := a.windowFor(n); w != nil {
		if cap(a.scratch) < n {
			a.scratch = make([]float64, n)
		}
		a.scratch = a.scratch[:n]
		for i, v := range samples {
			a.scratch[i] = v * w[i]
		}
		input = a.scratch
	}

	bins := n/2 + 1
	if cap(a.coeffs) < bins {
		a.coeffs = make([]complex128, bins)
	}
	a.coeffs = fft.Coefficients(a.coeffs[:bins], input)

	spec.Magnitudes = make([]float64, len(a.coeffs))
	for k, c := range a.coeffs {
		spec.Magnitudes[k] = cmplx.Abs(c)
	}
	return spec
}

// windowFor returns the taper for length n, or nil for a rectangular window.
// The Hann taper is rescaled to unit power so energies stay comparable.
func (a *SpectralAnalyzer) windowFor(n int) []float64 {
	if a.window != WindowHann || n < 2 {
		return nil
	}
	if w, ok := a.windows[n]; ok {
		return w
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	window.Hann(w)

	var power float64
	for _, v := range w {
		power += v * v
	}
	norm := math.Sqrt(float64(n) / power)
	for i := range w {
		w[i] *= norm
	}
	a.windows[n] = w
	return w
}
