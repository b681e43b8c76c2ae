package processor

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// biquad is one second-order section in transposed direct form II.
// Coefficients are normalised so a0 == 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Bandpass is a digital Butterworth bandpass realised as cascaded second-order
// sections. A prototype of order N yields N sections (2N poles), matching the
// classic butter(N, [low, high], 'band') design.
type Bandpass struct {
	LowHz      float64
	HighHz     float64
	Order      int
	SampleRate int

	sections []biquad
	zi       [][2]float64 // per-section step-response steady state
}

// DesignBandpass designs a Butterworth bandpass with -3 dB edges at lowHz and highHz.
//
// Design path: analog Butterworth prototype, low-pass to band-pass transform around
// the pre-warped edges, bilinear transform to the z-plane, then pole pairing into
// sections. Each section carries one zero at z=+1 and one at z=-1.
func DesignBandpass(lowHz, highHz float64, order int, sampleRate int) (*Bandpass, error) {
	fs := float64(sampleRate)
	nyquist := fs / 2
	if order < 1 {
		return nil, fmt.Errorf("bandpass order must be positive, got %d", order)
	}
	if lowHz <= 0 || highHz <= lowHz || highHz >= nyquist {
		return nil, fmt.Errorf("bandpass edges %.1f-%.1f Hz invalid for %d Hz sample rate", lowHz, highHz, sampleRate)
	}

	// Pre-warp the edges so the digital -3 dB points land exactly on lowHz/highHz
	fs2 := 2 * fs
	wl := fs2 * math.Tan(math.Pi*lowHz/fs)
	wh := fs2 * math.Tan(math.Pi*highHz/fs)
	bw := wh - wl
	wo2 := wl * wh

	// Analog prototype poles on the unit circle, left half-plane
	var analog []complex128
	for m := -order + 1; m < order; m += 2 {
		p := -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order)))

		// Low-pass to band-pass: each prototype pole becomes two
		pl := p * complex(bw/2, 0)
		d := cmplx.Sqrt(pl*pl - complex(wo2, 0))
		analog = append(analog, pl+d, pl-d)
	}

	// Bilinear transform; the N analog zeros at s=0 map to z=+1 and the N zeros at
	// infinity map to z=-1
	digital := make([]complex128, len(analog))
	den := complex(1, 0)
	for i, p := range analog {
		digital[i] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		den *= complex(fs2, 0) - p
	}
	gain := math.Pow(bw*fs2, float64(order)) / real(den)

	sections, err := pairPoles(digital, order)
	if err != nil {
		return nil, err
	}

	// Spread the gain evenly across sections to keep intermediate values well scaled
	g := math.Pow(math.Abs(gain), 1/float64(len(sections)))
	if gain < 0 {
		sections[0].b0, sections[0].b2 = -sections[0].b0, -sections[0].b2
	}
	for i := range sections {
		sections[i].b0 *= g
		sections[i].b2 *= g
	}

	bp := &Bandpass{
		LowHz:      lowHz,
		HighHz:     highHz,
		Order:      order,
		SampleRate: sampleRate,
		sections:   sections,
	}
	bp.zi = bp.steadyState()
	return bp, nil
}

// pairPoles groups z-plane poles into conjugate pairs (or pairs of real poles)
// and returns one section per pair with numerator (z-1)(z+1).
func pairPoles(poles []complex128, order int) ([]biquad, error) {
	const eps = 1e-12

	var upper []complex128
	var reals []float64
	for _, p := range poles {
		switch {
		case imag(p) > eps:
			upper = append(upper, p)
		case math.Abs(imag(p)) <= eps:
			reals = append(reals, real(p))
		}
	}
	if len(reals)%2 != 0 || len(upper)+len(reals)/2 != order {
		return nil, fmt.Errorf("bandpass design produced %d complex and %d real poles for order %d", len(upper), len(reals), order)
	}

	// Poles closest to the unit circle last, so the sharpest resonance sees
	// already band-limited input
	sort.Slice(upper, func(i, j int) bool { return cmplx.Abs(upper[i]) < cmplx.Abs(upper[j]) })
	sort.Float64s(reals)

	sections := make([]biquad, 0, order)
	for i := 0; i+1 < len(reals); i += 2 {
		sections = append(sections, biquad{
			b0: 1, b1: 0, b2: -1,
			a1: -(reals[i] + reals[i+1]),
			a2: reals[i] * reals[i+1],
		})
	}
	for _, p := range upper {
		sections = append(sections, biquad{
			b0: 1, b1: 0, b2: -1,
			a1: -2 * real(p),
			a2: real(p)*real(p) + imag(p)*imag(p),
		})
	}
	return sections, nil
}

// steadyState returns per-section initial conditions that match the steady state
// of a unit step, scaled by the DC gain of the preceding sections.
func (bp *Bandpass) steadyState() [][2]float64 {
	zi := make([][2]float64, len(bp.sections))
	scale := 1.0
	for i, s := range bp.sections {
		y := (s.b0 + s.b1 + s.b2) / (1 + s.a1 + s.a2)
		zi[i][0] = scale * (y - s.b0)
		zi[i][1] = scale * (s.b2 - s.a2*y)
		scale *= y
	}
	return zi
}

// PadLength is the number of samples reflected onto each edge before zero-phase
// filtering. Signals must be strictly longer than this.
func (bp *Bandpass) PadLength() int {
	return 3 * (2*len(bp.sections) + 1)
}

// Response returns the single-pass magnitude response at freqHz.
func (bp *Bandpass) Response(freqHz float64) float64 {
	w := 2 * math.Pi * freqHz / float64(bp.SampleRate)
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	h := complex(1, 0)
	for _, s := range bp.sections {
		num := complex(s.b0, 0) + complex(s.b1, 0)*z1 + complex(s.b2, 0)*z2
		den := 1 + complex(s.a1, 0)*z1 + complex(s.a2, 0)*z2
		h *= num / den
	}
	return cmplx.Abs(h)
}

// FilterZeroPhase filters x forward and backward so the result has no phase shift
// and a squared magnitude response. x is not modified.
func (bp *Bandpass) FilterZeroPhase(x []float64) ([]float64, error) {
	pad := bp.PadLength()
	n := len(x)
	if n <= pad {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrFilterUnstable, n, pad)
	}

	// Odd extension keeps the signal and its slope continuous at both edges
	ext := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		ext[i] = 2*x[0] - x[pad-i]
		ext[n+pad+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[pad:], x)

	bp.cascade(ext, ext[0])
	reverse(ext)
	bp.cascade(ext, ext[0])
	reverse(ext)

	out := make([]float64, n)
	copy(out, ext[pad:pad+n])
	return out, nil
}

// cascade runs every section over x in place, seeding each with its steady
// state for a constant input of x0.
func (bp *Bandpass) cascade(x []float64, x0 float64) {
	for i, s := range bp.sections {
		z1 := bp.zi[i][0] * x0
		z2 := bp.zi[i][1] * x0
		for j, v := range x {
			y := s.b0*v + z1
			z1 = s.b1*v - s.a1*y + z2
			z2 = s.b2*v - s.a2*y
			x[j] = y
		}
	}
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
