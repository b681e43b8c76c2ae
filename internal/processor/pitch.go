package processor

import "math"

// UnvoicedPitch is reported as PitchHz when no analysed frame is voiced.
const UnvoicedPitch = 0.0

// PitchEstimate summarises the pitch track of one segment.
type PitchEstimate struct {
	PitchHz      float64 // mean pitch of voiced frames, UnvoicedPitch if none
	Voicing      float64 // voiced frames / analysed frames, in [0, 1]
	HNR          float64 // mean harmonics-to-noise ratio of voiced frames (dB)
	Frames       int
	VoicedFrames int
}

// PitchEstimator is anything that can produce a pitch track summary for a segment.
type PitchEstimator interface {
	EstimatePitch(samples []float64, sampleRate int) PitchEstimate
}

// AutocorrelationPitch is a frame-based normalised autocorrelation pitch tracker.
type AutocorrelationPitch struct {
	MinHz float64
	MaxHz float64

	PeriodsPerFrame  float64 // frame length in periods of MinHz
	HopSeconds       float64
	VoicingThreshold float64 // minimum correlation for a voiced frame
	SilenceThreshold float64 // frame peak below this fraction of segment peak is silent
	OctaveTolerance  float64 // smallest-lag peak within this fraction of the best wins
}

// absoluteSilence is the frame peak under which a frame is never voiced (about -100 dBFS).
const absoluteSilence = 1e-5

// NewAutocorrelationPitch returns a tracker searching minHz..maxHz with the
// default framing and decision constants.
func NewAutocorrelationPitch(minHz, maxHz float64) *AutocorrelationPitch {
	return &AutocorrelationPitch{
		MinHz:            minHz,
		MaxHz:            maxHz,
		PeriodsPerFrame:  3,
		HopSeconds:       0.010,
		VoicingThreshold: 0.45,
		SilenceThreshold: 0.03,
		OctaveTolerance:  0.9,
	}
}

// EstimatePitch tracks pitch across overlapping frames of samples.
func (p *AutocorrelationPitch) EstimatePitch(samples []float64, sampleRate int) PitchEstimate {
	var est PitchEstimate
	if sampleRate <= 0 || p.MinHz <= 0 || p.MaxHz <= p.MinHz {
		return est
	}
	rate := float64(sampleRate)

	frameLen := int(math.Round(p.PeriodsPerFrame * rate / p.MinHz))
	hop := int(math.Round(p.HopSeconds * rate))
	minLag := int(math.Floor(rate / p.MaxHz))
	maxLag := int(math.Ceil(rate / p.MinHz))
	if minLag < 2 {
		minLag = 2
	}
	if hop < 1 {
		hop = 1
	}
	if maxLag+1 >= frameLen || len(samples) < frameLen {
		return est
	}

	var segPeak float64
	for _, v := range samples {
		segPeak = math.Max(segPeak, math.Abs(v))
	}
	silence := math.Max(p.SilenceThreshold*segPeak, absoluteSilence)

	frame := make([]float64, frameLen)
	corr := make([]float64, maxLag+2)
	var pitchSum, hnrSum float64

	for start := 0; start+frameLen <= len(samples); start += hop {
		est.Frames++

		var mean, peak float64
		for _, v := range samples[start : start+frameLen] {
			mean += v
			peak = math.Max(peak, math.Abs(v))
		}
		if peak < silence {
			continue
		}
		mean /= float64(frameLen)
		for i, v := range samples[start : start+frameLen] {
			frame[i] = v - mean
		}

		lag, r, ok := p.bestLag(frame, corr, minLag, maxLag)
		if !ok {
			continue
		}

		est.VoicedFrames++
		pitchSum += rate / lag
		r = math.Min(math.Max(r, 1e-6), 1-1e-6)
		hnrSum += 10 * math.Log10(r/(1-r))
	}

	if est.Frames > 0 {
		est.Voicing = float64(est.VoicedFrames) / float64(est.Frames)
	}
	if est.VoicedFrames > 0 {
		est.PitchHz = pitchSum / float64(est.VoicedFrames)
		est.HNR = hnrSum / float64(est.VoicedFrames)
	}
	return est
}

// bestLag fills corr with the normalised autocorrelation of frame for lags
// minLag-1..maxLag+1 and returns the interpolated period in samples.
func (p *AutocorrelationPitch) bestLag(frame, corr []float64, minLag, maxLag int) (float64, float64, bool) {
	for lag := minLag - 1; lag <= maxLag+1; lag++ {
		corr[lag] = normalisedCorrelation(frame, lag)
	}

	best := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		best = math.Max(best, corr[lag])
	}
	if best < p.VoicingThreshold {
		return 0, 0, false
	}

	// Prefer the shortest period among near-best peaks to avoid octave errors
	for lag := minLag; lag <= maxLag; lag++ {
		r := corr[lag]
		if r < p.OctaveTolerance*best || r < corr[lag-1] || r < corr[lag+1] {
			continue
		}
		return float64(lag) + parabolicOffset(corr[lag-1], r, corr[lag+1]), r, true
	}
	return 0, 0, false
}

// normalisedCorrelation returns the correlation coefficient between frame and
// itself shifted by lag, in [-1, 1].
func normalisedCorrelation(frame []float64, lag int) float64 {
	var xy, xx, yy float64
	for i := 0; i+lag < len(frame); i++ {
		a, b := frame[i], frame[i+lag]
		xy += a * b
		xx += a * a
		yy += b * b
	}
	if xx == 0 || yy == 0 {
		return 0
	}
	return xy / math.Sqrt(xx*yy)
}

// parabolicOffset returns the sub-sample vertex offset of the parabola through
// three equally spaced points, limited to half a sample.
func parabolicOffset(left, centre, right float64) float64 {
	d := left - 2*centre + right
	if d == 0 {
		return 0
	}
	off := 0.5 * (left - right) / d
	return math.Max(-0.5, math.Min(0.5, off))
}
