package processor

import (
	"math"
)

// epsilon floors every logarithm and ratio in the feature math.
const epsilon = 1e-10

// VoiceBandSentinel is the voice-band ratio reported when a segment could not be
// filtered. It equals the lowest value the clamped ratio can take.
const VoiceBandSentinel = -10.0

// silenceDBFS is reported as the level of an all-zero signal.
const silenceDBFS = -120.0

// FeatureVector holds the five scored features of one segment.
type FeatureVector struct {
	TotalEnergy        float64 `json:"total_energy"`         // Σx² via Parseval, samples in [-1, 1]
	Flatness           float64 `json:"flatness"`             // spectral flatness in [0, 1]
	PitchHz            float64 `json:"pitch_hz"`             // mean voiced pitch, UnvoicedPitch when none
	VoicingProbability float64 `json:"voicing_probability"`  // voiced frame fraction in [0, 1]
	VoiceBandRatioLog  float64 `json:"voice_band_ratio_log"` // log10 of filtered band energy over raw energy
}

// Diagnostics are per-segment measurements that are reported but never scored
// or smoothed.
type Diagnostics struct {
	HNR       float64 `json:"hnr_db"`          // mean HNR of voiced frames
	RMSLevel  float64 `json:"rms_level_dbfs"`  // segment RMS
	PeakLevel float64 `json:"peak_level_dbfs"` // segment sample peak
	HumRatio  float64 `json:"hum_ratio"`       // share of raw energy at mains harmonics, 0 when not measured
}

// FeatureTools bundles the reusable analysis state for one run. Build it once
// with NewFeatureTools; it is not safe for concurrent use.
type FeatureTools struct {
	Filter   *Bandpass
	Analyzer *SpectralAnalyzer
	Pitch    PitchEstimator
}

// NewFeatureTools designs the bandpass filter and prepares the analyzer and the
// default pitch tracker for th.
func NewFeatureTools(th *Thresholds) (*FeatureTools, error) {
	bp, err := DesignBandpass(th.FilterLowHz, th.FilterHighHz, th.FilterOrder, th.SampleRate)
	if err != nil {
		return nil, err
	}
	return &FeatureTools{
		Filter:   bp,
		Analyzer: NewSpectralAnalyzer(th.SampleRate, th.Window),
		Pitch:    NewAutocorrelationPitch(th.PitchSearchMinHz, th.PitchSearchMaxHz),
	}, nil
}

// ExtractFeatures computes the feature vector and diagnostics of one segment.
// The segment samples are only read. When the segment is too short to filter the
// error wraps ErrFilterUnstable and the returned vector carries every feature
// that does not depend on the filter, with VoiceBandRatioLog at VoiceBandSentinel.
func ExtractFeatures(seg Segment, th *Thresholds, tools *FeatureTools) (FeatureVector, Diagnostics, error) {
	raw := tools.Analyzer.Analyze(seg.Samples)
	rawEnergy := raw.Energy()

	fv := FeatureVector{
		TotalEnergy: rawEnergy,
		Flatness:    spectralFlatness(raw.Magnitudes),
	}

	pe := tools.Pitch.EstimatePitch(seg.Samples, th.SampleRate)
	fv.PitchHz = pe.PitchHz
	fv.VoicingProbability = pe.Voicing

	diag := Diagnostics{
		HNR:       pe.HNR,
		RMSLevel:  rmsDBFS(seg.Samples),
		PeakLevel: peakDBFS(seg.Samples),
		HumRatio:  humRatio(raw, rawEnergy, th.MainsHz),
	}

	filtered, err := tools.Filter.FilterZeroPhase(seg.Samples)
	if err != nil {
		fv.VoiceBandRatioLog = VoiceBandSentinel
		return fv, diag, err
	}
	bandEnergy := tools.Analyzer.Analyze(filtered).BandEnergy(th.VoiceBandLowHz, th.VoiceBandHighHz)
	fv.VoiceBandRatioLog = voiceBandRatioLog(bandEnergy, rawEnergy)

	return fv, diag, nil
}

// spectralFlatness is the ratio of the geometric to the arithmetic mean of the
// magnitudes. An all-zero spectrum has flatness 0.
func spectralFlatness(mags []float64) float64 {
	if len(mags) == 0 {
		return 0
	}
	var logSum, sum float64
	for _, m := range mags {
		logSum += math.Log(m + epsilon)
		sum += m
	}
	n := float64(len(mags))
	if sum/n < epsilon {
		return 0
	}
	flatness := math.Exp(logSum/n) / (sum/n + epsilon)
	return clamp(flatness, 0, 1)
}

// voiceBandRatioLog returns log10 of the band-to-total energy ratio, clamped so
// the result lies in [-10, 0]. Silence maps to 0.
func voiceBandRatioLog(band, total float64) float64 {
	ratio := (band + epsilon) / (total + epsilon)
	return math.Log10(clamp(ratio, epsilon, 1))
}

// humRatio returns the share of energy in the bins nearest the first four mains
// harmonics.
func humRatio(spec *Spectrum, total, mainsHz float64) float64 {
	if mainsHz <= 0 || total < epsilon || spec.N == 0 {
		return 0
	}
	binHz := spec.BinHz()
	var hum float64
	for h := 1; h <= 4; h++ {
		f := mainsHz * float64(h)
		hum += spec.BandEnergy(f-binHz, f+binHz)
	}
	return clamp(hum/total, 0, 1)
}

func rmsDBFS(x []float64) float64 {
	if len(x) == 0 {
		return silenceDBFS
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return toDBFS(math.Sqrt(sum / float64(len(x))))
}

func peakDBFS(x []float64) float64 {
	var peak float64
	for _, v := range x {
		peak = math.Max(peak, math.Abs(v))
	}
	return toDBFS(peak)
}

func toDBFS(v float64) float64 {
	if v <= 0 {
		return silenceDBFS
	}
	return math.Max(20*math.Log10(v), silenceDBFS)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
