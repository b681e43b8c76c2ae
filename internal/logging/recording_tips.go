package logging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/linuxmatters/voicegate/internal/processor"
)

// RecordingTip represents a single piece of actionable recording advice
// derived from a classified recording.
type RecordingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 5

// RecordingProfile summarises the per-segment diagnostics of a result.
// Levels are dBFS; NaN marks a measurement that has no segments to draw on.
type RecordingProfile struct {
	VoiceSegments int
	NoiseSegments int

	VoiceRMS    float64 // power mean RMS of voice segments
	VoiceSpread float64 // standard deviation of voice segment RMS (dB)
	NoiseFloor  float64 // median RMS of noise segments
	PeakLevel   float64 // loudest sample peak over the recording
	HumRatio    float64 // mean hum ratio of noise segments, 0 when not measured
	Flatness    float64 // mean smoothed flatness of voice segments

	FilterFailures int
}

// SNR returns the voice-to-noise level gap, NaN when either side is unmeasured.
func (p *RecordingProfile) SNR() float64 {
	return p.VoiceRMS - p.NoiseFloor
}

// NewRecordingProfile aggregates the diagnostics of r.
func NewRecordingProfile(r *processor.Result) *RecordingProfile {
	p := &RecordingProfile{
		VoiceRMS:    math.NaN(),
		VoiceSpread: math.NaN(),
		NoiseFloor:  math.NaN(),
		PeakLevel:   math.Inf(-1),
		Flatness:    math.NaN(),
	}

	var voiceLevels, noiseLevels []float64
	var humSum, flatSum float64
	for _, s := range r.Segments {
		p.PeakLevel = math.Max(p.PeakLevel, s.Diagnostics.PeakLevel)
		if s.FilterFailed {
			p.FilterFailures++
			continue
		}
		if s.Label == processor.LabelVoice {
			voiceLevels = append(voiceLevels, s.Diagnostics.RMSLevel)
			flatSum += s.Smoothed.Flatness
		} else {
			noiseLevels = append(noiseLevels, s.Diagnostics.RMSLevel)
			humSum += s.Diagnostics.HumRatio
		}
	}

	p.VoiceSegments = len(voiceLevels)
	p.NoiseSegments = len(noiseLevels)
	if len(voiceLevels) > 0 {
		p.VoiceRMS = powerMeanDB(voiceLevels)
		p.VoiceSpread = stdDev(voiceLevels)
		p.Flatness = flatSum / float64(len(voiceLevels))
	}
	if len(noiseLevels) > 0 {
		p.NoiseFloor = median(noiseLevels)
		p.HumRatio = humSum / float64(len(noiseLevels))
	}
	return p
}

// GenerateRecordingTips analyses a classified recording and returns prioritised
// recording improvement suggestions.
func GenerateRecordingTips(r *processor.Result) []RecordingTip {
	if r == nil || len(r.Segments) == 0 {
		return nil
	}
	p := NewRecordingProfile(r)

	var tips []RecordingTip
	firedRules := make(map[string]bool)

	rules := []func(*RecordingProfile) *RecordingTip{
		tipNoVoice,
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipLevelQuiet,
		tipBackgroundNoise,
		tipMainsHum,
		tipTooFarFromMic,
		tipDynamicRange,
		tipPoorSNR,
		tipNoisyVoice,
	}

	for _, rule := range rules {
		if tip := rule(p); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, firedRules)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific tip
// has already fired. For example, "level_quiet" is suppressed when
// "too_far_from_mic" fires because the latter already implies the former.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "level_too_quiet", "level_quiet":
			if fired["level_clipping"] || fired["level_near_clipping"] || fired["too_far_from_mic"] {
				continue
			}
		case "poor_snr":
			if fired["too_far_from_mic"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipNoVoice fires when no segment was labelled voice.
func tipNoVoice(p *RecordingProfile) *RecordingTip {
	if p.VoiceSegments > 0 || p.NoiseSegments == 0 {
		return nil
	}
	return &RecordingTip{
		Priority: 10,
		RuleID:   "no_voice",
		Message:  "No speech was detected. Check that the right microphone is selected and not muted, then speak within a hand's width of it.",
	}
}

// tipLevelTooQuiet fires when voice segments average below -42 dBFS RMS.
// Gain target is -24 dBFS.
func tipLevelTooQuiet(p *RecordingProfile) *RecordingTip {
	if math.IsNaN(p.VoiceRMS) || p.VoiceRMS >= -42.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 10,
		RuleID:   "level_too_quiet",
		Message:  fmt.Sprintf("Your microphone gain is too low - try increasing it by about %.0f dB.", -24.0-p.VoiceRMS),
	}
}

// tipLevelQuiet fires when voice segments average between -42 and -36 dBFS RMS.
func tipLevelQuiet(p *RecordingProfile) *RecordingTip {
	if math.IsNaN(p.VoiceRMS) || p.VoiceRMS < -42.0 || p.VoiceRMS >= -36.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		RuleID:   "level_quiet",
		Message:  fmt.Sprintf("Your recording is a bit quiet - increasing your microphone gain by about %.0f dB would improve quality.", -24.0-p.VoiceRMS),
	}
}

// tipLevelTooHot fires when the sample peak reaches full scale (clipping) or
// comes within 1 dB of it.
func tipLevelTooHot(p *RecordingProfile) *RecordingTip {
	if p.PeakLevel <= -1.0 {
		return nil
	}
	if p.PeakLevel >= -0.1 {
		return &RecordingTip{
			Priority: 10,
			RuleID:   "level_clipping",
			Message:  "Your recording is clipping - turn your microphone gain down by 6-10 dB to prevent distortion.",
		}
	}
	return &RecordingTip{
		Priority: 9,
		RuleID:   "level_near_clipping",
		Message:  "Your recording is very close to clipping - turn your microphone gain down by 3-6 dB to give yourself some headroom.",
	}
}

// tipBackgroundNoise fires when the noise segments sit well above silence.
// -45 dBFS is loud enough to trip the energy gate on its own.
func tipBackgroundNoise(p *RecordingProfile) *RecordingTip {
	if math.IsNaN(p.NoiseFloor) {
		return nil
	}
	if p.NoiseFloor > -45.0 {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "background_noise_high",
			Message:  fmt.Sprintf("Background noise is high (%.0f dBFS) - try turning off fans, air conditioning, or other appliances before recording.", p.NoiseFloor),
		}
	}
	if p.NoiseFloor > -55.0 {
		return &RecordingTip{
			Priority: 6,
			RuleID:   "background_noise_moderate",
			Message:  fmt.Sprintf("Background noise is slightly elevated (%.0f dBFS) - if possible, turn off any fans or appliances nearby.", p.NoiseFloor),
		}
	}
	return nil
}

// tipMainsHum fires when more than a quarter of the noise energy sits on mains
// harmonics and that noise is audible (> -65 dBFS).
func tipMainsHum(p *RecordingProfile) *RecordingTip {
	if math.IsNaN(p.NoiseFloor) || p.HumRatio <= 0.25 || p.NoiseFloor < -65.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "mains_hum",
		Message:  "There's a constant low-frequency hum in your recording - check for nearby power supplies, monitors, or chargers and move them further from your microphone.",
	}
}

// tipTooFarFromMic fires when speech is quiet (< -30 dBFS) and sits less than
// 15 dB above the noise.
func tipTooFarFromMic(p *RecordingProfile) *RecordingTip {
	snr := p.SNR()
	if math.IsNaN(snr) || snr >= 15.0 || p.VoiceRMS >= -30.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		RuleID:   "too_far_from_mic",
		Message:  "You sound quite far from your microphone. Try moving closer - about a hand's width (15-20cm) from the mic is ideal for most setups.",
	}
}

// tipDynamicRange fires when voice segment levels spread by more than 8 dB,
// indicating inconsistent speaking volume or microphone distance.
func tipDynamicRange(p *RecordingProfile) *RecordingTip {
	if p.VoiceSegments < 3 || p.VoiceSpread <= 8.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "dynamic_range",
		Message:  "Your speaking volume varies quite a lot. Try to maintain a consistent distance from your microphone and a steady speaking level.",
	}
}

// tipPoorSNR fires when the noise-to-speech gap is under 10 dB.
func tipPoorSNR(p *RecordingProfile) *RecordingTip {
	snr := p.SNR()
	if math.IsNaN(snr) || snr >= 10.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "poor_snr",
		Message:  "The gap between your voice and the background noise is very small. Move closer to your microphone and reduce background noise if possible.",
	}
}

// tipNoisyVoice fires when segments accepted as voice are still fairly flat
// (mean smoothed flatness > 0.3), typical of breath noise or a noisy preamp.
func tipNoisyVoice(p *RecordingProfile) *RecordingTip {
	if math.IsNaN(p.Flatness) || p.Flatness <= 0.3 {
		return nil
	}
	return &RecordingTip{
		Priority: 4,
		RuleID:   "noisy_voice",
		Message:  "Your speech carries a lot of broadband noise. Try a pop filter, angle the mic slightly off-axis, or lower preamp gain and move closer.",
	}
}

func powerMeanDB(levels []float64) float64 {
	var sum float64
	for _, l := range levels {
		sum += math.Pow(10, l/10)
	}
	return 10 * math.Log10(sum/float64(len(levels)))
}

func stdDev(values []float64) float64 {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
