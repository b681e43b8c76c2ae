// Package logging handles generation of analysis reports for classified recordings

package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/linuxmatters/voicegate/internal/processor"
)

// ============================================================================
// Feature Interpretation Functions
// ============================================================================
// These functions interpret segment features and return human-readable
// descriptions. Ranges follow the classifier defaults.

// interpretFlatness describes tonality vs noisiness (Wiener entropy).
// Ratio of geometric mean to arithmetic mean. 0=pure tone, 1=white noise.
// Reference: MPEG-7 AudioSpectralFlatness; Johnston (1988); Dubnov (2004).
//
// Clean voiced speech 0.1-0.3; breathy voice 0.3-0.5; fricatives 0.4-0.7.
func interpretFlatness(flatness float64) string {
	switch {
	case flatness < 0.1:
		return "highly tonal, pure harmonics"
	case flatness < 0.25:
		return "tonal with some noise, clean voiced"
	case flatness < 0.4:
		return "moderate tonality, typical speech"
	case flatness < 0.6:
		return "mixed tonal/noise, breathy content"
	default:
		return "noise-dominant, very breathy"
	}
}

// interpretPitch places a mean pitch within typical speaking ranges.
// Adult male speech 85-165 Hz, adult female 165-255 Hz.
func interpretPitch(hz float64) string {
	switch {
	case hz <= processor.UnvoicedPitch:
		return "no pitch detected"
	case hz < 85:
		return "very low, possibly hum or rumble"
	case hz < 165:
		return "typical lower voice"
	case hz < 255:
		return "typical higher voice"
	case hz < 500:
		return "high, child or raised voice"
	default:
		return "above speech range"
	}
}

// interpretVoicing describes the share of voiced pitch frames.
func interpretVoicing(p float64) string {
	switch {
	case p < 0.1:
		return "unvoiced"
	case p < 0.25:
		return "mostly unvoiced"
	case p < 0.5:
		return "partly voiced, typical connected speech"
	case p < 0.8:
		return "mostly voiced"
	default:
		return "sustained voicing"
	}
}

// interpretVoiceBand describes how much raw energy survives the speech-band filter.
// log10 ratio: 0 = all energy in band, -1 = a tenth.
func interpretVoiceBand(logRatio float64) string {
	switch {
	case logRatio <= processor.VoiceBandSentinel:
		return "not measured"
	case logRatio > -0.1:
		return "energy concentrated in speech band"
	case logRatio > -0.35:
		return "speech band dominant"
	case logRatio > -1:
		return "substantial out-of-band energy"
	default:
		return "mostly out-of-band (rumble, hiss)"
	}
}

// interpretHNR describes harmonic clarity of voiced frames.
// Healthy sustained vowels exceed 20 dB; conversational speech sits around 10-15 dB.
func interpretHNR(db float64) string {
	switch {
	case db < 0:
		return "noise dominant"
	case db < 7:
		return "rough or breathy"
	case db < 15:
		return "typical speech"
	default:
		return "clean, strongly harmonic"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate an analysis report
type ReportData struct {
	InputPath    string
	OutputPath   string // results JSON; the report is written alongside it
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	Pass1Time    time.Duration // Analysis
	Pass2Time    time.Duration // Smoothing
	Pass3Time    time.Duration // Classification
	Result       *processor.Result
	Thresholds   *processor.Thresholds
	Channels     int
	DurationSecs float64 // Duration in seconds
}

// ReportPath returns where GenerateReport writes the report for data.
// take-results.json → take-results.log
func ReportPath(data ReportData) string {
	return strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"
}

// GenerateReport creates a detailed analysis report and saves it alongside the
// results file.
//
// Report structure:
// 1. Header - file info, run ID and timestamp
// 2. Processing Summary - pass timings
// 3. Classification Summary - label counts and voiced time
// 4. Thresholds - the configuration that produced the labels
// 5. Voice vs Noise - two-column feature table with interpretations
// 6. Diagnostic: Segment Levels - RMS distribution
// 7. Segments - one row per segment with failing rules
// 8. Recording Tips
func GenerateReport(data ReportData) error {
	f, err := os.Create(ReportPath(data))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	WriteReport(f, data)

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}

// WriteReport writes the report sections described in GenerateReport to w.
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)

	if data.Result == nil {
		return
	}

	writeClassificationSummary(w, data.Result)
	if data.Thresholds != nil {
		writeThresholdTable(w, data.Thresholds)
	}
	writeVoiceNoiseTable(w, data.Result)
	writeDiagnosticLevels(w, data.Result)
	writeSegmentTable(w, data.Result)
	writeRecordingTips(w, data.Result)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// =============================================================================
// Tabular Report Section Writers
// =============================================================================

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Voicegate Analysis Report")
	fmt.Fprintln(w, "=========================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	if data.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", data.RunID)
	}
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(data.DurationSecs*float64(time.Second))))
	if data.Result != nil {
		fmt.Fprintf(w, "Format: %d Hz, %s\n", data.Result.SampleRate, channelName(data.Channels))
	}
	fmt.Fprintln(w, "")
}

// writeProcessingSummary outputs the processing time summary for all passes.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	fmt.Fprintf(w, "Pass 1 (Analysis):       %s\n", formatDuration(data.Pass1Time))
	fmt.Fprintf(w, "Pass 2 (Smoothing):      %s\n", formatDuration(data.Pass2Time))
	fmt.Fprintf(w, "Pass 3 (Classification): %s\n", formatDuration(data.Pass3Time))

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:                   %s", formatDuration(totalTime))

	if data.DurationSecs > 0 && totalTime > 0 {
		audioDuration := time.Duration(data.DurationSecs * float64(time.Second))
		rtf := float64(audioDuration) / float64(totalTime)
		fmt.Fprintf(w, " (%.0fx real-time)", rtf)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

// writeClassificationSummary outputs label counts and voiced time.
func writeClassificationSummary(w io.Writer, r *processor.Result) {
	writeSection(w, "Classification Summary")

	voice, noise := r.Counts()
	fmt.Fprintf(w, "Segments:       %d (%d voice, %d noise)\n", len(r.Segments), voice, noise)

	voiced := r.VoiceSeconds()
	share := 0.0
	if r.Duration > 0 {
		share = 100 * voiced / r.Duration
	}
	fmt.Fprintf(w, "Voiced Time:    %s (%.0f%% of recording)\n",
		formatDuration(time.Duration(voiced*float64(time.Second))), share)

	var failed, gated, revoted int
	for _, s := range r.Segments {
		switch {
		case s.FilterFailed:
			failed++
		case !s.Decision.EnergyPass:
			gated++
		}
		if s.Label != s.Decision.Label {
			revoted++
		}
	}
	fmt.Fprintf(w, "Energy Gated:   %d segments below the energy floor\n", gated)
	if failed > 0 {
		fmt.Fprintf(w, "Filter Failed:  %d segments too short to filter (labelled noise)\n", failed)
	}
	if revoted > 0 {
		fmt.Fprintf(w, "Label Vote:     %d segments relabelled\n", revoted)
	}
	fmt.Fprintln(w, "")
}

// writeThresholdTable outputs the thresholds used for the run.
func writeThresholdTable(w io.Writer, th *processor.Thresholds) {
	writeSection(w, "Thresholds")

	table := NewMetricTable("Value")
	table.AddRow("Segment Length", []string{formatMetric(th.SegmentSeconds, 2)}, "s", "")
	table.AddRow("Bandpass", []string{fmt.Sprintf("%.0f-%.0f", th.FilterLowHz, th.FilterHighHz)}, "Hz", fmt.Sprintf("order %d, zero phase", th.FilterOrder))
	table.AddRow("Window", []string{string(th.Window)}, "", "")
	table.AddRow("Smoothing", []string{fmt.Sprintf("%d", th.SmoothingWindow)}, "seg", "")
	table.AddRow("Energy Floor", []string{formatMetric(th.EnergyFloor, 4)}, "Σx²", "gate")
	table.AddRow("Flatness Ceiling", []string{formatMetric(th.FlatnessCeiling, 2)}, "", "+2 below")
	table.AddRow("Pitch Range", []string{fmt.Sprintf("%.0f-%.0f", th.PitchMinHz, th.PitchMaxHz)}, "Hz", "+1 inside")
	table.AddRow("Voicing Floor", []string{formatMetric(th.VoicingFloor, 2)}, "", "+1 above")
	table.AddRow("Voice Band Floor", []string{formatMetric(th.VoiceBandFloor, 2)}, "log10", "+2 above")
	table.AddRow("Score Threshold", []string{fmt.Sprintf("%d/%d", th.ScoreThreshold, processor.MaxScore)}, "", "")
	if th.LabelVoteWindow > 1 {
		table.AddRow("Label Vote", []string{fmt.Sprintf("%d", th.LabelVoteWindow)}, "seg", "")
	}
	if th.MainsHz > 0 {
		table.AddRow("Mains", []string{formatMetric(th.MainsHz, 0)}, "Hz", "hum diagnostic")
	}

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// featureMeans holds per-label averages of smoothed features and diagnostics.
type featureMeans struct {
	count     int
	energy    float64
	flatness  float64
	pitch     float64
	voicing   float64
	voiceBand float64
	hnr       float64
	voiced    int // segments with a voiced pitch, the HNR denominator
	rms       []float64
	peak      float64
}

func collectMeans(r *processor.Result, label processor.Label) featureMeans {
	m := featureMeans{peak: math.Inf(-1)}
	for _, s := range r.Segments {
		if s.Label != label || s.FilterFailed {
			continue
		}
		m.count++
		m.energy += s.Smoothed.TotalEnergy
		m.flatness += s.Smoothed.Flatness
		m.pitch += s.Smoothed.PitchHz
		m.voicing += s.Smoothed.VoicingProbability
		m.voiceBand += s.Smoothed.VoiceBandRatioLog
		if s.Raw.PitchHz > processor.UnvoicedPitch {
			m.hnr += s.Diagnostics.HNR
			m.voiced++
		}
		m.rms = append(m.rms, s.Diagnostics.RMSLevel)
		m.peak = math.Max(m.peak, s.Diagnostics.PeakLevel)
	}
	if m.count > 0 {
		n := float64(m.count)
		m.energy /= n
		m.flatness /= n
		m.pitch /= n
		m.voicing /= n
		m.voiceBand /= n
	}
	if m.voiced > 0 {
		m.hnr /= float64(m.voiced)
	}
	return m
}

// value returns v when the label had segments, NaN otherwise.
func (m featureMeans) value(v float64) float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return v
}

// writeVoiceNoiseTable outputs mean smoothed features of voice and noise segments.
// Interpretations describe the voice column.
func writeVoiceNoiseTable(w io.Writer, r *processor.Result) {
	voice := collectMeans(r, processor.LabelVoice)
	noise := collectMeans(r, processor.LabelNoise)

	writeSection(w, "Voice vs Noise")
	if voice.count == 0 && noise.count == 0 {
		fmt.Fprintln(w, "No analysable segments")
		fmt.Fprintln(w, "")
		return
	}

	interp := func(f func(float64) string, v float64) string {
		if voice.count == 0 {
			return ""
		}
		return f(v)
	}

	table := NewMetricTable("Voice", "Noise")
	table.AddMetricRow("Segments", []float64{float64(voice.count), float64(noise.count)}, 0, "", "")
	table.AddMetricRow("Total Energy", []float64{voice.value(voice.energy), noise.value(noise.energy)}, 4, "Σx²", "")
	table.AddMetricRow("Spectral Flatness", []float64{voice.value(voice.flatness), noise.value(noise.flatness)}, 3, "", interp(interpretFlatness, voice.flatness))
	table.AddMetricRow("Pitch", []float64{voice.value(voice.pitch), noise.value(noise.pitch)}, 1, "Hz", interp(interpretPitch, voice.pitch))
	table.AddMetricRow("Voicing", []float64{voice.value(voice.voicing), noise.value(noise.voicing)}, 2, "", interp(interpretVoicing, voice.voicing))
	table.AddMetricRow("Voice Band Ratio", []float64{voice.value(voice.voiceBand), noise.value(noise.voiceBand)}, 3, "log10", interp(interpretVoiceBand, voice.voiceBand))

	hnr := func(m featureMeans) float64 {
		if m.voiced == 0 {
			return math.NaN()
		}
		return m.hnr
	}
	hnrInterp := ""
	if voice.voiced > 0 {
		hnrInterp = interpretHNR(voice.hnr)
	}
	table.AddMetricRow("HNR", []float64{hnr(voice), hnr(noise)}, 1, "dB", hnrInterp)

	level := func(m featureMeans) string {
		if len(m.rms) == 0 {
			return MissingValue
		}
		return formatMetricDB(powerMeanDB(m.rms), 1)
	}
	peak := func(m featureMeans) string {
		if m.count == 0 {
			return MissingValue
		}
		return formatMetricDB(m.peak, 1)
	}
	table.AddRow("RMS Level", []string{level(voice), level(noise)}, "dBFS", "")
	table.AddRow("Peak Level", []string{peak(voice), peak(noise)}, "dBFS", "")

	fmt.Fprint(w, table.String())

	if len(voice.rms) > 0 && len(noise.rms) > 0 {
		snr := powerMeanDB(voice.rms) - median(noise.rms)
		fmt.Fprintf(w, "Voice over noise floor: %s dB\n", formatMetricSigned(snr, 1))
	}
	fmt.Fprintln(w, "")
}

// writeDiagnosticLevels outputs the distribution of segment RMS levels.
func writeDiagnosticLevels(w io.Writer, r *processor.Result) {
	rmsValues := make([]float64, 0, len(r.Segments))
	silent := 0
	for _, s := range r.Segments {
		if isDigitalSilence(s.Diagnostics.RMSLevel) {
			silent++
			continue
		}
		rmsValues = append(rmsValues, s.Diagnostics.RMSLevel)
	}

	writeSection(w, "Diagnostic: Segment Levels")
	if silent > 0 {
		fmt.Fprintf(w, "Digital Silence:  %d segments\n", silent)
	}
	if len(rmsValues) < 5 {
		fmt.Fprintf(w, "RMS Levels:       %d segments (too few for a distribution)\n", len(rmsValues))
		fmt.Fprintln(w, "")
		return
	}

	sorted := append([]float64(nil), rmsValues...)
	sort.Float64s(sorted)
	fmt.Fprintf(w, "RMS Level Dist:   min %.1f, p10 %.1f, p25 %.1f, p50 %.1f, p75 %.1f, p90 %.1f, max %.1f dBFS\n",
		sorted[0],
		sorted[len(sorted)/10],
		sorted[len(sorted)/4],
		sorted[len(sorted)/2],
		sorted[len(sorted)*3/4],
		sorted[len(sorted)*9/10],
		sorted[len(sorted)-1])

	// Largest gap usually separates background from speech
	var largestGap float64
	var gapIndex int
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i] - sorted[i-1]; gap > largestGap {
			largestGap = gap
			gapIndex = i
		}
	}
	if gapIndex > 0 {
		fmt.Fprintf(w, "Largest Gap:      %.1f dB between %.1f and %.1f dBFS (%d segments below)\n",
			largestGap, sorted[gapIndex-1], sorted[gapIndex], gapIndex)
	}
	fmt.Fprintln(w, "")
}

// writeSegmentTable outputs one row per segment: smoothed features, score, label
// and the rules that failed.
func writeSegmentTable(w io.Writer, r *processor.Result) {
	writeSection(w, "Segments")

	table := NewMetricTable("Energy", "Flatness", "Pitch", "Voicing", "VBR", "Score", "Label")
	for _, s := range r.Segments {
		silent := isDigitalSilence(s.Diagnostics.RMSLevel)
		fv := s.Smoothed
		table.AddRow(
			fmt.Sprintf("%7.2f-%.2fs", s.StartTime, s.EndTime),
			[]string{
				formatMetric(fv.TotalEnergy, 4),
				formatMetricSpectral(fv.Flatness, 3, silent),
				formatMetric(fv.PitchHz, 1),
				formatMetric(fv.VoicingProbability, 2),
				formatMetricSpectral(fv.VoiceBandRatioLog, 3, silent),
				fmt.Sprintf("%d/%d", s.Decision.Score, processor.MaxScore),
				string(s.Label),
			},
			"",
			segmentNote(s),
		)
	}

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// segmentNote explains a segment's decision in a few words.
func segmentNote(s processor.SegmentResult) string {
	switch {
	case s.FilterFailed:
		return "too short to filter"
	case !s.Decision.EnergyPass:
		return "below energy floor"
	}

	var failed []string
	d := s.Decision
	for _, rule := range []struct {
		name  string
		state processor.CheckState
	}{
		{"flatness", d.Flatness},
		{"pitch", d.Pitch},
		{"voicing", d.Voicing},
		{"voice band", d.VoiceBand},
	} {
		if rule.state == processor.Failed {
			failed = append(failed, rule.name)
		}
	}

	note := ""
	if len(failed) > 0 {
		note = "failed: " + strings.Join(failed, ", ")
	}
	if s.Label != d.Label {
		if note != "" {
			note += "; "
		}
		note += "relabelled by vote"
	}
	return note
}

// writeRecordingTips outputs prioritised advice for the next recording.
func writeRecordingTips(w io.Writer, r *processor.Result) {
	tips := GenerateRecordingTips(r)

	writeSection(w, "Recording Tips")
	if len(tips) == 0 {
		fmt.Fprintln(w, "No issues found - nice recording!")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 76, "   "))
	}
}
