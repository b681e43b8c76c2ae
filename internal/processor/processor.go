// Package processor classifies fixed-length windows of mono audio as voice or noise
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Pass numbers reported through ProgressFunc
const (
	PassAnalyse  = 1
	PassSmooth   = 2
	PassClassify = 3
)

// ProgressFunc receives progress updates from Classify.
// progress is in [0, 1] within the pass; level is the RMS of the segment just
// analysed in dBFS (0 outside the analysis pass).
type ProgressFunc func(pass int, passName string, progress float64, level float64)

// SegmentResult is the complete outcome for one segment.
type SegmentResult struct {
	Index        int           `json:"index"`
	StartTime    float64       `json:"start_time"`
	EndTime      float64       `json:"end_time"`
	Label        Label         `json:"label"`
	Raw          FeatureVector `json:"raw"`
	Smoothed     FeatureVector `json:"smoothed"`
	Decision     Decision      `json:"decision"`
	Diagnostics  Diagnostics   `json:"diagnostics"`
	FilterFailed bool          `json:"filter_failed"`
}

// Result is the ordered classification of a recording.
type Result struct {
	SampleRate int             `json:"sample_rate"`
	Duration   float64         `json:"duration"`
	Segments   []SegmentResult `json:"segments"`
}

// Labels returns the final label of every segment in order.
func (r *Result) Labels() []Label {
	labels := make([]Label, len(r.Segments))
	for i, s := range r.Segments {
		labels[i] = s.Label
	}
	return labels
}

// Counts returns how many segments carry each label.
func (r *Result) Counts() (voice, noise int) {
	for _, s := range r.Segments {
		if s.Label == LabelVoice {
			voice++
		} else {
			noise++
		}
	}
	return voice, noise
}

// VoiceSeconds returns the total duration labelled voice.
func (r *Result) VoiceSeconds() float64 {
	var total float64
	for _, s := range r.Segments {
		if s.Label == LabelVoice {
			total += s.EndTime - s.StartTime
		}
	}
	return total
}

// Classify runs the full pipeline over a mono recording:
//   - Pass 1: segment and extract raw features plus diagnostics, in order
//   - Pass 2: smooth the feature sequence over th.SmoothingWindow segments,
//     leaving filter failures out of every window
//   - Pass 3: score each smoothed vector, then apply the optional label vote
//
// Invalid input or thresholds abort the run. A segment too short to filter is
// labelled noise with FilterFailed set and the run continues.
// If progress is not nil it is called as each pass advances.
func Classify(ctx context.Context, buf Buffer, th *Thresholds, progress ProgressFunc) (*Result, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	report := func(pass int, name string, p, level float64) {
		if progress != nil {
			progress(pass, name, p, level)
		}
	}

	segments, err := SegmentBuffer(buf, th)
	if err != nil {
		return nil, err
	}
	tools, err := NewFeatureTools(th)
	if err != nil {
		return nil, fmt.Errorf("failed to design bandpass filter: %w", err)
	}
	logger.Debugf(ctx, "classifying %.2fs of audio as %d segments", buf.Duration(), len(segments))

	result := &Result{
		SampleRate: buf.SampleRate,
		Duration:   buf.Duration(),
		Segments:   make([]SegmentResult, len(segments)),
	}

	// Pass 1: raw features, one segment at a time
	report(PassAnalyse, "Analysing", 0, 0)
	raw := make([]FeatureVector, len(segments))
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fv, diag, err := ExtractFeatures(seg, th, tools)
		sr := SegmentResult{
			Index:       seg.Index,
			StartTime:   seg.StartTime,
			EndTime:     seg.EndTime,
			Raw:         fv,
			Diagnostics: diag,
		}
		if err != nil {
			if !errors.Is(err, ErrFilterUnstable) {
				return nil, fmt.Errorf("segment %d: %w", seg.Index, err)
			}
			logger.Warnf(ctx, "segment %d (%.2fs-%.2fs): %v", seg.Index, seg.StartTime, seg.EndTime, err)
			sr.FilterFailed = true
		}
		raw[i] = fv
		result.Segments[i] = sr

		logger.Tracef(ctx, "segment %d raw features: %+v", seg.Index, fv)
		report(PassAnalyse, "Analysing", float64(i+1)/float64(len(segments)), diag.RMSLevel)
	}

	// Pass 2: temporal smoothing across the whole sequence
	report(PassSmooth, "Smoothing", 0, 0)
	// Segments that could not be filtered stay out of their neighbours' windows
	valid := make([]bool, len(segments))
	for i := range result.Segments {
		valid[i] = !result.Segments[i].FilterFailed
	}
	smoothed := SmoothFeaturesMasked(raw, valid, th.SmoothingWindow)
	report(PassSmooth, "Smoothing", 1, 0)

	// Pass 3: scoring
	report(PassClassify, "Classifying", 0, 0)
	labels := make([]Label, len(segments))
	for i := range result.Segments {
		sr := &result.Segments[i]
		sr.Smoothed = smoothed[i]
		if sr.FilterFailed {
			sr.Decision = filterFailedDecision()
		} else {
			sr.Decision = ClassifySegment(smoothed[i], th)
		}
		labels[i] = sr.Decision.Label
		logger.Debugf(ctx, "segment %d: %s (score %d)", sr.Index, sr.Decision.Label, sr.Decision.Score)
	}

	if th.LabelVoteWindow > 1 {
		labels = SmoothLabels(labels, th.LabelVoteWindow)
	}
	for i := range result.Segments {
		result.Segments[i].Label = labels[i]
	}
	report(PassClassify, "Classifying", 1, 0)

	voice, noise := result.Counts()
	logger.Debugf(ctx, "classified %d voice and %d noise segments", voice, noise)
	return result, nil
}

// FilterRecording applies the segment bandpass to a whole recording, for
// spectrum comparison plots.
func FilterRecording(buf Buffer, th *Thresholds) ([]float64, error) {
	if err := validateBuffer(buf, th.SampleRate); err != nil {
		return nil, err
	}
	bp, err := DesignBandpass(th.FilterLowHz, th.FilterHighHz, th.FilterOrder, th.SampleRate)
	if err != nil {
		return nil, err
	}
	return bp.FilterZeroPhase(buf.Samples)
}
