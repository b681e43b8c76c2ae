package processor

import (
	"fmt"
	"math"
)

// Buffer is an in-memory PCM recording handed to the classifier.
// Samples are floats in [-1, 1]; multi-channel data is rejected rather than downmixed.
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Channels) / float64(b.SampleRate)
}

// Segment is a contiguous slice of a recording, the unit of classification.
// Samples alias the input buffer and must not be modified.
type Segment struct {
	Index     int
	StartTime float64 // seconds
	EndTime   float64 // seconds
	Samples   []float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// validateBuffer enforces the input contract: mono, required rate, not empty.
func validateBuffer(buf Buffer, sampleRate int) error {
	if buf.SampleRate != sampleRate {
		return fmt.Errorf("%w: sample rate %d Hz, need %d Hz", ErrInvalidInput, buf.SampleRate, sampleRate)
	}
	if buf.Channels != 1 {
		return fmt.Errorf("%w: %d channels, need mono", ErrInvalidInput, buf.Channels)
	}
	if len(buf.Samples) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	return nil
}

// SegmentBuffer splits a mono buffer into non-overlapping segments of
// th.SegmentSeconds. A trailing remainder is kept as a shorter final segment only
// when it lasts at least th.MinTrailingSeconds. The floor is in absolute seconds
// and does not scale with SegmentSeconds; it equals 0.2·D only at the default D = 1 s.
func SegmentBuffer(buf Buffer, th *Thresholds) ([]Segment, error) {
	if err := validateBuffer(buf, th.SampleRate); err != nil {
		return nil, err
	}

	segLen := th.SegmentSamples()
	if segLen <= 0 {
		return nil, fmt.Errorf("%w: segment length of %d samples", ErrInvalidThresholds, segLen)
	}
	rate := float64(buf.SampleRate)

	count := len(buf.Samples) / segLen
	remainder := len(buf.Samples) - count*segLen

	// Compare in samples; the small tolerance absorbs float rounding of e.g. 0.2*16000
	minTrailing := int(math.Ceil(th.MinTrailingSeconds*rate - 1e-6))

	segments := make([]Segment, 0, count+1)
	for i := 0; i < count; i++ {
		start := i * segLen
		segments = append(segments, Segment{
			Index:     i,
			StartTime: float64(i) * th.SegmentSeconds,
			EndTime:   float64(i+1) * th.SegmentSeconds,
			Samples:   buf.Samples[start : start+segLen : start+segLen],
		})
	}

	if remainder > 0 && remainder >= minTrailing {
		start := count * segLen
		startTime := float64(count) * th.SegmentSeconds
		segments = append(segments, Segment{
			Index:     count,
			StartTime: startTime,
			EndTime:   startTime + float64(remainder)/rate,
			Samples:   buf.Samples[start:len(buf.Samples):len(buf.Samples)],
		})
	}

	return segments, nil
}
