// Package export writes classification results as JSON
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/voicegate/internal/processor"
)

// Interval is one entry of results.json
type Interval struct {
	StartTime float64         `json:"start_time"`
	EndTime   float64         `json:"end_time"`
	Label     processor.Label `json:"label"`
}

// Intervals converts a result into the ordered interval list
func Intervals(r *processor.Result) []Interval {
	out := make([]Interval, len(r.Segments))
	for i, s := range r.Segments {
		out[i] = Interval{StartTime: s.StartTime, EndTime: s.EndTime, Label: s.Label}
	}
	return out
}

// FeatureReport is the diagnostic export behind --features
type FeatureReport struct {
	RunID      string                    `json:"run_id"`
	Source     string                    `json:"source"`
	Generated  time.Time                 `json:"generated"`
	SampleRate int                       `json:"sample_rate"`
	Duration   float64                   `json:"duration"`
	Thresholds *processor.Thresholds     `json:"thresholds"`
	Segments   []processor.SegmentResult `json:"segments"`
}

// NewFeatureReport bundles a result with the thresholds that produced it
func NewFeatureReport(runID, source string, th *processor.Thresholds, r *processor.Result) FeatureReport {
	return FeatureReport{
		RunID:      runID,
		Source:     filepath.Base(source),
		Generated:  time.Now().UTC(),
		SampleRate: r.SampleRate,
		Duration:   r.Duration,
		Thresholds: th,
		Segments:   r.Segments,
	}
}

// WriteResults encodes the interval list as indented JSON
func WriteResults(w io.Writer, r *processor.Result) error {
	return writeJSON(w, Intervals(r))
}

// WriteFeatures encodes a feature report as indented JSON
func WriteFeatures(w io.Writer, report FeatureReport) error {
	return writeJSON(w, report)
}

// WriteResultsFile writes results.json to path
func WriteResultsFile(path string, r *processor.Result) error {
	return writeFile(path, func(w io.Writer) error { return WriteResults(w, r) })
}

// WriteFeaturesFile writes the feature report to path
func WriteFeaturesFile(path string, report FeatureReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteFeatures(w, report) })
}

// OutputPath derives an output filename from the input path.
// Example: /path/to/take1.wav with suffix "results.json" → /path/to/take1-results.json
// When dir is not empty the file is placed there instead of next to the input.
func OutputPath(inputPath, dir, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name := base + "-" + suffix
	if dir == "" {
		return filepath.Join(filepath.Dir(inputPath), name)
	}
	return filepath.Join(dir, name)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
