// Package logging handles generation of analysis reports for classified recordings.
// This file provides the coloured console summary printed after classification.

package logging

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/voicegate/internal/audio"
	"github.com/linuxmatters/voicegate/internal/processor"
)

// Summary styles
var (
	voiceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AA00"))
	noiseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	naStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500"))
)

// timelineWidth caps the number of characters in the label timeline
const timelineWidth = 60

// DisplayResults prints the classification of one recording to the console:
// file info, a label timeline, merged voice/noise intervals and tips.
// With verbose set, every segment is listed with its score and rule outcomes.
func DisplayResults(w io.Writer, inputPath string, metadata *audio.Metadata, r *processor.Result, verbose bool) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("CLASSIFICATION:"), filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if metadata != nil {
		fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(metadata.Duration))
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", metadata.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(metadata.Channels))
	}

	voice, noise := r.Counts()
	fmt.Fprintf(w, "Segments:    %d (%s, %s)\n", len(r.Segments),
		voiceStyle.Render(fmt.Sprintf("%d voice", voice)),
		noiseStyle.Render(fmt.Sprintf("%d noise", noise)))
	fmt.Fprintf(w, "Voiced:      %s\n", formatDurationHMS(r.VoiceSeconds()))
	fmt.Fprintln(w)

	if len(r.Segments) == 0 {
		fmt.Fprintln(w, "No complete segments")
		return
	}

	writeAnalysisSection(w, "TIMELINE")
	fmt.Fprintf(w, "  %s\n\n", renderTimeline(r.Labels(), timelineWidth))

	writeAnalysisSection(w, "INTERVALS")
	for _, run := range mergeRuns(r) {
		fmt.Fprintf(w, "  %9s - %-9s %s\n",
			formatTimestamp(seconds(run.start)), formatTimestamp(seconds(run.end)), renderLabel(run.label))
	}
	fmt.Fprintln(w)

	if verbose {
		writeAnalysisSection(w, "SEGMENTS")
		for _, s := range r.Segments {
			d := s.Decision
			fmt.Fprintf(w, "  #%-4d %7.2fs  %s  score %d/%d  flat %s  pitch %s  voicing %s  band %s",
				s.Index, s.StartTime, renderLabel(s.Label), d.Score, processor.MaxScore,
				renderCheck(d.Flatness), renderCheck(d.Pitch), renderCheck(d.Voicing), renderCheck(d.VoiceBand))
			if note := segmentNote(s); note != "" && !strings.HasPrefix(note, "failed:") {
				fmt.Fprintf(w, "  (%s)", note)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if tips := GenerateRecordingTips(r); len(tips) > 0 {
		writeAnalysisSection(w, "RECORDING TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  • %s\n", wrapText(tip.Message, 66, "    "))
		}
		fmt.Fprintln(w)
	}
}

// labelRun is a maximal run of consecutive segments with the same label
type labelRun struct {
	start, end float64
	label      processor.Label
}

func mergeRuns(r *processor.Result) []labelRun {
	var runs []labelRun
	for _, s := range r.Segments {
		if n := len(runs); n > 0 && runs[n-1].label == s.Label {
			runs[n-1].end = s.EndTime
			continue
		}
		runs = append(runs, labelRun{start: s.StartTime, end: s.EndTime, label: s.Label})
	}
	return runs
}

// renderTimeline draws one cell per segment, or per group of segments when there
// are more than width. A group is voice when any of its segments is.
func renderTimeline(labels []processor.Label, width int) string {
	if len(labels) == 0 {
		return ""
	}
	cells := min(len(labels), width)
	var sb strings.Builder
	for c := 0; c < cells; c++ {
		lo := c * len(labels) / cells
		hi := max(lo+1, (c+1)*len(labels)/cells)
		voiced := false
		for _, l := range labels[lo:hi] {
			if l == processor.LabelVoice {
				voiced = true
				break
			}
		}
		if voiced {
			sb.WriteString(voiceStyle.Render("█"))
		} else {
			sb.WriteString(noiseStyle.Render("·"))
		}
	}
	return sb.String()
}

func renderLabel(l processor.Label) string {
	if l == processor.LabelVoice {
		return voiceStyle.Render("VOICE")
	}
	return noiseStyle.Render("noise")
}

func renderCheck(c processor.CheckState) string {
	switch c {
	case processor.Passed:
		return passStyle.Render(c.String())
	case processor.Failed:
		return failStyle.Render(c.String())
	default:
		return naStyle.Render(c.String())
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// writeAnalysisSection writes a section header for console output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}

// formatTimestamp formats a duration as a timestamp string (e.g., "1m 32s" or "24.0s").
func formatTimestamp(d time.Duration) string {
	totalSeconds := d.Seconds()
	if totalSeconds < 60 {
		return fmt.Sprintf("%.1fs", totalSeconds)
	}

	minutes := int(totalSeconds) / 60
	seconds := math.Mod(totalSeconds, 60)

	if minutes >= 60 {
		hours := minutes / 60
		minutes = minutes % 60
		return fmt.Sprintf("%dh %dm %.0fs", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %.0fs", minutes, seconds)
}
