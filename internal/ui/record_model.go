package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// meterFloor is the level shown as an empty meter
const meterFloor = -60.0

// RecordModel is the Bubbletea model for microphone capture
type RecordModel struct {
	// Destination WAV file
	FileName string
	FilePath string

	// Capture progress
	Target  time.Duration
	Elapsed time.Duration
	Level   float64 // RMS of the latest device period in dBFS
	Peak    float64

	// Spinner state
	spinnerIndex int

	// Results (populated when complete)
	Samples   int
	Error     error
	Done      bool
	Cancelled bool

	// Terminal dimensions
	Width  int
	Height int
}

// RecordProgressMsg signals a level update from the capture loop
type RecordProgressMsg struct {
	Elapsed time.Duration
	Level   float64
}

// RecordCompleteMsg signals capture has stopped and the file was written (or not)
type RecordCompleteMsg struct {
	Samples int
	Error   error
}

// tickMsg is sent for spinner animation
type tickMsg time.Time

// NewRecordModel creates a capture UI for path lasting target
func NewRecordModel(path string, target time.Duration) RecordModel {
	return RecordModel{
		FileName: filepath.Base(path),
		FilePath: path,
		Target:   target,
		Level:    meterFloor,
		Peak:     meterFloor,
	}
}

// Init initializes the model
func (m RecordModel) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Cancelled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case RecordProgressMsg:
		m.Elapsed = msg.Elapsed
		m.Level = msg.Level
		if msg.Level > m.Peak {
			m.Peak = msg.Level
		}
		return m, nil

	case RecordCompleteMsg:
		m.Samples = msg.Samples
		m.Error = msg.Error
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m RecordModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Voicegate")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render("Recording Mode")

	b.WriteString(title + " " + subtitle)
	b.WriteString("\n\n")

	fileStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true)

	b.WriteString("Recording: ")
	b.WriteString(fileStyle.Render(m.FileName))
	b.WriteString("\n\n")

	spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	spinner := spinnerStyle.Render(spinnerFrames[m.spinnerIndex])

	if m.Done {
		b.WriteString(fmt.Sprintf("Captured %s", formatElapsed(m.Elapsed)))
	} else {
		b.WriteString(spinner)
		b.WriteString(" ")
		b.WriteString(renderCaptureProgressBar(m.progress(), 40, m.Elapsed))
	}
	b.WriteString("\n\n")

	b.WriteString(renderLevelMeter(m.Level, 40))
	b.WriteString(fmt.Sprintf(" %6.1f dBFS (peak %.1f)", m.Level, m.Peak))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("Press q to stop early"))

	return b.String()
}

func (m RecordModel) progress() float64 {
	if m.Target <= 0 {
		return 0
	}
	return min(1, float64(m.Elapsed)/float64(m.Target))
}

// renderCaptureProgressBar renders a progress bar with percentage and elapsed time
func renderCaptureProgressBar(progress float64, width int, elapsed time.Duration) string {
	filled := int(progress * float64(width))
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	percentage := int(progress * 100)

	return fmt.Sprintf("%s %3d%% [%s]", bar, percentage, formatElapsed(elapsed))
}

// renderLevelMeter draws levelDB on a meterFloor..0 dBFS scale. The top 6 dB
// are drawn in red as a clipping warning.
func renderLevelMeter(levelDB float64, width int) string {
	fraction := (min(max(levelDB, meterFloor), 0) - meterFloor) / -meterFloor
	filled := int(fraction * float64(width))
	hot := int((1 - 6/-meterFloor) * float64(width))

	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
	hotStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	okCells := min(filled, hot)
	hotCells := max(0, filled-hot)
	return okStyle.Render(strings.Repeat("▮", okCells)) +
		hotStyle.Render(strings.Repeat("▮", hotCells)) +
		emptyStyle.Render(strings.Repeat("▯", width-filled))
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
