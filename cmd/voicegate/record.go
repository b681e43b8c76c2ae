package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/linuxmatters/voicegate/internal/audio"
	"github.com/linuxmatters/voicegate/internal/cli"
	"github.com/linuxmatters/voicegate/internal/processor"
	"github.com/linuxmatters/voicegate/internal/ui"
)

// RecordCmd captures a take from the default input device
type RecordCmd struct {
	Duration time.Duration `short:"d" default:"10s" env:"VOICEGATE_RECORD_DURATION" help:"How long to record"`
	Classify bool          `help:"Classify the recording once capture finishes"`
	Config   string        `short:"c" type:"path" env:"VOICEGATE_CONFIG" help:"Thresholds file used by --classify"`
	Plot     bool          `help:"Write plots when classifying"`

	Output string `arg:"" name:"output" type:"path" help:"WAV file to write"`
}

// Run records under the level meter UI, writes the WAV and optionally classifies it
func (r *RecordCmd) Run(ctx context.Context) error {
	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewRecordModel(r.Output, r.Duration)
	p := tea.NewProgram(model)

	var (
		samples []int16
		recErr  error
		done    = make(chan struct{})
	)

	go func() {
		defer close(done)
		logger.Debugf(ctx, "[MAIN] capturing %v to %s", r.Duration, r.Output)
		samples, recErr = audio.Record(captureCtx, audio.RecordOptions{
			Duration:   r.Duration,
			SampleRate: processor.RequiredSampleRate,
			OnLevel: func(elapsed time.Duration, levelDB float64) {
				p.Send(ui.RecordProgressMsg{Elapsed: elapsed, Level: levelDB})
			},
		})
		// Stopping early keeps the partial take
		if errors.Is(recErr, context.Canceled) {
			recErr = nil
		}
		if recErr == nil && len(samples) > 0 {
			recErr = audio.WritePCM16(r.Output, samples, processor.RequiredSampleRate)
		}
		p.Send(ui.RecordCompleteMsg{Samples: len(samples), Error: recErr})
	}()

	final, uiErr := p.Run()

	// q in the UI stops capture; the worker still writes what it has
	cancel()
	<-done

	if uiErr != nil {
		return fmt.Errorf("UI error: %w", uiErr)
	}
	if recErr != nil {
		return fmt.Errorf("recording failed: %w", recErr)
	}
	if len(samples) == 0 {
		return fmt.Errorf("recording failed: no audio captured")
	}
	logger.Infof(ctx, "wrote %d samples to %s", len(samples), r.Output)

	status := "complete"
	if m, ok := final.(ui.RecordModel); ok && m.Cancelled {
		status = "stopped early"
	}
	captured := time.Duration(float64(len(samples)) / processor.RequiredSampleRate * float64(time.Second))
	cli.PrintKeyValue(os.Stdout, "Recording", status)
	cli.PrintKeyValue(os.Stdout, "File", r.Output)
	cli.PrintKeyValue(os.Stdout, "Length", captured.Round(10*time.Millisecond).String())
	fmt.Println()

	if !r.Classify {
		return nil
	}
	classify := &ClassifyCmd{
		Config:  r.Config,
		Plot:    r.Plot,
		Summary: true,
		Files:   []string{r.Output},
	}
	return classify.Run(ctx)
}
