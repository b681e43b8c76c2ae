package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/linuxmatters/voicegate/internal/audio"
	"github.com/linuxmatters/voicegate/internal/config"
	"github.com/linuxmatters/voicegate/internal/export"
	"github.com/linuxmatters/voicegate/internal/logging"
	"github.com/linuxmatters/voicegate/internal/mains"
	"github.com/linuxmatters/voicegate/internal/plot"
	"github.com/linuxmatters/voicegate/internal/processor"
	"github.com/linuxmatters/voicegate/internal/ui"
)

// ClassifyCmd labels every segment of one or more recordings
type ClassifyCmd struct {
	Config   string `short:"c" type:"path" env:"VOICEGATE_CONFIG" help:"Path to TOML or YAML thresholds file (optional)"`
	Output   string `short:"o" type:"path" env:"VOICEGATE_OUTPUT" help:"Results JSON path, or a directory for batches"`
	Features bool   `help:"Write per-segment features JSON alongside the results"`
	Plot     bool   `help:"Write feature and spectrum PNG plots"`
	Logs     bool   `help:"Save detailed analysis logs"`
	Summary  bool   `default:"true" negatable:"" help:"Print a coloured per-segment summary"`
	Verbose  bool   `help:"Show per-rule results in the summary"`

	EnergyFloor    *float64 `placeholder:"SUM" help:"Override the energy floor (sum of squares per segment)"`
	ScoreThreshold *int     `placeholder:"N" help:"Override the voice score threshold (0-6)"`
	LabelVote      *int     `placeholder:"N" help:"Majority vote window over labels (0 disables)"`
	MainsHz        *float64 `placeholder:"HZ" env:"VOICEGATE_MAINS_HZ" help:"Mains frequency for the hum diagnostic (default: from timezone)"`

	Files []string `arg:"" name:"files" help:"Mono 16 kHz WAV files to classify" type:"existingfile"`
}

// fileOutcome is what one recording produced, kept for the post-UI summary
type fileOutcome struct {
	inputPath string
	metadata  *audio.Metadata
	result    *processor.Result
}

// Run classifies each file in turn under the progress UI
func (c *ClassifyCmd) Run(ctx context.Context) error {
	th, err := c.thresholds(ctx)
	if err != nil {
		return err
	}

	if c.Output != "" && len(c.Files) > 1 && isJSONPath(c.Output) {
		return fmt.Errorf("--output must be a directory when classifying %d files", len(c.Files))
	}
	if dir := c.outputDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Create the Bubbletea UI model
	model := ui.NewModel(ctx, c.Files)
	p := tea.NewProgram(model, tea.WithAltScreen())

	var (
		outcomes []fileOutcome
		failures *multierror.Error
		done     = make(chan struct{})
	)

	// Start processing in background
	go func() {
		defer close(done)
		for i, inputPath := range c.Files {
			outputPath := c.resultsPath(inputPath)

			// Signal file start
			logger.Debugf(ctx, "[MAIN] Sending FileStartMsg for file %d: %s", i, inputPath)
			p.Send(ui.FileStartMsg{
				FileIndex:  i,
				FileName:   inputPath,
				OutputPath: outputPath,
			})

			outcome, err := c.classifyFile(ctx, p, th, inputPath, outputPath)
			if outcome.result != nil {
				outcomes = append(outcomes, outcome)
			}
			if err != nil {
				logger.Errorf(ctx, "[MAIN] %s: %v", inputPath, err)
				failures = multierror.Append(failures, fmt.Errorf("%s: %w", filepath.Base(inputPath), err))
				p.Send(ui.FileCompleteMsg{FileIndex: i, Error: err})
				if ctx.Err() != nil {
					return
				}
				continue
			}

			voice, noise := outcome.result.Counts()
			logger.Debugf(ctx, "[MAIN] Sending FileCompleteMsg for file %d", i)
			p.Send(ui.FileCompleteMsg{
				FileIndex:     i,
				VoiceSegments: voice,
				NoiseSegments: noise,
				VoiceSeconds:  outcome.result.VoiceSeconds(),
				Duration:      outcome.result.Duration,
				OutputPath:    outputPath,
			})
		}

		// Signal all complete
		logger.Debugf(ctx, "[MAIN] Sending AllCompleteMsg")
		p.Send(ui.AllCompleteMsg{})
	}()

	// Run the program
	_, uiErr := p.Run()

	// Quitting the UI early stops the remaining work
	cancel()
	<-done

	if uiErr != nil {
		return fmt.Errorf("UI error: %w", uiErr)
	}

	if c.Summary {
		for _, o := range outcomes {
			logging.DisplayResults(os.Stdout, o.inputPath, o.metadata, o.result, c.Verbose)
		}
	}

	if err := failures.ErrorOrNil(); err != nil {
		return fmt.Errorf("%d of %d file(s) failed: %w", failures.Len(), len(c.Files), err)
	}
	return nil
}

// thresholds layers flag overrides and the mains frequency over the config file
func (c *ClassifyCmd) thresholds(ctx context.Context) (*processor.Thresholds, error) {
	th, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}

	if c.EnergyFloor != nil {
		th.EnergyFloor = *c.EnergyFloor
	}
	if c.ScoreThreshold != nil {
		th.ScoreThreshold = *c.ScoreThreshold
	}
	if c.LabelVote != nil {
		th.LabelVoteWindow = *c.LabelVote
	}
	if c.MainsHz != nil {
		th.MainsHz = *c.MainsHz
	}

	hz, detection := mains.Resolve(th.MainsHz)
	th.MainsHz = hz
	if detection.Hz != 0 {
		logger.Infof(ctx, "mains frequency %d Hz from timezone %q (country %q)",
			detection.Hz, detection.Timezone, detection.Country)
	}

	if err := th.Validate(); err != nil {
		return nil, err
	}
	return th, nil
}

// classifyFile runs the pipeline on one recording and writes every requested output
func (c *ClassifyCmd) classifyFile(ctx context.Context, p *tea.Program, th *processor.Thresholds, inputPath, outputPath string) (fileOutcome, error) {
	fileStartTime := time.Now()

	clip, err := audio.ReadWAV(inputPath)
	if err != nil {
		return fileOutcome{}, err
	}

	buf := processor.Buffer{
		Samples:    clip.Samples,
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
	}

	// Create progress handler
	ph := &progressHandler{p: p, ctx: ctx}

	result, err := processor.Classify(ctx, buf, th, ph.callback)
	if err != nil {
		return fileOutcome{}, err
	}

	if err := export.WriteResultsFile(outputPath, result); err != nil {
		return fileOutcome{}, err
	}

	runID := uuid.NewString()

	// Optional outputs are written best effort; a failure is still reported
	var errs *multierror.Error
	if c.Features {
		report := export.NewFeatureReport(runID, inputPath, th, result)
		errs = multierror.Append(errs, export.WriteFeaturesFile(c.sidecarPath(inputPath, "features.json"), report))
	}
	if c.Plot {
		errs = multierror.Append(errs, c.writePlots(buf, th, result, inputPath))
	}
	if c.Logs {
		errs = multierror.Append(errs, logging.GenerateReport(logging.ReportData{
			InputPath:    inputPath,
			OutputPath:   outputPath,
			RunID:        runID,
			StartTime:    fileStartTime,
			EndTime:      time.Now(),
			Pass1Time:    ph.passTime[processor.PassAnalyse],
			Pass2Time:    ph.passTime[processor.PassSmooth],
			Pass3Time:    ph.passTime[processor.PassClassify],
			Result:       result,
			Thresholds:   th,
			Channels:     clip.Channels,
			DurationSecs: clip.Duration,
		}))
	}

	outcome := fileOutcome{inputPath: inputPath, metadata: &clip.Metadata, result: result}
	return outcome, errs.ErrorOrNil()
}

// writePlots renders the feature time-series and the raw/filtered spectrum
func (c *ClassifyCmd) writePlots(buf processor.Buffer, th *processor.Thresholds, result *processor.Result, inputPath string) error {
	if err := plot.WriteFeaturesFile(c.sidecarPath(inputPath, "features.png"), result, th); err != nil {
		return err
	}

	filtered, err := processor.FilterRecording(buf, th)
	if err != nil {
		return fmt.Errorf("spectrum plot: %w", err)
	}
	return plot.WriteSpectrumFile(c.sidecarPath(inputPath, "spectrum.png"), buf.Samples, filtered, buf.SampleRate)
}

// resultsPath is the results JSON for inputPath
func (c *ClassifyCmd) resultsPath(inputPath string) string {
	if c.Output != "" && isJSONPath(c.Output) {
		return c.Output
	}
	return export.OutputPath(inputPath, c.outputDir(), "results.json")
}

// sidecarPath places an extra output next to the results JSON
func (c *ClassifyCmd) sidecarPath(inputPath, suffix string) string {
	if c.Output != "" && isJSONPath(c.Output) {
		return strings.TrimSuffix(c.Output, filepath.Ext(c.Output)) + "-" + suffix
	}
	return export.OutputPath(inputPath, c.outputDir(), suffix)
}

// outputDir is the directory given by --output, empty when outputs go next to the input
func (c *ClassifyCmd) outputDir() string {
	switch {
	case c.Output == "":
		return ""
	case isJSONPath(c.Output):
		return ""
	default:
		return c.Output
	}
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// progressHandler forwards classifier progress to the UI and times each pass
type progressHandler struct {
	p         *tea.Program
	ctx       context.Context
	passStart [processor.PassClassify + 1]time.Time
	passTime  [processor.PassClassify + 1]time.Duration
}

func (ph *progressHandler) callback(pass int, passName string, progress float64, level float64) {
	logger.Tracef(ph.ctx, "[MAIN] Sending ProgressMsg: Pass %d (%s), Progress %.1f%%, Level %.1f dB", pass, passName, progress*100, level)

	// Track pass timing
	if pass >= processor.PassAnalyse && pass <= processor.PassClassify {
		switch progress {
		case 0.0:
			ph.passStart[pass] = time.Now()
		case 1.0:
			if !ph.passStart[pass].IsZero() {
				ph.passTime[pass] = time.Since(ph.passStart[pass])
			}
		}
	}

	ph.p.Send(ui.ProgressMsg{
		Pass:     pass,
		PassName: passName,
		Progress: progress,
		Level:    level,
	})
}
