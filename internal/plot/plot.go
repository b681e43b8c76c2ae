// Package plot renders feature time-series and spectrum comparison charts as PNG
package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/linuxmatters/voicegate/internal/processor"
)

// Palette
var (
	rawColour       = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	smoothedColour  = color.RGBA{R: 30, G: 100, B: 200, A: 255}
	thresholdColour = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	voiceColour     = color.RGBA{R: 80, G: 200, B: 120, A: 80}
)

const (
	featureWidth     = 24 * vg.Centimeter
	featureRowHeight = 5 * vg.Centimeter
	spectrumWidth    = 24 * vg.Centimeter
	spectrumHeight   = 10 * vg.Centimeter

	// maxSpectrumPoints bounds the number of points drawn per spectrum
	maxSpectrumPoints = 2000
)

// featurePanel describes one row of the feature chart
type featurePanel struct {
	title     string
	value     func(processor.FeatureVector) float64
	threshold []float64
}

func featurePanels(th *processor.Thresholds) []featurePanel {
	return []featurePanel{
		{"Total energy (Σx²)", func(fv processor.FeatureVector) float64 { return fv.TotalEnergy }, []float64{th.EnergyFloor}},
		{"Spectral flatness", func(fv processor.FeatureVector) float64 { return fv.Flatness }, []float64{th.FlatnessCeiling}},
		{"Pitch (Hz)", func(fv processor.FeatureVector) float64 { return fv.PitchHz }, []float64{th.PitchMinHz, th.PitchMaxHz}},
		{"Voicing probability", func(fv processor.FeatureVector) float64 { return fv.VoicingProbability }, []float64{th.VoicingFloor}},
		{"Voice band ratio (log10)", func(fv processor.FeatureVector) float64 { return fv.VoiceBandRatioLog }, []float64{th.VoiceBandFloor}},
	}
}

// WriteFeatures draws one panel per feature with raw and smoothed values against
// segment midpoints, the decision thresholds, and voice segments shaded.
func WriteFeatures(w io.Writer, r *processor.Result, th *processor.Thresholds) error {
	if len(r.Segments) == 0 {
		return fmt.Errorf("no segments to plot")
	}

	panels := featurePanels(th)
	rows := make([][]*plot.Plot, len(panels))
	for i, panel := range panels {
		p, err := featurePlot(r, panel)
		if err != nil {
			return fmt.Errorf("failed to build %s panel: %w", panel.title, err)
		}
		if i == len(panels)-1 {
			p.X.Label.Text = "Time (s)"
		}
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(featureWidth, featureRowHeight*vg.Length(len(panels)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      2 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}

	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

func featurePlot(r *processor.Result, panel featurePanel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.title
	p.Add(plotter.NewGrid())

	raw := make(plotter.XYs, len(r.Segments))
	smoothed := make(plotter.XYs, len(r.Segments))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range r.Segments {
		mid := (s.StartTime + s.EndTime) / 2
		raw[i] = plotter.XY{X: mid, Y: panel.value(s.Raw)}
		smoothed[i] = plotter.XY{X: mid, Y: panel.value(s.Smoothed)}
		lo = math.Min(lo, math.Min(raw[i].Y, smoothed[i].Y))
		hi = math.Max(hi, math.Max(raw[i].Y, smoothed[i].Y))
	}
	for _, t := range panel.threshold {
		lo, hi = math.Min(lo, t), math.Max(hi, t)
	}
	if hi <= lo {
		hi = lo + 1
	}

	// Voice segments as shaded columns behind the data
	for _, s := range r.Segments {
		if s.Label != processor.LabelVoice {
			continue
		}
		shade, err := plotter.NewPolygon(plotter.XYs{
			{X: s.StartTime, Y: lo}, {X: s.EndTime, Y: lo},
			{X: s.EndTime, Y: hi}, {X: s.StartTime, Y: hi},
		})
		if err != nil {
			return nil, err
		}
		shade.Color = voiceColour
		shade.LineStyle.Width = 0
		p.Add(shade)
	}

	rawLine, rawPoints, err := plotter.NewLinePoints(raw)
	if err != nil {
		return nil, err
	}
	rawLine.Color = rawColour
	rawLine.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	rawPoints.Color = rawColour

	smoothLine, smoothPoints, err := plotter.NewLinePoints(smoothed)
	if err != nil {
		return nil, err
	}
	smoothLine.Color = smoothedColour
	smoothLine.Width = vg.Points(1.5)
	smoothPoints.Color = smoothedColour

	p.Add(rawLine, rawPoints, smoothLine, smoothPoints)
	p.Legend.Add("raw", rawLine)
	p.Legend.Add("smoothed", smoothLine)

	for _, t := range panel.threshold {
		level := t
		f := plotter.NewFunction(func(float64) float64 { return level })
		f.Color = thresholdColour
		f.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		p.Add(f)
	}

	p.X.Min = r.Segments[0].StartTime
	p.X.Max = r.Segments[len(r.Segments)-1].EndTime
	p.Y.Min, p.Y.Max = lo, hi
	p.Legend.Top = true
	return p, nil
}

// WriteSpectrum draws the magnitude spectra (dB) of the raw and bandpass-filtered
// recording on shared axes.
func WriteSpectrum(w io.Writer, raw, filtered []float64, sampleRate int) error {
	if len(raw) == 0 || len(raw) != len(filtered) {
		return fmt.Errorf("spectrum plot needs equal, non-empty signals (got %d and %d samples)", len(raw), len(filtered))
	}

	analyzer := processor.NewSpectralAnalyzer(sampleRate, processor.WindowRectangular)
	rawXY := spectrumXYs(analyzer.Analyze(raw))
	filteredXY := spectrumXYs(analyzer.Analyze(filtered))

	p := plot.New()
	p.Title.Text = "Raw vs filtered spectrum"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Magnitude (dB)"
	p.Add(plotter.NewGrid())

	rawLine, err := plotter.NewLine(rawXY)
	if err != nil {
		return err
	}
	rawLine.Color = rawColour
	filteredLine, err := plotter.NewLine(filteredXY)
	if err != nil {
		return err
	}
	filteredLine.Color = smoothedColour

	p.Add(rawLine, filteredLine)
	p.Legend.Add("raw", rawLine)
	p.Legend.Add("filtered", filteredLine)
	p.Legend.Top = true

	wt, err := p.WriterTo(spectrumWidth, spectrumHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render spectrum: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// spectrumXYs converts a spectrum to dB points, keeping the peak of each bucket
// when there are more bins than maxSpectrumPoints.
func spectrumXYs(s *processor.Spectrum) plotter.XYs {
	bins := len(s.Magnitudes)
	bucket := max(1, (bins+maxSpectrumPoints-1)/maxSpectrumPoints)

	xys := make(plotter.XYs, 0, bins/bucket+1)
	for start := 0; start < bins; start += bucket {
		end := min(bins, start+bucket)
		peak, at := 0.0, start
		for k := start; k < end; k++ {
			if s.Magnitudes[k] > peak {
				peak, at = s.Magnitudes[k], k
			}
		}
		xys = append(xys, plotter.XY{X: s.Frequency(at), Y: 20 * math.Log10(peak+1e-10)})
	}
	return xys
}

// WriteFeaturesFile renders WriteFeatures into a PNG file
func WriteFeaturesFile(path string, r *processor.Result, th *processor.Thresholds) error {
	return writeFile(path, func(w io.Writer) error { return WriteFeatures(w, r, th) })
}

// WriteSpectrumFile renders WriteSpectrum into a PNG file
func WriteSpectrumFile(path string, raw, filtered []float64, sampleRate int) error {
	return writeFile(path, func(w io.Writer) error { return WriteSpectrum(w, raw, filtered, sampleRate) })
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
