// Package audio provides WAV file I/O and microphone capture
package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when a file is not a readable PCM WAV container
var ErrNotWAV = errors.New("not a valid WAV file")

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// Clip is a decoded recording. Samples are interleaved when Channels > 1 and
// scaled to [-1, 1].
type Clip struct {
	Samples []float64
	Metadata
}

// ReadWAV decodes a whole PCM WAV file into memory
func ReadWAV(filename string) (*Clip, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrNotWAV, filename)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: %s has audio format %d, need integer PCM", ErrNotWAV, filename, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: missing format chunk in %s", ErrNotWAV, filename)
	}

	samples, err := toFloat(buf, int(decoder.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	channels := buf.Format.NumChannels
	frames := len(samples) / channels
	return &Clip{
		Samples: samples,
		Metadata: Metadata{
			Duration:   float64(frames) / float64(buf.Format.SampleRate),
			SampleRate: buf.Format.SampleRate,
			Channels:   channels,
			BitDepth:   int(decoder.BitDepth),
			Frames:     frames,
		},
	}, nil
}

// toFloat scales integer PCM to [-1, 1]. 8-bit WAV is unsigned; wider depths are signed.
func toFloat(buf *goaudio.IntBuffer, bitDepth int) ([]float64, error) {
	var offset, scale float64
	switch bitDepth {
	case 8:
		offset, scale = 128, 128
	case 16, 24, 32:
		scale = float64(int64(1) << (bitDepth - 1))
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	out := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = (float64(v) - offset) / scale
	}
	return out, nil
}
