package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	samples := make([]int16, 16000)
	for i := range samples {
		samples[i] = int16(math.Round(16384 * math.Sin(2*math.Pi*440*float64(i)/16000)))
	}
	require.NoError(t, WritePCM16(path, samples, 16000))

	clip, err := ReadWAV(path)
	require.NoError(t, err)

	assert.Equal(t, 16000, clip.SampleRate)
	assert.Equal(t, 1, clip.Channels)
	assert.Equal(t, 16, clip.BitDepth)
	assert.Equal(t, 16000, clip.Frames)
	assert.InDelta(t, 1.0, clip.Duration, 1e-9)
	require.Len(t, clip.Samples, len(samples))
	for i := range samples {
		assert.Equal(t, float64(samples[i])/32768, clip.Samples[i])
	}
}

func TestWritePCM16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcm.wav")
	require.NoError(t, WritePCM16(path, []int16{0, 16384, -16384, math.MinInt16, math.MaxInt16}, 16000))

	clip, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, -0.5, -1, 32767.0 / 32768}, clip.Samples)
}

func TestReadWAVRejectsFloatFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	// WAVE_FORMAT_IEEE_FLOAT
	encoder := wav.NewEncoder(f, 16000, 32, 1, 3)
	require.NoError(t, encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, 1600),
		SourceBitDepth: 32,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, f.Close())

	_, err = ReadWAV(path)
	assert.True(t, errors.Is(err, ErrNotWAV), "got %v", err)
	assert.ErrorContains(t, err, "audio format 3")
}

func TestReadWAVRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF data"), 0o644))

	_, err := ReadWAV(path)
	assert.True(t, errors.Is(err, ErrNotWAV), "got %v", err)

	_, err = ReadWAV(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func s16(values ...int16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func TestPCMAccumulator(t *testing.T) {
	acc := newPCMAccumulator(5)

	acc.write(s16(100, -100, 200))
	n, _ := acc.snapshot()
	assert.Equal(t, 3, n)

	select {
	case <-acc.done:
		t.Fatal("accumulator finished early")
	default:
	}

	acc.write(s16(300, 400, 500, 600))
	<-acc.done
	assert.Equal(t, []int16{100, -100, 200, 300, 400}, acc.result())

	// Writes after completion are ignored
	acc.write(s16(1, 2, 3))
	assert.Len(t, acc.result(), 5)
}

func TestLevelDB(t *testing.T) {
	assert.Equal(t, -60.0, levelDB(0))
	assert.InDelta(t, -6.02, levelDB(0.5), 0.01)
	assert.Equal(t, 0.0, levelDB(2))
}
