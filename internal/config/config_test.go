package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/voicegate/internal/processor"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "voicegate.toml", "energy_floor = 0.5\nscore_threshold = 5\nwindow = \"hann\"\n"},
		{"yaml", "voicegate.yaml", "energy_floor: 0.5\nscore_threshold: 5\nwindow: hann\n"},
		{"yml", "voicegate.yml", "energy_floor: 0.5\nscore_threshold: 5\nwindow: hann\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Load(writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)

			want := processor.DefaultThresholds()
			want.EnergyFloor = 0.5
			want.ScoreThreshold = 5
			want.Window = processor.WindowHann
			assert.Equal(t, want, th)
		})
	}
}

func TestLoadEmptyPath(t *testing.T) {
	th, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, processor.DefaultThresholds(), th)
}

func TestLoadEmptyFile(t *testing.T) {
	for _, name := range []string{"empty.toml", "empty.yaml"} {
		th, err := Load(writeConfig(t, name, ""))
		require.NoError(t, err, name)
		assert.Equal(t, processor.DefaultThresholds(), th, name)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		_, err := Load(writeConfig(t, "voicegate.json", "{}"))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("unknown toml key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.toml", "energy_flor = 1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "energy_flor")
	})

	t.Run("unknown yaml key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.yaml", "energy_flor: 1\n"))
		assert.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.toml", "sample_rate = 44100\n"))
		assert.True(t, errors.Is(err, processor.ErrInvalidThresholds))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Load(writeConfig(t, "bad.toml", "energy_floor = = 1\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})
}
