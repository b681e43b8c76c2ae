// Package config loads classifier thresholds from TOML or YAML files
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/linuxmatters/voicegate/internal/processor"
)

// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Load reads path on top of processor.DefaultThresholds and validates the result.
// Keys missing from the file keep their default; unknown keys are an error.
// An empty path returns the defaults.
func Load(path string) (*processor.Thresholds, error) {
	th := processor.DefaultThresholds()
	if path == "" {
		return th, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, th)
	case ".yaml", ".yml":
		err = decodeYAML(data, th)
	default:
		return nil, fmt.Errorf("%w: %q (use .toml, .yaml or .yml)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return th, nil
}

func decodeTOML(data []byte, th *processor.Thresholds) error {
	md, err := toml.Decode(string(data), th)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, th *processor.Thresholds) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	return dec.Decode(th)
}
