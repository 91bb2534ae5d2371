// Package enginecfg implements the optional YAML sidecar configuration
// for the CLI: default viewport, plus a retry section that is parsed but
// not acted on.
package enginecfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional sidecar file's shape. Every field is optional;
// zero values mean "use the engine's own default".
type Config struct {
	DefaultWidth  int `yaml:"default_width"`
	DefaultHeight int `yaml:"default_height"`

	// Retry is parsed and exposed on Config; the staticweb CLI does not
	// read it.
	Retry struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"retry"`
}

// Load reads and parses a YAML config file at path. A missing file is not
// an error; it returns the zero Config so callers fall back to built-in
// defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("enginecfg: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("enginecfg: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyDefaults fills in width/height where they are unset (<= 0) from cfg's
// positive default fields, returning the effective viewport. Values the
// caller already set are kept.
func (cfg Config) ApplyDefaults(width, height int) (int, int) {
	if width <= 0 && cfg.DefaultWidth > 0 {
		width = cfg.DefaultWidth
	}
	if height <= 0 && cfg.DefaultHeight > 0 {
		height = cfg.DefaultHeight
	}
	return width, height
}
