// Package config loads the optional .ibpcode.yaml project file, following
// the teacher's pattern of a small goccy/go-yaml-backed struct with
// sensible zero-value defaults and CLI flags overriding file values
// (SPEC_FULL.md §2).
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds the knobs a .ibpcode.yaml file or CLI flags can set.
type Config struct {
	// Color enables ANSI colour in diagnostic output.
	Color bool `yaml:"color"`
	// MaxLoopSteps bounds the total number of while/for/until iterations,
	// counted across all loops of one run, before the evaluator aborts the
	// run with an Unsupported diagnostic, guarding against runaway
	// scripts. Zero means unbounded.
	MaxLoopSteps int `yaml:"maxLoopSteps"`
	// Stdlib controls whether the bundled Collection/Stack/Queue/Math
	// sources are prepended ahead of user code (internal/stdlib).
	Stdlib bool `yaml:"stdlib"`
}

// Default returns the configuration used when no .ibpcode.yaml file is
// present and no flags override it.
func Default() *Config {
	return &Config{
		Color:        true,
		MaxLoopSteps: 0,
		Stdlib:       true,
	}
}

// Load reads and parses a YAML config file at path. A missing file is not
// an error — Default() is returned unchanged, matching the "optional
// project file" framing in SPEC_FULL.md §2.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
