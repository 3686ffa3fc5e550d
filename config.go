// Copyright 2020 The Cacophony Project. All rights reserved.
// Use of this source code is governed by the Apache License Version 2.0;
// see the LICENSE file for further details.

package micromovie

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config holds the settings for one pipeline run.
type Config struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	Timestamp     bool    `yaml:"timestamp"`
	IntervalMs    int64   `yaml:"interval_ms"`
	StartOffsetMs int64   `yaml:"start_offset_ms"` // time from start of experiment to first frame
	FontPath      string  `yaml:"font"`
	FontSize      float64 `yaml:"font_size"`

	ScaleMax  int  `yaml:"scale_max"`  // fixed ceiling; 0 scans the corpus
	CorpusMax bool `yaml:"corpus_max"` // scan even when scale_max is set

	StagingDir   string `yaml:"staging_dir"` // default: <output_dir>/.staging
	ClearStaging bool   `yaml:"clear_staging"`
	Workers      int    `yaml:"workers"`
	Overwrite    bool   `yaml:"overwrite"`
	FramesOnly   bool   `yaml:"frames_only"` // write 8-bit frames to <output_dir>/frames, no video
	FFmpeg       string `yaml:"ffmpeg"`
}

// DefaultConfig returns a Config with every optional field at its default.
func DefaultConfig() Config {
	return Config{
		IntervalMs: DefaultIntervalMs,
		FontSize:   DefaultFontSize,
		Workers:    1,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration and fills in derived defaults.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return &ConfigError{Field: "input_dir", Reason: "is required"}
	}
	if c.OutputDir == "" {
		return &ConfigError{Field: "output_dir", Reason: "is required"}
	}
	if filepath.Base(filepath.Clean(c.OutputDir)) == string(filepath.Separator) {
		return &ConfigError{Field: "output_dir", Reason: "can't be the filesystem root"}
	}
	if c.ScaleMax < 0 || c.ScaleMax > math.MaxUint16 {
		return &ConfigError{Field: "scale_max", Reason: fmt.Sprintf("must be in 0-%d, got %d", math.MaxUint16, c.ScaleMax)}
	}
	if c.Timestamp {
		if c.IntervalMs <= 0 {
			return &ConfigError{Field: "interval_ms", Reason: "must be > 0"}
		}
		if c.StartOffsetMs < 0 {
			return &ConfigError{Field: "start_offset_ms", Reason: "must be >= 0"}
		}
		if c.FontSize <= 0 {
			c.FontSize = DefaultFontSize
		}
		if c.FontPath == "" {
			c.FontPath = DefaultFontPath()
		}
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.StagingDir == "" {
		c.StagingDir = filepath.Join(c.OutputDir, ".staging")
	}
	return nil
}

// Mode returns the scale mode selected by the config. The corpus is
// scanned unless a fixed ceiling is given.
func (c *Config) Mode() ScaleMode {
	if c.CorpusMax || c.ScaleMax == 0 {
		return CorpusMax()
	}
	return Fixed(uint16(c.ScaleMax))
}

// ArtifactPath returns where the video is written:
// <output_dir>/<basename of output_dir>.mp4. Relative directories such as
// "." are named after the directory they resolve to.
func (c *Config) ArtifactPath() string {
	dir := filepath.Clean(c.OutputDir)
	name := dir
	if abs, err := filepath.Abs(dir); err == nil {
		name = abs
	}
	return filepath.Join(dir, filepath.Base(name)+".mp4")
}

// ExportDir returns where frames go in frames only mode.
func (c *Config) ExportDir() string {
	return filepath.Join(c.OutputDir, "frames")
}
