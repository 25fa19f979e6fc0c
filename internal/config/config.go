// Package config holds the tolerance constants of the layout engine. Every
// value is empirical; Default returns the tuned defaults and Load overlays a
// YAML file on top of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvConfigPath = "PAGELAYOUT_CONFIG"

type Config struct {
	// ReadingOrderTolerance is the row band used by every reading-order sort.
	ReadingOrderTolerance float64    `yaml:"readingOrderTolerance"`
	Text                  TextConfig `yaml:"text"`
	Lines                 LineConfig `yaml:"lines"`
	Boxes                 BoxConfig  `yaml:"boxes"`
	Workers               int        `yaml:"workers"`
}

type TextConfig struct {
	SameLineTolerance     float64 `yaml:"sameLineTolerance"`
	SingleCharHeightRatio float64 `yaml:"singleCharHeightRatio"`
	GapRatio              float64 `yaml:"gapRatio"`
	// FallbackSpaceRatio times the font size estimates a space glyph when the
	// renderer gave no usable width.
	FallbackSpaceRatio float64 `yaml:"fallbackSpaceRatio"`
	// BlockAcrossBoxes reconstructs boxes before merging text and refuses
	// merges that would cross a box edge.
	BlockAcrossBoxes bool `yaml:"blockAcrossBoxes"`
	Cleanup          bool `yaml:"cleanup"`
}

type LineConfig struct {
	BigSize            float64 `yaml:"bigSize"`
	MaxSmallCandidates int     `yaml:"maxSmallCandidates"`
	MergeBuffer        float64 `yaml:"mergeBuffer"`
	DedupTolerance     float64 `yaml:"dedupTolerance"`
	// Deadline bounds line and box reconstruction per page; 0 disables it.
	Deadline time.Duration `yaml:"deadline"`
}

type BoxConfig struct {
	BandTolerance      float64 `yaml:"bandTolerance"`
	HeightTolerance    float64 `yaml:"heightTolerance"`
	CollideMargin      float64 `yaml:"collideMargin"`
	MinSize            float64 `yaml:"minSize"`
	DuplicateTolerance float64 `yaml:"duplicateTolerance"`
	FrameGapRatio      float64 `yaml:"frameGapRatio"`
}

func Default() Config {
	return Config{
		ReadingOrderTolerance: 5,
		Text: TextConfig{
			SameLineTolerance:     5,
			SingleCharHeightRatio: 0.75,
			GapRatio:              0.85,
			FallbackSpaceRatio:    0.2,
			Cleanup:               true,
		},
		Lines: LineConfig{
			BigSize:            10,
			MaxSmallCandidates: 1000,
			MergeBuffer:        5,
			DedupTolerance:     5,
		},
		Boxes: BoxConfig{
			BandTolerance:      5,
			HeightTolerance:    10,
			CollideMargin:      1,
			MinSize:            5,
			DuplicateTolerance: 5,
			FrameGapRatio:      0.3,
		},
		Workers: runtime.NumCPU(),
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by PAGELAYOUT_CONFIG, or the defaults when unset.
func FromEnv() (Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}
	return Default(), nil
}

func (c Config) Validate() error {
	var errs []error
	nonNeg := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %g", name, v))
		}
	}
	ratio := func(name string, v float64) {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %g", name, v))
		}
	}
	nonNeg("readingOrderTolerance", c.ReadingOrderTolerance)
	nonNeg("text.sameLineTolerance", c.Text.SameLineTolerance)
	ratio("text.singleCharHeightRatio", c.Text.SingleCharHeightRatio)
	ratio("text.gapRatio", c.Text.GapRatio)
	ratio("text.fallbackSpaceRatio", c.Text.FallbackSpaceRatio)
	nonNeg("lines.bigSize", c.Lines.BigSize)
	nonNeg("lines.mergeBuffer", c.Lines.MergeBuffer)
	nonNeg("lines.dedupTolerance", c.Lines.DedupTolerance)
	if c.Lines.MaxSmallCandidates < 0 {
		errs = append(errs, fmt.Errorf("lines.maxSmallCandidates must not be negative, got %d", c.Lines.MaxSmallCandidates))
	}
	if c.Lines.Deadline < 0 {
		errs = append(errs, fmt.Errorf("lines.deadline must not be negative, got %s", c.Lines.Deadline))
	}
	nonNeg("boxes.bandTolerance", c.Boxes.BandTolerance)
	nonNeg("boxes.heightTolerance", c.Boxes.HeightTolerance)
	nonNeg("boxes.collideMargin", c.Boxes.CollideMargin)
	nonNeg("boxes.minSize", c.Boxes.MinSize)
	nonNeg("boxes.duplicateTolerance", c.Boxes.DuplicateTolerance)
	ratio("boxes.frameGapRatio", c.Boxes.FrameGapRatio)
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
