package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := writeConfig(t, `
text:
  blockAcrossBoxes: true
  gapRatio: 0.5
lines:
  deadline: 250ms
boxes:
  minSize: 8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	def := Default()
	if !cfg.Text.BlockAcrossBoxes || cfg.Text.GapRatio != 0.5 {
		t.Errorf("text overrides not applied: %+v", cfg.Text)
	}
	if cfg.Lines.Deadline != 250*time.Millisecond {
		t.Errorf("Lines.Deadline = %v", cfg.Lines.Deadline)
	}
	if cfg.Boxes.MinSize != 8 {
		t.Errorf("Boxes.MinSize = %v", cfg.Boxes.MinSize)
	}
	if cfg.Text.SameLineTolerance != def.Text.SameLineTolerance ||
		cfg.Lines.MaxSmallCandidates != def.Lines.MaxSmallCandidates ||
		cfg.Boxes.FrameGapRatio != def.Boxes.FrameGapRatio ||
		!cfg.Text.Cleanup {
		t.Errorf("untouched keys lost their defaults: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"ratio above one", "text:\n  gapRatio: 1.5\n", "text.gapRatio"},
		{"negative tolerance", "boxes:\n  minSize: -1\n", "boxes.minSize"},
		{"zero frame ratio", "boxes:\n  frameGapRatio: 0\n", "boxes.frameGapRatio"},
		{"negative candidates", "lines:\n  maxSmallCandidates: -3\n", "lines.maxSmallCandidates"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "text: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	cfg, err := FromEnv()
	if err != nil || cfg.ReadingOrderTolerance != 5 {
		t.Fatalf("FromEnv() = %+v, %v", cfg, err)
	}
	t.Setenv(EnvConfigPath, writeConfig(t, "readingOrderTolerance: 3\n"))
	cfg, err = FromEnv()
	if err != nil || cfg.ReadingOrderTolerance != 3 {
		t.Fatalf("FromEnv() = %+v, %v", cfg, err)
	}
}
