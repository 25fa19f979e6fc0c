package text

import (
	"math"
	"strings"
	"unicode"

	"github.com/pdfgrid/go/internal/models"
	"golang.org/x/text/unicode/norm"
)

// NormalizeRun maps every Unicode space to U+0020 and composes the result to
// NFC. Length in runes may shrink but spaces are never dropped, so glyph
// positions stay meaningful.
func NormalizeRun(s string) string {
	if s == "" {
		return ""
	}
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return norm.NFC.String(mapped)
}

// Cleanup tidies merged block text: invalid UTF-8 and replacement characters
// are removed, runs of spaces collapse to one and the ends are trimmed.
func Cleanup(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\uFFFD", "")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// BaseFontName strips a subset tag such as "ABCDEF+" from an embedded font name.
func BaseFontName(name string) string {
	parts := strings.Split(name, "+")
	if len(parts) == 2 {
		return parts[1]
	}
	return name
}

// SpaceWidth returns the run's space estimate, or ratio times the font size
// (the run height when no size is known) if the estimate is unusable.
func SpaceWidth(run models.TextRun, ratio float64) float64 {
	if sw := run.SpaceWidth; sw > 0 && !math.IsInf(sw, 0) && !math.IsNaN(sw) {
		return sw
	}
	size := run.Height
	if run.Font != nil && run.Font.Size > 0 {
		size = run.Font.Size
	}
	return ratio * size
}

// Block turns a renderer run into a merge-ready block.
func Block(run models.TextRun, fallbackRatio float64) models.TextBlock {
	b := models.TextBlock{
		Text:       NormalizeRun(run.Text),
		SpaceWidth: SpaceWidth(run, fallbackRatio),
	}
	b.Box.X, b.Box.Y, b.Box.W, b.Box.H = run.X, run.Y, run.Width, run.Height
	if run.Font != nil {
		f := *run.Font
		f.Name = BaseFontName(f.Name)
		b.Font = &f
	}
	return b
}
