package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfgrid/go/internal/config"
	"github.com/pdfgrid/go/internal/geometry"
	"github.com/pdfgrid/go/internal/lines"
	"github.com/pdfgrid/go/internal/logger"
	"github.com/pdfgrid/go/internal/models"
	"github.com/pdfgrid/go/internal/table"
	"github.com/pdfgrid/go/internal/text"
)

var Logger = logger.GetLogger("extractor")

// runKey identifies a run for deduplication: same text at the same origin.
type runKey struct {
	text string
	x, y float64
}

// ExtractPage runs the full reconstruction on one page. Only invalid input
// and cancellation of ctx are errors; a page with too much line work, or one
// that exceeds cfg.Lines.Deadline, comes back with Truncated set.
func ExtractPage(ctx context.Context, in *models.PageInput, cfg config.Config) (*models.Layout, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("page %d: %w", in.Number, err)
	}

	vp := *in.Viewport
	tol := cfg.ReadingOrderTolerance
	seen := make(map[runKey]bool, len(in.Texts))
	runs := collectRuns(in.Texts, cfg.Text, seen)
	notes := collectAnnotations(in.Annotations, vp, seen)
	candidates := lines.FromPathEvents(in.Paths)
	Logger.Debug("page input", "page", in.Number, "runs", len(in.Texts), "unique", len(runs),
		"annotations", len(notes), "candidates", len(candidates))

	layout := &models.Layout{Page: in.Number, Viewport: vp}
	var err error
	if cfg.Text.BlockAcrossBoxes {
		// boxes first, with unmerged runs as evidence, then merge inside them
		evidence := append(append([]models.TextBlock(nil), runs...), notes...)
		if err = structure(ctx, layout, candidates, evidence, cfg); err != nil {
			return nil, fmt.Errorf("page %d: %w", in.Number, err)
		}
		layout.Texts, err = text.Merge(ctx, runs, layout.Boxes, cfg.Text, tol)
		if err != nil {
			return nil, fmt.Errorf("page %d: merge text: %w", in.Number, err)
		}
		layout.Texts = append(layout.Texts, notes...)
	} else {
		layout.Texts, err = text.Merge(ctx, runs, nil, cfg.Text, tol)
		if err != nil {
			return nil, fmt.Errorf("page %d: merge text: %w", in.Number, err)
		}
		layout.Texts = append(layout.Texts, notes...)
		if err = structure(ctx, layout, candidates, layout.Texts, cfg); err != nil {
			return nil, fmt.Errorf("page %d: %w", in.Number, err)
		}
	}
	geometry.SortReadingOrder(layout.Texts, tol)

	if cfg.Text.Cleanup {
		CleanupPage(layout)
	}
	Logger.Debug("page done", "page", in.Number, "hlines", len(layout.HLines), "vlines", len(layout.VLines),
		"boxes", len(layout.Boxes), "texts", len(layout.Texts), "truncated", layout.Truncated)
	return layout, nil
}

// structure fills the line and box sets of layout. The optional line deadline
// only truncates; cancellation of ctx itself is returned.
func structure(ctx context.Context, layout *models.Layout, candidates []geometry.Box, texts []models.TextBlock, cfg config.Config) error {
	sctx := ctx
	if cfg.Lines.Deadline > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, cfg.Lines.Deadline)
		defer cancel()
	}
	return structureWithin(ctx, sctx, layout, candidates, texts, cfg)
}

func structureWithin(ctx, sctx context.Context, layout *models.Layout, candidates []geometry.Box, texts []models.TextBlock, cfg config.Config) error {
	tol := cfg.ReadingOrderTolerance
	truncate := func(err error) error {
		if ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		Logger.Warn("line deadline exceeded", "page", layout.Page, "deadline", cfg.Lines.Deadline)
		layout.HLines, layout.VLines, layout.Boxes = nil, nil, nil
		layout.Truncated = true
		layout.TruncatedReason = fmt.Sprintf("line reconstruction exceeded %s", cfg.Lines.Deadline)
		return nil
	}

	res, err := lines.Normalize(sctx, candidates, layout.Viewport, cfg.Lines, tol)
	if err != nil {
		return truncate(fmt.Errorf("normalize lines: %w", err))
	}
	if res.Truncated {
		layout.Truncated, layout.TruncatedReason = true, res.Reason
		return nil
	}

	out, err := table.Reconstruct(sctx, table.Input{
		HLines:   res.HLines,
		VLines:   res.VLines,
		Texts:    texts,
		Viewport: layout.Viewport,
	}, cfg.Boxes, tol)
	if err != nil {
		return truncate(fmt.Errorf("reconstruct boxes: %w", err))
	}
	layout.HLines, layout.VLines, layout.Boxes = out.HLines, out.VLines, out.Boxes
	return nil
}

func collectRuns(runs []models.TextRun, cfg config.TextConfig, seen map[runKey]bool) []models.TextBlock {
	out := make([]models.TextBlock, 0, len(runs))
	for _, r := range runs {
		b := text.Block(r, cfg.FallbackSpaceRatio)
		k := runKey{b.Text, b.Box.X, b.Box.Y}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out
}

// collectAnnotations turns filled form fields into finished text blocks.
// They carry no space width and never take part in merging.
func collectAnnotations(annots []models.Annotation, vp models.Viewport, seen map[runKey]bool) []models.TextBlock {
	var out []models.TextBlock
	for _, a := range annots {
		value := text.NormalizeRun(strings.TrimSpace(strings.Join(a.FieldValue, " ")))
		if value == "" {
			continue
		}
		b := models.TextBlock{Box: vp.ConvertRect(a.Rect), Text: value}
		k := runKey{b.Text, b.Box.X, b.Box.Y}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out
}
