// Package lines turns raw path fragments into the canonical horizontal and
// vertical rulings of a page.
package lines

import (
	"context"
	"fmt"

	"github.com/pdfgrid/go/internal/config"
	"github.com/pdfgrid/go/internal/geometry"
	"github.com/pdfgrid/go/internal/logger"
	"github.com/pdfgrid/go/internal/models"
	"github.com/tidwall/rtree"
)

var Logger = logger.GetLogger("lines")

type Result struct {
	HLines []geometry.Box
	VLines []geometry.Box
	// Truncated is set when the page had too many small candidates to
	// process; both line sets are then empty.
	Truncated bool
	Reason    string
}

// Normalize coalesces candidates, adds the page boundary and returns deduped
// 1-unit rulings in reading order. ctx is checked between merge iterations.
func Normalize(ctx context.Context, candidates []geometry.Box, vp models.Viewport, cfg config.LineConfig, orderTol float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var bigs, smallH, smallV []geometry.Box
	for _, c := range candidates {
		switch {
		case c.W > cfg.BigSize && c.H > cfg.BigSize:
			bigs = append(bigs, c)
		case c.W >= c.H:
			smallH = append(smallH, c)
		default:
			smallV = append(smallV, c)
		}
	}
	if small := len(smallH) + len(smallV); cfg.MaxSmallCandidates > 0 && small > cfg.MaxSmallCandidates {
		reason := fmt.Sprintf("%d small line candidates exceed limit %d", small, cfg.MaxSmallCandidates)
		Logger.Warn("skipping line extraction", "small", small, "limit", cfg.MaxSmallCandidates)
		return Result{Truncated: true, Reason: reason}, nil
	}

	smallH, err := coalesce(ctx, smallH, cfg.MergeBuffer, nil)
	if err != nil {
		return Result{}, err
	}
	smallV, err = coalesce(ctx, smallV, cfg.MergeBuffer, nil)
	if err != nil {
		return Result{}, err
	}

	rects := make([]geometry.Box, 0, 1+len(bigs)+len(smallH)+len(smallV))
	rects = append(rects, vp.Rect())
	rects = append(rects, bigs...)
	rects = append(rects, smallH...)
	rects = append(rects, smallV...)
	geometry.SortReadingOrder(rects, orderTol)

	edges := newDeduper(cfg.DedupTolerance)
	for _, r := range rects {
		edges.add(geometry.VLine(r.X, r.Y, r.H))
		edges.add(geometry.HLine(r.X, r.Y, r.W))
		edges.add(geometry.VLine(r.Right(), r.Y, r.H))
		edges.add(geometry.HLine(r.X, r.Bottom(), r.W))
	}

	var hs, vs []geometry.Box
	for _, e := range edges.items {
		switch {
		case e.IsHorizontal():
			hs = append(hs, e)
		case e.IsVertical():
			vs = append(vs, e)
		}
	}
	geometry.SortReadingOrder(hs, orderTol)
	geometry.SortReadingOrder(vs, orderTol)

	hs, err = coalesce(ctx, hs, cfg.MergeBuffer, func(b geometry.Box) geometry.Box { b.H = 1; return b })
	if err != nil {
		return Result{}, err
	}
	vs, err = coalesce(ctx, vs, cfg.MergeBuffer, func(b geometry.Box) geometry.Box { b.W = 1; return b })
	if err != nil {
		return Result{}, err
	}

	res := Result{
		HLines: dedup(hs, cfg.DedupTolerance),
		VLines: dedup(vs, cfg.DedupTolerance),
	}
	geometry.SortReadingOrder(res.HLines, orderTol)
	geometry.SortReadingOrder(res.VLines, orderTol)
	Logger.Debug("normalized lines", "candidates", len(candidates), "bigs", len(bigs),
		"hlines", len(res.HLines), "vlines", len(res.VLines))
	return res, nil
}

// coalesce repeatedly replaces a box and the first box colliding with it
// (inflated by buffer) with their union until nothing collides. Absorbed
// boxes are tombstoned rather than spliced out so slot indexes stay stable.
// thin, when set, reshapes every union.
func coalesce(ctx context.Context, boxes []geometry.Box, buffer float64, thin func(geometry.Box) geometry.Box) ([]geometry.Box, error) {
	items := make([]geometry.Box, len(boxes))
	copy(items, boxes)
	alive := make([]bool, len(items))
	var tr rtree.RTreeG[int]
	for i, b := range items {
		alive[i] = true
		tr.Insert(b.Min(), b.Max(), i)
	}

	for changed := true; changed; {
		changed = false
		for i := range items {
			if !alive[i] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for {
				j := firstCollision(&tr, items, alive, i, buffer)
				if j < 0 {
					break
				}
				u := geometry.UnionRect(items[i], items[j])
				if thin != nil {
					u = thin(u)
				}
				items[i] = u
				alive[j] = false
				tr.Insert(u.Min(), u.Max(), i)
				changed = true
			}
		}
	}

	out := items[:0]
	for i, b := range items {
		if alive[i] {
			out = append(out, b)
		}
	}
	return out, nil
}

// firstCollision returns the lowest alive slot other than i whose inflated box
// touches items[i], or -1.
func firstCollision(tr *rtree.RTreeG[int], items []geometry.Box, alive []bool, i int, buffer float64) int {
	area := items[i].Inflate(buffer)
	best := -1
	tr.Search(area.Min(), area.Max(), func(_, _ [2]float64, j int) bool {
		if j == i || !alive[j] || (best >= 0 && j >= best) {
			return true
		}
		// the tree keeps stale extents for grown slots
		if geometry.CollideRectRect(items[j].Inflate(buffer), items[i]) {
			best = j
		}
		return true
	})
	return best
}

// deduper keeps boxes that are not within tol of one already kept.
type deduper struct {
	tol   float64
	tr    rtree.RTreeG[int]
	items []geometry.Box
}

func newDeduper(tol float64) *deduper { return &deduper{tol: tol} }

func (d *deduper) add(b geometry.Box) bool {
	area := b.Inflate(d.tol)
	dup := false
	d.tr.Search(area.Min(), area.Max(), func(_, _ [2]float64, j int) bool {
		if geometry.EqualsRectObj(d.items[j], b, d.tol) {
			dup = true
			return false
		}
		return true
	})
	if dup {
		return false
	}
	d.tr.Insert(b.Min(), b.Max(), len(d.items))
	d.items = append(d.items, b)
	return true
}

func dedup(boxes []geometry.Box, tol float64) []geometry.Box {
	d := newDeduper(tol)
	for _, b := range boxes {
		d.add(b)
	}
	return d.items
}
