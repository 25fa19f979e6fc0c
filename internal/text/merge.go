package text

import (
	"context"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/pdfgrid/go/internal/config"
	"github.com/pdfgrid/go/internal/geometry"
	"github.com/pdfgrid/go/internal/logger"
	"github.com/pdfgrid/go/internal/models"
	"github.com/tidwall/rtree"
)

var Logger = logger.GetLogger("text")

// AreAdjacent reports whether right continues left on the same line. A nil
// threshold means left.SpaceWidth * cfg.GapRatio.
func AreAdjacent(left, right models.TextBlock, threshold *float64, cfg config.TextConfig) bool {
	dy := cfg.SameLineTolerance
	if utf8.RuneCountInString(right.Text) == 1 {
		dy = left.Box.H * cfg.SingleCharHeightRatio
	}
	if math.Abs(left.Box.Y-right.Box.Y) > dy {
		return false
	}
	limit := left.SpaceWidth * cfg.GapRatio
	if threshold != nil {
		limit = *threshold
	}
	gap := right.Box.X - left.Box.X - left.Box.W
	return gap >= -left.SpaceWidth && gap <= limit
}

// Merge fuses adjacent blocks until a full pass merges nothing, then returns
// the survivors in reading order. The input slice is not modified. With
// cfg.BlockAcrossBoxes set, a merge is refused when a box edge separates the
// two blocks.
func Merge(ctx context.Context, blocks []models.TextBlock, boxes []geometry.Box, cfg config.TextConfig, orderTol float64) ([]models.TextBlock, error) {
	out := make([]models.TextBlock, len(blocks))
	copy(out, blocks)
	geometry.SortReadingOrder(out, orderTol)

	if !cfg.BlockAcrossBoxes {
		boxes = nil
	}
	passes, total := 0, 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, merged := mergePass(out, boxes, cfg)
		passes++
		total += merged
		out = next
		if merged == 0 {
			break
		}
	}
	geometry.SortReadingOrder(out, orderTol)
	Logger.Debug("merged text", "in", len(blocks), "out", len(out), "merges", total, "passes", passes)
	return out, nil
}

// mergePass runs one scan over blocks and returns the survivors with the
// number of merges made.
func mergePass(blocks []models.TextBlock, boxes []geometry.Box, cfg config.TextConfig) ([]models.TextBlock, int) {
	var tr rtree.RTreeG[int]
	for i := range blocks {
		tr.Insert(blocks[i].Box.Min(), blocks[i].Box.Max(), i)
	}

	merged := make([]bool, len(blocks))
	count := 0
	for i := range blocks {
		if merged[i] {
			continue
		}
		t := &blocks[i]
		grew := false
		for _, j := range candidates(&tr, blocks, merged, i, cfg) {
			c := blocks[j]
			if blocked(t.Box, c.Box, boxes) {
				break
			}
			t.Text += c.Text
			t.Box = geometry.UnionRect(t.Box, c.Box)
			merged[j] = true
			grew = true
			count++
		}
		if grew {
			// stale entries resolve to the same slot and are re-verified
			tr.Insert(t.Box.Min(), t.Box.Max(), i)
		}
	}
	if count == 0 {
		return blocks, 0
	}

	out := blocks[:0:0]
	for i, b := range blocks {
		if !merged[i] {
			out = append(out, b)
		}
	}
	return out, count
}

// candidates returns the unmerged blocks adjacent to blocks[i], sorted by x.
func candidates(tr *rtree.RTreeG[int], blocks []models.TextBlock, merged []bool, i int, cfg config.TextConfig) []int {
	t := blocks[i]
	sw := t.SpaceWidth
	lo, hi := t.Box.Right()-sw, t.Box.Right()+math.Max(sw*cfg.GapRatio, 0)
	dy := math.Max(cfg.SameLineTolerance, t.Box.H*cfg.SingleCharHeightRatio)
	if !(lo <= hi) {
		return nil
	}

	seen := make(map[int]bool)
	var found []int
	tr.Search([2]float64{lo, t.Box.Y - dy}, [2]float64{hi, t.Box.Y + dy + t.Box.H}, func(_, _ [2]float64, j int) bool {
		if j == i || merged[j] || seen[j] {
			return true
		}
		seen[j] = true
		if AreAdjacent(t, blocks[j], nil, cfg) {
			found = append(found, j)
		}
		return true
	})
	sort.SliceStable(found, func(a, b int) bool {
		if blocks[found[a]].Box.X != blocks[found[b]].Box.X {
			return blocks[found[a]].Box.X < blocks[found[b]].Box.X
		}
		return found[a] < found[b]
	})
	return found
}

// blocked reports whether a vertical edge of any box runs between the
// centroids of t and c at their mid height.
func blocked(t, c geometry.Box, boxes []geometry.Box) bool {
	if len(boxes) == 0 {
		return false
	}
	tc, cc := t.Centroid(), c.Centroid()
	x0, x1 := math.Min(tc.X, cc.X), math.Max(tc.X, cc.X)
	midY := (tc.Y + cc.Y) / 2
	for _, b := range boxes {
		if midY < b.Y || midY > b.Bottom() {
			continue
		}
		if (b.X > x0 && b.X < x1) || (b.Right() > x0 && b.Right() < x1) {
			return true
		}
	}
	return false
}
