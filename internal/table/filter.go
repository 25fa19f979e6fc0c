package table

import (
	"sort"

	"github.com/pdfgrid/go/internal/config"
	"github.com/pdfgrid/go/internal/geometry"
	"github.com/pdfgrid/go/internal/models"
	"github.com/tidwall/rtree"
)

type candidate struct {
	box     geometry.Box
	ignored bool
}

// filterBoxes drops empty, degenerate, duplicate and frame candidates and
// returns the rest in reading order. Candidates are visited smallest first.
func filterBoxes(boxes []geometry.Box, texts []models.TextBlock, cfg config.BoxConfig, orderTol float64) []geometry.Box {
	cands := make([]*candidate, len(boxes))
	for i, b := range boxes {
		cands[i] = &candidate{box: b}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].box.Area() < cands[j].box.Area() })

	var centroids rtree.RTreeG[struct{}]
	for _, t := range texts {
		c := t.Box.Centroid()
		p := [2]float64{c.X, c.Y}
		centroids.Insert(p, p, struct{}{})
	}

	for _, c := range cands {
		b := c.box
		if !hasContent(&centroids, b) {
			c.ignored = true
			continue
		}
		if b.W < cfg.MinSize || b.H < cfg.MinSize {
			Logger.Debug("box too small", "box", b)
			c.ignored = true
			continue
		}
		var others []*candidate
		for _, o := range cands {
			if o != c && !o.ignored {
				others = append(others, o)
			}
		}
		if duplicated(b, others, cfg.DuplicateTolerance) {
			Logger.Debug("duplicate box", "box", b)
			c.ignored = true
			continue
		}

		var children []geometry.Box
		var childCands []*candidate
		for _, o := range others {
			if geometry.InsideRectRect(o.box, b) {
				childCands = append(childCands, o)
			}
		}
		switch len(childCands) {
		case 0:
		case 1:
			childCands[0].ignored = true
		default:
			for _, o := range childCands {
				children = append(children, o.box)
			}
			if isFrame(b, children, cfg.FrameGapRatio, orderTol) {
				Logger.Debug("frame box", "box", b, "children", len(children))
				c.ignored = true
			}
		}
	}

	var out []geometry.Box
	for _, c := range cands {
		if !c.ignored {
			out = append(out, c.box)
		}
	}
	geometry.SortReadingOrder(out, orderTol)
	return out
}

func hasContent(tr *rtree.RTreeG[struct{}], b geometry.Box) bool {
	found := false
	tr.Search(b.Min(), b.Max(), func(_, _ [2]float64, _ struct{}) bool {
		found = true
		return false
	})
	return found
}

func duplicated(b geometry.Box, others []*candidate, tol float64) bool {
	for _, o := range others {
		if geometry.EqualsRectObj(o.box, b, tol) {
			return true
		}
	}
	return false
}

// isFrame reports whether children tile b closely enough, measured by the
// summed vertical gaps between consecutive children, for b to be a frame.
func isFrame(b geometry.Box, children []geometry.Box, ratio, orderTol float64) bool {
	geometry.SortReadingOrder(children, orderTol)
	var gaps float64
	for k := 1; k < len(children); k++ {
		if g := children[k].Y - children[k-1].Bottom(); g > 0 {
			gaps += g
		}
	}
	return gaps < b.H*ratio
}
