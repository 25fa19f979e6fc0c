package table

import (
	"context"
	"math"
	"sort"

	"github.com/pdfgrid/go/internal/config"
	"github.com/pdfgrid/go/internal/geometry"
	"github.com/pdfgrid/go/internal/logger"
	"github.com/pdfgrid/go/internal/models"
	"github.com/tidwall/rtree"
)

var Logger = logger.GetLogger("table")

type Input struct {
	HLines   []geometry.Box
	VLines   []geometry.Box
	Texts    []models.TextBlock
	Viewport models.Viewport
}

// Output carries the final boxes and the line sets after border grouping.
// AddedHLines/AddedVLines count the synthesized rulings included in them.
type Output struct {
	Boxes       []geometry.Box
	HLines      []geometry.Box
	VLines      []geometry.Box
	AddedHLines int
	AddedVLines int
}

// border is a horizontal line with the vertical lines it crosses, as
// indexes into the grid's vline slice, ordered by x.
type border struct {
	line    geometry.Box
	crosses []int
}

// grid is the working set of one reconstruction. Line identity is the slot
// index in hlines/vlines.
type grid struct {
	cfg    config.BoxConfig
	vp     models.Viewport
	hlines []geometry.Box
	vlines []geometry.Box
	vtree  rtree.RTreeG[int]
}

func newGrid(in Input, cfg config.BoxConfig) *grid {
	g := &grid{
		cfg:    cfg,
		vp:     in.Viewport,
		hlines: append([]geometry.Box(nil), in.HLines...),
		vlines: append([]geometry.Box(nil), in.VLines...),
	}
	for i, v := range g.vlines {
		g.vtree.Insert(v.Min(), v.Max(), i)
	}
	return g
}

// searchV calls fn once for every vline slot whose current extent touches r.
// Grown or moved slots leave stale tree entries behind; they are filtered by
// re-checking the live geometry.
func (g *grid) searchV(r geometry.Box, fn func(i int)) {
	seen := make(map[int]bool)
	g.vtree.Search(r.Min(), r.Max(), func(_, _ [2]float64, i int) bool {
		if !seen[i] && geometry.CollideRectRect(g.vlines[i], r) {
			seen[i] = true
			fn(i)
		}
		return true
	})
}

func (g *grid) setV(i int, b geometry.Box) {
	g.vlines[i] = b
	g.vtree.Insert(b.Min(), b.Max(), i)
}

func (g *grid) addV(b geometry.Box) int {
	g.vlines = append(g.vlines, b)
	i := len(g.vlines) - 1
	g.vtree.Insert(b.Min(), b.Max(), i)
	return i
}

// Reconstruct derives cell boxes from the ruling grid. Texts only serve as
// content evidence; they are not modified.
func Reconstruct(ctx context.Context, in Input, cfg config.BoxConfig, orderTol float64) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	g := newGrid(in, cfg)
	nh, nv := len(g.hlines), len(g.vlines)

	g.groupBorders(orderTol)
	borders := g.collisions()
	cands, err := g.enumerate(ctx, borders)
	if err != nil {
		return Output{}, err
	}
	boxes := filterBoxes(cands, in.Texts, cfg, orderTol)

	out := Output{
		Boxes:       boxes,
		HLines:      g.hlines,
		VLines:      g.vlines,
		AddedHLines: len(g.hlines) - nh,
		AddedVLines: len(g.vlines) - nv,
	}
	geometry.SortReadingOrder(out.VLines, orderTol)
	Logger.Debug("reconstructed boxes", "hlines", len(out.HLines), "vlines", len(out.VLines),
		"candidates", len(cands), "boxes", len(boxes), "addedH", out.AddedHLines, "addedV", out.AddedVLines)
	return out, nil
}

// groupBorders aligns vertical lines that start in the same band and have
// similar heights to their common extent, and adds top and bottom borders
// spanning each such group.
func (g *grid) groupBorders(orderTol float64) {
	bt := g.cfg.BandTolerance
	for k := range g.vlines {
		v := g.vlines[k]
		band := geometry.Box{X: 0, Y: v.Y - bt, W: g.vp.Width, H: 2 * bt}
		var members []int
		g.searchV(band, func(i int) {
			if math.Abs(v.H-g.vlines[i].H) < g.cfg.HeightTolerance {
				members = append(members, i)
			}
		})
		if len(members) < 2 {
			continue
		}
		area := g.vlines[members[0]]
		for _, i := range members[1:] {
			area = geometry.UnionRect(area, g.vlines[i])
		}
		g.addBorder(geometry.HLine(area.X, area.Y, area.W))
		g.addBorder(geometry.HLine(area.X, area.Bottom(), area.W))
		for _, i := range members {
			l := g.vlines[i]
			l.Y, l.H = area.Y, area.H
			g.setV(i, l)
		}
	}
	geometry.SortReadingOrder(g.hlines, orderTol)
}

func (g *grid) addBorder(b geometry.Box) {
	for _, h := range g.hlines {
		if geometry.EqualsRectObj(h, b, g.cfg.CollideMargin) {
			return
		}
	}
	g.hlines = append(g.hlines, b)
}

// collisions builds the crossing list of every hline, closing lines that run
// past their outermost vertical with a virtual vertical line at the end.
func (g *grid) collisions() []border {
	m := g.cfg.CollideMargin
	borders := make([]border, len(g.hlines))
	for hi, h := range g.hlines {
		var crosses []int
		g.searchV(h.Inflate(m), func(i int) {
			crosses = append(crosses, i)
		})
		g.sortByX(crosses)

		if len(crosses) > 0 {
			left, right := g.vlines[crosses[0]], g.vlines[crosses[len(crosses)-1]]
			if h.X < left.X-m {
				l := left
				l.X = h.X
				crosses = append(crosses, g.addV(l))
			}
			if h.Right() > right.Right()+m {
				r := right
				r.X = h.Right()
				crosses = append(crosses, g.addV(r))
			}
			g.sortByX(crosses)
		}
		borders[hi] = border{line: h, crosses: crosses}
	}
	return borders
}

func (g *grid) sortByX(idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		return g.vlines[idx[a]].X < g.vlines[idx[b]].X
	})
}

// enumerate emits, for every top border and every pair of verticals it
// crosses, the box closed by the nearest bottom border crossing both with no
// finer divider in between.
func (g *grid) enumerate(ctx context.Context, borders []border) ([]geometry.Box, error) {
	var out []geometry.Box
	for ti, top := range borders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var bottoms []border
		tc := top.line.Centroid().Y
		for bi, b := range borders {
			if bi == ti || b.line.Centroid().Y <= tc {
				continue
			}
			if b.line.X <= top.line.Right() && b.line.Right() >= top.line.X {
				bottoms = append(bottoms, b)
			}
		}
		if len(bottoms) == 0 {
			continue
		}

		onTop := make(map[int]bool, len(top.crosses))
		for _, i := range top.crosses {
			onTop[i] = true
		}
		for begin := 0; begin < len(top.crosses)-1; begin++ {
			for end := begin + 1; end < len(top.crosses); end++ {
				left, right := top.crosses[begin], top.crosses[end]
				if b, ok := g.closeBox(top, bottoms, left, right, onTop); ok {
					out = append(out, b)
				}
			}
		}
	}
	return out, nil
}

func (g *grid) closeBox(top border, bottoms []border, left, right int, onTop map[int]bool) (geometry.Box, bool) {
	for _, bottom := range bottoms {
		li, ri := indexOf(bottom.crosses, left), indexOf(bottom.crosses, right)
		if li < 0 || ri < 0 || li >= ri {
			continue
		}
		divided := false
		for _, i := range bottom.crosses[li+1 : ri] {
			if onTop[i] {
				divided = true
				break
			}
		}
		if divided {
			continue
		}
		l, r := g.vlines[left], g.vlines[right]
		return geometry.Box{
			X: l.Centroid().X,
			Y: top.line.Centroid().Y,
			W: r.X - l.X,
			H: bottom.line.Y - top.line.Y,
		}, true
	}
	return geometry.Box{}, false
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
