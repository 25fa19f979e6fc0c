package lines

import (
	"math"

	"github.com/pdfgrid/go/internal/geometry"
	"github.com/pdfgrid/go/internal/models"
)

// FromPathEvents turns straight path segments into candidate boxes. Each
// lineTo draws from the current point and close draws back to the start of
// the subpath. Curves move the current point but produce nothing.
func FromPathEvents(events []models.PathEvent) []geometry.Box {
	var out []geometry.Box
	var cur, start geometry.Point
	have := false
	for _, e := range events {
		p := geometry.Point{X: e.X, Y: e.Y}
		switch e.Op {
		case models.OpMoveTo:
			cur, start, have = p, p, true
		case models.OpLineTo:
			if have {
				out = append(out, segmentBox(cur, p))
			} else {
				start, have = p, true
			}
			cur = p
		case models.OpClose:
			if have && cur != start {
				out = append(out, segmentBox(cur, start))
			}
			cur = start
		case models.OpCurve:
			if !have {
				start, have = p, true
			}
			cur = p
		case models.OpOther:
		}
	}
	return out
}

func segmentBox(a, b geometry.Point) geometry.Box {
	x, y := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
	return geometry.Box{
		X: x,
		Y: y,
		W: math.Max(math.Max(a.X, b.X)-x, 1),
		H: math.Max(math.Max(a.Y, b.Y)-y, 1),
	}
}
