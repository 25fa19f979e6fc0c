package geometry

import (
	"math"
	"sort"
)

type Point struct{ X, Y float64 }

// Box is an axis-aligned rectangle in viewport space (origin top-left, y down).
// The centroid is always derived from X/Y/W/H.
type Box struct{ X, Y, W, H float64 }

func NewBox(x, y, w, h float64) Box { return Box{X: x, Y: y, W: w, H: h} }

// HLine returns a 1-unit-thick horizontal line starting at (x, y).
func HLine(x, y, w float64) Box { return Box{X: x, Y: y, W: w, H: 1} }

// VLine returns a 1-unit-thick vertical line starting at (x, y).
func VLine(x, y, h float64) Box { return Box{X: x, Y: y, W: 1, H: h} }

func (b Box) Right() float64  { return b.X + b.W }
func (b Box) Bottom() float64 { return b.Y + b.H }
func (b Box) Area() float64   { return AreaRect(b.W, b.H) }
func (b Box) Centroid() Point { return Point{X: b.X + 0.5*b.W, Y: b.Y + 0.5*b.H} }

func (b Box) IsHorizontal() bool { return b.W > b.H && b.H <= 1 }
func (b Box) IsVertical() bool   { return b.H > b.W && b.W <= 1 }

// Inflate grows the box by m on every side.
func (b Box) Inflate(m float64) Box {
	return Box{X: b.X - m, Y: b.Y - m, W: b.W + 2*m, H: b.H + 2*m}
}

// Min and Max are the rtree search corners.
func (b Box) Min() [2]float64 { return [2]float64{b.X, b.Y} }
func (b Box) Max() [2]float64 { return [2]float64{b.X + b.W, b.Y + b.H} }

func (b Box) IsFinite() bool {
	return isFinite(b.X) && isFinite(b.Y) && isFinite(b.W) && isFinite(b.H)
}

func CollideRectRect(a, b Box) bool {
	return a.X <= b.X+b.W && a.X+a.W >= b.X && a.Y <= b.Y+b.H && a.Y+a.H >= b.Y
}

func UnionRect(a, b Box) Box {
	x, y := math.Min(a.X, b.X), math.Min(a.Y, b.Y)
	return Box{X: x, Y: y, W: math.Max(a.X+a.W, b.X+b.W) - x, H: math.Max(a.Y+a.H, b.Y+b.H) - y}
}

func EqualsRectObj(a, b Box, tolerance float64) bool {
	return math.Abs(a.X-b.X) <= tolerance && math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.W-b.W) <= tolerance && math.Abs(a.H-b.H) <= tolerance
}

// edgeEpsilon is the relative slack for edges that reach the same position
// through different float arithmetic, such as a union's x+w or cells sharing a rule.
const edgeEpsilon = 1e-9

// leq reports a <= b up to edgeEpsilon scaled by the operands' magnitude.
func leq(a, b float64) bool {
	return a <= b+edgeEpsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// InsideRectRect reports whether inner lies within outer, edges included.
func InsideRectRect(inner, outer Box) bool {
	return leq(outer.X, inner.X) && leq(outer.Y, inner.Y) &&
		leq(inner.X+inner.W, outer.X+outer.W) && leq(inner.Y+inner.H, outer.Y+outer.H)
}

func CollidePointRect(px, py float64, r Box) bool {
	return px >= r.X && px <= r.X+r.W && py >= r.Y && py <= r.Y+r.H
}

func AreaRect(w, h float64) float64 { return w * h }

// CompareBlockPos orders a before b when it is above (beyond tol) or on the
// same row and left of b. Positions within tol on both axes compare equal.
// The relation is deliberately fuzzy and not a strict total order.
func CompareBlockPos(a, b Box, tol float64) int {
	if a.Y < b.Y-tol {
		return -1
	}
	if math.Abs(a.Y-b.Y) <= tol {
		if a.X < b.X-tol {
			return -1
		}
		if math.Abs(a.X-b.X) <= tol {
			return 0
		}
	}
	return 1
}

type Positioned interface{ Bounds() Box }

func (b Box) Bounds() Box { return b }

// SortReadingOrder stable-sorts items top-to-bottom then left-to-right.
func SortReadingOrder[T Positioned](items []T, tol float64) {
	sort.SliceStable(items, func(i, j int) bool {
		return CompareBlockPos(items[i].Bounds(), items[j].Bounds(), tol) < 0
	})
}

// Matrix is a 2D affine transform [a b c d e f].
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

func (m Matrix) IsZero() bool { return m == Matrix{} }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func IsFinite(vals ...float64) bool {
	for _, v := range vals {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
