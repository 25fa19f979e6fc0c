package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdfgrid/go/internal/geometry"
)

var ErrInvalidInput = errors.New("invalid page input")

type FontInfo struct {
	Family string  `json:"family,omitempty"`
	Name   string  `json:"name,omitempty"`
	Size   float64 `json:"size,omitempty"`
}

// TextRun is a positioned string as handed over by the renderer, already in
// y-down viewport coordinates.
type TextRun struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Text       string    `json:"str"`
	SpaceWidth float64   `json:"spaceWidth,omitempty"`
	Font       *FontInfo `json:"font,omitempty"`
}

type PathOp uint8

const (
	OpMoveTo PathOp = iota
	OpLineTo
	OpClose
	OpCurve
	OpOther
)

var pathOpNames = [...]string{"moveTo", "lineTo", "close", "curve", "other"}

func (op PathOp) String() string {
	if int(op) < len(pathOpNames) {
		return pathOpNames[op]
	}
	return fmt.Sprintf("PathOp(%d)", uint8(op))
}

func (op PathOp) MarshalJSON() ([]byte, error) { return json.Marshal(op.String()) }

func (op *PathOp) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "moveTo":
		*op = OpMoveTo
	case "lineTo":
		*op = OpLineTo
	case "close", "closePath":
		*op = OpClose
	case "curve", "bezierCurveTo", "quadraticCurveTo":
		*op = OpCurve
	default:
		*op = OpOther
	}
	return nil
}

// PathEvent is one intercepted drawing call. X/Y carry the point for moveTo
// and lineTo and the end point for curves; close ignores them.
type PathEvent struct {
	Op PathOp  `json:"op"`
	X  float64 `json:"x,omitempty"`
	Y  float64 `json:"y,omitempty"`
}

func MoveTo(x, y float64) PathEvent { return PathEvent{Op: OpMoveTo, X: x, Y: y} }
func LineTo(x, y float64) PathEvent { return PathEvent{Op: OpLineTo, X: x, Y: y} }
func Close() PathEvent              { return PathEvent{Op: OpClose} }
func Curve(x, y float64) PathEvent  { return PathEvent{Op: OpCurve, X: x, Y: y} }

// FieldValue decodes either a JSON string or a list of strings.
type FieldValue []string

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*v = FieldValue{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("fieldValue: %w", err)
	}
	*v = many
	return nil
}

// Annotation is a form field with a value, rect given in document space.
type Annotation struct {
	Rect       [4]float64 `json:"rect"`
	FieldValue FieldValue `json:"fieldValue"`
}

type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Transform maps document space to viewport space. The zero value means
	// the standard y flip at scale 1.
	Transform *geometry.Matrix `json:"transform,omitempty"`
}

func (v Viewport) matrix() geometry.Matrix {
	if v.Transform == nil || v.Transform.IsZero() {
		return geometry.Matrix{1, 0, 0, -1, 0, v.Height}
	}
	return *v.Transform
}

// ConvertRect maps a document-space rect [x0 y0 x1 y1] to a viewport box.
func (v Viewport) ConvertRect(r [4]float64) geometry.Box {
	m := v.matrix()
	p1 := m.Transform(geometry.Point{X: r[0], Y: r[1]})
	p2 := m.Transform(geometry.Point{X: r[2], Y: r[3]})
	x0, x1 := min(p1.X, p2.X), max(p1.X, p2.X)
	y0, y1 := min(p1.Y, p2.Y), max(p1.Y, p2.Y)
	return geometry.Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (v Viewport) Rect() geometry.Box { return geometry.Box{W: v.Width, H: v.Height} }

type PageInput struct {
	Number      int          `json:"page"`
	Viewport    *Viewport    `json:"viewport"`
	Texts       []TextRun    `json:"texts"`
	Paths       []PathEvent  `json:"paths"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

func (p *PageInput) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil page", ErrInvalidInput)
	}
	vp := p.Viewport
	if vp == nil {
		return fmt.Errorf("%w: page %d has no viewport", ErrInvalidInput, p.Number)
	}
	if !geometry.IsFinite(vp.Width, vp.Height) || vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("%w: page %d viewport %gx%g", ErrInvalidInput, p.Number, vp.Width, vp.Height)
	}
	for i, r := range p.Texts {
		if !geometry.IsFinite(r.X, r.Y, r.Width, r.Height) {
			return fmt.Errorf("%w: page %d text run %d has non-finite geometry", ErrInvalidInput, p.Number, i)
		}
		if r.Width < 0 || r.Height < 0 {
			return fmt.Errorf("%w: page %d text run %d has negative size %gx%g", ErrInvalidInput, p.Number, i, r.Width, r.Height)
		}
	}
	for i, e := range p.Paths {
		// curves carry the end point that later segments start from
		if (e.Op == OpMoveTo || e.Op == OpLineTo || e.Op == OpCurve) && !geometry.IsFinite(e.X, e.Y) {
			return fmt.Errorf("%w: page %d path event %d (%s) is non-finite", ErrInvalidInput, p.Number, i, e.Op)
		}
	}
	for i, a := range p.Annotations {
		if !geometry.IsFinite(a.Rect[:]...) {
			return fmt.Errorf("%w: page %d annotation %d has non-finite rect", ErrInvalidInput, p.Number, i)
		}
	}
	return nil
}

// TextBlock is a merged (or merge-ready) run of text.
type TextBlock struct {
	Box        geometry.Box `json:"box"`
	Text       string       `json:"text"`
	SpaceWidth float64      `json:"spaceWidth"`
	Font       *FontInfo    `json:"font,omitempty"`
}

func (t TextBlock) Bounds() geometry.Box { return t.Box }

type Layout struct {
	Page            int            `json:"page"`
	Viewport        Viewport       `json:"viewport"`
	HLines          []geometry.Box `json:"hlines"`
	VLines          []geometry.Box `json:"vlines"`
	Boxes           []geometry.Box `json:"boxes"`
	Texts           []TextBlock    `json:"texts"`
	Truncated       bool           `json:"truncated,omitempty"`
	TruncatedReason string         `json:"truncatedReason,omitempty"`
}

type Document struct{ Pages []*Layout }

func (d *Document) MarshalJSON() ([]byte, error) { return json.Marshal(d.Pages) }
