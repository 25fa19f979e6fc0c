package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfgrid/go/internal/geometry"
)

func TestFieldValueDecode(t *testing.T) {
	tests := []struct {
		in   string
		want FieldValue
	}{
		{`"hello"`, FieldValue{"hello"}},
		{`["a","b"]`, FieldValue{"a", "b"}},
		{`[]`, FieldValue{}},
	}
	for _, tc := range tests {
		var got FieldValue
		if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tc.in, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Unmarshal(%s) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}

	var bad FieldValue
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("expected error for numeric field value")
	}
}

func TestPathEventDecode(t *testing.T) {
	in := `[{"op":"moveTo","x":1,"y":2},{"op":"lineTo","x":3,"y":4},{"op":"closePath"},{"op":"bezierCurveTo","x":5,"y":6},{"op":"fill"}]`
	var got []PathEvent
	if err := json.Unmarshal([]byte(in), &got); err != nil {
		t.Fatal(err)
	}
	want := []PathEvent{MoveTo(1, 2), LineTo(3, 4), Close(), Curve(5, 6), {Op: OpOther}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
	if OpClose.String() != "close" || PathOp(9).String() != "PathOp(9)" {
		t.Errorf("unexpected op names %q %q", OpClose, PathOp(9))
	}
}

func TestViewportConvertRect(t *testing.T) {
	vp := Viewport{Width: 612, Height: 792}
	got := vp.ConvertRect([4]float64{100, 700, 200, 720})
	want := geometry.Box{X: 100, Y: 72, W: 100, H: 20}
	if got != want {
		t.Errorf("ConvertRect = %v, want %v", got, want)
	}

	scaled := geometry.Matrix{2, 0, 0, -2, 0, 1584}
	vp.Transform = &scaled
	got = vp.ConvertRect([4]float64{10, 10, 20, 30})
	want = geometry.Box{X: 20, Y: 1524, W: 20, H: 40}
	if got != want {
		t.Errorf("ConvertRect scaled = %v, want %v", got, want)
	}
}

func TestPageInputValidate(t *testing.T) {
	ok := &PageInput{Number: 1, Viewport: &Viewport{Width: 100, Height: 100}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	zeroSized := &PageInput{
		Viewport: &Viewport{Width: 100, Height: 100},
		Texts:    []TextRun{{X: 1, Y: 1, Text: " "}},
		Paths:    []PathEvent{MoveTo(0, 0), Curve(4, 4), Close(), {Op: OpOther, X: math.NaN()}},
	}
	if err := zeroSized.Validate(); err != nil {
		t.Errorf("zero-sized run and finite curve: Validate() = %v", err)
	}

	tests := []struct {
		name string
		page *PageInput
	}{
		{"nil page", nil},
		{"no viewport", &PageInput{}},
		{"zero width", &PageInput{Viewport: &Viewport{Height: 10}}},
		{"nan text", &PageInput{
			Viewport: &Viewport{Width: 10, Height: 10},
			Texts:    []TextRun{{X: math.NaN(), Text: "x"}},
		}},
		{"inf path", &PageInput{
			Viewport: &Viewport{Width: 10, Height: 10},
			Paths:    []PathEvent{MoveTo(0, math.Inf(1))},
		}},
		{"negative run width", &PageInput{
			Viewport: &Viewport{Width: 10, Height: 10},
			Texts:    []TextRun{{X: 1, Y: 1, Width: -2, Height: 5, Text: "x"}},
		}},
		{"negative run height", &PageInput{
			Viewport: &Viewport{Width: 10, Height: 10},
			Texts:    []TextRun{{X: 1, Y: 1, Width: 2, Height: -5, Text: "x"}},
		}},
		{"nan curve end", &PageInput{
			Viewport: &Viewport{Width: 10, Height: 10},
			Paths:    []PathEvent{MoveTo(0, 0), Curve(math.NaN(), 3), LineTo(5, 5)},
		}},
		{"nan annotation", &PageInput{
			Viewport:    &Viewport{Width: 10, Height: 10},
			Annotations: []Annotation{{Rect: [4]float64{0, 0, math.NaN(), 1}}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.page.Validate()
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate() = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestLayoutJSON(t *testing.T) {
	doc := &Document{Pages: []*Layout{{
		Page:     1,
		Viewport: Viewport{Width: 10, Height: 10},
		Boxes:    []geometry.Box{{X: 0, Y: 0, W: 10, H: 10}},
		Texts:    []TextBlock{{Box: geometry.Box{W: 4, H: 2}, Text: "hi"}},
	}}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var back []map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 {
		t.Fatalf("got %d pages", len(back))
	}
	if _, ok := back[0]["truncated"]; ok {
		t.Error("truncated should be omitted when false")
	}
	texts := back[0]["texts"].([]any)
	box := texts[0].(map[string]any)["box"].(map[string]any)
	if c := box["centroid"].(map[string]any); c["x"] != 2.0 || c["y"] != 1.0 {
		t.Errorf("centroid = %v", c)
	}
}
