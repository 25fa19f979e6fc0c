package bridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfgrid/go/internal/models"
	"github.com/pdfgrid/go/internal/testutil"
)

func pageNumbers(t *testing.T, pages []*models.PageInput) []int {
	t.Helper()
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = p.Number
	}
	return out
}

func TestDecodePages(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "single object", input: `{"page":1,"viewport":{"width":10,"height":10}}`, want: []int{1}},
		{name: "object stream", input: "{\"page\":1}\n{\"page\":2}", want: []int{1, 2}},
		{name: "array and object", input: `[{"page":4},{"page":5}] {"page":6}`, want: []int{4, 5, 6}},
		{name: "empty", input: "", want: []int{}},
		{name: "null entry", input: `[{"page":1},null]`, wantErr: true},
		{name: "malformed", input: `{"page":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := DecodePages(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodePages() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, pageNumbers(t, pages)); diff != "" {
				t.Errorf("page numbers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadRawPage(t *testing.T) {
	if testutil.TestDataDir == "" {
		t.Skip("could not find project root")
	}
	page, err := ReadRawPage(testutil.Fixture("grid.json"))
	if err != nil {
		t.Fatalf("ReadRawPage() error = %v", err)
	}
	if page.Number != 1 || page.Viewport == nil || page.Viewport.Width != 200 {
		t.Errorf("unexpected page header: %+v", page)
	}
	if len(page.Texts) == 0 || len(page.Paths) == 0 || len(page.Annotations) != 2 {
		t.Errorf("got %d texts, %d paths, %d annotations", len(page.Texts), len(page.Paths), len(page.Annotations))
	}

	if _, err := ReadRawPage(testutil.Fixture("batch.json")); err == nil {
		t.Error("expected error for a file with two pages")
	}
	if _, err := ReadRawPage(testutil.Fixture("missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestReadPagesOrdersByNumber(t *testing.T) {
	if testutil.TestDataDir == "" {
		t.Skip("could not find project root")
	}
	pages, err := ReadPages(testutil.TestDataDir)
	if err != nil {
		t.Fatalf("ReadPages() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, pageNumbers(t, pages)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"page":9}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[{"page":8}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	pages, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(dir) error = %v", err)
	}
	if diff := cmp.Diff([]int{8, 9}, pageNumbers(t, pages)); diff != "" {
		t.Errorf("Load(dir) mismatch (-want +got):\n%s", diff)
	}

	pages, err = Load(filepath.Join(dir, "b.json"))
	if err != nil || len(pages) != 1 || pages[0].Number != 9 {
		t.Errorf("Load(file) = %v, %v", pages, err)
	}

	if _, err := Load(filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error for missing path")
	}
}
