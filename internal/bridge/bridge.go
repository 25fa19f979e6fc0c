// Package bridge reads the page dumps written by the renderer shim: one JSON
// page object (or an array of them) per file, with positioned text runs,
// intercepted path events and form annotations.
package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfgrid/go/internal/logger"
	"github.com/pdfgrid/go/internal/models"
)

var Logger = logger.GetLogger("bridge")

const PageExt = ".json"

// ReadRawPage reads a file holding exactly one page.
func ReadRawPage(path string) (*models.PageInput, error) {
	Logger.Debug("reading raw page", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pages, err := DecodePages(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(pages) != 1 {
		return nil, fmt.Errorf("%s: expected one page, found %d", path, len(pages))
	}
	return pages[0], nil
}

// DecodePages decodes a stream of page objects and page arrays.
func DecodePages(r io.Reader) ([]*models.PageInput, error) {
	dec := json.NewDecoder(r)
	var pages []*models.PageInput
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode page dump: %w", err)
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var batch []*models.PageInput
			if err := json.Unmarshal(trimmed, &batch); err != nil {
				return nil, fmt.Errorf("decode page array: %w", err)
			}
			pages = append(pages, batch...)
			continue
		}
		var p models.PageInput
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		pages = append(pages, &p)
	}
	for i, p := range pages {
		if p == nil {
			return nil, fmt.Errorf("page entry %d is null", i)
		}
	}
	Logger.Debug("decoded pages", "count", len(pages))
	return pages, nil
}

// ReadPages reads every page dump in dir, ordered by page number.
func ReadPages(dir string) ([]*models.PageInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var pages []*models.PageInput
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), PageExt) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		batch, err := DecodePages(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		pages = append(pages, batch...)
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	Logger.Debug("read page dumps", "dir", dir, "pages", len(pages))
	return pages, nil
}

// Load reads a single dump file or a directory of them.
func Load(path string) ([]*models.PageInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return ReadPages(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pages, err := DecodePages(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}
