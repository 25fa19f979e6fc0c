package extractor

import (
	"github.com/pdfgrid/go/internal/models"
	"github.com/pdfgrid/go/internal/text"
)

// CleanupPage tidies the text of every block and drops blocks left empty.
func CleanupPage(layout *models.Layout) {
	if layout == nil {
		return
	}
	kept := layout.Texts[:0]
	dropped := 0
	for _, b := range layout.Texts {
		b.Text = text.Cleanup(b.Text)
		if b.Text == "" {
			dropped++
			continue
		}
		kept = append(kept, b)
	}
	layout.Texts = kept
	if dropped > 0 {
		Logger.Debug("dropped blank text blocks", "page", layout.Page, "count", dropped)
	}
}
