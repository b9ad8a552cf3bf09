// Package extract turns uploaded documents into plain text for chunking.
package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text extracts the text layer of the PDF at path, pages joined by newlines.
// A missing or corrupt file, or one without a text layer, reads as the empty
// string: ingestion treats that as "zero chunks", not as an error.
func Text(path string) (text string) {
	// The parser panics on some malformed documents; a bad upload must
	// degrade to empty text rather than take the request down.
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			content = ""
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n")
}
