// Package extract pulls plain text out of uploaded reference documents.
package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text returns the plain text of an uploaded file. PDF files are extracted
// page by page with a failing page degrading to an empty string for that page
// only; everything else is treated as UTF-8 text with invalid bytes dropped.
// Unreadable input yields "" so a bad upload never aborts ingestion.
func Text(filename string, data []byte) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return pdfText(data)
	}
	return strings.ToValidUTF8(string(data), "")
}

// pdfText extracts text from every page of an in-memory PDF. The pdf library
// panics on some malformed cross-reference tables, so the whole pass is
// recover-guarded and degrades to "".
func pdfText(data []byte) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			content = ""
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n")
}
