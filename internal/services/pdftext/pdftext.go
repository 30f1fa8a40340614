// Package pdftext extracts plain text from PDF documents. It is a narrow,
// stateless collaborator: the pipeline only needs enough text to hand to
// metadata extraction.
package pdftext

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"docket/internal/services"
)

// Result is the extracted text plus how many pages produced it.
type Result struct {
	Text  string
	Pages int
}

// Convert reads every page of the PDF at path. Pages that fail text
// extraction are skipped; a document where no page yields text is a
// validation failure, since metadata extraction has nothing to work with.
func Convert(path string) (Result, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "pdftext", "convert", "open "+path, err)
	}
	defer f.Close()

	var b strings.Builder
	pages := 0
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
		pages++
	}

	if pages == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "pdftext", "convert",
			"no extractable text in "+path, nil)
	}
	return Result{Text: b.String(), Pages: pages}, nil
}
