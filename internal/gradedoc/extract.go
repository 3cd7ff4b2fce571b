// Package gradedoc extracts structured grade data from supervisor-issued
// grade documents.
package gradedoc

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls plain text from every page of a PDF. A page that cannot
// be read fails the whole document; a partial transcript must not be
// mistaken for a complete one.
func ExtractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var builder strings.Builder
	totalPages := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}

		builder.WriteString(text)
		builder.WriteString("\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found in PDF")
	}
	return text, nil
}
