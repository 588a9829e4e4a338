package index

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF reads the full plain text of a PDF file. Page texts are
// concatenated in order; an unreadable or empty document is an error
// because there is nothing to index.
func ExtractPDF(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("pdf file not accessible: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %q: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from %q: %w", path, err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return "", fmt.Errorf("reading extracted text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf %q contains no extractable text", path)
	}
	return text, nil
}
