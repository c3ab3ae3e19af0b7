package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFReader pulls the text layer out of uploaded receipt PDFs so the
// scanner can parse it like pasted text.
type PDFReader struct {
	logger *zap.Logger
}

// NewPDFReader creates a PDF reader.
func NewPDFReader(logger *zap.Logger) *PDFReader {
	return &PDFReader{logger: logger}
}

// ExtractText returns the concatenated text of all pages in the PDF at path.
func (r *PDFReader) ExtractText(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("PDF file not found: %s", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	r.logger.Debug("Extracted PDF text",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("chars", sb.Len()))
	return sb.String(), nil
}
