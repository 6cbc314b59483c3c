package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for file types the extractor cannot read.
var ErrUnsupportedType = errors.New("unsupported file type")

// maxExtractSize caps files read into memory.
const maxExtractSize = 200 << 20

var (
	plainTypes = []string{"txt", "md", "markdown", "csv", "json", "log"}
	htmlTypes  = []string{"html", "htm"}
	pdfTypes   = []string{"pdf"}
)

// SupportedTypes lists every file type Extract accepts.
func SupportedTypes() []string {
	return slices.Concat(plainTypes, htmlTypes, pdfTypes)
}

// Supported reports whether filetype can be extracted.
func Supported(filetype string) bool {
	return slices.Contains(SupportedTypes(), strings.ToLower(filetype))
}

// Extract returns the plain text of the file at path.
func Extract(ctx context.Context, path, filetype string) (string, error) {
	filetype = strings.ToLower(filetype)
	if !Supported(filetype) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filetype)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.Size() > maxExtractSize {
		return "", fmt.Errorf("file too large for extraction: %d bytes", stat.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	switch {
	case slices.Contains(htmlTypes, filetype):
		return extractHTML(content)
	case slices.Contains(pdfTypes, filetype):
		return extractPDF(ctx, content)
	default:
		return string(content), nil
	}
}

func extractHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find("body").Find("h1, h2, h3, h4, h5, h6, p, li, pre, td").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}

func extractPDF(ctx context.Context, content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(strings.TrimSpace(text))
	}
	return sb.String(), nil
}
