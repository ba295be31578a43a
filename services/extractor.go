package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// maxPDFSize caps downloads to avoid in-memory extraction of
// pathological files.
const maxPDFSize = 200 << 20

// PDFExtractor downloads a PDF from its source URL and extracts plain
// text. Bad responses and non-PDF content are permanent failures;
// network errors are transient and left to the queue's retry policy.
type PDFExtractor struct {
	client *http.Client
}

func NewPDFExtractor(timeout time.Duration) *PDFExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFExtractor{
		client: &http.Client{Timeout: timeout},
	}
}

func (e *PDFExtractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", permanentf("invalid source URL: %v", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", permanentf("source returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFSize+1))
	if err != nil {
		return "", fmt.Errorf("reading source body: %w", err)
	}
	if len(content) > maxPDFSize {
		return "", permanentf("pdf too large for in-memory extraction")
	}
	if len(content) < 5 || !bytes.HasPrefix(content, []byte("%PDF")) {
		return "", permanentf("source is not a PDF document")
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", permanentf("failed to parse PDF: %v", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single unreadable page does not void the document.
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return strings.ReplaceAll(textBuilder.String(), "\x00", ""), nil
}
