package structure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Fetcher produces the raw text of a course-overview document. The PDF
// extractor is the production implementation; tests substitute stubs.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Extractor downloads a PDF and extracts its text, page-capped.
type Extractor struct {
	client   *http.Client
	maxPages int
	log      *slog.Logger
}

// NewExtractor creates a PDF text extractor. Every fetch is bounded by
// timeout; text extraction stops after maxPages pages.
func NewExtractor(timeout time.Duration, maxPages int, log *slog.Logger) *Extractor {
	return &Extractor{
		client:   &http.Client{Timeout: timeout},
		maxPages: maxPages,
		log:      log,
	}
}

// FetchText downloads the PDF at url and returns its extracted text. A
// preflight HEAD probe runs first; its failure is logged but never fatal,
// since some hosts reject HEAD while serving GET fine.
func (e *Extractor) FetchText(ctx context.Context, url string) (string, error) {
	e.probe(ctx, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building pdf request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching pdf: unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading pdf body: %w", err)
	}

	return e.extractText(raw)
}

// probe issues the best-effort accessibility check.
func (e *Extractor) probe(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Warn("pdf accessibility probe failed", "url", url, "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.log.Warn("pdf accessibility probe failed", "url", url, "status", resp.Status)
	}
}

// extractText pulls plain text from the first maxPages pages.
func (e *Extractor) extractText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages > e.maxPages {
		pages = e.maxPages
	}

	var text strings.Builder
	for num := 1; num <= pages; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extracting pdf page %d: %w", num, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}
