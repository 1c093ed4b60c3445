package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var (
	pageExtractTimeout = config.PageExtractTimeout

	errExtractTimeout = errors.New("page extraction timed out")
	errReaderStalled  = errors.New("pdf reader abandoned after a timed out page")
)

// PDFSource opens PDFs for page-level work. Swapped out in tests.
type PDFSource interface {
	Open(path string) (PDFDocument, error)
}

type PDFDocument interface {
	PageCount() int
	// PageText converts a single page (0-based) locally.
	PageText(pageIndex int) (string, error)
	// PageBytes returns the page (0-based) as a standalone PDF.
	PageBytes(pageIndex int) ([]byte, error)
	// Text converts every page locally, joined by blank lines.
	Text() (string, error)
	Close() error
}

type localPDFSource struct{}

// localPDF wraps one open reader. A page that times out leaves its goroutine
// holding the reader, so every later page on this document fails fast.
type localPDF struct {
	path     string
	file     *os.File
	numPages int
	convert  func(pageIndex int) (string, error)
	stalled  atomic.Bool
}

func (localPDFSource) Open(path string) (PDFDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}
	convert := func(pageIndex int) (string, error) {
		page := r.Page(pageIndex + 1)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	}
	return &localPDF{path: path, file: f, numPages: r.NumPage(), convert: convert}, nil
}

func (d *localPDF) PageCount() int {
	return d.numPages
}

func (d *localPDF) PageText(pageIndex int) (string, error) {
	if d.stalled.Load() {
		return "", errReaderStalled
	}
	text, err := protectExtract(func() (string, error) { return d.convert(pageIndex) })
	if errors.Is(err, errExtractTimeout) {
		d.stalled.Store(true)
	}
	return text, err
}

func (d *localPDF) PageBytes(pageIndex int) ([]byte, error) {
	return PageBytes(d.path, pageIndex)
}

func (d *localPDF) Text() (string, error) {
	n := d.PageCount()
	pages := make([]string, 0, n)
	var failed []int
	var causes []error
	for i := 0; i < n; i++ {
		content, err := d.PageText(i)
		if err != nil {
			logger.Error("Local page conversion failed", "path", d.path, "page", i+1, "error", err)
			failed = append(failed, i+1)
			causes = append(causes, err)
			continue
		}
		pages = append(pages, content)
	}
	if len(failed) > 0 {
		return "", &ragErrors.ExtractionFailure{Document: filepath.Base(d.path), FailedPages: failed, Err: errors.Join(causes...)}
	}
	return strings.Join(pages, "\n\n"), nil
}

func (d *localPDF) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// DocxText reads a .docx (or .odt/.rtf) file as plain text.
func DocxText(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract docx: %w", err)
	}
	return text, nil
}

// PlainText reads the file as UTF-8, replacing invalid sequences.
func PlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// some pdfs make the text extractor spin forever
func protectExtract(extract func() (string, error)) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := extract()
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		return "", errExtractTimeout
	}
}
