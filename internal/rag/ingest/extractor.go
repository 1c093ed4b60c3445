package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/metrics"
	"github.com/akolanti/localrag/internal/rag/llm"
	"github.com/akolanti/localrag/internal/rag/metadata"
	"github.com/akolanti/localrag/internal/rag/ocr"
	"github.com/akolanti/localrag/internal/rag/structured"
	"github.com/akolanti/localrag/internal/rag/tables"
	"github.com/akolanti/localrag/pkg/logger_i"
)

var logger = logger_i.NewLogger("Extraction")

// Extractor turns a file into text, choosing per page between the page cache,
// local conversion and cloud OCR.
type Extractor struct {
	cache      metadata.PageCache
	ocr        llm.OCRProvider
	structured structured.Provider
	retry      *ocr.RetryController
	pdfs       PDFSource
}

// NewExtractor wires the extractor. retry is required. ocrProvider and
// structuredProvider may be nil.
func NewExtractor(cache metadata.PageCache, retry *ocr.RetryController, ocrProvider llm.OCRProvider, structuredProvider structured.Provider) *Extractor {
	return &Extractor{
		cache:      cache,
		ocr:        ocrProvider,
		structured: structuredProvider,
		retry:      retry,
		pdfs:       localPDFSource{},
	}
}

func (e *Extractor) WithPDFSource(src PDFSource) *Extractor {
	e.pdfs = src
	return e
}

func (e *Extractor) Extract(ctx context.Context, path string, method commonModels.ExtractionMethod, force bool) (*commonModels.ExtractedDocument, error) {
	log := logger.WithTrace(ctx).With("file", filepath.Base(path))

	docType := commonModels.GetDocType(path)
	if docType == commonModels.ERR {
		return nil, fmt.Errorf("%w: %s", ragErrors.ErrUnsupportedType, strings.ToLower(filepath.Ext(path)))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ragErrors.ErrNotFound, absPath)
		}
		return nil, err
	}

	hash, err := ComputeFileHash(absPath)
	if err != nil {
		return nil, err
	}
	if force {
		n, err := e.cache.Clear(ctx, hash)
		if err != nil {
			return nil, err
		}
		log.Debug("Purged page cache", "pages", n)
	}

	doc := &commonModels.ExtractedDocument{
		Path:        absPath,
		ContentHash: hash,
		DocType:     docType,
	}

	switch docType {
	case commonModels.DOCX:
		log.Info("Extracting DOCX")
		doc.Content, err = DocxText(absPath)
	case commonModels.PlainText:
		log.Info("Extracting plaintext")
		doc.Content, err = PlainText(absPath)
	default:
		err = e.extractPDF(ctx, log, doc, method)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *Extractor) extractPDF(ctx context.Context, log *logger_i.Logger, doc *commonModels.ExtractedDocument, method commonModels.ExtractionMethod) error {
	name := filepath.Base(doc.Path)

	pdfDoc, err := e.pdfs.Open(doc.Path)
	if err != nil {
		return &ragErrors.ExtractionFailure{Document: name, Err: err}
	}
	defer pdfDoc.Close()

	pageCount := pdfDoc.PageCount()
	doc.PageCount = &pageCount
	log.Info("Extracting PDF", "pages", pageCount, "method", method)

	if method == commonModels.MethodCloudStructured && e.structured == nil {
		return &ragErrors.ExtractionFailure{
			Document: name,
			Err:      fmt.Errorf("structured extraction %w", ragErrors.ErrProviderNotConfigured),
		}
	}
	if e.structured != nil && (method == commonModels.MethodAuto || method == commonModels.MethodCloudStructured) {
		doc.Content, err = e.extractStructured(ctx, doc.Path)
		if err != nil {
			return &ragErrors.ExtractionFailure{Document: name, Err: err}
		}
		log.Info("Extraction complete", "pages", pageCount, "via", "structured")
		return nil
	}

	if method == commonModels.MethodLocalConverter || (method == commonModels.MethodAuto && e.ocr == nil) {
		doc.Content, err = pdfDoc.Text()
		var failure *ragErrors.ExtractionFailure
		if errors.As(err, &failure) {
			return failure
		}
		if err != nil {
			return &ragErrors.ExtractionFailure{Document: name, Err: err}
		}
		log.Info("Extraction complete", "pages", pageCount, "via", "local")
		return nil
	}

	doc.Content, err = e.extractPages(ctx, log, pdfDoc, doc.ContentHash, name, method)
	return err
}

func (e *Extractor) extractStructured(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	res, err := e.structured.Analyze(ctx, data)
	if err != nil {
		return "", err
	}
	return tables.Rebuild(res.Content, res.Tables), nil
}

// extractPages is the hybrid path. Pages are addressed by index so the final
// order never depends on OCR completion order.
func (e *Extractor) extractPages(ctx context.Context, log *logger_i.Logger, pdfDoc PDFDocument, hash string, name string, method commonModels.ExtractionMethod) (string, error) {
	pageCount := pdfDoc.PageCount()
	pages := make([]string, pageCount)
	pageErrs := make([]error, pageCount)

	var wg sync.WaitGroup
	var cached, local, submitted int

	for i := 0; i < pageCount; i++ {
		text, hit, err := e.cache.Get(ctx, hash, i)
		if err != nil {
			log.Warn("Page cache lookup failed", "page", i+1, "error", err)
		}
		metrics.CapturePageCacheLookup(hit)
		if hit {
			pages[i] = text
			cached++
			continue
		}

		localText, useOCR, localErr := e.decide(pdfDoc, i, method)
		if !useOCR {
			if localErr != nil {
				log.Error("Local page conversion failed", "page", i+1, "error", localErr)
				pageErrs[i] = localErr
				continue
			}
			pages[i] = localText
			e.cachePage(ctx, log, hash, i, localText)
			local++
			continue
		}

		submitted++
		wg.Add(1)
		go func(pageIndex int) {
			defer wg.Done()
			text, err := e.ocrPage(ctx, pdfDoc, pageIndex)
			if err != nil {
				log.Error("OCR failed", "page", pageIndex+1, "error", err)
				pageErrs[pageIndex] = err
				return
			}
			pages[pageIndex] = text
			e.cachePage(ctx, log, hash, pageIndex, text)
		}(i)
	}

	wg.Wait()

	var failed []int
	var causes []error
	for i, err := range pageErrs {
		if err != nil {
			failed = append(failed, i+1)
			causes = append(causes, err)
		}
	}
	if len(failed) > 0 {
		return "", &ragErrors.ExtractionFailure{Document: name, FailedPages: failed, Err: errors.Join(causes...)}
	}

	log.Info("Extraction complete", "pages", pageCount, "cached", cached, "ocr", submitted, "local", local)
	return strings.Join(pages, "\n\n"), nil
}

// decide converts locally when that is needed to judge the page and reports
// whether the page should go to OCR instead.
func (e *Extractor) decide(pdfDoc PDFDocument, pageIndex int, method commonModels.ExtractionMethod) (string, bool, error) {
	if e.ocr == nil {
		text, err := pdfDoc.PageText(pageIndex)
		return text, false, err
	}
	if method == commonModels.MethodCloudOCR {
		return "", true, nil
	}
	// an unreadable page goes to OCR
	text, err := pdfDoc.PageText(pageIndex)
	if err != nil {
		return "", true, nil
	}
	return text, NeedsOCR(text, 1), nil
}

func (e *Extractor) ocrPage(ctx context.Context, pdfDoc PDFDocument, pageIndex int) (string, error) {
	data, err := pdfDoc.PageBytes(pageIndex)
	if err != nil {
		return "", err
	}
	return e.retry.CallWithRetry(ctx, pageIndex, func(ctx context.Context) (string, error) {
		return e.ocr.Submit(ctx, data, config.OCRInstruction)
	})
}

func (e *Extractor) cachePage(ctx context.Context, log *logger_i.Logger, hash string, pageIndex int, text string) {
	if err := e.cache.Put(ctx, hash, pageIndex, text); err != nil {
		log.Warn("Failed to cache page", "page", pageIndex+1, "error", err)
	}
}
