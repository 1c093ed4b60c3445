package ingest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/localrag/internal/data/store"
	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
	"github.com/akolanti/localrag/internal/rag/ocr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakePDF struct {
	texts    []string
	pageErrs map[int]error
}

func (d *fakePDF) PageCount() int { return len(d.texts) }
func (d *fakePDF) PageText(i int) (string, error) {
	if err := d.pageErrs[i]; err != nil {
		return "", err
	}
	return d.texts[i], nil
}
func (d *fakePDF) PageBytes(i int) ([]byte, error) {
	return []byte("page-" + strconv.Itoa(i)), nil
}
func (d *fakePDF) Text() (string, error) { return strings.Join(d.texts, "\n\n"), nil }
func (d *fakePDF) Close() error          { return nil }

type fakeSource struct{ doc *fakePDF }

func (s fakeSource) Open(string) (PDFDocument, error) { return s.doc, nil }

type fakeOCR struct {
	mu       sync.Mutex
	attempts map[int]int
	OnSubmit func(page int, attempt int) (string, error)
}

func newFakeOCR(onSubmit func(page int, attempt int) (string, error)) *fakeOCR {
	return &fakeOCR{attempts: make(map[int]int), OnSubmit: onSubmit}
}

func (f *fakeOCR) Submit(_ context.Context, pageBytes []byte, instruction string) (string, error) {
	page, err := strconv.Atoi(strings.TrimPrefix(string(pageBytes), "page-"))
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.attempts[page]++
	attempt := f.attempts[page]
	f.mu.Unlock()
	return f.OnSubmit(page, attempt)
}

func (f *fakeOCR) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.attempts {
		n += c
	}
	return n
}

type fakeStructured struct {
	result *commonModels.StructuredResult
	calls  int
}

func (f *fakeStructured) Analyze(context.Context, []byte) (*commonModels.StructuredResult, error) {
	f.calls++
	return f.result, nil
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	r.mu.Unlock()
	return nil
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ocrText(page int) string { return fmt.Sprintf("ocr text of page %d", page) }

const richText = "This page carries plenty of embedded text so it never needs any OCR at all."

func newTestExtractor(cache *store.InMemoryPageCache, texts []string, provider *fakeOCR, sleeper *sleepRecorder) *Extractor {
	retry := ocr.NewRetryController(ocr.NewLimiter(4))
	if sleeper != nil {
		retry = retry.WithSleep(sleeper.Sleep)
	}
	var e *Extractor
	if provider != nil {
		e = NewExtractor(cache, retry, provider, nil)
	} else {
		e = NewExtractor(cache, retry, nil, nil)
	}
	return e.WithPDFSource(fakeSource{doc: &fakePDF{texts: texts}})
}

// --- tests ---

func TestExtract_PageOrderUnderRandomLatency(t *testing.T) {
	const pages = 24
	path := writeFile(t, "scan.pdf", "%PDF scanned")
	provider := newFakeOCR(func(page int, _ int) (string, error) {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return ocrText(page), nil
	})
	e := newTestExtractor(store.InitInMemoryPageCache(nil), make([]string, pages), provider, nil)

	doc, err := e.Extract(context.Background(), path, commonModels.MethodAuto, false)
	require.NoError(t, err)

	want := make([]string, pages)
	for i := range want {
		want[i] = ocrText(i)
	}
	assert.Equal(t, strings.Join(want, "\n\n"), doc.Content)
	require.NotNil(t, doc.PageCount)
	assert.Equal(t, pages, *doc.PageCount)
	assert.Equal(t, commonModels.PDF, doc.DocType)
}

func TestExtract_CacheAndForce(t *testing.T) {
	path := writeFile(t, "scan.pdf", "%PDF scanned")
	cache := store.InitInMemoryPageCache(nil)
	provider := newFakeOCR(func(page int, _ int) (string, error) { return ocrText(page), nil })
	e := newTestExtractor(cache, []string{"", richText, ""}, provider, nil)
	ctx := context.Background()

	first, err := e.Extract(ctx, path, commonModels.MethodAuto, false)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.total())
	assert.Equal(t, 3, cache.Len(first.ContentHash), "local pages are cached too")

	second, err := e.Extract(ctx, path, commonModels.MethodAuto, false)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.total(), "cached run makes no OCR calls")
	assert.Equal(t, first.Content, second.Content)

	_, err = e.Extract(ctx, path, commonModels.MethodAuto, true)
	require.NoError(t, err)
	assert.Equal(t, 4, provider.total(), "force bypasses the cache")
}

func TestExtract_RateLimitedPageScenario(t *testing.T) {
	path := writeFile(t, "report.pdf", "%PDF three pages")
	cache := store.InitInMemoryPageCache(nil)
	sleeper := &sleepRecorder{}
	provider := newFakeOCR(func(page int, attempt int) (string, error) {
		if page == 1 && attempt == 1 {
			return "", &ragErrors.RateLimitError{RetryAfter: "2"}
		}
		return ocrText(page), nil
	})
	e := newTestExtractor(cache, []string{richText, "", "   "}, provider, sleeper)

	doc, err := e.Extract(context.Background(), path, commonModels.MethodAuto, false)
	require.NoError(t, err)

	assert.Equal(t, richText+"\n\n"+ocrText(1)+"\n\n"+ocrText(2), doc.Content)
	require.Len(t, sleeper.sleeps, 1)
	assert.GreaterOrEqual(t, sleeper.sleeps[0], 2*time.Second)
	assert.Equal(t, 3, provider.total())
	assert.Equal(t, 3, cache.Len(doc.ContentHash))
}

func TestExtract_FailureNamesEveryPage(t *testing.T) {
	path := writeFile(t, "broken.pdf", "%PDF broken")
	cache := store.InitInMemoryPageCache(nil)
	provider := newFakeOCR(func(page int, _ int) (string, error) {
		if page == 0 || page == 2 {
			return "", errors.New("model refused")
		}
		return ocrText(page), nil
	})
	e := newTestExtractor(cache, make([]string, 3), provider, nil)

	_, err := e.Extract(context.Background(), path, commonModels.MethodCloudOCR, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ragErrors.ErrExtractionFailure))

	var failure *ragErrors.ExtractionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []int{1, 3}, failure.FailedPages)
	assert.Equal(t, "OCR failed for 2 page(s) of broken.pdf: pages 1, 3", failure.Error())

	hash, err := ComputeFileHash(path)
	require.NoError(t, err)
	_, found, _ := cache.Get(context.Background(), hash, 1)
	assert.True(t, found, "successful pages stay cached")
	assert.Equal(t, 1, cache.Len(hash))
}

func TestExtract_CloudOCRSendsEveryUncachedPage(t *testing.T) {
	path := writeFile(t, "text.pdf", "%PDF text")
	provider := newFakeOCR(func(page int, _ int) (string, error) { return ocrText(page), nil })
	e := newTestExtractor(store.InitInMemoryPageCache(nil), []string{richText, richText}, provider, nil)

	_, err := e.Extract(context.Background(), path, commonModels.MethodCloudOCR, false)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.total())
}

func TestExtract_WholeDocumentLocal(t *testing.T) {
	tests := []struct {
		name     string
		method   commonModels.ExtractionMethod
		provider *fakeOCR
	}{
		{"local converter", commonModels.MethodLocalConverter, newFakeOCR(func(int, int) (string, error) { return "x", nil })},
		{"auto without ocr", commonModels.MethodAuto, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "doc.pdf", "%PDF "+tt.name)
			cache := store.InitInMemoryPageCache(nil)
			e := newTestExtractor(cache, []string{"one", "", "three"}, tt.provider, nil)

			doc, err := e.Extract(context.Background(), path, tt.method, false)
			require.NoError(t, err)
			assert.Equal(t, "one\n\n\n\nthree", doc.Content)
			assert.Zero(t, cache.Len(doc.ContentHash), "whole-document conversion bypasses the cache")
			if tt.provider != nil {
				assert.Zero(t, tt.provider.total())
			}
		})
	}
}

func TestExtract_Structured(t *testing.T) {
	path := writeFile(t, "tables.pdf", "%PDF tables")
	content := "Before\nTABLE\nAfter"
	provider := &fakeStructured{result: &commonModels.StructuredResult{
		Content: content,
		Tables: []commonModels.Table{{
			RowCount:    2,
			ColumnCount: 2,
			Cells: []commonModels.TableCell{
				{RowIndex: 0, ColumnIndex: 0, Kind: commonModels.CellColumnHeader, Content: "A"},
				{RowIndex: 0, ColumnIndex: 1, Kind: commonModels.CellColumnHeader, Content: "B"},
				{RowIndex: 1, ColumnIndex: 0, Content: "1"},
				{RowIndex: 1, ColumnIndex: 1, Content: "2"},
			},
			Span: &commonModels.TextSpan{Offset: 7, Length: 5},
		}},
	}}
	ocrProvider := newFakeOCR(func(int, int) (string, error) { return "x", nil })
	retry := ocr.NewRetryController(ocr.NewLimiter(1))
	e := NewExtractor(store.InitInMemoryPageCache(nil), retry, ocrProvider, provider).
		WithPDFSource(fakeSource{doc: &fakePDF{texts: []string{""}}})

	doc, err := e.Extract(context.Background(), path, commonModels.MethodAuto, false)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Zero(t, ocrProvider.total(), "auto prefers structured extraction")
	assert.True(t, strings.HasPrefix(doc.Content, "Before\n"))
	assert.True(t, strings.HasSuffix(doc.Content, "\nAfter"))
	assert.Contains(t, doc.Content, "| A | B |")
	assert.NotContains(t, doc.Content, "TABLE")
}

func TestExtract_StructuredNotConfigured(t *testing.T) {
	path := writeFile(t, "doc.pdf", "%PDF")
	e := newTestExtractor(store.InitInMemoryPageCache(nil), []string{"x"}, nil, nil)

	_, err := e.Extract(context.Background(), path, commonModels.MethodCloudStructured, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ragErrors.ErrExtractionFailure))
	assert.True(t, errors.Is(err, ragErrors.ErrProviderNotConfigured))
}

func TestExtract_InputErrors(t *testing.T) {
	e := newTestExtractor(store.InitInMemoryPageCache(nil), nil, nil, nil)
	ctx := context.Background()

	_, err := e.Extract(ctx, writeFile(t, "image.png", "png"), commonModels.MethodAuto, false)
	assert.True(t, errors.Is(err, ragErrors.ErrUnsupportedType))
	assert.Contains(t, err.Error(), ".png")

	_, err = e.Extract(ctx, filepath.Join(t.TempDir(), "missing.pdf"), commonModels.MethodAuto, false)
	assert.True(t, errors.Is(err, ragErrors.ErrNotFound))
}

func TestExtract_PlainText(t *testing.T) {
	path := writeFile(t, "notes.md", "# Title\nbad byte \xff here")
	e := newTestExtractor(store.InitInMemoryPageCache(nil), nil, nil, nil)

	doc, err := e.Extract(context.Background(), path, commonModels.MethodAuto, false)
	require.NoError(t, err)
	assert.Equal(t, commonModels.PlainText, doc.DocType)
	assert.Equal(t, "# Title\nbad byte � here", doc.Content)
	assert.Nil(t, doc.PageCount)
	assert.Len(t, doc.ContentHash, 64)
}

func TestExtract_LocalPageFailureFailsDocument(t *testing.T) {
	path := writeFile(t, "broken.pdf", "%PDF broken")
	cache := store.InitInMemoryPageCache(nil)
	e := newTestExtractor(cache, nil, nil, nil).
		WithPDFSource(fakeSource{doc: &fakePDF{
			texts:    []string{richText, richText, richText},
			pageErrs: map[int]error{1: errors.New("bad xref")},
		}})

	doc, err := e.Extract(context.Background(), path, commonModels.MethodCloudOCR, false)
	require.Error(t, err)
	assert.Nil(t, doc)

	var failure *ragErrors.ExtractionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []int{2}, failure.FailedPages)
	assert.ErrorContains(t, failure.Err, "bad xref")

	hash, err := ComputeFileHash(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len(hash), "readable pages stay cached for the retry")
}

func TestExtract_LocalPageFailureGoesToOCR(t *testing.T) {
	path := writeFile(t, "mixed.pdf", "%PDF mixed")
	provider := newFakeOCR(func(page int, _ int) (string, error) { return ocrText(page), nil })
	e := newTestExtractor(store.InitInMemoryPageCache(nil), nil, provider, nil).
		WithPDFSource(fakeSource{doc: &fakePDF{
			texts:    []string{richText, richText},
			pageErrs: map[int]error{1: errors.New("bad xref")},
		}})

	doc, err := e.Extract(context.Background(), path, commonModels.MethodAuto, false)
	require.NoError(t, err)
	assert.Equal(t, richText+"\n\n"+ocrText(1), doc.Content)
	assert.Equal(t, 1, provider.total())
}
