package ragErrors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedType   = errors.New("unsupported file type")
	ErrRateLimited       = errors.New("rate limited")
	ErrRetriesExhausted  = errors.New("retries exhausted")
	ErrEmptyContent      = errors.New("no content extracted")
	ErrStorageFailure    = errors.New("storage failure")
	ErrExtractionFailure = errors.New("extraction failed")

	ErrCollectionNotFound      = errors.New("collection not found")
	ErrCollectionAlreadyExists = errors.New("collection already exists")
	ErrInvalidCollectionName   = errors.New("collection name cannot be empty")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrDirectoryNotFound       = errors.New("directory not found")
	ErrNotADirectory           = errors.New("not a directory")
	ErrNoSupportedFiles        = errors.New("no supported files found")
	ErrProviderNotConfigured   = errors.New("provider is not configured")
)

// RateLimitError is returned by cloud providers when the call was throttled.
// RetryAfter is the raw hint: numeric seconds or an HTTP date.
type RateLimitError struct {
	RetryAfter string
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter == "" {
		return "rate limited"
	}
	return "rate limited, retry after " + e.RetryAfter
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// ExtractionFailure names every page (1-based) that could not be converted.
type ExtractionFailure struct {
	Document    string
	FailedPages []int
	Err         error
}

func (e *ExtractionFailure) Error() string {
	if len(e.FailedPages) == 0 {
		if e.Err != nil {
			return fmt.Sprintf("extraction failed for %s: %v", e.Document, e.Err)
		}
		return "extraction failed for " + e.Document
	}
	pages := make([]string, len(e.FailedPages))
	for i, p := range e.FailedPages {
		pages[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("OCR failed for %d page(s) of %s: pages %s", len(e.FailedPages), e.Document, strings.Join(pages, ", "))
}

func (e *ExtractionFailure) Is(target error) bool {
	return target == ErrExtractionFailure
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

// Storage wraps err as a storage failure keeping the original cause.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageFailure) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFailure, err)
}
