package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/localrag/internal/config"
)

// ComputeFileHash is the hex sha256 of the raw file bytes.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileMtime returns the modification time as fractional unix seconds.
func FileMtime(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}

// MakeDocId is stable for a (collection, absolute path) pair.
func MakeDocId(collection string, absPath string) string {
	sum := sha256.Sum256([]byte(collection + "\x00" + absPath))
	return hex.EncodeToString(sum[:])[:16]
}

// NeedsOCR reports whether locally extracted text is too thin to trust.
func NeedsOCR(text string, pageCount int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < config.MinTextLengthThreshold {
		return true
	}
	return pageCount > 0 && n/pageCount < config.MinTextPerPageRatio
}
