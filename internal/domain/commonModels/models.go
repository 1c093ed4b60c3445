package commonModels

import (
	"path/filepath"
	"strings"
	"time"
)

type DocType string

const (
	PDF       DocType = "pdf"
	DOCX      DocType = "docx"
	PlainText DocType = "plaintext"
	ERR       DocType = "error"
)

var SupportedExtensions = map[string]DocType{
	".pdf":      PDF,
	".docx":     DOCX,
	".txt":      PlainText,
	".md":       PlainText,
	".markdown": PlainText,
	".rst":      PlainText,
	".text":     PlainText,
}

// GetDocType resolves the document type from the file extension, ERR if unsupported.
func GetDocType(path string) DocType {
	if t, ok := SupportedExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return ERR
}

type ExtractionMethod string

const (
	MethodAuto            ExtractionMethod = "auto"
	MethodCloudStructured ExtractionMethod = "cloud-structured"
	MethodCloudOCR        ExtractionMethod = "cloud-ocr"
	MethodLocalConverter  ExtractionMethod = "local-converter"
)

// ParseExtractionMethod maps user input to a method. Empty input means auto.
func ParseExtractionMethod(s string) (ExtractionMethod, bool) {
	switch ExtractionMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodAuto:
		return MethodAuto, true
	case MethodCloudStructured:
		return MethodCloudStructured, true
	case MethodCloudOCR:
		return MethodCloudOCR, true
	case MethodLocalConverter:
		return MethodLocalConverter, true
	}
	return "", false
}

type ExtractedDocument struct {
	Path        string
	ContentHash string
	Content     string
	DocType     DocType
	PageCount   *int
}

type DocumentRecord struct {
	DocId      string    `json:"doc_id"`
	FilePath   string    `json:"file_path"`
	FileHash   string    `json:"file_hash"`
	FileMtime  float64   `json:"file_mtime"`
	DocType    DocType   `json:"file_type"`
	Collection string    `json:"collection"`
	ChunkCount int       `json:"chunk_count"`
	IndexedAt  time.Time `json:"indexed_at"`
}

type Collection struct {
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int       `json:"document_count"`
}

type DocumentSummary struct {
	FilePath   string  `json:"file_path"`
	DocType    DocType `json:"file_type,omitempty"`
	ChunkCount int     `json:"chunk_count"`
}

type CollectionInfo struct {
	Name          string            `json:"name"`
	CreatedAt     time.Time         `json:"created_at"`
	DocumentCount int               `json:"document_count"`
	ChunkCount    int               `json:"chunk_count"`
	Documents     []DocumentSummary `json:"documents"`
}

type ChunkRecord struct {
	Text       string `json:"text"`
	DocId      string `json:"doc_id"`
	FilePath   string `json:"file_path"`
	Collection string `json:"collection"`
	ChunkIndex int    `json:"chunk_index"`
}

type SearchResult struct {
	ChunkRecord
	Score float32 `json:"score"`
}

type FileIndexResult struct {
	FilePath   string `json:"file_path"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Message    string `json:"message,omitempty"`
}

type BatchResult struct {
	Results   []FileIndexResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// NewBatchResult tallies per-file results, keeping input order.
func NewBatchResult(results []FileIndexResult) BatchResult {
	b := BatchResult{Results: results}
	for _, r := range results {
		if r.Success {
			b.Succeeded++
		} else {
			b.Failed++
		}
	}
	return b
}
