package mcpserver

import (
	"context"
	"fmt"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CollectionInput struct {
	Name string `json:"name" jsonschema:"the collection name"`
}

type CollectionScopeInput struct {
	Collection string `json:"collection" jsonschema:"the collection name"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

type ListCollectionsOutput struct {
	Collections []string `json:"collections"`
}

type IndexFilesInput struct {
	FilePaths        []string `json:"file_paths" jsonschema:"absolute or ~ paths of the files to index"`
	Collection       string   `json:"collection" jsonschema:"the target collection, created if missing"`
	Force            bool     `json:"force,omitempty" jsonschema:"re-index even if the file is unchanged"`
	ExtractionMethod string   `json:"extraction_method,omitempty" jsonschema:"auto, cloud-structured, cloud-ocr or local-converter (default auto)"`
}

type IndexDirectoryInput struct {
	DirectoryPath    string `json:"directory_path" jsonschema:"the directory to scan"`
	Collection       string `json:"collection" jsonschema:"the target collection, created if missing"`
	GlobPattern      string `json:"glob_pattern,omitempty" jsonschema:"file name pattern such as *.pdf (default *)"`
	Recursive        bool   `json:"recursive,omitempty" jsonschema:"include subdirectories"`
	Force            bool   `json:"force,omitempty" jsonschema:"re-index even if files are unchanged"`
	ExtractionMethod string `json:"extraction_method,omitempty" jsonschema:"auto, cloud-structured, cloud-ocr or local-converter (default auto)"`
}

type RemoveDocumentsInput struct {
	FilePaths  []string `json:"file_paths" jsonschema:"paths of the documents to remove"`
	Collection string   `json:"collection" jsonschema:"the collection holding the documents"`
}

type ListDocumentsOutput struct {
	Documents []commonModels.DocumentSummary `json:"documents"`
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 5)"`
}

type SearchCollectionInput struct {
	Query      string `json:"query" jsonschema:"the search query"`
	Collection string `json:"collection" jsonschema:"the collection to search"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of results (default 5)"`
}

type SearchHit struct {
	Text       string  `json:"text"`
	FilePath   string  `json:"file_path"`
	Collection string  `json:"collection"`
	Score      float32 `json:"score"`
}

type SearchOutput struct {
	Results []SearchHit `json:"results"`
}

type DocumentContentInput struct {
	FilePath   string `json:"file_path" jsonschema:"path of the indexed document"`
	Collection string `json:"collection" jsonschema:"the collection holding the document"`
}

type DocumentContentOutput struct {
	FilePath string   `json:"file_path"`
	Chunks   []string `json:"chunks"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_collection",
		Description: "Create a new collection for organizing documents. Collections allow you to scope searches to specific sets of documents.",
	}, s.handleCreateCollection)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_collection",
		Description: "Delete a collection and all its indexed documents. This action cannot be undone.",
	}, s.handleDeleteCollection)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List all collections by name.",
	}, s.handleListCollections)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_collection_info",
		Description: "Get detailed information about a specific collection including its documents.",
	}, s.handleGetCollectionInfo)
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "index_files",
		Description: "Index one or more files into a collection. Supports PDF, DOCX, and plaintext files. " +
			"Files are chunked, embedded, and stored for semantic search. Use force=true to re-index files even if unchanged.",
	}, s.handleIndexFiles)
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "index_directory",
		Description: "Index all supported files in a directory into a collection. " +
			"Use glob_pattern to filter files (e.g. '*.pdf' for only PDFs). Set recursive=true to include subdirectories.",
	}, s.handleIndexDirectory)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_documents",
		Description: "Remove one or more documents from a collection by their file paths.",
	}, s.handleRemoveDocuments)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documents in a specific collection.",
	}, s.handleListDocuments)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search for relevant document chunks using semantic similarity across all collections.",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_collection",
		Description: "Search within a specific collection.",
	}, s.handleSearchCollection)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document_content",
		Description: "Return the text of an indexed document as its ordered chunks.",
	}, s.handleGetDocumentContent)
}

func (s *Server) handleCreateCollection(ctx context.Context, _ *mcp.CallToolRequest, in CollectionInput) (*mcp.CallToolResult, MessageOutput, error) {
	if err := s.rag.CreateCollection(withTrace(ctx), in.Name); err != nil {
		return nil, MessageOutput{}, err
	}
	return nil, MessageOutput{Message: fmt.Sprintf("Collection '%s' created", in.Name)}, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, _ *mcp.CallToolRequest, in CollectionInput) (*mcp.CallToolResult, MessageOutput, error) {
	removed, err := s.rag.DeleteCollection(withTrace(ctx), in.Name)
	if err != nil {
		return nil, MessageOutput{}, err
	}
	return nil, MessageOutput{Message: fmt.Sprintf("Collection '%s' deleted (%d chunks removed)", in.Name, removed)}, nil
}

func (s *Server) handleListCollections(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ListCollectionsOutput, error) {
	collections, err := s.rag.ListCollections(withTrace(ctx))
	if err != nil {
		return nil, ListCollectionsOutput{}, err
	}
	out := ListCollectionsOutput{Collections: make([]string, len(collections))}
	for i, c := range collections {
		out.Collections[i] = c.Name
	}
	return nil, out, nil
}

func (s *Server) handleGetCollectionInfo(ctx context.Context, _ *mcp.CallToolRequest, in CollectionInput) (*mcp.CallToolResult, commonModels.CollectionInfo, error) {
	info, err := s.rag.GetCollectionInfo(withTrace(ctx), in.Name)
	if err != nil {
		return nil, commonModels.CollectionInfo{}, err
	}
	if info.Documents == nil {
		info.Documents = []commonModels.DocumentSummary{}
	}
	return nil, *info, nil
}

func (s *Server) handleIndexFiles(ctx context.Context, _ *mcp.CallToolRequest, in IndexFilesInput) (*mcp.CallToolResult, commonModels.BatchResult, error) {
	method, err := parseMethod(in.ExtractionMethod)
	if err != nil {
		return nil, commonModels.BatchResult{}, err
	}
	batch, err := s.rag.IndexFiles(withTrace(ctx), in.FilePaths, in.Collection, in.Force, method)
	return nil, batch, err
}

func (s *Server) handleIndexDirectory(ctx context.Context, _ *mcp.CallToolRequest, in IndexDirectoryInput) (*mcp.CallToolResult, commonModels.BatchResult, error) {
	method, err := parseMethod(in.ExtractionMethod)
	if err != nil {
		return nil, commonModels.BatchResult{}, err
	}
	batch, err := s.rag.IndexDirectory(withTrace(ctx), in.DirectoryPath, in.Collection, in.GlobPattern, in.Recursive, in.Force, method)
	return nil, batch, err
}

func (s *Server) handleRemoveDocuments(ctx context.Context, _ *mcp.CallToolRequest, in RemoveDocumentsInput) (*mcp.CallToolResult, commonModels.BatchResult, error) {
	batch, err := s.rag.RemoveDocuments(withTrace(ctx), in.FilePaths, in.Collection)
	return nil, batch, err
}

func (s *Server) handleListDocuments(ctx context.Context, _ *mcp.CallToolRequest, in CollectionScopeInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.rag.ListDocuments(withTrace(ctx), in.Collection)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	if docs == nil {
		docs = []commonModels.DocumentSummary{}
	}
	return nil, ListDocumentsOutput{Documents: docs}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.rag.Search(withTrace(ctx), in.Query, in.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(results), nil
}

func (s *Server) handleSearchCollection(ctx context.Context, _ *mcp.CallToolRequest, in SearchCollectionInput) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.rag.SearchCollection(withTrace(ctx), in.Query, in.Collection, in.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(results), nil
}

func (s *Server) handleGetDocumentContent(ctx context.Context, _ *mcp.CallToolRequest, in DocumentContentInput) (*mcp.CallToolResult, DocumentContentOutput, error) {
	chunks, err := s.rag.GetDocumentContent(withTrace(ctx), in.FilePath, in.Collection)
	if err != nil {
		return nil, DocumentContentOutput{}, err
	}
	if chunks == nil {
		chunks = []string{}
	}
	return nil, DocumentContentOutput{FilePath: in.FilePath, Chunks: chunks}, nil
}

func parseMethod(s string) (commonModels.ExtractionMethod, error) {
	method, ok := commonModels.ParseExtractionMethod(s)
	if !ok {
		return "", fmt.Errorf("unknown extraction method %q: use auto, cloud-structured, cloud-ocr or local-converter", s)
	}
	return method, nil
}

func toSearchOutput(results []commonModels.SearchResult) SearchOutput {
	out := SearchOutput{Results: make([]SearchHit, len(results))}
	for i, r := range results {
		out.Results[i] = SearchHit{
			Text:       r.Text,
			FilePath:   r.FilePath,
			Collection: r.Collection,
			Score:      r.Score,
		}
	}
	return out
}
