package azureDI

import "github.com/akolanti/localrag/internal/domain/commonModels"

type analyzeRequest struct {
	Base64Source string `json:"base64Source"`
}

type analyzeOperation struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
	Error         *operationErr  `json:"error,omitempty"`
}

type operationErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	Content string          `json:"content"`
	Tables  []documentTable `json:"tables"`
}

type documentTable struct {
	RowCount    int            `json:"rowCount"`
	ColumnCount int            `json:"columnCount"`
	Cells       []documentCell `json:"cells"`
	Caption     *textElement   `json:"caption,omitempty"`
	Footnotes   []textElement  `json:"footnotes,omitempty"`
	Spans       []documentSpan `json:"spans"`
}

type documentCell struct {
	Kind        string `json:"kind"`
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	RowSpan     int    `json:"rowSpan"`
	ColumnSpan  int    `json:"columnSpan"`
	Content     string `json:"content"`
}

type textElement struct {
	Content string `json:"content"`
}

type documentSpan struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

func (r *analyzeResult) toStructured() *commonModels.StructuredResult {
	out := &commonModels.StructuredResult{Content: r.Content}
	for _, t := range r.Tables {
		out.Tables = append(out.Tables, t.toTable())
	}
	return out
}

func (t documentTable) toTable() commonModels.Table {
	table := commonModels.Table{
		RowCount:    t.RowCount,
		ColumnCount: t.ColumnCount,
	}
	for _, c := range t.Cells {
		table.Cells = append(table.Cells, commonModels.TableCell{
			RowIndex:    c.RowIndex,
			ColumnIndex: c.ColumnIndex,
			RowSpan:     c.RowSpan,
			ColumnSpan:  c.ColumnSpan,
			Kind:        cellKind(c.Kind),
			Content:     c.Content,
		})
	}
	if t.Caption != nil {
		caption := t.Caption.Content
		table.Caption = &caption
	}
	for _, f := range t.Footnotes {
		table.Footnotes = append(table.Footnotes, f.Content)
	}
	if len(t.Spans) > 0 {
		table.Span = &commonModels.TextSpan{Offset: t.Spans[0].Offset, Length: t.Spans[0].Length}
	}
	return table
}

// cellKind maps the service's kind; absent or unknown kinds are content.
func cellKind(kind string) commonModels.CellKind {
	switch commonModels.CellKind(kind) {
	case commonModels.CellColumnHeader, commonModels.CellRowHeader, commonModels.CellStubHead:
		return commonModels.CellKind(kind)
	}
	return commonModels.CellContent
}
