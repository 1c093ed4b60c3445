package commonModels

type CellKind string

const (
	CellContent      CellKind = "content"
	CellColumnHeader CellKind = "columnHeader"
	CellRowHeader    CellKind = "rowHeader"
	CellStubHead     CellKind = "stubHead"
)

func (k CellKind) IsHeader() bool {
	return k == CellColumnHeader || k == CellRowHeader || k == CellStubHead
}

type TableCell struct {
	RowIndex    int      `json:"rowIndex"`
	ColumnIndex int      `json:"columnIndex"`
	RowSpan     int      `json:"rowSpan,omitempty"`
	ColumnSpan  int      `json:"columnSpan,omitempty"`
	Kind        CellKind `json:"kind,omitempty"`
	Content     string   `json:"content"`
}

// TextSpan is measured in runes of the source content.
type TextSpan struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type Table struct {
	RowCount    int         `json:"rowCount"`
	ColumnCount int         `json:"columnCount"`
	Cells       []TableCell `json:"cells"`
	Caption     *string     `json:"caption,omitempty"`
	Footnotes   []string    `json:"footnotes,omitempty"`
	Span        *TextSpan   `json:"span,omitempty"`
}

type StructuredResult struct {
	Content string
	Tables  []Table
}
