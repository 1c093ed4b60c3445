package tables

import (
	"strings"
	"testing"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func simpleTable() commonModels.Table {
	return commonModels.Table{
		RowCount:    3,
		ColumnCount: 2,
		Cells: []commonModels.TableCell{
			{RowIndex: 0, ColumnIndex: 0, Kind: commonModels.CellColumnHeader, Content: "Name"},
			{RowIndex: 0, ColumnIndex: 1, Kind: commonModels.CellColumnHeader, Content: "Qty"},
			{RowIndex: 1, ColumnIndex: 0, Content: "apple"},
			{RowIndex: 1, ColumnIndex: 1, Content: "3"},
			{RowIndex: 2, ColumnIndex: 0, Content: "pear\nwilliams"},
		},
	}
}

func TestNeedsHTML(t *testing.T) {
	tests := []struct {
		name  string
		cells []commonModels.TableCell
		want  bool
	}{
		{"no spans set", []commonModels.TableCell{{RowIndex: 0, ColumnIndex: 0}}, false},
		{"explicit single spans", []commonModels.TableCell{{RowSpan: 1, ColumnSpan: 1}}, false},
		{"row span", []commonModels.TableCell{{RowSpan: 2}}, true},
		{"col span", []commonModels.TableCell{{ColumnSpan: 3}}, true},
		{"two header rows without spans", []commonModels.TableCell{
			{RowIndex: 0, ColumnIndex: 0, Kind: commonModels.CellColumnHeader, Content: "Name"},
			{RowIndex: 1, ColumnIndex: 0, Kind: commonModels.CellColumnHeader, Content: "First"},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsHTML(commonModels.Table{Cells: tt.cells}))
		})
	}
}

func TestMarkdown_SeparatorAfterLastHeaderRow(t *testing.T) {
	tbl := simpleTable()
	// second header row
	tbl.Cells = append(tbl.Cells, commonModels.TableCell{RowIndex: 1, ColumnIndex: 0, Kind: commonModels.CellRowHeader, Content: "apple"})

	lines := strings.Split(Markdown(tbl), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "| Name | Qty |", lines[0])
	assert.Equal(t, "| apple | 3 |", lines[1])
	assert.Equal(t, "| --- | --- |", lines[2])
	assert.Equal(t, "| pear williams |  |", lines[3])
}

func TestMarkdown_NoHeaderRowsSeparatorAfterFirstRow(t *testing.T) {
	tbl := commonModels.Table{
		RowCount:    2,
		ColumnCount: 3,
		Cells: []commonModels.TableCell{
			{RowIndex: 0, ColumnIndex: 0, Content: "a"},
			{RowIndex: 1, ColumnIndex: 2, Content: "f"},
		},
	}
	got := Markdown(tbl)
	assert.Equal(t, "| a |  |  |\n| --- | --- | --- |\n|  |  | f |", got)
}

func TestMarkdown_EveryRowHasColumnCountCells(t *testing.T) {
	tbl := simpleTable()
	for _, line := range strings.Split(Markdown(tbl), "\n") {
		// "| a | b |" has col_count+1 pipes
		assert.Equal(t, tbl.ColumnCount+1, strings.Count(line, "|"), line)
	}
}

func TestMarkdown_CaptionAndFootnotes(t *testing.T) {
	tbl := simpleTable()
	tbl.Caption = strPtr(" Fruit stock ")
	tbl.Footnotes = []string{"as of monday", "  "}

	got := Markdown(tbl)
	assert.True(t, strings.HasPrefix(got, "**Fruit stock**\n\n| Name | Qty |"), got)
	assert.True(t, strings.HasSuffix(got, "|\n\n_as of monday_"), got)
}

func TestHTML_Spans(t *testing.T) {
	tbl := commonModels.Table{
		RowCount:    3,
		ColumnCount: 3,
		Cells: []commonModels.TableCell{
			{RowIndex: 0, ColumnIndex: 0, RowSpan: 2, Kind: commonModels.CellStubHead, Content: "Region"},
			{RowIndex: 0, ColumnIndex: 1, ColumnSpan: 2, Kind: commonModels.CellColumnHeader, Content: "Sales"},
			{RowIndex: 1, ColumnIndex: 0, Content: "DUPLICATE"},
			{RowIndex: 1, ColumnIndex: 1, Kind: commonModels.CellColumnHeader, Content: "Q1"},
			{RowIndex: 1, ColumnIndex: 2, Kind: commonModels.CellColumnHeader, Content: "Q2"},
			{RowIndex: 2, ColumnIndex: 0, Kind: commonModels.CellRowHeader, Content: "North"},
			{RowIndex: 2, ColumnIndex: 1, Content: "10"},
			{RowIndex: 2, ColumnIndex: 2, Content: "12"},
		},
	}
	require.True(t, NeedsHTML(tbl))

	want := strings.Join([]string{
		"<table>",
		`  <tr><th rowspan="2">Region</th><th colspan="2">Sales</th></tr>`,
		"  <tr><th>Q1</th><th>Q2</th></tr>",
		"  <tr><th>North</th><td>10</td><td>12</td></tr>",
		"</table>",
	}, "\n")
	got := Render(tbl)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "DUPLICATE")
}

func TestRebuild_DescendingOffsets(t *testing.T) {
	first := simpleTable()
	first.Span = &commonModels.TextSpan{Offset: 6, Length: 3}
	second := commonModels.Table{
		RowCount: 1, ColumnCount: 1,
		Cells: []commonModels.TableCell{{Content: "x"}},
		Span:  &commonModels.TextSpan{Offset: 14, Length: 3},
	}
	noSpan := simpleTable()

	source := "intro\nT1!\nmid\nT2!\nend"
	got := Rebuild(source, []commonModels.Table{first, second, noSpan})

	want := "intro\n" + Markdown(first) + "\nmid\n" + Markdown(second) + "\nend"
	assert.Equal(t, want, got)
}

func TestRebuild_RuneOffsets(t *testing.T) {
	tbl := commonModels.Table{
		RowCount: 1, ColumnCount: 1,
		Cells: []commonModels.TableCell{{Content: "ü"}},
		Span:  &commonModels.TextSpan{Offset: 3, Length: 2},
	}
	got := Rebuild("äöü<>rest", []commonModels.Table{tbl})
	assert.Equal(t, "äöü| ü |\n| --- |rest", got)
}

func TestRebuild_Deterministic(t *testing.T) {
	tbl := simpleTable()
	tbl.Span = &commonModels.TextSpan{Offset: 0, Length: 4}
	source := "TBL\n tail"

	assert.Equal(t, Rebuild(source, []commonModels.Table{tbl}), Rebuild(source, []commonModels.Table{tbl}))
	assert.Equal(t, source, Rebuild(source, nil))
}

func TestRebuild_SpanClampedToText(t *testing.T) {
	tbl := commonModels.Table{
		RowCount: 1, ColumnCount: 1,
		Cells: []commonModels.TableCell{{Content: "z"}},
		Span:  &commonModels.TextSpan{Offset: 2, Length: 100},
	}
	assert.Equal(t, "ab| z |\n| --- |", Rebuild("abcdef", []commonModels.Table{tbl}))
}

func TestRebuild_OverlappingSpans(t *testing.T) {
	outer := commonModels.Table{
		RowCount: 1, ColumnCount: 1,
		Cells: []commonModels.TableCell{{Content: "outer"}},
		Span:  &commonModels.TextSpan{Offset: 5, Length: 50},
	}
	inner := commonModels.Table{
		RowCount: 1, ColumnCount: 1,
		Cells: []commonModels.TableCell{{Content: "inner"}},
		Span:  &commonModels.TextSpan{Offset: 30, Length: 30},
	}
	source := strings.Repeat("a", 60)

	var got string
	require.NotPanics(t, func() { got = Rebuild(source, []commonModels.Table{outer, inner}) })
	assert.Equal(t, "aaaaa"+Markdown(outer)+Markdown(inner), got)

	sameStart := inner
	sameStart.Span = &commonModels.TextSpan{Offset: 30, Length: 5}
	require.NotPanics(t, func() { Rebuild(source, []commonModels.Table{outer, inner, sameStart}) })
}
