// Package tables rebuilds markdown or HTML tables from structured cell data and
// splices them back into the extracted text they were detected in.
package tables

import (
	"sort"
	"strings"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

type replacement struct {
	start, end int
	text       string
}

// Rebuild replaces the span of every table in source with its reconstruction.
// Offsets are rune offsets into source.
func Rebuild(source string, tables []commonModels.Table) string {
	if len(tables) == 0 {
		return source
	}
	runes := []rune(source)

	var reps []replacement
	for _, t := range tables {
		if t.Span == nil {
			continue
		}
		start := clamp(t.Span.Offset, 0, len(runes))
		end := clamp(t.Span.Offset+t.Span.Length, start, len(runes))
		reps = append(reps, replacement{start: start, end: end, text: Render(t)})
	}

	// right to left so pending offsets still point into the original text.
	// An overlapping span is cut at the start of the table already placed after it.
	sort.SliceStable(reps, func(i, j int) bool { return reps[i].start > reps[j].start })
	prevStart := len(runes)
	for _, r := range reps {
		end := min(r.end, prevStart)
		out := make([]rune, 0, len(runes)-(end-r.start)+len(r.text))
		out = append(out, runes[:r.start]...)
		out = append(out, []rune(r.text)...)
		out = append(out, runes[end:]...)
		runes = out
		prevStart = r.start
	}
	return string(runes)
}

// Render picks HTML when the table has spanning cells, markdown otherwise.
func Render(t commonModels.Table) string {
	if NeedsHTML(t) {
		return HTML(t)
	}
	return Markdown(t)
}

func NeedsHTML(t commonModels.Table) bool {
	for _, c := range t.Cells {
		if span(c.RowSpan) > 1 || span(c.ColumnSpan) > 1 {
			return true
		}
	}
	return false
}

func Markdown(t commonModels.Table) string {
	grid := make([][]string, t.RowCount)
	for r := range grid {
		grid[r] = make([]string, t.ColumnCount)
	}

	headerRows := make(map[int]bool)
	for _, c := range t.Cells {
		if !inGrid(t, c.RowIndex, c.ColumnIndex) {
			continue
		}
		grid[c.RowIndex][c.ColumnIndex] = cellText(c.Content)
		if c.Kind.IsHeader() {
			headerRows[c.RowIndex] = true
		}
	}

	separatorAfter := 0
	for r := range headerRows {
		if r > separatorAfter {
			separatorAfter = r
		}
	}

	var lines []string
	lines = appendCaption(lines, t)
	for r, row := range grid {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
		if r == separatorAfter {
			sep := make([]string, t.ColumnCount)
			for i := range sep {
				sep[i] = "---"
			}
			lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	lines = appendFootnotes(lines, t)
	return strings.Join(lines, "\n")
}

func HTML(t commonModels.Table) string {
	byRow := make(map[int][]commonModels.TableCell)
	for _, c := range t.Cells {
		if !inGrid(t, c.RowIndex, c.ColumnIndex) {
			continue
		}
		byRow[c.RowIndex] = append(byRow[c.RowIndex], c)
	}

	type pos struct{ row, col int }
	occupied := make(map[pos]bool)

	var lines []string
	lines = appendCaption(lines, t)
	lines = append(lines, "<table>")
	for r := 0; r < t.RowCount; r++ {
		cells := byRow[r]
		sort.SliceStable(cells, func(i, j int) bool { return cells[i].ColumnIndex < cells[j].ColumnIndex })

		var b strings.Builder
		b.WriteString("  <tr>")
		for _, c := range cells {
			if occupied[pos{c.RowIndex, c.ColumnIndex}] {
				continue
			}
			rs, cs := span(c.RowSpan), span(c.ColumnSpan)
			for dr := 0; dr < rs; dr++ {
				for dc := 0; dc < cs; dc++ {
					occupied[pos{c.RowIndex + dr, c.ColumnIndex + dc}] = true
				}
			}

			tag := "td"
			if c.Kind.IsHeader() {
				tag = "th"
			}
			b.WriteString("<" + tag)
			if rs > 1 {
				b.WriteString(` rowspan="` + itoa(rs) + `"`)
			}
			if cs > 1 {
				b.WriteString(` colspan="` + itoa(cs) + `"`)
			}
			b.WriteString(">" + cellText(c.Content) + "</" + tag + ">")
		}
		b.WriteString("</tr>")
		lines = append(lines, b.String())
	}
	lines = append(lines, "</table>")
	lines = appendFootnotes(lines, t)
	return strings.Join(lines, "\n")
}
