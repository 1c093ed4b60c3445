package tables

import (
	"strconv"
	"strings"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

func appendCaption(lines []string, t commonModels.Table) []string {
	if t.Caption == nil || strings.TrimSpace(*t.Caption) == "" {
		return lines
	}
	return append(lines, "**"+strings.TrimSpace(*t.Caption)+"**", "")
}

func appendFootnotes(lines []string, t commonModels.Table) []string {
	for _, fn := range t.Footnotes {
		fn = strings.TrimSpace(fn)
		if fn == "" {
			continue
		}
		lines = append(lines, "", "_"+fn+"_")
	}
	return lines
}

func cellText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// span treats missing (zero) spans as one.
func span(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func inGrid(t commonModels.Table, row, col int) bool {
	return row >= 0 && row < t.RowCount && col >= 0 && col < t.ColumnCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
