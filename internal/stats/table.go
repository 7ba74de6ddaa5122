package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one column of a plain-text table.
type column struct {
	title string
	right bool
}

// formatTable lays rows out under cols, sizing each column to its widest
// cell in display cells. Missing cells render empty and trailing blanks are
// trimmed from every line.
func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range rows {
		for i := range cols {
			if w := runewidth.StringWidth(cellAt(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	lines := []string{joinCells(cols, widths, header)}
	for _, row := range rows {
		lines = append(lines, joinCells(cols, widths, row))
	}
	return lines
}

func joinCells(cols []column, widths []int, row []string) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		if c.right {
			cells[i] = runewidth.FillLeft(cellAt(row, i), widths[i])
		} else {
			cells[i] = runewidth.FillRight(cellAt(row, i), widths[i])
		}
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
