package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// printTable writes rows in aligned columns. A positive entry in maxWidths
// truncates that column; widths are measured in terminal cells.
func printTable(w io.Writer, header []string, rows [][]string, maxWidths []int) {
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, header)
	for _, r := range rows {
		row := make([]string, len(r))
		for i, c := range r {
			c = strings.Join(strings.Fields(c), " ")
			if i < len(maxWidths) && maxWidths[i] > 0 {
				c = runewidth.Truncate(c, maxWidths[i], "…")
			}
			row[i] = c
		}
		cells = append(cells, row)
	}

	widths := make([]int, len(header))
	for _, r := range cells {
		for i, c := range r {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}

	for _, r := range cells {
		parts := make([]string, len(r))
		for i, c := range r {
			if i == len(r)-1 {
				parts[i] = c
				continue
			}
			parts[i] = runewidth.FillRight(c, widths[i])
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}
}
