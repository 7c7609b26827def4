package display

import (
	"fmt"
	"io"
	"strings"
)

// Table renders bordered tables for CLI output.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{headers: headers, widths: widths}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, cols)
}

// Render writes the table to the given writer.
func (t *Table) Render(w io.Writer) {
	if len(t.rows) == 0 && len(t.headers) == 0 {
		return
	}
	t.line(w, "┌", "┬", "┐")
	t.row(w, t.headers)
	t.line(w, "├", "┼", "┤")
	for _, r := range t.rows {
		t.row(w, r)
	}
	t.line(w, "└", "┴", "┘")
}

func (t *Table) line(w io.Writer, left, mid, right string) {
	fmt.Fprint(w, left)
	for i, width := range t.widths {
		fmt.Fprint(w, strings.Repeat("─", width+2))
		if i < len(t.widths)-1 {
			fmt.Fprint(w, mid)
		}
	}
	fmt.Fprintln(w, right)
}

func (t *Table) row(w io.Writer, cols []string) {
	fmt.Fprint(w, "│")
	for i, width := range t.widths {
		val := ""
		if i < len(cols) {
			val = cols[i]
		}
		fmt.Fprintf(w, " %-*s │", width, val)
	}
	fmt.Fprintln(w)
}
