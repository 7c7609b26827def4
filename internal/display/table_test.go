package display

import (
	"strings"
	"testing"
)

func TestTableRender(t *testing.T) {
	tbl := NewTable("Name", "Value")
	tbl.AddRow("foo", "bar")
	tbl.AddRow("hello", "world")

	var buf strings.Builder
	tbl.Render(&buf)
	output := buf.String()

	// Should contain borders and data
	if !strings.Contains(output, "foo") {
		t.Error("table should contain 'foo'")
	}
	if !strings.Contains(output, "world") {
		t.Error("table should contain 'world'")
	}
	// Should have box-drawing characters
	if !strings.Contains(output, "┌") {
		t.Error("table should contain box-drawing characters")
	}
}

func TestColorHelpers(t *testing.T) {
	if Bold("x") == "x" {
		t.Error("Bold should add ANSI codes")
	}
	if Dim("x") == "x" {
		t.Error("Dim should add ANSI codes")
	}
	if Red("x") == "x" {
		t.Error("Red should add ANSI codes")
	}
}
