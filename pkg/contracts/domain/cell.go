package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CellKind identifies which variant a Cell holds
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// String returns the variant name
func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return fmt.Sprintf("CellKind(%d)", uint8(k))
	}
}

// Cell is one untyped spreadsheet value. Numeric interpretation is left to the
// record extractor; a Cell never converts itself implicitly.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// EmptyCell returns the Empty variant
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// TextCell returns a Text cell holding s
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a Number cell holding f
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// IsBlank reports whether the cell is Empty or Text made only of whitespace
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String renders the cell the way a spreadsheet shows it: "" for Empty,
// the raw text for Text, and the shortest decimal form for Number.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes Empty as null, Text as a string and Number as a number
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, numbers and booleans
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = EmptyCell()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid text cell: %w", err)
		}
		*c = TextCell(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid boolean cell: %w", err)
		}
		*c = TextCell(strconv.FormatBool(b))
	case '[', '{':
		return fmt.Errorf("cell must be a scalar, got %s", string(data[:1]))
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("invalid number cell: %w", err)
		}
		*c = NumberCell(f)
	}
	return nil
}

// RawGrid is a header-less grid of cells as read from one spreadsheet
type RawGrid [][]Cell

// Cell returns the cell at (row, col), or Empty when out of range
func (g RawGrid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g) {
		return EmptyCell()
	}
	if col < 0 || col >= len(g[row]) {
		return EmptyCell()
	}
	return g[row][col]
}

// Rows returns the number of rows in the grid
func (g RawGrid) Rows() int {
	return len(g)
}

// GridFromStrings builds a grid from string rows. Empty strings become Empty
// cells so that spreadsheet readers and CSV readers agree.
func GridFromStrings(rows [][]string) RawGrid {
	grid := make(RawGrid, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, value := range row {
			if value == "" {
				cells[j] = EmptyCell()
				continue
			}
			cells[j] = TextCell(value)
		}
		grid[i] = cells
	}
	return grid
}
