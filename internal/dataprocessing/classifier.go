package dataprocessing

import (
	"regexp"
	"strings"

	"assaymerge/pkg/contracts/domain"
)

// wellIDPattern matches a plate row letter A-F followed by a column number.
// Only the start is anchored, so "B12 (edge)" still counts as a well.
var wellIDPattern = regexp.MustCompile(`^[A-Fa-f][0-9]+`)

// IsWellID reports whether a trimmed cell value looks like a well identifier
func IsWellID(value string) bool {
	return wellIDPattern.MatchString(strings.TrimSpace(value))
}

// IsDataRow reports whether row i of the grid carries a well id in column 1
func IsDataRow(grid domain.RawGrid, i int) bool {
	cell := grid.Cell(i, domain.ColumnWellID)
	if cell.IsBlank() {
		return false
	}
	return IsWellID(cell.String())
}

// ClassifyRows returns the indices of data rows in grid order. Header,
// metadata and blank rows are skipped without error.
func ClassifyRows(grid domain.RawGrid) []int {
	rows := make([]int, 0, grid.Rows())
	for i := 0; i < grid.Rows(); i++ {
		if IsDataRow(grid, i) {
			rows = append(rows, i)
		}
	}
	return rows
}
