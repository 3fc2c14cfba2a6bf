package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"assaymerge/pkg/contracts/domain"
)

func TestIsWellID(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"A1", true},
		{"b12", true},
		{"  F6  ", true},
		{"C3 (edge)", true},
		{"G1", false},
		{"A", false},
		{"1A", false},
		{"Well", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWellID(tt.value))
		})
	}
}

func TestClassifyRows(t *testing.T) {
	grid := domain.RawGrid{
		{domain.TextCell("Number of header lines:"), domain.NumberCell(4)},
		{domain.TextCell("Experiment"), domain.TextCell("Well")},
		{},
		{domain.TextCell("EXP1"), domain.TextCell("A1")},
		{domain.TextCell("EXP1"), domain.TextCell("   ")},
		{domain.TextCell("EXP1"), domain.TextCell("b2")},
		{domain.TextCell("EXP1")},
		{domain.EmptyCell(), domain.TextCell("C3")},
	}

	assert.Equal(t, []int{3, 5, 7}, ClassifyRows(grid))
}

func TestClassifyRows_EmptyGrid(t *testing.T) {
	assert.Empty(t, ClassifyRows(nil))
}

func TestIsDataRow_NumberCellIsNotAWell(t *testing.T) {
	grid := domain.RawGrid{{domain.TextCell("EXP1"), domain.NumberCell(12)}}
	assert.False(t, IsDataRow(grid, 0))
	assert.False(t, IsDataRow(grid, 5))
}
