package domain

import (
	"fmt"
	"strings"
)

// TableKind identifies which of the three instrument exports a grid holds
type TableKind int

const (
	TableMovement TableKind = iota
	TableTurning
	TableRotation
)

// AllTableKinds lists the kinds in join order
var AllTableKinds = []TableKind{TableMovement, TableTurning, TableRotation}

// String returns the lower-case table name
func (k TableKind) String() string {
	switch k {
	case TableMovement:
		return "movement"
	case TableTurning:
		return "turning"
	case TableRotation:
		return "rotation"
	default:
		return fmt.Sprintf("table(%d)", int(k))
	}
}

// ParseTableKind maps a table name to its kind
func ParseTableKind(name string) (TableKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "movement":
		return TableMovement, nil
	case "turning", "heading":
		return TableTurning, nil
	case "rotation":
		return TableRotation, nil
	default:
		return 0, fmt.Errorf("unknown table kind %q", name)
	}
}

// Fixed positional columns shared by all table kinds
const (
	ColumnExperimentID = 0
	ColumnWellID       = 1
	ColumnTime         = 2
)

// TableSchema fixes which grid columns map to which record fields
type TableSchema struct {
	Kind         TableKind
	HasTime      bool
	ValueColumns []int
	Fields       []string
}

// Schema returns the column layout for a table kind
func (k TableKind) Schema() TableSchema {
	switch k {
	case TableMovement:
		return TableSchema{
			Kind:         TableMovement,
			HasTime:      true,
			ValueColumns: []int{3, 4, 5, 6},
			Fields:       []string{"distance_moved", "velocity", "movement1", "movement2"},
		}
	case TableTurning:
		return TableSchema{
			Kind:         TableTurning,
			ValueColumns: []int{3, 4, 5, 6, 7},
			Fields:       []string{"heading", "turn_angle", "angular_velocity", "meander1", "meander2"},
		}
	case TableRotation:
		return TableSchema{
			Kind:         TableRotation,
			ValueColumns: []int{3, 4},
			Fields:       []string{"cw_rotation", "ccw_rotation"},
		}
	default:
		return TableSchema{Kind: k}
	}
}

// SourceGrids holds the three raw grids of one experiment
type SourceGrids struct {
	Movement RawGrid
	Turning  RawGrid
	Rotation RawGrid
}

// Grid returns the grid for a table kind
func (s SourceGrids) Grid(kind TableKind) RawGrid {
	switch kind {
	case TableMovement:
		return s.Movement
	case TableTurning:
		return s.Turning
	case TableRotation:
		return s.Rotation
	default:
		return nil
	}
}
