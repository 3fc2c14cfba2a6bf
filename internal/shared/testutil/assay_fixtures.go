package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"assaymerge/pkg/contracts/domain"
)

// WellRow is one data row of a fixture export. Values are written to the
// measurement columns starting at column 3.
type WellRow struct {
	Experiment string
	Well       string
	Time       string
	Values     []string
}

// exportPreamble mimics the metadata block an instrument writes above the data
func exportPreamble(columns ...string) [][]string {
	header := append([]string{"Experiment", "Well", "Time"}, columns...)
	return [][]string{
		{"Number of header lines:", "4"},
		{"Trial name", "Trial 1"},
		header,
		{"", "", "", "units"},
	}
}

func exportRows(columns []string, rows []WellRow) [][]string {
	out := exportPreamble(columns...)
	for _, r := range rows {
		line := append([]string{r.Experiment, r.Well, r.Time}, r.Values...)
		out = append(out, line)
	}
	return out
}

// MovementRows returns the string rows of a movement export
func MovementRows(rows ...WellRow) [][]string {
	return exportRows([]string{"Distance moved", "Velocity", "Movement", "Movement"}, rows)
}

// TurningRows returns the string rows of a heading/turning export
func TurningRows(rows ...WellRow) [][]string {
	return exportRows([]string{"Heading", "Turn angle", "Angular velocity", "Meander", "Meander"}, rows)
}

// RotationRows returns the string rows of a rotation export
func RotationRows(rows ...WellRow) [][]string {
	return exportRows([]string{"Rotation", "Rotation"}, rows)
}

// DataRowOffset is the grid index of the first data row in fixture exports
const DataRowOffset = 4

// StandardWells lists one well per plate row, A (control) through F
var StandardWells = []string{"A1", "B2", "C3", "D4", "E1", "F6"}

// StandardGrids builds aligned movement, turning and rotation grids for the
// given wells in experiment "EXP1", all in the 00:05:00-00:10:00 bucket.
func StandardGrids(wells ...string) domain.SourceGrids {
	if len(wells) == 0 {
		wells = StandardWells
	}

	var movement, turning, rotation []WellRow
	for i, well := range wells {
		base := float64(i + 1)
		movement = append(movement, WellRow{
			Experiment: "EXP1", Well: well, Time: "00:05:00-00:10:00",
			Values: floats(base*10, base, 30, 270),
		})
		turning = append(turning, WellRow{
			Experiment: "EXP1", Well: well, Time: "00:05:00-00:10:00",
			Values: floats(base*5, base*2, base*3, 0.5, 1.5),
		})
		rotation = append(rotation, WellRow{
			Experiment: "EXP1", Well: well, Time: "00:05:00-00:10:00",
			Values: floats(base, base+1),
		})
	}

	return domain.SourceGrids{
		Movement: domain.GridFromStrings(MovementRows(movement...)),
		Turning:  domain.GridFromStrings(TurningRows(turning...)),
		Rotation: domain.GridFromStrings(RotationRows(rotation...)),
	}
}

func floats(values ...float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%g", v)
	}
	return out
}

// StandardParameters returns a complete parameter set for fixture merges
func StandardParameters() domain.ExperimentParameters {
	return domain.NewExperimentParameters("24h", "Test", map[string]string{
		"B": "1uM",
		"C": "5uM",
		"D": "10uM",
		"E": "10uM",
		"F": "50uM",
	})
}

// WriteWorkbook writes rows to the first sheet of a new .xlsx file in dir
func WriteWorkbook(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WriteCSV writes rows to a CSV file in dir, optionally prefixed with a BOM
func WriteCSV(t *testing.T, dir, name string, rows [][]string, withBOM bool) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer f.Close()

	if withBOM {
		if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			t.Fatalf("write bom: %v", err)
		}
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}
