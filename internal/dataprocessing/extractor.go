package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"assaymerge/pkg/contracts/domain"
)

// SafeFloat converts a cell to a nullable float. Blank cells and anything
// that does not parse become nil; a comma decimal separator is accepted.
func SafeFloat(cell domain.Cell) *float64 {
	switch cell.Kind {
	case domain.CellNumber:
		if math.IsNaN(cell.Number) || math.IsInf(cell.Number, 0) {
			return nil
		}
		v := cell.Number
		return &v
	case domain.CellText:
		text := strings.TrimSpace(cell.Text)
		if text == "" {
			return nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	default:
		return nil
	}
}

// MergeKey builds the join key for a record. The source row index keeps
// repeated experiment/well pairs from different time buckets apart, and the
// length prefix keeps ids containing "_" from colliding.
func MergeKey(experimentID, wellID string, row int) string {
	return strconv.Itoa(len(experimentID)) + ":" + experimentID + "_" + wellID + "_" + strconv.Itoa(row)
}

// ExtractRecord reads one classified row. It returns false when the row has
// no experiment id or no well id after trimming.
func ExtractRecord(grid domain.RawGrid, row int, schema domain.TableSchema) (domain.Record, bool) {
	experimentID := strings.TrimSpace(grid.Cell(row, domain.ColumnExperimentID).String())
	wellID := strings.TrimSpace(grid.Cell(row, domain.ColumnWellID).String())
	if experimentID == "" || wellID == "" {
		return domain.Record{}, false
	}

	record := domain.Record{
		Kind:         schema.Kind,
		SourceRow:    row,
		ExperimentID: experimentID,
		WellID:       wellID,
		MergeKey:     MergeKey(experimentID, wellID, row),
		Values:       make([]*float64, len(schema.ValueColumns)),
	}
	if schema.HasTime {
		record.Time = strings.TrimSpace(grid.Cell(row, domain.ColumnTime).String())
	}
	for i, col := range schema.ValueColumns {
		record.Values[i] = SafeFloat(grid.Cell(row, col))
	}
	return record, true
}

// Extract classifies the grid and extracts one record per usable data row
func Extract(grid domain.RawGrid, kind domain.TableKind) domain.RecordSet {
	schema := kind.Schema()
	rows := ClassifyRows(grid)

	set := domain.RecordSet{
		Kind:    kind,
		Records: make([]domain.Record, 0, len(rows)),
		Stats: domain.TableStats{
			Kind:        kind,
			Table:       kind.String(),
			ScannedRows: grid.Rows(),
			Classified:  len(rows),
		},
	}

	for _, row := range rows {
		record, ok := ExtractRecord(grid, row, schema)
		if !ok {
			set.Stats.Skipped++
			continue
		}
		set.Records = append(set.Records, record)
	}
	set.Stats.Extracted = len(set.Records)
	return set
}
