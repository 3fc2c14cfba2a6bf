package dataprocessing

import (
	"fmt"

	"assaymerge/internal/errors"
	"assaymerge/pkg/contracts/domain"
)

// Join performs the exact three-way inner join on MergeKey. Output follows
// the movement table's order and takes identifiers from the movement record.
// Empty inputs are reported as EMPTY_EXTRACTION and an empty result as
// EMPTY_JOIN, so callers can tell the two apart.
func Join(movement, turning, rotation domain.RecordSet) ([]domain.MergedRow, error) {
	sets := []domain.RecordSet{movement, turning, rotation}
	for i, set := range sets {
		if set.Kind != domain.AllTableKinds[i] {
			return nil, errors.NewAppValidationError(fmt.Sprintf(
				"join argument %d holds %s records, want %s", i+1, set.Kind, domain.AllTableKinds[i]))
		}
	}

	var empty []string
	for _, set := range sets {
		if set.Len() == 0 {
			empty = append(empty, set.Kind.String())
		}
	}
	if len(empty) > 0 {
		return nil, errors.NewEmptyExtractionError(empty)
	}

	turningByKey := indexByKey(turning)
	rotationByKey := indexByKey(rotation)

	merged := make([]domain.MergedRow, 0, movement.Len())
	for _, m := range movement.Records {
		t, ok := turningByKey[m.MergeKey]
		if !ok {
			continue
		}
		r, ok := rotationByKey[m.MergeKey]
		if !ok {
			continue
		}
		merged = append(merged, domain.MergedRow{
			MergeKey:     m.MergeKey,
			ExperimentID: m.ExperimentID,
			WellID:       m.WellID,
			Time:         m.Time,
			Movement:     domain.MovementMetricsFrom(m),
			Turning:      domain.TurningMetricsFrom(t),
			Rotation:     domain.RotationMetricsFrom(r),
		})
	}

	if len(merged) == 0 {
		return nil, errors.NewEmptyJoinError(map[string]int{
			movement.Kind.String(): movement.Len(),
			turning.Kind.String():  turning.Len(),
			rotation.Kind.String(): rotation.Len(),
		})
	}
	return merged, nil
}

// indexByKey keeps the first record seen for each key
func indexByKey(set domain.RecordSet) map[string]domain.Record {
	index := make(map[string]domain.Record, set.Len())
	for _, record := range set.Records {
		if _, seen := index[record.MergeKey]; !seen {
			index[record.MergeKey] = record
		}
	}
	return index
}

// CheckAlignment compares the three tables row by row. The join assumes the
// exports list wells and time buckets in the same order; every source row
// where the tables name a different experiment or well yields a warning.
func CheckAlignment(movement, turning, rotation domain.RecordSet) []domain.Warning {
	others := []domain.RecordSet{turning, rotation}
	byRow := make([]map[int]domain.Record, len(others))
	for i, set := range others {
		byRow[i] = make(map[int]domain.Record, set.Len())
		for _, record := range set.Records {
			byRow[i][record.SourceRow] = record
		}
	}

	var warnings []domain.Warning
	for _, m := range movement.Records {
		for i, set := range others {
			o, ok := byRow[i][m.SourceRow]
			if !ok {
				continue
			}
			if o.ExperimentID != m.ExperimentID || o.WellID != m.WellID {
				warnings = append(warnings, domain.Warning{
					Code: domain.WarningRowOrderMismatch,
					Message: fmt.Sprintf("row %d: movement has %s/%s but %s has %s/%s",
						m.SourceRow, m.ExperimentID, m.WellID, set.Kind, o.ExperimentID, o.WellID),
				})
			}
		}
	}
	return warnings
}
