package dataprocessing

import "assaymerge/pkg/contracts/domain"

// AssembleRows attaches parameters and derived attributes to merged rows
func AssembleRows(rows []domain.MergedRow, params domain.ExperimentParameters) []domain.OutputRow {
	out := make([]domain.OutputRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, AssembleRow(row, params))
	}
	return out
}

// AssembleRow builds one output row
func AssembleRow(row domain.MergedRow, params domain.ExperimentParameters) domain.OutputRow {
	treatment := AssignTreatment(row.WellID, params)

	return domain.OutputRow{
		ExperimentID:  row.ExperimentID,
		ExposureTime:  params.ExposureTime,
		WellID:        row.WellID,
		Role:          treatment.Role,
		Compound:      treatment.Compound,
		Concentration: treatment.Concentration,
		Time:          row.Time,
		Light:         LightPhaseAt(MidpointMinutes(row.Time)),

		DistanceMoved: row.Movement.DistanceMoved,
		Velocity:      row.Movement.Velocity,
		Movement:      row.Movement.Movement1,
		Movement2:     row.Movement.Movement2,

		Heading:         row.Turning.Heading,
		TurnAngle:       row.Turning.TurnAngle,
		AngularVelocity: row.Turning.AngularVelocity,
		Meander:         row.Turning.Meander1,
		Meander2:        row.Turning.Meander2,

		CWRotation:  row.Rotation.CWRotation,
		CCWRotation: row.Rotation.CCWRotation,
	}
}

// BuildTable prepends the static header block to the data rows
func BuildTable(rows []domain.OutputRow) domain.OutputTable {
	return domain.OutputTable{
		Header: domain.HeaderBlock(),
		Rows:   rows,
	}
}
