package domain

import "sort"

// OutputColumns is the primary header row of every merged table
var OutputColumns = []string{
	"experiment_id", "exposure_time", "well_id", "Test/Control", "Compound",
	"Concentration", "Time", "Light", "Distance moved", "Velocity",
	"Movement", "Movement_2", "Heading", "Turn angle", "Angular velocity",
	"Meander", "Meander_2", "CW Rotation", "CCW Rotation",
}

// HeaderRowCount is the number of rows before the first data row
const HeaderRowCount = 4

// auxiliaryHeaders holds the annotation rows 1-3 for the numeric columns.
// Columns not listed are blank in all three rows.
var auxiliaryHeaders = map[string][3]string{
	"Distance moved":   {"Center-point", "Total", "mm"},
	"Velocity":         {"Center-point", "Mean", "mm/s"},
	"Movement":         {"Moving / Center-point", "Cumulative Duration", "s"},
	"Movement_2":       {"Not Moving / Center-point", "Cumulative Duration", "s"},
	"Heading":          {"Center-point", "Mean", "deg"},
	"Turn angle":       {"Center-point / relative", "Mean", "deg"},
	"Angular velocity": {"Center-point / relative", "Mean", "deg/s"},
	"Meander":          {"Center-point / relative", "Mean", "deg/mm"},
	"Meander_2":        {"Center-point / relative", "Total", "deg/mm"},
	"CW Rotation":      {"Center-point / Clockwise", "Frequency", ""},
	"CCW Rotation":     {"Center-point / Counter clockwise", "Frequency", ""},
}

// HeaderBlock returns a fresh copy of the four static header rows
func HeaderBlock() [][]string {
	block := make([][]string, HeaderRowCount)
	block[0] = append([]string(nil), OutputColumns...)
	for i := 1; i < HeaderRowCount; i++ {
		row := make([]string, len(OutputColumns))
		for j, column := range OutputColumns {
			if annotations, ok := auxiliaryHeaders[column]; ok {
				row[j] = annotations[i-1]
			}
		}
		block[i] = row
	}
	return block
}

// OutputRow is one data row of the merged table
type OutputRow struct {
	ExperimentID  string     `json:"experiment_id"`
	ExposureTime  string     `json:"exposure_time"`
	WellID        string     `json:"well_id"`
	Role          Role       `json:"test_control"`
	Compound      string     `json:"compound"`
	Concentration string     `json:"concentration"`
	Time          string     `json:"time"`
	Light         LightPhase `json:"light"`

	DistanceMoved   *float64 `json:"distance_moved"`
	Velocity        *float64 `json:"velocity"`
	Movement        *float64 `json:"movement"`
	Movement2       *float64 `json:"movement_2"`
	Heading         *float64 `json:"heading"`
	TurnAngle       *float64 `json:"turn_angle"`
	AngularVelocity *float64 `json:"angular_velocity"`
	Meander         *float64 `json:"meander"`
	Meander2        *float64 `json:"meander_2"`
	CWRotation      *float64 `json:"cw_rotation"`
	CCWRotation     *float64 `json:"ccw_rotation"`
}

// Labels returns the eight text columns in output order
func (r OutputRow) Labels() []string {
	return []string{
		r.ExperimentID, r.ExposureTime, r.WellID, string(r.Role),
		r.Compound, r.Concentration, r.Time, string(r.Light),
	}
}

// Measurements returns the eleven numeric columns in output order
func (r OutputRow) Measurements() []*float64 {
	return []*float64{
		r.DistanceMoved, r.Velocity, r.Movement, r.Movement2,
		r.Heading, r.TurnAngle, r.AngularVelocity, r.Meander, r.Meander2,
		r.CWRotation, r.CCWRotation,
	}
}

// OutputTable is the static header block followed by the data rows
type OutputTable struct {
	Header [][]string  `json:"header"`
	Rows   []OutputRow `json:"rows"`
}

// Len returns the number of rows including the header block
func (t OutputTable) Len() int {
	return len(t.Header) + len(t.Rows)
}

// TableSummary mirrors the statistics shown next to a merge preview
type TableSummary struct {
	TotalRows         int      `json:"total_rows"`
	DataRows          int      `json:"data_rows"`
	UniqueExperiments int      `json:"unique_experiments"`
	UniqueWells       int      `json:"unique_wells"`
	SampleWells       []string `json:"sample_wells"`
}

// Summary counts rows and distinct identifiers, ignoring the header block
func (t OutputTable) Summary() TableSummary {
	experiments := make(map[string]struct{})
	wells := make(map[string]struct{})
	for _, row := range t.Rows {
		experiments[row.ExperimentID] = struct{}{}
		wells[row.WellID] = struct{}{}
	}

	sorted := make([]string, 0, len(wells))
	for well := range wells {
		sorted = append(sorted, well)
	}
	sort.Strings(sorted)
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}

	return TableSummary{
		TotalRows:         t.Len(),
		DataRows:          len(t.Rows),
		UniqueExperiments: len(experiments),
		UniqueWells:       len(wells),
		SampleWells:       sorted,
	}
}

// WarningCode classifies a non-fatal merge finding
type WarningCode string

const (
	WarningRowCountMismatch WarningCode = "ROW_COUNT_MISMATCH"
	WarningRowOrderMismatch WarningCode = "ROW_ORDER_MISMATCH"
)

// Warning is a non-fatal finding surfaced alongside a finished table
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// MergeReport describes how a merge went
type MergeReport struct {
	RunID    string       `json:"run_id"`
	Tables   []TableStats `json:"tables"`
	Joined   int          `json:"joined"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

// HasWarnings reports whether any warning was raised
func (r MergeReport) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// MergeResult is the finished table and its report
type MergeResult struct {
	Table  OutputTable `json:"table"`
	Report MergeReport `json:"report"`
}
