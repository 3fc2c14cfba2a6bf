package domain

// Record is one extracted observation from a single table
type Record struct {
	Kind         TableKind  `json:"kind"`
	SourceRow    int        `json:"source_row"`
	ExperimentID string     `json:"experiment_id"`
	WellID       string     `json:"well_id"`
	Time         string     `json:"time,omitempty"`
	MergeKey     string     `json:"merge_key"`
	Values       []*float64 `json:"values"`
}

// Value returns the i-th numeric field in schema order, or nil
func (r Record) Value(i int) *float64 {
	if i < 0 || i >= len(r.Values) {
		return nil
	}
	return r.Values[i]
}

// TableStats counts what one extraction pass saw
type TableStats struct {
	Kind        TableKind `json:"-"`
	Table       string    `json:"table"`
	ScannedRows int       `json:"scanned_rows"`
	Classified  int       `json:"classified"`
	Extracted   int       `json:"extracted"`
	Skipped     int       `json:"skipped"`
}

// RecordSet is the output of one extraction pass
type RecordSet struct {
	Kind    TableKind
	Records []Record
	Stats   TableStats
}

// Len returns the number of extracted records
func (s RecordSet) Len() int {
	return len(s.Records)
}

// MovementMetrics holds the movement table's numeric fields
type MovementMetrics struct {
	DistanceMoved *float64 `json:"distance_moved"`
	Velocity      *float64 `json:"velocity"`
	Movement1     *float64 `json:"movement1"`
	Movement2     *float64 `json:"movement2"`
}

// TurningMetrics holds the heading/turning table's numeric fields
type TurningMetrics struct {
	Heading         *float64 `json:"heading"`
	TurnAngle       *float64 `json:"turn_angle"`
	AngularVelocity *float64 `json:"angular_velocity"`
	Meander1        *float64 `json:"meander1"`
	Meander2        *float64 `json:"meander2"`
}

// RotationMetrics holds the rotation table's numeric fields
type RotationMetrics struct {
	CWRotation  *float64 `json:"cw_rotation"`
	CCWRotation *float64 `json:"ccw_rotation"`
}

// MovementMetricsFrom maps a movement record's values onto named fields
func MovementMetricsFrom(r Record) MovementMetrics {
	return MovementMetrics{
		DistanceMoved: r.Value(0),
		Velocity:      r.Value(1),
		Movement1:     r.Value(2),
		Movement2:     r.Value(3),
	}
}

// TurningMetricsFrom maps a turning record's values onto named fields
func TurningMetricsFrom(r Record) TurningMetrics {
	return TurningMetrics{
		Heading:         r.Value(0),
		TurnAngle:       r.Value(1),
		AngularVelocity: r.Value(2),
		Meander1:        r.Value(3),
		Meander2:        r.Value(4),
	}
}

// RotationMetricsFrom maps a rotation record's values onto named fields
func RotationMetricsFrom(r Record) RotationMetrics {
	return RotationMetrics{
		CWRotation:  r.Value(0),
		CCWRotation: r.Value(1),
	}
}

// MergedRow is one movement, turning and rotation record sharing a merge key.
// Identifier fields come from the movement record.
type MergedRow struct {
	MergeKey     string          `json:"merge_key"`
	ExperimentID string          `json:"experiment_id"`
	WellID       string          `json:"well_id"`
	Time         string          `json:"time"`
	Movement     MovementMetrics `json:"movement"`
	Turning      TurningMetrics  `json:"turning"`
	Rotation     RotationMetrics `json:"rotation"`
}
