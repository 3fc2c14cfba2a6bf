package exporter

import (
	"math"
	"strconv"
	"strings"

	"assaymerge/pkg/contracts/domain"
)

// formatFloat writes the shortest repr that round-trips. Integral values keep
// a trailing ".0"; magnitudes below 1e-4 or from 1e16 use exponent form.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return ""
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(f)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatValue renders a nullable measurement; nil becomes an empty field
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// FormatRow renders one data row in output column order
func FormatRow(row domain.OutputRow) []string {
	labels := row.Labels()
	measurements := row.Measurements()

	record := make([]string, 0, len(labels)+len(measurements))
	record = append(record, labels...)
	for _, v := range measurements {
		record = append(record, FormatValue(v))
	}
	return record
}

// TableRecords returns the full serialization of a table: the header block
// followed by one record per data row.
func TableRecords(table domain.OutputTable) [][]string {
	records := make([][]string, 0, table.Len())
	for _, h := range table.Header {
		records = append(records, append([]string(nil), h...))
	}
	for _, row := range table.Rows {
		records = append(records, FormatRow(row))
	}
	return records
}
