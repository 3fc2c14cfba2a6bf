package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assaymerge/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "0.0"},
		{"negative zero", math.Copysign(0, -1), "-0.0"},
		{"integral", 123, "123.0"},
		{"negative integral", -456, "-456.0"},
		{"decimal", 12.5, "12.5"},
		{"shortest repr", 2.675, "2.675"},
		{"small decimal", 0.001234, "0.001234"},
		{"lower fixed bound", 0.0001, "0.0001"},
		{"below fixed bound", 0.00001, "1e-05"},
		{"small with mantissa", 0.000015, "1.5e-05"},
		{"large fixed", 1234567890123456, "1234567890123456.0"},
		{"upper bound", 1e16, "1e+16"},
		{"NaN", math.NaN(), ""},
		{"infinity", math.Inf(-1), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatValue(t *testing.T) {
	v := 3.14
	assert.Equal(t, "3.14", FormatValue(&v))
	assert.Equal(t, "", FormatValue(nil))
}

func TestFormatRow(t *testing.T) {
	distance := 12.5
	cw := 3.0
	row := domain.OutputRow{
		ExperimentID:  "E1",
		ExposureTime:  "24h",
		WellID:        "B3",
		Role:          domain.RoleTest,
		Compound:      "Test",
		Concentration: "10uM",
		Time:          "00:00:00 - 00:05:00",
		Light:         domain.LightOff,
		DistanceMoved: &distance,
		CWRotation:    &cw,
	}

	record := FormatRow(row)
	require.Len(t, record, len(domain.OutputColumns))
	assert.Equal(t, []string{"E1", "24h", "B3", "Test", "Test", "10uM", "00:00:00 - 00:05:00", "Off"}, record[:8])
	assert.Equal(t, "12.5", record[8])
	assert.Equal(t, "", record[9])
	assert.Equal(t, "3.0", record[17])
	assert.Equal(t, "", record[18])
}

func TestTableRecords(t *testing.T) {
	table := domain.OutputTable{
		Header: domain.HeaderBlock(),
		Rows:   []domain.OutputRow{{WellID: "A1", Role: domain.RoleControl}},
	}

	records := TableRecords(table)
	require.Len(t, records, domain.HeaderRowCount+1)
	assert.Equal(t, domain.OutputColumns, records[0])
	assert.Equal(t, "A1", records[4][2])

	records[0][0] = "changed"
	assert.Equal(t, "experiment_id", table.Header[0][0], "records do not alias the header")
}

func BenchmarkFormatFloat(b *testing.B) {
	values := []float64{0, 12.5, 123, 0.00001, 987654.321}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatFloat(values[i%len(values)])
	}
}
