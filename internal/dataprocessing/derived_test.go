package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"assaymerge/pkg/contracts/domain"
)

func TestMidpointMinutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"spaced range", "00:05:00 - 00:15:00", 10},
		{"compact range", "00:00:00-00:05:00", 2.5},
		{"seconds", "00:00:30-00:01:30", 1},
		{"hours", "01:00:00-01:20:00", 70},
		{"third timestamp ignored", "00:00:00-00:10:00-05:00:00", 5},
		{"single timestamp", "00:05:00", 0},
		{"empty", "", 0},
		{"garbage", "start-end", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MidpointMinutes(tt.input), 1e-9)
		})
	}
}

func TestLightPhaseAt(t *testing.T) {
	assert.Equal(t, domain.LightOff, LightPhaseAt(0))
	assert.Equal(t, domain.LightOff, LightPhaseAt(9.99))
	assert.Equal(t, domain.LightOn, LightPhaseAt(10))
	assert.Equal(t, domain.LightOn, LightPhaseAt(19.5))
	assert.Equal(t, domain.LightOff, LightPhaseAt(20))
	assert.Equal(t, domain.LightOn, LightPhaseAt(-5))

	for minute := 0.0; minute < 120; minute += 0.75 {
		assert.Equal(t, LightPhaseAt(minute), LightPhaseAt(minute+20), "minute %v", minute)
	}
}

func TestWellLetter(t *testing.T) {
	assert.Equal(t, "B", WellLetter("b4"))
	assert.Equal(t, "A", WellLetter("  A12"))
	assert.Equal(t, "", WellLetter("12"))
	assert.Equal(t, "", WellLetter(""))
}

func TestAssignTreatment(t *testing.T) {
	params := domain.NewExperimentParameters("24h", "Caffeine", map[string]string{
		"A": "ignored", "B": "1uM", "C": "5uM", "D": "10uM", "E": "25uM", "F": "50uM",
	})

	t.Run("control wells", func(t *testing.T) {
		for _, well := range []string{"A1", "a7", " A12"} {
			got := AssignTreatment(well, params)
			assert.Equal(t, domain.RoleControl, got.Role, well)
			assert.Empty(t, got.Concentration, well)
			assert.Empty(t, got.Compound, well)
		}
	})

	t.Run("test wells", func(t *testing.T) {
		want := map[string]string{"B2": "1uM", "c3": "5uM", "D4": "10uM", "E5": "25uM", "f6": "50uM"}
		for well, concentration := range want {
			got := AssignTreatment(well, params)
			assert.Equal(t, domain.RoleTest, got.Role, well)
			assert.Equal(t, "Caffeine", got.Compound, well)
			assert.Equal(t, concentration, got.Concentration, well)
		}
	})
}
