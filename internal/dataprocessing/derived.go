package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"assaymerge/pkg/contracts/domain"
)

// Light cycle of the instrument: 10 minutes off, then 10 minutes on
const (
	lightCycleMinutes = 20
	lightOffMinutes   = 10
)

var clockPattern = regexp.MustCompile(`(\d+):(\d+):(\d+)`)

// MidpointMinutes returns the mean of the first two H:M:S timestamps in a
// time range such as "00:05:00-00:10:00", in minutes since midnight.
// It returns 0 when fewer than two timestamps are present.
func MidpointMinutes(timeRange string) float64 {
	matches := clockPattern.FindAllStringSubmatch(timeRange, 2)
	if len(matches) < 2 {
		return 0
	}

	var total float64
	for _, m := range matches {
		minutes, ok := clockMinutes(m[1], m[2], m[3])
		if !ok {
			return 0
		}
		total += minutes
	}
	return total / 2
}

func clockMinutes(h, m, s string) (float64, bool) {
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return float64(hours)*60 + float64(mins) + float64(secs)/60, true
}

// LightPhaseAt returns the light state at the given minute of the run
func LightPhaseAt(minutes float64) domain.LightPhase {
	position := math.Mod(minutes, lightCycleMinutes)
	if position < 0 {
		position += lightCycleMinutes
	}
	if position < lightOffMinutes {
		return domain.LightOff
	}
	return domain.LightOn
}

// WellLetter returns the upper-cased plate row letter of a well id, or ""
// when the trimmed id does not start with an ASCII letter.
func WellLetter(wellID string) string {
	trimmed := strings.TrimSpace(wellID)
	if trimmed == "" {
		return ""
	}
	c := trimmed[0]
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		return strings.ToUpper(string(c))
	}
	return ""
}

// AssignTreatment decides role, compound and concentration for a well.
// Control wells carry neither a compound nor a concentration.
func AssignTreatment(wellID string, params domain.ExperimentParameters) domain.Treatment {
	letter := WellLetter(wellID)
	if letter == domain.ControlWellLetter {
		return domain.Treatment{Role: domain.RoleControl}
	}
	return domain.Treatment{
		Role:          domain.RoleTest,
		Compound:      params.Compound,
		Concentration: params.Concentration(letter),
	}
}
