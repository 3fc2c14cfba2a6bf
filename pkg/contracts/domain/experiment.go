package domain

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// ControlWellLetter marks untreated control wells
const ControlWellLetter = "A"

// TestWellLetters are the plate rows that require a concentration, in report order
var TestWellLetters = []string{"B", "C", "D", "E", "F"}

// ExperimentParameters are supplied once per merge and never modified by it
type ExperimentParameters struct {
	ExposureTime   string            `json:"exposure_time" yaml:"exposure_time" validate:"required"`
	Compound       string            `json:"compound" yaml:"compound" validate:"required"`
	Concentrations map[string]string `json:"concentrations" yaml:"concentrations"`
}

// NewExperimentParameters copies the concentration map and upper-cases its
// well letters so later changes by the caller cannot leak into a merge.
// When two keys name the same letter ("b" and "B") the one already in
// canonical form wins.
func NewExperimentParameters(exposureTime, compound string, concentrations map[string]string) ExperimentParameters {
	return ExperimentParameters{
		ExposureTime:   exposureTime,
		Compound:       compound,
		Concentrations: NormalizeConcentrations(concentrations),
	}
}

// NormalizeConcentrations returns a copy keyed by trimmed upper-case letter.
// Keys are applied in sorted order with canonical keys last, so the result
// never depends on map iteration order.
func NormalizeConcentrations(concentrations map[string]string) map[string]string {
	keys := slices.SortedFunc(maps.Keys(concentrations), func(a, b string) int {
		return cmp.Or(cmp.Compare(canonicalRank(a), canonicalRank(b)), strings.Compare(a, b))
	})

	copied := make(map[string]string, len(concentrations))
	for _, letter := range keys {
		copied[strings.ToUpper(strings.TrimSpace(letter))] = concentrations[letter]
	}
	return copied
}

func canonicalRank(letter string) int {
	if letter == strings.ToUpper(strings.TrimSpace(letter)) {
		return 1
	}
	return 0
}

// Concentration returns the label configured for a well letter, or ""
func (p ExperimentParameters) Concentration(letter string) string {
	if p.Concentrations == nil {
		return ""
	}
	return p.Concentrations[strings.ToUpper(letter)]
}

// MissingConcentrations lists test well letters without a label, in B..F order
func (p ExperimentParameters) MissingConcentrations() []string {
	var missing []string
	for _, letter := range TestWellLetters {
		if p.Concentration(letter) == "" {
			missing = append(missing, letter)
		}
	}
	return missing
}

// Role is the treatment role of a well
type Role string

const (
	RoleControl Role = "Control"
	RoleTest    Role = "Test"
)

// LightPhase is the state of the instrument light at a given minute
type LightPhase string

const (
	LightOff LightPhase = "Off"
	LightOn  LightPhase = "On"
)

// Treatment is what the parameters say about one well
type Treatment struct {
	Role          Role   `json:"role"`
	Compound      string `json:"compound"`
	Concentration string `json:"concentration"`
}
