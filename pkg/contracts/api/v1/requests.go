// Package api contains the request and response bodies of the HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"assaymerge/pkg/contracts/domain"
)

// ParametersRequest carries the experiment parameters of one merge. Missing
// values are reported by the merge itself; only the concentration keys are
// checked here.
type ParametersRequest struct {
	ExposureTime   string            `json:"exposure_time"`
	Compound       string            `json:"compound"`
	Concentrations map[string]string `json:"concentrations" validate:"dive,keys,wellletter,endkeys"`
}

// ToDomain copies the request into an immutable parameter value
func (p ParametersRequest) ToDomain() domain.ExperimentParameters {
	return domain.NewExperimentParameters(p.ExposureTime, p.Compound, p.Concentrations)
}

// MergePreviewRequest posts the three grids as arrays of JSON scalars
type MergePreviewRequest struct {
	Parameters ParametersRequest `json:"parameters"`
	Movement   domain.RawGrid    `json:"movement" validate:"required"`
	Turning    domain.RawGrid    `json:"turning" validate:"required"`
	Rotation   domain.RawGrid    `json:"rotation" validate:"required"`

	// RowLimit caps the rows echoed back; zero means all rows
	RowLimit int `json:"row_limit,omitempty" validate:"min=0"`
}

// Grids returns the posted grids
func (r MergePreviewRequest) Grids() domain.SourceGrids {
	return domain.SourceGrids{
		Movement: r.Movement,
		Turning:  r.Turning,
		Rotation: r.Rotation,
	}
}
