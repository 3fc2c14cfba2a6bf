package api

import (
	"assaymerge/pkg/contracts/domain"
)

// MergePreviewResponse is the JSON preview of a merged table
type MergePreviewResponse struct {
	Summary   domain.TableSummary `json:"summary"`
	Report    domain.MergeReport  `json:"report"`
	Header    [][]string          `json:"header"`
	Rows      [][]string          `json:"rows"`
	Truncated bool                `json:"truncated,omitempty"`
}
