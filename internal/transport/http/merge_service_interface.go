package http

import (
	"context"
	"mime/multipart"

	"assaymerge/internal/services"
	"assaymerge/pkg/contracts/domain"
)

// MergeServiceInterface defines the merge operations used by the HTTP layer
type MergeServiceInterface interface {
	OutputFile() string
	MaxUploadBytes() int64
	ValidateParameters(params domain.ExperimentParameters) error
	ValidateUpload(field string, header *multipart.FileHeader) error
	ReadUploads(ctx context.Context, uploads map[domain.TableKind]services.Upload, sheet string) (domain.SourceGrids, error)
	MergeGrids(ctx context.Context, params domain.ExperimentParameters, grids domain.SourceGrids) (*domain.MergeResult, error)
}

var _ MergeServiceInterface = (*services.MergeService)(nil)
