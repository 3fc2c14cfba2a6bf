package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"assaymerge/internal/config"
	"assaymerge/internal/dataprocessing"
	"assaymerge/internal/errors"
	"assaymerge/internal/exporter"
	"assaymerge/internal/files"
	"assaymerge/internal/validation"
	"assaymerge/pkg/contracts/domain"
)

// Upload is one source table received over the network
type Upload struct {
	Name   string
	Reader io.Reader
}

// MergeRequest describes a merge of three files on disk
type MergeRequest struct {
	Sources    files.SourceFiles
	Sheet      string
	Parameters domain.ExperimentParameters
}

// MergeService loads source tables, runs the merger and writes the result
type MergeService struct {
	merger    *dataprocessing.Merger
	validator *validation.FileValidator
	discovery *files.Discovery
	writer    *exporter.CSVWriter
	config    config.MergeConfig
	logger    *slog.Logger
}

// NewMergeService creates a merge service around an existing merger
func NewMergeService(merger *dataprocessing.Merger, cfg config.MergeConfig, logger *slog.Logger) *MergeService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("MergeService initialized",
		slog.String("sheet", cfg.Sheet),
		slog.String("output_file", cfg.OutputFile),
		slog.Bool("parallel_extraction", cfg.ParallelExtraction),
		slog.Bool("check_row_order", cfg.CheckRowOrder))

	return &MergeService{
		merger:    merger,
		validator: validation.NewFileValidator(logger),
		discovery: files.NewDiscovery(""),
		writer:    exporter.NewCSVWriter("", logger),
		config:    cfg,
		logger:    logger.With(slog.String("component", "merge_service")),
	}
}

// OutputFile returns the configured default output file name
func (s *MergeService) OutputFile() string {
	return s.config.OutputFile
}

// MaxUploadBytes returns the configured per-file upload limit
func (s *MergeService) MaxUploadBytes() int64 {
	return s.config.MaxUploadBytes
}

// ValidateUpload checks one multipart upload against the configured limit
func (s *MergeService) ValidateUpload(field string, header *multipart.FileHeader) error {
	return s.validator.ValidateUpload(field, header, s.config.MaxUploadBytes)
}

// ValidateParameters reports every missing experiment parameter at once
func (s *MergeService) ValidateParameters(params domain.ExperimentParameters) error {
	return dataprocessing.ValidateParameters(params)
}

// DiscoverSources finds the three exports in a directory by file name
func (s *MergeService) DiscoverSources(dir string) (files.SourceFiles, error) {
	sources, err := s.discovery.DiscoverSources(dir)
	if err != nil {
		return files.SourceFiles{}, err
	}

	s.logger.Info("Discovered source files",
		slog.String("directory", dir),
		slog.String("movement", sources.Movement),
		slog.String("turning", sources.Turning),
		slog.String("rotation", sources.Rotation))
	return sources, nil
}

func (s *MergeService) sheet(override string) string {
	if override != "" {
		return override
	}
	return s.config.Sheet
}

// LoadSources validates and reads the three files concurrently
func (s *MergeService) LoadSources(ctx context.Context, sources files.SourceFiles, sheet string) (domain.SourceGrids, error) {
	if missing := sources.Missing(); len(missing) > 0 {
		return domain.SourceGrids{}, validationMissing(missing)
	}
	if err := s.validator.ValidateSourceFiles(sources.Movement, sources.Turning, sources.Rotation); err != nil {
		return domain.SourceGrids{}, err
	}

	sheet = s.sheet(sheet)
	grids := make([]domain.RawGrid, len(domain.AllTableKinds))

	var g errgroup.Group
	for i, kind := range domain.AllTableKinds {
		path := sources.Path(kind)
		g.Go(func() error {
			grid, err := dataprocessing.LoadGrid(path, sheet)
			if err != nil {
				return err
			}
			grids[i] = grid
			s.logger.DebugContext(ctx, "Loaded source table",
				slog.String("table", kind.String()),
				slog.String("file", path),
				slog.Int("rows", grid.Rows()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SourceGrids{}, err
	}

	return domain.SourceGrids{Movement: grids[0], Turning: grids[1], Rotation: grids[2]}, nil
}

// ReadUploads parses three uploaded tables keyed by table kind
func (s *MergeService) ReadUploads(ctx context.Context, uploads map[domain.TableKind]Upload, sheet string) (domain.SourceGrids, error) {
	sheet = s.sheet(sheet)

	var missing []string
	for _, kind := range domain.AllTableKinds {
		if _, ok := uploads[kind]; !ok {
			missing = append(missing, kind.String())
		}
	}
	if len(missing) > 0 {
		return domain.SourceGrids{}, validationMissing(missing)
	}

	var grids domain.SourceGrids
	for _, kind := range domain.AllTableKinds {
		upload := uploads[kind]
		grid, err := dataprocessing.ReadGrid(upload.Name, upload.Reader, sheet)
		if err != nil {
			return domain.SourceGrids{}, err
		}
		switch kind {
		case domain.TableMovement:
			grids.Movement = grid
		case domain.TableTurning:
			grids.Turning = grid
		case domain.TableRotation:
			grids.Rotation = grid
		}
		s.logger.DebugContext(ctx, "Read uploaded table",
			slog.String("table", kind.String()),
			slog.String("file", upload.Name),
			slog.Int("rows", grid.Rows()))
	}
	return grids, nil
}

// MergeGrids runs one merge on grids already in memory
func (s *MergeService) MergeGrids(ctx context.Context, params domain.ExperimentParameters, grids domain.SourceGrids) (*domain.MergeResult, error) {
	return s.merger.Merge(ctx, params, grids)
}

// MergeFiles validates parameters, loads the three files and merges them.
// Parameters are checked first so a bad request never touches the disk.
func (s *MergeService) MergeFiles(ctx context.Context, req MergeRequest) (*domain.MergeResult, error) {
	if err := s.ValidateParameters(req.Parameters); err != nil {
		return nil, err
	}

	grids, err := s.LoadSources(ctx, req.Sources, req.Sheet)
	if err != nil {
		return nil, err
	}
	return s.merger.Merge(ctx, req.Parameters, grids)
}

// MergeToFile merges and writes the CSV to outPath, or to stdout when
// outPath is "-". It returns the path actually written. Parameters are
// validated before the output directory is created.
func (s *MergeService) MergeToFile(ctx context.Context, req MergeRequest, outPath string, stdout io.Writer) (*domain.MergeResult, string, error) {
	if err := s.ValidateParameters(req.Parameters); err != nil {
		return nil, "", err
	}
	if outPath == "" {
		outPath = s.config.OutputFile
	}
	if err := s.validator.ValidateOutputPath(outPath); err != nil {
		return nil, "", err
	}

	result, err := s.MergeFiles(ctx, req)
	if err != nil {
		return nil, "", err
	}

	if outPath == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		if err := exporter.WriteTable(stdout, result.Table); err != nil {
			return nil, "", fmt.Errorf("failed to write CSV to stdout: %w", err)
		}
		return result, outPath, nil
	}

	written, err := s.writer.WriteTableFile(outPath, result.Table)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "Merged table written",
		slog.String("file", written),
		slog.Int("rows", len(result.Table.Rows)),
		slog.Int("warnings", len(result.Report.Warnings)))
	return result, written, nil
}

func validationMissing(tables []string) error {
	return errors.NewAppValidationError(fmt.Sprintf("missing source table: %s", strings.Join(tables, ", "))).
		WithContext("missing", tables)
}
