package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"assaymerge/internal/errors"
	"assaymerge/internal/infrastructure"
	"assaymerge/pkg/contracts/domain"
)

// MergerConfig holds options for a Merger. Zero Tracer and Metrics values
// disable tracing and metrics.
type MergerConfig struct {
	ParallelExtraction bool
	CheckRowOrder      bool
	Tracer             trace.Tracer
	Metrics            *infrastructure.MergeMetrics
}

// Merger is the entry point of one merge run: validate, extract, join,
// assemble. A Merger holds no per-run state and is safe for concurrent use.
type Merger struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.MergeMetrics
	config  MergerConfig
}

// NewMerger creates a new merger
func NewMerger(logger *slog.Logger, config MergerConfig) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("dataprocessing")
	}
	return &Merger{
		logger:  logger.With(slog.String("component", "merger")),
		tracer:  tracer,
		metrics: config.Metrics,
		config:  config,
	}
}

// Merge produces the annotated table for one experiment. Parameter problems
// are reported before any grid is read; empty extractions and empty joins
// abort without a partial table. Row count and row order problems are
// returned as warnings in the report.
func (m *Merger) Merge(ctx context.Context, params domain.ExperimentParameters, grids domain.SourceGrids) (*domain.MergeResult, error) {
	start := time.Now()
	runID := infrastructure.NewRunID()
	ctx = infrastructure.WithRunID(ctx, runID)

	ctx, span := m.tracer.Start(ctx, "merge", trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	result, err := m.merge(ctx, runID, params, grids)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		m.metrics.RecordMerge(ctx, outcomeOf(err), 0, time.Since(start))
		m.logger.WarnContext(ctx, "merge aborted",
			slog.String("error", err.Error()),
			slog.String("error_type", string(errors.TypeOf(err))))
		return nil, err
	}

	m.metrics.RecordMerge(ctx, "success", result.Report.Joined, time.Since(start))
	m.metrics.RecordWarnings(ctx, result.Report.Warnings)
	infrastructure.SetMergeAttributes(ctx, len(result.Table.Rows), len(result.Report.Warnings))

	m.logger.InfoContext(ctx, "merge completed",
		slog.Int("rows", len(result.Table.Rows)),
		slog.Int("warnings", len(result.Report.Warnings)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (m *Merger) merge(ctx context.Context, runID string, params domain.ExperimentParameters, grids domain.SourceGrids) (*domain.MergeResult, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}

	sets, err := m.extractAll(ctx, grids)
	if err != nil {
		return nil, err
	}
	movement, turning, rotation := sets[0], sets[1], sets[2]

	report := domain.MergeReport{RunID: runID}
	for _, set := range sets {
		report.Tables = append(report.Tables, set.Stats)
	}

	if m.config.CheckRowOrder {
		report.Warnings = append(report.Warnings, CheckAlignment(movement, turning, rotation)...)
	}

	_, joinSpan := m.tracer.Start(ctx, "join")
	merged, err := Join(movement, turning, rotation)
	joinSpan.End()
	if err != nil {
		return nil, err
	}
	report.Joined = len(merged)

	m.logger.InfoContext(ctx, "tables joined",
		slog.Int("movement", movement.Len()),
		slog.Int("turning", turning.Len()),
		slog.Int("rotation", rotation.Len()),
		slog.Int("joined", len(merged)))

	_, assembleSpan := m.tracer.Start(ctx, "assemble")
	rows := AssembleRows(merged, params)
	table := BuildTable(rows)
	assembleSpan.End()

	if len(rows) != movement.Len() {
		report.Warnings = append(report.Warnings, domain.Warning{
			Code: domain.WarningRowCountMismatch,
			Message: fmt.Sprintf("row count changed: %d movement records, %d merged rows",
				movement.Len(), len(rows)),
		})
	}

	for _, w := range report.Warnings {
		m.logger.WarnContext(ctx, "merge warning",
			slog.String("code", string(w.Code)),
			slog.String("message", w.Message))
	}

	return &domain.MergeResult{Table: table, Report: report}, nil
}

// extractAll runs the three extraction passes, concurrently when configured.
// Each pass writes only its own slot.
func (m *Merger) extractAll(ctx context.Context, grids domain.SourceGrids) ([]domain.RecordSet, error) {
	sets := make([]domain.RecordSet, len(domain.AllTableKinds))

	if !m.config.ParallelExtraction {
		for i, kind := range domain.AllTableKinds {
			sets[i] = m.extract(ctx, kind, grids.Grid(kind))
		}
		return sets, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range domain.AllTableKinds {
		grid := grids.Grid(kind)
		g.Go(func() error {
			sets[i] = m.extract(gctx, kind, grid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

func (m *Merger) extract(ctx context.Context, kind domain.TableKind, grid domain.RawGrid) domain.RecordSet {
	ctx, span := m.tracer.Start(ctx, "extract."+kind.String())
	defer span.End()

	set := Extract(grid, kind)

	span.SetAttributes(
		attribute.Int("rows.scanned", set.Stats.ScannedRows),
		attribute.Int("rows.extracted", set.Stats.Extracted),
		attribute.Int("rows.skipped", set.Stats.Skipped),
	)
	m.metrics.RecordExtraction(ctx, set.Stats)
	m.logger.DebugContext(ctx, "table extracted",
		slog.String("table", kind.String()),
		slog.Int("scanned", set.Stats.ScannedRows),
		slog.Int("classified", set.Stats.Classified),
		slog.Int("extracted", set.Stats.Extracted),
		slog.Int("skipped", set.Stats.Skipped))

	return set
}

// outcomeOf turns an error into a metric label such as "empty_join"
func outcomeOf(err error) string {
	if t := errors.TypeOf(err); t != "" {
		return strings.ToLower(string(t))
	}
	return "error"
}
