package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"assaymerge/internal/errors"
	"assaymerge/internal/infrastructure"
	"assaymerge/internal/shared/testutil"
	"assaymerge/pkg/contracts/domain"
)

func newTestMerger(t *testing.T, config MergerConfig) (*Merger, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	return NewMerger(logger, config), handler
}

func TestMerger_Merge(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			merger, handler := newTestMerger(t, MergerConfig{ParallelExtraction: parallel, CheckRowOrder: true})

			result, err := merger.Merge(context.Background(), testutil.StandardParameters(), testutil.StandardGrids())
			require.NoError(t, err)

			rows := result.Table.Rows
			require.Len(t, rows, len(testutil.StandardWells))
			assert.Len(t, result.Table.Header, domain.HeaderRowCount)

			assert.Equal(t, domain.RoleControl, rows[0].Role)
			assert.Equal(t, domain.RoleTest, rows[1].Role)
			assert.Equal(t, "1uM", rows[1].Concentration)
			assert.Equal(t, "50uM", rows[5].Concentration)
			assert.Equal(t, domain.LightOff, rows[0].Light)

			report := result.Report
			assert.NotEmpty(t, report.RunID)
			assert.Equal(t, len(testutil.StandardWells), report.Joined)
			assert.False(t, report.HasWarnings())
			require.Len(t, report.Tables, 3)
			assert.Equal(t, "movement", report.Tables[0].Table)
			assert.Equal(t, "rotation", report.Tables[2].Table)

			testutil.AssertLogContains(t, handler, slog.LevelInfo, "merge completed")
			testutil.AssertLogAttr(t, handler, "component", "merger")
			testutil.AssertNoErrors(t, handler)
		})
	}
}

func TestMerger_MissingParametersAbortBeforeExtraction(t *testing.T) {
	merger, handler := newTestMerger(t, MergerConfig{})

	result, err := merger.Merge(context.Background(), domain.ExperimentParameters{Compound: "X"}, domain.SourceGrids{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsType(err, errors.ErrTypeMissingParameter))
	assert.False(t, handler.ContainsMessage("tables joined"))
	testutil.AssertLogAttr(t, handler, "error_type", "MISSING_PARAMETER")
}

func TestMerger_EmptyExtraction(t *testing.T) {
	merger, _ := newTestMerger(t, MergerConfig{})
	grids := testutil.StandardGrids()
	grids.Turning = domain.GridFromStrings(testutil.TurningRows())

	_, err := merger.Merge(context.Background(), testutil.StandardParameters(), grids)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmptyExtraction))
}

func TestMerger_RowCountMismatchIsAWarning(t *testing.T) {
	merger, handler := newTestMerger(t, MergerConfig{})
	grids := testutil.StandardGrids()
	grids.Rotation = testutil.StandardGrids("A1", "B2", "C3").Rotation

	result, err := merger.Merge(context.Background(), testutil.StandardParameters(), grids)
	require.NoError(t, err)

	assert.Len(t, result.Table.Rows, 3)
	require.Len(t, result.Report.Warnings, 1)
	assert.Equal(t, domain.WarningRowCountMismatch, result.Report.Warnings[0].Code)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "merge warning")
}

func TestMerger_RowOrderCheck(t *testing.T) {
	grids := testutil.StandardGrids()
	grids.Rotation = testutil.StandardGrids("B2", "A1", "C3", "D4", "E1", "F6").Rotation

	t.Run("enabled", func(t *testing.T) {
		merger, _ := newTestMerger(t, MergerConfig{CheckRowOrder: true})
		result, err := merger.Merge(context.Background(), testutil.StandardParameters(), grids)
		require.NoError(t, err)

		var orderWarnings int
		for _, w := range result.Report.Warnings {
			if w.Code == domain.WarningRowOrderMismatch {
				orderWarnings++
			}
		}
		assert.Equal(t, 2, orderWarnings)
	})

	t.Run("disabled", func(t *testing.T) {
		merger, _ := newTestMerger(t, MergerConfig{})
		result, err := merger.Merge(context.Background(), testutil.StandardParameters(), grids)
		require.NoError(t, err)

		for _, w := range result.Report.Warnings {
			assert.NotEqual(t, domain.WarningRowOrderMismatch, w.Code)
		}
	})
}

func TestMerger_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.NewMergeMetrics(provider.Meter("test"))
	require.NoError(t, err)

	merger, _ := newTestMerger(t, MergerConfig{Metrics: metrics})
	_, err = merger.Merge(context.Background(), testutil.StandardParameters(), testutil.StandardGrids())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["merges_total"])
	assert.True(t, names["merge_rows_extracted_total"])
	assert.True(t, names["merge_rows_joined_total"])
}
