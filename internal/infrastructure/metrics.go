package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"assaymerge/pkg/contracts/domain"
)

// MergeMetrics holds the merge and HTTP instruments. A nil *MergeMetrics
// records nothing.
type MergeMetrics struct {
	MergesTotal   metric.Int64Counter
	MergeDuration metric.Float64Histogram
	RowsExtracted metric.Int64Counter
	RowsSkipped   metric.Int64Counter
	RowsJoined    metric.Int64Counter
	Warnings      metric.Int64Counter

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

// instruments creates counters and histograms while remembering the first
// failure, so NewMergeMetrics reads as a list.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, description string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description))
	if in.err == nil {
		in.err = err
	}
	return c
}

func (in *instruments) seconds(name, description string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit("s"))
	if in.err == nil {
		in.err = err
	}
	return h
}

// NewMergeMetrics registers every instrument on meter
func NewMergeMetrics(meter metric.Meter) (*MergeMetrics, error) {
	in := &instruments{meter: meter}
	m := &MergeMetrics{
		MergesTotal:   in.counter("merges_total", "Merge runs by outcome"),
		MergeDuration: in.seconds("merge_duration_seconds", "Merge run duration"),
		RowsExtracted: in.counter("merge_rows_extracted_total", "Records extracted per source table"),
		RowsSkipped:   in.counter("merge_rows_skipped_total", "Data rows dropped for a missing experiment or well id"),
		RowsJoined:    in.counter("merge_rows_joined_total", "Rows present in all three tables"),
		Warnings:      in.counter("merge_warnings_total", "Non-fatal merge warnings by code"),

		HTTPRequestsTotal:   in.counter("http_requests_total", "HTTP requests by method, route and status"),
		HTTPRequestDuration: in.seconds("http_request_duration_seconds", "HTTP request duration"),
	}
	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// RecordExtraction records one table's extraction counts
func (m *MergeMetrics) RecordExtraction(ctx context.Context, stats domain.TableStats) {
	if m == nil {
		return
	}
	table := metric.WithAttributes(attribute.String("table", stats.Table))
	m.RowsExtracted.Add(ctx, int64(stats.Extracted), table)
	m.RowsSkipped.Add(ctx, int64(stats.Skipped), table)
}

// RecordMerge records the outcome of a merge run
func (m *MergeMetrics) RecordMerge(ctx context.Context, outcome string, joined int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.MergesTotal.Add(ctx, 1, attrs)
	m.MergeDuration.Record(ctx, duration.Seconds(), attrs)
	if joined > 0 {
		m.RowsJoined.Add(ctx, int64(joined))
	}
}

// RecordWarnings counts non-fatal warnings by code
func (m *MergeMetrics) RecordWarnings(ctx context.Context, warnings []domain.Warning) {
	if m == nil {
		return
	}
	for _, w := range warnings {
		m.Warnings.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(w.Code))))
	}
}

// RecordHTTPRequest records one served request under its route pattern
func (m *MergeMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
