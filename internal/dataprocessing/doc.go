// Package dataprocessing merges the three per-well exports of a behavioral
// assay (movement, turning and rotation) into one annotated table.
//
// # Pipeline
//
//	RawGrid ×3 → ClassifyRows → Extract → Join → AssembleRows → BuildTable
//
// Each grid is scanned on its own. A row is data when column 1 holds a well
// id such as "B4"; header, metadata and blank rows are skipped. Extracted
// records are keyed by experiment, well and source row index, so the three
// exports must list wells and time buckets in the same order. CheckAlignment
// reports rows where they do not.
//
// # Usage
//
//	merger := dataprocessing.NewMerger(logger, dataprocessing.MergerConfig{
//	    ParallelExtraction: true,
//	    CheckRowOrder:      true,
//	})
//	result, err := merger.Merge(ctx, params, domain.SourceGrids{
//	    Movement: movement,
//	    Turning:  turning,
//	    Rotation: rotation,
//	})
//
// LoadGrid and ReadGrid turn .xlsx, .xlsm and .csv files into grids.
//
// # Errors
//
// Missing parameters abort the merge with MISSING_PARAMETER before any grid
// is read. An export without data rows gives EMPTY_EXTRACTION and a join
// without matches gives EMPTY_JOIN. Cells that do not parse become nulls.
// A merged row count that differs from the movement count is only a warning.
package dataprocessing
