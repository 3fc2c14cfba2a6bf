// Package shared holds helpers used by more than one package's tests.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - Assay fixtures: source grids for the three tables, standard wells and
//     parameters, and an .xlsx writer built on excelize
//   - HTTP fixtures: CSV encoding and multipart bodies for upload tests
//   - A buffered slog handler with assertions on captured records
//
// Example usage:
//
//	func TestMerge(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    grids := testutil.StandardGrids()
//	    // merge grids, then
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "merge completed")
//	}
//
// Nothing in this package is imported by production code.
package shared
