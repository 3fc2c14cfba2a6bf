// Package exporter writes merged assay tables as CSV.
//
// Output is UTF-8 with a byte order mark so spreadsheet tools pick the right
// encoding. The four header rows come first, then one line per well and time
// bucket. Null measurements are empty fields.
//
//	writer := exporter.NewCSVWriter("results", logger)
//	path, err := writer.WriteTableFile("merged_experiment_data.csv", result.Table)
//
// WriteTable streams the same bytes to any io.Writer, such as an HTTP response.
package exporter
