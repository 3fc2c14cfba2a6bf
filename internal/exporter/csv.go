package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"assaymerge/internal/errors"
	"assaymerge/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StreamWriter writes a merged table to any io.Writer as UTF-8 CSV with a
// leading byte order mark.
type StreamWriter struct {
	writer *csv.Writer
}

// NewStreamWriter writes the byte order mark and returns a writer for rows
func NewStreamWriter(dst io.Writer) (*StreamWriter, error) {
	if _, err := dst.Write(utf8BOM); err != nil {
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}
	return &StreamWriter{writer: csv.NewWriter(dst)}, nil
}

// WriteHeader writes the header block
func (s *StreamWriter) WriteHeader(block [][]string) error {
	for i, row := range block {
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write header row %d: %w", i, err)
		}
	}
	return nil
}

// WriteRow writes one data row
func (s *StreamWriter) WriteRow(row domain.OutputRow) error {
	return s.writer.Write(FormatRow(row))
}

// Flush flushes buffered rows and reports any earlier write error
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}

// WriteTable writes a complete table to dst
func WriteTable(dst io.Writer, table domain.OutputTable) error {
	stream, err := NewStreamWriter(dst)
	if err != nil {
		return err
	}
	if err := stream.WriteHeader(table.Header); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := stream.WriteRow(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Flush()
}

// CSVWriter writes merged tables to files below an output directory
type CSVWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative paths passed to
// WriteTableFile resolve against outputDir.
func NewCSVWriter(outputDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteTableFile writes the table to filePath and returns the resolved path.
// The file is written next to its destination and renamed into place, so a
// failed write never leaves a truncated CSV behind.
func (w *CSVWriter) WriteTableFile(filePath string, table domain.OutputTable) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(table.Rows)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewStorageError("failed to create output directory", err).
			WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".assaymerge-*.csv")
	if err != nil {
		return "", errors.NewStorageError("failed to create output file", err).
			WithContext("path", fullPath)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTable(tmp, table); err != nil {
		tmp.Close()
		return "", errors.NewStorageError("failed to write output file", err).
			WithContext("path", fullPath)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewStorageError("failed to close output file", err).
			WithContext("path", fullPath)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", errors.NewStorageError("failed to set output file mode", err).
			WithContext("path", fullPath)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", errors.NewStorageError("failed to move output file into place", err).
			WithContext("path", fullPath)
	}

	return fullPath, nil
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.outputDir == "" {
		return filePath
	}
	return filepath.Join(w.outputDir, filePath)
}
