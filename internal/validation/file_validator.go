package validation

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"assaymerge/internal/errors"
)

// SupportedExtensions are the source formats the grid loader reads
var SupportedExtensions = []string{".xlsx", ".xlsm", ".csv"}

// FileValidator checks merge inputs and outputs before any work starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

func supportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// checkName rejects unsupported extensions and office lock files
func checkName(name string) error {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a temporary office lock file", base)).
			WithContext("file", base)
	}
	if !supportedExtension(base) {
		return errors.NewAppValidationError(fmt.Sprintf(
			"%s has unsupported extension %q, expected one of %s",
			base, filepath.Ext(base), strings.Join(SupportedExtensions, ", "))).
			WithContext("file", base)
	}
	return nil
}

// ValidateSourceFile checks that path is a readable, non-empty spreadsheet
func (v *FileValidator) ValidateSourceFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Source file does not exist", slog.String("file", path))
		return errors.NewNotFoundError(fmt.Sprintf("source file %s", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat source file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to stat %s", path), err)
	}
	if info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if err := checkName(path); err != nil {
		return err
	}
	if info.Size() == 0 {
		return errors.NewAppValidationError(fmt.Sprintf("%s is empty", path)).
			WithContext("file", filepath.Base(path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Source file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("%s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("Source file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSourceFiles validates every path and stops at the first failure
func (v *FileValidator) ValidateSourceFiles(paths ...string) error {
	for _, path := range paths {
		if err := v.ValidateSourceFile(path); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUpload checks a multipart file header against the upload limit
func (v *FileValidator) ValidateUpload(field string, header *multipart.FileHeader, maxBytes int64) error {
	if header == nil {
		return errors.MissingFileError(field)
	}
	if err := checkName(header.Filename); err != nil {
		return err
	}
	if header.Size == 0 {
		return errors.NewAppValidationError(fmt.Sprintf("upload %q is empty", field)).
			WithContext("field", field)
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return errors.NewWithDetails(errors.CodePayloadTooLarge,
			fmt.Sprintf("upload %q is %d bytes, limit is %d", field, header.Size, maxBytes), field)
	}
	return nil
}

// ValidateOutputPath ensures the directory of an output file exists and is
// writable. "-" stands for standard output and is always valid.
func (v *FileValidator) ValidateOutputPath(path string) error {
	if path == "-" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	testFile, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	testFile.Close()
	os.Remove(testFile.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
