package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"assaymerge/internal/errors"
	"assaymerge/pkg/contracts/domain"
)

// SourceFormat is the container format of an uploaded table
type SourceFormat string

const (
	FormatXLSX SourceFormat = "xlsx"
	FormatCSV  SourceFormat = "csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks the reader from a file name's extension
func DetectFormat(name string) (SourceFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.NewParsingError(
			fmt.Sprintf("unsupported file type %q, expected .xlsx, .xlsm or .csv", filepath.Ext(name)), nil).
			WithContext("file", filepath.Base(name))
	}
}

// LoadGrid reads a grid from a workbook or CSV file on disk. sheet selects
// a worksheet by name; empty means the first sheet.
func LoadGrid(path, sheet string) (domain.RawGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("input file %s", path))
		}
		return nil, errors.NewParsingError("failed to open input file", err).WithContext("file", path)
	}
	defer f.Close()

	return ReadGrid(path, f, sheet)
}

// ReadGrid reads a grid from r, using name only to pick the format
func ReadGrid(name string, r io.Reader, sheet string) (domain.RawGrid, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatCSV:
		rows, err = readCSVRows(r)
	default:
		rows, err = readSheetRows(r, sheet)
	}
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read %s", filepath.Base(name)), err).
			WithContext("file", filepath.Base(name))
	}
	return domain.GridFromStrings(rows), nil
}

func readSheetRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}
