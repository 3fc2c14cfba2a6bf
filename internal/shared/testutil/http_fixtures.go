package testutil

import (
	"bytes"
	"encoding/csv"
	"mime/multipart"
	"testing"

	"assaymerge/pkg/contracts/domain"
)

// GridStrings renders a grid back to the string rows it was built from
func GridStrings(grid domain.RawGrid) [][]string {
	rows := make([][]string, grid.Rows())
	for i, row := range grid {
		for _, cell := range row {
			rows[i] = append(rows[i], cell.String())
		}
	}
	return rows
}

// CSVBytes encodes rows as a CSV document
func CSVBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("encode csv: %v", err)
	}
	return buf.Bytes()
}

// FormFile is one file part of a multipart request
type FormFile struct {
	Name    string
	Content []byte
}

// MergeForm returns the form fields of StandardParameters
func MergeForm() map[string]string {
	params := StandardParameters()
	fields := map[string]string{
		"exposure_time": params.ExposureTime,
		"compound":      params.Compound,
	}
	for _, letter := range domain.TestWellLetters {
		fields["concentration_"+letter] = params.Concentration(letter)
	}
	return fields
}

// StandardUploads returns the standard grids as three CSV uploads
func StandardUploads(t *testing.T) map[string]FormFile {
	t.Helper()

	grids := StandardGrids()
	return map[string]FormFile{
		"movement": {Name: "movement.csv", Content: CSVBytes(t, GridStrings(grids.Movement))},
		"turning":  {Name: "turning.csv", Content: CSVBytes(t, GridStrings(grids.Turning))},
		"rotation": {Name: "rotation.csv", Content: CSVBytes(t, GridStrings(grids.Rotation))},
	}
}

// MultipartBody builds a multipart/form-data body and its content type
func MultipartBody(t *testing.T, fields map[string]string, files map[string]FormFile) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for field, file := range files {
		part, err := w.CreateFormFile(field, file.Name)
		if err != nil {
			t.Fatalf("create form file %s: %v", field, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			t.Fatalf("write form file %s: %v", field, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}
