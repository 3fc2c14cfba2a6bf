package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Code identifies a transport-level failure in responses and logs
type Code string

const (
	CodeInvalidRequest       Code = "INVALID_REQUEST"
	CodeValidationFailed     Code = "VALIDATION_FAILED"
	CodeMissingParameter     Code = "MISSING_PARAMETER"
	CodeMissingFile          Code = "MISSING_FILE"
	CodePayloadTooLarge      Code = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMediaType Code = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimited          Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal             Code = "INTERNAL_SERVER_ERROR"
)

// codeInfo is the fixed status and problem type of a code
type codeInfo struct {
	status      int
	problemType string
}

var codes = map[Code]codeInfo{
	CodeInvalidRequest:       {http.StatusBadRequest, TypeValidation},
	CodeValidationFailed:     {http.StatusBadRequest, TypeValidation},
	CodeMissingParameter:     {http.StatusBadRequest, TypeMissingParameter},
	CodeMissingFile:          {http.StatusBadRequest, TypeValidation},
	CodePayloadTooLarge:      {http.StatusRequestEntityTooLarge, TypePayloadTooLarge},
	CodeUnsupportedMediaType: {http.StatusUnsupportedMediaType, TypeValidation},
	CodeRateLimited:          {http.StatusTooManyRequests, TypeRateLimit},
	CodeInternal:             {http.StatusInternalServerError, TypeInternal},
}

// Status returns the HTTP status of a code; unknown codes are 500
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// ProblemType returns the RFC 7807 type URI of a code
func (c Code) ProblemType() string {
	if info, ok := codes[c]; ok {
		return info.problemType
	}
	return TypeInternal
}

// APIError is a request that failed before the merge itself ran:
// bad form data, a missing upload, an oversized body.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  Code        `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New returns an APIError whose status follows from its code
func New(code Code, message string) *APIError {
	return &APIError{StatusCode: code.Status(), ErrorCode: code, Message: message}
}

// NewWithDetails is New with a details payload
func NewWithDetails(code Code, message string, details interface{}) *APIError {
	e := New(code, message)
	e.Details = details
	return e
}

var (
	ErrInvalidRequest   = New(CodeInvalidRequest, "Invalid request format")
	ErrMissingParameter = New(CodeMissingParameter, "Required parameter is missing")
	ErrMissingFile      = New(CodeMissingFile, "Required upload is missing")
	ErrPayloadTooLarge  = New(CodePayloadTooLarge, "Request body exceeds the upload limit")
	ErrRateLimited      = New(CodeRateLimited, "Rate limit exceeded, retry shortly")
	ErrInternalServer   = New(CodeInternal, "Internal server error")
)

// InvalidRequestWithError wraps a decode or parse failure
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(CodeInvalidRequest, "Invalid request format", err.Error())
}

// MissingFileError names the multipart field that was not uploaded
func MissingFileError(field string) *APIError {
	return NewWithDetails(CodeMissingFile, fmt.Sprintf("file %q is required", field), field)
}

// ValidationError is one failed field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of VALIDATION_FAILED
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrValidation reports a single invalid field
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(CodeValidationFailed, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

// NewValidationErrors reports every invalid field of a request at once
func NewValidationErrors(fields []ValidationError) *APIError {
	return NewWithDetails(CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: fields})
}
