package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies failures raised inside the merge pipeline. The HTTP
// layer maps each type to a status in StatusFor.
type ErrorType string

const (
	ErrTypeMissingParameter ErrorType = "MISSING_PARAMETER"
	ErrTypeEmptyExtraction  ErrorType = "EMPTY_EXTRACTION"
	ErrTypeEmptyJoin        ErrorType = "EMPTY_JOIN"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeConfig           ErrorType = "CONFIG"
)

// AppError is a typed pipeline failure. Context holds machine-readable
// details that 4xx problem responses expose as extensions.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Type))
	b.WriteString("] ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext sets one context entry and returns e for chaining
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause, Context: map[string]any{}}
}

// TypeOf returns the type of the first AppError in err's chain, or ""
func TypeOf(err error) ErrorType {
	if appErr := (*AppError)(nil); errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// NewMissingParameterError lists the experiment parameters a merge cannot
// run without.
func NewMissingParameterError(fields []string) *AppError {
	msg := "missing experiment parameters: " + strings.Join(fields, ", ")
	return NewAppError(ErrTypeMissingParameter, msg, nil).WithContext("missing", fields)
}

// NewEmptyExtractionError names the source tables that yielded no data rows
func NewEmptyExtractionError(tables []string) *AppError {
	msg := "no data rows extracted from: " + strings.Join(tables, ", ")
	return NewAppError(ErrTypeEmptyExtraction, msg, nil).WithContext("tables", tables)
}

// NewEmptyJoinError carries the per-table record counts of a join that
// matched nothing.
func NewEmptyJoinError(counts map[string]int) *AppError {
	return NewAppError(ErrTypeEmptyJoin, "no rows share a merge key across all three tables", nil).
		WithContext("extracted", counts)
}

func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
