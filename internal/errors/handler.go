package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// RFC 7807 problem type URIs
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"

	TypeMissingParameter = "/errors/merge/missing-parameter"
	TypeEmptyExtraction  = "/errors/merge/empty-extraction"
	TypeEmptyJoin        = "/errors/merge/empty-join"
	TypeParsing          = "/errors/merge/unreadable-table"
)

const internalDetail = "An unexpected error occurred while processing your request"

// appProblems holds the problem type and title of each AppError type
var appProblems = map[ErrorType][2]string{
	ErrTypeMissingParameter: {TypeMissingParameter, "Missing Experiment Parameters"},
	ErrTypeEmptyExtraction:  {TypeEmptyExtraction, "No Data Rows Extracted"},
	ErrTypeEmptyJoin:        {TypeEmptyJoin, "No Matching Rows"},
	ErrTypeParsing:          {TypeParsing, "Unreadable Table"},
	ErrTypeValidation:       {TypeValidation, "Validation Failed"},
	ErrTypeNotFound:         {TypeNotFound, "Resource Not Found"},
}

// StatusFor maps an application error type onto an HTTP status
func StatusFor(errType ErrorType) int {
	switch errType {
	case ErrTypeMissingParameter, ErrTypeParsing, ErrTypeValidation:
		return http.StatusBadRequest
	case ErrTypeEmptyExtraction, ErrTypeEmptyJoin:
		return http.StatusUnprocessableEntity
	case ErrTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler writes every failed request as application/problem+json
// carrying the request ID as trace_id.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler returns a handler; includeStack adds goroutine stacks to
// responses and belongs in development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes its problem response
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "request failed",
		slog.String("error", err.Error()),
		slog.String("error_type", string(TypeOf(err))),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	problem.WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}
	h.write(w, r, problem)
}

// ErrorToProblem maps err onto problem details. Context errors become 504,
// APIError and AppError keep their own status, anything else is a 500 whose
// message is not exposed.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var (
		apiErr *APIError
		appErr *AppError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", r.URL.Path)
	case errors.As(err, &apiErr):
		return apiProblem(apiErr, r)
	case errors.As(err, &appErr):
		return appProblem(appErr, r)
	default:
		return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
			"Internal Server Error", internalDetail, r.URL.Path)
	}
}

// appProblem exposes the message and context of client errors only
func appProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	status := StatusFor(appErr.Type)
	if status >= http.StatusInternalServerError {
		return NewProblemDetails(status, TypeInternal, "Internal Server Error", internalDetail, r.URL.Path).
			WithExtension("error_code", string(appErr.Type))
	}

	kind := appProblems[appErr.Type]
	problem := NewProblemDetails(status, kind[0], kind[1], appErr.Message, r.URL.Path).
		WithExtension("error_code", string(appErr.Type))
	for k, v := range appErr.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

func apiProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problem := NewProblemDetails(apiErr.StatusCode, apiErr.ErrorCode.ProblemType(),
		http.StatusText(apiErr.StatusCode), apiErr.Message, r.URL.Path).
		WithExtension("error_code", string(apiErr.ErrorCode))
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic logs a recovered panic with its stack and answers 500
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())
	stack := string(debug.Stack())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred", r.URL.Path).
		WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stack)
	}
	h.write(w, r, problem)
}

// NotFound answers unknown routes
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

// MethodNotAllowed answers known routes hit with the wrong method
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeValidation, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	if err := problem.Write(w, r); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write problem response",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}
