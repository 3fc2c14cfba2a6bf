package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "assaymerge/internal/errors"
)

// ValidationMiddleware validates request bodies: their size, their content
// type and, once decoded, their struct tags.
type ValidationMiddleware struct {
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware registers the wellletter tag and reports fields
// by their JSON names. maxBodySize <= 0 disables LimitBody.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxBodySize int64) *ValidationMiddleware {
	v := validator.New()
	v.RegisterValidation("wellletter", isWellLetter)
	v.RegisterTagNameFunc(jsonFieldName)

	return &ValidationMiddleware{
		validate:     v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  maxBodySize,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// isWellLetter accepts one plate row letter A-F in either case
func isWellLetter(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 1 {
		return false
	}
	c := s[0] &^ 0x20
	return c >= 'A' && c <= 'F'
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// LimitBody rejects a declared Content-Length over the limit up front and
// caps undeclared bodies with http.MaxBytesReader.
func (m *ValidationMiddleware) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.maxBodySize <= 0 || !hasBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.logger.WarnContext(r.Context(), "request body too large",
				slog.String("request_id", GetReqID(r.Context())),
				slog.Int64("size", r.ContentLength),
				slog.Int64("max_size", m.maxBodySize))
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(apierrors.CodePayloadTooLarge,
				"Request body exceeds maximum allowed size",
				map[string]int64{"max_size": m.maxBodySize, "size": r.ContentLength}))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxBodySize)
		next.ServeHTTP(w, r)
	})
}

// RequireContentType lets through bodies whose media type is one of
// allowed. Parameters such as boundary or charset are ignored.
func (m *ValidationMiddleware) RequireContentType(allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			if header == "" {
				m.errorHandler.HandleError(w, r, apierrors.New(apierrors.CodeInvalidRequest,
					"Content-Type header is required"))
				return
			}

			mediaType, _, err := mime.ParseMediaType(header)
			if err != nil || !slices.Contains(allowed, mediaType) {
				m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(apierrors.CodeUnsupportedMediaType,
					fmt.Sprintf("Unsupported content type %q", header),
					map[string]interface{}{"allowed": allowed}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ValidateStruct returns nil or a VALIDATION_FAILED APIError listing every
// failed field.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	fields := make([]apierrors.ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = apierrors.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return apierrors.NewValidationErrors(fields)
}

var tagMessages = map[string]string{
	"required":   "%s is required",
	"min":        "%s must be at least %s",
	"max":        "%s must be at most %s",
	"wellletter": "%s must be a plate row letter A-F",
}

func fieldMessage(fe validator.FieldError) string {
	format, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	if strings.Count(format, "%s") == 2 {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf(format, fe.Field())
}
