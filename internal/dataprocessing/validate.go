package dataprocessing

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"assaymerge/internal/errors"
	"assaymerge/pkg/contracts/domain"
)

var paramValidator = newParamValidator()

func newParamValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(concentrationsPresent, domain.ExperimentParameters{})
	return v
}

// concentrationsPresent requires a label for every test well letter
func concentrationsPresent(sl validator.StructLevel) {
	params := sl.Current().Interface().(domain.ExperimentParameters)
	for _, letter := range params.MissingConcentrations() {
		sl.ReportError(params.Concentrations, "concentration_"+letter, "Concentrations", "required", letter)
	}
}

// ValidateParameters checks that exposure time, compound and the B-F
// concentrations are all set. The returned MISSING_PARAMETER error lists
// every absent field in a stable order.
func ValidateParameters(params domain.ExperimentParameters) error {
	err := paramValidator.Struct(params)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewAppValidationError(err.Error())
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}
	return errors.NewMissingParameterError(missing)
}
