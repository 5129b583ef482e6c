package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-food-scanner/pkg/models"
)

// ResultValidator checks an AnalysisResult against the contract declared in
// its struct tags.
type ResultValidator struct {
	validate *validator.Validate
}

// NewResultValidator creates a validator with the custom freshness_level rule
// registered.
func NewResultValidator() *ResultValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "freshness_level", func(fl validator.FieldLevel) bool {
		return models.FreshnessLevel(fl.Field().String()).IsValid()
	})
	return &ResultValidator{validate: v}
}

// mustRegister panics when a custom rule cannot be registered. Tags are
// constants, so a failure is a programming error.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Validate returns nil when result satisfies the contract, otherwise one
// ValidationError per failing field.
func (rv *ResultValidator) Validate(result *models.AnalysisResult) []models.ValidationError {
	if result == nil {
		return []models.ValidationError{{Code: "required", Message: "result is nil"}}
	}

	err := rv.validate.Struct(result)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []models.ValidationError{{Code: "invalid", Message: err.Error()}}
	}

	issues := make([]models.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, models.ValidationError{
			Code:    fe.Tag(),
			Field:   trimRoot(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return issues
}

// trimRoot drops the leading struct name from a validator namespace.
func trimRoot(ns string) string {
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	field := trimRoot(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "freshness_level":
		return fmt.Sprintf("%s has unknown value %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Summarize joins issues into a single log-friendly line.
func Summarize(issues []models.ValidationError) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.Message)
	}
	return strings.Join(parts, "; ")
}
