// Package validator adapts go-playground/validator to echo.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New reports fields by their JSON names.
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &CustomValidator{validate: v}
}

// Validate runs the struct's `validate` tags.
func (cv *CustomValidator) Validate(i any) error {
	return errors.WithStack(cv.validate.Struct(i))
}

// Describe flattens validation errors into per-field entries; other errors yield nil.
func Describe(err error) []FieldError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fields := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}

	return fields
}
