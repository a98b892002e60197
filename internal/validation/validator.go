package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/dukerupert/gallery"
	"github.com/go-playground/validator/v10"
)

// Validator provides input validation using go-playground/validator.
//
// Purpose:
// - Use struct tags for declarative validation
// - Report failures keyed by the JSON field name clients sent
// - Integrate with Echo's validation interface
//
// Library: github.com/go-playground/validator/v10
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
//
// Field names in errors come from the json tag, so an UploadRequest failure
// is reported as "title" rather than "Title".
//
// Usage in the HTTP server:
//
//	e.Validator = validation.NewValidator()
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct using its validation tags.
//
// Implements echo.Validator. Failures come back as a gallery EINVALID error
// whose Fields map holds one message per offending field.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return gallery.ErrorWithFields(FormatValidationErrors(validationErrors))
		}
		return gallery.Internal("Validation failed", err)
	}
	return nil
}

// FormatValidationErrors converts validator errors to user-friendly messages.
//
// Example output:
//
//	{
//	  "title": "must be no more than 200 characters"
//	}
//
// Returns map of field -> error message.
func FormatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fields["_error"] = err.Error()
		return fields
	}

	for _, fieldErr := range validationErrors {
		fieldName := fieldErr.Field()
		isString := fieldErr.Kind() == reflect.String

		switch fieldErr.Tag() {
		case "required":
			fields[fieldName] = "is required"
		case "min":
			if isString {
				fields[fieldName] = fmt.Sprintf("must be at least %s characters", fieldErr.Param())
			} else {
				fields[fieldName] = fmt.Sprintf("must be at least %s", fieldErr.Param())
			}
		case "max":
			if isString {
				fields[fieldName] = fmt.Sprintf("must be no more than %s characters", fieldErr.Param())
			} else {
				fields[fieldName] = fmt.Sprintf("must be no more than %s", fieldErr.Param())
			}
		case "gt":
			fields[fieldName] = fmt.Sprintf("must be greater than %s", fieldErr.Param())
		case "oneof":
			fields[fieldName] = fmt.Sprintf("must be one of: %s", fieldErr.Param())
		default:
			fields[fieldName] = fmt.Sprintf("failed validation: %s", fieldErr.Tag())
		}
	}

	return fields
}

// SanitizeInput trims whitespace and removes control characters other than
// tab, newline and carriage return.
//
// Usage:
//
//	req.Title = validation.SanitizeInput(req.Title)
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	var builder strings.Builder
	for _, r := range input {
		if r == '\t' || r == '\n' || r == '\r' || !unicode.IsControl(r) {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}
