package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidRequest is returned when a request body fails its shape
	// validation. The concrete error is a *ValidationError.
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError names the first field that failed validation, by its
// JSON path.
type ValidationError struct {
	PropertyPath string
	Tag          string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s failed on %q", ErrInvalidRequest, e.PropertyPath, e.Tag)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks any request struct against its validation tags:
//   - a failing field comes back as a *ValidationError
//   - internal validator errors are wrapped and returned
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("internal validator error: %w", err)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{PropertyPath: propertyPath(fe.Namespace()), Tag: fe.Tag()}
	}
	return ErrInvalidRequest
}

// propertyPath drops the root struct name from a validator namespace.
func propertyPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
