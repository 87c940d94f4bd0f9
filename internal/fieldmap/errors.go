package fieldmap

import (
	"fmt"
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/apierror"
)

// MappingError is why a canonical request could not be translated. Mapping
// stops at the first problem, no partial payload is ever returned with it.
type MappingError struct {
	StatusCode     int
	Message        string
	Reason         string
	ReferenceError string
	Code           apierror.Code
	PropertyPath   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping failed (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// APIError converts the mapping failure into the response envelope.
func (e *MappingError) APIError() *apierror.Error {
	return &apierror.Error{
		Status:         e.StatusCode,
		Message:        e.Message,
		Reason:         e.Reason,
		ReferenceError: e.ReferenceError,
		Code:           e.Code,
		PropertyPath:   e.PropertyPath,
	}
}

func errDictionaryMissing() *MappingError {
	return &MappingError{
		StatusCode: http.StatusNotFound,
		Message:    "field mapping dictionary not found",
		Reason:     "Record not found",
		Code:       apierror.NotFoundCode,
	}
}

func errInternal(msg string) *MappingError {
	return &MappingError{
		StatusCode: http.StatusInternalServerError,
		Message:    msg,
		Reason:     "Invalid value",
		Code:       apierror.InternalError,
	}
}

func errInvalid(msg, reason, path string) *MappingError {
	return &MappingError{
		StatusCode:   http.StatusUnprocessableEntity,
		Message:      msg,
		Reason:       reason,
		Code:         apierror.InvalidValue,
		PropertyPath: path,
	}
}

func errMissing(path string) *MappingError {
	return &MappingError{
		StatusCode:   http.StatusUnprocessableEntity,
		Message:      fmt.Sprintf("'%s' MUST be provided", path),
		Reason:       "Validation error",
		Code:         apierror.MissingProperty,
		PropertyPath: path,
	}
}

func errTooManyRecords(path string) *MappingError {
	return &MappingError{
		StatusCode:   http.StatusUnprocessableEntity,
		Message:      "Number of itemDetails must not exceed number of productOrderItem",
		Reason:       "Too many records",
		Code:         apierror.TooManyRecords,
		PropertyPath: path,
	}
}
