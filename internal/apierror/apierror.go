// Package apierror is the MEF error envelope every failed call answers with.
package apierror

import (
	"fmt"
	"net/http"
)

// Code is the MEF error code carried in the envelope.
type Code string

const (
	MissingQueryParameter Code = "missingQueryParameter"
	MissingQueryValue     Code = "missingQueryValue"
	InvalidQuery          Code = "invalidQuery"
	InvalidBody           Code = "invalidBody"
	MissingCredentials    Code = "missingCredentials"
	NotFoundCode          Code = "notFound"
	TimeOutCode           Code = "timeOut"
	ConflictCode          Code = "conflict"
	MissingProperty       Code = "missingProperty"
	InvalidValue          Code = "invalidValue"
	InvalidFormat         Code = "invalidFormat"
	ReferenceNotFound     Code = "referenceNotFound"
	UnexpectedProperty    Code = "unexpectedProperty"
	TooManyRecords        Code = "tooManyRecords"
	OtherIssue            Code = "otherIssue"
	InternalError         Code = "internalError"
	NotImplemented        Code = "notImplemented"
	AttachmentTooLarge    Code = "attachmentTooLarge"
)

// Error is both a Go error and the response body of a failed request.
type Error struct {
	Status         int    `json:"-"`
	Message        string `json:"message"`
	Reason         string `json:"reason"`
	ReferenceError string `json:"referenceError,omitempty"`
	Code           Code   `json:"code"`
	PropertyPath   string `json:"propertyPath,omitempty"`
}

func (e *Error) Error() string {
	if e.PropertyPath != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.Status, e.Code, e.Message, e.PropertyPath)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// New builds an error with an explicit status and code.
func New(status int, code Code, message, reason string) *Error {
	return &Error{Status: status, Code: code, Message: message, Reason: reason}
}

// WithPath returns a copy pointing at the offending property.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.PropertyPath = path
	return &cp
}

// WithReason returns a copy with a different reason line.
func (e *Error) WithReason(reason string) *Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

// WithReference returns a copy carrying a documentation link.
func (e *Error) WithReference(ref string) *Error {
	cp := *e
	cp.ReferenceError = ref
	return &cp
}

func BadRequest(code Code, message string) *Error {
	return New(http.StatusBadRequest, code, message, "Bad Request")
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, MissingCredentials, message, "Unauthorized")
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, NotFoundCode, message, "Resource for the requested id not found")
}

// TimeOut is what a stale or duplicate notification is answered with.
func TimeOut(message string) *Error {
	return New(http.StatusRequestTimeout, TimeOutCode, message, "Request Time-out")
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, ConflictCode, message, "Validation error")
}

// Unprocessable is the 422 family. The caller picks the code and the path.
func Unprocessable(code Code, message, path string) *Error {
	return &Error{
		Status:       http.StatusUnprocessableEntity,
		Code:         code,
		Message:      message,
		Reason:       "Validation error",
		PropertyPath: path,
	}
}

func Invalid(message, path string) *Error {
	return Unprocessable(InvalidValue, message, path)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, InternalError, message,
		"The server encountered an unexpected condition that prevented it from fulfilling the request")
}

func ServiceUnavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, InternalError, message, "Upstream unavailable")
}

func GatewayTimeout(message string) *Error {
	return New(http.StatusGatewayTimeout, TimeOutCode, message, "Upstream timeout")
}

func NotImplementedYet(message string) *Error {
	return New(http.StatusNotImplemented, NotImplemented, message, "Not implemented")
}
