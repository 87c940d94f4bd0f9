package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_JSON(t *testing.T) {
	e := Invalid("Invalid 'buyerId'", "buyerId")

	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]any{
		"message":      "Invalid 'buyerId'",
		"reason":       "Validation error",
		"code":         "invalidValue",
		"propertyPath": "buyerId",
	}, got, "status stays out of the body and empty optionals are dropped")
}

func TestError_Copies(t *testing.T) {
	base := NotFound("order not found")
	withPath := base.WithPath("productOrder.id").WithReference("https://tools.ietf.org/html/rfc7231")

	assert.Empty(t, base.PropertyPath)
	assert.Empty(t, base.ReferenceError)
	assert.Equal(t, "productOrder.id", withPath.PropertyPath)
	assert.Equal(t, http.StatusNotFound, withPath.Status)
}

func TestError_As(t *testing.T) {
	wrapped := fmt.Errorf("creating order: %w", Conflict("empty update"))

	var apiErr *Error
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, ConflictCode, apiErr.Code)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		code   Code
	}{
		{"bad request", BadRequest(InvalidQuery, "x"), http.StatusBadRequest, InvalidQuery},
		{"unauthorized", Unauthorized("x"), http.StatusUnauthorized, MissingCredentials},
		{"timeout", TimeOut("x"), http.StatusRequestTimeout, TimeOutCode},
		{"unprocessable", Unprocessable(TooManyRecords, "x", "p"), http.StatusUnprocessableEntity, TooManyRecords},
		{"internal", Internal("x"), http.StatusInternalServerError, InternalError},
		{"unavailable", ServiceUnavailable("x"), http.StatusServiceUnavailable, InternalError},
		{"gateway timeout", GatewayTimeout("x"), http.StatusGatewayTimeout, TimeOutCode},
		{"not implemented", NotImplementedYet("x"), http.StatusNotImplemented, NotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Reason)
		})
	}
}
