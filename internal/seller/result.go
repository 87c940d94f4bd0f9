package seller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/apierror"
)

const defaultFailureMessage = "Failed to call external API"

// Result is the raw outcome of a Seller call that produced an HTTP response.
// Transport failures never yield a Result, they are reported as errors.
type Result struct {
	StatusCode int
	Body       []byte
	Reason     string
}

// OK reports a 2xx answer.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into v.
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding seller response: %w", err)
	}
	return nil
}

// Message extracts the human readable error from a failed response. The
// Seller answers {"detail": "..."} or {"detail": [{"msg": "..."}]}; a body
// that is not JSON yields an empty message.
func (r *Result) Message() string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return ""
	}
	if len(body.Detail) == 0 {
		return defaultFailureMessage
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &list); err == nil {
		if len(list) > 0 {
			return list[0].Msg
		}
		return defaultFailureMessage
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	return string(body.Detail)
}

// Failure translates a non-2xx answer into the envelope returned to the
// Buyer. It returns nil for a successful result.
func (r *Result) Failure() *apierror.Error {
	if r.OK() {
		return nil
	}

	msg := r.Message()
	reason := r.Reason
	if reason == "" {
		reason = http.StatusText(r.StatusCode)
	}

	switch r.StatusCode {
	case http.StatusBadRequest:
		return apierror.New(http.StatusBadRequest, apierror.InvalidBody, msg, reason)
	case http.StatusUnprocessableEntity:
		return apierror.New(http.StatusUnprocessableEntity, apierror.OtherIssue, msg, reason)
	case http.StatusInternalServerError:
		return apierror.New(http.StatusInternalServerError, apierror.InternalError, msg, reason)
	default:
		if msg == "" {
			msg = fmt.Sprintf("Seller answered with unexpected status %d", r.StatusCode)
		}
		return apierror.New(http.StatusBadGateway, apierror.OtherIssue, msg, reason)
	}
}
