package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/seller"
	"github.com/goinginblind/lso-gateway/internal/service"
	"github.com/goinginblind/lso-gateway/internal/store"
)

const (
	contentType = "application/json;charset=utf-8"

	// maxBodyBytes caps JSON request bodies. Uploads are streamed and
	// capped separately.
	maxBodyBytes = 1 << 20
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnw("failed to write response", "error", err)
	}
}

// writeError answers with the MEF envelope err resolves to.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Errorw("request failed",
			"error", err,
			"status", apiErr.Status,
			"method", r.Method,
			"uri", r.URL.RequestURI(),
		)
	}
	s.writeJSON(w, apiErr.Status, apiErr)
}

// toAPIError resolves an error to the envelope it is reported with.
// Sentinels from the store and the Seller gateway take precedence over
// anything that merely wraps them.
func toAPIError(err error) *apierror.Error {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, store.ErrNotFound):
		return apierror.NotFound("Resource not found")
	case errors.Is(err, store.ErrConnectionFailed):
		return apierror.ServiceUnavailable("Store is unreachable")
	case errors.Is(err, seller.ErrUpstreamUnavailable):
		return apierror.ServiceUnavailable("Seller API is unreachable")
	case errors.Is(err, seller.ErrUpstreamTimeout):
		return apierror.GatewayTimeout("Seller API did not answer in time")
	case errors.Is(err, config.ErrConfigurationMissing):
		return apierror.Internal("Payload template is not configured")
	default:
		return apierror.Internal("Internal server error")
	}
}

// decodeJSON reads a capped JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.New(http.StatusRequestEntityTooLarge, apierror.InvalidBody,
				"Request body is too large", "Payload Too Large")
		}
		return apierror.BadRequest(apierror.InvalidBody, "Request body is not valid JSON")
	}
	return nil
}

// bearerToken returns the credentials of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", apierror.Unauthorized("Not authenticated")
	}
	return token, nil
}

func partyOf(r *http.Request) service.Party {
	q := r.URL.Query()
	return service.Party{BuyerID: q.Get("buyerId"), SellerID: q.Get("sellerId")}
}

func pageOf(r *http.Request) (service.Page, error) {
	offset, err := intQuery(r, "offset")
	if err != nil {
		return service.Page{}, err
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		return service.Page{}, err
	}
	return service.Page{Offset: offset, Limit: limit}, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.BadRequest(apierror.InvalidQuery, "'"+name+"' must be an integer").WithPath(name)
	}
	return n, nil
}

func boolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apierror.BadRequest(apierror.InvalidQuery, "'"+name+"' must be true or false").WithPath(name)
	}
	return &b, nil
}

// rangeQuery reads the name.gt and name.lt pair of a date filter.
func rangeQuery(r *http.Request, name string) (service.TimeRange, error) {
	q := r.URL.Query()
	return service.ParseRange(q.Get(name+".gt"), q.Get(name+".lt"), name)
}
