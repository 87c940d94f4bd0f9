package api

import (
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
)

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var in domain.EventSubscriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sub, err := s.hub.Subscribe(r.Context(), &in, partyOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.hub.GetSubscription(r.Context(), r.PathValue("id"), partyOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := s.hub.Unsubscribe(r.Context(), r.PathValue("id"), partyOf(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listen receives one Seller notification. Only event types with a
// registered listener are routed.
func (s *Server) listen(w http.ResponseWriter, r *http.Request) {
	eventType := domain.EventType(r.PathValue("eventType"))
	listener, ok := s.notifier.Listener(eventType)
	if !ok {
		s.writeError(w, r, apierror.NotFound("No listener for '"+string(eventType)+"'"))
		return
	}
	var ev domain.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := listener(r.Context(), &ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
