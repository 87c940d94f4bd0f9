package api

import (
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/service"
)

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var o domain.ProductOrder
	if err := decodeJSON(w, r, &o); err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	action, err := service.ParseAction(q.Get("action"), &o, q.Get("ccLoaAttachmentId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.orders.Submit(r.Context(), action, partyOf(r), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, order)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.orders.GetOrder(r.Context(), r.PathValue("id"), partyOf(r), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f, err := orderFilterOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.orders.ListOrders(r.Context(), f, token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func orderFilterOf(r *http.Request) (service.OrderFilter, error) {
	q := r.URL.Query()
	f := service.OrderFilter{
		Party:      partyOf(r),
		State:      q.Get("state"),
		ExternalID: q.Get("externalId"),
		ProjectID:  q.Get("projectId"),
	}
	var err error
	if f.OrderDate, err = rangeQuery(r, "orderDate"); err != nil {
		return f, err
	}
	if f.CompletionDate, err = rangeQuery(r, "completionDate"); err != nil {
		return f, err
	}
	if f.CancellationDate, err = rangeQuery(r, "cancellationDate"); err != nil {
		return f, err
	}
	if f.ItemRequestedCompletionDate, err = rangeQuery(r, "itemRequestedCompletionDate"); err != nil {
		return f, err
	}
	if f.ItemExpectedCompletionDate, err = rangeQuery(r, "itemExpectedCompletionDate"); err != nil {
		return f, err
	}
	f.Page, err = pageOf(r)
	return f, err
}

func (s *Server) patchOrder(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProductOrderUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.orders.PatchOrder(r.Context(), r.PathValue("id"), &upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) createCancel(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var c domain.CancelProductOrder
	if err := decodeJSON(w, r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	cancel, err := s.orders.CreateCancel(r.Context(), &c, partyOf(r), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, cancel)
}

func (s *Server) getCancel(w http.ResponseWriter, r *http.Request) {
	cancel, err := s.orders.GetCancel(r.Context(), r.PathValue("id"), partyOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cancel)
}

func (s *Server) listCancels(w http.ResponseWriter, r *http.Request) {
	page, err := pageOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	rows, err := s.orders.ListCancels(r.Context(), service.CancelFilter{
		Party:                  partyOf(r),
		ProductOrderID:         q.Get("productOrderId"),
		State:                  q.Get("state"),
		CancellationReasonType: q.Get("cancellationReasonType"),
		Page:                   page,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) createDeliveryDate(w http.ResponseWriter, r *http.Request) {
	var m domain.ModifyDeliveryDate
	if err := decodeJSON(w, r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.orders.CreateModifyDeliveryDate(r.Context(), &m, partyOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getDeliveryDate(w http.ResponseWriter, r *http.Request) {
	m, err := s.orders.GetModifyDeliveryDate(r.Context(), r.PathValue("id"), partyOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) listDeliveryDates(w http.ResponseWriter, r *http.Request) {
	f, err := deliveryDateFilterOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.orders.ListModifyDeliveryDates(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func deliveryDateFilterOf(r *http.Request) (service.DeliveryDateFilter, error) {
	q := r.URL.Query()
	f := service.DeliveryDateFilter{
		Party:          partyOf(r),
		State:          q.Get("state"),
		ProductOrderID: q.Get("productOrderId"),
	}
	var err error
	if f.ExpediteIndicator, err = boolQuery(r, "expediteIndicator"); err != nil {
		return f, err
	}
	if f.RequestedCompletionDate, err = rangeQuery(r, "requestedCompletionDate"); err != nil {
		return f, err
	}
	if f.CreationDate, err = rangeQuery(r, "creationDate"); err != nil {
		return f, err
	}
	f.Page, err = pageOf(r)
	return f, err
}

func (s *Server) getCharge(w http.ResponseWriter, r *http.Request) {
	c, err := s.orders.GetCharge(r.Context(), r.PathValue("id"), partyOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) listCharges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.ChargeFilter{
		Party:              partyOf(r),
		ProductOrderID:     q.Get("productOrderId"),
		ProductOrderItemID: q.Get("productOrderItemId"),
	}
	var err error
	if f.CreationDate, err = rangeQuery(r, "creationDate"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.ResponseDueDate, err = rangeQuery(r, "responseDueDate"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Page, err = pageOf(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.orders.ListCharges(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}
