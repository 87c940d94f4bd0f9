package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/reconcile"
	"github.com/goinginblind/lso-gateway/internal/store"
)

// Hub keeps the buyer callback registrations notifications are gated on.
type Hub struct {
	subs   *store.Documents[domain.EventSubscription]
	logger logger.Logger
	opts   options
}

func NewHub(repos *Repositories, logger logger.Logger, opts ...Option) *Hub {
	return &Hub{subs: repos.Subscriptions, logger: logger, opts: buildOptions(opts)}
}

// ParseQuery reads the event types out of a hub query. Both
// "eventType=a,b" and "eventType=a&eventType=b" are accepted.
func ParseQuery(q string) ([]domain.EventType, error) {
	if !strings.Contains(q, "eventType=") {
		return nil, apierror.BadRequest(apierror.MissingQueryParameter, "eventType is missing in the query value").
			WithReason("eventType is missing in the query value")
	}
	invalid := apierror.BadRequest(apierror.InvalidBody, "Invalid query value").WithReason("Invalid query value")

	var values []string
	for _, part := range strings.Split(q, "&") {
		_, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, invalid
		}
		for _, s := range strings.Split(v, ",") {
			values = append(values, strings.TrimSpace(s))
		}
	}
	if len(values) == 1 && !alphabetic(values[0]) {
		return nil, apierror.BadRequest(apierror.InvalidBody, "Invalid eventType value").WithReason("Invalid eventType value")
	}

	seen := make(map[domain.EventType]struct{}, len(values))
	out := make([]domain.EventType, 0, len(values))
	for _, v := range values {
		et := domain.EventType(v)
		if _, ok := domain.SubscribableEvents[et]; !ok {
			return nil, invalid
		}
		if _, dup := seen[et]; dup {
			continue
		}
		seen[et] = struct{}{}
		out = append(out, et)
	}
	return out, nil
}

func alphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Subscribe registers a callback. A registration without a query accepts
// no event.
func (h *Hub) Subscribe(ctx context.Context, in *domain.EventSubscriptionInput, p Party) (*domain.EventSubscription, error) {
	if err := domain.Validate(in); err != nil {
		return nil, invalidRequest(err)
	}
	var types []domain.EventType
	if in.Query != "" {
		parsed, err := ParseQuery(in.Query)
		if err != nil {
			return nil, err
		}
		types = parsed
	}

	sub := &domain.EventSubscription{
		Callback:     in.Callback,
		ID:           h.opts.newID(),
		Query:        in.Query,
		Subscription: true,
		EventTypes:   types,
		BuyerID:      p.BuyerID,
		SellerID:     p.SellerID,
	}
	if !reconcile.Subscription(in, sub) {
		return nil, apierror.BadRequest(apierror.InvalidBody, "Request and response data are mismatching").
			WithReason("Validation error")
	}
	if err := h.subs.Put(ctx, sub.ID, sub); err != nil {
		return nil, fmt.Errorf("storing subscription %s: %w", sub.ID, err)
	}

	h.logger.Infow("event subscription registered", "subscription_id", sub.ID, "buyer_id", p.BuyerID, "event_types", types)
	return sub.Public(), nil
}

func (h *Hub) GetSubscription(ctx context.Context, id string, p Party) (*domain.EventSubscription, error) {
	sub, err := h.subs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("Id: %s not found", id)).WithPath("id")
		}
		return nil, fmt.Errorf("loading subscription %s: %w", id, err)
	}
	if !sub.Subscription {
		return nil, apierror.NotFound("'Id' not found").WithReason("'Id' not found")
	}
	if err := ownedSubscription(sub, p); err != nil {
		return nil, err
	}
	return sub.Public(), nil
}

// Unsubscribe deactivates a registration. The record is kept.
func (h *Hub) Unsubscribe(ctx context.Context, id string, p Party) error {
	sub, err := h.subs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierror.NotFound(fmt.Sprintf("'Id':%s not found", id)).WithReason("Id not found").WithPath("id")
		}
		return fmt.Errorf("loading subscription %s: %w", id, err)
	}
	if err := ownedSubscription(sub, p); err != nil {
		return err
	}
	if !sub.Subscription {
		msg := fmt.Sprintf("%s already unregistered", id)
		return apierror.NotFound(msg).WithReason(msg)
	}
	if err := h.subs.PutField(ctx, id, []string{"subscription"}, false); err != nil {
		return fmt.Errorf("deactivating subscription %s: %w", id, err)
	}
	h.logger.Infow("event subscription removed", "subscription_id", id)
	return nil
}

func ownedSubscription(sub *domain.EventSubscription, p Party) error {
	switch p.ownerMismatch(sub.BuyerID, sub.SellerID) {
	case "buyerId":
		return apierror.NotFound("buyerId not found").WithReason("'Id' not found").WithPath("buyerId")
	case "sellerId":
		return apierror.NotFound("sellerId not Found").WithReason("'Id' not found").WithPath("sellerId")
	}
	return nil
}
