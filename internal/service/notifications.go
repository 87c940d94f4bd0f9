package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/pkg/metrics"
	"github.com/goinginblind/lso-gateway/internal/store"
)

// Listener handles one notification. A nil error means the event was
// applied (204); a stale event is reported as a 408 envelope.
type Listener func(ctx context.Context, ev *domain.Event) error

// Notifier applies Seller notifications to the stored aggregates. A state
// change is only applied once: the previous state shadow is rotated in the
// same atomic update that checks it.
type Notifier struct {
	repos     *Repositories
	logger    logger.Logger
	listeners map[domain.EventType]Listener
}

func NewNotifier(repos *Repositories, logger logger.Logger) *Notifier {
	n := &Notifier{repos: repos, logger: logger}
	n.listeners = map[domain.EventType]Listener{
		domain.ProductOrderStateChangeEvent:              n.OrderStateChange,
		domain.ProductOrderItemStateChangeEvent:          n.OrderItemStateChange,
		domain.ProductOrderItemExpectedCompletionDateSet: n.ExpectedCompletionDateSet,
		domain.ProductSpecificProductOrderItemMilestone:  n.MilestoneReached,
		domain.ChargeCreateEvent:                         n.ChargeCreated,
		domain.ModifyDeliveryDateStateChangeEvent:        n.DeliveryDateStateChange,
	}
	return n
}

// Listener returns the handler registered for t.
func (n *Notifier) Listener(t domain.EventType) (Listener, bool) {
	l, ok := n.listeners[t]
	return l, ok
}

// Handle dispatches ev on its own event type.
func (n *Notifier) Handle(ctx context.Context, ev *domain.Event) error {
	l, ok := n.Listener(ev.EventType)
	if !ok {
		return n.done(ev, apierror.Invalid("Invalid 'eventType'", "eventType"))
	}
	return l(ctx, ev)
}

func (n *Notifier) OrderStateChange(ctx context.Context, ev *domain.Event) error {
	return n.done(ev, n.orderStateChange(ctx, ev))
}

func (n *Notifier) OrderItemStateChange(ctx context.Context, ev *domain.Event) error {
	return n.done(ev, n.orderItemStateChange(ctx, ev))
}

func (n *Notifier) ExpectedCompletionDateSet(ctx context.Context, ev *domain.Event) error {
	return n.done(ev, n.expectedCompletionDateSet(ctx, ev))
}

func (n *Notifier) MilestoneReached(ctx context.Context, ev *domain.Event) error {
	return n.done(ev, n.milestoneReached(ctx, ev))
}

func (n *Notifier) ChargeCreated(ctx context.Context, ev *domain.Event) error {
	return n.done(ev, n.chargeCreated(ctx, ev))
}

func (n *Notifier) DeliveryDateStateChange(ctx context.Context, ev *domain.Event) error {
	return n.done(ev, n.deliveryDateStateChange(ctx, ev))
}

// done records the outcome of a notification.
func (n *Notifier) done(ev *domain.Event, err error) error {
	result := "applied"
	var apiErr *apierror.Error
	switch {
	case err == nil:
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusRequestTimeout:
		result = "duplicate"
	case errors.As(err, &apiErr):
		result = "rejected"
	default:
		result = "error"
		n.logger.Errorw("notification failed", "event_type", ev.EventType, "event_id", ev.EventID, "error", err)
	}
	metrics.NotificationsTotal.WithLabelValues(string(ev.EventType), result).Inc()
	n.logger.Debugw("notification handled", "event_type", ev.EventType, "id", ev.Event.ID, "result", result)
	return err
}

func errStale() error {
	return apierror.TimeOut("Request Time-out").
		WithReason("The server did not receive a full request message within the expected waiting time.")
}

func errUnknownEntity() error {
	return apierror.Invalid("Invalid 'id'", "event.id")
}

func expect(ev *domain.Event, t domain.EventType) error {
	if err := domain.Validate(ev); err != nil {
		return invalidRequest(err)
	}
	if ev.EventType != t {
		return apierror.Invalid(fmt.Sprintf("The eventType must be '%s'", t), "eventType")
	}
	return nil
}

// subscribed checks that the subscription the event refers to asked for it.
func (n *Notifier) subscribed(ctx context.Context, ev *domain.Event) error {
	sub, err := n.repos.Subscriptions.Get(ctx, ev.EventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierror.Invalid("Invalid 'eventId'", "eventId")
		}
		return fmt.Errorf("loading subscription %s: %w", ev.EventID, err)
	}
	if !sub.Accepts(ev.EventType) {
		return apierror.Invalid(fmt.Sprintf("Buyer has not subscribed for '%s' notification.", ev.EventType), "eventType")
	}
	return nil
}

// ownerFilters checks the optional sellerId, buyerId and href of an event.
func ownerFilters(e domain.EventPayload, buyerID, sellerID, href string) error {
	switch {
	case e.SellerID != "" && e.SellerID != sellerID:
		return apierror.Invalid("Invalid 'sellerId'", "event.sellerId")
	case e.BuyerID != "" && e.BuyerID != buyerID:
		return apierror.Invalid("Invalid 'buyerId'", "event.buyerId")
	case e.Href != "" && e.Href != href:
		return apierror.Invalid("Invalid 'href'", "event.href")
	}
	return nil
}

func orderFilters(e domain.EventPayload, o *domain.ProductOrder) error {
	if err := ownerFilters(e, o.BuyerID, o.SellerID, o.Href); err != nil {
		return err
	}
	if e.MilestoneName != "" && !o.HasMilestone(e.MilestoneName) {
		return apierror.Invalid("Invalid 'milestoneName'", "event.milestoneName")
	}
	if e.OrderItemID != "" {
		if item, _ := o.FindItem(e.OrderItemID); item == nil {
			return apierror.Invalid("Invalid 'orderItemId'", "event.orderItemId")
		}
	}
	return nil
}

func requireOrderItem(e domain.EventPayload) error {
	if e.OrderItemID == "" {
		return apierror.Unprocessable(apierror.MissingProperty, "The 'orderItemId' field is required.", "event.orderItemId")
	}
	return nil
}

// updateError maps a missing document onto the notification envelope.
func updateError(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return errUnknownEntity()
	}
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return fmt.Errorf("rotating %s %s: %w", kind, id, err)
}

func (n *Notifier) orderStateChange(ctx context.Context, ev *domain.Event) error {
	if err := expect(ev, domain.ProductOrderStateChangeEvent); err != nil {
		return err
	}
	err := n.repos.Orders.Update(ctx, ev.Event.ID, func(o *domain.ProductOrder) error {
		if err := orderFilters(ev.Event, o); err != nil {
			return err
		}
		if o.State == o.PreviousState {
			return errStale()
		}
		o.PreviousState = o.State
		return nil
	})
	return updateError("order", ev.Event.ID, err)
}

func (n *Notifier) orderItemStateChange(ctx context.Context, ev *domain.Event) error {
	if err := expect(ev, domain.ProductOrderItemStateChangeEvent); err != nil {
		return err
	}
	if err := requireOrderItem(ev.Event); err != nil {
		return err
	}
	err := n.repos.Orders.Update(ctx, ev.Event.ID, func(o *domain.ProductOrder) error {
		if err := orderFilters(ev.Event, o); err != nil {
			return err
		}
		item, _ := o.FindItem(ev.Event.OrderItemID)
		if item.State == item.PreviousState {
			return errStale()
		}
		item.PreviousState = item.State
		return nil
	})
	return updateError("order item", ev.Event.ID, err)
}

// loadOrder reads the order an event names and applies its filters.
func (n *Notifier) loadOrder(ctx context.Context, ev *domain.Event) (*domain.ProductOrder, error) {
	o, err := n.repos.Orders.Get(ctx, ev.Event.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errUnknownEntity()
		}
		return nil, fmt.Errorf("loading order %s: %w", ev.Event.ID, err)
	}
	if err := orderFilters(ev.Event, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (n *Notifier) expectedCompletionDateSet(ctx context.Context, ev *domain.Event) error {
	if err := expect(ev, domain.ProductOrderItemExpectedCompletionDateSet); err != nil {
		return err
	}
	if err := n.subscribed(ctx, ev); err != nil {
		return err
	}
	if err := requireOrderItem(ev.Event); err != nil {
		return err
	}
	o, err := n.loadOrder(ctx, ev)
	if err != nil {
		return err
	}
	item, _ := o.FindItem(ev.Event.OrderItemID)
	if item.ExpectedCompletionDate == nil {
		return errStale()
	}
	return nil
}

func (n *Notifier) milestoneReached(ctx context.Context, ev *domain.Event) error {
	if err := expect(ev, domain.ProductSpecificProductOrderItemMilestone); err != nil {
		return err
	}
	if err := n.subscribed(ctx, ev); err != nil {
		return err
	}
	if err := requireOrderItem(ev.Event); err != nil {
		return err
	}
	if ev.Event.MilestoneName == "" {
		return apierror.Unprocessable(apierror.MissingProperty, "The 'milestoneName' field is required.", "event.milestoneName")
	}
	o, err := n.loadOrder(ctx, ev)
	if err != nil {
		return err
	}
	item, _ := o.FindItem(ev.Event.OrderItemID)
	for _, m := range item.Milestone {
		if m.Name == ev.Event.MilestoneName {
			return nil
		}
	}
	return apierror.Invalid("Invalid 'milestoneName'", "event.milestoneName")
}

func (n *Notifier) chargeCreated(ctx context.Context, ev *domain.Event) error {
	if err := expect(ev, domain.ChargeCreateEvent); err != nil {
		return err
	}
	err := n.repos.Charges.Update(ctx, ev.Event.ID, func(c *domain.Charge) error {
		if err := ownerFilters(ev.Event, c.BuyerID, c.SellerID, c.Href); err != nil {
			return err
		}
		if c.State == c.PreviousState {
			return errStale()
		}
		c.PreviousState = c.State
		return nil
	})
	return updateError("charge", ev.Event.ID, err)
}

func (n *Notifier) deliveryDateStateChange(ctx context.Context, ev *domain.Event) error {
	if err := expect(ev, domain.ModifyDeliveryDateStateChangeEvent); err != nil {
		return err
	}
	if err := n.subscribed(ctx, ev); err != nil {
		return err
	}
	err := n.repos.DeliveryDates.Update(ctx, ev.Event.ID, func(m *domain.ModifyDeliveryDate) error {
		if err := ownerFilters(ev.Event, m.BuyerID, m.SellerID, m.Href); err != nil {
			return err
		}
		if m.State == m.PreviousState {
			return errStale()
		}
		m.PreviousState = m.State
		return nil
	})
	return updateError("delivery date change", ev.Event.ID, err)
}
