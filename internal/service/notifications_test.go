package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotifier(t *testing.T) (*Notifier, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewNotifier(f.repos, logger.NewMockLogger()), f
}

func event(t domain.EventType, payload domain.EventPayload) *domain.Event {
	return &domain.Event{EventID: "SUB-1", EventTime: fixedNow, EventType: t, Event: payload}
}

func subscribe(t *testing.T, f *fixture, types ...domain.EventType) {
	t.Helper()
	require.NoError(t, f.repos.Subscriptions.Put(context.Background(), "SUB-1", &domain.EventSubscription{
		Callback:     "https://buyer.example/cb",
		ID:           "SUB-1",
		Subscription: true,
		EventTypes:   types,
		BuyerID:      "ONS",
		SellerID:     "EQX",
	}))
}

func TestOrderStateChange_AppliedOnce(t *testing.T) {
	n, f := newNotifier(t)
	ctx := context.Background()
	seedOrder(t, f, "T1")
	ev := event(domain.ProductOrderStateChangeEvent, domain.EventPayload{ID: "T1"})

	require.NoError(t, n.Handle(ctx, ev))
	before, err := f.repos.Orders.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderAcknowledged, before.PreviousState)

	apiErr := requireAPIError(t, n.Handle(ctx, ev), http.StatusRequestTimeout)
	assert.Equal(t, apierror.TimeOutCode, apiErr.Code)

	after, err := f.repos.Orders.Get(ctx, "T1")
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("stale event changed the stored order (-before +after):\n%s", diff)
	}
}

func TestOrderStateChange_AfterCreate(t *testing.T) {
	n, f := newNotifier(t)
	ctx := context.Background()
	f.gw.On("PlaceOrder", mock.Anything, mock.Anything, "tok").Return(accepted("T1"), nil).Once()
	req := newOrder(fixedNow.Add(72 * time.Hour))
	req.PreviousState = domain.OrderAcknowledged
	req.BuyerID, req.SellerID = "ZOH", "CYX"
	req.ProductOrderItem[0].ExpectedCompletionDate = timePtr(fixedNow)
	req.ProductOrderItem[0].Milestone = []domain.Milestone{{Name: "installed", Date: fixedNow}}

	_, err := f.lc.CreateOrder(ctx, req, onsEqx, "", "tok")
	require.NoError(t, err)

	stored, err := f.repos.Orders.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Empty(t, stored.PreviousState)
	assert.Equal(t, "ONS", stored.BuyerID)
	assert.Equal(t, "EQX", stored.SellerID)
	assert.Nil(t, stored.ProductOrderItem[0].ExpectedCompletionDate)
	assert.Empty(t, stored.ProductOrderItem[0].Milestone)

	require.NoError(t, n.Handle(ctx, event(domain.ProductOrderStateChangeEvent, domain.EventPayload{ID: "T1"})))
}

func TestOrderStateChange_Filters(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.EventPayload
		path    string
	}{
		{"unknown order", domain.EventPayload{ID: "T9"}, "event.id"},
		{"other buyer", domain.EventPayload{ID: "T1", BuyerID: "ZOH"}, "event.buyerId"},
		{"other seller", domain.EventPayload{ID: "T1", SellerID: "CYX"}, "event.sellerId"},
		{"wrong href", domain.EventPayload{ID: "T1", Href: "/elsewhere"}, "event.href"},
		{"unknown item", domain.EventPayload{ID: "T1", OrderItemID: "5"}, "event.orderItemId"},
		{"unknown milestone", domain.EventPayload{ID: "T1", MilestoneName: "powered"}, "event.milestoneName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, f := newNotifier(t)
			seedOrder(t, f, "T1")

			err := n.OrderStateChange(context.Background(), event(domain.ProductOrderStateChangeEvent, tt.payload))

			apiErr := requireAPIError(t, err, http.StatusUnprocessableEntity)
			assert.Equal(t, tt.path, apiErr.PropertyPath)
			stored, err := f.repos.Orders.Get(context.Background(), "T1")
			require.NoError(t, err)
			assert.Empty(t, stored.PreviousState, "a rejected event rotates nothing")
		})
	}
}

func TestHandle_Envelope(t *testing.T) {
	n, _ := newNotifier(t)

	err := n.Handle(context.Background(), event("orderShipped", domain.EventPayload{ID: "T1"}))
	apiErr := requireAPIError(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "Invalid 'eventType'", apiErr.Message)

	err = n.OrderStateChange(context.Background(), event(domain.ChargeCreateEvent, domain.EventPayload{ID: "T1"}))
	apiErr = requireAPIError(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, "The eventType must be 'productOrderStateChangeEvent'", apiErr.Message)

	err = n.Handle(context.Background(), event(domain.ProductOrderStateChangeEvent, domain.EventPayload{}))
	requireAPIError(t, err, http.StatusBadRequest)
}

func TestOrderItemStateChange(t *testing.T) {
	n, f := newNotifier(t)
	seedOrder(t, f, "T1", func(o *domain.ProductOrder) { o.ProductOrderItem[0].State = domain.ItemInProgress })
	ctx := context.Background()

	err := n.Handle(ctx, event(domain.ProductOrderItemStateChangeEvent, domain.EventPayload{ID: "T1"}))
	apiErr := requireAPIError(t, err, http.StatusUnprocessableEntity)
	assert.Equal(t, apierror.MissingProperty, apiErr.Code)

	ev := event(domain.ProductOrderItemStateChangeEvent, domain.EventPayload{ID: "T1", OrderItemID: "1"})
	require.NoError(t, n.Handle(ctx, ev))
	requireAPIError(t, n.Handle(ctx, ev), http.StatusRequestTimeout)
}

func TestOrderItemStateChange_AfterModify(t *testing.T) {
	n, f := newNotifier(t)
	ctx := context.Background()
	seedOrder(t, f, "T1", func(o *domain.ProductOrder) {
		o.ProductOrderItem[0].Product = nil
		o.ProductOrderItem[0].State = domain.ItemInProgress
	})
	req := modifyRequest()
	req.ProductOrderItem[0].State = domain.ItemCompleted
	req.ProductOrderItem[0].PreviousState = domain.ItemCompleted

	_, err := f.lc.ModifyOrder(ctx, req, onsEqx)
	require.NoError(t, err)

	ev := event(domain.ProductOrderItemStateChangeEvent, domain.EventPayload{ID: "T1", OrderItemID: "1"})
	require.NoError(t, n.Handle(ctx, ev))
}

func TestExpectedCompletionDateSet(t *testing.T) {
	ctx := context.Background()
	ev := event(domain.ProductOrderItemExpectedCompletionDateSet, domain.EventPayload{ID: "T1", OrderItemID: "1"})

	t.Run("not subscribed", func(t *testing.T) {
		n, f := newNotifier(t)
		seedOrder(t, f, "T1")
		subscribe(t, f, domain.ProductOrderStateChangeEvent)

		apiErr := requireAPIError(t, n.Handle(ctx, ev), http.StatusUnprocessableEntity)
		assert.Equal(t, "Buyer has not subscribed for 'productOrderItemExpectedCompletionDateSet' notification.", apiErr.Message)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		n, f := newNotifier(t)
		seedOrder(t, f, "T1")

		apiErr := requireAPIError(t, n.Handle(ctx, ev), http.StatusUnprocessableEntity)
		assert.Equal(t, "eventId", apiErr.PropertyPath)
	})

	t.Run("date not set yet", func(t *testing.T) {
		n, f := newNotifier(t)
		seedOrder(t, f, "T1")
		subscribe(t, f, domain.ProductOrderItemExpectedCompletionDateSet)

		requireAPIError(t, n.Handle(ctx, ev), http.StatusRequestTimeout)
	})

	t.Run("date set", func(t *testing.T) {
		n, f := newNotifier(t)
		seedOrder(t, f, "T1", func(o *domain.ProductOrder) {
			o.ProductOrderItem[0].ExpectedCompletionDate = timePtr(fixedNow.Add(96 * time.Hour))
		})
		subscribe(t, f, domain.ProductOrderItemExpectedCompletionDateSet)

		assert.NoError(t, n.Handle(ctx, ev))
	})
}

func TestMilestoneReached(t *testing.T) {
	ctx := context.Background()
	withMilestone := func(o *domain.ProductOrder) {
		o.ProductOrderItem[0].Milestone = []domain.Milestone{{Date: fixedNow, Name: "cablePatched"}}
	}
	tests := []struct {
		name    string
		payload domain.EventPayload
		status  int
	}{
		{"reached", domain.EventPayload{ID: "T1", OrderItemID: "1", MilestoneName: "cablePatched"}, 0},
		{"no milestone name", domain.EventPayload{ID: "T1", OrderItemID: "1"}, http.StatusUnprocessableEntity},
		{"other milestone", domain.EventPayload{ID: "T1", OrderItemID: "1", MilestoneName: "tested"}, http.StatusUnprocessableEntity},
		{"no item", domain.EventPayload{ID: "T1", MilestoneName: "cablePatched"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, f := newNotifier(t)
			seedOrder(t, f, "T1", withMilestone)
			subscribe(t, f, domain.ProductSpecificProductOrderItemMilestone)

			err := n.Handle(ctx, event(domain.ProductSpecificProductOrderItemMilestone, tt.payload))

			if tt.status == 0 {
				assert.NoError(t, err)
				return
			}
			requireAPIError(t, err, tt.status)
		})
	}
}

func TestChargeCreated(t *testing.T) {
	n, f := newNotifier(t)
	ctx := context.Background()
	require.NoError(t, f.repos.Charges.Put(ctx, "CH1", &domain.Charge{
		ID: "CH1", State: domain.ChargeAwaitingResponse, Href: "/charge/CH1", BuyerID: "ONS", SellerID: "EQX",
	}))

	ev := event(domain.ChargeCreateEvent, domain.EventPayload{ID: "CH1", BuyerID: "ONS"})
	require.NoError(t, n.Handle(ctx, ev))
	requireAPIError(t, n.Handle(ctx, ev), http.StatusRequestTimeout)

	apiErr := requireAPIError(t, n.Handle(ctx, event(domain.ChargeCreateEvent, domain.EventPayload{ID: "CH2"})), http.StatusUnprocessableEntity)
	assert.Equal(t, "Invalid 'id'", apiErr.Message)
}

func TestDeliveryDateStateChange(t *testing.T) {
	n, f := newNotifier(t)
	ctx := context.Background()
	require.NoError(t, f.repos.DeliveryDates.Put(ctx, "M1", &domain.ModifyDeliveryDate{
		ID:               "M1", State: domain.TaskDone, BuyerID: "ONS", SellerID: "EQX",
		ProductOrderItem: domain.ProductOrderItemRef{ProductOrderID: "T1", ProductOrderItemID: "1"},
	}))
	ev := event(domain.ModifyDeliveryDateStateChangeEvent, domain.EventPayload{ID: "M1", SellerID: "EQX"})

	requireAPIError(t, n.Handle(ctx, ev), http.StatusUnprocessableEntity)

	subscribe(t, f, domain.ModifyDeliveryDateStateChangeEvent)
	require.NoError(t, n.Handle(ctx, ev))
	requireAPIError(t, n.Handle(ctx, ev), http.StatusRequestTimeout)

	stored, err := f.repos.DeliveryDates.Get(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, stored.PreviousState)
}

func TestNotifier_Listener(t *testing.T) {
	n, _ := newNotifier(t)
	for et := range domain.SubscribableEvents {
		_, ok := n.Listener(et)
		switch et {
		case domain.CancelProductOrderStateChangeEvent, domain.ChargeStateChangeEvent, domain.ChargeTimeoutEvent:
			assert.False(t, ok, et)
		default:
			assert.True(t, ok, et)
		}
	}
}
