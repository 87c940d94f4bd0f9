package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []domain.EventType
		code  apierror.Code
	}{
		{
			name:  "comma separated",
			query: "eventType=productOrderStateChangeEvent,chargeCreateEvent",
			want:  []domain.EventType{domain.ProductOrderStateChangeEvent, domain.ChargeCreateEvent},
		},
		{
			name:  "repeated key",
			query: "eventType=productOrderStateChangeEvent&eventType=chargeCreateEvent",
			want:  []domain.EventType{domain.ProductOrderStateChangeEvent, domain.ChargeCreateEvent},
		},
		{
			name:  "duplicates dropped",
			query: "eventType=chargeCreateEvent, chargeCreateEvent",
			want:  []domain.EventType{domain.ChargeCreateEvent},
		},
		{name: "no event type", query: "type=chargeCreateEvent", code: apierror.MissingQueryParameter},
		{name: "unknown event", query: "eventType=orderShipped", code: apierror.InvalidBody},
		{name: "not a word", query: "eventType=charge-1", code: apierror.InvalidBody},
		{name: "dangling part", query: "eventType=chargeCreateEvent&junk", code: apierror.InvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuery(tt.query)
			if tt.code != "" {
				apiErr := requireAPIError(t, err, http.StatusBadRequest)
				assert.Equal(t, tt.code, apiErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newHub(repos *Repositories) *Hub {
	return NewHub(repos, logger.NewMockLogger(), WithIDGenerator(sequence("SUB")))
}

func TestHub_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(store.NewMemoryStore())
	hub := newHub(repos)

	sub, err := hub.Subscribe(ctx, &domain.EventSubscriptionInput{
		Callback: "https://buyer.example/listener",
		Query:    "eventType=productOrderStateChangeEvent",
	}, onsEqx)
	require.NoError(t, err)
	assert.Equal(t, "SUB-1", sub.ID)
	assert.Empty(t, sub.EventTypes, "parsed types stay internal")

	stored, err := repos.Subscriptions.Get(ctx, "SUB-1")
	require.NoError(t, err)
	assert.True(t, stored.Accepts(domain.ProductOrderStateChangeEvent))
	assert.False(t, stored.Accepts(domain.ChargeCreateEvent))

	got, err := hub.GetSubscription(ctx, "SUB-1", onsEqx)
	require.NoError(t, err)
	assert.Equal(t, "https://buyer.example/listener", got.Callback)

	_, err = hub.GetSubscription(ctx, "SUB-1", Party{BuyerID: "ZOH"})
	apiErr := requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "buyerId not found", apiErr.Message)

	err = hub.Unsubscribe(ctx, "SUB-1", Party{BuyerID: "ONS", SellerID: "CYX"})
	apiErr = requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "sellerId not Found", apiErr.Message)

	require.NoError(t, hub.Unsubscribe(ctx, "SUB-1", onsEqx))

	stored, err = repos.Subscriptions.Get(ctx, "SUB-1")
	require.NoError(t, err)
	assert.False(t, stored.Subscription, "the record is kept but inactive")

	_, err = hub.GetSubscription(ctx, "SUB-1", onsEqx)
	apiErr = requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "'Id' not found", apiErr.Message)

	err = hub.Unsubscribe(ctx, "SUB-1", onsEqx)
	apiErr = requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "SUB-1 already unregistered", apiErr.Message)

	err = hub.Unsubscribe(ctx, "SUB-9", onsEqx)
	apiErr = requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "'Id':SUB-9 not found", apiErr.Message)
}

func TestHub_Subscribe(t *testing.T) {
	tests := []struct {
		name   string
		in     *domain.EventSubscriptionInput
		status int
		types  []domain.EventType
	}{
		{
			name:   "no query accepts nothing",
			in:     &domain.EventSubscriptionInput{Callback: "https://buyer.example/cb"},
			status: http.StatusCreated,
		},
		{
			name:   "callback not a url",
			in:     &domain.EventSubscriptionInput{Callback: "buyer listener"},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad query",
			in:     &domain.EventSubscriptionInput{Callback: "https://buyer.example/cb", Query: "eventType=nope"},
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := NewRepositories(store.NewMemoryStore())
			sub, err := newHub(repos).Subscribe(context.Background(), tt.in, onsEqx)
			if tt.status != http.StatusCreated {
				requireAPIError(t, err, tt.status)
				return
			}
			require.NoError(t, err)
			stored, err := repos.Subscriptions.Get(context.Background(), sub.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.types, stored.EventTypes)
			assert.False(t, stored.Accepts(domain.ProductOrderStateChangeEvent))
		})
	}
}
