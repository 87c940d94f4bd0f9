package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/fieldmap"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/seller"
	"github.com/goinginblind/lso-gateway/internal/store"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fixture struct {
	lc    *Lifecycle
	gw    *seller.MockGateway
	repos *Repositories
}

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := NewRepositories(store.NewMemoryStore())
	gw := new(seller.MockGateway)
	lc := NewLifecycle(repos, gw, fieldmap.NewMapper(fieldmap.DefaultDictionary()), config.DefaultTemplates(),
		logger.NewMockLogger(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequence("MD")),
	)
	t.Cleanup(func() { gw.AssertExpectations(t) })
	return &fixture{lc: lc, gw: gw, repos: repos}
}

func accepted(id string) *seller.Result {
	return &seller.Result{
		StatusCode: http.StatusCreated,
		Body:       []byte(`{"lattice_transaction_id":"` + id + `"}`),
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

var onsEqx = Party{BuyerID: "ONS", SellerID: "EQX"}

// newOrder is a create request that passes every business rule.
func newOrder(due time.Time) *domain.ProductOrder {
	return &domain.ProductOrder{
		ExternalID: "BUYER-1",
		Note:       []domain.Note{{Author: "ann", ID: "n1", Text: "rack 4"}},
		RelatedContactInformation: []domain.RelatedContactInformation{
			{Name: "Ann", Number: "+1-555-0101", Role: domain.ContactRoleOrder},
		},
		ProductOrderItem: []domain.ProductOrderItem{{
			Action:                  domain.ActionAdd,
			ID:                      "1",
			BillingAccount:          &domain.BillingAccountRef{ID: "BA-1"},
			RequestedCompletionDate: &due,
			RequestedItemTerm: &domain.ItemTerm{
				Name:            "12 months",
				Duration:        domain.Duration{Amount: 12, Units: "calendarMonths"},
				EndOfTermAction: domain.EndOfTermAutoDisconnect,
			},
			Product: &domain.Product{
				ProductConfiguration: map[string]any{"@type": "crossConnect"},
				ProductOffering:      &domain.ProductOfferingRef{ID: "CC"},
			},
		}},
		TransactionData: &domain.TransactionData{
			SourceFields: &domain.SourceFields{
				IAID: strPtr("IA-1"),
				ItemDetails: []domain.ItemDetails{{
					InventoryItemName: domain.CrossConnectItemName,
					CrossConnectDetails: &domain.CrossConnectDetails{
						CCASideDetails: domain.ASideDetails{CCAccountID: "ACC", CCPortID: "P1"},
						CCZSideDetails: domain.ZSideDetails{CCZSideProviderName: "Carrier"},
					},
					CCDeinstallDetails: &domain.DeinstallDetails{CCDeinstallID: "D1", CCRemovalDate: "2026-11-01"},
				}},
			},
		},
	}
}

// seedOrder stores an order the way CreateOrder leaves it.
func seedOrder(t *testing.T, f *fixture, id string, mutate ...func(*domain.ProductOrder)) *domain.ProductOrder {
	t.Helper()
	o := newOrder(fixedNow.Add(72 * time.Hour))
	o.ID = id
	o.Href = "/v1/MEF/lsoSonata/productOrder/" + id
	o.OrderDate = timePtr(fixedNow.Add(-time.Hour))
	o.State = domain.OrderAcknowledged
	o.BuyerID, o.SellerID = "ONS", "EQX"
	o.ProductOrderItem[0].State = domain.ItemAcknowledged
	o.ProductOrderItem[0].PreviousState = domain.ItemAcknowledged
	for _, m := range mutate {
		m(o)
	}
	require.NoError(t, f.repos.Orders.Put(context.Background(), id, o))
	return o
}

func requireAPIError(t *testing.T, err error, status int) *apierror.Error {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*apierror.Error)
	require.True(t, ok, "expected *apierror.Error, got %T: %v", err, err)
	require.Equal(t, status, apiErr.Status, apiErr.Error())
	return apiErr
}
