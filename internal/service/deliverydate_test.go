package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliveryDateRequest(orderID, itemID string, due time.Time) *domain.ModifyDeliveryDate {
	return &domain.ModifyDeliveryDate{
		ExpediteIndicator:       true,
		ProductOrderItem:        domain.ProductOrderItemRef{ProductOrderID: orderID, ProductOrderItemID: itemID},
		RequestedCompletionDate: &due,
	}
}

func TestCreateModifyDeliveryDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedOrder(t, f, "T1")
	due := fixedNow.Add(24 * time.Hour)

	got, err := f.lc.CreateModifyDeliveryDate(ctx, deliveryDateRequest("T1", "1", due), onsEqx)
	require.NoError(t, err)

	assert.Equal(t, "MD-1", got.ID)
	assert.Equal(t, "/v1/MEF/lsoSonata/modifyProductOrderItemRequestedDeliveryDate/MD-1", got.Href)
	assert.Equal(t, domain.TaskAcknowledged, got.State)
	assert.Equal(t, fixedNow, *got.CreationDate)

	order, err := f.repos.Orders.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPendingAssessingModification, order.State)
	item := order.ProductOrderItem[0]
	assert.Equal(t, domain.ItemPendingAssessingModification, item.State)
	require.NotNil(t, item.ExpediteIndicator)
	assert.True(t, *item.ExpediteIndicator)
	assert.Equal(t, due, *item.RequestedCompletionDate)

	stored, err := f.lc.GetModifyDeliveryDate(ctx, "MD-1", onsEqx)
	require.NoError(t, err)
	assert.Empty(t, stored.BuyerID)

	_, err = f.lc.CreateModifyDeliveryDate(ctx, deliveryDateRequest("T1", "1", due), onsEqx)
	apiErr := requireAPIError(t, err, http.StatusUnprocessableEntity)
	assert.Contains(t, apiErr.Message, "pending.assessingModification")
}

func TestCreateModifyDeliveryDate_Rejected(t *testing.T) {
	due := fixedNow.Add(24 * time.Hour)
	tests := []struct {
		name   string
		party  Party
		req    *domain.ModifyDeliveryDate
		seed   func(*domain.ProductOrder)
		status int
		code   apierror.Code
		msg    string
	}{
		{
			name: "unknown order", party: onsEqx, req: deliveryDateRequest("T9", "1", due),
			status: http.StatusUnprocessableEntity, code: apierror.InvalidValue, msg: "Invalid 'productOrderId', T9 not found",
		},
		{
			name: "other buyer", party: Party{BuyerID: "ZOH", SellerID: "EQX"}, req: deliveryDateRequest("T1", "1", due),
			status: http.StatusNotFound, code: apierror.NotFoundCode, msg: "Invalid buyerId",
		},
		{
			name: "other seller", party: Party{BuyerID: "ONS", SellerID: "CYX"}, req: deliveryDateRequest("T1", "1", due),
			status: http.StatusNotFound, code: apierror.NotFoundCode, msg: "Invalid sellerId",
		},
		{
			name: "unknown item", party: onsEqx, req: deliveryDateRequest("T1", "7", due),
			status: http.StatusUnprocessableEntity, code: apierror.InvalidValue, msg: "Invalid 'productOrderItemId', 7 not found",
		},
		{
			name: "completed order", party: onsEqx, req: deliveryDateRequest("T1", "1", due),
			seed:   func(o *domain.ProductOrder) { o.State = domain.OrderCompleted },
			status: http.StatusUnprocessableEntity, code: apierror.InvalidValue,
			msg: "The productOrder state is currently 'completed', and it cannot be modified in this state",
		},
		{
			name: "failed item", party: onsEqx, req: deliveryDateRequest("T1", "1", due),
			seed:   func(o *domain.ProductOrder) { o.ProductOrderItem[0].State = domain.ItemFailed },
			status: http.StatusUnprocessableEntity, code: apierror.InvalidValue,
			msg: "The productOrderItem state is currently 'failed', and it cannot be modified in this state",
		},
		{
			name: "before order date", party: onsEqx, req: deliveryDateRequest("T1", "1", fixedNow.Add(-48*time.Hour)),
			status: http.StatusUnprocessableEntity, code: apierror.InvalidFormat,
			msg: "The 'requestedCompletionDate' must be greater than 'orderDate' and must be in date-time format.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var seeds []func(*domain.ProductOrder)
			if tt.seed != nil {
				seeds = append(seeds, tt.seed)
			}
			seedOrder(t, f, "T1", seeds...)

			_, err := f.lc.CreateModifyDeliveryDate(context.Background(), tt.req, tt.party)

			apiErr := requireAPIError(t, err, tt.status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.msg, apiErr.Message)
			_, err = f.repos.DeliveryDates.Get(context.Background(), "MD-1")
			assert.Error(t, err, "nothing is recorded for a rejected request")
		})
	}
}

func TestListModifyDeliveryDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yes, no := true, false
	for _, m := range []*domain.ModifyDeliveryDate{
		{ID: "M1", ExpediteIndicator: true, State: domain.TaskAcknowledged, CreationDate: timePtr(fixedNow),
			ProductOrderItem: domain.ProductOrderItemRef{ProductOrderID: "T1", ProductOrderItemID: "1"}, BuyerID: "ONS", SellerID: "EQX"},
		{ID: "M2", State: domain.TaskDone, CreationDate: timePtr(fixedNow.Add(-72 * time.Hour)),
			ProductOrderItem: domain.ProductOrderItemRef{ProductOrderID: "T2", ProductOrderItemID: "1"}, BuyerID: "ONS", SellerID: "EQX"},
	} {
		require.NoError(t, f.repos.DeliveryDates.Put(ctx, m.ID, m))
	}

	tests := []struct {
		name   string
		filter DeliveryDateFilter
		want   []string
	}{
		{"all", DeliveryDateFilter{Party: onsEqx}, []string{"M1", "M2"}},
		{"expedited", DeliveryDateFilter{Party: onsEqx, ExpediteIndicator: &yes}, []string{"M1"}},
		{"not expedited", DeliveryDateFilter{Party: onsEqx, ExpediteIndicator: &no}, []string{"M2"}},
		{"state", DeliveryDateFilter{Party: onsEqx, State: "done"}, []string{"M2"}},
		{"order", DeliveryDateFilter{Party: onsEqx, ProductOrderID: "T1"}, []string{"M1"}},
		{"recent", DeliveryDateFilter{Party: onsEqx, CreationDate: TimeRange{Gt: timePtr(fixedNow.Add(-time.Hour))}}, []string{"M1"}},
		{"second page", DeliveryDateFilter{Party: onsEqx, Page: Page{Offset: 1, Limit: 1}}, []string{"M2"}},
		{"requested date unset", DeliveryDateFilter{Party: onsEqx, RequestedCompletionDate: TimeRange{Lt: timePtr(fixedNow)}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := f.lc.ListModifyDeliveryDates(ctx, tt.filter)
			if tt.want == nil {
				requireAPIError(t, err, http.StatusNotFound)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(rows))
			for _, r := range rows {
				ids = append(ids, r.ID)
				assert.Empty(t, r.BuyerID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := f.lc.GetModifyDeliveryDate(ctx, "M1", Party{BuyerID: "ZOH", SellerID: "EQX"})
	apiErr := requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "Invalid Id: M1 not found.", apiErr.Message)
}
