package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/reconcile"
	"github.com/goinginblind/lso-gateway/internal/store"
)

const aggregateDeliveryDate = "modifyProductOrderItemRequestedDeliveryDate"

// CreateModifyDeliveryDate records a request to move or expedite the
// completion date of one order item and puts the item on hold while the
// Seller assesses it.
func (l *Lifecycle) CreateModifyDeliveryDate(ctx context.Context, m *domain.ModifyDeliveryDate, p Party) (*domain.ModifyDeliveryDate, error) {
	if err := required(l.templates.RequireModifyDeliveryDate()); err != nil {
		return nil, err
	}
	if err := domain.Validate(m); err != nil {
		return nil, invalidRequest(err)
	}

	tmpl := l.templates.ModifyDeliveryDate
	now := l.now()
	created, err := deepCopy(m)
	if err != nil {
		return nil, err
	}
	created.ID = l.opts.newID()
	created.Href = tmpl.Href + "/" + created.ID
	created.State = domain.ChargeableTaskState(tmpl.State)
	created.CreationDate = &now
	if !reconcile.ModifyDeliveryDate(m, created) {
		return nil, mismatch(l.logger, aggregateDeliveryDate, created.ID)
	}

	ref := m.ProductOrderItem
	err = l.repos.Orders.Update(ctx, ref.ProductOrderID, func(o *domain.ProductOrder) error {
		switch p.ownerMismatch(o.BuyerID, o.SellerID) {
		case "buyerId":
			return apierror.NotFound("Invalid buyerId").WithPath("buyerId")
		case "sellerId":
			return apierror.NotFound("Invalid sellerId").WithPath("sellerId")
		}
		if ref.ProductOrderHref != "" && ref.ProductOrderHref != o.Href {
			return apierror.Invalid("Invalid 'productOrderHref'", "productOrderItem.productOrderHref")
		}
		if o.State != domain.OrderAcknowledged && o.State != domain.OrderInProgress {
			return apierror.Invalid(
				fmt.Sprintf("The productOrder state is currently '%s', and it cannot be modified in this state", o.State),
				"productOrderItem.productOrderId")
		}
		item, _ := o.FindItem(ref.ProductOrderItemID)
		if item == nil {
			return apierror.Invalid(fmt.Sprintf("Invalid 'productOrderItemId', %s not found", ref.ProductOrderItemID),
				"productOrderItem.productOrderItemId")
		}
		if item.State != domain.ItemAcknowledged && item.State != domain.ItemInProgress {
			return apierror.Invalid(
				fmt.Sprintf("The productOrderItem state is currently '%s', and it cannot be modified in this state", item.State),
				"productOrderItem.productOrderItemId")
		}
		if m.RequestedCompletionDate != nil && o.OrderDate != nil && m.RequestedCompletionDate.Before(*o.OrderDate) {
			return apierror.Unprocessable(apierror.InvalidFormat,
				"The 'requestedCompletionDate' must be greater than 'orderDate' and must be in date-time format.",
				"requestedCompletionDate")
		}

		expedite := m.ExpediteIndicator
		item.ExpediteIndicator = &expedite
		if m.RequestedCompletionDate != nil {
			item.RequestedCompletionDate = m.RequestedCompletionDate
		}
		item.State = domain.ItemState(tmpl.OrderItemState)
		o.State = domain.OrderState(tmpl.OrderState)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.Invalid(fmt.Sprintf("Invalid 'productOrderId', %s not found", ref.ProductOrderID),
				"productOrderItem.productOrderId")
		}
		return nil, l.orderWriteError(ref.ProductOrderID, err)
	}

	created.BuyerID, created.SellerID = p.BuyerID, p.SellerID
	if err := l.repos.DeliveryDates.Put(ctx, created.ID, created); err != nil {
		return nil, fmt.Errorf("storing delivery date change %s: %w", created.ID, err)
	}

	l.logger.Infow("delivery date change requested", "id", created.ID, "order_id", ref.ProductOrderID,
		"item_id", ref.ProductOrderItemID, "expedite", m.ExpediteIndicator)
	return created.Public(), nil
}

func (l *Lifecycle) GetModifyDeliveryDate(ctx context.Context, id string, p Party) (*domain.ModifyDeliveryDate, error) {
	m, err := l.repos.DeliveryDates.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("Invalid Id: %s not found.", id)).WithPath("id")
		}
		return nil, fmt.Errorf("loading delivery date change %s: %w", id, err)
	}
	if p.ownerMismatch(m.BuyerID, m.SellerID) != "" {
		return nil, apierror.NotFound(fmt.Sprintf("Invalid Id: %s not found.", id)).WithPath("id")
	}
	return m.Public(), nil
}

// DeliveryDateFilter narrows a delivery date change listing. A nil
// ExpediteIndicator matches both values.
type DeliveryDateFilter struct {
	Party
	State                   string
	ExpediteIndicator       *bool
	RequestedCompletionDate TimeRange
	CreationDate            TimeRange
	ProductOrderID          string
	Page                    Page
}

func (f DeliveryDateFilter) match(m *domain.ModifyDeliveryDate) bool {
	return f.ownerMismatch(m.BuyerID, m.SellerID) == "" &&
		matches(f.State, string(m.State)) &&
		(f.ExpediteIndicator == nil || *f.ExpediteIndicator == m.ExpediteIndicator) &&
		f.RequestedCompletionDate.Contains(m.RequestedCompletionDate) &&
		f.CreationDate.Contains(m.CreationDate) &&
		matches(f.ProductOrderID, m.ProductOrderItem.ProductOrderID)
}

func (l *Lifecycle) ListModifyDeliveryDates(ctx context.Context, f DeliveryDateFilter) ([]*domain.ModifyDeliveryDate, error) {
	all, err := l.repos.DeliveryDates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing delivery date changes: %w", err)
	}
	rows := make([]*domain.ModifyDeliveryDate, 0, len(all))
	for _, m := range all {
		if f.match(m) {
			rows = append(rows, m.Public())
		}
	}
	return paginate(rows, f.Page)
}
