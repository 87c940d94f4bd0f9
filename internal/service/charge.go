package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/store"
)

func (l *Lifecycle) GetCharge(ctx context.Context, id string, p Party) (*domain.Charge, error) {
	c, err := l.repos.Charges.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("Charge with id: %s not found", id)).WithPath("id")
		}
		return nil, fmt.Errorf("loading charge %s: %w", id, err)
	}
	if p.ownerMismatch(c.BuyerID, c.SellerID) != "" {
		return nil, apierror.NotFound("Invalid buyerId or sellerId")
	}
	return c.Public(), nil
}

// ChargeFilter narrows a charge listing.
type ChargeFilter struct {
	Party
	ProductOrderID     string
	ProductOrderItemID string
	CreationDate       TimeRange
	ResponseDueDate    TimeRange
	Page               Page
}

func (f ChargeFilter) match(c *domain.Charge) bool {
	if f.ownerMismatch(c.BuyerID, c.SellerID) != "" {
		return false
	}
	if f.ProductOrderID != "" && orderOfCharge(c) != f.ProductOrderID {
		return false
	}
	if f.ProductOrderItemID != "" && (c.ProductOrderItem == nil || c.ProductOrderItem.ProductOrderItemID != f.ProductOrderItemID) {
		return false
	}
	return f.CreationDate.Contains(c.CreationDate) && f.ResponseDueDate.Contains(c.ResponseDueDate)
}

func orderOfCharge(c *domain.Charge) string {
	switch {
	case c.ProductOrder != nil:
		return c.ProductOrder.ProductOrderID
	case c.ProductOrderItem != nil:
		return c.ProductOrderItem.ProductOrderID
	}
	return ""
}

func (l *Lifecycle) ListCharges(ctx context.Context, f ChargeFilter) ([]domain.ChargeSummary, error) {
	charges, err := l.repos.Charges.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing charges: %w", err)
	}
	rows := make([]domain.ChargeSummary, 0, len(charges))
	for _, c := range charges {
		if f.match(c) {
			rows = append(rows, c.Summary())
		}
	}
	return paginate(rows, f.Page)
}
