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

const aggregateCancel = "cancelProductOrder"

// CreateCancel asks the Seller to cancel an order and records the request.
// The order moves to assessingCancellation.
func (l *Lifecycle) CreateCancel(ctx context.Context, c *domain.CancelProductOrder, p Party, token string) (*domain.CancelProductOrder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := required(l.templates.RequireCancel()); err != nil {
		return nil, err
	}
	if p.SellerID == sellerCyxtera {
		return nil, apierror.Invalid("Cyxtera doesn't support cancel transaction.", "sellerId")
	}
	if err := domain.Validate(c); err != nil {
		return nil, invalidRequest(err)
	}

	orderID := c.ProductOrder.ProductOrderID
	if orderID == "" {
		return nil, apierror.Invalid("Product Order ID is None or an empty string. Please provide a valid ID.", "productOrder.productOrderId")
	}
	if _, err := l.repos.Orders.Get(ctx, orderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.Invalid(fmt.Sprintf("Invalid 'productOrderId', %s not found", orderID), "productOrder.productOrderId")
		}
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	for _, ct := range c.RelatedContactInformation {
		if ct.Name == "" || ct.Number == "" || ct.Role == "" {
			return nil, apierror.Invalid(
				"Invalid 'relatedContactInformation' in request body. All fields (name, number, role) must have non-empty values.",
				"relatedContactInformation")
		}
	}

	payload, merr := l.mapper.MapCancel(c, p.BuyerID, p.SellerID)
	if merr != nil {
		return nil, merr.APIError()
	}
	res, err := l.seller.CancelOrder(ctx, payload, token)
	if err := callSeller(l.logger, "cancel order", res, err); err != nil {
		return nil, err
	}
	id, err := l.transactionID(res)
	if err != nil {
		return nil, err
	}

	tmpl := l.templates.CancelOrder
	created, err := deepCopy(c)
	if err != nil {
		return nil, err
	}
	created.ID = id
	created.Href = tmpl.Href + "/" + id
	created.State = domain.CancelState(tmpl.State)
	created.CancellationDeniedReason = tmpl.CancellationDeniedReason
	created.Charge = tmpl.Charges()
	created.RelatedContactInformation = append(created.RelatedContactInformation, tmpl.SellerContacts()...)
	if !reconcile.CancelOrder(c, created) {
		return nil, mismatch(l.logger, aggregateCancel, id)
	}

	created.BuyerID, created.SellerID = p.BuyerID, p.SellerID
	if err := l.repos.Cancels.Put(ctx, id, created); err != nil {
		return nil, fmt.Errorf("storing cancellation %s: %w", id, err)
	}

	now := l.now()
	reason := c.CancellationReason
	if reason == "" {
		reason = l.templates.ProductOrder.CancellationReason
	}
	err = l.repos.Orders.Update(ctx, orderID, func(o *domain.ProductOrder) error {
		o.CancellationReason = reason
		o.CancellationDate = &now
		o.State = domain.OrderAssessingCancellation
		return nil
	})
	if err != nil {
		return nil, l.orderWriteError(orderID, err)
	}

	l.logger.Infow("cancellation requested", "cancel_id", id, "order_id", orderID, "buyer_id", p.BuyerID)
	return created.Public(), nil
}

// GetCancel returns a stored cancellation owned by the party.
func (l *Lifecycle) GetCancel(ctx context.Context, id string, p Party) (*domain.CancelProductOrder, error) {
	c, err := l.repos.Cancels.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("Cancelled product order with id: %s not found", id)).WithPath("id")
		}
		return nil, fmt.Errorf("loading cancellation %s: %w", id, err)
	}
	if p.ownerMismatch(c.BuyerID, c.SellerID) != "" {
		return nil, apierror.NotFound("Invalid buyerId or sellerId")
	}
	return c.Public(), nil
}

// CancelFilter narrows a cancellation listing.
type CancelFilter struct {
	Party
	ProductOrderID         string
	State                  string
	CancellationReasonType string
	Page                   Page
}

func (f CancelFilter) match(c *domain.CancelProductOrder) bool {
	return f.ownerMismatch(c.BuyerID, c.SellerID) == "" &&
		matches(f.ProductOrderID, c.ProductOrder.ProductOrderID) &&
		matches(f.State, string(c.State)) &&
		matches(f.CancellationReasonType, c.CancellationReasonType)
}

func (l *Lifecycle) ListCancels(ctx context.Context, f CancelFilter) ([]domain.CancelSummary, error) {
	cancels, err := l.repos.Cancels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing cancellations: %w", err)
	}
	rows := make([]domain.CancelSummary, 0, len(cancels))
	for _, c := range cancels {
		if f.match(c) {
			rows = append(rows, c.Summary())
		}
	}
	return paginate(rows, f.Page)
}
