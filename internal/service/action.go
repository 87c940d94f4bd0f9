package service

import (
	"context"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
)

// OrderAction is what a product order POST asks for. The concrete types
// are the only implementations.
type OrderAction interface {
	orderAction()
}

// AddAction places a new order. LoaAttachmentID is the letter of
// authorisation attached beforehand, if any.
type AddAction struct {
	Order           *domain.ProductOrder
	LoaAttachmentID string
}

// ModifyAction changes the mutable attributes of an existing order.
type ModifyAction struct {
	Order *domain.ProductOrder
}

// DeleteAction disconnects the cross connects of an existing order.
type DeleteAction struct {
	Order *domain.ProductOrder
}

func (AddAction) orderAction()    {}
func (ModifyAction) orderAction() {}
func (DeleteAction) orderAction() {}

// ParseAction turns the action query value into an OrderAction.
func ParseAction(action string, o *domain.ProductOrder, loaAttachmentID string) (OrderAction, error) {
	switch action {
	case domain.ActionAdd:
		return AddAction{Order: o, LoaAttachmentID: loaAttachmentID}, nil
	case domain.ActionModify:
		return ModifyAction{Order: o}, nil
	case domain.ActionDelete:
		return DeleteAction{Order: o}, nil
	default:
		return nil, apierror.Invalid("action should be 'add','modify' or 'delete'", "action")
	}
}

// Submit runs the operation the action stands for and returns the public
// view of the resulting order.
func (l *Lifecycle) Submit(ctx context.Context, a OrderAction, p Party, token string) (*domain.ProductOrder, error) {
	switch a := a.(type) {
	case AddAction:
		return l.CreateOrder(ctx, a.Order, p, a.LoaAttachmentID, token)
	case ModifyAction:
		return l.ModifyOrder(ctx, a.Order, p)
	case DeleteAction:
		return l.DisconnectOrder(ctx, a.Order, p, token)
	default:
		return nil, apierror.Internal("unknown order action")
	}
}
