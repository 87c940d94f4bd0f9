package domain

import "time"

// CancelState is the state of a cancellation request.
type CancelState string

const (
	CancelAcknowledged              CancelState = "acknowledged"
	CancelDone                      CancelState = "done"
	CancelCancelled                 CancelState = "cancelled"
	CancelDeclined                  CancelState = "done.declined"
	CancelInProgressAssessingCharge CancelState = "inProgress.assessingCharge"
	CancelRejected                  CancelState = "rejected"
)

// ProductOrderRef points at a stored product order.
type ProductOrderRef struct {
	ProductOrderHref string `json:"productOrderHref,omitempty"`
	ProductOrderID   string `json:"productOrderId"`
}

// ProductOrderItemRef points at one item of a stored product order.
type ProductOrderItemRef struct {
	ProductOrderHref   string `json:"productOrderHref,omitempty"`
	ProductOrderID     string `json:"productOrderId" validate:"required"`
	ProductOrderItemID string `json:"productOrderItemId" validate:"required"`
}

// CancelProductOrder is a buyer request to cancel an in-flight order.
type CancelProductOrder struct {
	CancellationReason        string                      `json:"cancellationReason,omitempty"`
	CancellationReasonType    string                      `json:"cancellationReasonType,omitempty" validate:"omitempty,oneof=technical commercial"`
	ProductOrder              ProductOrderRef             `json:"productOrder"`
	RelatedContactInformation []RelatedContactInformation `json:"relatedContactInformation,omitempty"`
	TransactionData           *TransactionData            `json:"transactionData,omitempty"`

	CancellationDeniedReason string      `json:"cancellationDeniedReason,omitempty"`
	Charge                   []ChargeRef `json:"charge,omitempty"`
	Href                     string      `json:"href,omitempty"`
	ID                       string      `json:"id,omitempty"`
	State                    CancelState `json:"state,omitempty"`

	BuyerID  string `json:"buyerId,omitempty"`
	SellerID string `json:"sellerId,omitempty"`
}

// Public strips the gateway bookkeeping.
func (c *CancelProductOrder) Public() *CancelProductOrder {
	cp := *c
	cp.BuyerID, cp.SellerID = "", ""
	cp.TransactionData = nil
	return &cp
}

// CancelSummary is the list projection of a cancellation.
type CancelSummary struct {
	CancellationReasonType string          `json:"cancellationReasonType,omitempty"`
	ID                     string          `json:"id"`
	ProductOrder           ProductOrderRef `json:"productOrder"`
	State                  CancelState     `json:"state,omitempty"`
}

// Summary projects the cancellation onto its list row.
func (c *CancelProductOrder) Summary() CancelSummary {
	return CancelSummary{
		CancellationReasonType: c.CancellationReasonType,
		ID:                     c.ID,
		ProductOrder:           c.ProductOrder,
		State:                  c.State,
	}
}

// ChargeableTaskState is shared by the modify delivery date aggregate.
type ChargeableTaskState string

const (
	TaskAssessingCharge ChargeableTaskState = "inProgress.assessingCharge"
	TaskAcknowledged    ChargeableTaskState = "acknowledged"
	TaskDone            ChargeableTaskState = "done"
	TaskDeclined        ChargeableTaskState = "done.declined"
	TaskRejected        ChargeableTaskState = "rejected"
)

// ModifyDeliveryDate asks the Seller to move the requested completion date
// of a single order item or to expedite it.
type ModifyDeliveryDate struct {
	CreationDate            *time.Time          `json:"creationDate,omitempty"`
	ExpediteIndicator       bool                `json:"expediteIndicator"`
	Href                    string              `json:"href,omitempty"`
	ID                      string              `json:"id,omitempty"`
	ProductOrderItem        ProductOrderItemRef `json:"productOrderItem" validate:"required"`
	RequestedCompletionDate *time.Time          `json:"requestedCompletionDate,omitempty"`
	State                   ChargeableTaskState `json:"state,omitempty"`

	BuyerID       string              `json:"buyerId,omitempty"`
	SellerID      string              `json:"sellerId,omitempty"`
	PreviousState ChargeableTaskState `json:"previousState,omitempty"`
}

// Public strips the gateway bookkeeping.
func (m *ModifyDeliveryDate) Public() *ModifyDeliveryDate {
	cp := *m
	cp.BuyerID, cp.SellerID, cp.PreviousState = "", "", ""
	return &cp
}
