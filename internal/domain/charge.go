package domain

import "time"

// ChargeState is the state of a Seller charge.
type ChargeState string

const (
	ChargeAwaitingResponse  ChargeState = "awaitingResponse"
	ChargeCompleted         ChargeState = "completed"
	ChargeTimeout           ChargeState = "timeout"
	ChargeWithdrawnBySeller ChargeState = "withdrawnBySeller"
)

// Money is an amount in a currency.
type Money struct {
	Unit  string   `json:"unit,omitempty"`
	Value *float64 `json:"value,omitempty"`
}

// Price holds the amounts of a charge item.
type Price struct {
	DutyFreeAmount    Money    `json:"dutyFreeAmount"`
	TaxIncludedAmount *Money   `json:"taxIncludedAmount,omitempty"`
	TaxRate           *float64 `json:"taxRate,omitempty"`
}

// ChargeItem is one component of a charge.
type ChargeItem struct {
	AcceptanceIndicator   string `json:"acceptanceIndicator,omitempty"`
	ActivityType          string `json:"activityType"`
	Blocking              bool   `json:"blocking"`
	ID                    string `json:"id"`
	Note                  []Note `json:"note,omitempty"`
	Price                 Price  `json:"price"`
	PriceCategory         string `json:"priceCategory"`
	PriceType             string `json:"priceType"`
	RecurringChargePeriod string `json:"recurringChargePeriod,omitempty"`
	State                 string `json:"state"`
	UnitOfMeasure         string `json:"unitOfMeasure,omitempty"`
}

// CancelProductOrderRef points at a cancellation.
type CancelProductOrderRef struct {
	Href string `json:"href,omitempty"`
	ID   string `json:"id"`
}

// ModifyDeliveryDateRef points at a delivery date modification.
type ModifyDeliveryDateRef struct {
	Href string `json:"href,omitempty"`
	ID   string `json:"id"`
}

// Charge is a billing impact the Seller raises against an order or item.
type Charge struct {
	CancelProductOrder                          *CancelProductOrderRef `json:"cancelProductOrder,omitempty"`
	ChargeItem                                  []ChargeItem           `json:"chargeItem,omitempty"`
	CreationDate                                *time.Time             `json:"creationDate,omitempty"`
	Href                                        string                 `json:"href,omitempty"`
	ID                                          string                 `json:"id"`
	ModifyProductOrderItemRequestedDeliveryDate *ModifyDeliveryDateRef `json:"modifyProductOrderItemRequestedDeliveryDate,omitempty"`
	ProductOrder                                *ProductOrderRef       `json:"productOrder,omitempty"`
	ProductOrderItem                            *ProductOrderItemRef   `json:"productOrderItem,omitempty"`
	ResponseDueDate                             *time.Time             `json:"responseDueDate,omitempty"`
	State                                       ChargeState            `json:"state"`

	BuyerID       string      `json:"buyerId,omitempty"`
	SellerID      string      `json:"sellerId,omitempty"`
	PreviousState ChargeState `json:"previousState,omitempty"`
}

// Public strips the gateway bookkeeping.
func (c *Charge) Public() *Charge {
	cp := *c
	cp.BuyerID, cp.SellerID, cp.PreviousState = "", "", ""
	return &cp
}

// ChargeSummary is the list projection of a charge.
type ChargeSummary struct {
	CreationDate     *time.Time           `json:"creationDate,omitempty"`
	ID               string               `json:"id"`
	ProductOrder     *ProductOrderRef     `json:"productOrder,omitempty"`
	ProductOrderItem *ProductOrderItemRef `json:"productOrderItem,omitempty"`
	ResponseDueDate  *time.Time           `json:"responseDueDate,omitempty"`
	State            ChargeState          `json:"state"`
}

// Summary projects the charge onto its list row.
func (c *Charge) Summary() ChargeSummary {
	return ChargeSummary{
		CreationDate:     c.CreationDate,
		ID:               c.ID,
		ProductOrder:     c.ProductOrder,
		ProductOrderItem: c.ProductOrderItem,
		ResponseDueDate:  c.ResponseDueDate,
		State:            c.State,
	}
}
