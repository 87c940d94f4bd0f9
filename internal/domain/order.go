package domain

import (
	"encoding/json"
	"time"
)

// OrderState is the MEF product order state.
type OrderState string

const (
	OrderAcknowledged                 OrderState = "acknowledged"
	OrderInProgress                   OrderState = "inProgress"
	OrderHeldAssessingCharge          OrderState = "held.assessingCharge"
	OrderPendingAssessingModification OrderState = "pending.assessingModification"
	OrderAssessingCancellation        OrderState = "assessingCancellation"
	OrderPendingCancellation          OrderState = "pendingCancellation"
	OrderCancelled                    OrderState = "cancelled"
	OrderCompleted                    OrderState = "completed"
	OrderPartial                      OrderState = "partial"
	OrderFailed                       OrderState = "failed"
	OrderRejected                     OrderState = "rejected"
)

// ItemState is the MEF product order item state.
type ItemState string

const (
	ItemAcknowledged                 ItemState = "acknowledged"
	ItemInProgress                   ItemState = "inProgress"
	ItemHeldAssessingCharge          ItemState = "held.assessingCharge"
	ItemPendingAssessingModification ItemState = "pending.assessingModification"
	ItemAssessingCancellation        ItemState = "assessingCancellation"
	ItemPendingCancellation          ItemState = "pendingCancellation"
	ItemCancelled                    ItemState = "cancelled"
	ItemCompleted                    ItemState = "completed"
	ItemFailed                       ItemState = "failed"
	ItemRejected                     ItemState = "rejected"
)

// Action values of a product order item.
const (
	ActionAdd    = "add"
	ActionModify = "modify"
	ActionDelete = "delete"
)

// ContactRoleOrder is the role every create request contact has to carry.
const ContactRoleOrder = "productOrderContact"

// ProductOrderItem is one line of an order. The fields below the blank
// line are Seller assigned; PreviousState is the notification shadow and
// never leaves the gateway.
type ProductOrderItem struct {
	Action                           string                               `json:"action" validate:"required,oneof=add modify delete"`
	AgreementName                    string                               `json:"agreementName,omitempty"`
	BillingAccount                   *BillingAccountRef                   `json:"billingAccount,omitempty"`
	CoordinatedAction                []CoordinatedAction                  `json:"coordinatedAction,omitempty"`
	EndCustomerName                  string                               `json:"endCustomerName,omitempty"`
	ExpediteIndicator                *bool                                `json:"expediteIndicator,omitempty"`
	ID                               string                               `json:"id" validate:"required"`
	Note                             []Note                               `json:"note,omitempty" validate:"dive"`
	Product                          *Product                             `json:"product,omitempty"`
	ProductOfferingQualificationItem *ProductOfferingQualificationItemRef `json:"productOfferingQualificationItem,omitempty"`
	ProductOrderItemRelationship     []OrderItemRelationship              `json:"productOrderItemRelationship,omitempty"`
	QuoteItem                        *QuoteItemRef                        `json:"quoteItem,omitempty"`
	RelatedBuyerPON                  string                               `json:"relatedBuyerPON,omitempty"`
	RelatedContactInformation        []RelatedContactInformation          `json:"relatedContactInformation,omitempty"`
	RequestedCompletionDate          *time.Time                           `json:"requestedCompletionDate,omitempty"`
	RequestedItemTerm                *ItemTerm                            `json:"requestedItemTerm,omitempty"`
	TspRestorationPriority           string                               `json:"tspRestorationPriority,omitempty"`

	Charge                    []ChargeRef        `json:"charge,omitempty"`
	CompletionDate            *time.Time         `json:"completionDate,omitempty"`
	ExpectedCompletionDate    *time.Time         `json:"expectedCompletionDate,omitempty"`
	ExpediteAcceptedIndicator *bool              `json:"expediteAcceptedIndicator,omitempty"`
	ItemTerm                  []ItemTerm         `json:"itemTerm,omitempty"`
	Milestone                 []Milestone        `json:"milestone,omitempty"`
	State                     ItemState          `json:"state,omitempty"`
	StateChange               []StateChange      `json:"stateChange,omitempty"`
	TerminationError          []TerminationError `json:"terminationError,omitempty"`
	PreviousState             ItemState          `json:"previousState,omitempty"`

	// ItemTermNull is set when the request carried "requestedItemTerm": null.
	ItemTermNull bool `json:"-"`
}

// UnmarshalJSON decodes the item and notes an explicit null item term,
// which a plain pointer cannot tell apart from an absent one.
func (i *ProductOrderItem) UnmarshalJSON(b []byte) error {
	type plain ProductOrderItem
	if err := json.Unmarshal(b, (*plain)(i)); err != nil {
		return err
	}
	var term struct {
		RequestedItemTerm json.RawMessage `json:"requestedItemTerm"`
	}
	if err := json.Unmarshal(b, &term); err != nil {
		return err
	}
	i.ItemTermNull = string(term.RequestedItemTerm) == "null"
	return nil
}

// ClearSellerFields drops everything the Seller or the gateway assigns, so
// a buyer request can only carry buyer owned attributes.
func (i *ProductOrderItem) ClearSellerFields() {
	i.Charge = nil
	i.CompletionDate = nil
	i.ExpectedCompletionDate = nil
	i.ExpediteAcceptedIndicator = nil
	i.ItemTerm = nil
	i.Milestone = nil
	i.State = ""
	i.StateChange = nil
	i.TerminationError = nil
	i.PreviousState = ""
}

// ProductOrder is the root aggregate. It is stored keyed by the Seller
// transaction id; BuyerID, SellerID and PreviousState are gateway
// bookkeeping and get stripped by Public.
type ProductOrder struct {
	ExternalID                string                      `json:"externalId,omitempty"`
	Note                      []Note                      `json:"note,omitempty" validate:"dive"`
	ProjectID                 string                      `json:"projectId,omitempty"`
	RelatedContactInformation []RelatedContactInformation `json:"relatedContactInformation,omitempty"`
	ProductOrderItem          []ProductOrderItem          `json:"productOrderItem" validate:"required,min=1,dive"`

	// Seller extension carried by create/delete requests only.
	TransactionData *TransactionData `json:"transactionData,omitempty"`

	CancellationCharge []ChargeRef   `json:"cancellationCharge,omitempty"`
	CancellationDate   *time.Time    `json:"cancellationDate,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CompletionDate     *time.Time    `json:"completionDate,omitempty"`
	Href               string        `json:"href,omitempty"`
	ID                 string        `json:"id,omitempty"`
	OrderDate          *time.Time    `json:"orderDate,omitempty"`
	State              OrderState    `json:"state,omitempty"`
	StateChange        []StateChange `json:"stateChange,omitempty"`

	BuyerID       string     `json:"buyerId,omitempty"`
	SellerID      string     `json:"sellerId,omitempty"`
	PreviousState OrderState `json:"previousState,omitempty"`
}

// ClearSellerFields resets the Seller assigned attributes and the gateway
// bookkeeping on the order and on every item.
func (o *ProductOrder) ClearSellerFields() {
	o.CancellationCharge = nil
	o.CancellationDate = nil
	o.CancellationReason = ""
	o.CompletionDate = nil
	o.Href = ""
	o.ID = ""
	o.OrderDate = nil
	o.State = ""
	o.StateChange = nil
	o.BuyerID, o.SellerID, o.PreviousState = "", "", ""
	for i := range o.ProductOrderItem {
		o.ProductOrderItem[i].ClearSellerFields()
	}
}

// FindItem returns the item with the given id and its index, or -1.
func (o *ProductOrder) FindItem(id string) (*ProductOrderItem, int) {
	for i := range o.ProductOrderItem {
		if o.ProductOrderItem[i].ID == id {
			return &o.ProductOrderItem[i], i
		}
	}
	return nil, -1
}

// HasMilestone reports whether any item carries a milestone with this name.
func (o *ProductOrder) HasMilestone(name string) bool {
	for _, item := range o.ProductOrderItem {
		for _, m := range item.Milestone {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

// Public returns a copy without the gateway bookkeeping fields.
func (o *ProductOrder) Public() *ProductOrder {
	cp := *o
	cp.BuyerID, cp.SellerID, cp.PreviousState = "", "", ""
	cp.TransactionData = nil
	cp.ProductOrderItem = make([]ProductOrderItem, len(o.ProductOrderItem))
	for i, item := range o.ProductOrderItem {
		item.PreviousState = ""
		cp.ProductOrderItem[i] = item
	}
	return &cp
}

// OrderSummary is a list row of the product order find operation.
type OrderSummary struct {
	CancellationDate *time.Time `json:"cancellationDate,omitempty"`
	CompletionDate   *time.Time `json:"completionDate,omitempty"`
	ExternalID       string     `json:"externalId,omitempty"`
	ID               string     `json:"id"`
	OrderDate        *time.Time `json:"orderDate,omitempty"`
	ProjectID        string     `json:"projectId,omitempty"`
	State            OrderState `json:"state"`
}

// Summary projects the order onto its list row.
func (o *ProductOrder) Summary() OrderSummary {
	return OrderSummary{
		CancellationDate: o.CancellationDate,
		CompletionDate:   o.CompletionDate,
		ExternalID:       o.ExternalID,
		ID:               o.ID,
		OrderDate:        o.OrderDate,
		ProjectID:        o.ProjectID,
		State:            o.State,
	}
}

// ProductOrderItemUpdate is the patchable subset of an item.
type ProductOrderItemUpdate struct {
	EndCustomerName           string                      `json:"endCustomerName,omitempty"`
	ID                        string                      `json:"id" validate:"required"`
	Note                      []Note                      `json:"note,omitempty" validate:"dive"`
	RelatedBuyerPON           string                      `json:"relatedBuyerPON,omitempty"`
	RelatedContactInformation []RelatedContactInformation `json:"relatedContactInformation,omitempty"`
}

// ProductOrderUpdate is the body of an in-flight PATCH.
type ProductOrderUpdate struct {
	ExternalID                string                      `json:"externalId,omitempty"`
	Note                      []Note                      `json:"note,omitempty" validate:"dive"`
	ProductOrderItem          []ProductOrderItemUpdate    `json:"productOrderItem,omitempty" validate:"dive"`
	ProjectID                 string                      `json:"projectId,omitempty"`
	RelatedContactInformation []RelatedContactInformation `json:"relatedContactInformation,omitempty"`
}

// Empty reports whether the buyer asked to change nothing at the order level.
func (u *ProductOrderUpdate) Empty() bool {
	return len(u.Note) == 0 && u.ProjectID == "" && len(u.RelatedContactInformation) == 0 && u.ExternalID == ""
}
