package domain

import "time"

// EventType names a notification the gateway understands.
type EventType string

const (
	ProductOrderStateChangeEvent              EventType = "productOrderStateChangeEvent"
	ProductOrderItemStateChangeEvent          EventType = "productOrderItemStateChangeEvent"
	ProductOrderItemExpectedCompletionDateSet EventType = "productOrderItemExpectedCompletionDateSet"
	ProductSpecificProductOrderItemMilestone  EventType = "productSpecificProductOrderItemMilestoneEvent"
	CancelProductOrderStateChangeEvent        EventType = "cancelProductOrderStateChangeEvent"
	ChargeCreateEvent                         EventType = "chargeCreateEvent"
	ChargeStateChangeEvent                    EventType = "chargeStateChangeEvent"
	ChargeTimeoutEvent                        EventType = "chargeTimeoutEvent"
	ModifyDeliveryDateStateChangeEvent        EventType = "modifyProductOrderItemRequestedDeliveryDateStateChangeEvent"
)

// SubscribableEvents is every event type a hub query may name.
var SubscribableEvents = map[EventType]struct{}{
	ProductOrderStateChangeEvent:              {},
	ProductOrderItemStateChangeEvent:          {},
	ProductSpecificProductOrderItemMilestone:  {},
	ProductOrderItemExpectedCompletionDateSet: {},
	CancelProductOrderStateChangeEvent:        {},
	ChargeCreateEvent:                         {},
	ChargeStateChangeEvent:                    {},
	ChargeTimeoutEvent:                        {},
	ModifyDeliveryDateStateChangeEvent:        {},
}

// EventPayload identifies the entity an event is about. Everything except
// ID is an optional filter checked against the stored entity.
type EventPayload struct {
	ID            string `json:"id" validate:"required"`
	Href          string `json:"href,omitempty"`
	BuyerID       string `json:"buyerId,omitempty"`
	SellerID      string `json:"sellerId,omitempty"`
	MilestoneName string `json:"milestoneName,omitempty"`
	OrderItemID   string `json:"orderItemId,omitempty"`
}

// Event is the notification envelope.
type Event struct {
	EventID   string       `json:"eventId" validate:"required"`
	EventTime time.Time    `json:"eventTime"`
	EventType EventType    `json:"eventType" validate:"required"`
	Event     EventPayload `json:"event"`
}
