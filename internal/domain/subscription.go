package domain

// EventSubscriptionInput registers a buyer callback.
type EventSubscriptionInput struct {
	Callback string `json:"callback" validate:"required,url"`
	Query    string `json:"query,omitempty"`
}

// EventSubscription is the stored registration. EventTypes is the parsed
// form of Query and is what notifications are matched against.
type EventSubscription struct {
	Callback     string      `json:"callback"`
	ID           string      `json:"id"`
	Query        string      `json:"query,omitempty"`
	Subscription bool        `json:"subscription"`
	EventTypes   []EventType `json:"eventTypes,omitempty"`

	BuyerID  string `json:"buyerId,omitempty"`
	SellerID string `json:"sellerId,omitempty"`
}

// Accepts reports whether the subscription is active and asked for t.
func (s *EventSubscription) Accepts(t EventType) bool {
	if !s.Subscription {
		return false
	}
	for _, et := range s.EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// Public returns the MEF view of the registration.
func (s *EventSubscription) Public() *EventSubscription {
	return &EventSubscription{Callback: s.Callback, ID: s.ID, Query: s.Query}
}
