// Package reconcile checks that a response the gateway is about to return
// still carries everything the buyer asked for. Every function is pure and
// answers with a bool; the caller turns false into a 422 invalidValue.
package reconcile

import (
	"reflect"

	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	noteOpts = cmp.Options{
		cmpopts.IgnoreFields(domain.Note{}, "Date", "Source"),
	}

	addressOpts = cmp.Options{
		cmpopts.IgnoreFields(domain.FieldedAddress{}, "SchemaLocation"),
		cmpopts.EquateEmpty(),
	}

	contactOpts = cmp.Options{
		cmpopts.IgnoreFields(domain.RelatedContactInformation{}, "PostalAddress"),
	}

	// Buyer fields reconciled on their own plus everything the Seller assigns.
	itemIgnored = []string{
		"Note", "Product", "RelatedContactInformation", "RequestedCompletionDate", "State",
		"Charge", "CompletionDate", "ExpectedCompletionDate", "ExpediteAcceptedIndicator",
		"ItemTerm", "Milestone", "StateChange", "TerminationError", "PreviousState", "ItemTermNull",
	}

	itemOpts = cmp.Options{
		cmpopts.IgnoreFields(domain.ProductOrderItem{}, itemIgnored...),
		cmpopts.EquateEmpty(),
	}
)

// ScalarIfSet is true when the buyer left the value unset or the response
// carries the same value.
func ScalarIfSet[T comparable](req, resp T) bool {
	var zero T
	return req == zero || req == resp
}

// Notes compares notes by position, ignoring the gateway assigned date and
// source. The response may carry extra trailing notes.
func Notes(req, resp []domain.Note) bool {
	if len(resp) < len(req) {
		return false
	}
	for i := range req {
		if !cmp.Equal(req[i], resp[i], noteOpts) {
			return false
		}
	}
	return true
}

// NotesContained is the order-insensitive form of Notes used by updates
// that append to an existing list.
func NotesContained(req, resp []domain.Note) bool {
	for _, n := range req {
		found := false
		for _, r := range resp {
			if cmp.Equal(n, r, noteOpts) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PostalAddress compares two addresses without @schemaLocation. A request
// without an address always matches.
func PostalAddress(req, resp *domain.FieldedAddress) bool {
	if req == nil {
		return true
	}
	if resp == nil {
		return false
	}
	return cmp.Equal(*req, *resp, addressOpts)
}

// Contacts compares contacts by position: the postal address first, then
// the remaining fields.
func Contacts(req, resp []domain.RelatedContactInformation) bool {
	if len(resp) < len(req) {
		return false
	}
	for i, c := range req {
		if !PostalAddress(c.PostalAddress, resp[i].PostalAddress) {
			return false
		}
		if !cmp.Equal(c, resp[i], contactOpts) {
			return false
		}
	}
	return true
}

// Places compares product places without @schemaLocation.
func Places(req, resp []domain.FieldedAddress) bool {
	if len(req) == 0 {
		return true
	}
	return cmp.Equal(req, resp, addressOpts)
}

func item(req, resp domain.ProductOrderItem) bool {
	if !cmp.Equal(req, resp, itemOpts) {
		return false
	}
	if len(req.Note) > 0 && !Notes(req.Note, resp.Note) {
		return false
	}
	if len(req.RelatedContactInformation) > 0 && !Contacts(req.RelatedContactInformation, resp.RelatedContactInformation) {
		return false
	}
	if req.Product != nil && len(req.Product.Place) > 0 {
		if resp.Product == nil || !Places(req.Product.Place, resp.Product.Place) {
			return false
		}
	}
	return true
}

// Items compares order items by position.
func Items(req, resp []domain.ProductOrderItem) bool {
	if len(resp) < len(req) {
		return false
	}
	for i := range req {
		if !item(req[i], resp[i]) {
			return false
		}
	}
	return true
}

func header(req, resp *domain.ProductOrder) bool {
	return ScalarIfSet(req.ExternalID, resp.ExternalID) &&
		ScalarIfSet(req.ProjectID, resp.ProjectID) &&
		Contacts(req.RelatedContactInformation, resp.RelatedContactInformation)
}

// CreatedOrder reconciles a create request with the order built from it.
func CreatedOrder(req, resp *domain.ProductOrder) bool {
	if req == nil || resp == nil {
		return false
	}
	return header(req, resp) &&
		Notes(req.Note, resp.Note) &&
		Items(req.ProductOrderItem, resp.ProductOrderItem)
}

// ModifiedOrder reconciles a modify request with the stored order it was
// merged into. Items are matched by id, only the fields the buyer set are
// compared and notes may have been appended.
func ModifiedOrder(req, resp *domain.ProductOrder) bool {
	if req == nil || resp == nil {
		return false
	}
	if !header(req, resp) || !NotesContained(req.Note, resp.Note) {
		return false
	}
	for _, ri := range req.ProductOrderItem {
		stored, _ := resp.FindItem(ri.ID)
		if stored == nil || !setFieldsMatch(ri, *stored, itemIgnored...) {
			return false
		}
		if ri.RequestedCompletionDate != nil && !cmp.Equal(ri.RequestedCompletionDate, stored.RequestedCompletionDate) {
			return false
		}
		if !NotesContained(ri.Note, stored.Note) {
			return false
		}
		if len(ri.RelatedContactInformation) > 0 && !Contacts(ri.RelatedContactInformation, stored.RelatedContactInformation) {
			return false
		}
		if ri.Product != nil && len(ri.Product.Place) > 0 {
			if stored.Product == nil || !Places(ri.Product.Place, stored.Product.Place) {
				return false
			}
		}
	}
	return true
}

// DisconnectedOrder checks that every requested item is present with the
// same action and product id.
func DisconnectedOrder(req, resp *domain.ProductOrder) bool {
	if req == nil || resp == nil {
		return false
	}
	for _, ri := range req.ProductOrderItem {
		stored, _ := resp.FindItem(ri.ID)
		if stored == nil || stored.Action != ri.Action || productID(ri.Product) != productID(stored.Product) {
			return false
		}
	}
	return true
}

func productID(p *domain.Product) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// PatchedOrder reconciles an in-flight update with the stored order. The
// rules are looser than for create: notes and contacts only have to be
// found somewhere in the response.
func PatchedOrder(req *domain.ProductOrderUpdate, resp *domain.ProductOrder) bool {
	if req == nil || resp == nil {
		return false
	}
	if !ScalarIfSet(req.ExternalID, resp.ExternalID) || !ScalarIfSet(req.ProjectID, resp.ProjectID) {
		return false
	}
	if !NotesContained(req.Note, resp.Note) || !ContactsContained(req.RelatedContactInformation, resp.RelatedContactInformation) {
		return false
	}
	for _, ri := range req.ProductOrderItem {
		stored, _ := resp.FindItem(ri.ID)
		if stored == nil {
			return false
		}
		if !ScalarIfSet(ri.EndCustomerName, stored.EndCustomerName) || !ScalarIfSet(ri.RelatedBuyerPON, stored.RelatedBuyerPON) {
			return false
		}
		if !NotesContained(ri.Note, stored.Note) || !ContactsContained(ri.RelatedContactInformation, stored.RelatedContactInformation) {
			return false
		}
	}
	return true
}

// ContactsContained runs independent existence passes for each requested
// contact: its own fields, its postal address, the geographic sub address
// and the sub unit list may each be matched by a different response contact.
func ContactsContained(req, resp []domain.RelatedContactInformation) bool {
	for _, c := range req {
		if !anyContact(resp, func(r domain.RelatedContactInformation) bool {
			return setFieldsMatch(c, r, "PostalAddress")
		}) {
			return false
		}
		pa := c.PostalAddress
		if pa == nil {
			continue
		}
		if !anyContact(resp, func(r domain.RelatedContactInformation) bool {
			return r.PostalAddress != nil && setFieldsMatch(*pa, *r.PostalAddress, "SchemaLocation", "GeographicSubAddress")
		}) {
			return false
		}
		sub := pa.GeographicSubAddress
		if sub == nil {
			continue
		}
		if !anyContact(resp, func(r domain.RelatedContactInformation) bool {
			rs := subAddress(r)
			return rs != nil && setFieldsMatch(*sub, *rs, "SubUnit")
		}) {
			return false
		}
		if len(sub.SubUnit) == 0 {
			continue
		}
		if !anyContact(resp, func(r domain.RelatedContactInformation) bool {
			rs := subAddress(r)
			return rs != nil && cmp.Equal(sub.SubUnit, rs.SubUnit)
		}) {
			return false
		}
	}
	return true
}

func anyContact(list []domain.RelatedContactInformation, match func(domain.RelatedContactInformation) bool) bool {
	for _, r := range list {
		if match(r) {
			return true
		}
	}
	return false
}

func subAddress(c domain.RelatedContactInformation) *domain.GeographicSubAddress {
	if c.PostalAddress == nil {
		return nil
	}
	return c.PostalAddress.GeographicSubAddress
}

// setFieldsMatch compares the exported fields of two values of the same
// struct type, skipping the named fields and every field left zero in req.
func setFieldsMatch(req, resp any, skip ...string) bool {
	rv, sv := reflect.ValueOf(req), reflect.ValueOf(resp)
	if rv.Type() != sv.Type() || rv.Kind() != reflect.Struct {
		return false
	}
	t := rv.Type()
fields:
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		for _, s := range skip {
			if f.Name == s {
				continue fields
			}
		}
		if rv.Field(i).IsZero() {
			continue
		}
		if !cmp.Equal(rv.Field(i).Interface(), sv.Field(i).Interface()) {
			return false
		}
	}
	return true
}

// CancelOrder reconciles a cancellation request with the stored cancellation.
// The response contacts start with the buyer's and may be followed by the
// Seller's own.
func CancelOrder(req, resp *domain.CancelProductOrder) bool {
	if req == nil || resp == nil {
		return false
	}
	return ScalarIfSet(req.CancellationReason, resp.CancellationReason) &&
		ScalarIfSet(req.CancellationReasonType, resp.CancellationReasonType) &&
		req.ProductOrder.ProductOrderID == resp.ProductOrder.ProductOrderID &&
		ScalarIfSet(req.ProductOrder.ProductOrderHref, resp.ProductOrder.ProductOrderHref) &&
		Contacts(req.RelatedContactInformation, resp.RelatedContactInformation)
}

// ModifyDeliveryDate reconciles a delivery date request with its record.
func ModifyDeliveryDate(req, resp *domain.ModifyDeliveryDate) bool {
	if req == nil || resp == nil {
		return false
	}
	if req.ExpediteIndicator != resp.ExpediteIndicator {
		return false
	}
	if !cmp.Equal(req.RequestedCompletionDate, resp.RequestedCompletionDate) {
		return false
	}
	r, s := req.ProductOrderItem, resp.ProductOrderItem
	return r.ProductOrderID == s.ProductOrderID &&
		r.ProductOrderItemID == s.ProductOrderItemID &&
		ScalarIfSet(r.ProductOrderHref, s.ProductOrderHref)
}

// Subscription reconciles a hub registration with the stored record.
func Subscription(req *domain.EventSubscriptionInput, resp *domain.EventSubscription) bool {
	if req == nil || resp == nil {
		return false
	}
	return req.Callback == resp.Callback && req.Query == resp.Query && resp.ID != ""
}
