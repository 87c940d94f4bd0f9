package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/reconcile"
	"github.com/goinginblind/lso-gateway/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// MinLeadTime is how far ahead of the order date an item may be due.
const MinLeadTime = 48 * time.Hour

const aggregateOrder = "productOrder"

// CreateOrder checks a new order, places it with the Seller and stores it
// under the Seller transaction id.
func (l *Lifecycle) CreateOrder(ctx context.Context, o *domain.ProductOrder, p Party, loaAttachmentID, token string) (*domain.ProductOrder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := required(l.templates.RequireProductOrder()); err != nil {
		return nil, err
	}
	if err := domain.Validate(o); err != nil {
		return nil, invalidRequest(err)
	}
	now := l.now()
	if err := checkCreate(o, now); err != nil {
		return nil, err
	}

	payload, merr := l.mapper.MapOrder(o, p.BuyerID, p.SellerID, loaAttachmentID)
	if merr != nil {
		return nil, merr.APIError()
	}
	res, err := l.seller.PlaceOrder(ctx, payload, token)
	if err := callSeller(l.logger, "place order", res, err); err != nil {
		return nil, err
	}
	id, err := l.transactionID(res)
	if err != nil {
		return nil, err
	}

	created, err := deepCopy(o)
	if err != nil {
		return nil, err
	}
	created.ClearSellerFields()
	tmpl := l.templates.ProductOrder
	created.ID = id
	created.OrderDate = &now
	created.State = domain.OrderState(tmpl.State)
	created.Href = tmpl.Href + "/" + id
	stampNotes(created.Note, now)
	for i := range created.ProductOrderItem {
		item := &created.ProductOrderItem[i]
		item.State = domain.ItemState(tmpl.ItemState)
		stampNotes(item.Note, now)
	}
	if !reconcile.CreatedOrder(o, created) {
		return nil, mismatch(l.logger, aggregateOrder, id)
	}

	created.BuyerID, created.SellerID = p.BuyerID, p.SellerID
	for i := range created.ProductOrderItem {
		created.ProductOrderItem[i].PreviousState = created.ProductOrderItem[i].State
	}
	if err := l.repos.Orders.Put(ctx, id, created); err != nil {
		return nil, fmt.Errorf("storing order %s: %w", id, err)
	}

	l.logger.Infow("product order created", "order_id", id, "buyer_id", p.BuyerID, "seller_id", p.SellerID)
	return created.Public(), nil
}

func stampNotes(notes []domain.Note, now time.Time) {
	for i := range notes {
		notes[i].Date = &now
		notes[i].Source = domain.SourceBuyer
	}
}

func checkCreate(o *domain.ProductOrder, now time.Time) error {
	if o.ExternalID == "" {
		return apierror.Invalid("'externalId' MUST not be empty, when 'action' is set to 'add'", "externalId")
	}
	hasContact := len(o.RelatedContactInformation) > 0
	for _, c := range o.RelatedContactInformation {
		if c.Role != domain.ContactRoleOrder {
			hasContact = false
		}
	}
	if !hasContact {
		return apierror.Invalid(
			"The Buyer's request MUST specify a relatedContactInformation item with a role set to productOrderContact",
			"relatedContactInformation.role")
	}

	earliest := now.Add(MinLeadTime)
	seen := make(map[string]struct{}, len(o.ProductOrderItem))
	for _, item := range o.ProductOrderItem {
		if item.Action != domain.ActionAdd {
			return apierror.Invalid("action should be 'add'", "productOrderItem.action")
		}
		if _, dup := seen[item.ID]; dup {
			return apierror.Invalid("productOrderItem 'Id' can't be duplicate. It must be unique for same productOrder", "productOrderItem.id")
		}
		seen[item.ID] = struct{}{}

		if item.RequestedCompletionDate == nil {
			return missingProperty("The Buyer MUST provide the requestedCompletionDate", "productOrderItem.requestedCompletionDate")
		}
		if item.RequestedCompletionDate.Before(earliest) {
			return apierror.Invalid("requestedCompletionDate must be alteast two days from orderDate", "productOrderItem.requestedCompletionDate")
		}
		if item.Product == nil {
			return missingProperty("The Buyer MUST provide the productOrderItem.product", "productOrderItem.product")
		}
		if item.Product.ProductConfiguration == nil {
			return missingProperty("The Buyer MUST provide the product.productConfiguration", "productOrderItem.product.productConfiguration")
		}
		if item.Product.ProductOffering == nil {
			return missingProperty("product.productOffering MUST be provided", "productOrderItem.product.productOffering")
		}
		if item.Product.ID != "" {
			return apierror.Unprocessable(apierror.UnexpectedProperty,
				"The Buyer MUST NOT specify the productOrderItem.product.id in the request", "productOrderItem.product.id")
		}
		if item.BillingAccount == nil {
			return missingProperty("The Buyer MUST provide the billingAccount even if the presumed price is zero", "productOrderItem.billingAccount")
		}
		if item.RequestedItemTerm == nil {
			return missingProperty("The Buyer MUST provide the requestedItemTerm", "productOrderItem.requestedItemTerm")
		}
		if item.RequestedItemTerm.EndOfTermAction == domain.EndOfTermRoll && item.RequestedItemTerm.RollInterval == nil {
			return missingProperty(
				"If the requestedItemTerm.endOfTermAction is roll, the Buyer MUST provide the requestedItemTerm.rollInterval",
				"productOrderItem.requestedItemTerm.rollInterval")
		}
	}
	return nil
}

func missingProperty(msg, path string) error {
	return apierror.Unprocessable(apierror.MissingProperty, msg, path)
}

// DisconnectOrder asks the Seller to deinstall the cross connects of the
// requested items and marks them deleted on the stored order.
func (l *Lifecycle) DisconnectOrder(ctx context.Context, o *domain.ProductOrder, p Party, token string) (*domain.ProductOrder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := domain.Validate(o); err != nil {
		return nil, invalidRequest(err)
	}

	notFound := apierror.Invalid("productOrderItem identifier not found", "productOrderItem.id").WithReason("Id not found")
	stored, err := l.findOrderByItem(ctx, p, o.ProductOrderItem[0].ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, notFound
	}
	for _, item := range o.ProductOrderItem {
		if si, _ := stored.FindItem(item.ID); si == nil {
			return nil, notFound
		}
		if item.Action != domain.ActionDelete {
			return nil, apierror.Invalid("productOrderItem.action should be 'delete'", "productOrderItem.action")
		}
		if item.Product == nil {
			return nil, missingProperty("'product' must be provided, when 'action' is set to 'delete'", "productOrderItem.product")
		}
		if item.Product.ID == "" {
			return nil, apierror.Invalid("product identifier must not be empty, when 'action' is set to 'delete'", "productOrderItem.product.id")
		}
	}

	payload, merr := l.mapper.MapDeinstall(o, p.BuyerID, p.SellerID)
	if merr != nil {
		return nil, merr.APIError()
	}
	res, err := l.seller.DeinstallOrder(ctx, payload, token)
	if err := callSeller(l.logger, "deinstall order", res, err); err != nil {
		return nil, err
	}
	txID, err := l.transactionID(res)
	if err != nil {
		return nil, err
	}

	now := l.now()
	var out *domain.ProductOrder
	err = l.repos.Orders.Update(ctx, stored.ID, func(so *domain.ProductOrder) error {
		for _, item := range o.ProductOrderItem {
			si, _ := so.FindItem(item.ID)
			if si == nil {
				return notFound
			}
			si.Action = domain.ActionDelete
			if si.Product == nil {
				si.Product = &domain.Product{}
			}
			si.Product.ID = item.Product.ID
			si.StateChange = append(si.StateChange, domain.StateChange{
				ChangeDate:   &now,
				ChangeReason: "deinstall requested, transaction " + txID,
				State:        string(si.State),
			})
		}
		if !reconcile.DisconnectedOrder(o, so) {
			return mismatch(l.logger, aggregateOrder, so.ID)
		}
		out = so.Public()
		return nil
	})
	if err != nil {
		return nil, l.orderWriteError(stored.ID, err)
	}

	l.logger.Infow("product order disconnect requested", "order_id", stored.ID, "transaction_id", txID)
	return out, nil
}

// ModifyOrder merges the attributes set on a modify request into the
// stored order holding the requested items.
func (l *Lifecycle) ModifyOrder(ctx context.Context, o *domain.ProductOrder, p Party) (*domain.ProductOrder, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := domain.Validate(o); err != nil {
		return nil, invalidRequest(err)
	}

	notFound := apierror.Invalid("ProductOrderItem Identifier not found", "productOrderItem.id").WithReason("Id not found")
	stored, err := l.findOrderByItem(ctx, p, o.ProductOrderItem[0].ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, notFound
	}
	for _, item := range o.ProductOrderItem {
		si, _ := stored.FindItem(item.ID)
		if si == nil {
			return nil, notFound
		}
		if err := checkModifyItem(item, si); err != nil {
			return nil, err
		}
	}

	now := l.now()
	var out *domain.ProductOrder
	err = l.repos.Orders.Update(ctx, stored.ID, func(so *domain.ProductOrder) error {
		if err := mergeModify(so, o, now); err != nil {
			return err
		}
		if !reconcile.ModifiedOrder(o, so) {
			return mismatch(l.logger, aggregateOrder, so.ID)
		}
		out = so.Public()
		return nil
	})
	if err != nil {
		return nil, l.orderWriteError(stored.ID, err)
	}

	l.logger.Infow("product order modified", "order_id", stored.ID)
	return out, nil
}

var placeOpts = cmp.Options{cmpopts.EquateEmpty()}

func checkModifyItem(item domain.ProductOrderItem, stored *domain.ProductOrderItem) error {
	if item.Action != domain.ActionModify {
		return apierror.Invalid("'action' should be 'modify'", "productOrderItem.action")
	}
	if item.ItemTermNull {
		return missingProperty("Buyer MUST provide the requestedItemTerm where 'action' is 'modify'", "productOrderItem.requestedItemTerm")
	}
	if item.Product == nil || item.Product.ID == "" {
		return apierror.Invalid("product can not be null and product Identifier MUST be provided", "productOrderItem.product").
			WithReason("Id not found")
	}
	req, inv := item.Product, stored.Product
	if inv == nil {
		if len(req.Place) > 0 || len(req.ProductRelationship) > 0 || req.ProductOffering != nil {
			return apierror.Invalid(
				"The modify request MUST repeat the same values of productOffering, productRelationship and place as they are available in the inventory for a given product instance",
				"productOrderItem.product")
		}
		return nil
	}
	if req.ProductConfiguration == nil {
		return apierror.Invalid("The Buyer MUST provide productConfiguration", "productOrderItem.productConfiguration")
	}
	if !cmp.Equal(req.ProductRelationship, inv.ProductRelationship, placeOpts) {
		return apierror.Invalid(
			"The modify request MUST repeat the same values of productRelationship as it is available in the inventory for a given product instance",
			"productOrderItem.product.productRelationship")
	}
	if req.ProductOffering != nil && !cmp.Equal(req.ProductOffering, inv.ProductOffering) {
		return apierror.Invalid(
			"The modify request MUST repeat the same values of productOffering as it is available in the inventory for a given product instance",
			"productOrderItem.product.productOffering")
	}
	if !placesRepeated(req.Place, inv.Place) {
		return apierror.Invalid(
			"The modify request MUST repeat the same values of product place as it is available in the inventory for a given product instance",
			"productOrderItem.product.place").WithReason("Mismatched attributes")
	}
	return nil
}

// placesRepeated compares the place headers of the request with the
// inventory by position: the same number of places, each with the same
// schema location, type and role as the stored one at that index.
func placesRepeated(req, inv []domain.FieldedAddress) bool {
	if len(req) != len(inv) {
		return false
	}
	for i, r := range req {
		s := inv[i]
		if r.SchemaLocation != s.SchemaLocation || r.Type != s.Type || r.Role != s.Role {
			return false
		}
	}
	return true
}

// mergeModify overlays the fields the buyer set onto the stored order.
// Notes are appended; contacts given on the request replace the stored ones.
// Seller assigned item attributes and the notification shadow are never
// taken from the request.
func mergeModify(so, req *domain.ProductOrder, now time.Time) error {
	if req.ExternalID != "" {
		so.ExternalID = req.ExternalID
	}
	if req.ProjectID != "" {
		so.ProjectID = req.ProjectID
	}
	if len(req.RelatedContactInformation) > 0 {
		so.RelatedContactInformation = req.RelatedContactInformation
	}
	so.Note = appendNotes(so.Note, req.Note, now)

	for _, item := range req.ProductOrderItem {
		si, _ := so.FindItem(item.ID)
		if si == nil {
			return apierror.Invalid("ProductOrderItem Identifier not found", "productOrderItem.id")
		}
		notes := si.Note
		item.ClearSellerFields()
		merged, err := overlay(*si, item)
		if err != nil {
			return fmt.Errorf("merging item %s: %w", item.ID, err)
		}
		*si = merged
		si.Note = appendNotes(notes, item.Note, now)
	}
	return nil
}

// overlay replaces every top level attribute of base that upd carries.
func overlay[T any](base, upd T) (T, error) {
	var out T
	fields := map[string]json.RawMessage{}
	raw, err := json.Marshal(base)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, err
	}
	raw, err = json.Marshal(upd)
	if err != nil {
		return out, err
	}
	set := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &set); err != nil {
		return out, err
	}
	for k, v := range set {
		fields[k] = v
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func appendNotes(stored, added []domain.Note, now time.Time) []domain.Note {
	for _, n := range added {
		n.Date = &now
		if n.Source == "" {
			n.Source = domain.SourceBuyer
		}
		stored = append(stored, n)
	}
	return stored
}

// orderWriteError keeps envelope errors raised inside an update as they are.
func (l *Lifecycle) orderWriteError(id string, err error) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, store.ErrNotFound) {
		return apierror.NotFound("'id' not found")
	}
	return fmt.Errorf("updating order %s: %w", id, err)
}

// PatchOrder applies an in-flight update of the buyer owned attributes.
func (l *Lifecycle) PatchOrder(ctx context.Context, id string, upd *domain.ProductOrderUpdate) (*domain.ProductOrder, error) {
	if _, err := l.repos.Orders.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("'id' not found").WithPath("id")
		}
		return nil, fmt.Errorf("loading order %s: %w", id, err)
	}
	if err := checkPatch(upd); err != nil {
		return nil, err
	}
	if err := domain.Validate(upd); err != nil {
		return nil, invalidRequest(err)
	}

	now := l.now()
	var out *domain.ProductOrder
	err := l.repos.Orders.Update(ctx, id, func(so *domain.ProductOrder) error {
		if upd.ExternalID != "" {
			so.ExternalID = upd.ExternalID
		}
		if upd.ProjectID != "" {
			so.ProjectID = upd.ProjectID
		}
		so.Note = appendNotes(so.Note, upd.Note, now)
		so.RelatedContactInformation = mergeContacts(so.RelatedContactInformation, upd.RelatedContactInformation)

		for _, iu := range upd.ProductOrderItem {
			si, _ := so.FindItem(iu.ID)
			if si == nil {
				return apierror.NotFound("productOrderItem identifier not found").WithPath("productOrderItem.id")
			}
			if iu.EndCustomerName != "" {
				si.EndCustomerName = iu.EndCustomerName
			}
			if iu.RelatedBuyerPON != "" {
				si.RelatedBuyerPON = iu.RelatedBuyerPON
			}
			si.Note = appendNotes(si.Note, iu.Note, now)
			si.RelatedContactInformation = mergeContacts(si.RelatedContactInformation, iu.RelatedContactInformation)
		}

		if !reconcile.PatchedOrder(upd, so) {
			return mismatch(l.logger, aggregateOrder, id)
		}
		out = so.Public()
		return nil
	})
	if err != nil {
		return nil, l.orderWriteError(id, err)
	}

	l.logger.Infow("product order patched", "order_id", id)
	return out, nil
}

func checkPatch(upd *domain.ProductOrderUpdate) error {
	if upd.Empty() && len(upd.ProductOrderItem) == 0 {
		return apierror.Conflict("Buyer's update request must include at least one updateable attribute")
	}
	for _, iu := range upd.ProductOrderItem {
		if iu.EndCustomerName == "" && iu.RelatedBuyerPON == "" && len(iu.Note) == 0 && len(iu.RelatedContactInformation) == 0 {
			return apierror.Conflict("Buyer update request must contain one or more than one updateable attributes").
				WithPath("productOrderItem")
		}
	}
	notes := upd.Note
	for _, iu := range upd.ProductOrderItem {
		notes = append(notes, iu.Note...)
	}
	for _, n := range notes {
		if n.Source != "" && n.Source != domain.SourceBuyer {
			return apierror.Conflict("Buyer MUST NOT have the ability to add a Note with a Note Source of SELLER").
				WithPath("note.source")
		}
	}
	return nil
}

// mergeContacts overlays updated contacts onto the stored ones by position.
// Set fields win and a given postal address replaces the stored one.
func mergeContacts(stored, upd []domain.RelatedContactInformation) []domain.RelatedContactInformation {
	for i, u := range upd {
		if i >= len(stored) {
			stored = append(stored, u)
			continue
		}
		s := &stored[i]
		if u.EmailAddress != "" {
			s.EmailAddress = u.EmailAddress
		}
		if u.Name != "" {
			s.Name = u.Name
		}
		if u.Number != "" {
			s.Number = u.Number
		}
		if u.NumberExtension != "" {
			s.NumberExtension = u.NumberExtension
		}
		if u.Organization != "" {
			s.Organization = u.Organization
		}
		if u.Role != "" {
			s.Role = u.Role
		}
		if u.PostalAddress != nil {
			s.PostalAddress = u.PostalAddress
		}
	}
	return stored
}

// GetOrder merges the Seller's view of an order with the stored record.
func (l *Lifecycle) GetOrder(ctx context.Context, id string, p Party, token string) (map[string]any, error) {
	if p.BuyerID == "" || p.SellerID == "" {
		return nil, apierror.BadRequest(apierror.MissingQueryValue, "QueryValues are missing")
	}
	if _, ok := allowedSellers[p.SellerID]; !ok {
		return nil, apierror.NotFound("'sellerId' not Found").WithPath("sellerId")
	}
	stored, err := l.repos.Orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("Id not Found").WithPath("id")
		}
		return nil, fmt.Errorf("loading order %s: %w", id, err)
	}
	switch p.ownerMismatch(stored.BuyerID, stored.SellerID) {
	case "buyerId":
		return nil, apierror.NotFound("'buyerId' mismatch").WithPath("buyerId")
	case "sellerId":
		return nil, apierror.NotFound("'sellerId' mismatch").WithPath("sellerId")
	}

	payload, merr := l.mapper.MapOrderDetails(id, p.BuyerID, p.SellerID)
	if merr != nil {
		return nil, merr.APIError()
	}
	res, err := l.seller.GetOrderDetails(ctx, payload, token)
	if err := callSeller(l.logger, "get order details", res, err); err != nil {
		return nil, err
	}

	merged := map[string]any{}
	if len(res.Body) > 0 {
		if err := res.Decode(&merged); err != nil {
			return nil, apierror.Internal("Seller order details could not be decoded")
		}
	}
	own, err := toMap(stored.Public())
	if err != nil {
		return nil, err
	}
	for k, v := range own {
		merged[k] = v
	}
	if merged["id"] != id {
		return nil, mismatch(l.logger, aggregateOrder, id)
	}
	return merged, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return out, nil
}

// OrderFilter narrows a product order listing.
type OrderFilter struct {
	Party
	State            string
	ExternalID       string
	ProjectID        string
	OrderDate        TimeRange
	CompletionDate   TimeRange
	CancellationDate TimeRange
	// Item ranges match when any item of the order falls inside.
	ItemRequestedCompletionDate TimeRange
	ItemExpectedCompletionDate  TimeRange
	Page                        Page
}

func (f OrderFilter) match(o *domain.ProductOrder) bool {
	return f.ownerMismatch(o.BuyerID, o.SellerID) == "" &&
		matches(f.State, string(o.State)) &&
		matches(f.ExternalID, o.ExternalID) &&
		matches(f.ProjectID, o.ProjectID) &&
		f.OrderDate.Contains(o.OrderDate) &&
		f.CompletionDate.Contains(o.CompletionDate) &&
		f.CancellationDate.Contains(o.CancellationDate) &&
		anyItemIn(o, f.ItemRequestedCompletionDate, func(i *domain.ProductOrderItem) *time.Time { return i.RequestedCompletionDate }) &&
		anyItemIn(o, f.ItemExpectedCompletionDate, func(i *domain.ProductOrderItem) *time.Time { return i.ExpectedCompletionDate })
}

func anyItemIn(o *domain.ProductOrder, r TimeRange, date func(*domain.ProductOrderItem) *time.Time) bool {
	if !r.set() {
		return true
	}
	for i := range o.ProductOrderItem {
		if r.Contains(date(&o.ProductOrderItem[i])) {
			return true
		}
	}
	return false
}

// ListOrders filters the stored orders and zips each row with the Seller's
// list entry at the same position.
func (l *Lifecycle) ListOrders(ctx context.Context, f OrderFilter, token string) ([]map[string]any, error) {
	if f.BuyerID == "" || f.SellerID == "" {
		return nil, apierror.BadRequest(apierror.MissingQueryValue, "QueryValues are missing")
	}
	if err := f.Party.validate(); err != nil {
		return nil, err
	}
	orders, err := l.repos.Orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	rows := make([]domain.OrderSummary, 0, len(orders))
	for _, o := range orders {
		if f.match(o) {
			rows = append(rows, o.Summary())
		}
	}
	page, err := paginate(rows, f.Page)
	if err != nil {
		return nil, err
	}

	payload, merr := l.mapper.MapOrderList(f.BuyerID, f.SellerID)
	if merr != nil {
		return nil, merr.APIError()
	}
	res, err := l.seller.ListOrders(ctx, payload, token)
	if err := callSeller(l.logger, "list orders", res, err); err != nil {
		return nil, err
	}
	sellerRows := sellerListRows(res.Body)

	out := make([]map[string]any, 0, len(page))
	for i, row := range page {
		m := map[string]any{}
		if i < len(sellerRows) {
			for k, v := range sellerRows[i] {
				m[k] = v
			}
		}
		own, err := toMap(row)
		if err != nil {
			return nil, err
		}
		for k, v := range own {
			m[k] = v
		}
		out = append(out, m)
	}
	return out, nil
}

// sellerListRows reads the rows of a Seller list answer, which come either
// under "data" or under "items". Anything else yields no rows.
func sellerListRows(body []byte) []map[string]any {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	for _, key := range []string{"data", "items"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var rows []map[string]any
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows
		}
	}
	return nil
}
