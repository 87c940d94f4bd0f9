// Package fieldmap translates canonical MEF requests into the Seller wire
// schema. Every function here is pure: the same input yields the same payload.
package fieldmap

import (
	"encoding/json"
	"fmt"

	"github.com/goinginblind/lso-gateway/internal/domain"
)

// Payload is a request body in the Seller wire schema.
type Payload map[string]any

const itemNameMessage = "inventoryItemName should be 'Cross Connect'"

// Mapper holds the dictionary every mapping reads its wire names from.
// A Mapper without a dictionary fails every call with 404 notFound.
type Mapper struct {
	dict Dictionary
}

func NewMapper(dict Dictionary) *Mapper {
	return &Mapper{dict: dict}
}

func (m *Mapper) lookup() (*wire, *MappingError) {
	if m == nil || m.dict == nil {
		return nil, errDictionaryMissing()
	}
	return &wire{dict: m.dict}, nil
}

// envelope builds the generic data block and the transaction block shared
// by every operation, and returns the (still empty) source fields.
func (w *wire) envelope(source, destination string, generic, dest map[string]any) (Payload, Payload) {
	src := Payload{}
	out := Payload{
		w.key("qclGenericData"): Payload{
			w.key("buyerId"):  source,
			w.key("sellerId"): destination,
		},
		w.key("transactionData"): Payload{
			w.key("genericFields"):     generic,
			w.key("destinationFields"): dest,
			w.key("sourceFields"):      src,
		},
	}
	return out, src
}

func itemPath(i int, field string) string {
	return fmt.Sprintf("transactionData.sourceFields.itemDetails[%d].%s", i, field)
}

func checkItemName(i int, name string) *MappingError {
	if name != domain.CrossConnectItemName {
		return errInvalid(itemNameMessage, "Invalid value", itemPath(i, "inventoryItemName"))
	}
	return nil
}

// MapOrder maps a create request. loaAttachmentID, when set, is carried
// into the cross connect details of every item.
func (m *Mapper) MapOrder(o *domain.ProductOrder, buyerID, sellerID, loaAttachmentID string) (Payload, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return nil, merr
	}
	if o.TransactionData == nil {
		return nil, errMissing("transactionData")
	}
	if o.TransactionData.SourceFields == nil {
		return nil, errMissing("transactionData.sourceFields")
	}

	td := o.TransactionData
	out, src := w.envelope(buyerID, sellerID, td.GenericFields, td.DestinationFields)
	if td.SourceFields.IAID != nil {
		src[w.key("iaId")] = *td.SourceFields.IAID
	}

	items := make([]Payload, 0, len(td.SourceFields.ItemDetails))
	for i, item := range td.SourceFields.ItemDetails {
		if merr := checkItemName(i, item.InventoryItemName); merr != nil {
			return nil, merr
		}
		p := Payload{w.key("inventoryItemName"): item.InventoryItemName}
		if i < len(o.ProductOrderItem) {
			p[w.key("productOrderItemId")] = o.ProductOrderItem[i].ID
		}
		if item.CrossConnectDetails == nil {
			return nil, errMissing(itemPath(i, "crossConnectDetails"))
		}
		p[w.key("crossConnectDetails")] = w.crossConnect(item.CrossConnectDetails, loaAttachmentID)
		items = append(items, p)
	}
	src[w.key("itemDetails")] = items

	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

func (w *wire) crossConnect(cc *domain.CrossConnectDetails, loaAttachmentID string) Payload {
	a := Payload{}
	w.set(a, "ccAccountId", cc.CCASideDetails.CCAccountID)
	w.set(a, "ccPodId", cc.CCASideDetails.CCPodID)
	w.set(a, "ccModelId", cc.CCASideDetails.CCModelID)
	w.set(a, "ccPortId", cc.CCASideDetails.CCPortID)
	w.set(a, "ccConnectionService", cc.CCASideDetails.CCConnectionService)
	w.set(a, "ccMediaType", cc.CCASideDetails.CCMediaType)
	w.set(a, "ccProtocolType", cc.CCASideDetails.CCProtocolType)
	w.set(a, "ccConnectorType", cc.CCASideDetails.CCConnectorType)
	w.set(a, "ccASidePatchPanelId", cc.CCASideDetails.CCASidePatchPanelID)
	w.set(a, "ccPatchPanelPortA", cc.CCASideDetails.CCPatchPanelPortA)
	w.set(a, "ccPatchPanelPortB", cc.CCASideDetails.CCPatchPanelPortB)

	z := Payload{}
	w.set(z, "ccZSideProviderName", cc.CCZSideDetails.CCZSideProviderName)
	w.set(z, "ccConnectorType", cc.CCZSideDetails.CCConnectorType)
	w.set(z, "ccZSidePatchPanelId", cc.CCZSideDetails.CCZSidePatchPanelID)
	w.set(z, "ccPatchPanelPortA", cc.CCZSideDetails.CCPatchPanelPortA)
	w.set(z, "ccPatchPanelPortB", cc.CCZSideDetails.CCPatchPanelPortB)

	out := Payload{
		w.key("ccASideDetails"): a,
		w.key("ccZSideDetails"): z,
	}
	w.set(out, "ccRequestDate", cc.CCRequestDate)
	w.set(out, "ccLoaAttachmentId", loaAttachmentID)
	return out
}

// MapCancel maps a cancellation. Items only carry the order reference,
// their name and the cancellation reason.
func (m *Mapper) MapCancel(c *domain.CancelProductOrder, buyerID, sellerID string) (Payload, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return nil, merr
	}
	if c.TransactionData == nil {
		return nil, errMissing("transactionData")
	}
	if c.TransactionData.SourceFields == nil {
		return nil, errMissing("transactionData.sourceFields")
	}

	td := c.TransactionData
	out, src := w.envelope(buyerID, sellerID, td.GenericFields, td.DestinationFields)
	if td.SourceFields.IAID != nil {
		src[w.key("iaId")] = *td.SourceFields.IAID
	}

	items := make([]Payload, 0, len(td.SourceFields.ItemDetails))
	for i, item := range td.SourceFields.ItemDetails {
		if merr := checkItemName(i, item.InventoryItemName); merr != nil {
			return nil, merr
		}
		items = append(items, Payload{
			w.key("productOrderId"):    c.ProductOrder.ProductOrderID,
			w.key("inventoryItemName"): item.InventoryItemName,
			w.key("ccCancelDetails"): Payload{
				w.key("cancellationReason"): c.CancellationReason,
			},
		})
	}
	src[w.key("itemDetails")] = items

	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

// MapDeinstall maps a disconnect. The n-th item detail belongs to the n-th
// order item, so there can not be more details than items.
func (m *Mapper) MapDeinstall(o *domain.ProductOrder, buyerID, sellerID string) (Payload, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return nil, merr
	}
	if o.TransactionData == nil {
		return nil, errMissing("transactionData")
	}
	if o.TransactionData.SourceFields == nil {
		return nil, errMissing("transactionData.sourceFields")
	}

	td := o.TransactionData
	if td.SourceFields.IAID == nil {
		return nil, errInvalid("'iaId' MUST not be empty, when 'action' is set to 'delete'",
			"Validation error", "transactionData.sourceFields.iaId")
	}

	out, src := w.envelope(buyerID, sellerID, td.GenericFields, td.DestinationFields)
	src[w.key("iaId")] = *td.SourceFields.IAID

	items := make([]Payload, 0, len(td.SourceFields.ItemDetails))
	for i, item := range td.SourceFields.ItemDetails {
		if i >= len(o.ProductOrderItem) {
			return nil, errTooManyRecords("transactionData.sourceFields.itemDetails")
		}
		if merr := checkItemName(i, item.InventoryItemName); merr != nil {
			return nil, merr
		}
		if item.CCDeinstallDetails == nil {
			return nil, errInvalid("'ccDeinstallDetails' MUST not be empty, when 'action' is set to 'delete'",
				"Validation error", itemPath(i, "ccDeinstallDetails"))
		}
		items = append(items, Payload{
			w.key("productOrderItemId"):  o.ProductOrderItem[i].ID,
			w.key("inventoryItemName"):   item.InventoryItemName,
			w.key("originalItemDetails"): item.OriginalItemDetails,
			w.key("ccDeinstallDetails"): Payload{
				w.key("ccDeinstallId"): item.CCDeinstallDetails.CCDeinstallID,
				w.key("ccRemovalDate"): item.CCDeinstallDetails.CCRemovalDate,
			},
		})
	}
	src[w.key("itemDetails")] = items

	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

// MapMove maps a move. The parties come from the request's own generic
// data rather than from query parameters.
func (m *Mapper) MapMove(mv *domain.CrossConnectMove) (Payload, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return nil, merr
	}
	switch {
	case mv.GenericData == nil:
		return nil, errMissing("genericData")
	case mv.TransactionData == nil:
		return nil, errMissing("transactionData")
	case mv.TransactionData.SourceFields == nil:
		return nil, errMissing("transactionData.sourceFields")
	}

	td := mv.TransactionData
	out := Payload{
		w.key("qclGenericData"): Payload{
			w.key("sourceId"):      mv.GenericData.SourceID,
			w.key("destinationId"): mv.GenericData.DestinationID,
		},
	}
	src := Payload{w.key("iaId"): td.SourceFields.IAID}
	out[w.key("transactionData")] = Payload{
		w.key("genericFields"):     td.GenericFields,
		w.key("destinationFields"): td.DestinationFields,
		w.key("sourceFields"):      src,
	}

	items := make([]Payload, 0, len(td.SourceFields.ItemDetails))
	for i, item := range td.SourceFields.ItemDetails {
		if merr := checkItemName(i, item.InventoryItemName); merr != nil {
			return nil, merr
		}
		if item.CCMoveDetails == nil {
			return nil, errMissing(itemPath(i, "ccMoveDetails"))
		}
		mvd := item.CCMoveDetails
		items = append(items, Payload{
			w.key("inventoryItemId"):     item.InventoryItemID,
			w.key("inventoryItemName"):   item.InventoryItemName,
			w.key("originalItemDetails"): item.OriginalItemDetails,
			w.key("ccMoveDetails"): Payload{
				w.key("ccMoveType"):        mvd.CCMoveType,
				w.key("ccPortId"):          mvd.CCPortID,
				w.key("ccId"):              mvd.CCID,
				w.key("ccLoaAttachmentId"): mvd.CCLoaAttachmentID,
				w.key("ccMoveRequestDate"): mvd.CCMoveRequestDate,
			},
		})
	}
	src[w.key("itemDetails")] = items

	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

// MapOrderDetails maps a lookup of one Seller order.
func (m *Mapper) MapOrderDetails(id, buyerID, sellerID string) (Payload, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return nil, merr
	}
	out, src := w.envelope(buyerID, sellerID, map[string]any{}, map[string]any{})
	src[w.key("ccId")] = id

	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

// MapOrderList maps a listing of the Seller orders of a buyer/seller pair.
func (m *Mapper) MapOrderList(buyerID, sellerID string) (Payload, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return nil, merr
	}
	out, _ := w.envelope(buyerID, sellerID, map[string]any{}, map[string]any{})

	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

// TransactionID extracts the Seller assigned transaction id from a
// successful response body.
func (m *Mapper) TransactionID(body []byte) (string, *MappingError) {
	return m.responseField(body, "latticeTransactionId")
}

// AttachmentID extracts the id of an uploaded attachment.
func (m *Mapper) AttachmentID(body []byte) (string, *MappingError) {
	return m.responseField(body, "attachmentId")
}

func (m *Mapper) responseField(body []byte, name string) (string, *MappingError) {
	w, merr := m.lookup()
	if merr != nil {
		return "", merr
	}
	key := w.key(name)
	if w.err != nil {
		return "", w.err
	}

	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errInternal(fmt.Sprintf("decoding seller response: %v", err))
	}
	switch v := resp[key].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", errInternal(fmt.Sprintf("seller response carries no '%s'", key))
}
