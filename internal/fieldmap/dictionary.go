package fieldmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// dictionarySection is the key of the cross connect section in the
// dictionary file.
const dictionarySection = "qcl_cc_order"

// ErrDictionaryNotFound is returned by LoadDictionary when the configured
// file does not exist.
var ErrDictionaryNotFound = errors.New("field mapping dictionary not found")

// Dictionary maps logical (MEF side) field names to Seller wire names.
type Dictionary map[string]string

// DefaultDictionary is the built-in mapping used when no override file
// is configured.
func DefaultDictionary() Dictionary {
	return Dictionary{
		"qclGenericData":       "qcl_generic_data",
		"buyerId":              "qcl_source_id",
		"sellerId":             "qcl_destination_id",
		"sourceId":             "qcl_source_id",
		"destinationId":        "qcl_destination_id",
		"transactionData":      "qcl_transaction_data",
		"genericFields":        "generic_fields",
		"sourceFields":         "source_fields",
		"destinationFields":    "destination_fields",
		"iaId":                 "qcl_ia_id",
		"itemDetails":          "qcl_item_details",
		"productOrderId":       "qcl_product_order_id",
		"productOrderItemId":   "qcl_product_order_item_id",
		"inventoryItemId":      "qcl_inventory_item_id",
		"inventoryItemName":    "qcl_inventory_item_name",
		"originalItemDetails":  "qcl_original_item_details",
		"ccCancelDetails":      "qcl_cc_cancel_details",
		"cancellationReason":   "qcl_cancellation_reason",
		"ccDeinstallDetails":   "qcl_cc_deinstall_details",
		"ccDeinstallId":        "qcl_cc_deinstall_id",
		"ccRemovalDate":        "qcl_cc_removal_date",
		"ccMoveDetails":        "qcl_cc_move_details",
		"ccMoveType":           "qcl_cc_move_type",
		"ccPortId":             "qcl_cc_port_id",
		"ccId":                 "qcl_cc_id",
		"ccLoaAttachmentId":    "qcl_cc_loa_attachment_id",
		"ccMoveRequestDate":    "qcl_cc_move_request_date",
		"crossConnectDetails":  "qcl_cross_connect_details",
		"ccRequestDate":        "qcl_cc_request_date",
		"ccASideDetails":       "qcl_cc_a_side_details",
		"ccZSideDetails":       "qcl_cc_z_side_details",
		"ccAccountId":          "qcl_cc_account_id",
		"ccPodId":              "qcl_cc_pod_id",
		"ccModelId":            "qcl_cc_model_id",
		"ccConnectionService":  "qcl_cc_connection_service",
		"ccMediaType":          "qcl_cc_media_type",
		"ccProtocolType":       "qcl_cc_protocol_type",
		"ccConnectorType":      "qcl_cc_connector_type",
		"ccASidePatchPanelId":  "qcl_cc_a_side_patch_panel_id",
		"ccZSidePatchPanelId":  "qcl_cc_z_side_patch_panel_id",
		"ccZSideProviderName":  "qcl_cc_z_side_provider_name",
		"ccPatchPanelPortA":    "qcl_cc_patch_panel_port_a",
		"ccPatchPanelPortB":    "qcl_cc_patch_panel_port_b",
		"latticeTransactionId": "lattice_transaction_id",
		"attachmentId":         "attachment_id",
	}
}

// LoadDictionary reads {"qcl_cc_order": {...}} from path and lays it over
// the defaults. An empty path yields the defaults.
func LoadDictionary(path string) (Dictionary, error) {
	d := DefaultDictionary()
	if path == "" {
		return d, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDictionaryNotFound, path)
		}
		return nil, fmt.Errorf("reading field mapping %s: %w", path, err)
	}

	var file map[string]map[string]string
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decoding field mapping %s: %w", path, err)
	}
	section, ok := file[dictionarySection]
	if !ok {
		return nil, fmt.Errorf("%w: no %q section in %s", ErrDictionaryNotFound, dictionarySection, path)
	}
	for k, v := range section {
		d[k] = v
	}
	return d, nil
}

// wire looks name up and remembers the first missing key. Once a key is
// missing every later lookup is a no-op and err holds the failure.
type wire struct {
	dict Dictionary
	err  *MappingError
}

func (w *wire) key(name string) string {
	if w.err != nil {
		return ""
	}
	v, ok := w.dict[name]
	if !ok || v == "" {
		w.err = errInternal(fmt.Sprintf("'%s' missing from the field mapping dictionary", name))
		return ""
	}
	return v
}

// set stores v under the wire name of name, skipping empty strings.
func (w *wire) set(dst Payload, name string, v string) {
	k := w.key(name)
	if w.err != nil || v == "" {
		return
	}
	dst[k] = v
}
