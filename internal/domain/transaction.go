package domain

// CrossConnectItemName is the only inventory item kind the Seller provisions.
const CrossConnectItemName = "Cross Connect"

// DeinstallDetails identifies the cross connect being removed.
type DeinstallDetails struct {
	CCDeinstallID string `json:"ccDeinstallId" validate:"required"`
	CCRemovalDate string `json:"ccRemovalDate" validate:"required"`
}

// ASideDetails describes the buyer side of a cross connect.
type ASideDetails struct {
	CCAccountID         string `json:"ccAccountId,omitempty"`
	CCPodID             string `json:"ccPodId,omitempty"`
	CCModelID           string `json:"ccModelId,omitempty"`
	CCPortID            string `json:"ccPortId,omitempty"`
	CCConnectionService string `json:"ccConnectionService,omitempty" validate:"omitempty,oneof=COAX MP4_CABLE MULTI_MODE_FIBER POTS SINGLE_MODE_FIBER UTP"`
	CCMediaType         string `json:"ccMediaType,omitempty"`
	CCProtocolType      string `json:"ccProtocolType,omitempty"`
	CCConnectorType     string `json:"ccConnectorType,omitempty" validate:"omitempty,oneof=BNC LC FC SC ST WIRE_WRAP RJ45 E2000 RJ11"`
	CCASidePatchPanelID string `json:"ccASidePatchPanelId,omitempty"`
	CCPatchPanelPortA   string `json:"ccPatchPanelPortA,omitempty"`
	CCPatchPanelPortB   string `json:"ccPatchPanelPortB,omitempty"`
}

// ZSideDetails describes the provider side of a cross connect.
type ZSideDetails struct {
	CCZSideProviderName string `json:"ccZSideProviderName,omitempty"`
	CCConnectorType     string `json:"ccConnectorType,omitempty" validate:"omitempty,oneof=BNC LC FC SC ST WIRE_WRAP RJ45 E2000 RJ11"`
	CCZSidePatchPanelID string `json:"ccZSidePatchPanelId,omitempty"`
	CCPatchPanelPortA   string `json:"ccPatchPanelPortA,omitempty"`
	CCPatchPanelPortB   string `json:"ccPatchPanelPortB,omitempty"`
}

// CrossConnectDetails is the technical description of a new cross connect.
type CrossConnectDetails struct {
	CCRequestDate  string       `json:"ccRequestDate,omitempty"`
	CCASideDetails ASideDetails `json:"ccASideDetails"`
	CCZSideDetails ZSideDetails `json:"ccZSideDetails"`
}

// ItemDetails is one Seller line of an order or deinstall transaction.
type ItemDetails struct {
	InventoryItemName   string               `json:"inventoryItemName"`
	CrossConnectDetails *CrossConnectDetails `json:"crossConnectDetails,omitempty"`
	OriginalItemDetails []string             `json:"originalItemDetails,omitempty"`
	CCDeinstallDetails  *DeinstallDetails    `json:"ccDeinstallDetails,omitempty"`
}

// SourceFields is the buyer supplied part of a Seller transaction.
type SourceFields struct {
	IAID        *string       `json:"iaId,omitempty"`
	ItemDetails []ItemDetails `json:"itemDetails" validate:"dive"`
}

// TransactionData is the Seller extension carried on create, delete and
// cancel requests. Generic and destination fields pass through untouched.
type TransactionData struct {
	GenericFields     map[string]any `json:"genericFields,omitempty"`
	SourceFields      *SourceFields  `json:"sourceFields,omitempty"`
	DestinationFields map[string]any `json:"destinationFields,omitempty"`
}

// MoveDetails describes where a cross connect is relocated to.
type MoveDetails struct {
	CCMoveType        string `json:"ccMoveType" validate:"required,oneof=a A z Z"`
	CCPortID          string `json:"ccPortId" validate:"required"`
	CCID              string `json:"ccId" validate:"required"`
	CCLoaAttachmentID string `json:"ccLoaAttachmentId"`
	CCMoveRequestDate string `json:"ccMoveRequestDate" validate:"required"`
}

// MoveItemDetails is one item of a move transaction.
type MoveItemDetails struct {
	InventoryItemID     string       `json:"inventoryItemId" validate:"required"`
	InventoryItemName   string       `json:"inventoryItemName"`
	CCMoveDetails       *MoveDetails `json:"ccMoveDetails,omitempty"`
	OriginalItemDetails []string     `json:"originalItemDetails,omitempty"`
}

// MoveSourceFields carries the move items.
type MoveSourceFields struct {
	IAID        string            `json:"iaId"`
	ItemDetails []MoveItemDetails `json:"itemDetails" validate:"dive"`
}

// MoveTransactionData is the transaction block of a move request.
type MoveTransactionData struct {
	GenericFields     map[string]any    `json:"genericFields,omitempty"`
	SourceFields      *MoveSourceFields `json:"sourceFields,omitempty"`
	DestinationFields map[string]any    `json:"destinationFields,omitempty"`
}

// MoveGenericData names the parties of a move.
type MoveGenericData struct {
	SourceID      string `json:"sourceId" validate:"required,oneof=ONS ZOH SLF"`
	DestinationID string `json:"destinationId" validate:"required,oneof=EQX CYX"`
}

// CrossConnectMove is the request body of the move passthrough.
type CrossConnectMove struct {
	GenericData     *MoveGenericData     `json:"genericData,omitempty"`
	TransactionData *MoveTransactionData `json:"transactionData,omitempty"`
}

// MoveResult is returned once the Seller accepted a move.
type MoveResult struct {
	LatticeTransactionID string `json:"latticeTransactionId"`
}
