package domain

import "time"

// NoteSource tells who authored a note.
type NoteSource string

const (
	SourceBuyer  NoteSource = "buyer"
	SourceSeller NoteSource = "seller"
)

type Note struct {
	Author string     `json:"author" validate:"required"`
	Date   *time.Time `json:"date,omitempty"`
	ID     string     `json:"id" validate:"required"`
	Source NoteSource `json:"source,omitempty" validate:"omitempty,oneof=buyer seller"`
	Text   string     `json:"text" validate:"required"`
}

type SubUnit struct {
	SubUnitNumber string `json:"subUnitNumber"`
	SubUnitType   string `json:"subUnitType"`
}

type GeographicSubAddress struct {
	BuildingName        string    `json:"buildingName,omitempty"`
	LevelNumber         string    `json:"levelNumber,omitempty"`
	LevelType           string    `json:"levelType,omitempty"`
	PrivateStreetName   string    `json:"privateStreetName,omitempty"`
	PrivateStreetNumber string    `json:"privateStreetNumber,omitempty"`
	SubUnit             []SubUnit `json:"subUnit,omitempty"`
}

// FieldedAddress doubles as the product place: a place reference only
// carries the @schemaLocation/@type/role header, a fielded address fills the rest.
type FieldedAddress struct {
	SchemaLocation       string                `json:"@schemaLocation,omitempty"`
	Type                 string                `json:"@type,omitempty"`
	Role                 string                `json:"role,omitempty"`
	City                 string                `json:"city,omitempty"`
	Country              string                `json:"country,omitempty"`
	GeographicSubAddress *GeographicSubAddress `json:"geographicSubAddress,omitempty"`
	Locality             string                `json:"locality,omitempty"`
	Postcode             string                `json:"postcode,omitempty"`
	PostcodeExtension    string                `json:"postcodeExtension,omitempty"`
	StateOrProvince      string                `json:"stateOrProvince,omitempty"`
	StreetName           string                `json:"streetName,omitempty"`
	StreetNr             string                `json:"streetNr,omitempty"`
	StreetNrLast         string                `json:"streetNrLast,omitempty"`
	StreetNrLastSuffix   string                `json:"streetNrLastSuffix,omitempty"`
	StreetNrSuffix       string                `json:"streetNrSuffix,omitempty"`
	StreetSuffix         string                `json:"streetSuffix,omitempty"`
	StreetType           string                `json:"streetType,omitempty"`
}

type RelatedContactInformation struct {
	EmailAddress    string          `json:"emailAddress,omitempty"`
	Name            string          `json:"name,omitempty"`
	Number          string          `json:"number,omitempty"`
	NumberExtension string          `json:"numberExtension,omitempty"`
	Organization    string          `json:"organization,omitempty"`
	PostalAddress   *FieldedAddress `json:"postalAddress,omitempty"`
	Role            string          `json:"role,omitempty"`
}

type BillingAccountRef struct {
	ID string `json:"id" validate:"required"`
}

type Duration struct {
	Amount int    `json:"amount"`
	Units  string `json:"units" validate:"required,oneof=calendarMonths calendarDays calendarHours calendarMinutes businessDays businessHours businessMinutes"`
}

// EndOfTermAction values.
const (
	EndOfTermRoll           = "roll"
	EndOfTermAutoDisconnect = "autoDisconnect"
)

type ItemTerm struct {
	Description     string    `json:"description,omitempty"`
	Duration        Duration  `json:"duration"`
	EndOfTermAction string    `json:"endOfTermAction" validate:"required,oneof=roll autoDisconnect"`
	Name            string    `json:"name"`
	RollInterval    *Duration `json:"rollInterval,omitempty"`
}

type ProductOfferingRef struct {
	Href string `json:"href,omitempty"`
	ID   string `json:"id"`
}

type ProductRelationship struct {
	Href             string `json:"href,omitempty"`
	ID               string `json:"id"`
	RelationshipType string `json:"relationshipType"`
}

// Product is the MEF product ref-or-value. The configuration is product
// specific (keyed by its @type) so it stays an untyped document.
type Product struct {
	Href                 string                `json:"href,omitempty"`
	ID                   string                `json:"id,omitempty"`
	Place                []FieldedAddress      `json:"place,omitempty"`
	ProductConfiguration map[string]any        `json:"productConfiguration,omitempty"`
	ProductOffering      *ProductOfferingRef   `json:"productOffering,omitempty"`
	ProductRelationship  []ProductRelationship `json:"productRelationship,omitempty"`
}

type CoordinatedAction struct {
	CoordinatedActionDelay Duration `json:"coordinatedActionDelay"`
	CoordinationDependency string   `json:"coordinationDependency"`
	ItemID                 string   `json:"itemId"`
}

type ProductOfferingQualificationItemRef struct {
	AlternateProductOfferingProposalID string `json:"alternateProductOfferingProposalId,omitempty"`
	ID                                 string `json:"id"`
	ProductOfferingQualificationHref   string `json:"productOfferingQualificationHref,omitempty"`
	ProductOfferingQualificationID     string `json:"productOfferingQualificationId"`
}

type OrderItemRelationship struct {
	ID               string `json:"id"`
	RelationshipType string `json:"relationshipType"`
}

type QuoteItemRef struct {
	ID        string `json:"id"`
	QuoteHref string `json:"quoteHref,omitempty"`
	QuoteID   string `json:"quoteId"`
}

type ChargeRef struct {
	Href string `json:"href,omitempty"`
	ID   string `json:"id"`
}

type Milestone struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
	Note string    `json:"note,omitempty"`
}

type StateChange struct {
	ChangeDate   *time.Time `json:"changeDate,omitempty"`
	ChangeReason string     `json:"changeReason,omitempty"`
	State        string     `json:"state,omitempty"`
}

type TerminationError struct {
	Code         string `json:"code,omitempty"`
	PropertyPath string `json:"propertyPath,omitempty"`
	Value        string `json:"value,omitempty"`
}
