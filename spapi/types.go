// Package spapi is the client for the Selling Partner planning gateway:
// credential brokering, request signing, the retrying HTTP round trip, and a
// tolerant parsing layer that normalizes the remote API's shape-varying JSON
// into the structs the orchestrator consumes.
package spapi

// Address is the ship-from address sent with plan creation.
type Address struct {
	Name            string `json:"name"`
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvinceCode,omitempty"`
	PostalCode      string `json:"postalCode"`
	CountryCode     string `json:"countryCode"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	Email           string `json:"email,omitempty"`
}

// InboundPlan is the normalized remote plan.
type InboundPlan struct {
	ID        string
	Status    string
	Shipments []Shipment
}

type Shipment struct {
	ID                 string
	DestinationFC      string
	DestinationAddress string
	DestinationCountry string
	ConfirmationID     string
}

// PackingOption is one remote-proposed grouping of skus into boxes.
type PackingOption struct {
	ID              string
	Status          string
	PackingGroupIDs []string
	Discounts       []string
}

type PackingGroupItem struct {
	MSKU       string
	FNSKU      string
	Quantity   int
	LabelOwner string
	PrepOwner  string
}

// Operation is the status of an asynchronous remote operation.
type Operation struct {
	ID       string
	Status   string
	Problems []Problem
}

// Operation statuses with terminal semantics.
const (
	OperationStatusSuccess    = "SUCCESS"
	OperationStatusFailed     = "FAILED"
	OperationStatusInProgress = "IN_PROGRESS"
)

func (o Operation) Terminal() bool {
	return o.Status == OperationStatusSuccess || o.Status == OperationStatusFailed
}

// Problem is one structured validation error attached to a failed operation.
type Problem struct {
	Code     string
	Message  string
	Severity string
	Details  string
}

// Listing is the normalized listing lookup result.
type Listing struct {
	ASIN string
	// Statuses are the per-marketplace status codes, e.g. BUYABLE or
	// DISCOVERABLE. HasStatuses distinguishes an omitted status array
	// from an empty one.
	Statuses    []string
	HasStatuses bool
	// ExpirationDated is true when the listing attributes flag the
	// product as expiration dated or carry a shelf-life attribute.
	ExpirationDated bool
}

// CatalogItem is the normalized catalog lookup result.
type CatalogItem struct {
	ASIN            string
	Title           string
	ExpirationDated bool
}

// PrepGuidance is the normalized per-sku prep instruction set.
type PrepGuidance struct {
	SKU                string
	BarcodeInstruction string
	PrepGuidance       string
	PrepInstructions   []string
}

// Barcode instruction values the label-owner heuristic branches on.
const (
	BarcodeCanUseOriginal    = "CanUseOriginalBarcode"
	BarcodeMustProvideFNSKU  = "MustProvideFNSKULabel"
	PrepInstructionLabeling  = "Labeling"
	PrepGuidanceNoneRequired = "NoAdditionalPrepRequired"
)
