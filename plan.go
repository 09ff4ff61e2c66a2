package inboundplan

// InboundPlan statuses the orchestrator branches on. Anything else is
// treated as pending.
const (
	PlanStatusActive  = "ACTIVE"
	PlanStatusErrored = "ERRORED"
)

// EligibilityState classifies one sku after the precheck waterfall.
type EligibilityState string

const (
	EligibilityOK                 EligibilityState = "ok"
	EligibilityMissing            EligibilityState = "missing"
	EligibilityInactive           EligibilityState = "inactive"
	EligibilityRestricted         EligibilityState = "restricted"
	EligibilityInboundUnavailable EligibilityState = "inbound_unavailable"
	EligibilityUnknown            EligibilityState = "unknown"
)

// Blocking reports whether this state must stop plan creation.
func (s EligibilityState) Blocking() bool {
	switch s {
	case EligibilityMissing, EligibilityInactive, EligibilityRestricted, EligibilityInboundUnavailable:
		return true
	}
	return false
}

type SkuEligibilityResult struct {
	SKU    string           `json:"sku"`
	State  EligibilityState `json:"state"`
	Reason string           `json:"reason,omitempty"`
}

// PlanItem is one sku entry of the assembled plan, with the prep, label and
// expiration metadata the caller renders.
type PlanItem struct {
	SKU      string `json:"sku"`
	ASIN     string `json:"asin,omitempty"`
	FNSKU    string `json:"fnsku,omitempty"`
	Quantity int    `json:"quantity"`
	// LabelOwner and PrepOwner start from the guidance heuristic and are
	// overlaid by confirmed packing group data when present; the packing
	// group assignment wins.
	LabelOwner       Owner            `json:"labelOwner"`
	PrepOwner        Owner            `json:"prepOwner"`
	PrepRequired     bool             `json:"prepRequired"`
	PrepInstructions []string         `json:"prepInstructions,omitempty"`
	ExpirationDate   string           `json:"expirationDate,omitempty"`
	ExpirationSource ExpirationSource `json:"expirationSource,omitempty"`
}

type PackingGroup struct {
	ID    string             `json:"id"`
	Items []PackingGroupItem `json:"items"`
}

type PackingGroupItem struct {
	SKU        string `json:"sku"`
	FNSKU      string `json:"fnsku,omitempty"`
	Quantity   int    `json:"quantity"`
	LabelOwner Owner  `json:"labelOwner,omitempty"`
}

type ShipmentSummary struct {
	ID                   string `json:"id"`
	DestinationFC        string `json:"destinationFc,omitempty"`
	DestinationCountry   string `json:"destinationCountry,omitempty"`
	DestinationAddress   string `json:"destinationAddress,omitempty"`
	ShipmentConfirmation string `json:"shipmentConfirmationId,omitempty"`
}

// Address is the ship-from summary included in the response.
type Address struct {
	Name            string `json:"name"`
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince,omitempty"`
	PostalCode      string `json:"postalCode"`
	CountryCode     string `json:"countryCode"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	Email           string `json:"email,omitempty"`
}
