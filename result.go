package inboundplan

// BlockedReason enumerates why an item blocks plan creation.
type BlockedReason string

const (
	BlockedReasonEmptySKU          BlockedReason = "EMPTY_SKU"
	BlockedReasonIneligible        BlockedReason = "INELIGIBLE"
	BlockedReasonMissingExpiration BlockedReason = "MISSING_EXPIRATION"
	BlockedReasonPlanCreation      BlockedReason = "PLAN_CREATION_FAILED"
	BlockedReasonPlanErrored       BlockedReason = "PLAN_ERRORED"
)

type BlockedItem struct {
	SKU    string        `json:"sku,omitempty"`
	ItemID string        `json:"itemId,omitempty"`
	Reason BlockedReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// PlanResult is the structured outcome of one orchestration run. Business
// rule failures set Blocking and itemize the cause; they are not errors.
type PlanResult struct {
	Blocking      bool                   `json:"blocking"`
	BlockedItems  []BlockedItem          `json:"blockedItems,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
	ShipFrom      *Address               `json:"shipFrom,omitempty"`
	Items         []PlanItem             `json:"items,omitempty"`
	PackingGroups []PackingGroup         `json:"packingGroups,omitempty"`
	Shipments     []ShipmentSummary      `json:"shipments,omitempty"`
	Eligibility   []SkuEligibilityResult `json:"eligibility,omitempty"`

	PlanID          string `json:"planId,omitempty"`
	PlanStatus      string `json:"planStatus,omitempty"`
	PackingOptionID string `json:"packingOptionId,omitempty"`
	OperationID     string `json:"operationId,omitempty"`
	OperationStatus string `json:"operationStatus,omitempty"`
}

func blockingResult(items ...BlockedItem) *PlanResult {
	return &PlanResult{Blocking: true, BlockedItems: items}
}
