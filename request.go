package inboundplan

import (
	"sort"
	"strings"
)

// ExpirationSource records where a line item's expiration date came from.
// Caller-supplied values always win over persisted ones, which in turn win
// over auto-computed ones.
type ExpirationSource string

const (
	ExpirationSourceManual   ExpirationSource = "manual"
	ExpirationSourceAuto16M  ExpirationSource = "auto_16m"
	ExpirationSourceExisting ExpirationSource = "existing"
)

// Owner is the responsibility marker for labeling and prep work on a unit.
type Owner string

const (
	OwnerNone   Owner = "NONE"
	OwnerSeller Owner = "SELLER"
	OwnerAmazon Owner = "AMAZON"
)

// ShipmentRequest is the locally staged request this orchestrator turns into
// a confirmed inbound plan. It is created elsewhere; this component only
// mutates the plan/packing identifiers, the snapshot, and line item
// quantity/expiration fields.
type ShipmentRequest struct {
	ID                 string     `json:"id" dynamodbav:"id"`
	CompanyID          string     `json:"company_id" dynamodbav:"company_id"`
	DestinationCountry string     `json:"destination_country" dynamodbav:"destination_country"`
	OriginCountry      string     `json:"origin_country" dynamodbav:"origin_country"`
	Items              []LineItem `json:"items" dynamodbav:"items"`
	// PlanID holds either a confirmed remote plan id or a short-lived
	// lock token while one invocation is creating a plan. Empty means
	// no plan exists.
	PlanID            string    `json:"plan_id" dynamodbav:"plan_id"`
	PackingOptionID   string    `json:"packing_option_id" dynamodbav:"packing_option_id"`
	PlacementOptionID string    `json:"placement_option_id" dynamodbav:"placement_option_id"`
	Snapshot          *Snapshot `json:"snapshot" dynamodbav:"snapshot"`
	Version           int       `json:"version" dynamodbav:"version"`
	CreatedAt         string    `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt         string    `json:"updated_at" dynamodbav:"updated_at"`
}

// Snapshot is the durable last-known plan metadata. Signature is the item
// set fingerprint taken when the plan was created; a mismatch on a later
// invocation invalidates the cached plan.
type Snapshot struct {
	Signature       string `json:"signature" dynamodbav:"signature"`
	PlanID          string `json:"plan_id" dynamodbav:"plan_id"`
	PlanStatus      string `json:"plan_status" dynamodbav:"plan_status"`
	PackingOptionID string `json:"packing_option_id" dynamodbav:"packing_option_id"`
	OperationID     string `json:"operation_id" dynamodbav:"operation_id"`
}

type LineItem struct {
	ID               string           `json:"id" dynamodbav:"id"`
	SKU              string           `json:"sku" dynamodbav:"sku"`
	ASIN             string           `json:"asin" dynamodbav:"asin"`
	Quantity         int              `json:"quantity" dynamodbav:"quantity"`
	SentQuantity     int              `json:"sent_quantity" dynamodbav:"sent_quantity"`
	ExpirationDate   string           `json:"expiration_date" dynamodbav:"expiration_date"`
	ExpirationSource ExpirationSource `json:"expiration_source" dynamodbav:"expiration_source"`
}

// EffectiveQuantity is the quantity that actually ships: the sent quantity
// when one has been recorded, the requested quantity otherwise.
func (li LineItem) EffectiveQuantity() int {
	if li.SentQuantity > 0 {
		return li.SentQuantity
	}
	return li.Quantity
}

// AggregatedLineItem collapses LineItems by normalized sku. The remote
// planning API treats the sku as its unique key and merges duplicates itself,
// so duplicates must be summed before the request is built.
type AggregatedLineItem struct {
	SKU              string
	ASIN             string
	Quantity         int
	ItemIDs          []string
	ExpirationDate   string
	ExpirationSource ExpirationSource
}

// NormalizeSKU trims surrounding whitespace. Anything left empty is not a
// shippable item.
func NormalizeSKU(sku string) string {
	return strings.TrimSpace(sku)
}

// AggregateItems collapses the request's line items by normalized sku,
// summing effective quantities and collecting originating item ids. Items
// whose normalized sku is empty are returned separately so callers can
// reject them before any remote call. Aggregates with quantity <= 0 are
// dropped. The result is sorted by sku for deterministic request bodies.
func AggregateItems(items []LineItem) (aggregated []AggregatedLineItem, emptySKU []LineItem) {
	bySKU := make(map[string]*AggregatedLineItem)
	var order []string
	for _, li := range items {
		sku := NormalizeSKU(li.SKU)
		if sku == "" {
			emptySKU = append(emptySKU, li)
			continue
		}
		agg, ok := bySKU[sku]
		if !ok {
			agg = &AggregatedLineItem{SKU: sku}
			bySKU[sku] = agg
			order = append(order, sku)
		}
		agg.Quantity += li.EffectiveQuantity()
		agg.ItemIDs = append(agg.ItemIDs, li.ID)
		if agg.ASIN == "" {
			agg.ASIN = strings.TrimSpace(li.ASIN)
		}
		if agg.ExpirationDate == "" && li.ExpirationDate != "" {
			agg.ExpirationDate = li.ExpirationDate
			agg.ExpirationSource = ExpirationSourceExisting
		}
	}
	sort.Strings(order)
	for _, sku := range order {
		if bySKU[sku].Quantity <= 0 {
			continue
		}
		aggregated = append(aggregated, *bySKU[sku])
	}
	return aggregated, emptySKU
}

// OwnerOverride is a partial correction of ownership fields for one sku,
// learned from a rejected create attempt. Nil fields mean no correction.
type OwnerOverride struct {
	LabelOwner *Owner
	PrepOwner  *Owner
}

// OwnerOverrides accumulates corrections across repair attempts within one
// invocation. Merging never removes an existing correction.
type OwnerOverrides map[string]OwnerOverride

func (o OwnerOverrides) Merge(sku string, override OwnerOverride) {
	cur := o[sku]
	if override.LabelOwner != nil {
		cur.LabelOwner = override.LabelOwner
	}
	if override.PrepOwner != nil {
		cur.PrepOwner = override.PrepOwner
	}
	o[sku] = cur
}
