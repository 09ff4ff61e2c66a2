package inboundplan

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan/internal/clock"
	"github.com/fulfillkit/inboundplan/internal/constant"
	"github.com/fulfillkit/inboundplan/spapi"
)

// ComplianceResolver fetches prep and label guidance for the sku set and
// derives per-sku expiration requirements and ownership defaults. Guidance
// is advisory: a failed fetch degrades to a warning, the remote API's own
// validation errors remain the authoritative correction source.
type ComplianceResolver struct {
	api    spapi.API
	clock  clock.Clock
	logger *zap.Logger
}

func NewComplianceResolver(api spapi.API, clk clock.Clock, logger *zap.Logger) *ComplianceResolver {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceResolver{api: api, clock: clk, logger: logger}
}

// ExpirationDecision is the final (date, source) pair for one sku. Changed
// is true when it differs from what the line items already carry, i.e. it
// needs persisting.
type ExpirationDecision struct {
	Date    string
	Source  ExpirationSource
	Changed bool
}

type ComplianceResult struct {
	Guidance    map[string]spapi.PrepGuidance
	Expirations map[string]ExpirationDecision
	Warnings    []string
}

// Resolve computes guidance and expiration decisions for the aggregated sku
// set. manualDates are caller-supplied overrides keyed by sku;
// expirationDated marks skus whose listing attributes flagged an expiration
// dated product during the precheck.
func (r *ComplianceResolver) Resolve(ctx context.Context, destCountry string, items []AggregatedLineItem, manualDates map[string]string, expirationDated map[string]bool) *ComplianceResult {
	result := &ComplianceResult{
		Guidance:    make(map[string]spapi.PrepGuidance),
		Expirations: make(map[string]ExpirationDecision),
	}

	skus := make([]string, 0, len(items))
	for _, item := range items {
		skus = append(skus, item.SKU)
	}
	prepOut, err := r.api.GetPrepInstructions(ctx, &spapi.GetPrepInstructionsInput{
		ShipToCountryCode: destCountry,
		SKUs:              skus,
	})
	if err != nil {
		r.logger.Warn("prep instruction fetch failed", zap.Error(err))
		result.Warnings = append(result.Warnings, "prep guidance unavailable: "+err.Error())
	} else {
		result.Guidance = prepOut.BySKU
	}

	for _, item := range items {
		decision := r.resolveExpiration(item, result.Guidance[item.SKU], manualDates[item.SKU], expirationDated[item.SKU])
		if decision.Date != "" || decision.Changed {
			result.Expirations[item.SKU] = decision
		}
	}
	return result
}

// resolveExpiration applies the precedence manual > existing > auto_16m.
// The auto value only appears when one of the two independent requirement
// signals fired and no value is known yet.
func (r *ComplianceResolver) resolveExpiration(item AggregatedLineItem, guidance spapi.PrepGuidance, manualDate string, attributeFlag bool) ExpirationDecision {
	if manualDate != "" {
		return ExpirationDecision{
			Date:    manualDate,
			Source:  ExpirationSourceManual,
			Changed: manualDate != item.ExpirationDate || item.ExpirationSource != ExpirationSourceManual,
		}
	}
	if item.ExpirationDate != "" {
		return ExpirationDecision{
			Date:   item.ExpirationDate,
			Source: ExpirationSourceExisting,
		}
	}
	if guidanceMentionsExpiration(guidance) || attributeFlag {
		date := clock.FormatDate(r.clock.Now().AddDate(0, constant.AutoExpirationMonths, 0))
		return ExpirationDecision{
			Date:    date,
			Source:  ExpirationSourceAuto16M,
			Changed: true,
		}
	}
	return ExpirationDecision{}
}

func guidanceMentionsExpiration(g spapi.PrepGuidance) bool {
	for _, instruction := range g.PrepInstructions {
		if strings.Contains(strings.ToLower(instruction), "expiration") {
			return true
		}
	}
	return false
}

// DeriveOwners computes the default label and prep ownership for one sku
// from its guidance. Seller barcode usable means no labeling is needed;
// relabeling or an item-labeling prep instruction puts labeling on the
// seller. Prep ownership follows whether prep is required at all. These are
// only defaults: corrections learned from rejected create attempts, and
// confirmed packing group data, both override them.
func DeriveOwners(g spapi.PrepGuidance) (labelOwner, prepOwner Owner, prepRequired bool) {
	labelOwner = OwnerNone
	switch {
	case g.BarcodeInstruction == spapi.BarcodeCanUseOriginal:
		labelOwner = OwnerNone
	case g.BarcodeInstruction == spapi.BarcodeMustProvideFNSKU:
		labelOwner = OwnerSeller
	case hasInstruction(g.PrepInstructions, spapi.PrepInstructionLabeling):
		labelOwner = OwnerSeller
	}

	prepRequired = len(g.PrepInstructions) > 0 ||
		(g.PrepGuidance != "" && g.PrepGuidance != spapi.PrepGuidanceNoneRequired)
	if prepRequired {
		prepOwner = OwnerSeller
	} else {
		prepOwner = OwnerNone
	}
	return labelOwner, prepOwner, prepRequired
}

func hasInstruction(instructions []string, want string) bool {
	for _, i := range instructions {
		if strings.EqualFold(i, want) {
			return true
		}
	}
	return false
}
