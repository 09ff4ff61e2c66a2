package inboundplan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan/spapi"
)

// EligibilityChecker runs the per-sku precheck waterfall: listing lookup,
// catalog fallback, then a best-effort restriction check. Its output is
// informational metadata on the final plan, but blocking states stop the
// orchestrator before any plan creation call.
type EligibilityChecker struct {
	api           spapi.API
	sellerID      string
	marketplaceID string
	logger        *zap.Logger
}

func NewEligibilityChecker(api spapi.API, sellerID, marketplaceID string, logger *zap.Logger) *EligibilityChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityChecker{
		api:           api,
		sellerID:      sellerID,
		marketplaceID: marketplaceID,
		logger:        logger,
	}
}

// PrecheckOutcome carries the waterfall results plus the expiration-dated
// flags observed on the way, so the compliance resolver does not repeat the
// listing lookups.
type PrecheckOutcome struct {
	Results []SkuEligibilityResult
	// ExpirationDated marks skus whose listing or catalog attributes
	// flag the product as expiration dated.
	ExpirationDated map[string]bool
}

func (o *PrecheckOutcome) BlockingResults() []SkuEligibilityResult {
	var blocking []SkuEligibilityResult
	for _, r := range o.Results {
		if r.State.Blocking() {
			blocking = append(blocking, r)
		}
	}
	return blocking
}

func (c *EligibilityChecker) Check(ctx context.Context, items []AggregatedLineItem) *PrecheckOutcome {
	outcome := &PrecheckOutcome{
		ExpirationDated: make(map[string]bool),
	}
	for _, item := range items {
		result := c.checkOne(ctx, item, outcome)
		outcome.Results = append(outcome.Results, result)
	}
	return outcome
}

func (c *EligibilityChecker) checkOne(ctx context.Context, item AggregatedLineItem, outcome *PrecheckOutcome) SkuEligibilityResult {
	result := SkuEligibilityResult{SKU: item.SKU}

	listingOut, err := c.api.GetListingsItem(ctx, &spapi.GetListingsItemInput{
		SellerID:      c.sellerID,
		SKU:           item.SKU,
		MarketplaceID: c.marketplaceID,
	})
	if err != nil {
		var statusErr spapi.APIStatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			result.State = EligibilityMissing
			result.Reason = "no listing exists for this sku"
			return result
		}
		// The listing lookup failed for some other reason; fall through
		// to the catalog before giving up.
		return c.catalogFallback(ctx, item, outcome)
	}

	listing := listingOut.Listing
	if listing.ExpirationDated {
		outcome.ExpirationDated[item.SKU] = true
	}

	switch classifyStatuses(listing) {
	case EligibilityInactive:
		result.State = EligibilityInactive
		result.Reason = fmt.Sprintf("listing status %v is not active", listing.Statuses)
		return result
	default:
		result.State = EligibilityOK
		if hasStatus(listing.Statuses, "DISCOVERABLE") && !hasStatus(listing.Statuses, "BUYABLE") {
			result.Reason = "listing is discoverable only"
		}
	}

	asin := listing.ASIN
	if asin == "" {
		asin = item.ASIN
	}
	if state, reason, ok := c.restrictionCheck(ctx, asin); ok {
		result.State = state
		result.Reason = reason
	}
	return result
}

// classifyStatuses maps the per-marketplace status codes to an eligibility
// state. A listing with an omitted status array is eligible; a listing that
// is merely discoverable is treated as eligible too.
func classifyStatuses(listing *spapi.Listing) EligibilityState {
	if !listing.HasStatuses {
		return EligibilityOK
	}
	if hasStatus(listing.Statuses, "BUYABLE") || hasStatus(listing.Statuses, "DISCOVERABLE") {
		return EligibilityOK
	}
	if len(listing.Statuses) == 0 {
		return EligibilityOK
	}
	return EligibilityInactive
}

func hasStatus(statuses []string, want string) bool {
	for _, s := range statuses {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

func (c *EligibilityChecker) catalogFallback(ctx context.Context, item AggregatedLineItem, outcome *PrecheckOutcome) SkuEligibilityResult {
	result := SkuEligibilityResult{SKU: item.SKU}
	if item.ASIN == "" {
		result.State = EligibilityUnknown
		result.Reason = "listing lookup failed and no asin is available for a catalog fallback"
		return result
	}
	catalogOut, err := c.api.GetCatalogItem(ctx, &spapi.GetCatalogItemInput{
		ASIN:          item.ASIN,
		MarketplaceID: c.marketplaceID,
	})
	if err != nil {
		c.logger.Warn("catalog fallback failed",
			zap.String("sku", item.SKU),
			zap.String("asin", item.ASIN),
			zap.Error(err),
		)
		result.State = EligibilityUnknown
		result.Reason = "listing and catalog lookups both failed"
		return result
	}
	if catalogOut.Item.ExpirationDated {
		outcome.ExpirationDated[item.SKU] = true
	}
	result.State = EligibilityOK
	result.Reason = "listing lookup failed; catalog confirms the item exists"
	return result
}

// restrictionCheck is best effort: any failure is logged and ignored, and
// only an explicit restriction reason changes the state.
func (c *EligibilityChecker) restrictionCheck(ctx context.Context, asin string) (EligibilityState, string, bool) {
	if asin == "" {
		return "", "", false
	}
	out, err := c.api.GetListingsRestrictions(ctx, &spapi.GetListingsRestrictionsInput{
		ASIN:          asin,
		SellerID:      c.sellerID,
		MarketplaceID: c.marketplaceID,
	})
	if err != nil {
		c.logger.Warn("restriction check failed", zap.String("asin", asin), zap.Error(err))
		return "", "", false
	}
	for _, code := range out.ReasonCodes {
		switch strings.ToUpper(code) {
		case "NOT_ELIGIBLE", "RESTRICTED":
			return EligibilityRestricted, fmt.Sprintf("restriction reason %s", code), true
		case "UNAVAILABLE":
			return EligibilityInboundUnavailable, fmt.Sprintf("restriction reason %s", code), true
		}
	}
	return "", "", false
}
