package inboundplan_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fulfillkit/inboundplan"
	"github.com/fulfillkit/inboundplan/internal/mock"
	"github.com/fulfillkit/inboundplan/internal/test"
	"github.com/fulfillkit/inboundplan/spapi"
)

func okRestrictions(ctx context.Context, params *spapi.GetListingsRestrictionsInput) (*spapi.GetListingsRestrictionsOutput, error) {
	return &spapi.GetListingsRestrictionsOutput{}, nil
}

func TestEligibilityWaterfall(t *testing.T) {
	notFound := spapi.APIStatusError{Operation: "GetListingsItem", Status: http.StatusNotFound}

	tests := []struct {
		name      string
		item      inboundplan.AggregatedLineItem
		api       mock.API
		wantState inboundplan.EligibilityState
		wantDated bool
	}{
		{
			name: "buyable listing is eligible",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: test.NewBuyableListing("B0A")}, nil
				},
				GetListingsRestrictionsFunc: okRestrictions,
			},
			wantState: inboundplan.EligibilityOK,
		},
		{
			name: "discoverable only is still eligible",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: &spapi.Listing{
						ASIN: "B0A", Statuses: []string{"DISCOVERABLE"}, HasStatuses: true,
					}}, nil
				},
				GetListingsRestrictionsFunc: okRestrictions,
			},
			wantState: inboundplan.EligibilityOK,
		},
		{
			name: "omitted status array is eligible",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: &spapi.Listing{ASIN: "B0A"}}, nil
				},
				GetListingsRestrictionsFunc: okRestrictions,
			},
			wantState: inboundplan.EligibilityOK,
		},
		{
			name: "non-buyable status is inactive",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: &spapi.Listing{
						ASIN: "B0A", Statuses: []string{"INCOMPLETE"}, HasStatuses: true,
					}}, nil
				},
			},
			wantState: inboundplan.EligibilityInactive,
		},
		{
			name: "missing listing",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return nil, notFound
				},
			},
			wantState: inboundplan.EligibilityMissing,
		},
		{
			name: "listing failure recovers through catalog",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return nil, errors.New("transient")
				},
				GetCatalogItemFunc: func(ctx context.Context, params *spapi.GetCatalogItemInput) (*spapi.GetCatalogItemOutput, error) {
					return &spapi.GetCatalogItemOutput{Item: &spapi.CatalogItem{ASIN: "B0A", ExpirationDated: true}}, nil
				},
			},
			wantState: inboundplan.EligibilityOK,
			wantDated: true,
		},
		{
			name: "listing failure without asin is unknown",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return nil, errors.New("transient")
				},
			},
			wantState: inboundplan.EligibilityUnknown,
		},
		{
			name: "restricted reason blocks",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: test.NewBuyableListing("B0A")}, nil
				},
				GetListingsRestrictionsFunc: func(ctx context.Context, params *spapi.GetListingsRestrictionsInput) (*spapi.GetListingsRestrictionsOutput, error) {
					return &spapi.GetListingsRestrictionsOutput{ReasonCodes: []string{"RESTRICTED"}}, nil
				},
			},
			wantState: inboundplan.EligibilityRestricted,
		},
		{
			name: "unavailable reason blocks separately",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: test.NewBuyableListing("B0A")}, nil
				},
				GetListingsRestrictionsFunc: func(ctx context.Context, params *spapi.GetListingsRestrictionsInput) (*spapi.GetListingsRestrictionsOutput, error) {
					return &spapi.GetListingsRestrictionsOutput{ReasonCodes: []string{"UNAVAILABLE"}}, nil
				},
			},
			wantState: inboundplan.EligibilityInboundUnavailable,
		},
		{
			name: "restriction check failure is ignored",
			item: inboundplan.AggregatedLineItem{SKU: "SKU-A", ASIN: "B0A"},
			api: mock.API{
				GetListingsItemFunc: func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
					return &spapi.GetListingsItemOutput{Listing: test.NewBuyableListing("B0A")}, nil
				},
				GetListingsRestrictionsFunc: func(ctx context.Context, params *spapi.GetListingsRestrictionsInput) (*spapi.GetListingsRestrictionsOutput, error) {
					return nil, errors.New("transient")
				},
			},
			wantState: inboundplan.EligibilityOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := inboundplan.NewEligibilityChecker(tt.api, test.SellerID, test.MarketplaceID, nil)
			outcome := checker.Check(context.Background(), []inboundplan.AggregatedLineItem{tt.item})
			if len(outcome.Results) != 1 {
				t.Fatalf("expected one result, got %d", len(outcome.Results))
			}
			if outcome.Results[0].State != tt.wantState {
				t.Errorf("state: got %s, want %s", outcome.Results[0].State, tt.wantState)
			}
			if outcome.ExpirationDated[tt.item.SKU] != tt.wantDated {
				t.Errorf("expiration dated: got %v, want %v", outcome.ExpirationDated[tt.item.SKU], tt.wantDated)
			}
		})
	}
}

func TestBlockingResults(t *testing.T) {
	outcome := &inboundplan.PrecheckOutcome{
		Results: []inboundplan.SkuEligibilityResult{
			{SKU: "a", State: inboundplan.EligibilityOK},
			{SKU: "b", State: inboundplan.EligibilityMissing},
			{SKU: "c", State: inboundplan.EligibilityUnknown},
			{SKU: "d", State: inboundplan.EligibilityRestricted},
		},
	}
	blocking := outcome.BlockingResults()
	if len(blocking) != 2 {
		t.Fatalf("expected 2 blocking results, got %d", len(blocking))
	}
	if blocking[0].SKU != "b" || blocking[1].SKU != "d" {
		t.Errorf("unexpected blocking set: %+v", blocking)
	}
}
