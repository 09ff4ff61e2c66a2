package test

import (
	"github.com/fulfillkit/inboundplan"
	"github.com/fulfillkit/inboundplan/spapi"
)

const (
	RequestID     = "0f9bd6c6-3d49-4c3b-9c3e-8f1f29a0f6d1"
	SellerID      = "A1SELLER"
	MarketplaceID = "ATVPDKIKX0DER"
	PlanID        = "wf1234567890abcdef"
)

func NewShipmentRequest(id string) *inboundplan.ShipmentRequest {
	return &inboundplan.ShipmentRequest{
		ID:                 id,
		CompanyID:          "company-1",
		DestinationCountry: "US",
		OriginCountry:      "US",
		Version:            1,
		Items: []inboundplan.LineItem{
			{ID: "item-1", SKU: "SKU-ALPHA", ASIN: "B000000001", Quantity: 10},
			{ID: "item-2", SKU: "SKU-BETA", ASIN: "B000000002", Quantity: 5},
		},
	}
}

func NewShipFrom() inboundplan.Address {
	return inboundplan.Address{
		Name:            "Acme Fulfillment",
		AddressLine1:    "100 Warehouse Way",
		City:            "Reno",
		StateOrProvince: "NV",
		PostalCode:      "89501",
		CountryCode:     "US",
	}
}

func NewConfig() *inboundplan.Config {
	return &inboundplan.Config{
		SellerID:      SellerID,
		MarketplaceID: MarketplaceID,
		ShipFrom:      NewShipFrom(),
	}
}

func NewBuyableListing(asin string) *spapi.Listing {
	return &spapi.Listing{
		ASIN:        asin,
		Statuses:    []string{"BUYABLE"},
		HasStatuses: true,
	}
}

func NewPrepGuidance(sku string) spapi.PrepGuidance {
	return spapi.PrepGuidance{
		SKU:                sku,
		BarcodeInstruction: spapi.BarcodeCanUseOriginal,
		PrepGuidance:       spapi.PrepGuidanceNoneRequired,
	}
}
