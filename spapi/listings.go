package spapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	listingsBasePath = "/listings/2021-08-01"
	catalogBasePath  = "/catalog/2022-04-01"
	prepPath         = "/fba/inbound/v0/prepInstructions"
)

type GetListingsItemInput struct {
	SellerID      string
	SKU           string
	MarketplaceID string
}

type GetListingsItemOutput struct {
	Listing *Listing
}

// GetListingsItem looks up one listing. A missing listing surfaces as an
// APIStatusError with NotFound true, which the eligibility waterfall maps
// to the missing state.
func (c *Client) GetListingsItem(ctx context.Context, params *GetListingsItemInput) (*GetListingsItemOutput, error) {
	path := listingsBasePath + "/items/" + params.SellerID + "/" + url.PathEscape(params.SKU)
	query := url.Values{
		"marketplaceIds": []string{params.MarketplaceID},
		"includedData":   []string{"summaries,attributes"},
	}
	body, err := c.do(ctx, "GetListingsItem", http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	listing, err := decodeListing("GetListingsItem", body)
	if err != nil {
		return nil, err
	}
	return &GetListingsItemOutput{Listing: listing}, nil
}

type GetCatalogItemInput struct {
	ASIN          string
	MarketplaceID string
}

type GetCatalogItemOutput struct {
	Item *CatalogItem
}

func (c *Client) GetCatalogItem(ctx context.Context, params *GetCatalogItemInput) (*GetCatalogItemOutput, error) {
	path := catalogBasePath + "/items/" + url.PathEscape(params.ASIN)
	query := url.Values{
		"marketplaceIds": []string{params.MarketplaceID},
		"includedData":   []string{"summaries,attributes"},
	}
	body, err := c.do(ctx, "GetCatalogItem", http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	item, err := decodeCatalogItem("GetCatalogItem", body)
	if err != nil {
		return nil, err
	}
	return &GetCatalogItemOutput{Item: item}, nil
}

type GetListingsRestrictionsInput struct {
	ASIN          string
	SellerID      string
	MarketplaceID string
}

type GetListingsRestrictionsOutput struct {
	ReasonCodes []string
}

func (c *Client) GetListingsRestrictions(ctx context.Context, params *GetListingsRestrictionsInput) (*GetListingsRestrictionsOutput, error) {
	query := url.Values{
		"asin":           []string{params.ASIN},
		"sellerId":       []string{params.SellerID},
		"marketplaceIds": []string{params.MarketplaceID},
		"conditionType":  []string{"new_new"},
	}
	body, err := c.do(ctx, "GetListingsRestrictions", http.MethodGet, listingsBasePath+"/restrictions", query, nil)
	if err != nil {
		return nil, err
	}
	reasons, err := decodeRestrictionReasons("GetListingsRestrictions", body)
	if err != nil {
		return nil, err
	}
	return &GetListingsRestrictionsOutput{ReasonCodes: reasons}, nil
}

type GetPrepInstructionsInput struct {
	ShipToCountryCode string
	SKUs              []string
}

type GetPrepInstructionsOutput struct {
	// BySKU maps the seller sku to its guidance. SKUs the remote API
	// reported as invalid are absent.
	BySKU map[string]PrepGuidance
}

// GetPrepInstructions fetches prep and label guidance for the whole sku set
// in one batched call. The v0 endpoint takes its list as indexed query
// parameters and caps the batch at 50 skus.
func (c *Client) GetPrepInstructions(ctx context.Context, params *GetPrepInstructionsInput) (*GetPrepInstructionsOutput, error) {
	out := &GetPrepInstructionsOutput{BySKU: make(map[string]PrepGuidance)}
	const batchSize = 50
	for start := 0; start < len(params.SKUs); start += batchSize {
		end := start + batchSize
		if end > len(params.SKUs) {
			end = len(params.SKUs)
		}
		query := url.Values{
			"ShipToCountryCode": []string{strings.ToUpper(params.ShipToCountryCode)},
		}
		for i, sku := range params.SKUs[start:end] {
			query.Set(fmt.Sprintf("SellerSKUList.Id.%d", i+1), sku)
		}
		body, err := c.do(ctx, "GetPrepInstructions", http.MethodGet, prepPath, query, nil)
		if err != nil {
			return nil, err
		}
		batch, err := decodePrepInstructions("GetPrepInstructions", body)
		if err != nil {
			return nil, err
		}
		for sku, guidance := range batch {
			out.BySKU[sku] = guidance
		}
	}
	return out, nil
}
