package spapi

import (
	"context"
	"net/http"
	"net/url"
)

const inboundBasePath = "/inbound/fba/2024-03-20"

// CreateInboundPlanItem is one per-sku entry of the plan request body. The
// zero Expiration is omitted from the wire.
type CreateInboundPlanItem struct {
	MSKU       string `json:"msku"`
	Quantity   int    `json:"quantity"`
	LabelOwner string `json:"labelOwner"`
	PrepOwner  string `json:"prepOwner"`
	Expiration string `json:"expiration,omitempty"`
}

type CreateInboundPlanInput struct {
	Name                    string                  `json:"name"`
	SourceAddress           Address                 `json:"sourceAddress"`
	DestinationMarketplaces []string                `json:"destinationMarketplaces"`
	Items                   []CreateInboundPlanItem `json:"items"`
}

type CreateInboundPlanOutput struct {
	InboundPlanID string
	OperationID   string
}

// CreateInboundPlan submits a new plan. Creation is asynchronous: the
// returned operation id must be polled to learn whether the plan was
// accepted or rejected with validation problems.
func (c *Client) CreateInboundPlan(ctx context.Context, params *CreateInboundPlanInput) (*CreateInboundPlanOutput, error) {
	body, err := c.do(ctx, "CreateInboundPlan", http.MethodPost, inboundBasePath+"/inboundPlans", nil, params)
	if err != nil {
		return nil, err
	}
	m, err := decodeEnvelope("CreateInboundPlan", body)
	if err != nil {
		return nil, err
	}
	return &CreateInboundPlanOutput{
		InboundPlanID: pickString(m, "inboundPlanId", "planId"),
		OperationID:   pickString(m, "operationId"),
	}, nil
}

type GetInboundPlanInput struct {
	InboundPlanID string
}

type GetInboundPlanOutput struct {
	Plan *InboundPlan
}

func (c *Client) GetInboundPlan(ctx context.Context, params *GetInboundPlanInput) (*GetInboundPlanOutput, error) {
	body, err := c.do(ctx, "GetInboundPlan", http.MethodGet, inboundBasePath+"/inboundPlans/"+params.InboundPlanID, nil, nil)
	if err != nil {
		return nil, err
	}
	plan, err := decodeInboundPlan("GetInboundPlan", body)
	if err != nil {
		return nil, err
	}
	return &GetInboundPlanOutput{Plan: plan}, nil
}

type GetOperationInput struct {
	OperationID string
}

type GetOperationOutput struct {
	Operation *Operation
}

func (c *Client) GetOperation(ctx context.Context, params *GetOperationInput) (*GetOperationOutput, error) {
	body, err := c.do(ctx, "GetOperation", http.MethodGet, inboundBasePath+"/operations/"+params.OperationID, nil, nil)
	if err != nil {
		return nil, err
	}
	operation, err := decodeOperation("GetOperation", body)
	if err != nil {
		return nil, err
	}
	return &GetOperationOutput{Operation: operation}, nil
}

type ListPackingOptionsInput struct {
	InboundPlanID string
}

type ListPackingOptionsOutput struct {
	PackingOptions []PackingOption
}

func (c *Client) ListPackingOptions(ctx context.Context, params *ListPackingOptionsInput) (*ListPackingOptionsOutput, error) {
	body, err := c.do(ctx, "ListPackingOptions", http.MethodGet, inboundBasePath+"/inboundPlans/"+params.InboundPlanID+"/packingOptions", nil, nil)
	if err != nil {
		return nil, err
	}
	options, err := decodePackingOptions("ListPackingOptions", body)
	if err != nil {
		return nil, err
	}
	return &ListPackingOptionsOutput{PackingOptions: options}, nil
}

type GeneratePackingOptionsInput struct {
	InboundPlanID string
}

type GeneratePackingOptionsOutput struct {
	OperationID string
}

func (c *Client) GeneratePackingOptions(ctx context.Context, params *GeneratePackingOptionsInput) (*GeneratePackingOptionsOutput, error) {
	body, err := c.do(ctx, "GeneratePackingOptions", http.MethodPost, inboundBasePath+"/inboundPlans/"+params.InboundPlanID+"/packingOptions", nil, nil)
	if err != nil {
		return nil, err
	}
	m, err := decodeEnvelope("GeneratePackingOptions", body)
	if err != nil {
		return nil, err
	}
	return &GeneratePackingOptionsOutput{OperationID: pickString(m, "operationId")}, nil
}

type ConfirmPackingOptionInput struct {
	InboundPlanID   string
	PackingOptionID string
}

type ConfirmPackingOptionOutput struct {
	OperationID string
}

// ConfirmPackingOption confirms the chosen option. Callers treat a conflict
// response as already-confirmed, so confirmation is effectively idempotent.
func (c *Client) ConfirmPackingOption(ctx context.Context, params *ConfirmPackingOptionInput) (*ConfirmPackingOptionOutput, error) {
	path := inboundBasePath + "/inboundPlans/" + params.InboundPlanID + "/packingOptions/" + params.PackingOptionID + "/confirmation"
	body, err := c.do(ctx, "ConfirmPackingOption", http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}
	m, err := decodeEnvelope("ConfirmPackingOption", body)
	if err != nil {
		return nil, err
	}
	return &ConfirmPackingOptionOutput{OperationID: pickString(m, "operationId")}, nil
}

type ListPackingGroupItemsInput struct {
	InboundPlanID  string
	PackingGroupID string
}

type ListPackingGroupItemsOutput struct {
	Items []PackingGroupItem
}

func (c *Client) ListPackingGroupItems(ctx context.Context, params *ListPackingGroupItemsInput) (*ListPackingGroupItemsOutput, error) {
	path := inboundBasePath + "/inboundPlans/" + params.InboundPlanID + "/packingGroups/" + params.PackingGroupID + "/items"
	query := url.Values{"pageSize": []string{"100"}}
	body, err := c.do(ctx, "ListPackingGroupItems", http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodePackingGroupItems("ListPackingGroupItems", body)
	if err != nil {
		return nil, err
	}
	return &ListPackingGroupItemsOutput{Items: items}, nil
}
