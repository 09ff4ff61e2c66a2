package mock

import (
	"context"
	"errors"
	"time"

	"github.com/fulfillkit/inboundplan"
	"github.com/fulfillkit/inboundplan/spapi"
)

var ErrNotImplemented = errors.New("not implemented")

// API is a func-field fake of the planning gateway client. Unset funcs
// return ErrNotImplemented so a test only wires the calls it expects.
type API struct {
	CreateInboundPlanFunc       func(ctx context.Context, params *spapi.CreateInboundPlanInput) (*spapi.CreateInboundPlanOutput, error)
	GetInboundPlanFunc          func(ctx context.Context, params *spapi.GetInboundPlanInput) (*spapi.GetInboundPlanOutput, error)
	GetOperationFunc            func(ctx context.Context, params *spapi.GetOperationInput) (*spapi.GetOperationOutput, error)
	ListPackingOptionsFunc      func(ctx context.Context, params *spapi.ListPackingOptionsInput) (*spapi.ListPackingOptionsOutput, error)
	GeneratePackingOptionsFunc  func(ctx context.Context, params *spapi.GeneratePackingOptionsInput) (*spapi.GeneratePackingOptionsOutput, error)
	ConfirmPackingOptionFunc    func(ctx context.Context, params *spapi.ConfirmPackingOptionInput) (*spapi.ConfirmPackingOptionOutput, error)
	ListPackingGroupItemsFunc   func(ctx context.Context, params *spapi.ListPackingGroupItemsInput) (*spapi.ListPackingGroupItemsOutput, error)
	GetListingsItemFunc         func(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error)
	GetCatalogItemFunc          func(ctx context.Context, params *spapi.GetCatalogItemInput) (*spapi.GetCatalogItemOutput, error)
	GetListingsRestrictionsFunc func(ctx context.Context, params *spapi.GetListingsRestrictionsInput) (*spapi.GetListingsRestrictionsOutput, error)
	GetPrepInstructionsFunc     func(ctx context.Context, params *spapi.GetPrepInstructionsInput) (*spapi.GetPrepInstructionsOutput, error)
}

func (m API) CreateInboundPlan(ctx context.Context, params *spapi.CreateInboundPlanInput) (*spapi.CreateInboundPlanOutput, error) {
	if m.CreateInboundPlanFunc != nil {
		return m.CreateInboundPlanFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GetInboundPlan(ctx context.Context, params *spapi.GetInboundPlanInput) (*spapi.GetInboundPlanOutput, error) {
	if m.GetInboundPlanFunc != nil {
		return m.GetInboundPlanFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GetOperation(ctx context.Context, params *spapi.GetOperationInput) (*spapi.GetOperationOutput, error) {
	if m.GetOperationFunc != nil {
		return m.GetOperationFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) ListPackingOptions(ctx context.Context, params *spapi.ListPackingOptionsInput) (*spapi.ListPackingOptionsOutput, error) {
	if m.ListPackingOptionsFunc != nil {
		return m.ListPackingOptionsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GeneratePackingOptions(ctx context.Context, params *spapi.GeneratePackingOptionsInput) (*spapi.GeneratePackingOptionsOutput, error) {
	if m.GeneratePackingOptionsFunc != nil {
		return m.GeneratePackingOptionsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) ConfirmPackingOption(ctx context.Context, params *spapi.ConfirmPackingOptionInput) (*spapi.ConfirmPackingOptionOutput, error) {
	if m.ConfirmPackingOptionFunc != nil {
		return m.ConfirmPackingOptionFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) ListPackingGroupItems(ctx context.Context, params *spapi.ListPackingGroupItemsInput) (*spapi.ListPackingGroupItemsOutput, error) {
	if m.ListPackingGroupItemsFunc != nil {
		return m.ListPackingGroupItemsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GetListingsItem(ctx context.Context, params *spapi.GetListingsItemInput) (*spapi.GetListingsItemOutput, error) {
	if m.GetListingsItemFunc != nil {
		return m.GetListingsItemFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GetCatalogItem(ctx context.Context, params *spapi.GetCatalogItemInput) (*spapi.GetCatalogItemOutput, error) {
	if m.GetCatalogItemFunc != nil {
		return m.GetCatalogItemFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GetListingsRestrictions(ctx context.Context, params *spapi.GetListingsRestrictionsInput) (*spapi.GetListingsRestrictionsOutput, error) {
	if m.GetListingsRestrictionsFunc != nil {
		return m.GetListingsRestrictionsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m API) GetPrepInstructions(ctx context.Context, params *spapi.GetPrepInstructionsInput) (*spapi.GetPrepInstructionsOutput, error) {
	if m.GetPrepInstructionsFunc != nil {
		return m.GetPrepInstructionsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

// Store is a func-field fake of the persistence boundary.
type Store struct {
	GetRequestFunc      func(ctx context.Context, params *inboundplan.GetRequestInput) (*inboundplan.GetRequestOutput, error)
	PutRequestFunc      func(ctx context.Context, params *inboundplan.PutRequestInput) (*inboundplan.PutRequestOutput, error)
	ClaimPlanIDFunc     func(ctx context.Context, params *inboundplan.ClaimPlanIDInput) (*inboundplan.ClaimPlanIDOutput, error)
	AssignPlanIDFunc    func(ctx context.Context, params *inboundplan.AssignPlanIDInput) (*inboundplan.AssignPlanIDOutput, error)
	ReleasePlanIDFunc   func(ctx context.Context, params *inboundplan.ReleasePlanIDInput) (*inboundplan.ReleasePlanIDOutput, error)
	ClearPlanStateFunc  func(ctx context.Context, params *inboundplan.ClearPlanStateInput) (*inboundplan.ClearPlanStateOutput, error)
	SavePlanStateFunc   func(ctx context.Context, params *inboundplan.SavePlanStateInput) (*inboundplan.SavePlanStateOutput, error)
	UpdateLineItemsFunc func(ctx context.Context, params *inboundplan.UpdateLineItemsInput) (*inboundplan.UpdateLineItemsOutput, error)
	GetSettingFunc      func(ctx context.Context, params *inboundplan.GetSettingInput) (*inboundplan.GetSettingOutput, error)
	PutSettingFunc      func(ctx context.Context, params *inboundplan.PutSettingInput) (*inboundplan.PutSettingOutput, error)
}

func (m Store) GetRequest(ctx context.Context, params *inboundplan.GetRequestInput) (*inboundplan.GetRequestOutput, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) PutRequest(ctx context.Context, params *inboundplan.PutRequestInput) (*inboundplan.PutRequestOutput, error) {
	if m.PutRequestFunc != nil {
		return m.PutRequestFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) ClaimPlanID(ctx context.Context, params *inboundplan.ClaimPlanIDInput) (*inboundplan.ClaimPlanIDOutput, error) {
	if m.ClaimPlanIDFunc != nil {
		return m.ClaimPlanIDFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) AssignPlanID(ctx context.Context, params *inboundplan.AssignPlanIDInput) (*inboundplan.AssignPlanIDOutput, error) {
	if m.AssignPlanIDFunc != nil {
		return m.AssignPlanIDFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) ReleasePlanID(ctx context.Context, params *inboundplan.ReleasePlanIDInput) (*inboundplan.ReleasePlanIDOutput, error) {
	if m.ReleasePlanIDFunc != nil {
		return m.ReleasePlanIDFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) ClearPlanState(ctx context.Context, params *inboundplan.ClearPlanStateInput) (*inboundplan.ClearPlanStateOutput, error) {
	if m.ClearPlanStateFunc != nil {
		return m.ClearPlanStateFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) SavePlanState(ctx context.Context, params *inboundplan.SavePlanStateInput) (*inboundplan.SavePlanStateOutput, error) {
	if m.SavePlanStateFunc != nil {
		return m.SavePlanStateFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) UpdateLineItems(ctx context.Context, params *inboundplan.UpdateLineItemsInput) (*inboundplan.UpdateLineItemsOutput, error) {
	if m.UpdateLineItemsFunc != nil {
		return m.UpdateLineItemsFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) GetSetting(ctx context.Context, params *inboundplan.GetSettingInput) (*inboundplan.GetSettingOutput, error) {
	if m.GetSettingFunc != nil {
		return m.GetSettingFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

func (m Store) PutSetting(ctx context.Context, params *inboundplan.PutSettingInput) (*inboundplan.PutSettingOutput, error) {
	if m.PutSettingFunc != nil {
		return m.PutSettingFunc(ctx, params)
	}
	return nil, ErrNotImplemented
}

// Clock is a fixed-time clock.
type Clock struct {
	T time.Time
}

func (m Clock) Now() time.Time {
	return m.T
}
