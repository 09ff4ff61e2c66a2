package inboundplan

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan/internal/constant"
	"github.com/fulfillkit/inboundplan/spapi"
)

// ensurePacking drives the packing option sub-protocol for the active plan:
// list the remote-proposed options, generating them first when none exist
// yet, pick one, confirm it, and resolve the per-group item contents.
// Packing failures degrade to warnings; they never block the plan.
func (o *Orchestrator) ensurePacking(ctx context.Context, logger *zap.Logger, r *run) error {
	options, err := o.listPackingOptions(ctx, r)
	if err != nil {
		r.warn("packing options unavailable: %v", err)
		return nil
	}
	if !anyOptionHasGroups(options) {
		generated, err := o.api.GeneratePackingOptions(ctx, &spapi.GeneratePackingOptionsInput{InboundPlanID: r.plan.ID})
		if err != nil {
			r.warn("packing option generation failed: %v", err)
			return nil
		}
		operation, err := o.waitOperation(ctx, generated.OperationID)
		if err != nil {
			return err
		}
		if operation != nil && operation.Status == spapi.OperationStatusFailed {
			r.warn("packing option generation failed: %s", problemSummary(operation.Problems))
			return nil
		}
		options, err = o.listPackingOptions(ctx, r)
		if err != nil {
			r.warn("packing options unavailable after generation: %v", err)
			return nil
		}
	}
	if len(options) == 0 {
		r.warn("remote returned no packing options for plan %s", r.plan.ID)
		return nil
	}

	chosen := o.selectPackingOption(r, options)
	if err := o.confirmPackingOption(ctx, logger, r, chosen); err != nil {
		return err
	}
	r.req.PackingOptionID = chosen.ID

	o.resolvePackingGroups(ctx, r, chosen.PackingGroupIDs)
	return nil
}

// anyOptionHasGroups reports whether at least one option references packing
// groups. An option list without any group references is as useless as an
// empty list and triggers generation.
func anyOptionHasGroups(options []spapi.PackingOption) bool {
	for _, opt := range options {
		if len(opt.PackingGroupIDs) > 0 {
			return true
		}
	}
	return false
}

func (o *Orchestrator) listPackingOptions(ctx context.Context, r *run) ([]spapi.PackingOption, error) {
	out, err := o.api.ListPackingOptions(ctx, &spapi.ListPackingOptionsInput{InboundPlanID: r.plan.ID})
	if err != nil {
		return nil, err
	}
	return out.PackingOptions, nil
}

// selectPackingOption picks the option to confirm. A previously confirmed
// option is always reused. Otherwise options without fee discounts are
// preferred, and among those the one with the fewest groups; ties keep the
// remote's ordering.
func (o *Orchestrator) selectPackingOption(r *run, options []spapi.PackingOption) spapi.PackingOption {
	for _, opt := range options {
		if opt.ID == r.req.PackingOptionID && r.req.PackingOptionID != "" {
			return opt
		}
	}
	for _, opt := range options {
		if opt.Status == "ACCEPTED" || opt.Status == "CONFIRMED" {
			return opt
		}
	}
	best := options[0]
	for _, opt := range options[1:] {
		if betterPackingOption(opt, best) {
			best = opt
		}
	}
	return best
}

func betterPackingOption(a, b spapi.PackingOption) bool {
	if (len(a.Discounts) == 0) != (len(b.Discounts) == 0) {
		return len(a.Discounts) == 0
	}
	if len(a.Discounts) > 0 {
		// Every candidate carries a discount; keep the remote's ordering.
		return false
	}
	return len(a.PackingGroupIDs) < len(b.PackingGroupIDs)
}

// confirmPackingOption confirms the selection. A conflict means another
// invocation already confirmed an option for this plan, which is the same
// outcome.
func (o *Orchestrator) confirmPackingOption(ctx context.Context, logger *zap.Logger, r *run, chosen spapi.PackingOption) error {
	if chosen.Status == "ACCEPTED" || chosen.Status == "CONFIRMED" {
		return nil
	}
	confirmed, err := o.api.ConfirmPackingOption(ctx, &spapi.ConfirmPackingOptionInput{
		InboundPlanID:   r.plan.ID,
		PackingOptionID: chosen.ID,
	})
	if err != nil {
		var statusErr spapi.APIStatusError
		if errors.As(err, &statusErr) && statusErr.Conflict() {
			logger.Info("packing option already confirmed", zap.String("packing_option_id", chosen.ID))
			return nil
		}
		return err
	}
	operation, err := o.waitOperation(ctx, confirmed.OperationID)
	if err != nil {
		return err
	}
	if operation != nil && operation.Status == spapi.OperationStatusFailed {
		r.warn("packing option confirmation failed: %s", problemSummary(operation.Problems))
	}
	return nil
}

// resolvePackingGroups fetches the item contents of each confirmed group,
// retrying transient failures and falling back to this invocation's cached
// fetch when the remote stays unavailable.
func (o *Orchestrator) resolvePackingGroups(ctx context.Context, r *run, groupIDs []string) {
	for _, groupID := range groupIDs {
		items, err := o.fetchGroupItems(ctx, r, groupID)
		if err != nil {
			if cached, ok := r.groupItemCache[groupID]; ok {
				r.warn("using cached item set for packing group %s: %v", groupID, err)
				items = cached
			} else {
				r.warn("packing group %s items unavailable: %v", groupID, err)
				continue
			}
		}
		r.packingGroups = append(r.packingGroups, resolvedPackingGroup{ID: groupID, Items: items})
	}
}

func (o *Orchestrator) fetchGroupItems(ctx context.Context, r *run, groupID string) ([]spapi.PackingGroupItem, error) {
	var lastErr error
	for attempt := 1; attempt <= constant.DefaultPackingFetchAttempts; attempt++ {
		out, err := o.api.ListPackingGroupItems(ctx, &spapi.ListPackingGroupItemsInput{
			InboundPlanID:  r.plan.ID,
			PackingGroupID: groupID,
		})
		if err == nil {
			r.groupItemCache[groupID] = out.Items
			return out.Items, nil
		}
		lastErr = err
		var statusErr spapi.APIStatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			break
		}
		o.sleep(constant.DefaultGatewayRetryDelay)
	}
	return nil, lastErr
}
