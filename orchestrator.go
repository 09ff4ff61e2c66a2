package inboundplan

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillkit/inboundplan/internal/clock"
	"github.com/fulfillkit/inboundplan/internal/constant"
	"github.com/fulfillkit/inboundplan/spapi"
)

// Config is the immutable orchestrator configuration, constructed once at
// process start and passed by reference into every component.
type Config struct {
	SellerID       string
	MarketplaceID  string
	PlanNamePrefix string
	ShipFrom       Address
}

func (c *Config) Validate() error {
	switch {
	case c.SellerID == "":
		return ConfigMissingError{Field: "seller-id"}
	case c.MarketplaceID == "":
		return ConfigMissingError{Field: "marketplace-id"}
	case c.ShipFrom.AddressLine1 == "" || c.ShipFrom.CountryCode == "":
		return ConfigMissingError{Field: "ship-from-address"}
	}
	return nil
}

// OrchestratorOptions defines configuration options for the Orchestrator.
//
// Note: Clock, Sleep and NewPollBackOff are primarily test hooks and should
// not be modified in typical use.
type OrchestratorOptions struct {
	Logger            *zap.Logger
	Clock             clock.Clock
	Sleep             func(time.Duration)
	CreateMaxAttempts int
	PollMaxAttempts   int
	AdoptWaitAttempts int
	AdoptWaitDelay    time.Duration
	NewPollBackOff    func() backoff.BackOff
}

func WithOrchestratorLogger(l *zap.Logger) func(*OrchestratorOptions) {
	return func(o *OrchestratorOptions) {
		o.Logger = l
	}
}

func WithOrchestratorClock(c clock.Clock) func(*OrchestratorOptions) {
	return func(o *OrchestratorOptions) {
		o.Clock = c
	}
}

func WithSleep(f func(time.Duration)) func(*OrchestratorOptions) {
	return func(o *OrchestratorOptions) {
		o.Sleep = f
	}
}

func WithCreateMaxAttempts(n int) func(*OrchestratorOptions) {
	return func(o *OrchestratorOptions) {
		o.CreateMaxAttempts = n
	}
}

func WithPollBackOff(f func() backoff.BackOff) func(*OrchestratorOptions) {
	return func(o *OrchestratorOptions) {
		o.NewPollBackOff = f
	}
}

// NewOrchestrator creates the plan orchestrator. The store provides the
// conditional-update persistence boundary and api the signed gateway.
func NewOrchestrator(cfg *Config, store Store, api spapi.API, optFns ...func(*OrchestratorOptions)) *Orchestrator {
	o := &OrchestratorOptions{
		Logger:            zap.NewNop(),
		Clock:             clock.RealClock{},
		Sleep:             time.Sleep,
		CreateMaxAttempts: constant.DefaultPlanCreateAttempts,
		PollMaxAttempts:   constant.DefaultOperationPollAttempts,
		AdoptWaitAttempts: 5,
		AdoptWaitDelay:    2 * time.Second,
	}
	for _, opt := range optFns {
		opt(o)
	}
	if o.NewPollBackOff == nil {
		o.NewPollBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = constant.DefaultOperationPollInitial
			b.MaxInterval = constant.DefaultOperationPollMax
			b.MaxElapsedTime = 0
			return b
		}
	}
	return &Orchestrator{
		cfg:               cfg,
		store:             store,
		api:               api,
		eligibility:       NewEligibilityChecker(api, cfg.SellerID, cfg.MarketplaceID, o.Logger),
		compliance:        NewComplianceResolver(api, o.Clock, o.Logger),
		logger:            o.Logger,
		clock:             o.Clock,
		sleep:             o.Sleep,
		createMaxAttempts: o.CreateMaxAttempts,
		pollMaxAttempts:   o.PollMaxAttempts,
		adoptWaitAttempts: o.AdoptWaitAttempts,
		adoptWaitDelay:    o.AdoptWaitDelay,
		newPollBackOff:    o.NewPollBackOff,
	}
}

// Orchestrator drives one shipment request through the full planning
// protocol. A single invocation is synchronous and sequential; concurrency
// only arises across invocations for the same request, mediated by the
// store's plan id compare-and-swap.
type Orchestrator struct {
	cfg               *Config
	store             Store
	api               spapi.API
	eligibility       *EligibilityChecker
	compliance        *ComplianceResolver
	logger            *zap.Logger
	clock             clock.Clock
	sleep             func(time.Duration)
	createMaxAttempts int
	pollMaxAttempts   int
	adoptWaitAttempts int
	adoptWaitDelay    time.Duration
	newPollBackOff    func() backoff.BackOff
}

type PreparePlanInput struct {
	RequestID string
	// ExpirationOverrides are caller-supplied dates keyed by sku; they
	// take precedence over persisted and auto-computed values.
	ExpirationOverrides map[string]string
	// QuantityOverrides are new effective quantities keyed by line item
	// id, persisted before any remote call.
	QuantityOverrides map[string]int
}

type PreparePlanOutput struct {
	TraceID string
	Result  *PlanResult
}

const lockTokenPrefix = "lock:"

func newLockToken() string {
	return lockTokenPrefix + uuid.NewString()
}

func isLockToken(v string) bool {
	return strings.HasPrefix(v, lockTokenPrefix)
}

// isRealPlanID reports whether the stored plan id field holds a confirmed
// remote plan id rather than an invocation lock token or nothing.
func isRealPlanID(v string) bool {
	return v != "" && !isLockToken(v)
}

// run is the mutable state of one invocation.
type run struct {
	traceID    string
	req        *ShipmentRequest
	agg        []AggregatedLineItem
	outcome    *PrecheckOutcome
	compliance *ComplianceResult
	overrides  OwnerOverrides
	plan       *spapi.InboundPlan
	result     *PlanResult
	warnings   []string
	opID       string
	opStatus   string
	// packingGroups carries the confirmed groups with their item contents
	// from the packing phase into response assembly.
	packingGroups []resolvedPackingGroup
	// groupItemCache keeps the last successful per-group item fetches of
	// this invocation for the transient-unavailability fallback.
	groupItemCache map[string][]spapi.PackingGroupItem
}

type resolvedPackingGroup struct {
	ID    string
	Items []spapi.PackingGroupItem
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func (r *run) warningsList() []string {
	var all []string
	if r.compliance != nil {
		all = append(all, r.compliance.Warnings...)
	}
	all = append(all, r.warnings...)
	return all
}

// PreparePlan converts the staged request into a confirmed, carrier-ready
// plan, or a structured blocking result explaining why it cannot proceed.
// Errors are reserved for infrastructure failures.
func (o *Orchestrator) PreparePlan(ctx context.Context, params *PreparePlanInput) (*PreparePlanOutput, error) {
	if params == nil {
		params = &PreparePlanInput{}
	}
	if params.RequestID == "" {
		return nil, &RequestIDNotProvidedError{}
	}
	if _, err := uuid.Parse(params.RequestID); err != nil {
		return nil, &InvalidRequestIDError{ID: params.RequestID}
	}
	r := &run{
		traceID:        uuid.NewString(),
		overrides:      OwnerOverrides{},
		groupItemCache: map[string][]spapi.PackingGroupItem{},
	}
	logger := o.logger.With(zap.String("trace_id", r.traceID), zap.String("request_id", params.RequestID))
	out := &PreparePlanOutput{TraceID: r.traceID}

	got, err := o.store.GetRequest(ctx, &GetRequestInput{ID: params.RequestID})
	if err != nil {
		return nil, err
	}
	if got.Request == nil {
		return nil, &RequestNotFoundError{ID: params.RequestID}
	}
	r.req = got.Request

	if err := o.applyQuantityOverrides(ctx, r, params.QuantityOverrides); err != nil {
		return nil, err
	}

	var emptySKU []LineItem
	r.agg, emptySKU = AggregateItems(r.req.Items)
	if len(emptySKU) > 0 {
		var blocked []BlockedItem
		for _, li := range emptySKU {
			blocked = append(blocked, BlockedItem{
				ItemID: li.ID,
				Reason: BlockedReasonEmptySKU,
				Detail: "line item has no sku after normalization",
			})
		}
		out.Result = blockingResult(blocked...)
		return out, nil
	}

	// A stored plan built from a different item set is stale; discard it
	// before anything else looks at it.
	signature := ItemSetSignature(r.req.Items)
	if isRealPlanID(r.req.PlanID) && (r.req.Snapshot == nil || r.req.Snapshot.Signature != signature) {
		logger.Info("item set changed, discarding cached plan", zap.String("plan_id", r.req.PlanID))
		cleared, err := o.store.ClearPlanState(ctx, &ClearPlanStateInput{ID: r.req.ID})
		if err != nil {
			return nil, err
		}
		r.req = cleared.Request
	}

	r.outcome = o.eligibility.Check(ctx, r.agg)
	if blocking := r.outcome.BlockingResults(); len(blocking) > 0 {
		var blocked []BlockedItem
		for _, res := range blocking {
			blocked = append(blocked, BlockedItem{
				SKU:    res.SKU,
				Reason: BlockedReasonIneligible,
				Detail: fmt.Sprintf("%s: %s", res.State, res.Reason),
			})
		}
		result := blockingResult(blocked...)
		result.Eligibility = r.outcome.Results
		out.Result = result
		return out, nil
	}

	if blocked := validateExpirationOverrides(params.ExpirationOverrides); len(blocked) > 0 {
		out.Result = blockingResult(blocked...)
		return out, nil
	}
	r.compliance = o.compliance.Resolve(ctx, r.req.DestinationCountry, r.agg, params.ExpirationOverrides, r.outcome.ExpirationDated)
	if err := o.persistExpirations(ctx, r); err != nil {
		return nil, err
	}

	if err := o.ensurePlan(ctx, logger, r); err != nil {
		return nil, err
	}
	if r.result != nil {
		// Plan phase produced a blocking outcome.
		r.result.Eligibility = r.outcome.Results
		out.Result = r.result
		return out, nil
	}

	if err := o.ensurePacking(ctx, logger, r); err != nil {
		return nil, err
	}
	if r.result != nil {
		r.result.Eligibility = r.outcome.Results
		out.Result = r.result
		return out, nil
	}

	if err := o.saveSnapshot(ctx, r, signature); err != nil {
		return nil, err
	}

	out.Result = o.assembleResult(r)
	return out, nil
}

// saveSnapshot persists the confirmed plan state keyed by the item set
// signature, so the next invocation with unchanged items reuses everything.
func (o *Orchestrator) saveSnapshot(ctx context.Context, r *run, signature string) error {
	snapshot := &Snapshot{
		Signature:       signature,
		PlanID:          r.plan.ID,
		PlanStatus:      r.plan.Status,
		PackingOptionID: r.req.PackingOptionID,
		OperationID:     r.opID,
	}
	saved, err := o.store.SavePlanState(ctx, &SavePlanStateInput{
		ID:              r.req.ID,
		PlanID:          r.plan.ID,
		PackingOptionID: r.req.PackingOptionID,
		Snapshot:        snapshot,
	})
	if err != nil {
		return err
	}
	r.req = saved.Request
	return nil
}

func validateExpirationOverrides(overrides map[string]string) []BlockedItem {
	var blocked []BlockedItem
	for sku, date := range overrides {
		if _, err := clock.ParseDate(date); err != nil {
			blocked = append(blocked, BlockedItem{
				SKU:    sku,
				Reason: BlockedReasonMissingExpiration,
				Detail: fmt.Sprintf("expiration override %q is not a valid date", date),
			})
		}
	}
	return blocked
}

// applyQuantityOverrides persists new effective quantities before any remote
// call. The write bumps the record version, so a concurrent invocation's
// item update loses cleanly.
func (o *Orchestrator) applyQuantityOverrides(ctx context.Context, r *run, overrides map[string]int) error {
	if len(overrides) == 0 {
		return nil
	}
	changed := false
	items := make([]LineItem, len(r.req.Items))
	copy(items, r.req.Items)
	for i, li := range items {
		if qty, ok := overrides[li.ID]; ok && qty > 0 && qty != li.EffectiveQuantity() {
			items[i].SentQuantity = qty
			changed = true
		}
	}
	if !changed {
		return nil
	}
	updated, err := o.store.UpdateLineItems(ctx, &UpdateLineItemsInput{
		ID:              r.req.ID,
		Items:           items,
		ExpectedVersion: r.req.Version,
	})
	if err != nil {
		return err
	}
	r.req = updated.Request
	return nil
}

// persistExpirations writes back expiration decisions that differ from what
// is stored. Quantities are untouched here, so the item set signature is
// unaffected.
func (o *Orchestrator) persistExpirations(ctx context.Context, r *run) error {
	changed := false
	items := make([]LineItem, len(r.req.Items))
	copy(items, r.req.Items)
	for i, li := range items {
		decision, ok := r.compliance.Expirations[NormalizeSKU(li.SKU)]
		if !ok || !decision.Changed {
			continue
		}
		if li.ExpirationDate == decision.Date && li.ExpirationSource == decision.Source {
			continue
		}
		items[i].ExpirationDate = decision.Date
		items[i].ExpirationSource = decision.Source
		changed = true
	}
	if !changed {
		return nil
	}
	updated, err := o.store.UpdateLineItems(ctx, &UpdateLineItemsInput{
		ID:              r.req.ID,
		Items:           items,
		ExpectedVersion: r.req.Version,
	})
	if err != nil {
		return err
	}
	r.req = updated.Request
	return nil
}

// ensurePlan leaves r.plan holding an ACTIVE remote plan, creating one under
// the claim lock if needed, or sets a blocking r.result.
func (o *Orchestrator) ensurePlan(ctx context.Context, logger *zap.Logger, r *run) error {
	if isRealPlanID(r.req.PlanID) {
		return o.adoptPlan(ctx, logger, r, r.req.PlanID)
	}

	token := newLockToken()
	claim, err := o.store.ClaimPlanID(ctx, &ClaimPlanIDInput{ID: r.req.ID, Token: token})
	if err != nil {
		return err
	}
	if !claim.Claimed {
		if isRealPlanID(claim.Current) {
			logger.Info("another invocation created the plan, adopting", zap.String("plan_id", claim.Current))
			return o.adoptPlan(ctx, logger, r, claim.Current)
		}
		return o.awaitOtherInvocation(ctx, logger, r)
	}
	r.req = claim.Request

	planID, createErr := o.createPlan(ctx, logger, r)
	if createErr != nil {
		// Release so a later invocation can retry; keep the original
		// failure regardless of how the release goes.
		if _, relErr := o.store.ReleasePlanID(ctx, &ReleasePlanIDInput{ID: r.req.ID, Token: token}); relErr != nil {
			logger.Warn("failed to release plan lock", zap.Error(relErr))
		}
		var creation PlanCreationError
		if errors.As(createErr, &creation) {
			r.result = blockingResult(BlockedItem{
				Reason: BlockedReasonPlanCreation,
				Detail: creation.Error(),
			})
			return nil
		}
		return createErr
	}

	assigned, err := o.store.AssignPlanID(ctx, &AssignPlanIDInput{ID: r.req.ID, Token: token, PlanID: planID})
	if err != nil {
		return err
	}
	r.req = assigned.Request
	return o.adoptPlan(ctx, logger, r, planID)
}

// adoptPlan fetches the remote plan and validates its status. A terminal
// ERRORED plan clears the persisted state and surfaces as a retryable
// blocking outcome.
func (o *Orchestrator) adoptPlan(ctx context.Context, logger *zap.Logger, r *run, planID string) error {
	got, err := o.api.GetInboundPlan(ctx, &spapi.GetInboundPlanInput{InboundPlanID: planID})
	if err != nil {
		var statusErr spapi.APIStatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			// The remote side no longer knows this plan; start over on
			// the next invocation.
			if _, clearErr := o.store.ClearPlanState(ctx, &ClearPlanStateInput{ID: r.req.ID}); clearErr != nil {
				return clearErr
			}
			r.result = blockingResult(BlockedItem{
				Reason: BlockedReasonPlanErrored,
				Detail: fmt.Sprintf("plan %s no longer exists remotely; retry to create a new plan", planID),
			})
			return nil
		}
		return err
	}
	plan := got.Plan
	if plan.Status == PlanStatusErrored {
		logger.Warn("remote plan is errored, discarding", zap.String("plan_id", planID))
		if _, err := o.store.ClearPlanState(ctx, &ClearPlanStateInput{ID: r.req.ID}); err != nil {
			return err
		}
		r.result = blockingResult(BlockedItem{
			Reason: BlockedReasonPlanErrored,
			Detail: PlanErroredError{PlanID: planID}.Error(),
		})
		return nil
	}
	r.plan = plan
	return nil
}

// awaitOtherInvocation handles losing the claim race to an invocation that
// is still mid-creation: wait briefly for its lock token to become a real
// plan id, then adopt it.
func (o *Orchestrator) awaitOtherInvocation(ctx context.Context, logger *zap.Logger, r *run) error {
	for attempt := 0; attempt < o.adoptWaitAttempts; attempt++ {
		o.sleep(o.adoptWaitDelay)
		got, err := o.store.GetRequest(ctx, &GetRequestInput{ID: r.req.ID})
		if err != nil {
			return err
		}
		if got.Request == nil {
			return &RequestNotFoundError{ID: r.req.ID}
		}
		if isRealPlanID(got.Request.PlanID) {
			r.req = got.Request
			return o.adoptPlan(ctx, logger, r, got.Request.PlanID)
		}
		if got.Request.PlanID == "" {
			// The other invocation failed and released; this one may
			// retry from scratch.
			r.req = got.Request
			return o.ensurePlan(ctx, logger, r)
		}
	}
	r.result = blockingResult(BlockedItem{
		Reason: BlockedReasonPlanCreation,
		Detail: "another invocation is still creating the plan; retry shortly",
	})
	return nil
}

// createPlan runs the create-and-repair loop: submit, parse correctable
// validation problems, fold corrections into the override map, and try
// again within the attempt budget.
func (o *Orchestrator) createPlan(ctx context.Context, logger *zap.Logger, r *run) (string, error) {
	var diagnostics []string
	for attempt := 1; attempt <= o.createMaxAttempts; attempt++ {
		input := o.buildCreateInput(r)
		created, err := o.api.CreateInboundPlan(ctx, input)
		if err != nil {
			var statusErr spapi.APIStatusError
			if !errors.As(err, &statusErr) {
				return "", err
			}
			corrections := o.applyCorrections(logger, r, problemsFromAPIErrors(statusErr.Errors))
			diagnostics = append(diagnostics, statusErr.Body)
			if corrections == 0 {
				return "", PlanCreationError{Attempts: attempt, Diagnostics: diagnostics}
			}
			continue
		}

		operation, err := o.waitOperation(ctx, created.OperationID)
		if err != nil {
			return "", err
		}
		if operation != nil && operation.Status == spapi.OperationStatusFailed {
			corrections := o.applyCorrections(logger, r, operation.Problems)
			diagnostics = append(diagnostics, problemSummary(operation.Problems))
			if corrections == 0 {
				return "", PlanCreationError{Attempts: attempt, Diagnostics: diagnostics}
			}
			continue
		}
		if created.InboundPlanID == "" {
			diagnostics = append(diagnostics, "plan creation returned no plan id")
			return "", PlanCreationError{Attempts: attempt, Diagnostics: diagnostics}
		}
		if operation != nil {
			r.updateOperation(operation)
		}
		logger.Info("inbound plan created",
			zap.String("plan_id", created.InboundPlanID),
			zap.Int("attempt", attempt),
		)
		return created.InboundPlanID, nil
	}
	return "", PlanCreationError{Attempts: o.createMaxAttempts, Diagnostics: diagnostics}
}

func (r *run) updateOperation(op *spapi.Operation) {
	if r.result == nil {
		// Stashed for response assembly; a nil result here means the run
		// is still on the happy path.
		if r.opID == "" {
			r.opID = op.ID
		}
		r.opStatus = op.Status
	}
}

// buildCreateInput assembles the plan request body from the aggregated
// items, the compliance decisions, and any corrections learned from prior
// rejected attempts. Corrections win over the guidance heuristic.
func (o *Orchestrator) buildCreateInput(r *run) *spapi.CreateInboundPlanInput {
	prefix := o.cfg.PlanNamePrefix
	if prefix == "" {
		prefix = "Inbound"
	}
	input := &spapi.CreateInboundPlanInput{
		Name: fmt.Sprintf("%s %s %s", prefix, r.req.ID[:8], clock.FormatDate(o.clock.Now())),
		SourceAddress: spapi.Address{
			Name:            o.cfg.ShipFrom.Name,
			AddressLine1:    o.cfg.ShipFrom.AddressLine1,
			AddressLine2:    o.cfg.ShipFrom.AddressLine2,
			City:            o.cfg.ShipFrom.City,
			StateOrProvince: o.cfg.ShipFrom.StateOrProvince,
			PostalCode:      o.cfg.ShipFrom.PostalCode,
			CountryCode:     o.cfg.ShipFrom.CountryCode,
			PhoneNumber:     o.cfg.ShipFrom.PhoneNumber,
			Email:           o.cfg.ShipFrom.Email,
		},
		DestinationMarketplaces: []string{o.cfg.MarketplaceID},
	}
	for _, item := range r.agg {
		labelOwner, prepOwner, _ := DeriveOwners(r.compliance.Guidance[item.SKU])
		if ov, ok := r.overrides[item.SKU]; ok {
			if ov.LabelOwner != nil {
				labelOwner = *ov.LabelOwner
			}
			if ov.PrepOwner != nil {
				prepOwner = *ov.PrepOwner
			}
		}
		entry := spapi.CreateInboundPlanItem{
			MSKU:       item.SKU,
			Quantity:   item.Quantity,
			LabelOwner: string(labelOwner),
			PrepOwner:  string(prepOwner),
		}
		if decision, ok := r.compliance.Expirations[item.SKU]; ok {
			entry.Expiration = decision.Date
		}
		input.Items = append(input.Items, entry)
	}
	return input
}

// correctablePattern matches field-level rejections of the form
// "field labelOwner on sku ABC-1 must be one of [NONE, SELLER]".
var correctablePattern = regexp.MustCompile(`(?i)field\s+'?([A-Za-z]+)'?\s+(?:on|for)\s+(?:sku|msku)\s+'?([^'\s]+?)'?\s+.*?must be one of\s*\[([^\]]*)\]`)

// applyCorrections folds every correctable validation problem into the
// override map and returns how many corrections were recorded. Zero means
// the failure is not self-correctable and retrying is pointless.
func (o *Orchestrator) applyCorrections(logger *zap.Logger, r *run, problems []spapi.Problem) int {
	corrections := 0
	for _, p := range problems {
		text := p.Message
		if p.Details != "" {
			text = text + " " + p.Details
		}
		match := correctablePattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		field, sku := match[1], match[2]
		accepted := parseAcceptedOwners(match[3])
		if len(accepted) == 0 {
			continue
		}
		assigned := r.currentOwner(field, sku)
		chosen := chooseOwner(text, accepted, assigned)
		override := OwnerOverride{}
		switch strings.ToLower(field) {
		case "labelowner":
			override.LabelOwner = &chosen
		case "prepowner":
			override.PrepOwner = &chosen
		default:
			continue
		}
		r.overrides.Merge(sku, override)
		corrections++
		logger.Info("recorded ownership correction",
			zap.String("sku", sku),
			zap.String("field", field),
			zap.String("value", string(chosen)),
		)
	}
	return corrections
}

func (r *run) currentOwner(field, sku string) *Owner {
	ov, ok := r.overrides[sku]
	if !ok {
		return nil
	}
	switch strings.ToLower(field) {
	case "labelowner":
		return ov.LabelOwner
	case "prepowner":
		return ov.PrepOwner
	}
	return nil
}

func parseAcceptedOwners(list string) []Owner {
	var accepted []Owner
	for _, part := range strings.Split(list, ",") {
		switch strings.ToUpper(strings.Trim(part, ` "'`+"\t")) {
		case string(OwnerNone):
			accepted = append(accepted, OwnerNone)
		case string(OwnerSeller):
			accepted = append(accepted, OwnerSeller)
		case string(OwnerAmazon):
			accepted = append(accepted, OwnerAmazon)
		}
	}
	return accepted
}

func containsOwner(accepted []Owner, want Owner) bool {
	for _, o := range accepted {
		if o == want {
			return true
		}
	}
	return false
}

// chooseOwner picks a corrective value from the accepted set. A requirement
// that does not apply resolves to NONE; a missing required value prefers
// SELLER; everything else prefers SELLER over NONE over AMAZON.
func chooseOwner(message string, accepted []Owner, assigned *Owner) Owner {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "does not apply") || strings.Contains(lower, "does not require") {
		if containsOwner(accepted, OwnerNone) {
			return OwnerNone
		}
	}
	if strings.Contains(lower, "is required") && assigned == nil {
		if containsOwner(accepted, OwnerSeller) {
			return OwnerSeller
		}
		if containsOwner(accepted, OwnerAmazon) {
			return OwnerAmazon
		}
	}
	for _, preferred := range []Owner{OwnerSeller, OwnerNone, OwnerAmazon} {
		if containsOwner(accepted, preferred) {
			return preferred
		}
	}
	return accepted[0]
}

func problemsFromAPIErrors(apiErrors []spapi.APIError) []spapi.Problem {
	problems := make([]spapi.Problem, 0, len(apiErrors))
	for _, e := range apiErrors {
		problems = append(problems, spapi.Problem{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		})
	}
	return problems
}

func problemSummary(problems []spapi.Problem) string {
	parts := make([]string, 0, len(problems))
	for _, p := range problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Code, p.Message))
	}
	return strings.Join(parts, "; ")
}

var errOperationPending = errors.New("operation still in progress")

// waitOperation polls the asynchronous operation until it reaches a terminal
// state or the poll budget runs out. Exhausting the budget is not an error;
// the last observed status is returned for the caller to judge.
func (o *Orchestrator) waitOperation(ctx context.Context, operationID string) (*spapi.Operation, error) {
	if operationID == "" {
		return nil, nil
	}
	var operation *spapi.Operation
	poll := func() error {
		got, err := o.api.GetOperation(ctx, &spapi.GetOperationInput{OperationID: operationID})
		if err != nil {
			return backoff.Permanent(err)
		}
		operation = got.Operation
		if !operation.Terminal() {
			return errOperationPending
		}
		return nil
	}
	b := backoff.WithMaxRetries(backoff.WithContext(o.newPollBackOff(), ctx), uint64(o.pollMaxAttempts))
	if err := backoff.Retry(poll, b); err != nil && !errors.Is(err, errOperationPending) {
		return nil, err
	}
	return operation, nil
}

// assembleResult builds the final plan response: per-sku metadata from the
// guidance heuristic overlaid with confirmed packing group data, shipments,
// eligibility results, and diagnostics.
func (o *Orchestrator) assembleResult(r *run) *PlanResult {
	result := &PlanResult{
		ShipFrom:    &o.cfg.ShipFrom,
		Eligibility: r.outcome.Results,
		Warnings:    r.warningsList(),
	}
	if r.plan != nil {
		result.PlanID = r.plan.ID
		result.PlanStatus = r.plan.Status
		for _, s := range r.plan.Shipments {
			result.Shipments = append(result.Shipments, ShipmentSummary{
				ID:                   s.ID,
				DestinationFC:        s.DestinationFC,
				DestinationCountry:   s.DestinationCountry,
				DestinationAddress:   s.DestinationAddress,
				ShipmentConfirmation: s.ConfirmationID,
			})
		}
	}
	result.PackingOptionID = r.req.PackingOptionID
	result.OperationID = r.opID
	result.OperationStatus = r.opStatus

	items := make(map[string]*PlanItem, len(r.agg))
	for _, agg := range r.agg {
		guidance := r.compliance.Guidance[agg.SKU]
		labelOwner, prepOwner, prepRequired := DeriveOwners(guidance)
		if ov, ok := r.overrides[agg.SKU]; ok {
			if ov.LabelOwner != nil {
				labelOwner = *ov.LabelOwner
			}
			if ov.PrepOwner != nil {
				prepOwner = *ov.PrepOwner
			}
		}
		item := &PlanItem{
			SKU:              agg.SKU,
			ASIN:             agg.ASIN,
			Quantity:         agg.Quantity,
			LabelOwner:       labelOwner,
			PrepOwner:        prepOwner,
			PrepRequired:     prepRequired,
			PrepInstructions: guidance.PrepInstructions,
		}
		if decision, ok := r.compliance.Expirations[agg.SKU]; ok {
			item.ExpirationDate = decision.Date
			item.ExpirationSource = decision.Source
		}
		items[agg.SKU] = item
	}
	o.applyPackingGroups(r, result, items)

	for _, agg := range r.agg {
		result.Items = append(result.Items, *items[agg.SKU])
	}
	return result
}

// applyPackingGroups copies confirmed packing groups onto the result and
// overlays their per-item label owner and fnsku assignments onto the plan
// items. Confirmed packing group data deliberately wins over the guidance
// heuristic whenever both are present.
func (o *Orchestrator) applyPackingGroups(r *run, result *PlanResult, items map[string]*PlanItem) {
	for _, group := range r.packingGroups {
		pg := PackingGroup{ID: group.ID}
		for _, gi := range group.Items {
			pg.Items = append(pg.Items, PackingGroupItem{
				SKU:        gi.MSKU,
				FNSKU:      gi.FNSKU,
				Quantity:   gi.Quantity,
				LabelOwner: Owner(gi.LabelOwner),
			})
			if item, ok := items[gi.MSKU]; ok {
				if gi.FNSKU != "" {
					item.FNSKU = gi.FNSKU
				}
				if gi.LabelOwner != "" {
					item.LabelOwner = Owner(gi.LabelOwner)
				}
				if gi.PrepOwner != "" {
					item.PrepOwner = Owner(gi.PrepOwner)
				}
			}
		}
		result.PackingGroups = append(result.PackingGroups, pg)
	}
}
