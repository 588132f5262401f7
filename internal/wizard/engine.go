// Package wizard implements the intake session state machine: the ordered
// step plan, the per-step validation gates, and the two-phase submission
// handoff to the order and checkout boundaries.
package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Pleeriyenterprise/intake/internal/backend"
	"github.com/Pleeriyenterprise/intake/internal/config"
	"github.com/Pleeriyenterprise/intake/internal/draft"
	"github.com/Pleeriyenterprise/intake/internal/field"
	"github.com/Pleeriyenterprise/intake/internal/pricing"
	"github.com/Pleeriyenterprise/intake/model"
)

// Engine manages the lifecycle of intake sessions.
type Engine struct {
	store    SessionStore
	catalog  backend.CatalogClient
	orders   backend.OrderClient
	checkout backend.CheckoutClient
	pricing  config.PricingConfig
	ttl      time.Duration
	logger   *zap.Logger
}

// NewEngine creates a new intake engine.
func NewEngine(
	store SessionStore,
	catalog backend.CatalogClient,
	orders backend.OrderClient,
	checkout backend.CheckoutClient,
	pricingCfg config.PricingConfig,
	sessionCfg config.SessionConfig,
	logger *zap.Logger,
) *Engine {
	ttl := sessionCfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		catalog:  catalog,
		orders:   orders,
		checkout: checkout,
		pricing:  pricingCfg,
		ttl:      ttl,
		logger:   logger,
	}
}

// DraftPatch is a partial update to a session's draft. Nil sections are left
// untouched; the answers map merges key by key.
type DraftPatch struct {
	Identity      *draft.IdentityPatch `json:"identity,omitempty"`
	Answers       map[string]any       `json:"answers,omitempty"`
	TermsAccepted *bool                `json:"terms_accepted,omitempty"`
}

// Start creates a new session for the given flow and catalog item.
func (e *Engine) Start(ctx context.Context, flow, itemID string) (model.SessionDescriptor, error) {
	switch flow {
	case model.FlowServiceOrder, model.FlowTalentPool, model.FlowPartnership:
	default:
		return model.SessionDescriptor{}, model.NewBadRequestError(fmt.Sprintf("unknown flow %q", flow))
	}
	if itemID == "" {
		return model.SessionDescriptor{}, model.NewBadRequestError("item_id is required")
	}

	// 1. Fetch the item definition. NotFound is terminal; Unavailable is
	// recoverable by the user starting again.
	item, err := e.catalog.GetItem(ctx, itemID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}

	// 2. Build the session around a snapshot of the item.
	now := time.Now().UTC()
	expiresAt := now.Add(e.ttl)
	session := model.WizardSession{
		ID:             uuid.New().String(),
		Flow:           flow,
		ItemID:         item.ID,
		Item:           item,
		ItemGeneration: 1,
		StepPlan:       BuildStepPlan(item),
		StepIndex:      0,
		Draft:          seededDraft(item),
		Status:         model.SessionStatusActive,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      &expiresAt,
	}

	if err := e.store.Create(ctx, session); err != nil {
		return model.SessionDescriptor{}, err
	}

	e.logger.Info("session started",
		zap.String("session_id", session.ID),
		zap.String("flow", flow),
		zap.String("item_id", item.ID),
	)
	return e.describe(session), nil
}

// Get returns the current descriptor for a session.
func (e *Engine) Get(ctx context.Context, sessionID string) (model.SessionDescriptor, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	return e.describe(session), nil
}

// ChangeItem re-targets the session at a different catalog item, re-fetching
// its schema. Concurrent changes are resolved last-request-wins: a generation
// counter is bumped before the fetch, and a fetch that comes back to find a
// newer generation discards itself instead of applying a stale schema.
func (e *Engine) ChangeItem(ctx context.Context, sessionID, itemID string) (model.SessionDescriptor, error) {
	if itemID == "" {
		return model.SessionDescriptor{}, model.NewBadRequestError("item_id is required")
	}

	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	if session.Status != model.SessionStatusActive {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			fmt.Sprintf("session is %s; item can only change while active", session.Status),
		)
	}

	// 1. Claim a generation before going to the network.
	generation := session.ItemGeneration + 1
	session.ItemGeneration = generation
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}

	// 2. Fetch outside any lock. On failure the session keeps its previous
	// item and schema untouched.
	item, err := e.catalog.GetItem(ctx, itemID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}

	// 3. Re-load and apply only if no newer change claimed the session.
	session, err = e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	if session.ItemGeneration != generation {
		// A later change won; this fetch is stale.
		return e.describe(session), nil
	}

	session.ItemID = item.ID
	session.Item = item
	session.StepPlan = BuildStepPlan(item)
	session.StepIndex = 0
	session.Draft = seededDraft(item)
	session.LastError = ""
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}

	e.logger.Info("session item changed",
		zap.String("session_id", sessionID),
		zap.String("item_id", item.ID),
	)
	return e.describe(session), nil
}

// UpdateDraft applies a partial draft update. The whole patch is rejected if
// any answer fails coercion; nothing is persisted on failure.
func (e *Engine) UpdateDraft(ctx context.Context, sessionID string, patch DraftPatch) (model.SessionDescriptor, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	if session.Status != model.SessionStatusActive {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			fmt.Sprintf("session is %s; draft is read-only", session.Status),
		)
	}

	ds := draft.FromDraft(session.Draft)

	var details []model.FieldError
	for key, raw := range patch.Answers {
		fd, ok := fieldByID(session.Item, key)
		if !ok {
			if key == pricing.FastTrackField && session.Item.FastTrackSurcharge > 0 {
				fd = model.FieldDescriptor{ID: key, Type: model.FieldBoolean}
			} else {
				details = append(details, model.FieldError{
					Field:   key,
					Code:    field.CodeUnknownField,
					Message: fmt.Sprintf("%q is not a field of this item", key),
				})
				continue
			}
		}
		canonical, ferr := field.Coerce(fd, raw)
		if ferr != nil {
			details = append(details, *ferr)
			continue
		}
		ds.SetField(key, canonical)
	}
	if len(details) > 0 {
		return model.SessionDescriptor{}, model.NewValidationError(details)
	}

	if patch.Identity != nil {
		ds.SetIdentity(*patch.Identity)
	}
	if patch.TermsAccepted != nil {
		ds.SetTermsAccepted(*patch.TermsAccepted)
	}

	session.Draft = ds.Snapshot()
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}
	return e.describe(session), nil
}

// Advance moves the session forward one step if the current step's gate
// passes. Gate failure blocks the transition and names what failed; it never
// escalates beyond the step.
func (e *Engine) Advance(ctx context.Context, sessionID string) (model.SessionDescriptor, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	if session.Status != model.SessionStatusActive {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			fmt.Sprintf("session is %s, not active", session.Status),
		)
	}
	if session.AtFinalStep() {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			"already at the final step; use submit",
		)
	}

	if details := validateStep(session.CurrentStep(), session.Item, session.Draft); len(details) > 0 {
		return model.SessionDescriptor{}, model.NewValidationError(details)
	}

	session.StepIndex++
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}
	return e.describe(session), nil
}

// Retreat moves the session back one step. Retreating never validates;
// incomplete input on the current step is preserved, not judged.
func (e *Engine) Retreat(ctx context.Context, sessionID string) (model.SessionDescriptor, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}
	if session.Status != model.SessionStatusActive {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			fmt.Sprintf("session is %s, not active", session.Status),
		)
	}
	if session.StepIndex == 0 {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			"already at the first step",
		)
	}

	session.StepIndex--
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}
	return e.describe(session), nil
}

// Submit runs the two-phase handoff: create the order, then (for paid flows)
// create the checkout session. The submitting status is persisted before the
// first network leg, so a second submit arriving while one is in flight sees
// it and returns the current descriptor as a no-op rather than retrying.
func (e *Engine) Submit(ctx context.Context, sessionID string) (model.SessionDescriptor, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}

	switch session.Status {
	case model.SessionStatusSubmitting, model.SessionStatusSubmitted:
		// Duplicate submission guard: suppressed action, not an error.
		return e.describe(session), nil
	case model.SessionStatusAbandoned:
		return model.SessionDescriptor{}, model.NewInvalidTransitionError("session is abandoned")
	}

	if !session.AtFinalStep() {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			"submit is only permitted from the review step",
		)
	}
	if details := validateUpTo(session.StepPlan, session.StepIndex, session.Item, session.Draft); len(details) > 0 {
		return model.SessionDescriptor{}, model.NewValidationError(details)
	}

	// Claim the submission. An optimistic-lock conflict here means another
	// request claimed it first; defer to that one.
	session.Status = model.SessionStatusSubmitting
	session.LastError = ""
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}

	// Order leg. Skipped when a previous attempt already created the order;
	// the order must never be created twice for one session.
	if session.OrderRef == "" {
		orderRef, err := e.orders.CreateOrder(ctx, e.buildOrderRequest(session))
		if err != nil {
			e.recordSubmitFailure(ctx, &session, model.ErrOrderCreateFailed)
			return model.SessionDescriptor{}, err
		}
		session.OrderRef = orderRef
		if uerr := e.update(ctx, &session); uerr != nil {
			return e.latest(ctx, sessionID, uerr)
		}
		e.logger.Info("order created",
			zap.String("session_id", session.ID),
			zap.String("order_ref", orderRef),
		)
	}

	return e.finishSubmission(ctx, session)
}

// RetryCheckout re-runs only the checkout leg for a session whose order was
// created but whose payment session failed.
func (e *Engine) RetryCheckout(ctx context.Context, sessionID string) (model.SessionDescriptor, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return model.SessionDescriptor{}, err
	}

	switch session.Status {
	case model.SessionStatusSubmitting, model.SessionStatusSubmitted:
		return e.describe(session), nil
	case model.SessionStatusAbandoned:
		return model.SessionDescriptor{}, model.NewInvalidTransitionError("session is abandoned")
	}
	if session.OrderRef == "" {
		return model.SessionDescriptor{}, model.NewInvalidTransitionError(
			"no unpaid order to retry checkout for",
		)
	}

	session.Status = model.SessionStatusSubmitting
	session.LastError = ""
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, sessionID, err)
	}

	return e.finishSubmission(ctx, session)
}

// finishSubmission runs the checkout leg for paid flows and settles the
// session into its submitted state. The draft is discarded on success.
func (e *Engine) finishSubmission(ctx context.Context, session model.WizardSession) (model.SessionDescriptor, error) {
	if session.Flow == model.FlowServiceOrder {
		redirectURL, err := e.checkout.CreateSession(ctx, session.OrderRef)
		if err != nil {
			e.recordSubmitFailure(ctx, &session, model.ErrCheckoutCreateFailed)
			return model.SessionDescriptor{}, err
		}
		session.RedirectURL = redirectURL
	}

	session.Status = model.SessionStatusSubmitted
	session.LastError = ""
	session.Draft = model.Draft{Answers: make(map[string]any)}
	retention := time.Now().UTC().Add(e.ttl)
	session.ExpiresAt = &retention
	if err := e.update(ctx, &session); err != nil {
		return e.latest(ctx, session.ID, err)
	}

	e.logger.Info("session submitted",
		zap.String("session_id", session.ID),
		zap.String("order_ref", session.OrderRef),
		zap.String("flow", session.Flow),
	)
	return e.describe(session), nil
}

// recordSubmitFailure returns a session to its active state after a failed
// submission leg. The draft is untouched; the user may correct and retry.
func (e *Engine) recordSubmitFailure(ctx context.Context, session *model.WizardSession, code string) {
	session.Status = model.SessionStatusActive
	session.LastError = code
	if err := e.update(ctx, session); err != nil {
		e.logger.Error("failed to record submission failure",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}
	e.logger.Warn("submission leg failed",
		zap.String("session_id", session.ID),
		zap.String("code", code),
		zap.String("order_ref", session.OrderRef),
	)
}

// Abandon marks a session abandoned and discards its draft. The record is
// kept briefly so a returning client sees the abandoned state; the reaper
// removes it after the grace period.
func (e *Engine) Abandon(ctx context.Context, sessionID string) error {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == model.SessionStatusAbandoned {
		return nil
	}

	session.Status = model.SessionStatusAbandoned
	session.Draft = model.Draft{Answers: make(map[string]any)}
	grace := time.Now().UTC().Add(e.ttl)
	session.ExpiresAt = &grace
	if err := e.update(ctx, &session); err != nil {
		return err
	}

	e.logger.Info("session abandoned", zap.String("session_id", sessionID))
	return nil
}

// ReapExpired abandons idle sessions past their TTL and removes abandoned and
// submitted tombstones past their retention period. Returns the number of
// sessions touched.
func (e *Engine) ReapExpired(ctx context.Context) (int, error) {
	expired, err := e.store.FindExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, session := range expired {
		switch session.Status {
		case model.SessionStatusActive:
			if err := e.Abandon(ctx, session.ID); err != nil {
				e.logger.Warn("failed to abandon expired session",
					zap.String("session_id", session.ID),
					zap.Error(err),
				)
				continue
			}
		case model.SessionStatusAbandoned, model.SessionStatusSubmitted:
			if err := e.store.Delete(ctx, session.ID); err != nil {
				e.logger.Warn("failed to delete expired session",
					zap.String("session_id", session.ID),
					zap.String("status", session.Status),
					zap.Error(err),
				)
				continue
			}
		}
		reaped++
	}
	return reaped, nil
}

// OrderStatus proxies the order boundary's status summary for the success
// landing page.
func (e *Engine) OrderStatus(ctx context.Context, orderRef string) (model.OrderStatus, error) {
	return e.orders.GetStatus(ctx, orderRef)
}

// --- internals ---

// update persists the session and mirrors the store's version increment on
// the local copy so follow-up updates within one operation stay consistent.
func (e *Engine) update(ctx context.Context, session *model.WizardSession) error {
	if err := e.store.Update(ctx, *session); err != nil {
		return err
	}
	session.Version++
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// latest resolves an optimistic-lock conflict by returning the winning copy's
// descriptor. Any other error passes through.
func (e *Engine) latest(ctx context.Context, sessionID string, err error) (model.SessionDescriptor, error) {
	if envelope, ok := err.(*model.ErrorEnvelope); ok && envelope.Code == model.ErrConflict {
		if session, gerr := e.store.Get(ctx, sessionID); gerr == nil {
			return e.describe(session), nil
		}
	}
	return model.SessionDescriptor{}, err
}

// seededDraft builds a fresh draft with the item's declared field defaults
// pre-applied.
func seededDraft(item model.ItemDefinition) model.Draft {
	d := model.Draft{Answers: make(map[string]any)}
	for _, fd := range item.Fields {
		if fd.Default == "" {
			continue
		}
		if canonical, ferr := field.Coerce(fd, fd.Default); ferr == nil {
			d.Answers[fd.ID] = canonical
		}
	}
	return d
}

// buildOrderRequest serializes the draft for the order boundary. Answers
// cross the boundary as strings; the price snapshot is attached for paid
// flows only.
func (e *Engine) buildOrderRequest(session model.WizardSession) backend.OrderRequest {
	answers := make(map[string]string, len(session.Draft.Answers))
	for key, value := range session.Draft.Answers {
		fd, _ := fieldByID(session.Item, key)
		answers[key] = field.Serialize(fd, value)
	}

	req := backend.OrderRequest{
		Flow:     session.Flow,
		ItemID:   session.ItemID,
		Identity: session.Draft.Identity,
		Answers:  answers,
	}
	if session.Flow == model.FlowServiceOrder {
		quote := pricing.Quote(session.Item, session.Draft, e.pricing.DefaultCurrency, e.pricing.DefaultTaxRatePercent)
		req.Price = &quote
	}
	return req
}

func fieldByID(item model.ItemDefinition, id string) (model.FieldDescriptor, bool) {
	for _, fd := range item.Fields {
		if fd.ID == id {
			return fd, true
		}
	}
	return model.FieldDescriptor{}, false
}

// describe resolves a session into the descriptor the frontend renders. The
// price is recomputed from the live draft on every call.
func (e *Engine) describe(session model.WizardSession) model.SessionDescriptor {
	desc := model.SessionDescriptor{
		ID:     session.ID,
		Flow:   session.Flow,
		Status: session.Status,
		Item: model.ItemSummary{
			ID:             session.Item.ID,
			Name:           session.Item.Name,
			TurnaroundDays: session.Item.TurnaroundDays,
		},
		Identity:    session.Draft.Identity,
		Terms:       session.Draft.TermsAccepted,
		OrderRef:    session.OrderRef,
		RedirectURL: session.RedirectURL,
		LastError:   session.LastError,
	}

	desc.Steps = make([]model.StepSummary, len(session.StepPlan))
	for i, step := range session.StepPlan {
		status := model.StepStatusFuture
		switch {
		case i < session.StepIndex:
			status = model.StepStatusCompleted
		case i == session.StepIndex:
			status = model.StepStatusCurrent
		}
		desc.Steps[i] = model.StepSummary{ID: step, Title: StepTitle(step), Status: status}
	}

	if session.Status == model.SessionStatusActive {
		desc.CurrentStep = e.describeStep(session)
	}
	if session.Flow == model.FlowServiceOrder && session.Status != model.SessionStatusAbandoned {
		quote := pricing.Quote(session.Item, session.Draft, e.pricing.DefaultCurrency, e.pricing.DefaultTaxRatePercent)
		desc.Price = &quote
	}
	return desc
}

// describeStep resolves the current step's field states. Only the details
// step carries dynamic fields.
func (e *Engine) describeStep(session model.WizardSession) *model.StepDescriptor {
	step := session.CurrentStep()
	if step == "" {
		return nil
	}
	desc := &model.StepDescriptor{ID: step, Title: StepTitle(step)}
	if step != model.StepDetails {
		return desc
	}

	desc.Fields = make([]model.FieldState, len(session.Item.Fields))
	for i, fd := range session.Item.Fields {
		desc.Fields[i] = model.FieldState{
			Descriptor: fd,
			Control:    field.ControlFor(fd),
			Value:      session.Draft.Answers[fd.ID],
		}
	}
	return desc
}
