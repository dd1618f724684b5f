package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/application/services/deduction"
	"github.com/vsinha/bakeryplan/pkg/application/services/planning"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
	"github.com/vsinha/bakeryplan/pkg/infrastructure/events"
)

// ProductionOrchestrator is the entry point a UI drives: it coordinates the
// planner and the committer around one planning session
type ProductionOrchestrator struct {
	planner   *planning.Planner
	committer *deduction.Committer
	orders    repositories.OrderRepository
	events    events.EventStore
	now       func() time.Time
}

// Options configures optional collaborators of the orchestrator
type Options struct {
	// Orders enables SuggestFromPendingOrders (nil = no order source)
	Orders repositories.OrderRepository
	// Events records planning facts (nil = not recorded)
	Events events.EventStore
	// Now is the clock used for events and export dates (nil = time.Now)
	Now func() time.Time
}

// NewProductionOrchestrator creates a new production orchestrator
func NewProductionOrchestrator(
	planner *planning.Planner,
	committer *deduction.Committer,
	opts Options,
) *ProductionOrchestrator {
	po := &ProductionOrchestrator{
		planner:   planner,
		committer: committer,
		orders:    opts.Orders,
		events:    opts.Events,
		now:       opts.Now,
	}
	if po.now == nil {
		po.now = time.Now
	}
	return po
}

// StartSession opens a planning session with a fresh recipe cache
func (po *ProductionOrchestrator) StartSession(ctx context.Context) (*planning.Session, error) {
	return po.planner.StartSession(ctx)
}

// EndSession discards a session's cache and request set
func (po *ProductionOrchestrator) EndSession(sess *planning.Session) {
	po.planner.EndSession(sess)
}

// PlanProduction computes a plan for the given requests and records it
func (po *ProductionOrchestrator) PlanProduction(
	ctx context.Context,
	sess *planning.Session,
	requests []entities.ProductionRequest,
) (*dto.ProductionPlan, error) {
	plan, err := po.planner.PlanProduction(ctx, sess, requests)
	if err != nil {
		return nil, fmt.Errorf("failed to plan production: %w", err)
	}
	po.recordPlan(plan)
	return plan, nil
}

// PlanSession plans the session's own request set
func (po *ProductionOrchestrator) PlanSession(ctx context.Context, sess *planning.Session) (*dto.ProductionPlan, error) {
	return po.PlanProduction(ctx, sess, sess.Requests())
}

// ConfirmProduction deducts the plan's requirements from stock. On success
// the session's request set is cleared; the plan itself cannot be confirmed
// again.
func (po *ProductionOrchestrator) ConfirmProduction(
	ctx context.Context,
	sess *planning.Session,
	plan *dto.ProductionPlan,
) (*dto.CommitResult, error) {
	if plan != nil && sess != nil && plan.SessionID != sess.ID {
		return nil, fmt.Errorf("%w: plan belongs to session %s, not %s", entities.ErrInvalidInput, plan.SessionID, sess.ID)
	}

	result, err := po.committer.Commit(ctx, plan)
	if err != nil {
		return result, fmt.Errorf("failed to confirm production: %w", err)
	}

	if sess != nil {
		sess.ClearRequests()
	}
	return result, nil
}

// ExportShoppingList renders the plan's shortages as a checklist dated today
func (po *ProductionOrchestrator) ExportShoppingList(plan *dto.ProductionPlan) (string, error) {
	return planning.ExportShoppingList(plan, po.now())
}

// Present renders the plan as a human-readable summary
func (po *ProductionOrchestrator) Present(plan *dto.ProductionPlan) string {
	return planning.Present(plan)
}

// SuggestFromPendingOrders proposes a request set covering every pending
// customer order and loads it into the session
func (po *ProductionOrchestrator) SuggestFromPendingOrders(ctx context.Context, sess *planning.Session) (*planning.Suggestion, error) {
	if po.orders == nil {
		return nil, fmt.Errorf("%w: no order source configured", entities.ErrInvalidInput)
	}

	orders, err := po.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	suggestion := planning.SuggestFromOrders(sess, orders)
	if err := sess.ReplaceRequests(suggestion.Requests); err != nil {
		return nil, fmt.Errorf("failed to apply suggestion: %w", err)
	}

	if len(suggestion.Unmatched) > 0 {
		log.Warn().
			Str("session_id", sess.ID.String()).
			Strs("products", suggestion.Unmatched).
			Msg("pending orders name products that are not in the active catalog")
	}
	log.Info().
		Str("session_id", sess.ID.String()).
		Int("pending_orders", suggestion.PendingOrders).
		Int("products", len(suggestion.Requests)).
		Msg("loaded production suggestion from pending orders")
	return suggestion, nil
}

func (po *ProductionOrchestrator) recordPlan(plan *dto.ProductionPlan) {
	if po.events == nil {
		return
	}
	now := po.now()
	short := plan.ShortIngredients()
	events.Publish(po.events, events.NewProductionPlannedEvent(events.ProductionPlanned{
		SessionID:   plan.SessionID,
		Requests:    plan.Requests,
		Ingredients: len(plan.Ingredients),
		Short:       len(short),
	}, now))
	for _, ing := range short {
		events.Publish(po.events, events.NewShortageIdentifiedEvent(events.ShortageIdentified{
			SessionID: plan.SessionID,
			Shortage:  ing,
		}, now))
	}
}
