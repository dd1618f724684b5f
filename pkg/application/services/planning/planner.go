package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// PlannerConfig holds tuning for the planner
type PlannerConfig struct {
	// ResolveConcurrency bounds concurrent recipe lookups (0 = default)
	ResolveConcurrency int
	// Metrics receives planning telemetry (nil = discarded)
	Metrics Metrics
	// Now is the clock used for session and snapshot timestamps (nil = time.Now)
	Now func() time.Time
}

// Planner turns production requests into classified ingredient requirements
type Planner struct {
	products repositories.ProductRepository
	supplies repositories.SupplyRepository
	resolver *RecipeResolver
	metrics  Metrics
	now      func() time.Time
}

// NewPlanner creates a planner with default configuration
func NewPlanner(
	products repositories.ProductRepository,
	recipes repositories.RecipeRepository,
	supplies repositories.SupplyRepository,
) *Planner {
	return NewPlannerWithConfig(products, recipes, supplies, PlannerConfig{})
}

// NewPlannerWithConfig creates a planner with custom configuration
func NewPlannerWithConfig(
	products repositories.ProductRepository,
	recipes repositories.RecipeRepository,
	supplies repositories.SupplyRepository,
	config PlannerConfig,
) *Planner {
	p := &Planner{
		products: products,
		supplies: supplies,
		resolver: NewRecipeResolver(recipes, config.ResolveConcurrency),
		metrics:  config.Metrics,
		now:      config.Now,
	}
	if p.metrics == nil {
		p.metrics = nopMetrics{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Resolver exposes the planner's recipe resolver
func (p *Planner) Resolver() *RecipeResolver {
	return p.resolver
}

// StartSession reads the product catalog and opens a session with an empty
// recipe cache
func (p *Planner) StartSession(ctx context.Context) (*Session, error) {
	products, err := p.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}

	valid := make([]*entities.Product, 0, len(products))
	for _, product := range products {
		if product == nil {
			continue
		}
		if err := product.Validate(); err != nil {
			log.Warn().Str("product_id", string(product.ID)).Err(err).Msg("skipping malformed product")
			continue
		}
		valid = append(valid, product)
	}

	sess := newSession(valid, p.now())
	log.Debug().Str("session_id", sess.ID.String()).Int("products", len(valid)).Msg("planning session started")
	return sess, nil
}

// EndSession discards the session's cache and request set
func (p *Planner) EndSession(sess *Session) {
	sess.end()
	log.Debug().Str("session_id", sess.ID.String()).Msg("planning session ended")
}

// PlanSession plans the session's current request set
func (p *Planner) PlanSession(ctx context.Context, sess *Session) (*dto.ProductionPlan, error) {
	return p.PlanProduction(ctx, sess, sess.Requests())
}

// PlanProduction resolves, scales, aggregates and classifies the given
// requests against a fresh stock snapshot.
//
// Failures that concern a single product are recorded in plan.Issues and the
// rest of the batch is still planned. An error is returned only for a bad
// request set (ended session, duplicate product), a failed snapshot read or
// a cancelled context.
func (p *Planner) PlanProduction(
	ctx context.Context,
	sess *Session,
	requests []entities.ProductionRequest,
) (*dto.ProductionPlan, error) {
	if sess.Ended() {
		return nil, fmt.Errorf("%w: session %s has ended", entities.ErrInvalidInput, sess.ID)
	}

	plan := &dto.ProductionPlan{
		SessionID:   sess.ID,
		Requests:    make([]entities.ProductionRequest, 0, len(requests)),
		Products:    make([]dto.ProductPlan, 0, len(requests)),
		Ingredients: []entities.IngredientRequirement{},
	}

	// Pass 1: validate the request set
	seen := make(map[entities.ProductID]bool, len(requests))
	toResolve := make([]entities.ProductionRequest, 0, len(requests))
	for _, req := range requests {
		if seen[req.ProductID] {
			return nil, fmt.Errorf("%w: product %s requested more than once", entities.ErrInvalidInput, req.ProductID)
		}
		seen[req.ProductID] = true

		if req.Quantity == 0 {
			continue
		}
		if req.Quantity < 0 {
			p.addIssue(plan, sess, req.ProductID, fmt.Errorf(
				"%w: desired quantity cannot be negative, got %d", entities.ErrInvalidInput, req.Quantity))
			continue
		}
		toResolve = append(toResolve, req)
	}

	// Pass 2: resolve every recipe concurrently, joining before aggregation
	ids := make([]entities.ProductID, len(toResolve))
	for i, req := range toResolve {
		ids[i] = req.ProductID
	}
	resolutions, err := p.resolver.ResolveAll(ctx, sess, ids)
	if err != nil {
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}

	// Pass 3: scale each product
	for i, res := range resolutions {
		req := toResolve[i]
		if res.Err != nil {
			p.addIssue(plan, sess, req.ProductID, res.Err)
			continue
		}
		scaled, err := Scale(res.Lines, req.Quantity)
		if err != nil {
			p.addIssue(plan, sess, req.ProductID, err)
			continue
		}

		product, _ := sess.Product(req.ProductID)
		plan.Requests = append(plan.Requests, req)
		plan.Products = append(plan.Products, dto.ProductPlan{
			ProductID:    req.ProductID,
			Name:         product.Name,
			Quantity:     req.Quantity,
			HasRecipe:    len(res.Lines) > 0,
			Requirements: scaled,
		})
	}

	// Pass 4: aggregate across products
	totals := Aggregate(plan.Products)

	// Pass 5: one coherent stock read, after all resolution
	snapshot, err := TakeSnapshot(ctx, p.supplies, p.now())
	if err != nil {
		return nil, err
	}
	plan.Snapshot = snapshot

	// Pass 6: classify
	plan.Ingredients = Classify(totals, snapshot)

	short := len(plan.ShortIngredients())
	p.metrics.PlanComputed(len(plan.Products), len(plan.Ingredients), short)
	log.Info().
		Str("session_id", sess.ID.String()).
		Int("products", len(plan.Products)).
		Int("ingredients", len(plan.Ingredients)).
		Int("short", short).
		Int("issues", len(plan.Issues)).
		Msg("production plan computed")

	return plan, nil
}

func (p *Planner) addIssue(plan *dto.ProductionPlan, sess *Session, id entities.ProductID, err error) {
	product, _ := sess.Product(id)
	plan.Issues = append(plan.Issues, dto.NewProductIssue(id, product.Name, err))
	p.metrics.ProductIssue()
}
