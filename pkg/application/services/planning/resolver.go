package planning

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// DefaultResolveConcurrency bounds concurrent recipe lookups in ResolveAll
const DefaultResolveConcurrency = 8

// Resolution is the outcome of resolving one product's recipe
type Resolution struct {
	ProductID entities.ProductID
	Lines     []entities.RecipeLine
	Err       error
}

// RecipeResolver loads and validates product recipes, caching them in the
// session that asked for them
type RecipeResolver struct {
	recipes     repositories.RecipeRepository
	concurrency int
}

// NewRecipeResolver creates a resolver. A concurrency below one uses the default.
func NewRecipeResolver(recipes repositories.RecipeRepository, concurrency int) *RecipeResolver {
	if concurrency < 1 {
		concurrency = DefaultResolveConcurrency
	}
	return &RecipeResolver{recipes: recipes, concurrency: concurrency}
}

// Resolve returns a product's recipe lines in authoring order. An unknown
// product fails with ErrNotFound; a product without a recipe yields an empty
// slice.
func (r *RecipeResolver) Resolve(ctx context.Context, sess *Session, productID entities.ProductID) ([]entities.RecipeLine, error) {
	product, ok := sess.Product(productID)
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, entities.ErrNotFound)
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: product %s is inactive", entities.ErrInvalidInput, productID)
	}

	if lines, cached := sess.cachedRecipe(productID); cached {
		return lines, nil
	}

	stored, err := r.recipes.GetRecipeByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe for %s: %w", productID, err)
	}

	lines := make([]entities.RecipeLine, 0, len(stored))
	for i, line := range stored {
		if line == nil {
			return nil, fmt.Errorf("%w: recipe for %s has an empty line at position %d", entities.ErrInvalidInput, productID, i+1)
		}
		if err := line.Validate(); err != nil {
			return nil, fmt.Errorf("recipe for %s line %d: %w", productID, i+1, err)
		}
		if line.ProductID != productID {
			return nil, fmt.Errorf("%w: recipe for %s line %d belongs to %s",
				entities.ErrInvalidInput, productID, i+1, line.ProductID)
		}
		lines = append(lines, *line)
	}

	sess.cacheRecipe(productID, lines)
	return lines, nil
}

// ResolveAll resolves several products concurrently. A failure for one product
// is logged and reported in its Resolution without affecting the others.
// Results keep the order of productIDs. The only error returned is the
// context's.
func (r *RecipeResolver) ResolveAll(ctx context.Context, sess *Session, productIDs []entities.ProductID) ([]Resolution, error) {
	results := make([]Resolution, len(productIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, id := range productIDs {
		i, id := i, id
		g.Go(func() error {
			lines, err := r.Resolve(gctx, sess, id)
			if err != nil {
				log.Warn().
					Str("session_id", sess.ID.String()).
					Str("product_id", string(id)).
					Err(err).
					Msg("recipe resolution failed; continuing with remaining products")
			}
			results[i] = Resolution{ProductID: id, Lines: lines, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
