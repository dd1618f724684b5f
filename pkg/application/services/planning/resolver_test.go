package planning

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/bakeryplan/pkg/application/services/testing"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// countingRecipes counts store reads per call
type countingRecipes struct {
	repositories.RecipeRepository
	calls atomic.Int32
}

func (c *countingRecipes) GetRecipeByProduct(ctx context.Context, id entities.ProductID) ([]*entities.RecipeLine, error) {
	c.calls.Add(1)
	return c.RecipeRepository.GetRecipeByProduct(ctx, id)
}

func TestRecipeResolver_CachesPerSession(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	recipes := &countingRecipes{RecipeRepository: data.Catalog}
	resolver := NewRecipeResolver(recipes, 0)
	ctx := context.Background()

	products, err := data.Catalog.ListProducts(ctx)
	require.NoError(t, err)

	sess := newSession(products, fixtures.Now())
	first, err := resolver.Resolve(ctx, sess, fixtures.ConchaVainilla)
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, sess, fixtures.ConchaVainilla)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), recipes.calls.Load())

	// a new session starts with an empty cache
	other := newSession(products, fixtures.Now())
	_, err = resolver.Resolve(ctx, other, fixtures.ConchaVainilla)
	require.NoError(t, err)
	assert.Equal(t, int32(2), recipes.calls.Load())
}

func TestRecipeResolver_PreservesAuthoringOrder(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	resolver := NewRecipeResolver(data.Catalog, 1)
	ctx := context.Background()

	products, err := data.Catalog.ListProducts(ctx)
	require.NoError(t, err)
	sess := newSession(products, fixtures.Now())

	lines, err := resolver.Resolve(ctx, sess, fixtures.Pan)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, fixtures.Flour, lines[0].SupplyID)
	assert.Equal(t, fixtures.Butter, lines[1].SupplyID)
	assert.Equal(t, fixtures.Sugar, lines[2].SupplyID)
}

func TestRecipeResolver_RejectsMalformedLines(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	// bypass the validated constructor to simulate a bad store record
	data.Catalog.AddRecipeLine(entities.RecipeLine{
		ID:        "bad",
		ProductID: fixtures.Galleta,
		SupplyID:  fixtures.Butter,
		Unit:      "kg",
	})
	resolver := NewRecipeResolver(data.Catalog, 1)
	ctx := context.Background()

	products, err := data.Catalog.ListProducts(ctx)
	require.NoError(t, err)
	sess := newSession(products, fixtures.Now())

	_, err = resolver.Resolve(ctx, sess, fixtures.Galleta)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	_, cached := sess.cachedRecipe(fixtures.Galleta)
	assert.False(t, cached, "failed resolutions are not cached")
}

func TestRecipeResolver_ResolveAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	resolver := NewRecipeResolver(data.Catalog, 2)
	ctx := context.Background()

	products, err := data.Catalog.ListProducts(ctx)
	require.NoError(t, err)
	sess := newSession(products, fixtures.Now())

	ids := []entities.ProductID{fixtures.Pan, "missing", fixtures.Galleta, fixtures.ConchaVainilla}
	results, err := resolver.ResolveAll(ctx, sess, ids)
	require.NoError(t, err)
	require.Len(t, results, len(ids))

	for i, res := range results {
		assert.Equal(t, ids[i], res.ProductID)
	}
	assert.Len(t, results[0].Lines, 3)
	assert.ErrorIs(t, results[1].Err, entities.ErrNotFound)
	assert.NoError(t, results[2].Err)
	assert.Empty(t, results[2].Lines)
	assert.Len(t, results[3].Lines, 2)
}
