package planning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/bakeryplan/pkg/application/services/testing"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual, msgAndArgs)
}

func findIngredient(t *testing.T, ingredients []entities.IngredientRequirement, id entities.SupplyID) entities.IngredientRequirement {
	t.Helper()
	for _, ing := range ingredients {
		if ing.SupplyID == id {
			return ing
		}
	}
	t.Fatalf("ingredient %s not in plan", id)
	return entities.IngredientRequirement{}
}

type recordingMetrics struct {
	mu     sync.Mutex
	plans  int
	short  int
	issues int
}

func (m *recordingMetrics) PlanComputed(_, _, short int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans++
	m.short += short
}

func (m *recordingMetrics) ProductIssue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues++
}

func newTestPlanner(data *fixtures.BakeryData, metrics Metrics) *Planner {
	return NewPlannerWithConfig(data.Catalog, data.Catalog, data.Supplies, PlannerConfig{
		ResolveConcurrency: 2,
		Metrics:            metrics,
		Now:                fixtures.Now,
	})
}

func TestPlanProduction_ScalesAndClassifies(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)
	defer planner.EndSession(sess)

	plan, err := planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 50},
	})
	require.NoError(t, err)

	require.Len(t, plan.Products, 1)
	assert.True(t, plan.Products[0].HasRecipe)
	assert.Equal(t, "Concha Vainilla", plan.Products[0].Name)
	require.Len(t, plan.Ingredients, 2)

	// recipe order is preserved
	assert.Equal(t, fixtures.Flour, plan.Ingredients[0].SupplyID)
	assert.Equal(t, fixtures.Sugar, plan.Ingredients[1].SupplyID)

	flour := findIngredient(t, plan.Ingredients, fixtures.Flour)
	requireDecimal(t, "10", flour.Required)
	requireDecimal(t, "8", flour.Stock)
	requireDecimal(t, "2", flour.Missing)
	assert.Equal(t, entities.Short, flour.Status)

	sugar := findIngredient(t, plan.Ingredients, fixtures.Sugar)
	requireDecimal(t, "2.5", sugar.Required)
	requireDecimal(t, "0", sugar.Missing)
	assert.Equal(t, entities.Covered, sugar.Status)

	assert.True(t, plan.HasShortage())
	assert.Len(t, plan.ShortIngredients(), 1)
	assert.Equal(t, sess.ID, plan.SessionID)
	assert.Equal(t, 2, plan.Snapshot.Len())
}

func TestPlanProduction_AggregatesSharedSupplyInAnyOrder(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	// concha: 50 * 0.2 = 10 kg flour; bolillo: 50 * 0.06 = 3 kg flour
	forward := []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 50},
		{ProductID: fixtures.Bolillo, Quantity: 50},
	}
	reversed := []entities.ProductionRequest{forward[1], forward[0]}

	a, err := planner.PlanProduction(ctx, sess, forward)
	require.NoError(t, err)
	b, err := planner.PlanProduction(ctx, sess, reversed)
	require.NoError(t, err)

	requireDecimal(t, "13", findIngredient(t, a.Ingredients, fixtures.Flour).Required)
	requireDecimal(t, "13", findIngredient(t, b.Ingredients, fixtures.Flour).Required)

	require.Len(t, b.Ingredients, len(a.Ingredients))
	for _, ing := range a.Ingredients {
		other := findIngredient(t, b.Ingredients, ing.SupplyID)
		assert.True(t, ing.Required.Equal(other.Required), "supply %s", ing.SupplyID)
		assert.Equal(t, ing.Status, other.Status, "supply %s", ing.SupplyID)
	}
}

func TestPlanProduction_ProductWithoutRecipe(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	plan, err := planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
		{ProductID: fixtures.Galleta, Quantity: 24},
	})
	require.NoError(t, err)

	require.Len(t, plan.Products, 1)
	assert.False(t, plan.Products[0].HasRecipe)
	assert.Empty(t, plan.Products[0].Requirements)
	assert.Empty(t, plan.Ingredients)
	assert.Empty(t, plan.Issues)
	assert.False(t, plan.HasShortage())
}

func TestPlanProduction_IsolatesProductFailures(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	metrics := &recordingMetrics{}
	planner := newTestPlanner(data, metrics)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	plan, err := planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 10},
		{ProductID: "does-not-exist", Quantity: 5},
		{ProductID: fixtures.Retired, Quantity: 5},
		{ProductID: fixtures.Bolillo, Quantity: -3},
	})
	require.NoError(t, err)

	require.Len(t, plan.Products, 1)
	assert.Equal(t, fixtures.ConchaVainilla, plan.Products[0].ProductID)
	require.Len(t, plan.Issues, 3)

	byProduct := make(map[entities.ProductID]error)
	for _, issue := range plan.Issues {
		byProduct[issue.ProductID] = issue.Err
		assert.NotEmpty(t, issue.Message)
	}
	assert.ErrorIs(t, byProduct["does-not-exist"], entities.ErrNotFound)
	assert.ErrorIs(t, byProduct[fixtures.Retired], entities.ErrInvalidInput)
	assert.ErrorIs(t, byProduct[fixtures.Bolillo], entities.ErrInvalidInput)

	assert.Equal(t, 1, metrics.plans)
	assert.Equal(t, 3, metrics.issues)
}

func TestPlanProduction_RequestSetRules(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	t.Run("duplicate product rejected", func(t *testing.T) {
		_, err := planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
			{ProductID: fixtures.ConchaVainilla, Quantity: 10},
			{ProductID: fixtures.ConchaVainilla, Quantity: 5},
		})
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})

	t.Run("zero quantity contributes nothing", func(t *testing.T) {
		plan, err := planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
			{ProductID: fixtures.ConchaVainilla, Quantity: 0},
		})
		require.NoError(t, err)
		assert.Empty(t, plan.Products)
		assert.Empty(t, plan.Ingredients)
		assert.Empty(t, plan.Issues)
	})

	t.Run("empty request set", func(t *testing.T) {
		plan, err := planner.PlanProduction(ctx, sess, nil)
		require.NoError(t, err)
		assert.Empty(t, plan.Ingredients)
	})

	t.Run("ended session rejected", func(t *testing.T) {
		ended, err := planner.StartSession(ctx)
		require.NoError(t, err)
		planner.EndSession(ended)

		_, err = planner.PlanProduction(ctx, ended, []entities.ProductionRequest{
			{ProductID: fixtures.ConchaVainilla, Quantity: 1},
		})
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})
}

func TestPlanProduction_Idempotent(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	requests := []entities.ProductionRequest{
		{ProductID: fixtures.Pan, Quantity: 30},
		{ProductID: fixtures.ConchaVainilla, Quantity: 12},
	}
	first, err := planner.PlanProduction(ctx, sess, requests)
	require.NoError(t, err)
	second, err := planner.PlanProduction(ctx, sess, requests)
	require.NoError(t, err)

	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.Ingredients, second.Ingredients)

	// planning never writes stock
	flour, err := data.Supplies.GetSupply(fixtures.Flour)
	require.NoError(t, err)
	requireDecimal(t, "8", flour.CurrentStock)
	assert.Empty(t, data.Supplies.GetMovements())
}

func TestPlanProduction_UntrackedSupplyCountsAsZero(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	data.Catalog.AddRecipeLine(*fixtures.MustCreateRecipeLine(fixtures.ConchaVainilla, "vanilla", "Vanilla", "0.001", "l"))
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	plan, err := planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 1000},
	})
	require.NoError(t, err)

	vanilla := findIngredient(t, plan.Ingredients, "vanilla")
	assert.True(t, vanilla.Untracked)
	requireDecimal(t, "0", vanilla.Stock)
	requireDecimal(t, "1", vanilla.Missing)
	assert.Equal(t, entities.Short, vanilla.Status)
}

func TestPlanProduction_MalformedSupplyFailsSnapshot(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	data.Supplies.AddSupply(entities.Supply{ID: "broken", Name: "Broken", CurrentStock: decimal.NewFromInt(1)})
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)

	_, err = planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 1},
	})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestPlanProduction_CancelledContext(t *testing.T) {
	data := fixtures.BuildSimpleTestData()
	planner := newTestPlanner(data, nil)

	sess, err := planner.StartSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = planner.PlanProduction(ctx, sess, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 1},
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPlanSession_UsesSessionRequests(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	planner := newTestPlanner(data, nil)
	ctx := context.Background()

	sess, err := planner.StartSession(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SetQuantity(fixtures.Bolillo, 100))

	plan, err := planner.PlanSession(ctx, sess)
	require.NoError(t, err)

	requireDecimal(t, "6", findIngredient(t, plan.Ingredients, fixtures.Flour).Required)
	requireDecimal(t, "0.2", findIngredient(t, plan.Ingredients, fixtures.Yeast).Required)
}
