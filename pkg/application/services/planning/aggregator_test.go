package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bakeryplan/pkg/application/dto"
	fixtures "github.com/vsinha/bakeryplan/pkg/application/services/testing"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

func scaled(t *testing.T, quantity int64, lines ...*entities.RecipeLine) []entities.ScaledRequirement {
	t.Helper()
	values := make([]entities.RecipeLine, len(lines))
	for i, l := range lines {
		values[i] = *l
	}
	reqs, err := Scale(values, quantity)
	require.NoError(t, err)
	return reqs
}

func TestScale(t *testing.T) {
	line := fixtures.MustCreateRecipeLine(fixtures.ConchaVainilla, fixtures.Flour, "Flour", "0.2", "kg")

	t.Run("exact multiplication", func(t *testing.T) {
		reqs := scaled(t, 50, line)
		require.Len(t, reqs, 1)
		requireDecimal(t, "10", reqs[0].Quantity)
		assert.Equal(t, "Flour", reqs[0].SupplyName)
	})

	t.Run("zero quantity yields nothing", func(t *testing.T) {
		assert.Empty(t, scaled(t, 0, line))
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		_, err := Scale([]entities.RecipeLine{*line}, -1)
		assert.ErrorIs(t, err, entities.ErrInvalidInput)
	})

	t.Run("repeated fractions do not drift", func(t *testing.T) {
		third := fixtures.MustCreateRecipeLine(fixtures.Bolillo, fixtures.Yeast, "Yeast", "0.001", "kg")
		requireDecimal(t, "1", scaled(t, 1000, third)[0].Quantity)
	})
}

func TestAggregate_UnitConflictSumsAndKeepsLastUnit(t *testing.T) {
	products := []dto.ProductPlan{
		{ProductID: "a", Requirements: scaled(t, 1,
			fixtures.MustCreateRecipeLine("a", fixtures.Butter, "Butter", "0.5", "kg"))},
		{ProductID: "b", Requirements: scaled(t, 1,
			fixtures.MustCreateRecipeLine("b", fixtures.Butter, "Butter", "200", "g"))},
	}

	totals := Aggregate(products)

	butter, ok := totals.Get(fixtures.Butter)
	require.True(t, ok)
	assert.True(t, butter.UnitConflict)
	assert.Equal(t, "g", butter.Unit)
	requireDecimal(t, "200.5", butter.Required)
}

func TestClassify_BoundaryIsCovered(t *testing.T) {
	totals := entities.NewRequirementTotals()
	totals.Add(entities.ScaledRequirement{SupplyID: fixtures.Sugar, SupplyName: "Sugar", Unit: "kg", Quantity: dec("5")})

	snapshot := entities.NewStockSnapshot([]entities.Supply{
		*fixtures.MustCreateSupply(fixtures.Sugar, "Azúcar", "5", "kg"),
	}, fixtures.Now())

	result := Classify(totals, snapshot)
	require.Len(t, result, 1)
	assert.Equal(t, entities.Covered, result[0].Status)
	requireDecimal(t, "0", result[0].Missing)
	assert.Equal(t, "Azúcar", result[0].Name, "stock name wins over recipe name")
}

func TestClassify_NegativeStockIsShortByFullRequirement(t *testing.T) {
	totals := entities.NewRequirementTotals()
	totals.Add(entities.ScaledRequirement{SupplyID: fixtures.Flour, SupplyName: "Flour", Unit: "kg", Quantity: dec("3")})

	snapshot := entities.NewStockSnapshot([]entities.Supply{
		*fixtures.MustCreateSupply(fixtures.Flour, "Flour", "-2", "kg"),
	}, fixtures.Now())

	result := Classify(totals, snapshot)
	require.Len(t, result, 1)
	assert.Equal(t, entities.Short, result[0].Status)
	requireDecimal(t, "5", result[0].Missing)
}
