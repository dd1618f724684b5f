package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/bakeryplan/pkg/application/services/testing"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

func newTestSession() *Session {
	return newSession([]*entities.Product{
		fixtures.MustCreateProduct(fixtures.ConchaVainilla, "Concha Vainilla", true),
		fixtures.MustCreateProduct(fixtures.Bolillo, "Bolillo", true),
		fixtures.MustCreateProduct(fixtures.Retired, "Rosca Retirada", false),
	}, time.Now())
}

func TestSession_AdjustQuantityClampsAtZero(t *testing.T) {
	sess := newTestSession()

	qty, err := sess.AdjustQuantity(fixtures.ConchaVainilla, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), qty)

	qty, err = sess.AdjustQuantity(fixtures.ConchaVainilla, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
	assert.Empty(t, sess.Requests(), "a zero quantity leaves the request set")

	qty, err = sess.AdjustQuantity(fixtures.ConchaVainilla, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}

func TestSession_RequestsKeepInsertionOrder(t *testing.T) {
	sess := newTestSession()

	require.NoError(t, sess.SetQuantity(fixtures.Bolillo, 40))
	require.NoError(t, sess.SetQuantity(fixtures.ConchaVainilla, 10))
	require.NoError(t, sess.SetQuantity(fixtures.Bolillo, 45))

	assert.Equal(t, []entities.ProductionRequest{
		{ProductID: fixtures.Bolillo, Quantity: 45},
		{ProductID: fixtures.ConchaVainilla, Quantity: 10},
	}, sess.Requests())

	require.NoError(t, sess.SetQuantity(fixtures.Bolillo, 0))
	assert.Equal(t, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 10},
	}, sess.Requests())

	sess.ClearRequests()
	assert.Empty(t, sess.Requests())
}

func TestSession_RejectsUnplannableProducts(t *testing.T) {
	sess := newTestSession()

	tests := []struct {
		name    string
		product entities.ProductID
		qty     int64
		want    error
	}{
		{"unknown product", "empanada", 3, entities.ErrNotFound},
		{"inactive product", fixtures.Retired, 3, entities.ErrInvalidInput},
		{"negative quantity", fixtures.Bolillo, -1, entities.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sess.SetQuantity(tt.product, tt.qty)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSession_ReplaceRequestsIsAllOrNothing(t *testing.T) {
	sess := newTestSession()
	require.NoError(t, sess.SetQuantity(fixtures.Bolillo, 12))

	err := sess.ReplaceRequests([]entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 5},
		{ProductID: fixtures.Retired, Quantity: 5},
	})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assert.Equal(t, int64(12), sess.Quantity(fixtures.Bolillo))

	require.NoError(t, sess.ReplaceRequests([]entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 5},
		{ProductID: fixtures.Bolillo, Quantity: 0},
	}))
	assert.Equal(t, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 5},
	}, sess.Requests())
}

func TestSession_EndDiscardsState(t *testing.T) {
	sess := newTestSession()
	require.NoError(t, sess.SetQuantity(fixtures.Bolillo, 12))
	sess.cacheRecipe(fixtures.Bolillo, []entities.RecipeLine{
		*fixtures.MustCreateRecipeLine(fixtures.Bolillo, fixtures.Flour, "Flour", "0.06", "kg"),
	})

	sess.end()

	assert.True(t, sess.Ended())
	assert.Empty(t, sess.Requests())
	_, cached := sess.cachedRecipe(fixtures.Bolillo)
	assert.False(t, cached)
	assert.ErrorIs(t, sess.SetQuantity(fixtures.Bolillo, 1), entities.ErrInvalidInput)
}

func TestSession_ActiveProducts(t *testing.T) {
	sess := newTestSession()

	active := sess.ActiveProducts()
	require.Len(t, active, 2)
	assert.Equal(t, fixtures.ConchaVainilla, active[0].ID)
	assert.Equal(t, fixtures.Bolillo, active[1].ID)
}
