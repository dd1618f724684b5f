package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixtures "github.com/vsinha/bakeryplan/pkg/application/services/testing"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

func TestSuggestFromOrders(t *testing.T) {
	data := fixtures.BuildBakeryTestData()
	ctx := context.Background()

	products, err := data.Catalog.ListProducts(ctx)
	require.NoError(t, err)
	orders, err := data.Orders.ListOrders(ctx)
	require.NoError(t, err)

	suggestion := SuggestFromOrders(newSession(products, fixtures.Now()), orders)

	assert.Equal(t, 3, suggestion.PendingOrders)
	assert.Equal(t, []entities.ProductionRequest{
		{ProductID: fixtures.ConchaVainilla, Quantity: 50},
		{ProductID: fixtures.Bolillo, Quantity: 50},
	}, suggestion.Requests)
	// inactive products are not suggested
	assert.Equal(t, []string{"Empanada", "Rosca Retirada"}, suggestion.Unmatched)
}

func TestSuggestFromOrders_NoPendingOrders(t *testing.T) {
	sess := newTestSession()
	delivered := fixtures.MustCreateOrder("o-9", entities.OrderDelivered,
		entities.OrderItem{ProductName: "Bolillo", Quantity: 3})

	suggestion := SuggestFromOrders(sess, []*entities.Order{delivered, nil})

	assert.Zero(t, suggestion.PendingOrders)
	assert.Empty(t, suggestion.Requests)
	assert.Empty(t, suggestion.Unmatched)
}
