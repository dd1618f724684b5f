package events

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore()
	sessionID := uuid.New()
	at := time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)

	Publish(store, NewProductionPlannedEvent(ProductionPlanned{SessionID: sessionID, Ingredients: 2, Short: 1}, at))
	Publish(store, NewStockDeductedEvent(StockDeducted{SupplyID: "flour"}, at))
	Publish(store, NewProductionCommittedEvent(ProductionCommitted{SessionID: sessionID}, at))

	session, err := store.ReadEvents(SessionStream(sessionID), 0)
	require.NoError(t, err)
	require.Len(t, session, 2)
	assert.Equal(t, ProductionPlannedEvent, session[0].Type())
	assert.Equal(t, 1, session[0].Version())
	assert.Equal(t, ProductionCommittedEvent, session[1].Type())
	assert.Equal(t, 2, session[1].Version())
	assert.Equal(t, at, session[1].Timestamp())

	supply, err := store.ReadEvents(SupplyStream(entities.SupplyID("flour")), 1)
	require.NoError(t, err)
	require.Len(t, supply, 1)
	assert.Equal(t, 1, supply[0].Version())

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := store.ReadEvents(SessionStream(sessionID), 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryEventStore_NotifiesSubscribers(t *testing.T) {
	store := NewInMemoryEventStore()
	var received []string

	handler := &HandlerFunc{
		Types: []string{ProductionRolledBackEvent},
		Fn: func(e Event) error {
			received = append(received, e.Type())
			return errors.New("handler errors are logged, not returned")
		},
	}
	require.NoError(t, store.Subscribe([]string{ProductionRolledBackEvent}, handler))

	Publish(store, NewProductionRolledBackEvent(ProductionRolledBack{SessionID: uuid.New(), Reason: "conflict"}, time.Now()))
	Publish(store, NewProductionCommittedEvent(ProductionCommitted{SessionID: uuid.New()}, time.Now()))
	assert.Equal(t, []string{ProductionRolledBackEvent}, received)

	require.NoError(t, store.Unsubscribe(handler))
	Publish(store, NewProductionRolledBackEvent(ProductionRolledBack{SessionID: uuid.New()}, time.Now()))
	assert.Len(t, received, 1)
}

func TestPublish_NilStore(t *testing.T) {
	assert.NotPanics(t, func() {
		Publish(nil, NewStockDeductedEvent(StockDeducted{SupplyID: "sugar"}, time.Now()))
	})
}
