package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

const (
	ProductionPlannedEvent    = "production.planned"
	ProductionCommittedEvent  = "production.committed"
	ProductionRolledBackEvent = "production.rolled_back"
	StockDeductedEvent        = "stock.deducted"
	ShortageIdentifiedEvent   = "shortage.identified"
)

// AllProductionEvents lists every event type recorded by planning and deduction
var AllProductionEvents = []string{
	ProductionPlannedEvent,
	ShortageIdentifiedEvent,
	StockDeductedEvent,
	ProductionCommittedEvent,
	ProductionRolledBackEvent,
}

// SessionStream names the stream a planning session's events are recorded on
func SessionStream(sessionID uuid.UUID) string {
	return "session-" + sessionID.String()
}

// SupplyStream names the stream a supply's stock movements are recorded on
func SupplyStream(id entities.SupplyID) string {
	return "supply-" + string(id)
}

type ProductionPlanned struct {
	SessionID   uuid.UUID                    `json:"session_id"`
	Requests    []entities.ProductionRequest `json:"requests"`
	Ingredients int                          `json:"ingredients"`
	Short       int                          `json:"short"`
}

type ShortageIdentified struct {
	SessionID uuid.UUID                      `json:"session_id"`
	Shortage  entities.IngredientRequirement `json:"shortage"`
}

type ProductionCommitted struct {
	SessionID     uuid.UUID                    `json:"session_id"`
	CommitID      uuid.UUID                    `json:"commit_id"`
	Requests      []entities.ProductionRequest `json:"requests"`
	Supplies      int                          `json:"supplies"`
	NegativeStock bool                         `json:"negative_stock"`
}

type ProductionRolledBack struct {
	SessionID  uuid.UUID           `json:"session_id"`
	CommitID   uuid.UUID           `json:"commit_id"`
	Reason     string              `json:"reason"`
	Unrestored []entities.SupplyID `json:"unrestored,omitempty"`
}

type StockDeducted struct {
	CommitID uuid.UUID         `json:"commit_id"`
	SupplyID entities.SupplyID `json:"supply_id"`
	Delta    decimal.Decimal   `json:"delta"`
	Before   decimal.Decimal   `json:"before"`
	After    decimal.Decimal   `json:"after"`
}

func NewProductionPlannedEvent(data ProductionPlanned, at time.Time) Event {
	return NewEvent(ProductionPlannedEvent, SessionStream(data.SessionID), data, at)
}

func NewShortageIdentifiedEvent(data ShortageIdentified, at time.Time) Event {
	return NewEvent(ShortageIdentifiedEvent, SessionStream(data.SessionID), data, at)
}

func NewProductionCommittedEvent(data ProductionCommitted, at time.Time) Event {
	return NewEvent(ProductionCommittedEvent, SessionStream(data.SessionID), data, at)
}

func NewProductionRolledBackEvent(data ProductionRolledBack, at time.Time) Event {
	return NewEvent(ProductionRolledBackEvent, SessionStream(data.SessionID), data, at)
}

func NewStockDeductedEvent(data StockDeducted, at time.Time) Event {
	return NewEvent(StockDeductedEvent, SupplyStream(data.SupplyID), data, at)
}

// Publish appends an event to its own stream, logging instead of failing when
// the store refuses it. A nil store is a no-op.
func Publish(store EventStore, event Event) {
	if store == nil {
		return
	}
	if err := store.AppendEvent(event.StreamID(), event); err != nil {
		logAppendFailure(event, err)
	}
}
