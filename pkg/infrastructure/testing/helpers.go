package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
	"github.com/vsinha/bakeryplan/pkg/domain/repositories"
)

// FaultyStore wraps a supply store and injects failures into UpdateStock.
// It deliberately exposes only repositories.SupplyRepository, so callers fall
// back to per-supply writes even when the wrapped store is transactional.
type FaultyStore struct {
	inner repositories.SupplyRepository

	mu             sync.Mutex
	calls          int
	failAfter      int
	failErr        error
	transientLeft  int
	lostDeducts    int
	lostRestores   int
	failRestoreFor map[entities.SupplyID]bool
	listErr        error
	beforeUpdate   func(call int, id entities.SupplyID)
	updates        []entities.StockAdjustment
}

// NewFaultyStore wraps inner with no faults configured
func NewFaultyStore(inner repositories.SupplyRepository) *FaultyStore {
	return &FaultyStore{
		inner:          inner,
		failAfter:      -1,
		failRestoreFor: make(map[entities.SupplyID]bool),
	}
}

var _ repositories.SupplyRepository = (*FaultyStore)(nil)

// FailAfter lets k decrements through and fails every later decrement with err.
// Compensating (positive) writes are not affected.
func (s *FaultyStore) FailAfter(k int, err error) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = k
	s.failErr = err
	return s
}

// FailTransient makes the next n writes fail with entities.ErrTransientIO
// without touching stock
func (s *FaultyStore) FailTransient(n int) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transientLeft = n
	return s
}

// TimeoutAfterDeduct makes the next n decrements reach the wrapped store and
// then report entities.ErrTransientIO, like a timeout that fires after the
// write committed
func (s *FaultyStore) TimeoutAfterDeduct(n int) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostDeducts = n
	return s
}

// TimeoutAfterRestore is TimeoutAfterDeduct for compensating (positive) writes
func (s *FaultyStore) TimeoutAfterRestore(n int) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lostRestores = n
	return s
}

// FailRestore makes every compensating write for id fail
func (s *FaultyStore) FailRestore(id entities.SupplyID) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRestoreFor[id] = true
	return s
}

// FailList makes ListSupplies return err
func (s *FaultyStore) FailList(err error) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
	return s
}

// BeforeUpdate registers a hook run before each UpdateStock reaches the
// wrapped store. Tests use it to simulate a concurrent writer.
func (s *FaultyStore) BeforeUpdate(hook func(call int, id entities.SupplyID)) *FaultyStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeUpdate = hook
	return s
}

// Updates returns every write that reached the wrapped store, in order
func (s *FaultyStore) Updates() []entities.StockAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.StockAdjustment(nil), s.updates...)
}

// Calls returns how many times UpdateStock was invoked, failures included
func (s *FaultyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ListSupplies delegates to the wrapped store unless a listing fault is set
func (s *FaultyStore) ListSupplies(ctx context.Context) ([]*entities.Supply, error) {
	s.mu.Lock()
	listErr := s.listErr
	s.mu.Unlock()
	if listErr != nil {
		return nil, listErr
	}
	return s.inner.ListSupplies(ctx)
}

// UpdateStock applies configured faults and otherwise delegates
func (s *FaultyStore) UpdateStock(ctx context.Context, id entities.SupplyID, delta decimal.Decimal) (*entities.Supply, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	hook := s.beforeUpdate

	if s.transientLeft > 0 {
		s.transientLeft--
		s.mu.Unlock()
		return nil, fmt.Errorf("injected timeout on supply %s: %w", id, entities.ErrTransientIO)
	}
	if delta.IsPositive() && s.failRestoreFor[id] {
		s.mu.Unlock()
		return nil, fmt.Errorf("injected restore failure on supply %s", id)
	}
	if delta.IsNegative() && s.failAfter >= 0 {
		if s.failAfter == 0 {
			err := s.failErr
			s.mu.Unlock()
			return nil, err
		}
		s.failAfter--
	}
	s.mu.Unlock()

	if hook != nil {
		hook(call, id)
	}

	updated, err := s.inner.UpdateStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, entities.StockAdjustment{SupplyID: id, Delta: delta})
	if delta.IsNegative() && s.lostDeducts > 0 {
		s.lostDeducts--
		return nil, fmt.Errorf("injected timeout after writing supply %s: %w", id, entities.ErrTransientIO)
	}
	if delta.IsPositive() && s.lostRestores > 0 {
		s.lostRestores--
		return nil, fmt.Errorf("injected timeout after restoring supply %s: %w", id, entities.ErrTransientIO)
	}
	return updated, nil
}

// TransactionalStore is a supply store that can also write atomically
type TransactionalStore interface {
	repositories.SupplyRepository
	repositories.StockTransactor
}

// FlakyTransactor wraps a transactional store and fails the first n atomic
// writes with entities.ErrTransientIO
type FlakyTransactor struct {
	TransactionalStore

	mu       sync.Mutex
	failures int
	attempts int
}

// NewFlakyTransactor wraps inner, failing its first n atomic writes
func NewFlakyTransactor(inner TransactionalStore, n int) *FlakyTransactor {
	return &FlakyTransactor{TransactionalStore: inner, failures: n}
}

var _ TransactionalStore = (*FlakyTransactor)(nil)

// Attempts returns how many atomic writes were attempted
func (f *FlakyTransactor) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// ApplyStockAdjustments fails while injected failures remain, then delegates
func (f *FlakyTransactor) ApplyStockAdjustments(
	ctx context.Context,
	commitID uuid.UUID,
	adjustments []entities.StockAdjustment,
) ([]entities.StockMovement, error) {
	f.mu.Lock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, fmt.Errorf("injected connection reset: %w", entities.ErrTransientIO)
	}
	f.mu.Unlock()
	return f.TransactionalStore.ApplyStockAdjustments(ctx, commitID, adjustments)
}
