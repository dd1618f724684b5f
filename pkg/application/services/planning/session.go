package planning

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// Session holds everything one planning session owns: the catalog read at
// session start, the per-product recipe cache and the request set being edited.
// Nothing here outlives the session.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	mu           sync.Mutex
	catalog      map[entities.ProductID]entities.Product
	catalogOrder []entities.ProductID
	recipes      map[entities.ProductID][]entities.RecipeLine
	quantities   map[entities.ProductID]int64
	requestOrder []entities.ProductID
	ended        bool
}

func newSession(products []*entities.Product, startedAt time.Time) *Session {
	s := &Session{
		ID:           uuid.New(),
		StartedAt:    startedAt,
		catalog:      make(map[entities.ProductID]entities.Product, len(products)),
		catalogOrder: make([]entities.ProductID, 0, len(products)),
		recipes:      make(map[entities.ProductID][]entities.RecipeLine),
		quantities:   make(map[entities.ProductID]int64),
	}
	for _, p := range products {
		if _, seen := s.catalog[p.ID]; !seen {
			s.catalogOrder = append(s.catalogOrder, p.ID)
		}
		s.catalog[p.ID] = *p
	}
	return s
}

// Product returns a catalog entry as read at session start
func (s *Session) Product(id entities.ProductID) (entities.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.catalog[id]
	return p, ok
}

// ActiveProducts returns the plannable products in catalog order
func (s *Session) ActiveProducts() []entities.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]entities.Product, 0, len(s.catalogOrder))
	for _, id := range s.catalogOrder {
		if p := s.catalog[id]; p.Active {
			products = append(products, p)
		}
	}
	return products
}

// SetQuantity sets the desired output for a product. Zero removes the
// product from the request set.
func (s *Session) SetQuantity(id entities.ProductID, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPlannable(id); err != nil {
		return err
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity for %s cannot be negative, got %d", entities.ErrInvalidInput, id, quantity)
	}
	s.setLocked(id, quantity)
	return nil
}

// AdjustQuantity adds delta to a product's desired output, clamping at zero,
// and returns the new quantity
func (s *Session) AdjustQuantity(id entities.ProductID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPlannable(id); err != nil {
		return 0, err
	}
	quantity := max(s.quantities[id]+delta, 0)
	s.setLocked(id, quantity)
	return quantity, nil
}

// Quantity returns the current desired output for a product
func (s *Session) Quantity(id entities.ProductID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quantities[id]
}

// Requests returns the active request set in the order products were added
func (s *Session) Requests() []entities.ProductionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := make([]entities.ProductionRequest, 0, len(s.requestOrder))
	for _, id := range s.requestOrder {
		requests = append(requests, entities.ProductionRequest{ProductID: id, Quantity: s.quantities[id]})
	}
	return requests
}

// ClearRequests empties the request set
func (s *Session) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantities = make(map[entities.ProductID]int64)
	s.requestOrder = nil
}

// ReplaceRequests swaps the whole request set. Zero quantities are dropped.
func (s *Session) ReplaceRequests(requests []entities.ProductionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range requests {
		if err := s.checkPlannable(req.ProductID); err != nil {
			return err
		}
		if req.Quantity < 0 {
			return fmt.Errorf("%w: quantity for %s cannot be negative, got %d", entities.ErrInvalidInput, req.ProductID, req.Quantity)
		}
	}

	s.quantities = make(map[entities.ProductID]int64, len(requests))
	s.requestOrder = nil
	for _, req := range requests {
		s.setLocked(req.ProductID, req.Quantity)
	}
	return nil
}

// Ended reports whether EndSession has been called
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) cachedRecipe(id entities.ProductID) ([]entities.RecipeLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.recipes[id]
	if !ok {
		return nil, false
	}
	return append([]entities.RecipeLine(nil), lines...), true
}

func (s *Session) cacheRecipe(id entities.ProductID, lines []entities.RecipeLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.recipes[id] = append([]entities.RecipeLine(nil), lines...)
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	s.recipes = make(map[entities.ProductID][]entities.RecipeLine)
	s.quantities = make(map[entities.ProductID]int64)
	s.requestOrder = nil
}

// checkPlannable must be called with s.mu held
func (s *Session) checkPlannable(id entities.ProductID) error {
	if s.ended {
		return fmt.Errorf("%w: session %s has ended", entities.ErrInvalidInput, s.ID)
	}
	p, ok := s.catalog[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, entities.ErrNotFound)
	}
	if !p.Active {
		return fmt.Errorf("%w: product %s is inactive", entities.ErrInvalidInput, id)
	}
	return nil
}

// setLocked must be called with s.mu held
func (s *Session) setLocked(id entities.ProductID, quantity int64) {
	_, present := s.quantities[id]
	if quantity == 0 {
		if present {
			delete(s.quantities, id)
			for i, existing := range s.requestOrder {
				if existing == id {
					s.requestOrder = append(s.requestOrder[:i], s.requestOrder[i+1:]...)
					break
				}
			}
		}
		return
	}
	if !present {
		s.requestOrder = append(s.requestOrder, id)
	}
	s.quantities[id] = quantity
}
