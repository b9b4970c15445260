// Package cart keeps per-session shopping carts in memory. Carts are
// scratch state for the checkout flow and die with the process.
package cart

import (
	"sync"

	"github.com/google/uuid"
)

type Item struct {
	ID          string `json:"id"`
	ServiceID   string `json:"service_id"`
	PackageName string `json:"package_name"`
	Quantity    int    `json:"quantity"`
	Price       int    `json:"price"`
}

type Store struct {
	mu    sync.Mutex
	carts map[string][]Item
}

func NewStore() *Store {
	return &Store{carts: make(map[string][]Item)}
}

// Add appends an item to the session cart. Duplicate lines are kept as-is,
// there is no merging. The item id is assigned here.
func (s *Store) Add(sessionID string, item Item) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = uuid.NewString()
	s.carts[sessionID] = append(s.carts[sessionID], item)
	return item
}

// Remove drops a line by id. Removing an absent id is a no-op.
func (s *Store) Remove(sessionID, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[sessionID]
	for i, item := range items {
		if item.ID == itemID {
			s.carts[sessionID] = append(items[:i], items[i+1:]...)
			return
		}
	}
}

func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
}

// Items returns a copy of the session cart.
func (s *Store) Items(sessionID string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[sessionID]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Total recomputes the cart total from line prices on every call.
func (s *Store) Total(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.carts[sessionID] {
		total += item.Price
	}
	return total
}
