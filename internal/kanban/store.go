package kanban

import (
	"slices"

	"ficboard/internal/ticket"
)

// Store is the render-order index of ticket records behind a board. Card N
// on the board resolves to Get(N). A Store is rebuilt wholesale whenever its
// board is re-rendered.
type Store struct {
	records []ticket.Ticket
}

func NewStore() *Store { return &Store{} }

// Reset empties the store.
func (s *Store) Reset() { s.records = s.records[:0] }

// Add appends t and returns its index.
func (s *Store) Add(t ticket.Ticket) int {
	s.records = append(s.records, t)
	return len(s.records) - 1
}

// Get returns the record at index i.
func (s *Store) Get(i int) (ticket.Ticket, bool) {
	if s == nil || i < 0 || i >= len(s.records) {
		return nil, false
	}
	return s.records[i], true
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// All returns the records in render order.
func (s *Store) All() []ticket.Ticket { return slices.Clone(s.records) }
