package memory

import (
	"context"
	"fmt"
	"sync"

	"carenote/internal/sheets"
)

// Store is an in-memory ledger used by tests and the memory backend.
type Store struct {
	mu   sync.Mutex
	rows []sheets.Row
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// ListIDs returns the IDs of every appended row.
func (s *Store) ListIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.rows))
	for _, r := range s.rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Rows returns a copy of the appended rows.
func (s *Store) Rows() []sheets.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Row(nil), s.rows...)
}
