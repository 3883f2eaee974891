package memory

import (
	"context"
	"fmt"
	"sync"

	"dompet/internal/core"
	ports "dompet/internal/sheets"
)

// Store is an in-process LedgerExporter used when no spreadsheet is configured and in tests.
type Store struct {
	mu    sync.Mutex
	order []string
	rows  map[string]core.LedgerEntry
	// Fail, when set, is returned by every call.
	Fail error
}

var _ ports.LedgerExporter = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[string]core.LedgerEntry)}
}

// UpsertEntry replaces the row for e.ID in place or appends a new one.
func (s *Store) UpsertEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return "", s.Fail
	}
	if _, ok := s.rows[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.rows[e.ID] = e
	return fmt.Sprintf("mem:%d", s.indexLocked(e.ID)+1), nil
}

func (s *Store) DeleteEntry(_ context.Context, e core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if i := s.indexLocked(e.ID); i >= 0 {
		s.order = append(s.order[:i], s.order[i+1:]...)
		delete(s.rows, e.ID)
	}
	return nil
}

// Entries returns the exported rows in insertion order.
func (s *Store) Entries() []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LedgerEntry, len(s.order))
	for i, id := range s.order {
		out[i] = s.rows[id]
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}
