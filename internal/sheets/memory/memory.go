// Package memory is an in-process mirror used in tests and credential-less
// local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"envelope/internal/core"
	ports "envelope/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.LedgerEntry
	fail error
}

var _ ports.EntryMirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendEntry stores the entry and returns a synthetic row reference.
func (s *Store) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return "", s.fail
	}
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerEntry(nil), s.rows...)
}

// FailWith makes subsequent appends return err; nil restores normal behavior.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
