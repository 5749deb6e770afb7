package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"envelope/internal/core"

	"github.com/google/uuid"
)

func TestAppendEntry(t *testing.T) {
	s := New()
	e := core.LedgerEntry{
		ID:            uuid.New(),
		Date:          time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Amount:        core.Money{Cents: -4250},
		Payee:         "Supermarket",
		FromAccountID: uuid.New(),
	}

	ref, err := s.AppendEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}
	rows := s.Rows()
	if len(rows) != 1 || rows[0].ID != e.ID {
		t.Errorf("rows = %v, want the appended entry", rows)
	}
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)

	if _, err := s.AppendEntry(context.Background(), core.LedgerEntry{ID: uuid.New()}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want injected failure", err)
	}
	if len(s.Rows()) != 0 {
		t.Error("failed append must not store the entry")
	}

	s.FailWith(nil)
	if _, err := s.AppendEntry(context.Background(), core.LedgerEntry{ID: uuid.New()}); err != nil {
		t.Errorf("AppendEntry after reset: %v", err)
	}
}
