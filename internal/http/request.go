package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"envelope/internal/core"
	"envelope/internal/storage"

	"github.com/google/uuid"
)

// planID resolves the plan a request operates on. Requests without an
// X-Plan-ID header fall back to the seeded default plan.
func planID(r *http.Request) (uuid.UUID, error) {
	header := strings.TrimSpace(r.Header.Get("X-Plan-ID"))
	if header == "" {
		return storage.DefaultPlanID, nil
	}
	id, err := uuid.Parse(header)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid X-Plan-ID header: %w", err)
	}
	return id, nil
}

// monthParam reads the ?month=YYYY-MM query parameter, defaulting to the
// current month.
func monthParam(r *http.Request) (core.Month, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.MonthOf(time.Now()), nil
	}
	return core.ParseMonth(v)
}

// pathID reads a uuid path segment.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// optionalUUID parses an optional uuid field; empty means absent.
func optionalUUID(s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
