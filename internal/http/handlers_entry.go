package http

import (
	"fmt"
	"net/http"
	"time"

	"envelope/internal/core"

	"github.com/google/uuid"
)

type entryRequest struct {
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	Payee         string `json:"payee,omitempty"`
	Memo          string `json:"memo,omitempty"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id,omitempty"`
	CategoryID    string `json:"category_id,omitempty"`
	Status        string `json:"status,omitempty"`
	Flag          string `json:"flag,omitempty"`
}

type entryResponse struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Amount        string  `json:"amount"`
	Payee         string  `json:"payee"`
	Memo          string  `json:"memo,omitempty"`
	FromAccountID string  `json:"from_account_id"`
	ToAccountID   *string `json:"to_account_id,omitempty"`
	CategoryID    *string `json:"category_id,omitempty"`
	Status        string  `json:"status"`
	Flag          string  `json:"flag,omitempty"`
}

func toEntryResponse(e core.LedgerEntry) entryResponse {
	resp := entryResponse{
		ID:            e.ID.String(),
		Date:          e.Date.Format("2006-01-02"),
		Amount:        e.Amount.String(),
		Payee:         e.Payee,
		Memo:          e.Memo,
		FromAccountID: e.FromAccountID.String(),
		Status:        string(e.Status),
		Flag:          e.Flag,
	}
	if e.ToAccountID != nil {
		v := e.ToAccountID.String()
		resp.ToAccountID = &v
	}
	if e.CategoryID != nil {
		v := e.CategoryID.String()
		resp.CategoryID = &v
	}
	return resp
}

// parseEntryRequest converts the wire form into a domain entry. Full
// validation happens in the service; this only rejects unparseable fields.
func parseEntryRequest(plan uuid.UUID, req entryRequest) (core.LedgerEntry, error) {
	e := core.LedgerEntry{
		PlanID: plan,
		Payee:  sanitizeInput(req.Payee),
		Memo:   sanitizeInput(req.Memo),
		Status: core.ClearingStatus(req.Status),
		Flag:   sanitizeInput(req.Flag),
	}
	if e.Status == "" {
		e.Status = core.StatusUncleared
	}

	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return core.LedgerEntry{}, core.ErrInvalidDate
		}
		e.Date = date
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	e.Amount = amount

	if req.FromAccountID != "" {
		from, err := uuid.Parse(req.FromAccountID)
		if err != nil {
			return core.LedgerEntry{}, core.ErrMissingAccount
		}
		e.FromAccountID = from
	}

	to, err := optionalUUID(req.ToAccountID)
	if err != nil {
		return core.LedgerEntry{}, core.ErrMissingAccount
	}
	e.ToAccountID = to

	category, err := optionalUUID(req.CategoryID)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("%w: invalid category id", core.ErrInvalidInput)
	}
	e.CategoryID = category

	return e, nil
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	month, err := monthParam(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	entries, err := s.ledger.ListEntries(r.Context(), plan, month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	entry, err := parseEntryRequest(plan, req)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	created, err := s.ledger.CreateEntry(r.Context(), entry)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusCreated, toEntryResponse(created))
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	entry, err := s.ledger.GetEntry(r.Context(), plan, id)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	entry, err := parseEntryRequest(plan, req)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	entry.ID = id

	if err := s.ledger.UpdateEntry(r.Context(), entry); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	if err := s.ledger.DeleteEntry(r.Context(), plan, id); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusNoContent, nil)
}

// invalidatePlan drops every cached month view of the plan.
func (s *Server) invalidatePlan(plan uuid.UUID) {
	s.monthCache.DeletePrefix(plan.String() + ":")
}
