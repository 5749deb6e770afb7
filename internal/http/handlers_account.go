package http

import (
	"net/http"

	"envelope/internal/core"
)

type accountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	OnBudget *bool  `json:"on_budget,omitempty"`
}

type accountResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance"`
	Debt     string `json:"debt,omitempty"`
	OnBudget bool   `json:"on_budget"`
	Closed   bool   `json:"closed"`
}

func toAccountResponse(a core.Account) accountResponse {
	resp := accountResponse{
		ID:       a.ID.String(),
		Name:     a.Name,
		Type:     string(a.Type),
		Balance:  a.Balance.String(),
		OnBudget: a.OnBudget,
		Closed:   a.Closed,
	}
	if debt := a.Debt(); !debt.IsZero() {
		resp.Debt = debt.String()
	}
	return resp
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	accounts, err := s.accounts.ListAccounts(r.Context(), plan)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	onBudget := true
	if req.OnBudget != nil {
		onBudget = *req.OnBudget
	}
	account, err := s.accounts.CreateAccount(r.Context(), core.Account{
		PlanID:   plan,
		Name:     sanitizeInput(req.Name),
		Type:     core.AccountType(req.Type),
		OnBudget: onBudget,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleCloseAccount(w http.ResponseWriter, r *http.Request) {
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

	if err := s.accounts.CloseAccount(r.Context(), plan, id); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusNoContent, nil)
}
