package http

import (
	"net/http"

	"envelope/internal/core"
	"envelope/internal/services"

	"github.com/google/uuid"
)

type groupRequest struct {
	Name     string `json:"name"`
	Position int    `json:"position,omitempty"`
}

type groupResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Hidden   bool   `json:"hidden"`
}

type categoryRequest struct {
	Name     string `json:"name"`
	GroupID  string `json:"group_id"`
	Position int    `json:"position,omitempty"`
}

type categoryResponse struct {
	ID       string `json:"id"`
	GroupID  string `json:"group_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type envelopeResponse struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Budgeted     string `json:"budgeted"`
	Activity     string `json:"activity"`
	Available    string `json:"available"`
}

type summaryResponse struct {
	Income         string `json:"income"`
	TotalBudgeted  string `json:"total_budgeted"`
	TotalActivity  string `json:"total_activity"`
	TotalAvailable string `json:"total_available"`
	ToBeBudgeted   string `json:"to_be_budgeted"`
}

type monthBudgetResponse struct {
	Month     string             `json:"month"`
	Summary   summaryResponse    `json:"summary"`
	Envelopes []envelopeResponse `json:"envelopes"`
}

type setBudgetedRequest struct {
	CategoryID string `json:"category_id"`
	Month      string `json:"month"`
	Amount     string `json:"amount"`
}

type templateResponse struct {
	Name   string         `json:"name"`
	Shares map[string]int `json:"shares"`
}

type templateRunRequest struct {
	Template string `json:"template"`
	Target   string `json:"target"`
	Month    string `json:"month,omitempty"`
}

type allocationLineResponse struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Bucket       string `json:"bucket"`
	Budgeted     string `json:"budgeted"`
}

type allocationPreviewResponse struct {
	Template   string                   `json:"template"`
	Target     string                   `json:"target"`
	Assigned   string                   `json:"assigned"`
	Unassigned string                   `json:"unassigned"`
	Lines      []allocationLineResponse `json:"lines"`
}

type applyTemplateResponse struct {
	allocationPreviewResponse
	Applied int      `json:"applied"`
	Failed  []string `json:"failed,omitempty"`
}

func toMonthBudgetResponse(view services.MonthView) monthBudgetResponse {
	resp := monthBudgetResponse{
		Month: view.Month.String(),
		Summary: summaryResponse{
			Income:         view.Summary.Income.String(),
			TotalBudgeted:  view.Summary.TotalBudgeted.String(),
			TotalActivity:  view.Summary.TotalActivity.String(),
			TotalAvailable: view.Summary.TotalAvailable.String(),
			ToBeBudgeted:   view.Summary.ToBeBudgeted.String(),
		},
		Envelopes: make([]envelopeResponse, 0, len(view.Envelopes)),
	}
	for _, row := range view.Envelopes {
		resp.Envelopes = append(resp.Envelopes, envelopeResponse{
			CategoryID:   row.CategoryID.String(),
			CategoryName: row.CategoryName,
			Budgeted:     row.Budgeted.String(),
			Activity:     row.Activity.String(),
			Available:    row.Available.String(),
		})
	}
	return resp
}

func toPreviewResponse(p core.AllocationPreview) allocationPreviewResponse {
	resp := allocationPreviewResponse{
		Template:   p.Template,
		Target:     p.Target.String(),
		Assigned:   p.Assigned.String(),
		Unassigned: p.Unassigned.String(),
		Lines:      make([]allocationLineResponse, 0, len(p.Lines)),
	}
	for _, line := range p.Lines {
		resp.Lines = append(resp.Lines, allocationLineResponse{
			CategoryID:   line.CategoryID.String(),
			CategoryName: line.CategoryName,
			Bucket:       string(line.Bucket),
			Budgeted:     line.Budgeted.String(),
		})
	}
	return resp
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	groups, err := s.budget.ListCategoryGroups(r.Context(), plan)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse{
			ID: g.ID.String(), Name: g.Name, Position: g.Position, Hidden: g.Hidden,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	group, err := s.budget.CreateCategoryGroup(r.Context(), core.CategoryGroup{
		PlanID:   plan,
		Name:     sanitizeInput(req.Name),
		Position: req.Position,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusCreated, groupResponse{
		ID: group.ID.String(), Name: group.Name, Position: group.Position,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	categories, err := s.budget.ListCategories(r.Context(), plan)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID: c.ID.String(), GroupID: c.GroupID.String(), Name: c.Name, Position: c.Position,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		respondBadRequest(w, "invalid group_id")
		return
	}

	category, err := s.budget.CreateCategory(r.Context(), core.Category{
		PlanID:   plan,
		GroupID:  groupID,
		Name:     sanitizeInput(req.Name),
		Position: req.Position,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusCreated, categoryResponse{
		ID: category.ID.String(), GroupID: category.GroupID.String(),
		Name: category.Name, Position: category.Position,
	})
}

func (s *Server) handleMonthBudget(w http.ResponseWriter, r *http.Request) {
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

	cacheKey := plan.String() + ":" + month.String()
	if view, ok := s.monthCache.Get(cacheKey); ok {
		w.Header().Set("X-Cache", "HIT")
		respondJSON(w, http.StatusOK, toMonthBudgetResponse(view))
		return
	}

	view, err := s.budget.MonthBudget(r.Context(), plan, month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	s.monthCache.Set(cacheKey, view)

	w.Header().Set("X-Cache", "MISS")
	respondJSON(w, http.StatusOK, toMonthBudgetResponse(view))
}

func (s *Server) handleSetBudgeted(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req setBudgetedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		respondBadRequest(w, "invalid category_id")
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if err := s.budget.SetBudgeted(r.Context(), plan, categoryID, month, amount); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.budget.Templates()
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		shares := make(map[string]int, len(t.Shares))
		for bucket, share := range t.Shares {
			shares[string(bucket)] = share
		}
		out = append(out, templateResponse{Name: t.Name, Shares: shares})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleTemplatePreview(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req templateRunRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	target, err := core.ParseMoney(req.Target)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	preview, err := s.budget.PreviewTemplate(r.Context(), plan, req.Template, target)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPreviewResponse(preview))
}

func (s *Server) handleTemplateApply(w http.ResponseWriter, r *http.Request) {
	plan, err := planID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req templateRunRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	target, err := core.ParseMoney(req.Target)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	result, err := s.budget.ApplyTemplate(r.Context(), plan, req.Template, month, target)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	s.invalidatePlan(plan)
	resp := applyTemplateResponse{
		allocationPreviewResponse: toPreviewResponse(result.Preview),
		Applied:                   result.Applied,
	}
	for _, id := range result.Failed {
		resp.Failed = append(resp.Failed, id.String())
	}
	respondJSON(w, http.StatusOK, resp)
}
