package http

import (
	"net/http"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

type budgetResponse struct {
	ID             string `json:"id"`
	CategoryID     string `json:"category_id,omitempty"`
	AmountCents    int64  `json:"amount_cents"`
	Period         string `json:"period"`
	StartDate      string `json:"start_date"`
	AlertThreshold int    `json:"alert_threshold"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		CategoryID:     b.CategoryID,
		AmountCents:    b.Amount.Cents,
		Period:         string(b.Period),
		StartDate:      b.StartDate.Format("2006-01-02"),
		AlertThreshold: b.AlertThreshold,
	}
}

func (s *Server) handleBudgetCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		CategoryID     string `json:"category_id"`
		Amount         string `json:"amount"`
		Period         string `json:"period"`
		StartDate      string `json:"start_date"`
		AlertThreshold int    `json:"alert_threshold"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, core.Validationf("invalid amount %q", req.Amount))
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, r, core.Validationf("invalid start_date %q, want YYYY-MM-DD", req.StartDate))
		return
	}

	created, err := s.budgets.CreateBudget(r.Context(), core.Budget{
		UserID:         uid,
		CategoryID:     req.CategoryID,
		Amount:         core.Money{Cents: cents},
		Period:         core.BudgetPeriod(req.Period),
		StartDate:      start,
		AlertThreshold: req.AlertThreshold,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleBudgetList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.budgets.ListBudgets(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, len(list))
	for i, b := range list {
		out[i] = toBudgetResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBudgetDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.budgets.DeleteBudget(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type goalResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetCents  int64   `json:"target_cents"`
	CurrentCents int64   `json:"current_cents"`
	TargetDate   string  `json:"target_date"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
}

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:           g.ID,
		Name:         g.Name,
		TargetCents:  g.Target.Cents,
		CurrentCents: g.Current.Cents,
		TargetDate:   g.TargetDate.Format("2006-01-02"),
		Status:       string(g.Status),
		Progress:     g.Progress(),
	}
}

func (s *Server) handleGoalCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name       string `json:"name"`
		Target     string `json:"target"`
		TargetDate string `json:"target_date"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Target)
	if err != nil {
		writeError(w, r, core.Validationf("invalid target %q", req.Target))
		return
	}
	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		writeError(w, r, core.Validationf("invalid target_date %q, want YYYY-MM-DD", req.TargetDate))
		return
	}

	created, err := s.budgets.CreateGoal(r.Context(), core.Goal{
		UserID:     uid,
		Name:       req.Name,
		Target:     core.Money{Cents: cents},
		TargetDate: targetDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(created))
}

func (s *Server) handleGoalList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := core.GoalStatus(r.URL.Query().Get("status"))
	list, err := s.budgets.ListGoals(r.Context(), uid, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalResponse, len(list))
	for i, g := range list {
		out[i] = toGoalResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, core.Validationf("invalid amount %q", req.Amount))
		return
	}
	if err := s.budgets.AddGoalProgress(r.Context(), uid, r.PathValue("id"), core.Money{Cents: cents}); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
