package http

import (
	"net/http"

	"cashflow/internal/core"
)

type budgetRequest struct {
	CategoryID  string `json:"category_id"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	budgets, err := s.repo.ListBudgets(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":    year,
		"month":   month,
		"budgets": budgets,
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	budget := core.Budget{
		CategoryID: req.CategoryID,
		Year:       req.Year,
		Month:      req.Month,
		Amount:     core.Money{Cents: req.AmountCents},
	}
	if err := s.budgets.Set(r.Context(), budget); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleBudgetVsActual(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	statuses, err := s.budgets.Status(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":       year,
		"month":      month,
		"categories": statuses,
	})
}
