package http

import (
	"net/http"

	"cashflow/internal/core"
)

type categoryRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	AffectsCashflow bool   `json:"affects_cashflow"`
	Budgetable      bool   `json:"budgetable"`
	IsIncome        bool   `json:"is_income"`
}

func (req categoryRequest) toCategory() core.Category {
	return core.Category{
		ID:              req.ID,
		Name:            req.Name,
		AffectsCashflow: req.AffectsCashflow,
		Budgetable:      req.Budgetable,
		IsIncome:        req.IsIncome,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	category := req.toCategory()
	if err := category.Validate(); err != nil {
		writeError(w, core.NewValidationError("category", err))
		return
	}
	if err := s.repo.CreateCategory(r.Context(), category); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.ID = r.PathValue("id")
	category := req.toCategory()
	if err := category.Validate(); err != nil {
		writeError(w, core.NewValidationError("category", err))
		return
	}
	if err := s.repo.UpdateCategory(r.Context(), category); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
