package http

import (
	"net/http"
	"strconv"
	"strings"

	"cashflow/internal/services"
	"cashflow/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := storage.TransactionFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Limit:    parseIntParam(r, "limit", 100),
		Offset:   parseIntParam(r, "offset", 0),
	}

	var err error
	if filter.From, err = parseDateParam(r, "from"); err != nil {
		writeError(w, err)
		return
	}
	if filter.To, err = parseDateParam(r, "to"); err != nil {
		writeError(w, err)
		return
	}
	if v := strings.TrimSpace(r.URL.Query().Get("ignored")); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr == nil {
			filter.Ignored = &b
		}
	}

	txns, err := s.repo.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	txn, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

type patchRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, applied, err := s.edits.Apply(r.Context(), services.EditRequest{
		LMID:  id,
		Field: req.Field,
		Value: req.Value,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !applied {
		writeJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": true, "change": rec})
}

func (s *Server) handleListChanges(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.repo.GetTransaction(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	changes, err := s.repo.ListChanges(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": changes})
}

type batchRequest struct {
	Edits []services.EditRequest `json:"edits"`
}

func (s *Server) handleBatchEdit(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	results := s.edits.ApplyBatch(r.Context(), req.Edits)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
