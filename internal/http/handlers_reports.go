package http

import (
	"net/http"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
)

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.liquidity.Balances(r.Context(), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type liquidityRequest struct {
	IsLiquid bool `json:"is_liquid"`
}

func (s *Server) handleSetLiquidity(w http.ResponseWriter, r *http.Request) {
	var req liquidityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.repo.SetAccountLiquid(r.Context(), id, req.IsLiquid); err != nil {
		writeError(w, err)
		return
	}
	account, err := s.repo.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleEmergencyFund(w http.ResponseWriter, r *http.Request) {
	overview, err := s.liquidity.EmergencyFund(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type breakdownRequest struct {
	InflowCents int64  `json:"inflow_cents"`
	AsOf        string `json:"as_of,omitempty"`
	DueSoonDays int    `json:"due_soon_days,omitempty"`
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	var req breakdownRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	asOf := core.DateOf(time.Now())
	if req.AsOf != "" {
		var err error
		if asOf, err = core.ParseDate(req.AsOf); err != nil {
			writeError(w, core.NewValidationError("as_of", err))
			return
		}
	}

	result, err := s.planner.Breakdown(r.Context(), core.Money{Cents: req.InflowCents}, asOf, req.DueSoonDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type syncRequest struct {
	Days  int    `json:"days,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// handleSync enqueues a reconciliation request for the worker. Without a
// configured queue the endpoint reports the capability as unavailable
// instead of silently dropping the request.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		writeJSON(w, http.StatusServiceUnavailable,
			errorBody{Error: "sync queue is not configured"})
		return
	}

	req := syncRequest{Days: 1}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	msg := &amqp.SyncRequestMessage{
		Days:      req.Days,
		Start:     req.Start,
		End:       req.End,
		Timestamp: time.Now(),
	}
	// Validate the window up front so a bad request fails here, not in the
	// worker.
	if _, _, err := msg.Window(core.DateOf(time.Now())); err != nil {
		writeError(w, core.NewValidationError("window", err))
		return
	}

	if err := s.publisher.PublishSyncRequest(r.Context(), msg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
