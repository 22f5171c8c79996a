// Package http exposes the reconciliation engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cashflow/internal/amqp"
	"cashflow/internal/log"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

// SyncPublisher enqueues sync requests for the background worker.
type SyncPublisher interface {
	PublishSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error
}

type Server struct {
	http.Server

	repo      *storage.SQLiteRepository
	edits     *services.Edits
	budgets   *services.BudgetService
	bills     *services.BillTracker
	liquidity *services.Liquidity
	planner   *services.Planner
	publisher SyncPublisher // nil when no queue is configured
	logger    *log.Logger
}

func NewServer(addr string, repo *storage.SQLiteRepository, edits *services.Edits, budgets *services.BudgetService, bills *services.BillTracker, liquidity *services.Liquidity, planner *services.Planner, publisher SyncPublisher, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		repo:      repo,
		edits:     edits,
		budgets:   budgets,
		bills:     bills,
		liquidity: liquidity,
		planner:   planner,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /sync", s.with(s.handleSync))

	mux.HandleFunc("GET /transactions", s.with(s.handleListTransactions))
	mux.HandleFunc("GET /transactions/{id}", s.with(s.handleGetTransaction))
	mux.HandleFunc("PATCH /transactions/{id}", s.with(s.handlePatchTransaction))
	mux.HandleFunc("GET /transactions/{id}/changes", s.with(s.handleListChanges))
	mux.HandleFunc("POST /transactions/batch", s.with(s.handleBatchEdit))

	mux.HandleFunc("GET /categories", s.with(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.with(s.handleCreateCategory))
	mux.HandleFunc("PUT /categories/{id}", s.with(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.with(s.handleDeleteCategory))

	mux.HandleFunc("GET /budgets", s.with(s.handleListBudgets))
	mux.HandleFunc("PUT /budgets", s.with(s.handleSetBudget))
	mux.HandleFunc("GET /cashflow/budget-vs-actual", s.with(s.handleBudgetVsActual))

	mux.HandleFunc("GET /bills", s.with(s.handleListBills))
	mux.HandleFunc("POST /bills", s.with(s.handleCreateBill))
	mux.HandleFunc("GET /bills/occurrences", s.with(s.handleOccurrences))
	mux.HandleFunc("GET /bills/{id}", s.with(s.handleGetBill))
	mux.HandleFunc("PUT /bills/{id}", s.with(s.handleUpdateBill))
	mux.HandleFunc("DELETE /bills/{id}", s.with(s.handleDeleteBill))
	mux.HandleFunc("GET /bills/{id}/status", s.with(s.handleBillStatus))
	mux.HandleFunc("POST /bills/{id}/contribute", s.with(s.handleContribute))
	mux.HandleFunc("POST /bills/{id}/mark-paid", s.with(s.handleMarkPaid))
	mux.HandleFunc("GET /bills/{id}/ledger", s.with(s.handleBillLedger))

	mux.HandleFunc("GET /balances/snapshot", s.with(s.handleBalances))
	mux.HandleFunc("PUT /accounts/{id}/liquidity", s.with(s.handleSetLiquidity))
	mux.HandleFunc("GET /ef", s.with(s.handleEmergencyFund))
	mux.HandleFunc("POST /breakdown", s.with(s.handleBreakdown))

	return s
}

// with wraps a handler with request-id tracing, security headers and
// request logging.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.CountTransactions(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
