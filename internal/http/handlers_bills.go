package http

import (
	"net/http"
	"time"

	"cashflow/internal/core"
)

type billRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Frequency   string `json:"frequency"`
	Weekday     int    `json:"weekday"`
	DayOfMonth  int    `json:"day_of_month"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

func (req billRequest) toBill() (core.Bill, error) {
	bill := core.Bill{
		ID:         req.ID,
		Name:       req.Name,
		Amount:     core.Money{Cents: req.AmountCents},
		Currency:   req.Currency,
		Frequency:  core.Frequency(req.Frequency),
		Weekday:    req.Weekday,
		DayOfMonth: req.DayOfMonth,
	}
	if bill.Currency == "" {
		bill.Currency = "USD"
	}
	var err error
	if req.StartDate != "" {
		if bill.StartDate, err = core.ParseDate(req.StartDate); err != nil {
			return bill, core.NewValidationError("start_date", err)
		}
	}
	if req.EndDate != "" {
		if bill.EndDate, err = core.ParseDate(req.EndDate); err != nil {
			return bill, core.NewValidationError("end_date", err)
		}
	}
	return bill, nil
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.bills.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	bill, err := req.toBill()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.bills.Create(r.Context(), bill); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.bills.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.ID = r.PathValue("id")
	bill, err := req.toBill()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.bills.Update(r.Context(), bill); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBillStatus(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}
	if asOf.IsEmpty() {
		asOf = core.DateOf(time.Now())
	}
	status, err := s.bills.Progress(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type contributeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note,omitempty"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	entry, err := s.bills.Contribute(r.Context(), r.PathValue("id"),
		core.Money{Cents: req.AmountCents}, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}
	if asOf.IsEmpty() {
		asOf = core.DateOf(time.Now())
	}
	res, err := s.bills.MarkPaid(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBillLedger(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.bills.Ledger(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	contributed, paid := core.LedgerSums(entries)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":           entries,
		"contrib_sum_cents": contributed.Cents,
		"paid_sum_cents":    paid.Cents,
	})
}

func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	if from.IsEmpty() {
		from = core.DateOf(time.Now())
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	if to.IsEmpty() {
		to = core.DateOf(from.AddDate(0, 1, 0))
	}
	dueSoonDays := parseIntParam(r, "due_soon_days", 7)

	occs, err := s.bills.Occurrences(r.Context(), from, to, dueSoonDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": occs})
}
