package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/log"
	"cashflow/internal/storage"
)

type Edits struct {
	repo   *storage.SQLiteRepository
	logger *log.Logger
}

func NewEdits(repo *storage.SQLiteRepository, logger *log.Logger) *Edits {
	return &Edits{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentReconciler),
	}
}

// EditRequest is one field change against one working transaction.
type EditRequest struct {
	LMID  int64  `json:"lm_id"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Apply validates and applies a single edit. Only category, ignored, note
// and payee are editable; anything else is a validation error. Setting a
// field to its current value writes nothing and returns Applied=false.
func (e *Edits) Apply(ctx context.Context, req EditRequest) (core.ChangeRecord, bool, error) {
	var rec core.ChangeRecord

	if !core.IsEditable(req.Field) {
		return rec, false, core.NewValidationError("field",
			fmt.Errorf("field %q is not editable", req.Field))
	}
	field := core.EditableField(req.Field)

	current, err := e.repo.GetTransaction(ctx, req.LMID)
	if err != nil {
		return rec, false, err
	}

	var (
		oldStr = currentValue(current, field)
		newStr string
		value  any
	)
	switch field {
	case core.FieldIgnored:
		b, err := strconv.ParseBool(strings.TrimSpace(req.Value))
		if err != nil {
			return rec, false, core.NewValidationError("ignored",
				fmt.Errorf("ignored must be true or false, got %q", req.Value))
		}
		newStr = strconv.FormatBool(b)
		value = b
	case core.FieldCategory:
		newStr = strings.TrimSpace(req.Value)
		if newStr == "" {
			value = nil // clears the tag
		} else {
			value = newStr
		}
	default:
		newStr = req.Value
		value = req.Value
	}

	if newStr == oldStr {
		return rec, false, nil
	}

	rec, err = e.repo.RecordEdit(ctx, req.LMID, field, value, oldStr, newStr)
	if err != nil {
		return rec, false, err
	}

	e.logger.InfoContext(ctx, "Transaction edited",
		log.FieldOperation, log.OpEdit,
		log.FieldLMID, req.LMID,
		"field", string(field))
	return rec, true, nil
}

// BatchResult pairs one batch item with its outcome.
type BatchResult struct {
	LMID    int64              `json:"lm_id"`
	Field   string             `json:"field"`
	Applied bool               `json:"applied"`
	Change  *core.ChangeRecord `json:"change,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ApplyBatch applies edits independently; one rejected item never blocks the
// rest. Each applied item gets its own ChangeRecord exactly as Apply would
// produce.
func (e *Edits) ApplyBatch(ctx context.Context, reqs []EditRequest) []BatchResult {
	out := make([]BatchResult, 0, len(reqs))
	for _, req := range reqs {
		res := BatchResult{LMID: req.LMID, Field: req.Field}
		rec, applied, err := e.Apply(ctx, req)
		if err != nil {
			res.Error = err.Error()
		} else if applied {
			res.Applied = true
			res.Change = &rec
		}
		out = append(out, res)
	}
	return out
}

func currentValue(t core.WorkingTransaction, field core.EditableField) string {
	switch field {
	case core.FieldCategory:
		return t.Category
	case core.FieldIgnored:
		return strconv.FormatBool(t.Ignored)
	case core.FieldNote:
		return t.Note
	case core.FieldPayee:
		return t.Payee
	}
	return ""
}
