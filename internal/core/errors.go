package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services and the HTTP layer. ValidationError and
// NotFoundError surface to the caller; conflicts on the working-copy key are
// resolved as no-ops inside the reconciler and never escape as errors;
// malformed provider records become per-record UpstreamDataErrors inside the
// reconcile report.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError wraps an invariant violation with the rule that failed.
type ValidationError struct {
	Rule string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return e.Rule
	}
	return fmt.Sprintf("%s: %v", e.Rule, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError names the violated rule.
func NewValidationError(rule string, err error) *ValidationError {
	return &ValidationError{Rule: rule, Err: err}
}

// UpstreamDataError marks a single malformed record from the external
// provider. The record is skipped; the batch continues.
type UpstreamDataError struct {
	LMID   int64
	Reason string
}

func (e *UpstreamDataError) Error() string {
	return fmt.Sprintf("upstream record %d: %s", e.LMID, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
