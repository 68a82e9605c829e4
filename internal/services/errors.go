package services

import (
	"errors"
	"fmt"

	"github.com/pingquote/pingquote/internal/validation"
)

// Error taxonomy shared by all services. Handlers translate these to
// HTTP statuses; anything else is a 500.
var (
	// ErrNotFound covers absent, soft-deleted, and access-denied
	// resources alike, so callers cannot probe for existence.
	ErrNotFound     = errors.New("not_found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")

	ErrInviteExpired       = errors.New("invite_expired")
	ErrInviteExhausted     = errors.New("invite_exhausted")
	ErrInviteEmailMismatch = errors.New("invite_email_mismatch")
)

// ValidationError carries the first violated rule; remaining
// violations are discarded.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Rule)
}

// firstViolation converts a non-empty violation list to an error.
func firstViolation(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	f := v.First()
	return &ValidationError{Field: f.Field, Rule: f.Rule}
}
