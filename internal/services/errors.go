package services

import (
	"errors"
	"fmt"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/validator"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream service unavailable")
)

// ValidationErrors is returned for rejected request payloads
type ValidationErrors = validator.ValidationErrors

// PermissionError describes an action the upstream API refused
type PermissionError struct {
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %s denied: %s", e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// translateUpstream maps client errors onto service errors so handlers only
// deal with one vocabulary.
func translateUpstream(resource, action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apiclient.ErrUnauthorized):
		return fmt.Errorf("%s %s: %w", action, resource, ErrUnauthorized)
	case errors.Is(err, apiclient.ErrForbidden):
		return &PermissionError{Resource: resource, Action: action, Reason: "refused by upstream"}
	case errors.Is(err, apiclient.ErrNotFound):
		return fmt.Errorf("%s %s: %w", action, resource, ErrNotFound)
	case errors.Is(err, apiclient.ErrInvalidCredentials):
		return fmt.Errorf("%s %s: %w", action, resource, ErrUnauthorized)
	default:
		return fmt.Errorf("failed to %s %s: %w: %w", action, resource, ErrUpstream, err)
	}
}
