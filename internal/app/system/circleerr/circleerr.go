// Package circleerr defines the error kinds returned by circle operations.
//
// Callers compare with errors.Is; store and infrastructure failures are
// wrapped and never match any of these kinds.
package circleerr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrAlreadyMember           = errors.New("already a member of this circle")
	ErrNotMember               = errors.New("not a member of this circle")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrLastAdminCannotLeave    = errors.New("last admin cannot leave the circle")
	ErrCannotRemoveSelf        = errors.New("cannot remove yourself; use leave")
	ErrCreatorOnlyOperation    = errors.New("only the circle creator can do this")
	ErrCodeGenerationExhausted = errors.New("could not allocate a unique code")
	ErrInvalidRole             = errors.New("invalid role")
	ErrInvalidInput            = errors.New("invalid input")
)

// PermissionDeniedError carries the role and operation that were refused.
// It matches ErrPermissionDenied under errors.Is.
type PermissionDeniedError struct {
	Role      string
	Operation string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: role %q may not %s", e.Role, e.Operation)
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// PermissionDenied builds a *PermissionDeniedError.
func PermissionDenied(role, operation string) error {
	return &PermissionDeniedError{Role: role, Operation: operation}
}

// Invalid wraps ErrInvalidInput with a field-level reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// Kind returns a stable machine-readable name for err, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, ErrNotMember):
		return "not_member"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrLastAdminCannotLeave):
		return "last_admin_cannot_leave"
	case errors.Is(err, ErrCannotRemoveSelf):
		return "cannot_remove_self"
	case errors.Is(err, ErrCreatorOnlyOperation):
		return "creator_only_operation"
	case errors.Is(err, ErrCodeGenerationExhausted):
		return "code_generation_exhausted"
	case errors.Is(err, ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	}
	return "internal"
}

// Message returns the sentence shown to the user for err.
func Message(err error) string {
	switch Kind(err) {
	case "not_found":
		return "That circle or item could not be found."
	case "already_member":
		return "You are already a member of this circle."
	case "not_member":
		return "You are not a member of this circle."
	case "permission_denied":
		return "Your role in this circle does not allow that."
	case "last_admin_cannot_leave":
		return "You are the only admin — transfer ownership or delete the circle."
	case "cannot_remove_self":
		return "You cannot remove yourself. Leave the circle instead."
	case "creator_only_operation":
		return "Only the person who created this circle can do that."
	case "code_generation_exhausted":
		return "We could not create an invite code right now. Please try again."
	case "invalid_role":
		return "Role must be admin, contributor, or viewer."
	case "invalid_input":
		return "Some of the information provided is not valid."
	case "":
		return ""
	}
	return "Something went wrong. Please try again."
}
