package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authentication failures. Each maps to a 401 response; the reason string
// travels to the client verbatim.
var (
	// ErrTokenRequired indicates the authorization header carried no bearer token.
	ErrTokenRequired = errors.New("token required")
	// ErrTokenRevoked indicates the token was explicitly invalidated by logout.
	ErrTokenRevoked = errors.New("token invalid (logged out)")
	// ErrTokenExpired indicates the token signature is valid but past expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed token or a bad signature.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrUserNotFound indicates the token subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive indicates the token subject has been deactivated.
	ErrUserInactive = errors.New("user inactive")
	// ErrNoActiveRoles indicates the token subject holds no active role.
	ErrNoActiveRoles = errors.New("user has no active roles")
)

// Authorization failures, mapped to 403.
var (
	// ErrInsufficientRole indicates the subject holds none of the allowed roles.
	ErrInsufficientRole = errors.New("insufficient permissions")
	// ErrNoWindowAccess indicates no active role grants anything on the window.
	ErrNoWindowAccess = errors.New("no access to this resource")
	// ErrActionNotAllowed indicates the combined permission set lacks a required action.
	ErrActionNotAllowed = errors.New("insufficient permissions for this action")
)

// ErrRouteNotFound is produced when no registered route matches a request.
var ErrRouteNotFound = errors.New("route not found")

// Invariant violation kinds raised by the admin guard.
const (
	KindCannotRemoveLastAdmin     = "CANNOT_REMOVE_LAST_ADMIN"
	KindCannotDeactivateLastAdmin = "CANNOT_DEACTIVATE_LAST_ADMIN"
	KindMustHaveAdmin             = "MUST_HAVE_ADMIN"
	KindAdminRoleProtected        = "ADMIN_ROLE_PROTECTED"
)

// InvariantError reports a refused mutation that would leave the system
// without an active administrator, or that touched the protected
// administrator role. The write must not have happened.
type InvariantError struct {
	Kind string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("admin invariant violation: %s", e.Kind)
}

// NewInvariantError builds an InvariantError for the given kind.
func NewInvariantError(kind string) *InvariantError {
	return &InvariantError{Kind: kind}
}
