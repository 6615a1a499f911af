package httpx

import (
	"errors"
	"net/http"

	"github.com/amparo-cms/amparo-cms/internal/shared"
)

// Sentinel errors for request handling.
var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate entry")
)

// RespondError maps domain errors to HTTP responses using RFC7807. Every
// member of the authentication and authorization taxonomy carries its reason
// string to the client; anything unrecognized degrades to a bare 500.
func RespondError(w http.ResponseWriter, err error) {
	var invariant *shared.InvariantError
	switch {
	case errors.As(err, &invariant):
		Problem(w, http.StatusForbidden, "Forbidden", invariant.Kind)
	case errors.Is(err, shared.ErrTokenRequired),
		errors.Is(err, shared.ErrTokenRevoked),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrTokenInvalid),
		errors.Is(err, shared.ErrUserNotFound),
		errors.Is(err, shared.ErrUserInactive),
		errors.Is(err, shared.ErrNoActiveRoles),
		errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrInsufficientRole),
		errors.Is(err, shared.ErrNoWindowAccess),
		errors.Is(err, shared.ErrActionNotAllowed):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrRouteNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
