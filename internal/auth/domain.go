package auth

import "github.com/amparo-cms/amparo-cms/internal/shared"

// Grant is the result of a successful login: the signed credential plus the
// identity it was issued for.
type Grant struct {
	Token string
	ID    int64
	Email string
	Name  string
	Roles []shared.RoleMembership
}
