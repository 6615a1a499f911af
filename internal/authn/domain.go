package authn

import "github.com/amparo-cms/amparo-cms/internal/shared"

// User is an account row together with its currently active role
// memberships. Roles only include assignments where both the role and the
// user-role link are active.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	Roles        []shared.RoleMembership
}

// RoleNames returns the names of the active roles, for the token snapshot.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = r.Name
	}
	return names
}
