package shared

// RoleMembership is one currently active role held by a subject.
type RoleMembership struct {
	ID   int64
	Name string
}

// Subject is the authenticated caller attached to the request context. It is
// rehydrated from live state on every request; only identity comes from the
// token. ClaimRoles keeps the role names embedded in the token for the
// coarse, DB-free role gate.
type Subject struct {
	ID         int64
	Email      string
	Name       string
	Roles      []RoleMembership
	ClaimRoles []string
	Token      string
}

// RoleIDs returns the ids of the live active roles.
func (s *Subject) RoleIDs() []int64 {
	ids := make([]int64, len(s.Roles))
	for i, r := range s.Roles {
		ids[i] = r.ID
	}
	return ids
}

// HasRole reports whether any live active role carries the given id.
func (s *Subject) HasRole(id int64) bool {
	for _, r := range s.Roles {
		if r.ID == id {
			return true
		}
	}
	return false
}
