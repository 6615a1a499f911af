package rbac

import "github.com/amparo-cms/amparo-cms/internal/authz"

// AdminRoleID is the distinguished administrator role. Its permission rows
// cannot be edited and its last active holder cannot be removed.
const AdminRoleID int64 = 1

// Role is a named bundle of window permissions, assignable to many users.
type Role struct {
	ID       int64
	Name     string
	IsActive bool
}

// Window is a named protected resource to which CRUD permissions attach.
type Window struct {
	ID       int64
	Name     string
	IsActive bool
}

// RoleWindowPermission is the mutable permission record, composite-keyed by
// (RoleID, WindowID).
type RoleWindowPermission struct {
	RoleID   int64
	WindowID int64
	Set      authz.PermissionSet
}
