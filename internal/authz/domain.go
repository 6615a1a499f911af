// Package authz implements per-request authorization: a cheap token-derived
// role gate and the live, per-window permission resolver.
package authz

import "strconv"

// Action is one of the four CRUD capabilities attached to a window.
type Action string

// CRUD actions.
const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// PermissionSet is the fixed four-field permission record of one role on one
// window, and also the shape of the OR-combined result across roles.
type PermissionSet struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Allows reports whether the set grants the action. Unknown actions are never
// granted.
func (p PermissionSet) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return p.Create
	case ActionRead:
		return p.Read
	case ActionUpdate:
		return p.Update
	case ActionDelete:
		return p.Delete
	}
	return false
}

// Combine unions permission sets with logical OR per action. A subject with
// read through one role and create through another ends up with both.
func Combine(sets []PermissionSet) PermissionSet {
	var combined PermissionSet
	for _, s := range sets {
		combined.Create = combined.Create || s.Create
		combined.Read = combined.Read || s.Read
		combined.Update = combined.Update || s.Update
		combined.Delete = combined.Delete || s.Delete
	}
	return combined
}

// WindowRef identifies a protected window either by name or by numeric id.
type WindowRef struct {
	name string
	id   int64
	byID bool
}

// WindowByName references a window by its unique name.
func WindowByName(name string) WindowRef {
	return WindowRef{name: name}
}

// WindowByID references a window by its numeric id.
func WindowByID(id int64) WindowRef {
	return WindowRef{id: id, byID: true}
}

// ByID reports whether the reference carries a numeric id, and which.
func (w WindowRef) ByID() (int64, bool) {
	return w.id, w.byID
}

// Name returns the referenced window name; empty for numeric references.
func (w WindowRef) Name() string {
	if w.byID {
		return ""
	}
	return w.name
}

// String renders the reference for log lines.
func (w WindowRef) String() string {
	if w.byID {
		return "#" + strconv.FormatInt(w.id, 10)
	}
	return w.name
}
