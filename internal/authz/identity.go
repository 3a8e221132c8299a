package authz

import "github.com/google/uuid"

// Identity carries the caller's id, assigned roles, and precomputed
// permission closure for the duration of one request. It is passed
// explicitly through every layer that needs it; nothing reads it from
// global state.
type Identity struct {
	UserID      uuid.UUID
	Roles       []string
	Permissions map[string]struct{}
}

// HasRole reports whether the role is directly assigned to the caller.
func (id *Identity) HasRole(name string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether any of the named roles is assigned.
func (id *Identity) HasAnyRole(names ...string) bool {
	for _, name := range names {
		if id.HasRole(name) {
			return true
		}
	}
	return false
}

// HasPermission checks the caller's permission closure, i.e. permissions
// reachable through any assigned role.
func (id *Identity) HasPermission(name string) bool {
	if id == nil {
		return false
	}
	_, ok := id.Permissions[name]
	return ok
}

// Owns reports whether the caller is the owner of a record.
func (id *Identity) Owns(ownerID uuid.UUID) bool {
	return id != nil && id.UserID == ownerID
}
