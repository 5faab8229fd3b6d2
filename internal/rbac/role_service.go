package rbac

import (
	"sync/atomic"
	"time"
)

// PermissionEvaluator answers permission queries against a principal's
// current permission set.
type PermissionEvaluator interface {
	HasPermission(resource Resource, action Action) bool
	HasAnyPermission(perms []Permission) bool
	HasAllPermissions(perms []Permission) bool
	CurrentPermissions() PermissionSet
}

type snapshot struct {
	set       PermissionSet
	populated bool
	loadedAt  time.Time
}

var emptySnapshot = &snapshot{}

// RoleService holds the authoritative permission set of one principal.
// It starts empty, is replaced wholesale after each successful fetch and is
// cleared on logout. Reads never block writers.
type RoleService struct {
	current atomic.Pointer[snapshot]
}

// NewRoleService returns a service with an empty, unpopulated set
func NewRoleService() *RoleService {
	rs := &RoleService{}
	rs.current.Store(emptySnapshot)
	return rs
}

func (rs *RoleService) load() *snapshot {
	if rs == nil {
		return emptySnapshot
	}
	if s := rs.current.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// HasPermission reports whether action (or MANAGE) is held on resource.
// An unpopulated service denies everything.
func (rs *RoleService) HasPermission(resource Resource, action Action) bool {
	return rs.load().set.Has(resource, action)
}

// HasAnyPermission reports whether at least one permission is held.
// An empty list is never satisfied.
func (rs *RoleService) HasAnyPermission(perms []Permission) bool {
	set := rs.load().set
	for _, p := range perms {
		if set.Has(p.Resource, p.Action) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every permission is held.
// An empty list is vacuously satisfied; route tables reject it at build time.
func (rs *RoleService) HasAllPermissions(perms []Permission) bool {
	set := rs.load().set
	for _, p := range perms {
		if !set.Has(p.Resource, p.Action) {
			return false
		}
	}
	return true
}

// CurrentPermissions returns the current snapshot. Diagnostics only.
func (rs *RoleService) CurrentPermissions() PermissionSet {
	return rs.load().set
}

// Populated reports whether a fetch has replaced the initial empty set
func (rs *RoleService) Populated() bool {
	return rs.load().populated
}

// LoadedAt returns when the current set was installed, zero if never
func (rs *RoleService) LoadedAt() time.Time {
	return rs.load().loadedAt
}

// Replace installs set as the current permission set in one atomic swap
func (rs *RoleService) Replace(set PermissionSet) {
	rs.current.Store(&snapshot{set: set, populated: true, loadedAt: time.Now()})
}

// Clear drops the current set, returning the service to its initial state
func (rs *RoleService) Clear() {
	rs.current.Store(emptySnapshot)
}
