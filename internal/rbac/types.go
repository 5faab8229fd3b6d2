package rbac

import (
	"fmt"
	"strings"
)

// Resource represents a category of protected entity
type Resource string

// Action represents an operation on a resource
type Action string

const (
	ResourceBranches   Resource = "BRANCHES"
	ResourceMembers    Resource = "MEMBERS"
	ResourceEvents     Resource = "EVENTS"
	ResourceLocations  Resource = "LOCATIONS"
	ResourceUsers      Resource = "USERS"
	ResourceMasterData Resource = "MASTER_DATA"
	ResourceAreas      Resource = "AREAS"
	ResourceDonations  Resource = "DONATIONS"
	ResourceRoles      Resource = "ROLES"
	ResourceReports    Resource = "REPORTS"
)

const (
	ActionList   Action = "LIST"
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	// ActionManage implies every other action on the same resource.
	ActionManage Action = "MANAGE"
)

const permissionSeparator = ":"

var (
	resources = []Resource{
		ResourceBranches,
		ResourceMembers,
		ResourceEvents,
		ResourceLocations,
		ResourceUsers,
		ResourceMasterData,
		ResourceAreas,
		ResourceDonations,
		ResourceRoles,
		ResourceReports,
	}
	actions = []Action{
		ActionList,
		ActionCreate,
		ActionRead,
		ActionUpdate,
		ActionDelete,
		ActionManage,
	}

	validResources = indexResources(resources)
	validActions   = indexActions(actions)
)

// Resources returns every known resource in declaration order
func Resources() []Resource {
	out := make([]Resource, len(resources))
	copy(out, resources)
	return out
}

// Actions returns every known action in declaration order
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Valid reports whether r is one of the known resources
func (r Resource) Valid() bool {
	return validResources[r]
}

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	return validActions[a]
}

// ParseResource parses a resource name, case-insensitively
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}
	return r, nil
}

// ParseAction parses an action name, case-insensitively
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Permission is a (resource, action) pair. The zero value is not a valid permission.
type Permission struct {
	Resource Resource `json:"resource" yaml:"resource"`
	Action   Action   `json:"action" yaml:"action"`
}

// NewPermission is shorthand for a Permission literal
func NewPermission(resource Resource, action Action) Permission {
	return Permission{Resource: resource, Action: action}
}

// String renders the permission as a RESOURCE:ACTION token
func (p Permission) String() string {
	return string(p.Resource) + permissionSeparator + string(p.Action)
}

// Valid reports whether both halves of the permission are known
func (p Permission) Valid() bool {
	return p.Resource.Valid() && p.Action.Valid()
}

// ParsePermission parses a RESOURCE:ACTION token
func ParsePermission(token string) (Permission, error) {
	res, act, ok := strings.Cut(token, permissionSeparator)
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, token)
	}

	resource, err := ParseResource(res)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}
	action, err := ParseAction(act)
	if err != nil {
		return Permission{}, fmt.Errorf("%w: %w", ErrInvalidPermission, err)
	}

	return Permission{Resource: resource, Action: action}, nil
}

// Tokens renders each permission as a RESOURCE:ACTION token, preserving order
func Tokens(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = p.String()
	}
	return out
}

func indexResources(list []Resource) map[Resource]bool {
	m := make(map[Resource]bool, len(list))
	for _, r := range list {
		m[r] = true
	}
	return m
}

func indexActions(list []Action) map[Action]bool {
	m := make(map[Action]bool, len(list))
	for _, a := range list {
		m[a] = true
	}
	return m
}
