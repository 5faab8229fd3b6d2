package rbac

import "fmt"

// RequirementKind tags the shape of a Requirement
type RequirementKind int

const (
	RequirementNone RequirementKind = iota
	RequirementSingle
	RequirementComposite
)

func (k RequirementKind) String() string {
	switch k {
	case RequirementSingle:
		return "single"
	case RequirementComposite:
		return "composite"
	default:
		return "none"
	}
}

// Requirement is what a route declares a principal must hold to enter it.
// The zero value is RequirementNone, i.e. no authorization check.
type Requirement struct {
	kind        RequirementKind
	permissions []Permission
	requireAll  bool
}

// NoRequirement returns the requirement of a route that declares nothing
func NoRequirement() Requirement {
	return Requirement{}
}

// Single returns a requirement of exactly one permission
func Single(p Permission) Requirement {
	return Requirement{kind: RequirementSingle, permissions: []Permission{p}}
}

// AnyOf returns a composite requirement satisfied by any one permission
func AnyOf(perms ...Permission) Requirement {
	return Composite(perms, false)
}

// AllOf returns a composite requirement satisfied only by every permission
func AllOf(perms ...Permission) Requirement {
	return Composite(perms, true)
}

// Composite returns a list requirement. The slice is copied.
func Composite(perms []Permission, requireAll bool) Requirement {
	cp := make([]Permission, len(perms))
	copy(cp, perms)
	return Requirement{kind: RequirementComposite, permissions: cp, requireAll: requireAll}
}

// Kind returns the variant tag
func (r Requirement) Kind() RequirementKind {
	return r.kind
}

// RequireAll reports the ALL/ANY flag; it is moot for single requirements
func (r Requirement) RequireAll() bool {
	return r.requireAll
}

// Flatten returns the ordered permission list and the requireAll flag
func (r Requirement) Flatten() ([]Permission, bool) {
	out := make([]Permission, len(r.permissions))
	copy(out, r.permissions)
	return out, r.requireAll
}

// Tokens returns the RESOURCE:ACTION tokens in declaration order
func (r Requirement) Tokens() []string {
	return Tokens(r.permissions)
}

// Validate checks that every permission is known and that a requireAll
// composite is not empty (it would otherwise be vacuously satisfied).
func (r Requirement) Validate() error {
	for i, p := range r.permissions {
		if !p.Valid() {
			return fmt.Errorf(errRequirementInvalidPermissionFmt, i, fmt.Errorf("%w: %s", ErrInvalidPermission, p))
		}
	}
	if r.kind == RequirementComposite && r.requireAll && len(r.permissions) == 0 {
		return ErrEmptyRequirement
	}
	return nil
}

func (r Requirement) String() string {
	switch r.kind {
	case RequirementSingle:
		return r.permissions[0].String()
	case RequirementComposite:
		op := "any"
		if r.requireAll {
			op = "all"
		}
		return fmt.Sprintf("%s%v", op, r.Tokens())
	default:
		return "none"
	}
}
