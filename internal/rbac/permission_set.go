package rbac

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PermissionSet maps each resource to the actions a principal holds on it.
// A set is never modified after construction; callers replace it wholesale.
type PermissionSet struct {
	grants map[Resource]map[Action]bool
}

// EmptyPermissionSet returns a set that grants nothing
func EmptyPermissionSet() PermissionSet {
	return PermissionSet{}
}

// NewPermissionSet builds a set from a resource → actions mapping.
// Unknown resources and actions are ignored.
func NewPermissionSet(grants map[Resource][]Action) PermissionSet {
	ps := PermissionSet{grants: make(map[Resource]map[Action]bool, len(grants))}
	for res, acts := range grants {
		if !res.Valid() {
			continue
		}
		for _, act := range acts {
			if !act.Valid() {
				continue
			}
			if ps.grants[res] == nil {
				ps.grants[res] = make(map[Action]bool, len(acts))
			}
			ps.grants[res][act] = true
		}
	}
	return ps
}

// PermissionSetOf builds a set holding exactly the given permissions
func PermissionSetOf(perms ...Permission) PermissionSet {
	grants := make(map[Resource][]Action, len(perms))
	for _, p := range perms {
		grants[p.Resource] = append(grants[p.Resource], p.Action)
	}
	return NewPermissionSet(grants)
}

// Has reports whether action is held on resource, directly or through MANAGE
func (ps PermissionSet) Has(resource Resource, action Action) bool {
	acts, ok := ps.grants[resource]
	if !ok {
		return false
	}
	return acts[action] || acts[ActionManage]
}

// Len returns the number of resources with at least one action
func (ps PermissionSet) Len() int {
	return len(ps.grants)
}

// IsEmpty reports whether the set grants nothing
func (ps PermissionSet) IsEmpty() bool {
	return len(ps.grants) == 0
}

// Resources returns the resources present in the set, sorted
func (ps PermissionSet) Resources() []Resource {
	out := make([]Resource, 0, len(ps.grants))
	for res := range ps.grants {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Actions returns the actions explicitly held on resource, sorted
func (ps PermissionSet) Actions(resource Resource) []Action {
	acts := ps.grants[resource]
	out := make([]Action, 0, len(acts))
	for act := range acts {
		out = append(out, act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Tokens returns a sorted RESOURCE:ACTION projection for diagnostics
func (ps PermissionSet) Tokens() []string {
	var out []string
	for _, res := range ps.Resources() {
		for _, act := range ps.Actions(res) {
			out = append(out, NewPermission(res, act).String())
		}
	}
	return out
}

// MarshalJSON encodes the set in the backend wire form {"BRANCHES":["LIST","READ"]}
func (ps PermissionSet) MarshalJSON() ([]byte, error) {
	wire := make(map[Resource][]Action, len(ps.grants))
	for _, res := range ps.Resources() {
		wire[res] = ps.Actions(res)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the backend wire form, dropping unknown names
func (ps *PermissionSet) UnmarshalJSON(data []byte) error {
	decoded, _, err := DecodePermissionSet(data)
	if err != nil {
		return err
	}
	*ps = decoded
	return nil
}

// DecodePermissionSet decodes the backend wire form and also reports the
// RESOURCE:ACTION names that were not recognised and therefore dropped.
func DecodePermissionSet(data []byte) (PermissionSet, []string, error) {
	var wire map[string][]string
	if err := json.Unmarshal(data, &wire); err != nil {
		return PermissionSet{}, nil, fmt.Errorf(errSetDecodeFmt, err)
	}

	var dropped []string
	grants := make(map[Resource][]Action, len(wire))
	for rawRes, rawActs := range wire {
		res, err := ParseResource(rawRes)
		if err != nil {
			for _, a := range rawActs {
				dropped = append(dropped, rawRes+permissionSeparator+a)
			}
			continue
		}
		for _, rawAct := range rawActs {
			act, err := ParseAction(rawAct)
			if err != nil {
				dropped = append(dropped, rawRes+permissionSeparator+rawAct)
				continue
			}
			grants[res] = append(grants[res], act)
		}
	}
	sort.Strings(dropped)

	return NewPermissionSet(grants), dropped, nil
}
