// Package routes declares the administrative navigation targets and the
// permission requirement attached to each of them.
package routes

import (
	"errors"
	"fmt"
	"strings"

	"admin-portal/internal/guard"
	"admin-portal/internal/rbac"
)

var (
	ErrDuplicateRoute = errors.New("duplicate route")
	ErrInvalidRoute   = errors.New("invalid route")
)

// Route is one guarded navigation target. Path uses echo's pattern syntax.
type Route struct {
	Name        string
	Path        string
	Requirement rbac.Requirement
	RedirectTo  string
}

// Target returns the static authorization metadata the checkpoints consume
func (r Route) Target() guard.Target {
	return guard.Target{Requirement: r.Requirement, RedirectTo: r.RedirectTo}
}

// Table is a validated, read-only set of routes
type Table struct {
	routes []Route
	byName map[string]int
}

// NewTable validates routes and builds a table. Requirements are checked
// once here so a malformed declaration never reaches a checkpoint.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, len(routes)),
		byName: make(map[string]int, len(routes)),
	}
	copy(t.routes, routes)

	paths := make(map[string]string, len(routes))
	for i, r := range t.routes {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: route %d has no name", ErrInvalidRoute, i)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("%w: %s: path %q is not absolute", ErrInvalidRoute, r.Name, r.Path)
		}
		if r.RedirectTo != "" && !strings.HasPrefix(r.RedirectTo, "/") {
			return nil, fmt.Errorf("%w: %s: redirect %q is not absolute", ErrInvalidRoute, r.Name, r.RedirectTo)
		}
		if err := r.Requirement.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoute, r.Name, err)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateRoute, r.Name)
		}
		if other, dup := paths[r.Path]; dup {
			return nil, fmt.Errorf("%w: %s and %s share path %q", ErrDuplicateRoute, other, r.Name, r.Path)
		}
		t.byName[r.Name] = i
		paths[r.Path] = r.Name
	}

	return t, nil
}

// MustNewTable is NewTable for known-good declarations; it panics on error
func MustNewTable(routes []Route) *Table {
	t, err := NewTable(routes)
	if err != nil {
		panic(fmt.Sprintf("routes.MustNewTable: %v", err))
	}
	return t
}

// Routes returns the routes in declaration order
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Lookup returns the route called name
func (t *Table) Lookup(name string) (Route, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[i], true
}

func (t *Table) Len() int {
	return len(t.routes)
}

// Load returns the built-in table, or the table declared in file when set
func Load(file string) (*Table, error) {
	if file == "" {
		return NewTable(Default())
	}
	routes, err := LoadFile(file)
	if err != nil {
		return nil, err
	}
	return NewTable(routes)
}
