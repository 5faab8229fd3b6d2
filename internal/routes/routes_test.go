package routes

import (
	"os"
	"path/filepath"
	"testing"

	"admin-portal/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableIsValid(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, len(Default()), table.Len())

	add, ok := table.Lookup("branches.add")
	require.True(t, ok)
	assert.Equal(t, "/branch/add", add.Path)
	assert.Equal(t, []string{"BRANCHES:CREATE"}, add.Requirement.Tokens())

	report, ok := table.Lookup("reports.branch-activity")
	require.True(t, ok)
	assert.True(t, report.Target().Requirement.RequireAll())

	profile, ok := table.Lookup("profile")
	require.True(t, ok)
	assert.Equal(t, rbac.RequirementNone, profile.Requirement.Kind())

	_, ok = table.Lookup("nope")
	assert.False(t, ok)
}

func TestNewTableRejects(t *testing.T) {
	read := rbac.Single(rbac.NewPermission(rbac.ResourceBranches, rbac.ActionRead))

	tests := []struct {
		name   string
		routes []Route
		want   error
	}{
		{"empty name", []Route{{Path: "/x"}}, ErrInvalidRoute},
		{"relative path", []Route{{Name: "x", Path: "x"}}, ErrInvalidRoute},
		{"relative redirect", []Route{{Name: "x", Path: "/x", RedirectTo: "nope"}}, ErrInvalidRoute},
		{"empty all", []Route{{Name: "x", Path: "/x", Requirement: rbac.AllOf()}}, rbac.ErrEmptyRequirement},
		{"unknown permission", []Route{{Name: "x", Path: "/x", Requirement: rbac.Single(rbac.Permission{Resource: "PLANETS", Action: rbac.ActionRead})}}, rbac.ErrInvalidPermission},
		{"duplicate name", []Route{{Name: "x", Path: "/x", Requirement: read}, {Name: "x", Path: "/y"}}, ErrDuplicateRoute},
		{"duplicate path", []Route{{Name: "x", Path: "/x"}, {Name: "y", Path: "/x"}}, ErrDuplicateRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.routes)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Panics(t, func() { MustNewTable([]Route{{Path: "/x"}}) })
}

func TestTableIsImmutable(t *testing.T) {
	src := []Route{{Name: "x", Path: "/x"}}
	table := MustNewTable(src)
	src[0].Path = "/changed"

	routes := table.Routes()
	routes[0].Path = "/mutated"

	r, _ := table.Lookup("x")
	assert.Equal(t, "/x", r.Path)
}

func TestParse(t *testing.T) {
	data := []byte(`
routes:
  - name: branches.add
    path: /branch/add
    permission: BRANCHES:CREATE
  - name: dashboard
    path: /dashboard
    permissions: ["BRANCHES:LIST", "events:list"]
  - name: reports
    path: /reports/full
    permissions: ["REPORTS:READ", "BRANCHES:READ"]
    requireAll: true
    redirectTo: /reports?denied=1
  - name: about
    path: /about
  - name: open-list
    path: /open
    permissions: []
`)

	routes, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, routes, 5)

	assert.Equal(t, rbac.RequirementSingle, routes[0].Requirement.Kind())

	perms, all := routes[1].Requirement.Flatten()
	assert.False(t, all)
	assert.Equal(t, []rbac.Permission{
		rbac.NewPermission(rbac.ResourceBranches, rbac.ActionList),
		rbac.NewPermission(rbac.ResourceEvents, rbac.ActionList),
	}, perms)

	assert.True(t, routes[2].Requirement.RequireAll())
	assert.Equal(t, "/reports?denied=1", routes[2].RedirectTo)

	assert.Equal(t, rbac.RequirementNone, routes[3].Requirement.Kind())

	assert.Equal(t, rbac.RequirementComposite, routes[4].Requirement.Kind())
	_, err = NewTable(routes)
	assert.NoError(t, err, "an empty ANY list is treated as undeclared")
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":     "routes:\n  - name: x\n    path: /x\n    perms: [\"BRANCHES:READ\"]\n",
		"unknown resource":  "routes:\n  - name: x\n    path: /x\n    permission: PLANETS:READ\n",
		"unknown action":    "routes:\n  - name: x\n    path: /x\n    permissions: [\"BRANCHES:FLY\"]\n",
		"both forms":        "routes:\n  - name: x\n    path: /x\n    permission: BRANCHES:READ\n    permissions: [\"BRANCHES:LIST\"]\n",
		"requireAll single": "routes:\n  - name: x\n    path: /x\n    permission: BRANCHES:READ\n    requireAll: true\n",
		"not yaml":          "routes: [\n",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.ErrorIs(t, err, ErrInvalidRoute)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - name: all-empty\n    path: /x\n    permissions: []\n    requireAll: true\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, rbac.ErrEmptyRequirement)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))
	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}
