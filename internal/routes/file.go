package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"admin-portal/internal/rbac"

	"gopkg.in/yaml.v3"
)

type fileRoute struct {
	Name        string   `yaml:"name"`
	Path        string   `yaml:"path"`
	Permission  string   `yaml:"permission"`
	Permissions []string `yaml:"permissions"`
	RequireAll  bool     `yaml:"requireAll"`
	RedirectTo  string   `yaml:"redirectTo"`
}

type routeFile struct {
	Routes []fileRoute `yaml:"routes"`
}

// LoadFile reads a YAML route declaration file
func LoadFile(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML route declaration. A route names either one
// "permission" or a "permissions" list (ANY unless requireAll); a route with
// neither declares no requirement.
func Parse(data []byte) ([]Route, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f routeFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode routes file: %w", ErrInvalidRoute, err)
	}

	routes := make([]Route, 0, len(f.Routes))
	for i, fr := range f.Routes {
		req, err := fr.requirement()
		if err != nil {
			return nil, fmt.Errorf("%w: route %d (%s): %w", ErrInvalidRoute, i, fr.Name, err)
		}
		routes = append(routes, Route{
			Name:        fr.Name,
			Path:        fr.Path,
			Requirement: req,
			RedirectTo:  fr.RedirectTo,
		})
	}

	return routes, nil
}

func (fr fileRoute) requirement() (rbac.Requirement, error) {
	switch {
	case fr.Permission != "" && fr.Permissions != nil:
		return rbac.Requirement{}, fmt.Errorf("both permission and permissions are set")
	case fr.Permission != "":
		if fr.RequireAll {
			return rbac.Requirement{}, fmt.Errorf("requireAll needs a permissions list")
		}
		p, err := rbac.ParsePermission(fr.Permission)
		if err != nil {
			return rbac.Requirement{}, err
		}
		return rbac.Single(p), nil
	case fr.Permissions != nil:
		perms := make([]rbac.Permission, 0, len(fr.Permissions))
		for _, tok := range fr.Permissions {
			p, err := rbac.ParsePermission(tok)
			if err != nil {
				return rbac.Requirement{}, err
			}
			perms = append(perms, p)
		}
		return rbac.Composite(perms, fr.RequireAll), nil
	default:
		return rbac.NoRequirement(), nil
	}
}
