package privilege

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoleMap translates role names used by an external identity provider (OS
// groups, a directory service) into internal roles. It is read-only after
// startup and safe for concurrent use.
type RoleMap struct {
	byExternal map[string]Role
	byRole     map[Role]string
}

type roleMapFile struct {
	RoleMap map[string]string `yaml:"role-map"`
}

// NewRoleMap builds a RoleMap from internal-name → external-name pairs.
// Every key must be a known role name.
func NewRoleMap(pairs map[string]string) (*RoleMap, error) {
	m := &RoleMap{
		byExternal: make(map[string]Role, len(pairs)),
		byRole:     make(map[Role]string, len(pairs)),
	}
	for internal, external := range pairs {
		role, err := ParseRole(internal)
		if err != nil {
			return nil, err
		}
		if external == "" {
			return nil, fmt.Errorf("privilege: empty external name for role %s", role)
		}
		if prior, ok := m.byExternal[external]; ok && prior != role {
			return nil, fmt.Errorf("privilege: external name %q mapped to both %s and %s", external, prior, role)
		}
		m.byExternal[external] = role
		m.byRole[role] = external
	}
	return m, nil
}

// LoadRoleMap reads a role-map from a YAML configuration file of the form:
//
//	role-map:
//	  Administrator: wheel
//	  Operator: operators
func LoadRoleMap(path string) (*RoleMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file roleMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("privilege: parse role-map %s: %w", path, err)
	}
	return NewRoleMap(file.RoleMap)
}

// FromExternal resolves an external role name. Names that also happen to be
// canonical internal names resolve even without an explicit mapping, so a
// provider that already speaks the internal vocabulary needs no role-map.
func (m *RoleMap) FromExternal(name string) (Role, bool) {
	if m != nil {
		if role, ok := m.byExternal[name]; ok {
			return role, true
		}
	}
	role, err := ParseRole(name)
	if err != nil {
		return 0, false
	}
	return role, true
}

// ExternalName returns the configured external name for a role, falling back
// to the canonical name.
func (m *RoleMap) ExternalName(role Role) string {
	if m != nil {
		if name, ok := m.byRole[role]; ok {
			return name
		}
	}
	return role.String()
}
