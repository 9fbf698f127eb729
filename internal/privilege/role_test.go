package privilege_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redfield-bmc/redfield/internal/privilege"
)

func orderedRoles() []privilege.Role {
	return []privilege.Role{
		privilege.ReadOnly,
		privilege.Operator,
		privilege.ConfigureComponents,
		privilege.ConfigureUsers,
		privilege.ConfigureManager,
		privilege.Administrator,
	}
}

func TestRoleOrderingIsTotal(t *testing.T) {
	roles := orderedRoles()
	for i, lower := range roles {
		require.True(t, lower.Satisfies(lower), "%s must satisfy itself", lower)
		for _, higher := range roles[i+1:] {
			require.True(t, higher.Satisfies(lower), "%s must satisfy %s", higher, lower)
			require.False(t, lower.Satisfies(higher), "%s must not satisfy %s", lower, higher)
		}
	}
}

func TestParseRoleRoundTrip(t *testing.T) {
	for _, role := range orderedRoles() {
		parsed, err := privilege.ParseRole(role.String())
		require.NoError(t, err)
		require.Equal(t, role, parsed)
	}
	parsed, err := privilege.ParseRole("administrator")
	require.NoError(t, err)
	require.Equal(t, privilege.Administrator, parsed)

	_, err = privilege.ParseRole("Root")
	require.Error(t, err)
}

func TestRoleMapTranslation(t *testing.T) {
	roleMap, err := privilege.NewRoleMap(map[string]string{
		"Administrator": "wheel",
		"Operator":      "operators",
	})
	require.NoError(t, err)

	role, ok := roleMap.FromExternal("wheel")
	require.True(t, ok)
	require.Equal(t, privilege.Administrator, role)

	// Canonical names resolve without an explicit mapping.
	role, ok = roleMap.FromExternal("ReadOnly")
	require.True(t, ok)
	require.Equal(t, privilege.ReadOnly, role)

	_, ok = roleMap.FromExternal("nobody")
	require.False(t, ok)

	require.Equal(t, "wheel", roleMap.ExternalName(privilege.Administrator))
	require.Equal(t, "ReadOnly", roleMap.ExternalName(privilege.ReadOnly))
}

func TestRoleMapRejectsUnknownRole(t *testing.T) {
	_, err := privilege.NewRoleMap(map[string]string{"Root": "wheel"})
	require.Error(t, err)
}

func TestLoadRoleMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "role-map.yaml")
	content := "role-map:\n  Administrator: wheel\n  ReadOnly: users\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	roleMap, err := privilege.LoadRoleMap(path)
	require.NoError(t, err)

	role, ok := roleMap.FromExternal("users")
	require.True(t, ok)
	require.Equal(t, privilege.ReadOnly, role)
}

func TestNilRoleMapFallsBackToCanonicalNames(t *testing.T) {
	var roleMap *privilege.RoleMap
	role, ok := roleMap.FromExternal("Operator")
	require.True(t, ok)
	require.Equal(t, privilege.Operator, role)
}
