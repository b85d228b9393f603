package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_NoSessionRedirectsToRoleLogin(t *testing.T) {
	s, _ := setup(t)

	d := s.Gate(RoleKDS)
	assert.Equal(t, GateRedirectLogin, d.Action)
	assert.Equal(t, "/login/kds", d.Target)

	d = s.Gate(RoleSuperAdmin, RoleRestaurantAdmin)
	assert.Equal(t, GateRedirectLogin, d.Action)
	assert.Equal(t, "/login/admin", d.Target)
}

func TestGate_AllowedRolePasses(t *testing.T) {
	s, _ := setup(t)
	require.NoError(t, s.Save(kdsSession()))

	d := s.Gate(RoleKDS)
	assert.Equal(t, GateAllow, d.Action)
}

func TestGate_WrongRoleRedirectsToOwnDashboard(t *testing.T) {
	s, _ := setup(t)
	require.NoError(t, s.Save(kdsSession()))

	// A kitchen user hitting the front desk view lands on the KDS
	// dashboard, not an error page.
	d := s.Gate(RoleFrontDesk)
	assert.Equal(t, GateRedirectDashboard, d.Action)
	assert.Equal(t, "/kds", d.Target)
}

func TestGate_NoRoleRestrictionOnlyNeedsSession(t *testing.T) {
	s, _ := setup(t)

	assert.Equal(t, GateRedirectLogin, s.Gate().Action)

	require.NoError(t, s.Save(kdsSession()))
	assert.Equal(t, GateAllow, s.Gate().Action)
}

func TestGate_AfterLogoutRedirectsToLogin(t *testing.T) {
	s, _ := setup(t)
	require.NoError(t, s.Save(kdsSession()))
	require.NoError(t, s.Logout())

	d := s.Gate(RoleKDS)
	assert.Equal(t, GateRedirectLogin, d.Action)
	assert.Equal(t, "/login/kds", d.Target)
}
