package session

// Route guarding. A protected view asks the gate for a decision instead of
// checking the session itself, so redirect policy lives in one place:
// no session redirects to the view's own login page, and a logged-in user
// of the wrong role is sent to their own dashboard rather than shown an
// error page.

// GateAction is what a protected view should do.
type GateAction int

const (
	// GateAllow lets the view render.
	GateAllow GateAction = iota
	// GateRedirectLogin sends the visitor to Target, a login path.
	GateRedirectLogin
	// GateRedirectDashboard sends the visitor to Target, the dashboard of
	// their own role.
	GateRedirectDashboard
)

// Decision is the gate's verdict; Target is set for redirects.
type Decision struct {
	Action GateAction
	Target string
}

// loginPaths maps a role to the login page appropriate for it.
var loginPaths = map[Role]string{
	RoleSuperAdmin:      "/login/admin",
	RoleRestaurantAdmin: "/login/admin",
	RoleKDS:             "/login/kds",
	RoleFrontDesk:       "/login/frontdesk",
}

// dashboardPaths maps a role to its home view.
var dashboardPaths = map[Role]string{
	RoleSuperAdmin:      "/admin",
	RoleRestaurantAdmin: "/admin",
	RoleKDS:             "/kds",
	RoleFrontDesk:       "/frontdesk",
}

// LoginPath returns the login page for a role.
func LoginPath(r Role) string {
	if p, ok := loginPaths[r]; ok {
		return p
	}
	return "/login/admin"
}

// DashboardPath returns the home view for a role.
func DashboardPath(r Role) string {
	if p, ok := dashboardPaths[r]; ok {
		return p
	}
	return "/admin"
}

// Gate decides whether the current session may enter a view restricted to
// the allowed roles. An empty allowed set only requires a session.
func (s *Store) Gate(allowed ...Role) Decision {
	sess, err := s.Current()
	if err != nil {
		target := "/login/admin"
		if len(allowed) > 0 {
			target = LoginPath(allowed[0])
		}
		return Decision{Action: GateRedirectLogin, Target: target}
	}
	if len(allowed) == 0 {
		return Decision{Action: GateAllow}
	}

	have := sess.User.EffectiveRole()
	for _, r := range allowed {
		if have == r {
			return Decision{Action: GateAllow}
		}
	}
	return Decision{Action: GateRedirectDashboard, Target: DashboardPath(have)}
}
