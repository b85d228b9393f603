package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/session"
	"github.com/orderdeck/orderdeck/internal/testutil"
)

// setupDevice points the CLI at a fake platform and a throwaway device
// store via the environment, the way a real deployment is configured.
func setupDevice(t *testing.T, p *testutil.Platform, restaurantID string) {
	t.Helper()
	t.Setenv("API_BASE_URL", p.URL())
	t.Setenv("KDS_API_KEY", p.APIKey)
	t.Setenv("RESTAURANT_ID", restaurantID)
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "device.db"))
}

// execute runs the CLI with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func seedPlatform(t *testing.T) (*testutil.Platform, string) {
	t.Helper()
	p := testutil.NewPlatform(t)
	rest := p.AddRestaurant("Golden Dragon", "+14155550100")
	p.SetMenu(rest.ID, menu.Menu{Categories: []menu.Category{{
		ID: "c1", Name: "Mains", IsActive: true,
		Items: []menu.Item{
			{ID: "i1", CategoryID: "c1", Name: "Kung Pao Chicken", Price: 12.50, IsAvailable: true,
				Modifiers: []menu.Modifier{{Name: "Size", Type: menu.ModifierSingle,
					Options: []menu.Option{{Name: "Small"}, {Name: "Large", PriceAdjustment: 3}}}}},
			{ID: "i2", CategoryID: "c1", Name: "Fried Rice", Price: 10, IsAvailable: true},
		},
	}}})
	return p, rest.ID
}

func TestLoginWhoamiLogout(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin, RestaurantID: rid}, "secret")

	out, err := execute(t, "login", "ana", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ana")

	out, err = execute(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "restaurant_admin")

	out, err = execute(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = execute(t, "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestLoginBadPassword(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleKDS}, "secret")

	_, err := execute(t, "login", "ana", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "Incorrect username or password")
}

func TestMenuCommand(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	out, err := execute(t, "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "Mains")
	assert.Contains(t, out, "Kung Pao Chicken")
	assert.Contains(t, out, "$12.50")
	assert.Contains(t, out, "Large (+3.00)")
}

func TestCartFlow(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	out, err := execute(t, "cart", "add", "i1", "--qty", "2", "--mod", "Size=Large")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 2x Kung Pao Chicken")
	assert.Contains(t, out, "$15.50")

	out, err = execute(t, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2x Kung Pao Chicken")
	assert.Contains(t, out, "Size: Large")
	assert.Contains(t, out, "subtotal $31.00")
	assert.Contains(t, out, "total $33.25")

	out, err = execute(t, "checkout", "--name", "Dana", "--phone", "+14155550134", "--note", "ring the bell")
	require.NoError(t, err)
	assert.Contains(t, out, "Order ORD-")

	placed := p.Orders(rid)
	require.Len(t, placed, 1)
	assert.Equal(t, "Dana", placed[0].CustomerName)
	assert.Equal(t, "ring the bell", placed[0].SpecialInstructions)

	out, err = execute(t, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart is empty")
}

func TestCheckoutEmptyCart(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	_, err := execute(t, "checkout", "--phone", "+14155550134")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart is empty")
}

func TestKDSOnce(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	_, err := execute(t, "cart", "add", "i2")
	require.NoError(t, err)
	_, err = execute(t, "checkout", "--phone", "+14155550134")
	require.NoError(t, err)

	out, err := execute(t, "kds", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "KITCHEN DISPLAY - 1 active")
	assert.Contains(t, out, "Fried Rice")
	assert.Contains(t, out, "next: Preparing")
}

func TestFrontDeskOnce(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	out, err := execute(t, "frontdesk", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "FRONT DESK - 0 orders")
}

func TestAdminRestaurantsList(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "root", Role: session.RoleSuperAdmin}, "secret")

	_, err := execute(t, "login", "root", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "admin", "restaurants", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Golden Dragon")
	assert.Contains(t, out, "/r/golden-dragon/menu")
}

func TestAdminRequiresLogin(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	_, err := execute(t, "admin", "restaurants", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestAdminCreateUser(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "root", Role: session.RoleSuperAdmin}, "secret")

	_, err := execute(t, "login", "root", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "admin", "users", "create", "kitchen1",
		"--password", "changeme", "--role", "kds_user", "--user-restaurant", rid)
	require.NoError(t, err)
	assert.Contains(t, out, "Created kitchen1 (kds_user)")

	// The new account can log in.
	out, err = execute(t, "login", "kitchen1", "--password", "changeme")
	require.NoError(t, err)
	assert.Contains(t, out, "kds_user")
}

func TestPasswd(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin, RestaurantID: rid}, "secret")

	_, err := execute(t, "login", "ana", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "passwd", "--current", "secret", "--new", "rotated")
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed")

	_, err = execute(t, "login", "ana", "--password", "secret")
	require.Error(t, err)
	_, err = execute(t, "login", "ana", "--password", "rotated")
	require.NoError(t, err)
}

func TestPasswdWrongCurrent(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin, RestaurantID: rid}, "secret")

	_, err := execute(t, "login", "ana", "--password", "secret")
	require.NoError(t, err)

	_, err = execute(t, "passwd", "--current", "wrong", "--new", "rotated")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Current password is incorrect")
}

func TestOrderLookup(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)

	_, err := execute(t, "cart", "add", "i1", "--qty", "2", "--mod", "Size=Large")
	require.NoError(t, err)
	_, err = execute(t, "checkout", "--name", "Dana", "--phone", "+14155550134")
	require.NoError(t, err)

	placed := p.Orders(rid)
	require.Len(t, placed, 1)

	// By number.
	out, err := execute(t, "order", placed[0].Number)
	require.NoError(t, err)
	assert.Contains(t, out, placed[0].Number)
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "2x Kung Pao Chicken")
	assert.Contains(t, out, "(415) 555-0134")

	// By raw id.
	out, err = execute(t, "order", placed[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, placed[0].Number)

	_, err = execute(t, "order", "ORD-19990101-999")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestAdminUpdateItem(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin, RestaurantID: rid}, "secret")

	_, err := execute(t, "login", "ana", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "admin", "items", "update", "i1", "--price", "13.75", "--available=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated item Kung Pao Chicken at $13.75")

	out, err = execute(t, "menu", "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "$13.75")
	assert.Contains(t, out, "(unavailable)")

	_, err = execute(t, "admin", "items", "update", "i1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestAdminUpdateCategory(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin, RestaurantID: rid}, "secret")

	_, err := execute(t, "login", "ana", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "admin", "categories", "update", "c1", "--name", "Entrees")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated category Entrees")

	out, err = execute(t, "menu", "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Entrees")
}

func TestAnalyticsOverview(t *testing.T) {
	p, rid := seedPlatform(t)
	setupDevice(t, p, rid)
	p.AddUser(session.User{Username: "ana", Role: session.RoleRestaurantAdmin, RestaurantID: rid}, "secret")

	_, err := execute(t, "cart", "add", "i2")
	require.NoError(t, err)
	_, err = execute(t, "checkout", "--phone", "+14155550134")
	require.NoError(t, err)

	_, err = execute(t, "login", "ana", "--password", "secret")
	require.NoError(t, err)

	out, err := execute(t, "analytics", "overview")
	require.NoError(t, err)
	assert.Contains(t, out, "orders     1")
	assert.Contains(t, out, "self-service")
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("KDS_API_KEY", "")
	t.Setenv("RESTAURANT_ID", "")
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "device.db"))

	_, err := execute(t, "kds", "--once")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "API_BASE_URL")
	assert.Contains(t, err.Error(), "KDS_API_KEY")
}
