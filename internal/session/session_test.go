package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdeck/orderdeck/internal/localstore"
	"github.com/orderdeck/orderdeck/internal/menu"
)

func setup(t *testing.T) (*Store, *localstore.Store) {
	t.Helper()
	ls, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { ls.Close() })
	return NewStore(ls), ls
}

func kdsSession() Session {
	return Session{
		Token: "tok-123",
		User: User{
			ID:             "u1",
			Username:       "kitchen",
			Role:           RoleKDS,
			RestaurantRole: RoleKDS,
			RestaurantID:   "r1",
		},
	}
}

func TestStore_SaveCurrent(t *testing.T) {
	s, _ := setup(t)

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Save(kdsSession()))

	sess, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", sess.Token)
	assert.Equal(t, RoleKDS, sess.User.EffectiveRole())
}

func TestStore_Invalidate(t *testing.T) {
	s, ls := setup(t)

	require.NoError(t, s.Save(kdsSession()))
	require.NoError(t, ls.Put(menu.CachePrefix+"r1", "cached"))

	require.NoError(t, s.Invalidate())

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	// Invalidate keeps the menu cache; only logout clears it.
	var v string
	_, err = ls.Get(menu.CachePrefix+"r1", &v)
	assert.NoError(t, err)
}

func TestStore_LogoutClearsEverything(t *testing.T) {
	s, ls := setup(t)

	require.NoError(t, s.Save(kdsSession()))
	require.NoError(t, ls.Put(menu.CachePrefix+"r1", "cached"))
	require.NoError(t, ls.Put(RestaurantKey("golden-dragon"), "cached"))
	require.NoError(t, ls.Put("cart:r1", "kept"))

	require.NoError(t, s.Logout())

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNoSession)

	var v string
	_, err = ls.Get(menu.CachePrefix+"r1", &v)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
	_, err = ls.Get(RestaurantKey("golden-dragon"), &v)
	assert.ErrorIs(t, err, localstore.ErrNotFound)

	// The cart is not credential state and survives logout.
	_, err = ls.Get("cart:r1", &v)
	assert.NoError(t, err)
}

func TestUser_EffectiveRole(t *testing.T) {
	u := User{Role: RoleRestaurantAdmin}
	assert.Equal(t, RoleRestaurantAdmin, u.EffectiveRole())

	u.RestaurantRole = RoleFrontDesk
	assert.Equal(t, RoleFrontDesk, u.EffectiveRole())
}
