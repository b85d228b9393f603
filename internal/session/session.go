// Package session holds the device's authenticated identity: bearer token
// plus user and role, persisted to the device store and gating protected
// views. One session per device; login replaces it, logout destroys it.
package session

import (
	"errors"
	"fmt"

	"github.com/orderdeck/orderdeck/internal/localstore"
	"github.com/orderdeck/orderdeck/internal/menu"
)

// Role is the platform's user role enumeration.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleRestaurantAdmin Role = "restaurant_admin"
	RoleKDS             Role = "kds_user"
	RoleFrontDesk       Role = "frontdesk_user"
)

// User is the authenticated identity as returned by the platform.
// Restaurant-scoped roles carry the restaurant they belong to.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	Role           Role   `json:"role"`
	RestaurantRole Role   `json:"restaurant_role,omitempty"`
	RestaurantID   string `json:"restaurant_id,omitempty"`
}

// EffectiveRole is the role used for gating: the restaurant-scoped role
// when present, the base role otherwise.
func (u User) EffectiveRole() Role {
	if u.RestaurantRole != "" {
		return u.RestaurantRole
	}
	return u.Role
}

// Session is the persisted token + user pair.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

const (
	sessionKey = "session"

	// restaurantPrefix namespaces cached restaurant lookups (slug
	// resolution); cleared on logout together with the menu cache.
	restaurantPrefix = "restaurant:"
)

// ErrNoSession is returned by Current when no login is stored.
var ErrNoSession = errors.New("no active session")

// Store reads and writes the device session.
type Store struct {
	ls *localstore.Store
}

// NewStore wraps the device store.
func NewStore(ls *localstore.Store) *Store {
	return &Store{ls: ls}
}

// Current returns the stored session, or ErrNoSession.
func (s *Store) Current() (Session, error) {
	var sess Session
	_, err := s.ls.Get(sessionKey, &sess)
	if errors.Is(err, localstore.ErrNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Save stores the session after a successful login.
func (s *Store) Save(sess Session) error {
	if err := s.ls.Put(sessionKey, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Invalidate drops only the session, e.g. when a bearer call comes back
// 401. Cached menus stay; they are not credential-scoped.
func (s *Store) Invalidate() error {
	if err := s.ls.Delete(sessionKey); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// Logout clears the token and user plus every cached menu and restaurant
// entry, so no stale state survives into the next login. Web surfaces
// follow this with a full-page navigation.
func (s *Store) Logout() error {
	if err := s.ls.Delete(sessionKey); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if _, err := s.ls.DeletePrefix(menu.CachePrefix); err != nil {
		return fmt.Errorf("logout: clear menu cache: %w", err)
	}
	if _, err := s.ls.DeletePrefix(restaurantPrefix); err != nil {
		return fmt.Errorf("logout: clear restaurant cache: %w", err)
	}
	return nil
}

// RestaurantKey builds the device-store key for a cached restaurant lookup.
func RestaurantKey(slugOrID string) string { return restaurantPrefix + slugOrID }
