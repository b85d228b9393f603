// Package web is the customer-facing ordering site plus the staff pages,
// served by `orderdeck serve`.
//
// Customers browse by restaurant slug (/r/{slug}/menu), fill a cart, and
// check out; staff sign in at /login/{role} and land on their dashboard.
// All pages are server-rendered html/template; the staff boards repaint
// themselves with a meta refresh on the poll interval.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/config"
	"github.com/orderdeck/orderdeck/internal/localstore"
	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/session"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// itemsPerPage bounds how many dishes render on one menu page.
const itemsPerPage = 8

// Server holds the shared state behind the HTTP handlers. The api client
// carries only the display API key; bearer flows build a per-request
// client from the stored session so logins never leak between users.
type Server struct {
	cfg      config.Config
	cfgErr   *config.MissingError
	client   *api.Client
	store    *localstore.Store
	sessions *session.Store
	menus    *menu.Cache
	tmpl     *template.Template
}

// New assembles the server. cfgErr, when non-nil, switches every route to
// the configuration-error page instead of failing startup: a kiosk with a
// half-finished .env should show what is missing, not crash-loop.
func New(cfg config.Config, cfgErr *config.MissingError, client *api.Client, ls *localstore.Store) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		cfgErr:   cfgErr,
		client:   client,
		store:    ls,
		sessions: session.NewStore(ls),
	}
	s.menus = menu.NewCache(ls, client.FullMenu, cfg.MenuTTL())

	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"prev":  func(p int) int { return p - 1 },
		"next":  func(p int) int { return p + 1 },
		"join":  func(ss []string) string { return strings.Join(ss, ", ") },
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.tmpl = tmpl
	return s, nil
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.configGuard)

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)

	r.HandleFunc("/r/{slug}/menu", s.handleMenu).Methods(http.MethodGet)
	r.HandleFunc("/r/{slug}/menu/{category}", s.handleMenu).Methods(http.MethodGet)
	r.HandleFunc("/r/{slug}/menu/{category}/{page:[0-9]+}", s.handleMenu).Methods(http.MethodGet)
	r.HandleFunc("/r/{slug}/cart", s.handleCartView).Methods(http.MethodGet)
	r.HandleFunc("/r/{slug}/cart", s.handleCartAction).Methods(http.MethodPost)
	r.HandleFunc("/r/{slug}/checkout", s.handleCheckout).Methods(http.MethodPost)

	// Old deep links used raw restaurant ids; they redirect permanently
	// to the slug form.
	r.PathPrefix("/restaurant/{id}").HandlerFunc(s.handleLegacy).Methods(http.MethodGet)

	r.HandleFunc("/login/{role:admin|kds|frontdesk}", s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login/{role:admin|kds|frontdesk}", s.handleLoginSubmit).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/kds", s.gate(s.handleKDS, session.RoleKDS)).Methods(http.MethodGet)
	r.HandleFunc("/frontdesk", s.gate(s.handleFrontDesk, session.RoleFrontDesk)).Methods(http.MethodGet)
	r.HandleFunc("/admin", s.gate(s.handleAdmin, session.RoleSuperAdmin, session.RoleRestaurantAdmin)).Methods(http.MethodGet)

	return r
}

// page carries the fields the shared layout needs; handler-specific view
// models embed it.
type page struct {
	Title      string
	Heading    string
	Refresh    int // seconds; 0 disables the meta refresh
	ShowLogout bool
	Error      string
}

// render executes the named template, logging instead of half-writing a
// second error page when execution fails mid-stream.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render failed", "template", name, "error", err)
	}
}

// renderError shows the generic error page with the given message.
func (s *Server) renderError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := struct {
		page
		Message string
	}{page{Title: "Something went wrong", Heading: "Something went wrong"}, msg}
	if err := s.tmpl.ExecuteTemplate(w, "error.tmpl", data); err != nil {
		slog.Error("render failed", "template", "error.tmpl", "error", err)
	}
}

// configGuard short-circuits every route onto the configuration-error
// page while required settings are missing.
func (s *Server) configGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfgErr != nil {
			data := struct {
				page
				Missing []string
			}{page{Title: "Not configured", Heading: "Not configured"}, s.cfgErr.Fields}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			s.render(w, "configerror.tmpl", data)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// gate applies the session gate in front of a staff view.
func (s *Server) gate(next http.HandlerFunc, allowed ...session.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := s.sessions.Gate(allowed...)
		if d.Action == session.GateAllow {
			next(w, r)
			return
		}
		http.Redirect(w, r, d.Target, http.StatusSeeOther)
	}
}

// bearerClient builds an api client carrying the stored session token.
func (s *Server) bearerClient() (*api.Client, session.Session, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, session.Session{}, err
	}
	return api.New(s.cfg.APIBaseURL, api.WithToken(sess.Token)), sess, nil
}

// resolveSlug maps a routing slug to its restaurant, consulting the
// device-store cache before the platform. Every fetched restaurant is
// cached under both its slug and its id so legacy links resolve too.
func (s *Server) resolveSlug(r *http.Request, slugName string) (api.Restaurant, error) {
	var rest api.Restaurant
	if _, err := s.store.Get(session.RestaurantKey(slugName), &rest); err == nil {
		return rest, nil
	}

	all, err := s.client.ListRestaurants(r.Context())
	if err != nil {
		return api.Restaurant{}, err
	}
	var found api.Restaurant
	for _, cand := range all {
		if err := s.store.Put(session.RestaurantKey(cand.Slug()), cand); err != nil {
			slog.Debug("restaurant cache write failed", "error", err)
		}
		if err := s.store.Put(session.RestaurantKey(cand.ID), cand); err != nil {
			slog.Debug("restaurant cache write failed", "error", err)
		}
		if cand.Slug() == slugName || cand.ID == slugName {
			found = cand
		}
	}
	if found.ID == "" {
		return api.Restaurant{}, errNoSuchRestaurant
	}
	return found, nil
}

// resolveID maps a raw restaurant id (legacy deep links) to its
// restaurant with a single fetch, caching the result like resolveSlug.
func (s *Server) resolveID(r *http.Request, id string) (api.Restaurant, error) {
	var rest api.Restaurant
	if _, err := s.store.Get(session.RestaurantKey(id), &rest); err == nil {
		return rest, nil
	}

	rest, err := s.client.GetRestaurant(r.Context(), id)
	if err != nil {
		return api.Restaurant{}, errNoSuchRestaurant
	}
	if err := s.store.Put(session.RestaurantKey(rest.Slug()), rest); err != nil {
		slog.Debug("restaurant cache write failed", "error", err)
	}
	if err := s.store.Put(session.RestaurantKey(rest.ID), rest); err != nil {
		slog.Debug("restaurant cache write failed", "error", err)
	}
	return rest, nil
}

var errNoSuchRestaurant = errors.New("no such restaurant")
