package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/display"
	"github.com/orderdeck/orderdeck/internal/order"
	"github.com/orderdeck/orderdeck/internal/session"
)

// loginTitles names each login surface.
var loginTitles = map[string]string{
	"admin":     "Admin sign in",
	"kds":       "Kitchen sign in",
	"frontdesk": "Front desk sign in",
}

type loginView struct {
	page
	RoleName string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	role := mux.Vars(r)["role"]
	// Already signed in: the gate's redirect policy applies here too.
	if sess, err := s.sessions.Current(); err == nil {
		http.Redirect(w, r, session.DashboardPath(sess.User.EffectiveRole()), http.StatusSeeOther)
		return
	}
	title := loginTitles[role]
	s.render(w, "login.tmpl", loginView{page{Title: title, Heading: title}, role})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	role := mux.Vars(r)["role"]
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "That request was malformed.")
		return
	}

	// A fresh client per attempt; the login token must not land on the
	// shared display client.
	client := api.New(s.cfg.APIBaseURL)
	res, err := client.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		title := loginTitles[role]
		msg := "Sign in failed. Please try again."
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		v := loginView{page{Title: title, Heading: title, Error: msg}, role}
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, "login.tmpl", v)
		return
	}

	if err := s.sessions.Save(session.Session{Token: res.Token, User: res.User}); err != nil {
		s.renderError(w, http.StatusInternalServerError, "The session could not be stored on this device.")
		return
	}
	// Whatever surface they signed in from, land them on their own
	// role's dashboard.
	http.Redirect(w, r, session.DashboardPath(res.User.EffectiveRole()), http.StatusSeeOther)
}

// handleLogout clears the device session and every cached menu, then
// forces a full navigation back to the start page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(); err != nil {
		s.renderError(w, http.StatusInternalServerError, "Logout failed; this device may still hold a session.")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// displayRestaurant picks the restaurant a staff board shows: the one the
// signed-in user belongs to, falling back to the device configuration.
func (s *Server) displayRestaurant() string {
	if sess, err := s.sessions.Current(); err == nil && sess.User.RestaurantID != "" {
		return sess.User.RestaurantID
	}
	return s.cfg.RestaurantID
}

func (s *Server) handleKDS(w http.ResponseWriter, r *http.Request) {
	s.handleBoard(w, r, "Kitchen", display.RenderKDS)
}

func (s *Server) handleFrontDesk(w http.ResponseWriter, r *http.Request) {
	s.handleBoard(w, r, "Front desk", display.RenderFrontDesk)
}

// handleBoard renders a staff board through the shared terminal renderer;
// the web boards deliberately show the exact text the terminal displays
// show, and the meta refresh does the polling.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request, title string, render func(io.Writer, []order.Order, time.Time)) {
	rid := s.displayRestaurant()
	if rid == "" {
		data := struct {
			page
			Missing []string
		}{page{Title: "Not configured", Heading: "Not configured", ShowLogout: true}, []string{"RESTAURANT_ID"}}
		s.render(w, "configerror.tmpl", data)
		return
	}

	orders, err := s.client.ListOrders(r.Context(), rid)
	if errors.Is(err, api.ErrNoAPIKey) {
		data := struct {
			page
			Missing []string
		}{page{Title: "Not configured", Heading: "Not configured", ShowLogout: true}, []string{"KDS_API_KEY"}}
		s.render(w, "configerror.tmpl", data)
		return
	}

	var buf bytes.Buffer
	render(&buf, orders, time.Now())

	p := page{Title: title, Heading: title, Refresh: s.cfg.PollSeconds, ShowLogout: true}
	if err != nil {
		// Keep the page alive; the refresh retries on its own.
		p.Error = "Orders could not be refreshed. Retrying..."
	}
	data := struct {
		page
		Board string
	}{p, buf.String()}
	s.render(w, "board.tmpl", data)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	client, sess, err := s.bearerClient()
	if err != nil {
		http.Redirect(w, r, "/login/admin", http.StatusSeeOther)
		return
	}

	p := page{Title: "Admin", Heading: "Admin", ShowLogout: true}

	var overview *api.AnalyticsOverview
	if sess.User.RestaurantID != "" {
		ov, err := client.Overview(r.Context(), sess.User.RestaurantID, 7)
		switch {
		case api.IsAuthError(err):
			// The platform no longer honors this token; drop it and
			// start over at the login page.
			_ = s.sessions.Invalidate()
			http.Redirect(w, r, "/login/admin", http.StatusSeeOther)
			return
		case err != nil:
			p.Error = "Analytics are unavailable right now."
		default:
			overview = &ov
		}
	}

	restaurants, err := s.client.ListRestaurants(r.Context())
	if err != nil {
		p.Error = "The restaurant list is unavailable right now."
	}
	if sess.User.EffectiveRole() == session.RoleRestaurantAdmin {
		scoped := restaurants[:0]
		for _, rest := range restaurants {
			if rest.ID == sess.User.RestaurantID {
				scoped = append(scoped, rest)
			}
		}
		restaurants = scoped
	}

	data := struct {
		page
		Username    string
		Role        session.Role
		Overview    *api.AnalyticsOverview
		Restaurants []api.Restaurant
	}{p, sess.User.Username, sess.User.EffectiveRole(), overview, restaurants}
	s.render(w, "admin.tmpl", data)
}
