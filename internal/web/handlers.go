package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/cart"
	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/order"
)

var errNoSuchItem = errors.New("no such menu item")

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	restaurants, err := s.client.ListRestaurants(r.Context())
	if err != nil {
		s.renderError(w, http.StatusBadGateway, "The ordering service is unreachable right now. Please try again in a moment.")
		return
	}
	data := struct {
		page
		Restaurants []api.Restaurant
	}{page{Title: "Order ahead", Heading: "Order ahead"}, restaurants}
	s.render(w, "home.tmpl", data)
}

// handleLegacy 301-redirects old id-based deep links onto the slug form,
// preserving the rest of the path.
func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rest, err := s.resolveID(r, id)
	if err != nil {
		s.renderError(w, http.StatusNotFound, "That restaurant is no longer available.")
		return
	}
	tail := strings.TrimPrefix(r.URL.Path, "/restaurant/"+id)
	if tail == "" || tail == "/" {
		tail = "/menu"
	}
	http.Redirect(w, r, "/r/"+rest.Slug()+tail, http.StatusMovedPermanently)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rest, err := s.resolveSlug(r, vars["slug"])
	if err != nil {
		s.renderError(w, http.StatusNotFound, "That restaurant is no longer available.")
		return
	}

	m, err := s.menus.Get(r.Context(), rest.ID, nil)
	if err != nil {
		s.renderError(w, http.StatusBadGateway, "The menu cannot be loaded right now. Please try again in a moment.")
		return
	}

	cat, ok := m.FindCategory(vars["category"])
	if !ok {
		if len(m.Categories) == 0 {
			s.renderError(w, http.StatusNotFound, "This restaurant has not published a menu yet.")
			return
		}
		cat = m.Categories[0]
	}

	pageNum := 1
	if n, err := strconv.Atoi(vars["page"]); err == nil && n > 0 {
		pageNum = n
	}
	start := (pageNum - 1) * itemsPerPage
	if start > len(cat.Items) {
		start = len(cat.Items)
	}
	end := start + itemsPerPage
	if end > len(cat.Items) {
		end = len(cat.Items)
	}

	ct, err := cart.Open(s.store, rest.ID)
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, "Your cart cannot be read on this device.")
		return
	}

	data := struct {
		page
		Slug       string
		Categories []menu.Category
		Category   menu.Category
		Items      []menu.Item
		Page       int
		HasMore    bool
		CartCount  int
	}{
		page:       page{Title: rest.Name, Heading: rest.Name},
		Slug:       rest.Slug(),
		Categories: m.Categories,
		Category:   cat,
		Items:      cat.Items[start:end],
		Page:       pageNum,
		HasMore:    end < len(cat.Items),
		CartCount:  ct.Count(),
	}
	s.render(w, "menu.tmpl", data)
}

// cartView is the view model shared by the cart page and checkout errors.
type cartView struct {
	page
	Slug     string
	Lines    []cart.Line
	Subtotal float64
	Tax      float64
	Total    float64
}

func (s *Server) newCartView(rest api.Restaurant, ct *cart.Store, errMsg string) cartView {
	return cartView{
		page:     page{Title: "Your cart", Heading: "Your cart — " + rest.Name, Error: errMsg},
		Slug:     rest.Slug(),
		Lines:    ct.Lines(),
		Subtotal: ct.Subtotal(),
		Tax:      ct.Tax(),
		Total:    ct.Total(),
	}
}

func (s *Server) handleCartView(w http.ResponseWriter, r *http.Request) {
	rest, ct, ok := s.cartFor(w, r)
	if !ok {
		return
	}
	s.render(w, "cart.tmpl", s.newCartView(rest, ct, ""))
}

// handleCartAction mutates the cart from a form post, then bounces back to
// the cart page so a refresh never replays the mutation.
func (s *Server) handleCartAction(w http.ResponseWriter, r *http.Request) {
	rest, ct, ok := s.cartFor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "That request was malformed.")
		return
	}

	var err error
	switch r.PostForm.Get("action") {
	case "add":
		err = s.cartAdd(r, rest, ct)
	case "update":
		qty, _ := strconv.Atoi(r.PostForm.Get("quantity"))
		err = ct.SetQuantity(r.PostForm.Get("line_id"), qty)
	case "remove":
		err = ct.Remove(r.PostForm.Get("line_id"))
	case "clear":
		err = ct.Clear()
	default:
		s.renderError(w, http.StatusBadRequest, "That request was malformed.")
		return
	}

	if errors.Is(err, cart.ErrLineNotFound) {
		// The line is already gone (double submit); the redirect below
		// shows the current cart either way.
		err = nil
	}
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, "Your cart could not be updated.")
		return
	}
	http.Redirect(w, r, "/r/"+rest.Slug()+"/cart", http.StatusSeeOther)
}

// cartAdd resolves the posted item against the cached menu and adds it.
// Modifier choices arrive as mod_<name> form fields.
func (s *Server) cartAdd(r *http.Request, rest api.Restaurant, ct *cart.Store) error {
	m, err := s.menus.Get(r.Context(), rest.ID, nil)
	if err != nil {
		return err
	}
	item, ok := m.FindItem(r.PostForm.Get("item_id"))
	if !ok {
		return errNoSuchItem
	}

	sel := menu.Selections{}
	for field, values := range r.PostForm {
		if name, found := strings.CutPrefix(field, "mod_"); found && len(values) > 0 {
			sel[name] = values
		}
	}
	if len(sel) == 0 {
		sel = nil
	}

	qty, _ := strconv.Atoi(r.PostForm.Get("quantity"))
	_, err = ct.Add(item, sel, qty, r.PostForm.Get("instructions"))
	return err
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	rest, ct, ok := s.cartFor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "That request was malformed.")
		return
	}

	lines := ct.Lines()
	if len(lines) == 0 {
		http.Redirect(w, r, "/r/"+rest.Slug()+"/cart", http.StatusSeeOther)
		return
	}

	co := api.Checkout{
		RestaurantID:        rest.ID,
		CustomerName:        r.PostForm.Get("name"),
		CustomerPhone:       r.PostForm.Get("phone"),
		SpecialInstructions: r.PostForm.Get("notes"),
	}
	for _, l := range lines {
		co.Items = append(co.Items, api.CheckoutItem{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			ModifierSelections:  l.Selections,
			SpecialInstructions: l.SpecialInstructions,
		})
	}

	created, err := s.client.CreateOrder(r.Context(), co)
	if err != nil {
		// 4xx messages are the platform's own validation wording; show
		// them verbatim on the cart page.
		var apiErr *api.APIError
		msg := "The order could not be placed right now. Please try again."
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			msg = apiErr.Message
		}
		s.render(w, "cart.tmpl", s.newCartView(rest, ct, msg))
		return
	}

	if err := ct.Clear(); err != nil {
		s.renderError(w, http.StatusInternalServerError, "Your order was placed but the cart could not be cleared.")
		return
	}

	data := struct {
		page
		Slug  string
		Order order.Order
	}{page{Title: "Order placed", Heading: "Order placed"}, rest.Slug(), created}
	s.render(w, "confirm.tmpl", data)
}

// cartFor resolves the route's restaurant and opens its cart, rendering
// the error page itself on failure.
func (s *Server) cartFor(w http.ResponseWriter, r *http.Request) (api.Restaurant, *cart.Store, bool) {
	rest, err := s.resolveSlug(r, mux.Vars(r)["slug"])
	if err != nil {
		s.renderError(w, http.StatusNotFound, "That restaurant is no longer available.")
		return api.Restaurant{}, nil, false
	}
	ct, err := cart.Open(s.store, rest.ID)
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, "Your cart cannot be read on this device.")
		return api.Restaurant{}, nil, false
	}
	return rest, ct, true
}
