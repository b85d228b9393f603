// Package testutil provides a fake ordering platform for tests.
//
// Platform is an in-memory stand-in for the external service: it speaks
// the same routes and credential rules as the real API, backed by maps
// instead of a database. Tests seed it, point a client or server at its
// URL, and assert on the state it accumulates.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/order"
	"github.com/orderdeck/orderdeck/internal/session"
)

// Platform is the fake service. Fields are guarded by mu; tests may read
// them directly after the requests under test have returned.
type Platform struct {
	Server *httptest.Server

	mu sync.Mutex

	// APIKey is the X-API-Key the display endpoints require.
	APIKey string

	users       map[string]session.User // by username
	passwords   map[string]string       // by username
	tokens      map[string]string       // token -> username
	restaurants []api.Restaurant
	menus       map[string]menu.Menu     // by restaurant id
	orders      map[string][]order.Order // by restaurant id

	// MenuFetches counts GET /api/menu/{id} calls, for cache tests.
	MenuFetches int

	// CancelReasons records the reason sent with each cancel, by order id.
	CancelReasons map[string]string
}

// NewPlatform starts a fake platform and registers its shutdown with t.
func NewPlatform(t *testing.T) *Platform {
	t.Helper()

	p := &Platform{
		APIKey:        "test-api-key",
		users:         make(map[string]session.User),
		passwords:     make(map[string]string),
		tokens:        make(map[string]string),
		menus:         make(map[string]menu.Menu),
		orders:        make(map[string][]order.Order),
		CancelReasons: make(map[string]string),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", p.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", p.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/change-password", p.handleChangePassword).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/users", p.handleCreateUser).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/users", p.handleListUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/restaurants", p.handleRestaurants).Methods(http.MethodGet)
	r.HandleFunc("/api/restaurants", p.handleCreateRestaurant).Methods(http.MethodPost)
	r.HandleFunc("/api/restaurants/{id}", p.handleRestaurant).Methods(http.MethodGet)
	r.HandleFunc("/api/menu/{rid}", p.handleMenu).Methods(http.MethodGet)
	r.HandleFunc("/api/menu/categories/{id}", p.handleUpdateCategory).Methods(http.MethodPut)
	r.HandleFunc("/api/menu/items/{id}", p.handleUpdateItem).Methods(http.MethodPut)
	r.HandleFunc("/api/orders", p.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", p.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/{id}", p.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{id}/status", p.handleStatus).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/{id}/cancel", p.handleCancel).Methods(http.MethodPost)
	r.HandleFunc("/api/analytics/{rid}/overview", p.handleOverview).Methods(http.MethodGet)

	p.Server = httptest.NewServer(r)
	t.Cleanup(p.Server.Close)
	return p
}

// URL is the platform's base URL (scheme://host, no /api suffix).
func (p *Platform) URL() string { return p.Server.URL }

// AddUser seeds an account the login endpoint will accept.
func (p *Platform) AddUser(u session.User, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	p.users[u.Username] = u
	p.passwords[u.Username] = password
}

// AddRestaurant seeds a venue and returns it with an id assigned.
func (p *Platform) AddRestaurant(name, phone string) api.Restaurant {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := api.Restaurant{ID: uuid.NewString(), Name: name, Phone: phone}
	p.restaurants = append(p.restaurants, r)
	return r
}

// SetMenu seeds the full menu served for a restaurant.
func (p *Platform) SetMenu(restaurantID string, m menu.Menu) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m.RestaurantID = restaurantID
	p.menus[restaurantID] = m
}

// SetOrders replaces a restaurant's order list.
func (p *Platform) SetOrders(restaurantID string, orders []order.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[restaurantID] = orders
}

// Orders returns a copy of a restaurant's orders.
func (p *Platform) Orders(restaurantID string) []order.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]order.Order(nil), p.orders[restaurantID]...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// bearerUser resolves the Authorization header to a seeded user.
func (p *Platform) bearerUser(r *http.Request) (session.User, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return session.User{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	username, ok := p.tokens[token]
	if !ok {
		return session.User{}, false
	}
	u, ok := p.users[username]
	return u, ok
}

func (p *Platform) requireAPIKey(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-API-Key") != p.APIKey {
		writeDetail(w, http.StatusUnauthorized, "Invalid API key")
		return false
	}
	return true
}

func (p *Platform) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[creds.Username]
	if !ok || p.passwords[creds.Username] != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	token := "tok-" + uuid.NewString()
	p.tokens[token] = creds.Username
	writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "user": u})
}

func (p *Platform) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := p.bearerUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (p *Platform) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := p.bearerUser(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var body struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.passwords[u.Username] != body.Current {
		writeDetail(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	p.passwords[u.Username] = body.New
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (p *Platform) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.bearerUser(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var nu api.NewUser
	if err := json.NewDecoder(r.Body).Decode(&nu); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}
	u := session.User{
		ID:           uuid.NewString(),
		Username:     nu.Username,
		Email:        nu.Email,
		FullName:     nu.FullName,
		Role:         nu.Role,
		RestaurantID: nu.RestaurantID,
	}
	p.mu.Lock()
	p.users[u.Username] = u
	p.passwords[u.Username] = nu.Password
	p.mu.Unlock()
	writeJSON(w, http.StatusCreated, u)
}

func (p *Platform) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.bearerUser(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	rid := r.URL.Query().Get("restaurant_id")
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]session.User, 0, len(p.users))
	for _, u := range p.users {
		if rid == "" || u.RestaurantID == rid {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (p *Platform) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	writeJSON(w, http.StatusOK, p.restaurants)
}

func (p *Platform) handleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.bearerUser(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var nr api.NewRestaurant
	if err := json.NewDecoder(r.Body).Decode(&nr); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}
	p.mu.Lock()
	rest := api.Restaurant{ID: uuid.NewString(), Name: nr.Name, Phone: nr.Phone, Address: nr.Address}
	p.restaurants = append(p.restaurants, rest)
	p.mu.Unlock()
	writeJSON(w, http.StatusCreated, rest)
}

func (p *Platform) handleRestaurant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rest := range p.restaurants {
		if rest.ID == id {
			writeJSON(w, http.StatusOK, rest)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Restaurant not found")
}

func (p *Platform) handleMenu(w http.ResponseWriter, r *http.Request) {
	rid := mux.Vars(r)["rid"]
	p.mu.Lock()
	defer p.mu.Unlock()
	p.MenuFetches++
	m, ok := p.menus[rid]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Restaurant not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (p *Platform) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.bearerUser(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}
	id := mux.Vars(r)["id"]

	p.mu.Lock()
	defer p.mu.Unlock()
	for rid, m := range p.menus {
		for i := range m.Categories {
			if m.Categories[i].ID != id {
				continue
			}
			cat := &m.Categories[i]
			if v, ok := fields["name"].(string); ok {
				cat.Name = v
			}
			if v, ok := fields["description"].(string); ok {
				cat.Description = v
			}
			if v, ok := fields["display_order"].(float64); ok {
				cat.DisplayOrder = int(v)
			}
			if v, ok := fields["is_active"].(bool); ok {
				cat.IsActive = v
			}
			p.menus[rid] = m
			writeJSON(w, http.StatusOK, cat)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Category not found")
}

func (p *Platform) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.bearerUser(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}
	id := mux.Vars(r)["id"]

	p.mu.Lock()
	defer p.mu.Unlock()
	for rid, m := range p.menus {
		for ci := range m.Categories {
			for ii := range m.Categories[ci].Items {
				if m.Categories[ci].Items[ii].ID != id {
					continue
				}
				item := &m.Categories[ci].Items[ii]
				if v, ok := fields["name"].(string); ok {
					item.Name = v
				}
				if v, ok := fields["description"].(string); ok {
					item.Description = v
				}
				if v, ok := fields["price"].(float64); ok {
					item.Price = v
				}
				if v, ok := fields["category_id"].(string); ok {
					item.CategoryID = v
				}
				if v, ok := fields["is_available"].(bool); ok {
					item.IsAvailable = v
				}
				p.menus[rid] = m
				writeJSON(w, http.StatusOK, item)
				return
			}
		}
	}
	writeDetail(w, http.StatusNotFound, "Item not found")
}

func (p *Platform) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if !p.requireAPIKey(w, r) {
		return
	}
	rid := r.URL.Query().Get("restaurant_id")
	p.mu.Lock()
	defer p.mu.Unlock()
	writeJSON(w, http.StatusOK, p.orders[rid])
}

func (p *Platform) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var co api.Checkout
	if err := json.NewDecoder(r.Body).Decode(&co); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}
	if len(co.Items) == 0 {
		writeDetail(w, http.StatusBadRequest, "Order must contain at least one item")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.menus[co.RestaurantID]
	now := time.Now().UTC()
	o := order.Order{
		ID:                  uuid.NewString(),
		Number:              fmt.Sprintf("ORD-%s-%03d", now.Format("20060102"), len(p.orders[co.RestaurantID])+1),
		RestaurantID:        co.RestaurantID,
		CustomerName:        co.CustomerName,
		CustomerPhone:       co.CustomerPhone,
		SpecialInstructions: co.SpecialInstructions,
		Status:              order.StatusPending,
		Source:              order.SourceSelfService,
		CreatedAt:           now,
	}
	for _, ci := range co.Items {
		item, _ := m.FindItem(ci.MenuItemID)
		unit := item.UnitPrice(ci.ModifierSelections)
		sel := make(map[string]any, len(ci.ModifierSelections))
		for k, v := range ci.ModifierSelections {
			sel[k] = v
		}
		o.Items = append(o.Items, order.Item{
			Name:                item.Name,
			Quantity:            ci.Quantity,
			Price:               unit,
			ModifierSelections:  sel,
			SpecialInstructions: ci.SpecialInstructions,
		})
		o.TotalAmount += unit * float64(ci.Quantity)
	}
	o.TotalAmount *= 1.0725
	p.orders[co.RestaurantID] = append(p.orders[co.RestaurantID], o)
	writeJSON(w, http.StatusCreated, o)
}

func (p *Platform) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	if !p.requireAPIKey(w, r) {
		return
	}
	id := mux.Vars(r)["id"]
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, orders := range p.orders {
		for _, o := range orders {
			if o.ID == id {
				writeJSON(w, http.StatusOK, o)
				return
			}
		}
	}
	writeDetail(w, http.StatusNotFound, "Order not found")
}

func (p *Platform) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !p.requireAPIKey(w, r) {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request")
		return
	}
	if p.setStatus(mux.Vars(r)["id"], order.Status(body.Status)) {
		writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
		return
	}
	writeDetail(w, http.StatusNotFound, "Order not found")
}

func (p *Platform) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !p.requireAPIKey(w, r) {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	id := mux.Vars(r)["id"]
	if p.setStatus(id, order.StatusCancelled) {
		p.mu.Lock()
		p.CancelReasons[id] = body.Reason
		p.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
		return
	}
	writeDetail(w, http.StatusNotFound, "Order not found")
}

func (p *Platform) setStatus(orderID string, status order.Status) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for rid := range p.orders {
		for i := range p.orders[rid] {
			if p.orders[rid][i].ID == orderID {
				p.orders[rid][i].Status = status
				return true
			}
		}
	}
	return false
}

func (p *Platform) handleOverview(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.bearerUser(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	rid := mux.Vars(r)["rid"]
	p.mu.Lock()
	defer p.mu.Unlock()

	var out api.AnalyticsOverview
	for _, o := range p.orders[rid] {
		out.TotalOrders++
		out.TotalRevenue += o.TotalAmount
		switch o.Status {
		case order.StatusCompleted:
			out.CompletedOrders++
		case order.StatusCancelled:
			out.CancelledOrders++
		}
		switch o.Source {
		case order.SourceVoice:
			out.VoiceOrders++
		case order.SourceSelfService:
			out.SelfServeOrders++
		}
	}
	if out.TotalOrders > 0 {
		out.AverageOrder = out.TotalRevenue / float64(out.TotalOrders)
	}
	writeJSON(w, http.StatusOK, out)
}
