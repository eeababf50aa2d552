package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"retail-pos/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes. Cashiers can
// sell, look up products and take debt payments; everything that changes the
// catalog, the supply side or the accounts is admin-only.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// ── Catalog ───────────────────────────────────────────────────────────
		r.Get("/api/products", h.listProducts)
		r.Get("/api/products/barcode/{barcode}", h.getProductByBarcode)

		// ── Sales ─────────────────────────────────────────────────────────────
		r.Post("/api/sales", h.createSale)
		r.Get("/api/sales", h.listSales)
		r.Get("/api/sales/{id}", h.getSale)
		r.Post("/api/sales/{id}/items", h.addSaleItem)
		r.Delete("/api/sales/{id}/items/{itemID}", h.removeSaleItem)

		// ── Customers & debts ─────────────────────────────────────────────────
		r.Get("/api/customers", h.listCustomers)
		r.Get("/api/customers/{id}", h.getCustomer)
		r.Get("/api/customers/{id}/debts", h.listCustomerDebts)
		r.Get("/api/debts", h.listOpenDebts)
		r.Post("/api/debts/{id}/pay", h.payDebt)

		// ── Admin only ────────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Post("/api/products", h.createProduct)
			r.Post("/api/products/{id}/stock", h.adjustStock)

			r.Post("/api/purchases", h.createPurchase)
			r.Get("/api/purchases", h.listPurchases)
			r.Get("/api/purchases/{id}", h.getPurchase)
			r.Post("/api/purchases/{id}/items", h.addPurchaseItem)
			r.Post("/api/purchases/{id}/complete", h.completePurchase)
			r.Post("/api/purchases/{id}/cancel", h.cancelPurchase)

			r.Get("/api/reports/daily", h.dailySummary)
			r.Get("/api/reports/low-stock", h.lowStock)
			r.Get("/api/reports/debtors", h.debtors)

			r.Get("/api/users", h.listUsers)
			r.Post("/api/users", h.createUser)
			r.Post("/api/users/{id}/active", h.setUserActive)
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts a numeric URL parameter; the second return is false when
// the value is not a positive integer (an error response has been written).
func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+" parameter", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v, writing an error response and
// returning false on failure. HTTP 413 when the body exceeds the limit set by
// RequestBodyLimit; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
