package web

import (
	"net/http"

	"retail-pos/internal/core"
)

// dailySummary handles GET /api/reports/daily?date=YYYY-MM-DD.
func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.DailySummary(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// lowStock handles GET /api/reports/low-stock.
func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.LowStockProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, products)
}

// debtors handles GET /api/reports/debtors.
func (h *Handler) debtors(w http.ResponseWriter, r *http.Request) {
	debtors, err := h.svc.Debtors(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debtors)
}

// ── Users ────────────────────────────────────────────────────────────────────

// listUsers handles GET /api/users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, users)
}

// createUser handles POST /api/users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	user, err := h.svc.CreateUser(r.Context(), body.Username, body.Password, core.Role(body.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, user)
}

// setUserActive handles POST /api/users/{id}/active.
func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.svc.SetUserActive(r.Context(), id, body.Active); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
