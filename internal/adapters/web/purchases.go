package web

import (
	"net/http"

	"retail-pos/internal/app"
)

// createPurchase handles POST /api/purchases — opens an empty pending
// purchase the admin then adds received lines to.
func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.svc.CreatePurchase(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, purchase)
}

// listPurchases handles GET /api/purchases?status=PENDING.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.svc.ListPurchases(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchases)
}

// getPurchase handles GET /api/purchases/{id}.
func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	purchase, err := h.svc.GetPurchase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}

// addPurchaseItem handles POST /api/purchases/{id}/items.
func (h *Handler) addPurchaseItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.PurchaseItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	purchase, err := h.svc.AddPurchaseItem(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}

// completePurchase handles POST /api/purchases/{id}/complete.
func (h *Handler) completePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	purchase, err := h.svc.CompletePurchase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}

// cancelPurchase handles POST /api/purchases/{id}/cancel.
func (h *Handler) cancelPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	purchase, err := h.svc.CancelPurchase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, purchase)
}
