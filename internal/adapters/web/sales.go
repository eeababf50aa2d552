package web

import (
	"net/http"
	"strconv"
	"strings"

	"retail-pos/internal/app"
	"retail-pos/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// parseSignedQuantity parses a manual stock correction: any non-zero decimal,
// sign carrying the direction.
func parseSignedQuantity(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Msg: "invalid stock delta " + strconv.Quote(s)}
	}
	if d.IsZero() {
		return decimal.Zero, &core.ValidationError{Msg: "stock delta cannot be zero"}
	}
	return d.Round(2), nil
}

// createSale handles POST /api/sales — the full checkout submission.
func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	claims := authFromContext(r.Context())
	req.CashierID = claims.UserID

	sale, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}

// getSale handles GET /api/sales/{id}.
func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// listSales handles GET /api/sales?date=YYYY-MM-DD.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.ListSales(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sales)
}

// addSaleItem handles POST /api/sales/{id}/items.
func (h *Handler) addSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Barcode  string `json:"barcode"`
		Quantity string `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sale, err := h.svc.AddSaleItem(r.Context(), id, body.Barcode, body.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// removeSaleItem handles DELETE /api/sales/{id}/items/{itemID}.
func (h *Handler) removeSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(w, r, "itemID")
	if !ok {
		return
	}
	sale, err := h.svc.RemoveSaleItem(r.Context(), id, itemID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// ── Catalog ──────────────────────────────────────────────────────────────────

// listProducts handles GET /api/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, products)
}

// getProductByBarcode handles GET /api/products/barcode/{barcode} — the
// scanner lookup on the sale screen.
func (h *Handler) getProductByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.GetProductByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, product)
}

// adjustStock handles POST /api/products/{id}/stock — manual corrections.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Delta string `json:"delta"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	delta, err := parseSignedQuantity(body.Delta)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	newStock, err := h.svc.AdjustStock(r.Context(), id, delta)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	type response struct {
		ProductID int    `json:"product_id"`
		Stock     string `json:"stock"`
	}
	writeJSON(w, response{ProductID: id, Stock: newStock.StringFixed(2)})
}

// ── Customers & debts ────────────────────────────────────────────────────────

// listCustomers handles GET /api/customers.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customers)
}

// getCustomer handles GET /api/customers/{id}.
func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	customer, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, customer)
}

// listCustomerDebts handles GET /api/customers/{id}/debts.
func (h *Handler) listCustomerDebts(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	debts, err := h.svc.ListCustomerDebts(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debts)
}

// listOpenDebts handles GET /api/debts.
func (h *Handler) listOpenDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.svc.ListOpenDebts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debts)
}

// payDebt handles POST /api/debts/{id}/pay.
func (h *Handler) payDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Amount string `json:"amount"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	debt, err := h.svc.PayDebt(r.Context(), id, body.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, debt)
}
