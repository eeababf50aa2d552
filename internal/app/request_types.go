package app

// Quantities and amounts arrive as strings: the terminal serializes its cart
// as display values, and parsing happens once, here, with the shared money
// helpers. Zero or malformed optional amounts fall back to defaults; required
// ones are rejected before any transaction starts.

// CreateSaleRequest is the full cashier submission for one sale.
type CreateSaleRequest struct {
	CashierID    int            `json:"-"`
	PaymentType  string         `json:"payment_type"`
	PaidAmount   string         `json:"paid_amount"`
	TotalAmount  string         `json:"total_amount"`
	CustomerName string         `json:"customer_name"`
	Cart         []CartLineItem `json:"cart"`
}

// CartLineItem is one scanned line in a CreateSaleRequest.
type CartLineItem struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"` // blank means "use current sell price"
}

// CreateProductRequest is the input for adding a catalog entry.
type CreateProductRequest struct {
	Name      string `json:"name"`
	Barcode   string `json:"barcode"`
	CostPrice string `json:"cost_price"`
	SellPrice string `json:"sell_price"`
	Unit      string `json:"unit"`
	Stock     string `json:"stock"`
}

// PurchaseItemRequest is one received line on a supplier purchase.
type PurchaseItemRequest struct {
	Barcode   string `json:"barcode"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	CostPrice string `json:"cost_price"`
}
