package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType is how a sale was settled at the terminal.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCard   PaymentType = "card"
	PaymentCredit PaymentType = "credit"
)

// Valid reports whether t is one of the known payment types.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentCash, PaymentCard, PaymentCredit:
		return true
	}
	return false
}

// Unit is the measurement unit a product is sold in.
type Unit string

const (
	UnitPiece Unit = "piece"
	UnitKg    Unit = "kg"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	return u == UnitPiece || u == UnitKg
}

// Product is a catalog entry. Stock is mutated only through the stock ledger
// methods on ProductService, never assigned directly.
type Product struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Barcode   string          `json:"barcode"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Unit      Unit            `json:"unit"`
	Stock     decimal.Decimal `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
}

// lowStockThresholds is per unit; units outside the map fall back to 1.00.
var lowStockThresholds = map[Unit]decimal.Decimal{
	UnitKg:    decimal.NewFromFloat(5.00),
	UnitPiece: decimal.NewFromInt(5),
}

var defaultLowStockThreshold = decimal.NewFromFloat(1.00)

// LowStockThreshold returns the restock warning level for the product's unit.
func (p *Product) LowStockThreshold() decimal.Decimal {
	if t, ok := lowStockThresholds[p.Unit]; ok {
		return t
	}
	return defaultLowStockThreshold
}

// IsLowStock is a read-only classification; it never touches the ledger.
func (p *Product) IsLowStock() bool {
	return p.Stock.LessThanOrEqual(p.LowStockThreshold())
}

// Customer is a credit customer. TotalDebt is derived on every read as the
// sum of remaining balances over the customer's non-settled debts; there is
// no stored counter to drift out of sync.
type Customer struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	TotalDebt decimal.Decimal `json:"total_debt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Role gates admin-only operations (purchases, reports, user management).
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// User is a store operator account.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Sale is a finished transaction together with the line items it owns.
// TotalAmount is always the rounded sum of item subtotals; it is recomputed
// inside the same transaction as any item insert or delete.
type Sale struct {
	ID           int             `json:"id"`
	CustomerID   *int            `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	CashierID    int             `json:"cashier_id"`
	PaymentType  PaymentType     `json:"payment_type"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []SaleItem      `json:"items"`

	// Warnings carries per-line notices from sale creation (unknown barcodes
	// that were skipped). Not persisted.
	Warnings []string `json:"warnings,omitempty"`
}

// Change is the amount handed back to the customer on a cash/card sale.
func (s *Sale) Change() decimal.Decimal {
	if s.PaymentType == PaymentCredit {
		return decimal.Zero
	}
	c := s.PaidAmount.Sub(s.TotalAmount)
	if c.IsNegative() {
		return decimal.Zero
	}
	return c
}

// SaleItem is one sale line. Price is a snapshot of the product's sell price
// at sale time; later catalog changes never alter past sales.
type SaleItem struct {
	ID          int             `json:"id"`
	SaleID      int             `json:"sale_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// DebtStatus is derived purely from paid_amount vs amount; see DebtStatusFor.
type DebtStatus string

const (
	DebtUnpaid  DebtStatus = "UNPAID"
	DebtPartial DebtStatus = "PARTIAL"
	DebtPaid    DebtStatus = "PAID"
)

// DebtStatusFor derives the status of a debt from its amounts:
//
//	paid == 0          → UNPAID
//	0 < paid < amount  → PARTIAL
//	paid >= amount     → PAID
//
// The function is pure and idempotent; it is the single rule used everywhere
// a debt status is written.
func DebtStatusFor(amount, paid decimal.Decimal) DebtStatus {
	switch {
	case !paid.IsPositive():
		return DebtUnpaid
	case paid.LessThan(amount):
		return DebtPartial
	default:
		return DebtPaid
	}
}

// Debt tracks an amount owed by a customer, issued on a credit sale with a
// shortfall. Amount is the sale total; PaidAmount starts at whatever was paid
// on the sale itself.
type Debt struct {
	ID           int             `json:"id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Status       DebtStatus      `json:"status"`
	CreatedBy    int             `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Remaining is the outstanding balance, floored at zero.
func (d *Debt) Remaining() decimal.Decimal {
	r := d.Amount.Sub(d.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// CanPay reports whether the debt accepts further payments.
func (d *Debt) CanPay() bool {
	return d.Status == DebtUnpaid || d.Status == DebtPartial
}

// PurchaseStatus is the supplier purchase lifecycle. Only a pending purchase
// may transition.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseCompleted PurchaseStatus = "COMPLETED"
	PurchaseCancelled PurchaseStatus = "CANCELLED"
)

// Purchase is a supplier order together with the line items it owns.
// Stock increases at item creation; completing or cancelling a purchase
// never moves stock again.
type Purchase struct {
	ID          int             `json:"id"`
	Status      PurchaseStatus  `json:"status"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	PurchasedAt time.Time       `json:"purchased_at"`
	Items       []PurchaseItem  `json:"items"`
}

// PurchaseItem is one supplier purchase line.
type PurchaseItem struct {
	ID          int             `json:"id"`
	PurchaseID  int             `json:"purchase_id"`
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPrice   decimal.Decimal `json:"cost_price"`
}

// LineTotal is quantity × cost price at currency precision.
func (pi *PurchaseItem) LineTotal() decimal.Decimal {
	return RoundAmount(pi.Quantity.Mul(pi.CostPrice))
}
