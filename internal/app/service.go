package app

import (
	"context"

	"retail-pos/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface the web adapter calls. It
// decouples presentation from business logic; implementations contain no
// display logic of any kind.
type ApplicationService interface {
	// CreateSale runs the full checkout: resolves products, decrements stock,
	// reconciles payment and records a debt on a credit shortfall.
	CreateSale(ctx context.Context, req CreateSaleRequest) (*core.Sale, error)

	// GetSale returns a sale with its line items.
	GetSale(ctx context.Context, saleID int) (*core.Sale, error)

	// ListSales returns sales, optionally for one calendar date (YYYY-MM-DD).
	ListSales(ctx context.Context, date string) ([]core.Sale, error)

	// AddSaleItem appends a line to an existing sale by barcode.
	AddSaleItem(ctx context.Context, saleID int, barcode, quantity string) (*core.Sale, error)

	// RemoveSaleItem deletes a line and restores its stock.
	RemoveSaleItem(ctx context.Context, saleID, itemID int) (*core.Sale, error)

	// CreateProduct adds a catalog entry.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)

	// GetProductByBarcode looks up a catalog entry for the scanner.
	GetProductByBarcode(ctx context.Context, barcode string) (*core.Product, error)

	// ListProducts returns the full catalog.
	ListProducts(ctx context.Context) ([]core.Product, error)

	// AdjustStock applies a manual stock correction; negative delta decreases.
	AdjustStock(ctx context.Context, productID int, delta decimal.Decimal) (decimal.Decimal, error)

	// GetCustomer returns a customer with their derived outstanding balance.
	GetCustomer(ctx context.Context, customerID int) (*core.Customer, error)

	// ListCustomers returns all credit customers.
	ListCustomers(ctx context.Context) ([]core.Customer, error)

	// ListCustomerDebts returns a customer's debts, newest first.
	ListCustomerDebts(ctx context.Context, customerID int) ([]core.Debt, error)

	// ListOpenDebts returns every unsettled debt, oldest first.
	ListOpenDebts(ctx context.Context) ([]core.Debt, error)

	// PayDebt applies a payment to an open debt.
	PayDebt(ctx context.Context, debtID int, amount string) (*core.Debt, error)

	// CreatePurchase opens an empty pending supplier purchase.
	CreatePurchase(ctx context.Context) (*core.Purchase, error)

	// AddPurchaseItem records a received line, creating the product if needed.
	AddPurchaseItem(ctx context.Context, purchaseID int, req PurchaseItemRequest) (*core.Purchase, error)

	// CompletePurchase finalizes a pending purchase.
	CompletePurchase(ctx context.Context, purchaseID int) (*core.Purchase, error)

	// CancelPurchase voids a pending purchase without moving stock.
	CancelPurchase(ctx context.Context, purchaseID int) (*core.Purchase, error)

	// GetPurchase returns a purchase with its line items.
	GetPurchase(ctx context.Context, purchaseID int) (*core.Purchase, error)

	// ListPurchases returns purchases, optionally filtered by status.
	ListPurchases(ctx context.Context, status string) ([]core.Purchase, error)

	// DailySummary returns one day's sales totals split by payment type.
	DailySummary(ctx context.Context, date string) (*core.DailySummary, error)

	// LowStockProducts lists products at or below their restock threshold.
	LowStockProducts(ctx context.Context) ([]core.Product, error)

	// Debtors lists customers with outstanding balances, largest first.
	Debtors(ctx context.Context) ([]core.Debtor, error)

	// AuthenticateUser verifies credentials for login.
	AuthenticateUser(ctx context.Context, username, password string) (*core.User, error)

	// GetUser returns an operator account by ID.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// CreateUser registers a new operator account.
	CreateUser(ctx context.Context, username, password string, role core.Role) (*core.User, error)

	// ListUsers returns all operator accounts.
	ListUsers(ctx context.Context) ([]core.User, error)

	// SetUserActive enables or disables an account.
	SetUserActive(ctx context.Context, userID int, active bool) error
}
