package app

import (
	"context"

	"retail-pos/internal/core"

	"github.com/shopspring/decimal"
)

type appService struct {
	products  core.ProductService
	customers core.CustomerService
	sales     core.SaleService
	debts     core.DebtService
	purchases core.PurchaseService
	reports   core.ReportService
	users     core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	products core.ProductService,
	customers core.CustomerService,
	sales core.SaleService,
	debts core.DebtService,
	purchases core.PurchaseService,
	reports core.ReportService,
	users core.UserService,
) ApplicationService {
	return &appService{
		products:  products,
		customers: customers,
		sales:     sales,
		debts:     debts,
		purchases: purchases,
		reports:   reports,
		users:     users,
	}
}

// ── Sales ────────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, req CreateSaleRequest) (*core.Sale, error) {
	lines := make([]core.CartLine, 0, len(req.Cart))
	for _, item := range req.Cart {
		qty, err := core.ParsePositiveQuantity(item.Quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, core.CartLine{
			Barcode:  item.Barcode,
			Name:     item.Name,
			Quantity: qty,
			Price:    core.ToAmount(item.Price),
		})
	}

	return s.sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     req.CashierID,
		PaymentType:   core.PaymentType(req.PaymentType),
		PaidAmount:    core.ToAmount(req.PaidAmount),
		DeclaredTotal: core.ToAmount(req.TotalAmount),
		CustomerName:  req.CustomerName,
		Lines:         lines,
	})
}

func (s *appService) GetSale(ctx context.Context, saleID int) (*core.Sale, error) {
	return s.sales.GetSale(ctx, saleID)
}

func (s *appService) ListSales(ctx context.Context, date string) ([]core.Sale, error) {
	return s.sales.ListSales(ctx, date)
}

func (s *appService) AddSaleItem(ctx context.Context, saleID int, barcode, quantity string) (*core.Sale, error) {
	qty, err := core.ParsePositiveQuantity(quantity)
	if err != nil {
		return nil, err
	}
	return s.sales.AddSaleItem(ctx, saleID, barcode, qty)
}

func (s *appService) RemoveSaleItem(ctx context.Context, saleID, itemID int) (*core.Sale, error) {
	return s.sales.RemoveSaleItem(ctx, saleID, itemID)
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	cost, err := core.ParsePositiveAmount(req.CostPrice)
	if err != nil {
		return nil, err
	}
	sell, err := core.ParsePositiveAmount(req.SellPrice)
	if err != nil {
		return nil, err
	}
	return s.products.CreateProduct(ctx, req.Name, req.Barcode, cost, sell,
		core.Unit(req.Unit), core.ToAmount(req.Stock))
}

func (s *appService) GetProductByBarcode(ctx context.Context, barcode string) (*core.Product, error) {
	return s.products.GetProductByBarcode(ctx, barcode)
}

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.products.ListProducts(ctx)
}

func (s *appService) AdjustStock(ctx context.Context, productID int, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsNegative() {
		return s.products.DecreaseStock(ctx, productID, delta.Neg())
	}
	return s.products.IncreaseStock(ctx, productID, delta)
}

// ── Customers & debts ────────────────────────────────────────────────────────

func (s *appService) GetCustomer(ctx context.Context, customerID int) (*core.Customer, error) {
	return s.customers.GetCustomer(ctx, customerID)
}

func (s *appService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return s.customers.ListCustomers(ctx)
}

func (s *appService) ListCustomerDebts(ctx context.Context, customerID int) ([]core.Debt, error) {
	return s.debts.ListCustomerDebts(ctx, customerID)
}

func (s *appService) ListOpenDebts(ctx context.Context) ([]core.Debt, error) {
	return s.debts.ListOpenDebts(ctx)
}

func (s *appService) PayDebt(ctx context.Context, debtID int, amount string) (*core.Debt, error) {
	amt, err := core.ParsePositiveAmount(amount)
	if err != nil {
		return nil, err
	}
	return s.debts.PayDebt(ctx, debtID, amt)
}

// ── Purchases ────────────────────────────────────────────────────────────────

func (s *appService) CreatePurchase(ctx context.Context) (*core.Purchase, error) {
	return s.purchases.CreatePurchase(ctx)
}

func (s *appService) AddPurchaseItem(ctx context.Context, purchaseID int, req PurchaseItemRequest) (*core.Purchase, error) {
	qty, err := core.ParsePositiveQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	cost, err := core.ParsePositiveAmount(req.CostPrice)
	if err != nil {
		return nil, err
	}
	return s.purchases.AddPurchaseItem(ctx, purchaseID, core.PurchaseItemInput{
		Barcode:   req.Barcode,
		Name:      req.Name,
		Quantity:  qty,
		CostPrice: cost,
	})
}

func (s *appService) CompletePurchase(ctx context.Context, purchaseID int) (*core.Purchase, error) {
	return s.purchases.CompletePurchase(ctx, purchaseID)
}

func (s *appService) CancelPurchase(ctx context.Context, purchaseID int) (*core.Purchase, error) {
	return s.purchases.CancelPurchase(ctx, purchaseID)
}

func (s *appService) GetPurchase(ctx context.Context, purchaseID int) (*core.Purchase, error) {
	return s.purchases.GetPurchase(ctx, purchaseID)
}

func (s *appService) ListPurchases(ctx context.Context, status string) ([]core.Purchase, error) {
	return s.purchases.ListPurchases(ctx, core.PurchaseStatus(status))
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *appService) DailySummary(ctx context.Context, date string) (*core.DailySummary, error) {
	return s.reports.DailySummary(ctx, date)
}

func (s *appService) LowStockProducts(ctx context.Context) ([]core.Product, error) {
	return s.reports.LowStockProducts(ctx)
}

func (s *appService) Debtors(ctx context.Context) ([]core.Debtor, error) {
	return s.reports.Debtors(ctx)
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*core.User, error) {
	return s.users.Authenticate(ctx, username, password)
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *appService) CreateUser(ctx context.Context, username, password string, role core.Role) (*core.User, error) {
	return s.users.CreateUser(ctx, username, password, role)
}

func (s *appService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *appService) SetUserActive(ctx context.Context, userID int, active bool) error {
	return s.users.SetActive(ctx, userID, active)
}
