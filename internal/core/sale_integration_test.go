package core_test

import (
	"context"
	"errors"
	"testing"

	"retail-pos/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupSaleServices(t *testing.T) (*pgxpool.Pool, core.ProductService, core.SaleService, core.CustomerService, core.DebtService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	products := core.NewProductService(pool)
	customers := core.NewCustomerService(pool)
	sales := core.NewSaleService(pool, products, customers)
	debts := core.NewDebtService(pool)
	return pool, products, sales, customers, debts, context.Background()
}

func TestSale_CashExactPayment(t *testing.T) {
	pool, products, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	// 2.5 kg rice @ 2.50 + 3 cola @ 1.00 = 6.25 + 3.00 = 9.25
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("9.25"),
		DeclaredTotal: d("9.25"),
		Lines: []core.CartLine{
			{Barcode: "100", Quantity: d("2.5")},
			{Barcode: "200", Quantity: d("3")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	if !sale.TotalAmount.Equal(d("9.25")) {
		t.Errorf("total = %s, want 9.25", sale.TotalAmount)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sale.Items))
	}
	if !sale.Change().IsZero() {
		t.Errorf("change = %s, want 0", sale.Change())
	}
	if len(sale.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sale.Warnings)
	}

	if got := productStock(t, products, "100"); !got.Equal(d("47.50")) {
		t.Errorf("rice stock = %s, want 47.50", got)
	}
	if got := productStock(t, products, "200"); !got.Equal(d("7")) {
		t.Errorf("cola stock = %s, want 7", got)
	}

	// No debt on a fully paid cash sale.
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM debts").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("debts = %d, want 0", count)
	}
}

func TestSale_CashUnderpaymentRollsBack(t *testing.T) {
	pool, products, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("5.00"),
		DeclaredTotal: d("9.25"),
		Lines: []core.CartLine{
			{Barcode: "100", Quantity: d("2.5")},
			{Barcode: "200", Quantity: d("3")},
		},
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// The whole transaction rolled back: stock untouched, no sale rows.
	if got := productStock(t, products, "100"); !got.Equal(d("50.00")) {
		t.Errorf("rice stock = %s, want 50.00", got)
	}
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("sales = %d, want 0", count)
	}
}

func TestSale_CreditShortfallCreatesDebt(t *testing.T) {
	pool, _, sales, customers, _, ctx := setupSaleServices(t)
	defer pool.Close()

	// 10 kg rice @ 2.50 = 25.00, paid 5.00 on a credit sale.
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCredit,
		PaidAmount:    d("5.00"),
		DeclaredTotal: d("25.00"),
		CustomerName:  "Ali Hassan",
		Lines: []core.CartLine{
			{Barcode: "100", Quantity: d("10")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if sale.CustomerID == nil {
		t.Fatal("credit sale must have a customer")
	}

	var debt core.Debt
	err = pool.QueryRow(ctx,
		"SELECT amount, paid_amount, status FROM debts WHERE customer_id = $1", *sale.CustomerID,
	).Scan(&debt.Amount, &debt.PaidAmount, &debt.Status)
	if err != nil {
		t.Fatalf("expected a debt row: %v", err)
	}
	if !debt.Amount.Equal(d("25.00")) {
		t.Errorf("debt amount = %s, want 25.00", debt.Amount)
	}
	if !debt.PaidAmount.Equal(d("5.00")) {
		t.Errorf("debt paid = %s, want 5.00", debt.PaidAmount)
	}
	if debt.Status != core.DebtPartial {
		t.Errorf("debt status = %s, want PARTIAL", debt.Status)
	}
	if !debt.Remaining().Equal(d("20.00")) {
		t.Errorf("remaining = %s, want 20.00", debt.Remaining())
	}

	customer, err := customers.GetCustomer(ctx, *sale.CustomerID)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if !customer.TotalDebt.Equal(d("20.00")) {
		t.Errorf("customer total debt = %s, want 20.00", customer.TotalDebt)
	}
}

func TestSale_CreditFullyPaidCreatesNoDebt(t *testing.T) {
	pool, _, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCredit,
		PaidAmount:    d("25.00"),
		DeclaredTotal: d("25.00"),
		CustomerName:  "Ali Hassan",
		Lines: []core.CartLine{
			{Barcode: "100", Quantity: d("10")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM debts WHERE customer_id = $1", *sale.CustomerID,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("debts = %d, want 0 when credit sale is fully paid", count)
	}
}

func TestSale_CreditRequiresCustomerName(t *testing.T) {
	pool, _, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCredit,
		PaidAmount:    d("5.00"),
		DeclaredTotal: d("25.00"),
		CustomerName:  "al", // too short
		Lines:         []core.CartLine{{Barcode: "100", Quantity: d("10")}},
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for short customer name, got %v", err)
	}
}

func TestSale_UnknownBarcodeSkippedWithWarning(t *testing.T) {
	pool, products, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("3.00"),
		DeclaredTotal: d("4.00"),
		Lines: []core.CartLine{
			{Barcode: "200", Quantity: d("3")},
			{Barcode: "999", Name: "Mystery Item", Quantity: d("1")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Errorf("items = %d, want 1 (unknown line skipped)", len(sale.Items))
	}
	if !sale.TotalAmount.Equal(d("3.00")) {
		t.Errorf("total = %s, want 3.00", sale.TotalAmount)
	}
	if len(sale.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one entry", sale.Warnings)
	}
	if got := productStock(t, products, "200"); !got.Equal(d("7")) {
		t.Errorf("cola stock = %s, want 7", got)
	}
}

func TestSale_AllLinesUnknownFails(t *testing.T) {
	pool, _, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("5.00"),
		DeclaredTotal: d("5.00"),
		Lines: []core.CartLine{
			{Barcode: "998", Quantity: d("1")},
			{Barcode: "999", Quantity: d("1")},
		},
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError when every line is unknown, got %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("sales = %d, want 0", count)
	}
}

func TestSale_CartPriceOverridesSellPrice(t *testing.T) {
	pool, _, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	// Cola discounted to 0.80 at the terminal.
	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("2.40"),
		DeclaredTotal: d("2.40"),
		Lines: []core.CartLine{
			{Barcode: "200", Quantity: d("3"), Price: d("0.80")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if !sale.Items[0].Price.Equal(d("0.80")) {
		t.Errorf("item price = %s, want 0.80", sale.Items[0].Price)
	}
	if !sale.TotalAmount.Equal(d("2.40")) {
		t.Errorf("total = %s, want 2.40", sale.TotalAmount)
	}
}

func TestSale_AddAndRemoveItem(t *testing.T) {
	pool, products, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	sale, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("20.00"),
		DeclaredTotal: d("2.00"),
		Lines:         []core.CartLine{{Barcode: "200", Quantity: d("2")}},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	sale, err = sales.AddSaleItem(ctx, sale.ID, "100", d("2"))
	if err != nil {
		t.Fatalf("AddSaleItem failed: %v", err)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sale.Items))
	}
	if !sale.TotalAmount.Equal(d("7.00")) { // 2.00 + 2×2.50
		t.Errorf("total after add = %s, want 7.00", sale.TotalAmount)
	}
	if got := productStock(t, products, "100"); !got.Equal(d("48.00")) {
		t.Errorf("rice stock = %s, want 48.00", got)
	}

	var riceItemID int
	for _, it := range sale.Items {
		if it.ProductName == "Rice" {
			riceItemID = it.ID
		}
	}
	sale, err = sales.RemoveSaleItem(ctx, sale.ID, riceItemID)
	if err != nil {
		t.Fatalf("RemoveSaleItem failed: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Errorf("items = %d, want 1", len(sale.Items))
	}
	if !sale.TotalAmount.Equal(d("2.00")) {
		t.Errorf("total after remove = %s, want 2.00", sale.TotalAmount)
	}
	// Stock restored.
	if got := productStock(t, products, "100"); !got.Equal(d("50.00")) {
		t.Errorf("rice stock = %s, want 50.00", got)
	}
}

func TestSale_InsufficientStockRollsBackWholeCart(t *testing.T) {
	pool, products, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("100.00"),
		DeclaredTotal: d("50.00"),
		Lines: []core.CartLine{
			{Barcode: "100", Quantity: d("5")},
			{Barcode: "200", Quantity: d("11")}, // only 10 in stock
		},
	})
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// The rice decrement from the first line must also be rolled back.
	if got := productStock(t, products, "100"); !got.Equal(d("50.00")) {
		t.Errorf("rice stock = %s, want 50.00", got)
	}
}

func TestSale_ListByDate(t *testing.T) {
	pool, _, sales, _, _, ctx := setupSaleServices(t)
	defer pool.Close()

	_, err := sales.CreateSale(ctx, core.CreateSaleInput{
		CashierID:     2,
		PaymentType:   core.PaymentCash,
		PaidAmount:    d("2.00"),
		DeclaredTotal: d("2.00"),
		Lines:         []core.CartLine{{Barcode: "200", Quantity: d("2")}},
	})
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	all, err := sales.ListSales(ctx, "")
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("sales = %d, want 1", len(all))
	}

	none, err := sales.ListSales(ctx, "2000-01-01")
	if err != nil {
		t.Fatalf("ListSales with date failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("sales on 2000-01-01 = %d, want 0", len(none))
	}
}
