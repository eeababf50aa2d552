package core_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"retail-pos/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// setupTestDB connects to the dedicated test database, truncates everything,
// and seeds two operators and a small catalog. Set TEST_DATABASE_URL to run
// the integration tests; the schema from migrations/schema.sql must already
// be applied.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE purchase_items, purchases, debts, sale_items, sales, customers, products, users RESTART IDENTITY CASCADE;

		INSERT INTO users (username, password_hash, role) VALUES
		('admin',   'x', 'admin'),
		('cashier', 'x', 'cashier');

		INSERT INTO products (name, barcode, cost_price, sell_price, unit, stock) VALUES
		('Rice',   '100', 1.80, 2.50, 'kg',    50.00),
		('Cola',   '200', 0.60, 1.00, 'piece', 10),
		('Candle', '300', 1.00, 2.50, 'piece', 1);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func productStock(t *testing.T, svc core.ProductService, barcode string) decimal.Decimal {
	t.Helper()
	p, err := svc.GetProductByBarcode(context.Background(), barcode)
	if err != nil {
		t.Fatalf("GetProductByBarcode(%s) failed: %v", barcode, err)
	}
	return p.Stock
}

func TestStock_DecreaseAndIncrease(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewProductService(pool)

	rice, err := svc.GetProductByBarcode(ctx, "100")
	if err != nil {
		t.Fatalf("GetProductByBarcode failed: %v", err)
	}

	newStock, err := svc.DecreaseStock(ctx, rice.ID, d("2.50"))
	if err != nil {
		t.Fatalf("DecreaseStock failed: %v", err)
	}
	if !newStock.Equal(d("47.50")) {
		t.Errorf("stock after decrease = %s, want 47.50", newStock)
	}

	newStock, err = svc.IncreaseStock(ctx, rice.ID, d("10"))
	if err != nil {
		t.Fatalf("IncreaseStock failed: %v", err)
	}
	if !newStock.Equal(d("57.50")) {
		t.Errorf("stock after increase = %s, want 57.50", newStock)
	}
}

func TestStock_InsufficientLeavesStockUntouched(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewProductService(pool)

	cola, err := svc.GetProductByBarcode(ctx, "200")
	if err != nil {
		t.Fatalf("GetProductByBarcode failed: %v", err)
	}

	_, err = svc.DecreaseStock(ctx, cola.ID, d("11"))
	var stockErr *core.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !stockErr.Available.Equal(d("10")) || !stockErr.Requested.Equal(d("11")) {
		t.Errorf("error amounts = available %s requested %s", stockErr.Available, stockErr.Requested)
	}

	if got := productStock(t, svc, "200"); !got.Equal(d("10")) {
		t.Errorf("stock after failed decrease = %s, want 10", got)
	}
}

func TestStock_RejectsNonPositiveQuantity(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewProductService(pool)

	var vErr *core.ValidationError
	if _, err := svc.DecreaseStock(ctx, 1, d("0")); !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for zero decrement, got %v", err)
	}
	if _, err := svc.IncreaseStock(ctx, 1, d("-3")); !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for negative increment, got %v", err)
	}
}

// Two concurrent decrements race for the last candle: exactly one must win
// and the loser must see an insufficient stock error, never negative stock.
func TestStock_ConcurrentLastUnit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewProductService(pool)

	candle, err := svc.GetProductByBarcode(ctx, "300")
	if err != nil {
		t.Fatalf("GetProductByBarcode failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.DecreaseStock(ctx, candle.ID, d("1"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var stockErr *core.InsufficientStockError
			if !errors.As(err, &stockErr) {
				t.Fatalf("unexpected error: %v", err)
			}
			losses++
		}
	}
	if wins != 1 || losses != 1 {
		t.Errorf("wins = %d, losses = %d; want exactly one of each", wins, losses)
	}
	if got := productStock(t, svc, "300"); !got.IsZero() {
		t.Errorf("stock after race = %s, want 0", got)
	}
}

func TestProduct_CreateRejectsDuplicateBarcode(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewProductService(pool)

	_, err := svc.CreateProduct(ctx, "Other Rice", "100", d("1.00"), d("2.00"), core.UnitKg, d("0"))
	var conflictErr *core.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Errorf("expected ConflictError for duplicate barcode, got %v", err)
	}
}
