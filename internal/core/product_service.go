package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductService owns the catalog and is the stock ledger: the one place
// allowed to mutate Product.Stock. Every mutation locks the product row for
// the duration of the read-check-write, so two concurrent sales of the last
// unit serialize and exactly one succeeds.
type ProductService interface {
	CreateProduct(ctx context.Context, name, barcode string, costPrice, sellPrice decimal.Decimal, unit Unit, initialStock decimal.Decimal) (*Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)

	// Standalone ledger operations (manage their own transaction).
	DecreaseStock(ctx context.Context, productID int, qty decimal.Decimal) (decimal.Decimal, error)
	IncreaseStock(ctx context.Context, productID int, qty decimal.Decimal) (decimal.Decimal, error)

	// TX-scoped ledger operations: used by SaleService and PurchaseService to
	// keep stock movements atomic with the rows that caused them.
	DecreaseStockTx(ctx context.Context, tx pgx.Tx, productID int, qty decimal.Decimal) (decimal.Decimal, error)
	IncreaseStockTx(ctx context.Context, tx pgx.Tx, productID int, qty decimal.Decimal) (decimal.Decimal, error)
}

type productService struct {
	pool *pgxpool.Pool
}

// NewProductService constructs a ProductService backed by PostgreSQL.
func NewProductService(pool *pgxpool.Pool) ProductService {
	return &productService{pool: pool}
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers across pooled and transactional call sites.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const productColumns = "id, name, barcode, cost_price, sell_price, unit, stock, created_at"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Barcode, &p.CostPrice, &p.SellPrice, &p.Unit, &p.Stock, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *productService) CreateProduct(ctx context.Context, name, barcode string, costPrice, sellPrice decimal.Decimal, unit Unit, initialStock decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, validationf("product name is required")
	}
	if barcode == "" {
		return nil, validationf("product barcode is required")
	}
	if !unit.Valid() {
		return nil, validationf("unknown unit %q", unit)
	}
	if costPrice.IsNegative() || sellPrice.IsNegative() {
		return nil, validationf("prices cannot be negative")
	}
	if initialStock.IsNegative() {
		return nil, validationf("initial stock cannot be negative")
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (name, barcode, cost_price, sell_price, unit, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		name, barcode, RoundAmount(costPrice), RoundAmount(sellPrice), unit, RoundAmount(initialStock),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, conflictf("barcode %s is already in use", barcode)
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (s *productService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product", productID)
		}
		return nil, fmt.Errorf("fetch product %d: %w", productID, err)
	}
	return p, nil
}

func (s *productService) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE barcode = $1", barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product", barcode)
		}
		return nil, fmt.Errorf("fetch product by barcode %s: %w", barcode, err)
	}
	return p, nil
}

func (s *productService) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Barcode, &p.CostPrice, &p.SellPrice, &p.Unit, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ── Stock ledger ─────────────────────────────────────────────────────────────

func (s *productService) DecreaseStock(ctx context.Context, productID int, qty decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustStock(ctx, productID, qty, true)
}

func (s *productService) IncreaseStock(ctx context.Context, productID int, qty decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustStock(ctx, productID, qty, false)
}

func (s *productService) adjustStock(ctx context.Context, productID int, qty decimal.Decimal, decrease bool) (decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin stock adjustment: %w", err)
	}
	defer tx.Rollback(ctx)

	var newStock decimal.Decimal
	if decrease {
		newStock, err = s.DecreaseStockTx(ctx, tx, productID, qty)
	} else {
		newStock, err = s.IncreaseStockTx(ctx, tx, productID, qty)
	}
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit stock adjustment: %w", err)
	}
	return newStock, nil
}

// DecreaseStockTx re-reads current stock under an exclusive row lock, fails
// with InsufficientStockError when stock < qty, and writes the decremented
// value. The check and the write are atomic with respect to every other
// ledger call on the same product.
func (s *productService) DecreaseStockTx(ctx context.Context, tx pgx.Tx, productID int, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, validationf("stock decrement must be positive, got %s", qty)
	}

	name, stock, err := lockProductRow(ctx, tx, productID)
	if err != nil {
		return decimal.Zero, err
	}

	if stock.LessThan(qty) {
		return decimal.Zero, &InsufficientStockError{Product: name, Available: stock, Requested: qty}
	}

	newStock := RoundAmount(stock.Sub(qty))
	if _, err := tx.Exec(ctx, "UPDATE products SET stock = $1 WHERE id = $2", newStock, productID); err != nil {
		return decimal.Zero, fmt.Errorf("write stock for product %d: %w", productID, err)
	}
	return newStock, nil
}

// IncreaseStockTx is the symmetric increment under the same lock discipline.
// There is no upper bound check.
func (s *productService) IncreaseStockTx(ctx context.Context, tx pgx.Tx, productID int, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, validationf("stock increment must be positive, got %s", qty)
	}

	_, stock, err := lockProductRow(ctx, tx, productID)
	if err != nil {
		return decimal.Zero, err
	}

	newStock := RoundAmount(stock.Add(qty))
	if _, err := tx.Exec(ctx, "UPDATE products SET stock = $1 WHERE id = $2", newStock, productID); err != nil {
		return decimal.Zero, fmt.Errorf("write stock for product %d: %w", productID, err)
	}
	return newStock, nil
}

func lockProductRow(ctx context.Context, tx pgx.Tx, productID int) (string, decimal.Decimal, error) {
	var name string
	var stock decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT name, stock FROM products WHERE id = $1 FOR UPDATE", productID,
	).Scan(&name, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", decimal.Zero, notFound("product", productID)
		}
		return "", decimal.Zero, fmt.Errorf("lock product %d: %w", productID, err)
	}
	return name, stock, nil
}
