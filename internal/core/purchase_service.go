package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// defaultMarkup prices auto-created purchase products: sell = cost × 1.2.
var defaultMarkup = decimal.NewFromFloat(1.2)

// PurchaseItemInput is one supplier delivery line. The product is resolved by
// barcode first, then by exact name; when neither matches, a new catalog entry
// is created from the line itself.
type PurchaseItemInput struct {
	Barcode   string
	Name      string
	Quantity  decimal.Decimal
	CostPrice decimal.Decimal
}

// PurchaseService manages supplier purchases. Stock moves when an item is
// recorded, not when the purchase completes: goods are on the shelf as soon as
// they are received, and the lifecycle transitions only settle paperwork.
type PurchaseService interface {
	CreatePurchase(ctx context.Context) (*Purchase, error)
	AddPurchaseItem(ctx context.Context, purchaseID int, input PurchaseItemInput) (*Purchase, error)
	CompletePurchase(ctx context.Context, purchaseID int) (*Purchase, error)
	CancelPurchase(ctx context.Context, purchaseID int) (*Purchase, error)
	GetPurchase(ctx context.Context, purchaseID int) (*Purchase, error)
	ListPurchases(ctx context.Context, status PurchaseStatus) ([]Purchase, error)
}

type purchaseService struct {
	pool     *pgxpool.Pool
	products ProductService
}

// NewPurchaseService constructs a PurchaseService. Stock increments go through
// the products ledger.
func NewPurchaseService(pool *pgxpool.Pool, products ProductService) PurchaseService {
	return &purchaseService{pool: pool, products: products}
}

// CreatePurchase opens an empty pending purchase.
func (s *purchaseService) CreatePurchase(ctx context.Context) (*Purchase, error) {
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO purchases (status, total_price) VALUES ($1, 0) RETURNING id
	`, PurchasePending).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	return s.GetPurchase(ctx, id)
}

// AddPurchaseItem records one received line on a pending purchase: resolve or
// create the product, increment its stock under the ledger lock, insert the
// line, and recompute the purchase total — all in one transaction.
func (s *purchaseService) AddPurchaseItem(ctx context.Context, purchaseID int, input PurchaseItemInput) (*Purchase, error) {
	if !input.Quantity.IsPositive() {
		return nil, validationf("purchase quantity must be greater than zero")
	}
	if !input.CostPrice.IsPositive() {
		return nil, validationf("purchase cost price must be greater than zero")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin add purchase item: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPendingPurchase(ctx, tx, purchaseID); err != nil {
		return nil, err
	}

	productID, err := s.resolveOrCreateProductTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.IncreaseStockTx(ctx, tx, productID, input.Quantity); err != nil {
		return nil, err
	}

	cost := RoundAmount(input.CostPrice)
	if _, err := tx.Exec(ctx, `
		INSERT INTO purchase_items (purchase_id, product_id, quantity, cost_price)
		VALUES ($1, $2, $3, $4)
	`, purchaseID, productID, input.Quantity, cost); err != nil {
		return nil, fmt.Errorf("insert purchase item: %w", err)
	}

	if err := recalcPurchaseTotalTx(ctx, tx, purchaseID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit add purchase item: %w", err)
	}
	return s.GetPurchase(ctx, purchaseID)
}

// resolveOrCreateProductTx finds the product for a purchase line: by barcode
// when given, else by exact name. An unknown product is created on the spot
// with the line's cost price, a 20% markup sell price, and zero stock (the
// ledger increment follows immediately after).
func (s *purchaseService) resolveOrCreateProductTx(ctx context.Context, tx pgx.Tx, input PurchaseItemInput) (int, error) {
	barcode := strings.TrimSpace(input.Barcode)
	name := strings.TrimSpace(input.Name)

	var id int
	var err error
	switch {
	case barcode != "":
		err = tx.QueryRow(ctx, "SELECT id FROM products WHERE barcode = $1", barcode).Scan(&id)
	case name != "":
		err = tx.QueryRow(ctx, "SELECT id FROM products WHERE name = $1", name).Scan(&id)
	default:
		return 0, validationf("purchase item needs a barcode or a product name")
	}
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("resolve purchase product: %w", err)
	}

	if name == "" {
		return 0, validationf("cannot create product for unknown barcode %s without a name", barcode)
	}
	if barcode == "" {
		barcode = name
	}

	cost := RoundAmount(input.CostPrice)
	sell := RoundAmount(cost.Mul(defaultMarkup))
	err = tx.QueryRow(ctx, `
		INSERT INTO products (name, barcode, cost_price, sell_price, unit, stock)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id
	`, name, barcode, cost, sell, UnitPiece).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product %q: %w", name, err)
	}
	return id, nil
}

// CompletePurchase marks a pending purchase completed, recomputing the total
// one last time. Stock already moved when the items were recorded.
func (s *purchaseService) CompletePurchase(ctx context.Context, purchaseID int) (*Purchase, error) {
	return s.transition(ctx, purchaseID, PurchaseCompleted)
}

// CancelPurchase marks a pending purchase cancelled. Stock is not reverted;
// received goods stay on the shelf and discrepancies are handled as manual
// adjustments.
func (s *purchaseService) CancelPurchase(ctx context.Context, purchaseID int) (*Purchase, error) {
	return s.transition(ctx, purchaseID, PurchaseCancelled)
}

func (s *purchaseService) transition(ctx context.Context, purchaseID int, to PurchaseStatus) (*Purchase, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase transition: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPendingPurchase(ctx, tx, purchaseID); err != nil {
		return nil, err
	}

	if to == PurchaseCompleted {
		if err := recalcPurchaseTotalTx(ctx, tx, purchaseID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchases SET status = $1 WHERE id = $2", to, purchaseID,
	); err != nil {
		return nil, fmt.Errorf("write purchase %d status: %w", purchaseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase transition: %w", err)
	}
	return s.GetPurchase(ctx, purchaseID)
}

// lockPendingPurchase locks the purchase row and rejects any purchase that has
// left PENDING. Completed and cancelled purchases are immutable.
func lockPendingPurchase(ctx context.Context, tx pgx.Tx, purchaseID int) error {
	var status PurchaseStatus
	err := tx.QueryRow(ctx,
		"SELECT status FROM purchases WHERE id = $1 FOR UPDATE", purchaseID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("purchase", purchaseID)
		}
		return fmt.Errorf("lock purchase %d: %w", purchaseID, err)
	}
	if status != PurchasePending {
		return conflictf("purchase %d is %s and can no longer change", purchaseID, status)
	}
	return nil
}

func recalcPurchaseTotalTx(ctx context.Context, tx pgx.Tx, purchaseID int) error {
	_, err := tx.Exec(ctx, `
		UPDATE purchases
		SET total_price = (
			SELECT COALESCE(SUM(ROUND(quantity * cost_price, 2)), 0)
			FROM purchase_items WHERE purchase_id = $1
		)
		WHERE id = $1
	`, purchaseID)
	if err != nil {
		return fmt.Errorf("recalculate purchase %d total: %w", purchaseID, err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *purchaseService) GetPurchase(ctx context.Context, purchaseID int) (*Purchase, error) {
	var p Purchase
	err := s.pool.QueryRow(ctx, `
		SELECT id, status, total_price, purchased_at FROM purchases WHERE id = $1
	`, purchaseID).Scan(&p.ID, &p.Status, &p.TotalPrice, &p.PurchasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("purchase", purchaseID)
		}
		return nil, fmt.Errorf("fetch purchase %d: %w", purchaseID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT pi.id, pi.purchase_id, pi.product_id, p.name, pi.quantity, pi.cost_price
		FROM purchase_items pi
		JOIN products p ON p.id = pi.product_id
		WHERE pi.purchase_id = $1
		ORDER BY pi.id
	`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("query purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.ProductName, &it.Quantity, &it.CostPrice); err != nil {
			return nil, fmt.Errorf("scan purchase item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, status PurchaseStatus) ([]Purchase, error) {
	query := "SELECT id, status, total_price, purchased_at FROM purchases"
	var args []any
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY purchased_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.Status, &p.TotalPrice, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
