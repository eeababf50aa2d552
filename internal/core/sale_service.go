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

// CartLine is one scanned line on the terminal. Price may be zero, in which
// case the product's current sell price is used. Name is only used for
// warning messages when the barcode is unknown.
type CartLine struct {
	Barcode  string
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// CreateSaleInput is the full cashier submission for one sale.
type CreateSaleInput struct {
	CashierID     int
	PaymentType   PaymentType
	PaidAmount    decimal.Decimal
	DeclaredTotal decimal.Decimal // total shown on the terminal, sanity-checked only
	CustomerName  string          // required for credit sales
	Lines         []CartLine
}

// SaleService owns the sale aggregate and the sale-creation workflow. Every
// operation that touches line items runs in one database transaction together
// with its stock movements and total recomputation, so a failure midway
// leaves no partial state.
type SaleService interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error)
	AddSaleItem(ctx context.Context, saleID int, barcode string, qty decimal.Decimal) (*Sale, error)
	RemoveSaleItem(ctx context.Context, saleID, itemID int) (*Sale, error)
	GetSale(ctx context.Context, saleID int) (*Sale, error)
	ListSales(ctx context.Context, date string) ([]Sale, error)
}

type saleService struct {
	pool      *pgxpool.Pool
	products  ProductService
	customers CustomerService
}

// NewSaleService constructs a SaleService. Stock movements go through the
// products ledger; credit customers are resolved through customers.
func NewSaleService(pool *pgxpool.Pool, products ProductService, customers CustomerService) SaleService {
	return &saleService{pool: pool, products: products, customers: customers}
}

// CreateSale runs the whole checkout as one transaction:
// validate the cart, resolve the credit customer, insert the sale, insert the
// line items (each decrementing stock under a row lock), reconcile payment
// against the computed total, and record a debt on a credit shortfall.
// Unknown barcodes are skipped with a warning; every other failure rolls the
// entire transaction back, stock decrements included.
func (s *saleService) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if len(input.Lines) == 0 {
		return nil, validationf("cart is empty")
	}
	if !input.DeclaredTotal.IsPositive() {
		return nil, validationf("sale total must be greater than zero")
	}
	if !input.PaymentType.Valid() {
		return nil, validationf("unknown payment type %q", input.PaymentType)
	}
	if input.PaidAmount.IsNegative() {
		return nil, validationf("paid amount cannot be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin sale: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID *int
	if input.PaymentType == PaymentCredit {
		customer, err := s.customers.GetOrCreateByNameTx(ctx, tx, input.CustomerName)
		if err != nil {
			return nil, err
		}
		customerID = &customer.ID
	}

	paid := RoundAmount(input.PaidAmount)

	var saleID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (customer_id, cashier_id, payment_type, total_amount, paid_amount)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING id
	`, customerID, input.CashierID, input.PaymentType, paid).Scan(&saleID)
	if err != nil {
		return nil, fmt.Errorf("insert sale: %w", err)
	}

	var warnings []string
	var total decimal.Decimal
	sold := 0

	for i, line := range input.Lines {
		var productID int
		var productName string
		var sellPrice decimal.Decimal
		err := tx.QueryRow(ctx,
			"SELECT id, name, sell_price FROM products WHERE barcode = $1", line.Barcode,
		).Scan(&productID, &productName, &sellPrice)
		if errors.Is(err, pgx.ErrNoRows) {
			label := line.Name
			if label == "" {
				label = line.Barcode
			}
			warnings = append(warnings, fmt.Sprintf("%s not found, line skipped", label))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: resolve product %s: %w", i+1, line.Barcode, err)
		}

		price := sellPrice
		if line.Price.IsPositive() {
			price = RoundAmount(line.Price)
		}

		if _, err := s.products.DecreaseStockTx(ctx, tx, productID, line.Quantity); err != nil {
			return nil, err
		}

		subtotal := RoundAmount(line.Quantity.Mul(price))
		if _, err := tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, saleID, productID, line.Quantity, price, subtotal); err != nil {
			return nil, fmt.Errorf("line %d: insert sale item: %w", i+1, err)
		}

		total = total.Add(subtotal)
		sold++
	}

	if sold == 0 {
		return nil, validationf("no cart line matched a known product")
	}

	total = RoundAmount(total)
	if _, err := tx.Exec(ctx,
		"UPDATE sales SET total_amount = $1 WHERE id = $2", total, saleID,
	); err != nil {
		return nil, fmt.Errorf("write sale total: %w", err)
	}

	switch input.PaymentType {
	case PaymentCash, PaymentCard:
		if paid.LessThan(total) {
			return nil, validationf("paid amount %s is less than sale total %s",
				paid.StringFixed(2), total.StringFixed(2))
		}
	case PaymentCredit:
		if paid.LessThan(total) {
			status := DebtStatusFor(total, paid)
			if _, err := tx.Exec(ctx, `
				INSERT INTO debts (customer_id, amount, paid_amount, status, created_by)
				VALUES ($1, $2, $3, $4, $5)
			`, *customerID, total, paid, status, input.CashierID); err != nil {
				return nil, fmt.Errorf("record debt: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}

	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Warnings = warnings
	return sale, nil
}

// AddSaleItem appends a line to an existing sale, decrementing stock and
// recomputing the total in the same transaction. The price is snapshotted
// from the product's current sell price.
func (s *saleService) AddSaleItem(ctx context.Context, saleID int, barcode string, qty decimal.Decimal) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin add item: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSaleRow(ctx, tx, saleID); err != nil {
		return nil, err
	}

	var productID int
	var sellPrice decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT id, sell_price FROM products WHERE barcode = $1", barcode,
	).Scan(&productID, &sellPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("product", barcode)
		}
		return nil, fmt.Errorf("resolve product %s: %w", barcode, err)
	}

	if _, err := s.products.DecreaseStockTx(ctx, tx, productID, qty); err != nil {
		return nil, err
	}

	subtotal := RoundAmount(qty.Mul(sellPrice))
	if _, err := tx.Exec(ctx, `
		INSERT INTO sale_items (sale_id, product_id, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
	`, saleID, productID, qty, sellPrice, subtotal); err != nil {
		return nil, fmt.Errorf("insert sale item: %w", err)
	}

	if err := recalcSaleTotalTx(ctx, tx, saleID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit add item: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

// RemoveSaleItem deletes a line, restores the decremented stock, and
// recomputes the total — all in one transaction. Skipping the stock
// restoration would be an invariant violation, so the delete and the
// increment are never split.
func (s *saleService) RemoveSaleItem(ctx context.Context, saleID, itemID int) (*Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin remove item: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockSaleRow(ctx, tx, saleID); err != nil {
		return nil, err
	}

	var productID int
	var qty decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT product_id, quantity FROM sale_items WHERE id = $1 AND sale_id = $2",
		itemID, saleID,
	).Scan(&productID, &qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale item", itemID)
		}
		return nil, fmt.Errorf("fetch sale item %d: %w", itemID, err)
	}

	if _, err := s.products.IncreaseStockTx(ctx, tx, productID, qty); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM sale_items WHERE id = $1", itemID); err != nil {
		return nil, fmt.Errorf("delete sale item %d: %w", itemID, err)
	}

	if err := recalcSaleTotalTx(ctx, tx, saleID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit remove item: %w", err)
	}
	return s.GetSale(ctx, saleID)
}

func lockSaleRow(ctx context.Context, tx pgx.Tx, saleID int) error {
	var id int
	err := tx.QueryRow(ctx, "SELECT id FROM sales WHERE id = $1 FOR UPDATE", saleID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("sale", saleID)
		}
		return fmt.Errorf("lock sale %d: %w", saleID, err)
	}
	return nil
}

// recalcSaleTotalTx rewrites total_amount as the sum of current item
// subtotals. Summing persisted, already-rounded subtotals in SQL makes the
// result independent of iteration order.
func recalcSaleTotalTx(ctx context.Context, tx pgx.Tx, saleID int) error {
	_, err := tx.Exec(ctx, `
		UPDATE sales
		SET total_amount = (
			SELECT COALESCE(SUM(subtotal), 0) FROM sale_items WHERE sale_id = $1
		)
		WHERE id = $1
	`, saleID)
	if err != nil {
		return fmt.Errorf("recalculate sale %d total: %w", saleID, err)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, saleID int) (*Sale, error) {
	var sale Sale
	var customerName *string
	err := s.pool.QueryRow(ctx, `
		SELECT s.id, s.customer_id, c.name, s.cashier_id, s.payment_type,
		       s.total_amount, s.paid_amount, s.created_at
		FROM sales s
		LEFT JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, saleID).Scan(
		&sale.ID, &sale.CustomerID, &customerName, &sale.CashierID, &sale.PaymentType,
		&sale.TotalAmount, &sale.PaidAmount, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("sale", saleID)
		}
		return nil, fmt.Errorf("fetch sale %d: %w", saleID, err)
	}
	if customerName != nil {
		sale.CustomerName = *customerName
	}

	items, err := fetchSaleItems(ctx, s.pool, saleID)
	if err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *saleService) ListSales(ctx context.Context, date string) ([]Sale, error) {
	query := `
		SELECT s.id, s.customer_id, c.name, s.cashier_id, s.payment_type,
		       s.total_amount, s.paid_amount, s.created_at
		FROM sales s
		LEFT JOIN customers c ON c.id = s.customer_id
	`
	var args []any
	if strings.TrimSpace(date) != "" {
		query += " WHERE s.created_at::date = $1"
		args = append(args, date)
	}
	query += " ORDER BY s.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		var customerName *string
		if err := rows.Scan(
			&sale.ID, &sale.CustomerID, &customerName, &sale.CashierID, &sale.PaymentType,
			&sale.TotalAmount, &sale.PaidAmount, &sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if customerName != nil {
			sale.CustomerName = *customerName
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func fetchSaleItems(ctx context.Context, q pgxQuerier, saleID int) ([]SaleItem, error) {
	rows, err := q.Query(ctx, `
		SELECT si.id, si.sale_id, si.product_id, p.name, si.quantity, si.price, si.subtotal
		FROM sale_items si
		JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = $1
		ORDER BY si.id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("query sale items: %w", err)
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
