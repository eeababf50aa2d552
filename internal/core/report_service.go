package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DailySummary aggregates one calendar day of sales, split by payment type.
type DailySummary struct {
	Date          string          `json:"date"`
	SaleCount     int             `json:"sale_count"`
	Revenue       decimal.Decimal `json:"revenue"`
	CashRevenue   decimal.Decimal `json:"cash_revenue"`
	CardRevenue   decimal.Decimal `json:"card_revenue"`
	CreditRevenue decimal.Decimal `json:"credit_revenue"`
}

// Debtor is one row of the outstanding-balances report.
type Debtor struct {
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	OpenDebts    int             `json:"open_debts"`
	TotalOwed    decimal.Decimal `json:"total_owed"`
}

// ReportService serves the read-only management views. Everything here is
// computed in SQL from the source tables; there are no report tables to keep
// in sync.
type ReportService interface {
	DailySummary(ctx context.Context, date string) (*DailySummary, error)
	LowStockProducts(ctx context.Context) ([]Product, error)
	Debtors(ctx context.Context) ([]Debtor, error)
}

type reportService struct {
	pool *pgxpool.Pool
}

// NewReportService constructs a ReportService backed by PostgreSQL.
func NewReportService(pool *pgxpool.Pool) ReportService {
	return &reportService{pool: pool}
}

// DailySummary totals the day's sales by payment type. An empty date means
// today (server time, resolved by the database).
func (s *reportService) DailySummary(ctx context.Context, date string) (*DailySummary, error) {
	date = strings.TrimSpace(date)
	dateExpr := "CURRENT_DATE"
	var args []any
	if date != "" {
		dateExpr = "$1::date"
		args = append(args, date)
	}

	var sum DailySummary
	err := s.pool.QueryRow(ctx, `
		SELECT
			`+dateExpr+`::text,
			COUNT(s.id),
			COALESCE(SUM(s.total_amount), 0),
			COALESCE(SUM(s.total_amount) FILTER (WHERE s.payment_type = 'cash'), 0),
			COALESCE(SUM(s.total_amount) FILTER (WHERE s.payment_type = 'card'), 0),
			COALESCE(SUM(s.total_amount) FILTER (WHERE s.payment_type = 'credit'), 0)
		FROM sales s
		WHERE s.created_at::date = `+dateExpr,
		args...,
	).Scan(&sum.Date, &sum.SaleCount, &sum.Revenue, &sum.CashRevenue, &sum.CardRevenue, &sum.CreditRevenue)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	return &sum, nil
}

// LowStockProducts lists products at or below their restock threshold,
// emptiest first. Thresholds are per unit: pieces at 5, kilograms at 5.00.
func (s *reportService) LowStockProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE stock <= CASE unit WHEN 'kg' THEN 5.00 WHEN 'piece' THEN 5 ELSE 1.00 END
		ORDER BY stock, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query low stock: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Barcode, &p.CostPrice, &p.SellPrice, &p.Unit, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan low stock product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Debtors groups open debts per customer, largest balance first.
func (s *reportService) Debtors(ctx context.Context) ([]Debtor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, COUNT(d.id),
		       COALESCE(SUM(GREATEST(d.amount - d.paid_amount, 0)), 0)
		FROM customers c
		JOIN debts d ON d.customer_id = c.id AND d.status <> 'PAID'
		GROUP BY c.id, c.name
		HAVING SUM(GREATEST(d.amount - d.paid_amount, 0)) > 0
		ORDER BY 4 DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query debtors: %w", err)
	}
	defer rows.Close()

	var debtors []Debtor
	for rows.Next() {
		var d Debtor
		if err := rows.Scan(&d.CustomerID, &d.CustomerName, &d.OpenDebts, &d.TotalOwed); err != nil {
			return nil, fmt.Errorf("scan debtor: %w", err)
		}
		debtors = append(debtors, d)
	}
	return debtors, rows.Err()
}
