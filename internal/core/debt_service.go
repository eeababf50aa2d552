package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DebtService manages customer debts. PayDebt is the only mutation; status is
// always re-derived from the amounts after a payment, never toggled directly.
type DebtService interface {
	PayDebt(ctx context.Context, debtID int, amount decimal.Decimal) (*Debt, error)
	GetDebt(ctx context.Context, debtID int) (*Debt, error)
	ListCustomerDebts(ctx context.Context, customerID int) ([]Debt, error)
	ListOpenDebts(ctx context.Context) ([]Debt, error)
}

type debtService struct {
	pool *pgxpool.Pool
}

// NewDebtService constructs a DebtService backed by PostgreSQL.
func NewDebtService(pool *pgxpool.Pool) DebtService {
	return &debtService{pool: pool}
}

const debtColumns = `d.id, d.customer_id, c.name, d.amount, d.paid_amount, d.status, d.created_by, d.created_at`

func scanDebt(row pgx.Row) (*Debt, error) {
	var d Debt
	err := row.Scan(&d.ID, &d.CustomerID, &d.CustomerName, &d.Amount, &d.PaidAmount, &d.Status, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// PayDebt applies a payment to an open debt. The debt row is locked for the
// duration of the read-check-write so concurrent payments against the same
// debt serialize. Overpayment is rejected and leaves the debt unchanged.
func (s *debtService) PayDebt(ctx context.Context, debtID int, amount decimal.Decimal) (*Debt, error) {
	if !amount.IsPositive() {
		return nil, validationf("payment amount must be greater than zero")
	}
	amount = RoundAmount(amount)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin debt payment: %w", err)
	}
	defer tx.Rollback(ctx)

	var d Debt
	err = tx.QueryRow(ctx, `
		SELECT id, customer_id, amount, paid_amount, status
		FROM debts WHERE id = $1 FOR UPDATE
	`, debtID).Scan(&d.ID, &d.CustomerID, &d.Amount, &d.PaidAmount, &d.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("debt", debtID)
		}
		return nil, fmt.Errorf("lock debt %d: %w", debtID, err)
	}

	if !d.CanPay() {
		return nil, conflictf("debt %d is already settled", debtID)
	}
	if amount.GreaterThan(d.Remaining()) {
		return nil, validationf("payment %s exceeds remaining balance %s",
			amount.StringFixed(2), d.Remaining().StringFixed(2))
	}

	newPaid := RoundAmount(d.PaidAmount.Add(amount))
	newStatus := DebtStatusFor(d.Amount, newPaid)

	if _, err := tx.Exec(ctx,
		"UPDATE debts SET paid_amount = $1, status = $2 WHERE id = $3",
		newPaid, newStatus, debtID,
	); err != nil {
		return nil, fmt.Errorf("write debt %d: %w", debtID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit debt payment: %w", err)
	}
	return s.GetDebt(ctx, debtID)
}

func (s *debtService) GetDebt(ctx context.Context, debtID int) (*Debt, error) {
	d, err := scanDebt(s.pool.QueryRow(ctx, `
		SELECT `+debtColumns+`
		FROM debts d JOIN customers c ON c.id = d.customer_id
		WHERE d.id = $1
	`, debtID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("debt", debtID)
		}
		return nil, fmt.Errorf("fetch debt %d: %w", debtID, err)
	}
	return d, nil
}

func (s *debtService) ListCustomerDebts(ctx context.Context, customerID int) ([]Debt, error) {
	return s.listDebts(ctx, `
		SELECT `+debtColumns+`
		FROM debts d JOIN customers c ON c.id = d.customer_id
		WHERE d.customer_id = $1
		ORDER BY d.created_at DESC
	`, customerID)
}

// ListOpenDebts returns every debt that still accepts payments, oldest first,
// for the collections view.
func (s *debtService) ListOpenDebts(ctx context.Context) ([]Debt, error) {
	return s.listDebts(ctx, `
		SELECT `+debtColumns+`
		FROM debts d JOIN customers c ON c.id = d.customer_id
		WHERE d.status <> 'PAID'
		ORDER BY d.created_at
	`)
}

func (s *debtService) listDebts(ctx context.Context, query string, args ...any) ([]Debt, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	var debts []Debt
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.ID, &d.CustomerID, &d.CustomerName, &d.Amount, &d.PaidAmount, &d.Status, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}
