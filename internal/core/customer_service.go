package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService manages credit customers. TotalDebt is never stored: every
// read derives it as the sum of remaining balances over the customer's
// non-settled debts, so sale creation and debt payment keep it consistent by
// construction.
type CustomerService interface {
	GetCustomer(ctx context.Context, customerID int) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)

	// GetOrCreateByNameTx resolves a customer by exact name inside the
	// caller's transaction, creating one when absent. Used by the sale
	// workflow for credit sales.
	GetOrCreateByNameTx(ctx context.Context, tx pgx.Tx, name string) (*Customer, error)
}

type customerService struct {
	pool *pgxpool.Pool
}

// NewCustomerService constructs a CustomerService backed by PostgreSQL.
func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

// derivedDebt is the subquery computing a customer's outstanding balance.
const derivedDebt = `COALESCE((
	SELECT SUM(GREATEST(d.amount - d.paid_amount, 0))
	FROM debts d
	WHERE d.customer_id = c.id AND d.status <> 'PAID'
), 0)`

func (s *customerService) GetCustomer(ctx context.Context, customerID int) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.name, `+derivedDebt+`, c.created_at
		FROM customers c
		WHERE c.id = $1
	`, customerID).Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("customer", customerID)
		}
		return nil, fmt.Errorf("fetch customer %d: %w", customerID, err)
	}
	return &c, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.name, `+derivedDebt+`, c.created_at
		FROM customers c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.TotalDebt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *customerService) GetOrCreateByNameTx(ctx context.Context, tx pgx.Tx, name string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil, validationf("customer name must be at least 3 characters")
	}

	var c Customer
	err := tx.QueryRow(ctx,
		"SELECT id, name, created_at FROM customers WHERE name = $1", name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("resolve customer %q: %w", name, err)
	}

	err = tx.QueryRow(ctx,
		"INSERT INTO customers (name) VALUES ($1) RETURNING id, name, created_at", name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create customer %q: %w", name, err)
	}
	return &c, nil
}
