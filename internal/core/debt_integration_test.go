package core_test

import (
	"context"
	"errors"
	"testing"

	"retail-pos/internal/core"
)

// setupDebt seeds one customer with one debt in the given state and returns
// the services to exercise it.
func setupDebt(t *testing.T, amount, paid string, status core.DebtStatus) (core.DebtService, core.CustomerService, int, func()) {
	t.Helper()
	pool := setupTestDB(t)
	ctx := context.Background()

	var customerID, debtID int
	if err := pool.QueryRow(ctx,
		"INSERT INTO customers (name) VALUES ('Ali Hassan') RETURNING id",
	).Scan(&customerID); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if err := pool.QueryRow(ctx, `
		INSERT INTO debts (customer_id, amount, paid_amount, status, created_by)
		VALUES ($1, $2, $3, $4, 2) RETURNING id
	`, customerID, d(amount), d(paid), status).Scan(&debtID); err != nil {
		t.Fatalf("seed debt: %v", err)
	}

	return core.NewDebtService(pool), core.NewCustomerService(pool), debtID, pool.Close
}

func TestDebt_PartialThenFullPayment(t *testing.T) {
	debts, customers, debtID, closePool := setupDebt(t, "25.00", "5.00", core.DebtPartial)
	defer closePool()
	ctx := context.Background()

	debt, err := debts.PayDebt(ctx, debtID, d("10.00"))
	if err != nil {
		t.Fatalf("PayDebt failed: %v", err)
	}
	if !debt.PaidAmount.Equal(d("15.00")) {
		t.Errorf("paid = %s, want 15.00", debt.PaidAmount)
	}
	if debt.Status != core.DebtPartial {
		t.Errorf("status = %s, want PARTIAL", debt.Status)
	}

	debt, err = debts.PayDebt(ctx, debtID, d("10.00"))
	if err != nil {
		t.Fatalf("PayDebt failed: %v", err)
	}
	if debt.Status != core.DebtPaid {
		t.Errorf("status = %s, want PAID", debt.Status)
	}
	if !debt.Remaining().IsZero() {
		t.Errorf("remaining = %s, want 0", debt.Remaining())
	}

	// Settled debt drops out of the customer's derived balance.
	customer, err := customers.GetCustomer(ctx, debt.CustomerID)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if !customer.TotalDebt.IsZero() {
		t.Errorf("customer total debt = %s, want 0", customer.TotalDebt)
	}
}

func TestDebt_OverpaymentRejectedUnchanged(t *testing.T) {
	debts, _, debtID, closePool := setupDebt(t, "25.00", "5.00", core.DebtPartial)
	defer closePool()
	ctx := context.Background()

	_, err := debts.PayDebt(ctx, debtID, d("25.00")) // remaining is only 20.00
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	debt, err := debts.GetDebt(ctx, debtID)
	if err != nil {
		t.Fatalf("GetDebt failed: %v", err)
	}
	if !debt.PaidAmount.Equal(d("5.00")) || debt.Status != core.DebtPartial {
		t.Errorf("debt changed after rejected payment: paid %s status %s", debt.PaidAmount, debt.Status)
	}
}

func TestDebt_SettledRejectsPayment(t *testing.T) {
	debts, _, debtID, closePool := setupDebt(t, "25.00", "25.00", core.DebtPaid)
	defer closePool()

	_, err := debts.PayDebt(context.Background(), debtID, d("1.00"))
	var conflictErr *core.ConflictError
	if !errors.As(err, &conflictErr) {
		t.Errorf("expected ConflictError for settled debt, got %v", err)
	}
}

func TestDebt_NonPositivePaymentRejected(t *testing.T) {
	debts, _, debtID, closePool := setupDebt(t, "25.00", "0", core.DebtUnpaid)
	defer closePool()

	var vErr *core.ValidationError
	if _, err := debts.PayDebt(context.Background(), debtID, d("0")); !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for zero payment, got %v", err)
	}
}

func TestDebt_ListOpenExcludesSettled(t *testing.T) {
	debts, _, _, closePool := setupDebt(t, "25.00", "25.00", core.DebtPaid)
	defer closePool()

	open, err := debts.ListOpenDebts(context.Background())
	if err != nil {
		t.Fatalf("ListOpenDebts failed: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open debts = %d, want 0", len(open))
	}
}
