package storage

import (
	"context"
	"time"

	"paydesk/internal/core"
)

// Write-side helpers. The query engine itself is read-only; these exist
// for the seed command and for loading fixtures.

func (r *Repository) InsertAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (slug, name, host_collective_id) VALUES (?, ?, ?)",
		a.Slug, a.Name, a.HostCollectiveID)
	if err != nil {
		return 0, &core.StoreError{Op: "insert account", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Op: "insert account", Err: err}
	}
	return id, nil
}

func (r *Repository) InsertPayoutMethod(ctx context.Context, pm core.PayoutMethod) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO payout_methods (type) VALUES (?)", string(pm.Type))
	if err != nil {
		return 0, &core.StoreError{Op: "insert payout method", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Op: "insert payout method", Err: err}
	}
	return id, nil
}

func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses
		   (type, status, description, amount_cents, created_at,
		    from_collective_id, collective_id, created_by_account_id, payout_method_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Type), string(e.Status), e.Description, e.Amount.Cents, createdAt.UTC(),
		e.FromCollectiveID, e.CollectiveID, e.CreatedByAccountID, e.PayoutMethodID)
	if err != nil {
		return 0, &core.StoreError{Op: "insert expense", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StoreError{Op: "insert expense", Err: err}
	}
	for _, tag := range e.Tags {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO expense_tags (expense_id, tag) VALUES (?, ?)", id, tag); err != nil {
			return 0, &core.StoreError{Op: "insert expense tag", Err: err}
		}
	}
	return id, nil
}

// InsertTransaction records a ledger movement; balances are the sum of
// movements per account.
func (r *Repository) InsertTransaction(ctx context.Context, accountID, amountCents int64) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions (account_id, amount_cents, created_at) VALUES (?, ?, ?)",
		accountID, amountCents, time.Now().UTC()); err != nil {
		return &core.StoreError{Op: "insert transaction", Err: err}
	}
	return nil
}

// SetTaxForm records the tax-form state for an account; received=false
// marks the requirement as outstanding.
func (r *Repository) SetTaxForm(ctx context.Context, accountID int64, received bool) error {
	rcv := 0
	if received {
		rcv = 1
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO tax_forms (account_id, received) VALUES (?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET received = excluded.received`,
		accountID, rcv); err != nil {
		return &core.StoreError{Op: "set tax form", Err: err}
	}
	return nil
}
