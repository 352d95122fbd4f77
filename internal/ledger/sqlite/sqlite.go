// Package sqlite implements the ledger ports against the same SQLite
// database the expense store uses: accounts for resolution, the
// transactions ledger for balances, tax_forms for compliance state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"

	"paydesk/internal/core"
)

type Ledger struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

// Resolve implements ledger.AccountResolver. A decimal ref is looked up
// by id, anything else by slug; a miss is a *core.NotFoundError.
func (l *Ledger) Resolve(ctx context.Context, ref core.AccountRef) (core.Account, error) {
	var (
		row row
		err error
	)
	if id, perr := strconv.ParseInt(string(ref), 10, 64); perr == nil {
		err = l.db.GetContext(ctx, &row,
			"SELECT id, slug, name, host_collective_id FROM accounts WHERE id = ?", id)
	} else {
		err = l.db.GetContext(ctx, &row,
			"SELECT id, slug, name, host_collective_id FROM accounts WHERE slug = ?", string(ref))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, &core.NotFoundError{Ref: ref}
	}
	if err != nil {
		return core.Account{}, &core.StoreError{Op: "resolve account", Err: err}
	}
	return row.toAccount(), nil
}

// Balances implements ledger.BalanceReader: the sum of ledger movements
// per requested account. Accounts with no movements at all are omitted.
func (l *Ledger) Balances(ctx context.Context, accountIDs []int64) (map[int64]int64, error) {
	if len(accountIDs) == 0 {
		return map[int64]int64{}, nil
	}
	q, args, err := sqlx.In(
		"SELECT account_id, SUM(amount_cents) FROM transactions WHERE account_id IN (?) GROUP BY account_id",
		accountIDs)
	if err != nil {
		return nil, &core.StoreError{Op: "expand balance query", Err: err}
	}
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "select balances", Err: err}
	}
	defer rows.Close()

	out := make(map[int64]int64, len(accountIDs))
	for rows.Next() {
		var id, cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, &core.StoreError{Op: "scan balance", Err: err}
		}
		out[id] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "iterate balances", Err: err}
	}
	return out, nil
}

// OutstandingTaxForms implements ledger.TaxFormReader.
func (l *Ledger) OutstandingTaxForms(ctx context.Context, accountIDs []int64) ([]int64, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(
		"SELECT account_id FROM tax_forms WHERE received = 0 AND account_id IN (?)", accountIDs)
	if err != nil {
		return nil, &core.StoreError{Op: "expand tax form query", Err: err}
	}
	var ids []int64
	if err := l.db.SelectContext(ctx, &ids, q, args...); err != nil {
		return nil, &core.StoreError{Op: "select outstanding tax forms", Err: err}
	}
	return ids, nil
}

type row struct {
	ID               int64         `db:"id"`
	Slug             string        `db:"slug"`
	Name             string        `db:"name"`
	HostCollectiveID sql.NullInt64 `db:"host_collective_id"`
}

func (r row) toAccount() core.Account {
	a := core.Account{ID: r.ID, Slug: r.Slug, Name: r.Name}
	if r.HostCollectiveID.Valid {
		id := r.HostCollectiveID.Int64
		a.HostCollectiveID = &id
	}
	return a
}
