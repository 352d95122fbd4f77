package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"paydesk/internal/core"
	"paydesk/internal/filter"
)

// Repository executes composed queries against SQLite. It is the only
// component that renders predicates to SQL; everything above it deals in
// filter.Query values.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for capability implementations that
// share the connection pool.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return &core.StoreError{Op: "ping", Err: err}
	}
	return nil
}

type expenseRow struct {
	ID                 int64         `db:"id"`
	Type               string        `db:"type"`
	Status             string        `db:"status"`
	Description        string        `db:"description"`
	AmountCents        int64         `db:"amount_cents"`
	CreatedAt          time.Time     `db:"created_at"`
	FromCollectiveID   int64         `db:"from_collective_id"`
	CollectiveID       int64         `db:"collective_id"`
	CreatedByAccountID int64         `db:"created_by_account_id"`
	PayoutMethodID     sql.NullInt64 `db:"payout_method_id"`
}

const expenseColumns = "e.id, e.type, e.status, e.description, e.amount_cents, " +
	"e.created_at, e.from_collective_id, e.collective_id, e.created_by_account_id, e.payout_method_id"

// Search runs the composed query and returns the matching page plus the
// total count. Count and rows share the same predicate and joins; there
// is no separate count path that could drift.
func (r *Repository) Search(ctx context.Context, q filter.Query) ([]core.Expense, int, error) {
	where, args, err := q.Where.ToSQL(filter.ExpenseSchema)
	if err != nil {
		return nil, 0, fmt.Errorf("compile predicate: %w", err)
	}
	from := fromClause(q)

	var total int
	countSQL := "SELECT COUNT(*) FROM " + from + " WHERE " + where
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, &core.StoreError{Op: "count expenses", Err: err}
	}

	rowsSQL := "SELECT " + expenseColumns + " FROM " + from + " WHERE " + where +
		" ORDER BY " + q.Order.SQL() + ", e.id DESC LIMIT ? OFFSET ?"
	rowArgs := append(append([]any(nil), args...), q.Limit, q.Offset)

	var rows []expenseRow
	if err := r.db.SelectContext(ctx, &rows, rowsSQL, rowArgs...); err != nil {
		return nil, 0, &core.StoreError{Op: "select expenses", Err: err}
	}

	expenses := make([]core.Expense, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		expenses[i] = row.toExpense()
		ids[i] = row.ID
	}
	if err := r.attachTags(ctx, expenses, ids); err != nil {
		return nil, 0, err
	}

	slog.DebugContext(ctx, "Executed expense search",
		"total", total, "returned", len(expenses), "limit", q.Limit, "offset", q.Offset)
	return expenses, total, nil
}

// MatchedPairs runs the grouped existence query for the eligibility
// resolver: distinct submitter/recipient/type rows matching the
// predicate, without ordering or pagination.
func (r *Repository) MatchedPairs(ctx context.Context, q filter.Query) ([]core.ExpensePair, error) {
	where, args, err := q.Where.ToSQL(filter.ExpenseSchema)
	if err != nil {
		return nil, fmt.Errorf("compile predicate: %w", err)
	}

	pairsSQL := "SELECT e.from_collective_id, e.collective_id, e.type FROM " + fromClause(q) +
		" WHERE " + where + " GROUP BY e.from_collective_id, e.collective_id, e.type"

	rows, err := r.db.QueryxContext(ctx, pairsSQL, args...)
	if err != nil {
		return nil, &core.StoreError{Op: "group expense pairs", Err: err}
	}
	defer rows.Close()

	var pairs []core.ExpensePair
	for rows.Next() {
		var p core.ExpensePair
		if err := rows.Scan(&p.FromCollectiveID, &p.CollectiveID, &p.Type); err != nil {
			return nil, &core.StoreError{Op: "scan expense pair", Err: err}
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "iterate expense pairs", Err: err}
	}
	return pairs, nil
}

func (r *Repository) attachTags(ctx context.Context, expenses []core.Expense, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tagSQL, tagArgs, err := sqlx.In("SELECT expense_id, tag FROM expense_tags WHERE expense_id IN (?) ORDER BY tag", ids)
	if err != nil {
		return fmt.Errorf("expand tag query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, tagSQL, tagArgs...)
	if err != nil {
		return &core.StoreError{Op: "select expense tags", Err: err}
	}
	defer rows.Close()

	tags := make(map[int64][]string, len(ids))
	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return &core.StoreError{Op: "scan expense tag", Err: err}
		}
		tags[id] = append(tags[id], tag)
	}
	if err := rows.Err(); err != nil {
		return &core.StoreError{Op: "iterate expense tags", Err: err}
	}
	for i := range expenses {
		expenses[i].Tags = tags[expenses[i].ID]
	}
	return nil
}

func fromClause(q filter.Query) string {
	var b strings.Builder
	b.WriteString("expenses AS e")
	for _, j := range q.Joins {
		b.WriteString(" ")
		b.WriteString(j.SQL())
	}
	return b.String()
}

func (row expenseRow) toExpense() core.Expense {
	e := core.Expense{
		ID:                 row.ID,
		Type:               core.ExpenseType(row.Type),
		Status:             core.ExpenseStatus(row.Status),
		Description:        row.Description,
		Amount:             core.Money{Cents: row.AmountCents},
		CreatedAt:          row.CreatedAt,
		FromCollectiveID:   row.FromCollectiveID,
		CollectiveID:       row.CollectiveID,
		CreatedByAccountID: row.CreatedByAccountID,
	}
	if row.PayoutMethodID.Valid {
		id := row.PayoutMethodID.Int64
		e.PayoutMethodID = &id
	}
	return e
}
