package ledger

import (
	"context"

	"paydesk/internal/core"
)

// Ports for outbound capabilities. The engine only ever sees these
// interfaces; implementations are swappable (sqlite for production,
// memory for tests and fixtures).
type (
	// AccountResolver looks up an account by slug or decimal id.
	// A miss is a *core.NotFoundError, propagated unchanged.
	AccountResolver interface {
		Resolve(ctx context.Context, ref core.AccountRef) (core.Account, error)
	}

	// BalanceReader returns current disbursable balances in minor units.
	// Accounts absent from the result have no known balance; callers
	// treat absence as ineligible.
	BalanceReader interface {
		Balances(ctx context.Context, accountIDs []int64) (map[int64]int64, error)
	}

	// TaxFormReader returns the subset of the given accounts with an
	// outstanding tax-form requirement.
	TaxFormReader interface {
		OutstandingTaxForms(ctx context.Context, accountIDs []int64) ([]int64, error)
	}
)
