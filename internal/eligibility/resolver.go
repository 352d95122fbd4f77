// Package eligibility resolves the READY_TO_PAY status filter: a
// two-pass fold that first asks the store which submitter/recipient pairs
// currently match, then narrows the predicate with balance-sufficiency
// and tax-form-compliance conditions.
package eligibility

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"paydesk/internal/core"
	"paydesk/internal/filter"
	"paydesk/internal/ledger"
	"paydesk/internal/query"
)

// PairLister runs the grouped existence query: the distinct
// (submitter, recipient, type) rows matching a query's predicate,
// ignoring ordering and pagination.
type PairLister interface {
	MatchedPairs(ctx context.Context, q filter.Query) ([]core.ExpensePair, error)
}

type Resolver struct {
	pairs    PairLister
	balances ledger.BalanceReader
	taxForms ledger.TaxFormReader
}

func NewResolver(pairs PairLister, balances ledger.BalanceReader, taxForms ledger.TaxFormReader) *Resolver {
	return &Resolver{pairs: pairs, balances: balances, taxForms: taxForms}
}

// Apply folds the eligibility conditions into q and returns the final,
// executable query. q must already carry the APPROVED baseline set by the
// builder. The input is never mutated.
//
// Pairs are classified per row: a pair that produced both receipt and
// non-receipt expenses appears in both partitions, and the escape clause
// re-checks the type so it never rescues the non-receipt side.
func (r *Resolver) Apply(ctx context.Context, q filter.Query) (filter.Query, error) {
	rows, err := r.pairs.MatchedPairs(ctx, q)
	if err != nil {
		return filter.Query{}, fmt.Errorf("list matched pairs: %w", err)
	}

	var subject, exempt []core.ExpensePair
	for _, row := range rows {
		if row.Type == core.ExpenseTypeReceipt {
			exempt = append(exempt, row)
		} else {
			subject = append(subject, row)
		}
	}

	out := q
	out.NeedsEligibility = false
	if len(subject) == 0 {
		// Nothing is subject to balance or tax-form checks; the
		// APPROVED baseline stands alone.
		return out, nil
	}

	recipients := distinctSorted(subject, func(p core.ExpensePair) int64 { return p.CollectiveID })
	submitters := distinctSorted(subject, func(p core.ExpensePair) int64 { return p.FromCollectiveID })

	var (
		balances    map[int64]int64
		outstanding []int64
	)
	// Both fetches depend on the pair query above but not on each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balances, err = r.balances.Balances(gctx, recipients)
		if err != nil {
			return fmt.Errorf("fetch balances: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		outstanding, err = r.taxForms.OutstandingTaxForms(gctx, submitters)
		if err != nil {
			return fmt.Errorf("fetch outstanding tax forms: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return filter.Query{}, err
	}

	// Balance sufficiency: one clause per recipient with a known
	// balance. Recipients without one get no clause, so their expenses
	// cannot match the disjunction.
	var payable []query.Predicate
	for _, rid := range recipients {
		bal, ok := balances[rid]
		if !ok {
			continue
		}
		payable = append(payable, query.And(
			query.Cmp(filter.ColCollectiveID, query.OpEq, rid),
			query.Cmp(filter.ColAmount, query.OpLte, bal),
		))
	}

	// Tax-form exclusions accumulate conjunctively; an earlier exclusion
	// is never dropped by a later one.
	cond := []query.Predicate{query.Or(payable...)}
	sort.Slice(outstanding, func(i, j int) bool { return outstanding[i] < outstanding[j] })
	for _, sid := range outstanding {
		cond = append(cond, query.Cmp(filter.ColFromCollectiveID, query.OpNe, sid))
	}

	// Escape clause: type-exempt pairs must never be filtered out by
	// conditions computed for the subject partition only.
	eligible := query.And(cond...)
	if len(exempt) > 0 {
		var escapes []query.Predicate
		for _, p := range distinctSortedPairs(exempt) {
			escapes = append(escapes, query.And(
				query.Cmp(filter.ColFromCollectiveID, query.OpEq, p.FromCollectiveID),
				query.Cmp(filter.ColCollectiveID, query.OpEq, p.CollectiveID),
				query.Cmp(filter.ColExpenseType, query.OpEq, string(core.ExpenseTypeReceipt)),
			))
		}
		eligible = query.Or(eligible, query.Or(escapes...))
	}

	slog.DebugContext(ctx, "Resolved ready-to-pay conditions",
		"matched_pairs", len(rows),
		"subject_pairs", len(subject),
		"exempt_pairs", len(exempt),
		"recipients", len(recipients),
		"outstanding_tax_forms", len(outstanding))

	out.Where = query.And(out.Where, eligible)
	return out, nil
}

// distinctSorted extracts one id per pair, deduplicates and sorts, so the
// built predicate is identical for any input row order.
func distinctSorted(pairs []core.ExpensePair, key func(core.ExpensePair) int64) []int64 {
	seen := make(map[int64]struct{}, len(pairs))
	out := make([]int64, 0, len(pairs))
	for _, p := range pairs {
		id := key(p)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func distinctSortedPairs(pairs []core.ExpensePair) []core.ExpensePair {
	type key struct{ from, to int64 }
	seen := make(map[key]struct{}, len(pairs))
	out := make([]core.ExpensePair, 0, len(pairs))
	for _, p := range pairs {
		k := key{p.FromCollectiveID, p.CollectiveID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromCollectiveID != out[j].FromCollectiveID {
			return out[i].FromCollectiveID < out[j].FromCollectiveID
		}
		return out[i].CollectiveID < out[j].CollectiveID
	})
	return out
}
