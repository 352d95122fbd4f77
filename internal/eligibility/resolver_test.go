package eligibility

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"paydesk/internal/core"
	"paydesk/internal/filter"
	"paydesk/internal/ledger/memory"
	"paydesk/internal/query"
)

type fakePairLister struct {
	pairs []core.ExpensePair
	err   error
	calls int
}

func (f *fakePairLister) MatchedPairs(_ context.Context, _ filter.Query) ([]core.ExpensePair, error) {
	f.calls++
	return f.pairs, f.err
}

func readyQuery() filter.Query {
	return filter.Build(filter.Args{Status: core.StatusReadyToPay}, filter.Accounts{})
}

const (
	s1 = int64(101) // submitter with outstanding tax form
	s2 = int64(102) // compliant submitter
	r1 = int64(201) // recipient with budget
	r2 = int64(202) // recipient without a known balance
)

func testLedger() *memory.Store {
	return memory.New(nil, map[int64]int64{r1: 1000}, []int64{s1})
}

func TestApplyBuildsEligibilityConditions(t *testing.T) {
	pairs := &fakePairLister{pairs: []core.ExpensePair{
		{FromCollectiveID: s1, CollectiveID: r1, Type: core.ExpenseTypeInvoice},
		{FromCollectiveID: s2, CollectiveID: r2, Type: core.ExpenseTypeInvoice},
		{FromCollectiveID: s2, CollectiveID: r1, Type: core.ExpenseTypeInvoice},
	}}
	store := testLedger()
	r := NewResolver(pairs, store, store)

	out, err := r.Apply(context.Background(), readyQuery())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.NeedsEligibility {
		t.Fatalf("resolved query must not need another pass")
	}

	// One payable clause (r1 only: r2 has no known balance) plus the
	// tax-form exclusion for s1, conjoined onto the APPROVED baseline.
	want := query.And(
		query.And(query.Cmp("e.status", query.OpEq, string(core.StatusApproved))),
		query.And(
			query.Or(query.And(
				query.Cmp(filter.ColCollectiveID, query.OpEq, r1),
				query.Cmp(filter.ColAmount, query.OpLte, int64(1000)),
			)),
			query.Cmp(filter.ColFromCollectiveID, query.OpNe, s1),
		),
	)
	if !reflect.DeepEqual(out.Where, want) {
		t.Fatalf("predicate mismatch:\n got %#v\nwant %#v", out.Where, want)
	}
}

func TestApplyIsOrderIndependent(t *testing.T) {
	base := []core.ExpensePair{
		{FromCollectiveID: s1, CollectiveID: r1, Type: core.ExpenseTypeInvoice},
		{FromCollectiveID: s2, CollectiveID: r2, Type: core.ExpenseTypeInvoice},
		{FromCollectiveID: s2, CollectiveID: r1, Type: core.ExpenseTypeInvoice},
		{FromCollectiveID: s1, CollectiveID: r2, Type: core.ExpenseTypeReceipt},
	}
	permutations := [][]core.ExpensePair{
		{base[0], base[1], base[2], base[3]},
		{base[3], base[2], base[1], base[0]},
		{base[2], base[0], base[3], base[1]},
	}

	store := testLedger()
	var reference filter.Query
	for i, perm := range permutations {
		r := NewResolver(&fakePairLister{pairs: perm}, store, store)
		out, err := r.Apply(context.Background(), readyQuery())
		if err != nil {
			t.Fatalf("perm %d: %v", i, err)
		}
		if i == 0 {
			reference = out
			continue
		}
		// Identical, not merely equivalent.
		if !reflect.DeepEqual(out.Where, reference.Where) {
			t.Fatalf("perm %d built a different predicate", i)
		}
	}
}

func TestApplyNoSubjectRowsKeepsBaseline(t *testing.T) {
	// Only receipts match: nothing is subject to balance or tax-form
	// checks, so the APPROVED baseline stands.
	pairs := &fakePairLister{pairs: []core.ExpensePair{
		{FromCollectiveID: s1, CollectiveID: r1, Type: core.ExpenseTypeReceipt},
	}}
	store := testLedger()
	r := NewResolver(pairs, store, store)

	in := readyQuery()
	out, err := r.Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !reflect.DeepEqual(out.Where, in.Where) {
		t.Fatalf("baseline must be unchanged")
	}
	if out.NeedsEligibility {
		t.Fatalf("flag must clear")
	}
}

func TestApplyEmptyMatchKeepsBaseline(t *testing.T) {
	store := testLedger()
	r := NewResolver(&fakePairLister{}, store, store)

	in := readyQuery()
	out, err := r.Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !reflect.DeepEqual(out.Where, in.Where) {
		t.Fatalf("baseline must be unchanged")
	}
}

func TestApplyExemptEscapeRechecksType(t *testing.T) {
	// The same pair produced both an invoice and a receipt. The escape
	// clause must carry the RECEIPT type check so the invoice side still
	// has to pass the subject conditions.
	pairs := &fakePairLister{pairs: []core.ExpensePair{
		{FromCollectiveID: s1, CollectiveID: r1, Type: core.ExpenseTypeInvoice},
		{FromCollectiveID: s1, CollectiveID: r1, Type: core.ExpenseTypeReceipt},
	}}
	store := testLedger()
	r := NewResolver(pairs, store, store)

	out, err := r.Apply(context.Background(), readyQuery())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	sql, args, err := out.Where.ToSQL(filter.ExpenseSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	found := false
	for _, a := range args {
		if a == string(core.ExpenseTypeReceipt) {
			found = true
		}
	}
	if !found {
		t.Fatalf("escape clause must re-check the type: %q %v", sql, args)
	}
}

func TestApplyPropagatesStoreError(t *testing.T) {
	boom := &core.StoreError{Op: "group expense pairs", Err: errors.New("db gone")}
	store := testLedger()
	r := NewResolver(&fakePairLister{err: boom}, store, store)

	if _, err := r.Apply(context.Background(), readyQuery()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

type blockedBalances struct{}

func (blockedBalances) Balances(ctx context.Context, _ []int64) (map[int64]int64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestApplyHonorsCancellation(t *testing.T) {
	pairs := &fakePairLister{pairs: []core.ExpensePair{
		{FromCollectiveID: s1, CollectiveID: r1, Type: core.ExpenseTypeInvoice},
	}}
	store := testLedger()
	r := NewResolver(pairs, blockedBalances{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Apply(ctx, readyQuery()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
