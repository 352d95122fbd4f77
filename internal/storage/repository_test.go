package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"paydesk/internal/core"
	"paydesk/internal/filter"
)

// world holds the ids of the seeded fixture accounts.
type world struct {
	host    int64
	webpack int64 // recipient under host
	babel   int64 // recipient under host
	indie   int64 // recipient without a host
	devs    int64 // submitter collective
	alice   int64 // submitting user's account
	pmBank  int64
	pmOther int64
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedWorld(t *testing.T, repo *Repository) world {
	t.Helper()
	ctx := context.Background()

	mustAccount := func(a core.Account) int64 {
		id, err := repo.InsertAccount(ctx, a)
		if err != nil {
			t.Fatalf("seed account %s: %v", a.Slug, err)
		}
		return id
	}

	var w world
	w.host = mustAccount(core.Account{Slug: "osc", Name: "Open Source Host"})
	w.webpack = mustAccount(core.Account{Slug: "webpack", Name: "webpack", HostCollectiveID: &w.host})
	w.babel = mustAccount(core.Account{Slug: "babel", Name: "Babel", HostCollectiveID: &w.host})
	w.indie = mustAccount(core.Account{Slug: "indie", Name: "Independent"})
	w.devs = mustAccount(core.Account{Slug: "devs", Name: "Developer Collective"})
	w.alice = mustAccount(core.Account{Slug: "alice", Name: "Alice"})

	var err error
	if w.pmBank, err = repo.InsertPayoutMethod(ctx, core.PayoutMethod{Type: core.PayoutBankAccount}); err != nil {
		t.Fatalf("seed payout method: %v", err)
	}
	if w.pmOther, err = repo.InsertPayoutMethod(ctx, core.PayoutMethod{Type: core.PayoutOther}); err != nil {
		t.Fatalf("seed payout method: %v", err)
	}
	return w
}

func (w world) expense(desc string, amount int64) core.Expense {
	return core.Expense{
		Type:               core.ExpenseTypeInvoice,
		Status:             core.StatusApproved,
		Description:        desc,
		Amount:             core.Money{Cents: amount},
		CreatedAt:          time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		FromCollectiveID:   w.devs,
		CollectiveID:       w.webpack,
		CreatedByAccountID: w.alice,
	}
}

func mustInsert(t *testing.T, repo *Repository, e core.Expense) int64 {
	t.Helper()
	id, err := repo.InsertExpense(context.Background(), e)
	if err != nil {
		t.Fatalf("seed expense %q: %v", e.Description, err)
	}
	return id
}

func search(t *testing.T, repo *Repository, args filter.Args, accounts filter.Accounts) ([]core.Expense, int) {
	t.Helper()
	nodes, total, err := repo.Search(context.Background(), filter.Build(args, accounts))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	return nodes, total
}

func ids(nodes []core.Expense) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestSearchAmountClosedInterval(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	mustInsert(t, repo, w.expense("under", 499))
	exact := mustInsert(t, repo, w.expense("exact", 500))
	mustInsert(t, repo, w.expense("over", 501))

	lo, hi := int64(500), int64(500)
	nodes, total := search(t, repo, filter.Args{MinAmount: &lo, MaxAmount: &hi}, filter.Accounts{})
	if total != 1 || len(nodes) != 1 || nodes[0].ID != exact {
		t.Fatalf("min=max=500 must match exactly the 500 expense, got %v total=%d", ids(nodes), total)
	}
}

func TestSearchTagSemantics(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	both := w.expense("conference trip", 100)
	both.Tags = []string{"legal", "travel"}
	bothID := mustInsert(t, repo, both)

	one := w.expense("contract review", 100)
	one.Tags = []string{"legal"}
	oneID := mustInsert(t, repo, one)

	// Tag filter: contains ALL of the given tags.
	nodes, total := search(t, repo, filter.Args{Tags: []string{"legal", "travel"}}, filter.Accounts{})
	if total != 1 || nodes[0].ID != bothID {
		t.Fatalf("contains-all must match only the double-tagged expense, got %v", ids(nodes))
	}

	// Search term: overlaps ANY tag.
	nodes, total = search(t, repo, filter.Args{SearchTerm: "legal"}, filter.Accounts{})
	if total != 2 {
		t.Fatalf("overlap search must match both, got %v total=%d", ids(nodes), total)
	}
	_ = oneID
}

func TestSearchTagsAttached(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	e := w.expense("tagged", 100)
	e.Tags = []string{"travel", "legal"}
	id := mustInsert(t, repo, e)

	nodes, _ := search(t, repo, filter.Args{}, filter.Accounts{})
	if len(nodes) != 1 || nodes[0].ID != id {
		t.Fatalf("got %v", ids(nodes))
	}
	// Attached in tag order.
	if len(nodes[0].Tags) != 2 || nodes[0].Tags[0] != "legal" || nodes[0].Tags[1] != "travel" {
		t.Fatalf("got tags %v", nodes[0].Tags)
	}
}

func TestSearchPayoutOtherIncludesNull(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	bank := w.expense("bank", 100)
	bank.PayoutMethodID = &w.pmBank
	mustInsert(t, repo, bank)

	other := w.expense("other", 100)
	other.PayoutMethodID = &w.pmOther
	otherID := mustInsert(t, repo, other)

	nullID := mustInsert(t, repo, w.expense("no method", 100))

	nodes, total := search(t, repo, filter.Args{PayoutMethodType: core.PayoutOther}, filter.Accounts{})
	if total != 2 {
		t.Fatalf("OTHER must include NULL payout methods, got %v", ids(nodes))
	}
	seen := map[int64]bool{}
	for _, n := range nodes {
		seen[n.ID] = true
	}
	if !seen[otherID] || !seen[nullID] {
		t.Fatalf("got %v, want {%d %d}", ids(nodes), otherID, nullID)
	}
}

func TestSearchMetacharactersMatchLiterally(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	literal := mustInsert(t, repo, w.expense("earned 100% bonus", 100))
	mustInsert(t, repo, w.expense("earned 1000 bonus", 100))

	nodes, total := search(t, repo, filter.Args{SearchTerm: "100%"}, filter.Accounts{})
	if total != 1 || nodes[0].ID != literal {
		t.Fatalf("%% must match literally, got %v", ids(nodes))
	}

	under := mustInsert(t, repo, w.expense("file_name fix", 100))
	mustInsert(t, repo, w.expense("filename fix", 100))
	nodes, total = search(t, repo, filter.Args{SearchTerm: "file_name"}, filter.Accounts{})
	if total != 1 || nodes[0].ID != under {
		t.Fatalf("_ must match literally, got %v", ids(nodes))
	}
}

func TestSearchTermMatchesAccountsAndID(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	first := mustInsert(t, repo, w.expense("plain work", 100))
	mustInsert(t, repo, w.expense("more work", 100))

	// Submitting user's account name.
	nodes, total := search(t, repo, filter.Args{SearchTerm: "Alice"}, filter.Accounts{})
	if total != 2 {
		t.Fatalf("name search must match via created_by join, got %v", ids(nodes))
	}

	// Exact id match for a numeric term.
	nodes, total = search(t, repo, filter.Args{SearchTerm: "1"}, filter.Accounts{})
	if total != 1 || nodes[0].ID != first {
		t.Fatalf("numeric term must match the id, got %v", ids(nodes))
	}
}

func TestSearchHostScoping(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	hosted := mustInsert(t, repo, w.expense("hosted", 100))

	outside := w.expense("outside", 100)
	outside.CollectiveID = w.indie
	mustInsert(t, repo, outside)

	host := &core.Account{ID: w.host, Slug: "osc"}
	nodes, total := search(t, repo, filter.Args{}, filter.Accounts{Host: host})
	if total != 1 || nodes[0].ID != hosted {
		t.Fatalf("host scoping must exclude unhosted recipients, got %v", ids(nodes))
	}
}

func TestSearchCountIgnoresPagination(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	for i := 0; i < 5; i++ {
		e := w.expense("bulk", 100+int64(i))
		e.CreatedAt = e.CreatedAt.Add(time.Duration(i) * time.Hour)
		mustInsert(t, repo, e)
	}

	nodes, total := search(t, repo, filter.Args{Limit: 2, Offset: 0}, filter.Accounts{})
	if total != 5 || len(nodes) != 2 {
		t.Fatalf("got %d nodes, total %d", len(nodes), total)
	}

	// Default order is created_at DESC: newest first.
	if nodes[0].Amount.Cents != 104 || nodes[1].Amount.Cents != 103 {
		t.Fatalf("got amounts %d, %d", nodes[0].Amount.Cents, nodes[1].Amount.Cents)
	}

	nodes, total = search(t, repo, filter.Args{Limit: 2, Offset: 4}, filter.Accounts{})
	if total != 5 || len(nodes) != 1 {
		t.Fatalf("tail page: got %d nodes, total %d", len(nodes), total)
	}
}

func TestSearchOrderByAmount(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	mustInsert(t, repo, w.expense("mid", 200))
	mustInsert(t, repo, w.expense("low", 100))
	mustInsert(t, repo, w.expense("high", 300))

	nodes, _ := search(t, repo, filter.Args{
		OrderBy: filter.OrderBy{Field: filter.OrderByAmount, Direction: filter.DirectionAsc},
	}, filter.Accounts{})
	if len(nodes) != 3 || nodes[0].Amount.Cents != 100 || nodes[2].Amount.Cents != 300 {
		t.Fatalf("got %v", ids(nodes))
	}
}

func TestMatchedPairsGroups(t *testing.T) {
	repo := newTestRepo(t)
	w := seedWorld(t, repo)

	// Two invoices on the same pair collapse into one row; the receipt
	// on the same pair is a distinct row because the type differs.
	mustInsert(t, repo, w.expense("a", 100))
	mustInsert(t, repo, w.expense("b", 200))
	receipt := w.expense("c", 300)
	receipt.Type = core.ExpenseTypeReceipt
	mustInsert(t, repo, receipt)

	toBabel := w.expense("d", 400)
	toBabel.CollectiveID = w.babel
	mustInsert(t, repo, toBabel)

	pairs, err := repo.MatchedPairs(context.Background(),
		filter.Build(filter.Args{Status: core.StatusReadyToPay}, filter.Accounts{}))
	if err != nil {
		t.Fatalf("matched pairs: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 distinct rows, got %+v", pairs)
	}
}

func TestPingAndClose(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
