// Package services orchestrates one expense resolve call: argument
// validation, concurrent account-reference resolution, filter
// composition, eligibility resolution and execution.
package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"paydesk/internal/cache"
	"paydesk/internal/core"
	"paydesk/internal/eligibility"
	"paydesk/internal/filter"
	"paydesk/internal/ledger"
)

// Searcher executes a composed query and returns the matching page plus
// the total count.
type Searcher interface {
	Search(ctx context.Context, q filter.Query) ([]core.Expense, int, error)
}

const (
	accountCacheSize = 512
	accountCacheTTL  = 5 * time.Minute
)

type ExpenseQueryService struct {
	store    Searcher
	accounts ledger.AccountResolver
	resolver *eligibility.Resolver
	cache    *cache.LRU[core.Account]
}

func NewExpenseQueryService(store Searcher, accounts ledger.AccountResolver, resolver *eligibility.Resolver) *ExpenseQueryService {
	return &ExpenseQueryService{
		store:    store,
		accounts: accounts,
		resolver: resolver,
		cache:    cache.NewLRU[core.Account](accountCacheSize, accountCacheTTL),
	}
}

// Resolve answers one expense query. Validation happens before any store
// access; account references resolve concurrently; READY_TO_PAY passes
// through the eligibility resolver before the final query executes. No
// partial predicate is ever executed.
func (s *ExpenseQueryService) Resolve(ctx context.Context, args filter.Args) (core.Collection, error) {
	args = args.Normalize()
	if err := args.Validate(); err != nil {
		return core.Collection{}, err
	}

	accounts, err := s.resolveAccounts(ctx, args)
	if err != nil {
		return core.Collection{}, err
	}

	q := filter.Build(args, accounts)
	if q.NeedsEligibility {
		q, err = s.resolver.Apply(ctx, q)
		if err != nil {
			return core.Collection{}, err
		}
	}

	nodes, total, err := s.store.Search(ctx, q)
	if err != nil {
		return core.Collection{}, err
	}

	slog.InfoContext(ctx, "Resolved expenses",
		"total", total,
		"returned", len(nodes),
		"limit", args.Limit,
		"offset", args.Offset,
		"ready_to_pay", args.Status == core.StatusReadyToPay)

	return core.Collection{Nodes: nodes, TotalCount: total, Limit: args.Limit, Offset: args.Offset}, nil
}

// AccountCache exposes the resolution cache for janitor registration.
func (s *ExpenseQueryService) AccountCache() *cache.LRU[core.Account] {
	return s.cache
}

// resolveAccounts fans out over the three independent reference lookups
// and joins on completion. A NotFoundError from any of them aborts the
// whole resolve unchanged.
func (s *ExpenseQueryService) resolveAccounts(ctx context.Context, args filter.Args) (filter.Accounts, error) {
	var out filter.Accounts
	g, gctx := errgroup.WithContext(ctx)

	resolve := func(ref core.AccountRef, dst **core.Account) {
		if ref == "" {
			return
		}
		g.Go(func() error {
			a, err := s.lookup(gctx, ref)
			if err != nil {
				return err
			}
			*dst = &a
			return nil
		})
	}
	resolve(args.FromAccount, &out.FromAccount)
	resolve(args.Account, &out.Account)
	resolve(args.Host, &out.Host)

	if err := g.Wait(); err != nil {
		return filter.Accounts{}, err
	}
	return out, nil
}

func (s *ExpenseQueryService) lookup(ctx context.Context, ref core.AccountRef) (core.Account, error) {
	if a, ok := s.cache.Get(string(ref)); ok {
		return a, nil
	}
	a, err := s.accounts.Resolve(ctx, ref)
	if err != nil {
		return core.Account{}, err
	}
	s.cache.Set(string(ref), a)
	return a, nil
}
