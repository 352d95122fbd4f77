// Package memory implements the ledger ports against in-process fixture
// data. It backs tests and the "memory" backend mode, where account,
// balance and tax-form data comes from JSON files instead of the database.
package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"paydesk/internal/core"
)

type Store struct {
	mu          sync.Mutex
	accounts    []core.Account
	balances    map[int64]int64
	outstanding map[int64]bool
}

func New(accounts []core.Account, balances map[int64]int64, outstanding []int64) *Store {
	s := &Store{
		accounts:    append([]core.Account(nil), accounts...),
		balances:    make(map[int64]int64, len(balances)),
		outstanding: make(map[int64]bool, len(outstanding)),
	}
	for id, cents := range balances {
		s.balances[id] = cents
	}
	for _, id := range outstanding {
		s.outstanding[id] = true
	}
	return s
}

// NewFromFiles loads fixtures from base. Missing or unreadable files
// simply yield an empty data set.
func NewFromFiles(base string) *Store {
	var accounts []core.Account
	readJSON(filepath.Join(base, "accounts.json"), &accounts)

	balances := map[int64]int64{}
	readJSON(filepath.Join(base, "balances.json"), &balances)

	var outstanding []int64
	readJSON(filepath.Join(base, "tax_forms.json"), &outstanding)

	return New(accounts, balances, outstanding)
}

// Resolve implements ledger.AccountResolver.
func (s *Store) Resolve(_ context.Context, ref core.AccountRef) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, err := strconv.ParseInt(string(ref), 10, 64); err == nil {
		for _, a := range s.accounts {
			if a.ID == id {
				return a, nil
			}
		}
		return core.Account{}, &core.NotFoundError{Ref: ref}
	}
	for _, a := range s.accounts {
		if a.Slug == string(ref) {
			return a, nil
		}
	}
	return core.Account{}, &core.NotFoundError{Ref: ref}
}

// Balances implements ledger.BalanceReader. Accounts without a fixture
// entry are omitted from the result.
func (s *Store) Balances(_ context.Context, accountIDs []int64) (map[int64]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]int64, len(accountIDs))
	for _, id := range accountIDs {
		if cents, ok := s.balances[id]; ok {
			out[id] = cents
		}
	}
	return out, nil
}

// OutstandingTaxForms implements ledger.TaxFormReader.
func (s *Store) OutstandingTaxForms(_ context.Context, accountIDs []int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int64
	for _, id := range accountIDs {
		if s.outstanding[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// SetBalance overrides one balance; test hook.
func (s *Store) SetBalance(accountID, cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] = cents
}

func readJSON(path string, dst any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, dst)
}
