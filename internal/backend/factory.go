// Package backend wires the ledger capability ports to a concrete
// implementation chosen by configuration: database-backed for normal
// operation, fixture-backed for development and tests.
package backend

import (
	"fmt"

	"paydesk/internal/ledger"
	"paydesk/internal/ledger/memory"
	lsqlite "paydesk/internal/ledger/sqlite"
	"paydesk/internal/log"
	"paydesk/internal/storage"
)

type Type string

const (
	SQLiteLedger Type = "sqlite"
	MemoryLedger Type = "memory"
)

func (t Type) Valid() bool {
	return t == SQLiteLedger || t == MemoryLedger
}

// Ledger bundles the three capability ports one backend provides.
type Ledger struct {
	Accounts ledger.AccountResolver
	Balances ledger.BalanceReader
	TaxForms ledger.TaxFormReader
}

type Config struct {
	Type       Type
	FixtureDir string
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateLedger builds the capability set for the configured backend. The
// sqlite backend shares the expense store's connection pool.
func (f *Factory) CreateLedger(repo *storage.Repository, cfg Config) (Ledger, error) {
	switch cfg.Type {
	case SQLiteLedger:
		l := lsqlite.New(repo.DB())
		f.logger.Info("Initialized sqlite ledger backend")
		return Ledger{Accounts: l, Balances: l, TaxForms: l}, nil
	case MemoryLedger:
		s := memory.NewFromFiles(cfg.FixtureDir)
		f.logger.Info("Initialized memory ledger backend", "fixture_dir", cfg.FixtureDir)
		return Ledger{Accounts: s, Balances: s, TaxForms: s}, nil
	default:
		return Ledger{}, fmt.Errorf("unsupported ledger backend: %s", cfg.Type)
	}
}
