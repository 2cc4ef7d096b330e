package store

import (
	"context"

	"github.com/hushnetwork/token-factory/internal/ledger"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// LoadEntries retrieves every committed ledger entry, for boot hydration
	LoadEntries(ctx context.Context) ([]ledger.StateEntry, error)
	// Apply writes the entries of one committed transaction atomically
	Apply(ctx context.Context, entries []ledger.StateEntry) error
}
