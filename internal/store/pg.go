package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hushnetwork/token-factory/internal/ledger"
	"github.com/hushnetwork/token-factory/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the ledger schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&schema.LedgerEntry{})
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// LoadEntries retrieves every committed ledger entry, for boot hydration
func (s *pgStore) LoadEntries(ctx context.Context) ([]ledger.StateEntry, error) {
	var rows []schema.LedgerEntry
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	entries := make([]ledger.StateEntry, 0, len(rows))
	for _, row := range rows {
		key, err := hex.DecodeString(row.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ledger key %q: %w", row.Key, err)
		}
		entries = append(entries, ledger.StateEntry{
			Contract: common.HexToAddress(row.Contract),
			Key:      key,
			Value:    row.Value,
		})
	}
	return entries, nil
}

// Apply writes the entries of one committed transaction atomically
func (s *pgStore) Apply(ctx context.Context, entries []ledger.StateEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for _, entry := range entries {
			contract := entry.Contract.Hex()
			key := hex.EncodeToString(entry.Key)

			if entry.Deleted {
				err := db.Where("contract = ? AND key = ?", contract, key).
					Delete(&schema.LedgerEntry{}).Error
				if err != nil {
					return fmt.Errorf("failed to delete ledger entry: %w", err)
				}
				continue
			}

			row := schema.LedgerEntry{
				Contract: contract,
				Key:      key,
				Value:    entry.Value,
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "contract"}, {Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to upsert ledger entry: %w", err)
			}
		}
		return nil
	})
}
