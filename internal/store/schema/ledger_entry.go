package schema

import "time"

// LedgerEntry stores one committed contract storage cell. The in-memory
// ledger is the source of truth at runtime; this table is its write-through
// copy, replayed on boot.
type LedgerEntry struct {
	Contract  string    `gorm:"primaryKey;type:text"`
	Key       string    `gorm:"primaryKey;type:text"`
	Value     []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
