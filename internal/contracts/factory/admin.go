package factory

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/contracts/token"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// BatchResult reports one page of a batch migration
type BatchResult struct {
	Processed uint64 `json:"processed"`
	Skipped   uint64 `json:"skipped"`
	Next      uint64 `json:"next"`
	Total     uint64 `json:"total"`
}

func (f *Factory) requireOwner(tx *ledger.TxContext) error {
	owner := f.Owner(tx)
	if domain.IsZeroAddress(owner) || !tx.CheckWitness(owner) {
		return domain.Authorizationf("transaction is not signed by the factory owner")
	}
	return nil
}

// SetOwner transfers factory ownership. Owner-gated.
func (f *Factory) SetOwner(tx *ledger.TxContext, newOwner common.Address) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if domain.IsZeroAddress(newOwner) {
		return domain.Validationf("new owner must not be the zero address")
	}
	tx.Storage(f.Address).Put(keyOwner, newOwner.Bytes())
	tx.Emit(domain.EventOwnerChanged, f.Address, map[string]any{"owner": newOwner.Hex()})
	return nil
}

// SetTemplate installs the token code template used for deployments.
// Owner-gated.
func (f *Factory) SetTemplate(tx *ledger.TxContext, code []byte) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if len(code) == 0 {
		return domain.Validationf("template code must not be empty")
	}
	tx.Storage(f.Address).Put(keyTemplate, code)
	return nil
}

// SetFee sets the minimum creation fee. Owner-gated.
func (f *Factory) SetFee(tx *ledger.TxContext, fee int64) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if fee <= 0 {
		return domain.Validationf("creation fee must be positive")
	}
	putInt64(tx.Storage(f.Address), keyMinFee, fee)
	return nil
}

// SetUpdateFee sets the flat administrative fee charged per fee-bearing
// lifecycle mutation. Owner-gated.
func (f *Factory) SetUpdateFee(tx *ledger.TxContext, fee int64) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if fee < 0 {
		return domain.Validationf("update fee must be non-negative")
	}
	putInt64(tx.Storage(f.Address), keyUpdateFee, fee)
	return nil
}

// SetTreasuryAddress sets the account creation fees are swept to.
// Owner-gated.
func (f *Factory) SetTreasuryAddress(tx *ledger.TxContext, treasury common.Address) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if domain.IsZeroAddress(treasury) {
		return domain.Validationf("treasury must not be the zero address")
	}
	tx.Storage(f.Address).Put(keyTreasury, treasury.Bytes())
	return nil
}

// SetPremiumTiersEnabled toggles premium tier assignment. Owner-gated.
func (f *Factory) SetPremiumTiersEnabled(tx *ledger.TxContext, enabled bool) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	putBool(tx.Storage(f.Address), keyPremiumTiers, enabled)
	return nil
}

// Pause suspends token creation. Owner-gated.
func (f *Factory) Pause(tx *ledger.TxContext) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if f.IsPaused(tx) {
		return domain.Statef("factory is already paused")
	}
	putBool(tx.Storage(f.Address), keyPaused, true)
	tx.Emit(domain.EventFactoryPaused, f.Address, nil)
	return nil
}

// Unpause resumes token creation. Owner-gated.
func (f *Factory) Unpause(tx *ledger.TxContext) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if !f.IsPaused(tx) {
		return domain.Statef("factory is not paused")
	}
	putBool(tx.Storage(f.Address), keyPaused, false)
	tx.Emit(domain.EventFactoryUnpaused, f.Address, nil)
	return nil
}

// AuthorizeTokenFactory hands a single managed token over to a new factory.
// Owner-gated; the handoff is irrevocable for this factory.
func (f *Factory) AuthorizeTokenFactory(tx *ledger.TxContext, tokenAddr, newFactory common.Address) error {
	if err := f.requireOwner(tx); err != nil {
		return err
	}
	if _, err := f.GetToken(tx, tokenAddr); err != nil {
		return err
	}
	return f.asSelf(tx, func() error {
		return token.At(tokenAddr).AuthorizeFactory(tx, newFactory)
	})
}

// AuthorizeAllTokens repoints one page of managed tokens at a new factory,
// for migration. Tokens this factory no longer controls are skipped, not
// fatal. Owner-gated; the page size is clamped.
func (f *Factory) AuthorizeAllTokens(tx *ledger.TxContext, newFactory common.Address, offset, batchSize uint64) (*BatchResult, error) {
	if err := f.requireOwner(tx); err != nil {
		return nil, err
	}
	if domain.IsZeroAddress(newFactory) {
		return nil, domain.Validationf("new factory must not be the zero address")
	}
	return f.forEachToken(tx, offset, batchSize, func(tok *token.Token) error {
		return tok.AuthorizeFactory(tx, newFactory)
	})
}

// SetAllPlatformFee applies a new flat platform fee to one page of managed
// tokens and makes it the default for future creations. Owner-gated; the
// page size is clamped.
func (f *Factory) SetAllPlatformFee(tx *ledger.TxContext, rate int64, offset, batchSize uint64) (*BatchResult, error) {
	if err := f.requireOwner(tx); err != nil {
		return nil, err
	}
	if rate < 0 || rate > domain.MaxPlatformFeeRate {
		return nil, domain.Validationf("platform fee rate %d outside [0, %d]", rate, domain.MaxPlatformFeeRate)
	}
	putInt64(tx.Storage(f.Address), keyDefaultFee, rate)
	return f.forEachToken(tx, offset, batchSize, func(tok *token.Token) error {
		return tok.SetPlatformFeeRate(tx, rate)
	})
}

// forEachToken walks one clamped page of the global index and applies op as
// the factory, counting failures as skips
func (f *Factory) forEachToken(tx *ledger.TxContext, offset, batchSize uint64, op func(tok *token.Token) error) (*BatchResult, error) {
	if batchSize == 0 || batchSize > domain.MaxBatchSize {
		batchSize = domain.MaxBatchSize
	}
	total := f.tokenCount(tx)

	result := &BatchResult{Total: total}
	seq := offset
	for ; seq < total && seq < offset+batchSize; seq++ {
		addr := common.BytesToAddress(tx.Storage(f.Address).Get(globalIndexKey(seq)))
		if domain.IsZeroAddress(addr) {
			result.Skipped++
			continue
		}
		err := f.asSelf(tx, func() error { return op(token.At(addr)) })
		if err != nil {
			result.Skipped++
			continue
		}
		result.Processed++
	}
	result.Next = seq

	tx.Emit(domain.EventBatchProgress, f.Address, map[string]any{
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"next":      result.Next,
		"total":     result.Total,
	})
	return result, nil
}
