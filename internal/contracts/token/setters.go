package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// requireFactory rejects callers other than the stored authorized factory.
// Authorization is capability-based: whoever holds the pointer drives the
// instance, regardless of who owns it.
func (t *Token) requireFactory(tx *ledger.TxContext) error {
	factory := t.AuthorizedFactory(tx)
	if domain.IsZeroAddress(factory) || tx.CallingAccount() != factory {
		return domain.Authorizationf("caller is not the authorized factory of token %s", t.Address.Hex())
	}
	return nil
}

// requireOwner rejects transactions not witnessed by the owner
func (t *Token) requireOwner(tx *ledger.TxContext) error {
	owner := t.Owner(tx)
	if domain.IsZeroAddress(owner) || !tx.CheckWitness(owner) {
		return domain.Authorizationf("transaction is not signed by the owner of token %s", t.Address.Hex())
	}
	return nil
}

func (t *Token) requireNotLocked(tx *ledger.TxContext) error {
	if t.Locked(tx) {
		return domain.Statef("token %s is locked", t.Address.Hex())
	}
	return nil
}

// SetBurnRate sets the proportional per-transfer burn. Factory-gated.
func (t *Token) SetBurnRate(tx *ledger.TxContext, bps int64) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	if bps < 0 || bps > domain.MaxBurnRateBps {
		return domain.Validationf("burn rate %d outside [0, %d]", bps, domain.MaxBurnRateBps)
	}
	putInt64(tx.Storage(t.Address), keyBurnRate, bps)
	tx.Emit(domain.EventBurnRateChanged, t.Address, map[string]any{"burn_rate_bps": bps})
	return nil
}

// SetMetadataURI replaces the metadata URI. Factory-gated.
func (t *Token) SetMetadataURI(tx *ledger.TxContext, uri string) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	store := tx.Storage(t.Address)
	if uri == "" {
		store.Delete(keyMetadataURI)
	} else {
		store.Put(keyMetadataURI, []byte(uri))
	}
	tx.Emit(domain.EventMetadataChanged, t.Address, map[string]any{"metadata_uri": uri})
	return nil
}

// SetMaxSupply sets or re-sets the supply cap. The new cap must cover the
// supply already in circulation. Factory-gated.
func (t *Token) SetMaxSupply(tx *ledger.TxContext, maxSupply *big.Int) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	if maxSupply == nil || maxSupply.Sign() <= 0 {
		return domain.Validationf("max supply must be positive")
	}
	if maxSupply.Cmp(t.TotalSupply(tx)) < 0 {
		return domain.Validationf("max supply %s is below current supply %s", maxSupply, t.TotalSupply(tx))
	}
	tx.Storage(t.Address).PutBigInt(keyMaxSupply, maxSupply)
	tx.Emit(domain.EventMaxSupplyChanged, t.Address, map[string]any{"max_supply": maxSupply.String()})
	return nil
}

// SetCreatorFee sets the flat per-transfer creator fee. Factory-gated.
func (t *Token) SetCreatorFee(tx *ledger.TxContext, rate int64) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	if rate < 0 || rate > domain.MaxCreatorFeeRate {
		return domain.Validationf("creator fee rate %d outside [0, %d]", rate, domain.MaxCreatorFeeRate)
	}
	putInt64(tx.Storage(t.Address), keyCreatorFee, rate)
	tx.Emit(domain.EventCreatorFeeChanged, t.Address, map[string]any{"creator_fee_rate": rate})
	return nil
}

// SetPlatformFeeRate sets the flat per-transfer platform fee. Factory-gated.
func (t *Token) SetPlatformFeeRate(tx *ledger.TxContext, rate int64) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	if rate < 0 || rate > domain.MaxPlatformFeeRate {
		return domain.Validationf("platform fee rate %d outside [0, %d]", rate, domain.MaxPlatformFeeRate)
	}
	putInt64(tx.Storage(t.Address), keyPlatformFee, rate)
	tx.Emit(domain.EventPlatformFee, t.Address, map[string]any{"platform_fee_rate": rate})
	return nil
}

// AuthorizeFactory repoints the instance at a new factory. Only the current
// authorized factory can hand over control.
func (t *Token) AuthorizeFactory(tx *ledger.TxContext, factory common.Address) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if domain.IsZeroAddress(factory) {
		return domain.Validationf("authorized factory must not be the zero address")
	}
	tx.Storage(t.Address).Put(keyFactory, factory.Bytes())
	tx.Emit(domain.EventFactoryAuthorized, t.Address, map[string]any{"factory": factory.Hex()})
	return nil
}

// Lock permanently locks the instance. Factory-gated and irreversible;
// there is no unlock.
func (t *Token) Lock(tx *ledger.TxContext) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if t.Locked(tx) {
		return domain.Statef("token %s is already locked", t.Address.Hex())
	}
	putBool(tx.Storage(t.Address), keyLocked, true)
	tx.Emit(domain.EventTokenLocked, t.Address, nil)
	return nil
}

// MintByFactory mints new supply on behalf of the factory. Factory-gated.
func (t *Token) MintByFactory(tx *ledger.TxContext, to common.Address, amount *big.Int) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	return t.mint(tx, to, amount)
}

// Mint mints new supply. Owner-gated.
func (t *Token) Mint(tx *ledger.TxContext, to common.Address, amount *big.Int) error {
	if err := t.requireOwner(tx); err != nil {
		return err
	}
	return t.mint(tx, to, amount)
}

func (t *Token) mint(tx *ledger.TxContext, to common.Address, amount *big.Int) error {
	if !t.Mintable(tx) {
		return domain.Statef("token %s is not mintable", t.Address.Hex())
	}
	if domain.IsZeroAddress(to) {
		return domain.Validationf("mint recipient must not be the zero address")
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.Validationf("mint amount must be positive")
	}

	store := tx.Storage(t.Address)
	newSupply := new(big.Int).Add(t.TotalSupply(tx), amount)
	if maxSupply := t.MaxSupply(tx); maxSupply != nil && newSupply.Cmp(maxSupply) > 0 {
		return domain.Validationf("minting %s would exceed max supply %s", amount, maxSupply)
	}

	store.PutBigInt(keyTotalSupply, newSupply)
	store.PutBigInt(balanceKey(to), new(big.Int).Add(t.BalanceOf(tx, to), amount))
	tx.Emit(domain.EventTokenMinted, t.Address, map[string]any{
		"to":     to.Hex(),
		"amount": amount.String(),
	})
	return nil
}

// SetOwner transfers ownership. Owner-gated.
func (t *Token) SetOwner(tx *ledger.TxContext, newOwner common.Address) error {
	if err := t.requireOwner(tx); err != nil {
		return err
	}
	if domain.IsZeroAddress(newOwner) {
		return domain.Validationf("new owner must not be the zero address")
	}
	tx.Storage(t.Address).Put(keyOwner, newOwner.Bytes())
	tx.Emit(domain.EventOwnerChanged, t.Address, map[string]any{"owner": newOwner.Hex()})
	return nil
}

// SetPausable toggles whether the instance can be paused. Factory-gated.
func (t *Token) SetPausable(tx *ledger.TxContext, pausable bool) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if err := t.requireNotLocked(tx); err != nil {
		return err
	}
	putBool(tx.Storage(t.Address), keyPausable, pausable)
	tx.Emit(domain.EventPausableChanged, t.Address, map[string]any{"pausable": pausable})
	return nil
}

// Pause suspends transfers. Factory-gated; requires the pausable flag and
// stays available on locked tokens.
func (t *Token) Pause(tx *ledger.TxContext) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if !t.Pausable(tx) {
		return domain.Statef("token %s is not pausable", t.Address.Hex())
	}
	if t.Paused(tx) {
		return domain.Statef("token %s is already paused", t.Address.Hex())
	}
	putBool(tx.Storage(t.Address), keyPaused, true)
	return nil
}

// Unpause resumes transfers. Factory-gated; stays available on locked tokens.
func (t *Token) Unpause(tx *ledger.TxContext) error {
	if err := t.requireFactory(tx); err != nil {
		return err
	}
	if !t.Paused(tx) {
		return domain.Statef("token %s is not paused", t.Address.Hex())
	}
	putBool(tx.Storage(t.Address), keyPaused, false)
	return nil
}
