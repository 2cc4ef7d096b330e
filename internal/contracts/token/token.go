// Package token implements a deployed token instance: per-instance storage,
// owner- and factory-gated mutation, and the per-transfer fee engine.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// Storage layout. Balances live under the 0x01 prefix keyed by account
// bytes; everything else is a fixed single-byte key.
var (
	keyTotalSupply = []byte{0x00}
	prefixBalance  = []byte{0x01}
	keyName        = []byte{0x10}
	keySymbol      = []byte{0x11}
	keyDecimals    = []byte{0x12}
	keyMintable    = []byte{0x13}
	keyMaxSupply   = []byte{0x14}
	keyUpgradeable = []byte{0x15}
	keyPausable    = []byte{0x16}
	keyPaused      = []byte{0x17}
	keyFactory     = []byte{0x18}
	keyMetadataURI = []byte{0x19}
	keyPlatformFee = []byte{0x1a}
	keyCreatorFee  = []byte{0x1b}
	keyBurnRate    = []byte{0x1c}
	keyLocked      = []byte{0x1d}
	keyOwner       = []byte{0xff}
)

// Token is a handle on one deployed token instance. It carries no state of
// its own; every read and write goes through the transaction's storage view.
type Token struct {
	Address common.Address
}

// At returns a handle on the token instance at addr
func At(addr common.Address) *Token {
	return &Token{Address: addr}
}

func balanceKey(account common.Address) []byte {
	return append(append([]byte{}, prefixBalance...), account.Bytes()...)
}

// Init writes the instance's initial state. It runs exactly once, right
// after deployment; a second call is rejected.
func (t *Token) Init(tx *ledger.TxContext, p domain.DeployParams) error {
	store := tx.Storage(t.Address)
	if store.Has(keyName) {
		return domain.Statef("token %s is already initialized", t.Address.Hex())
	}

	if p.Name == "" {
		return domain.Validationf("token name must not be empty")
	}
	if p.Symbol == "" {
		return domain.Validationf("token symbol must not be empty")
	}
	if p.Decimals > domain.MaxDecimals {
		return domain.Validationf("decimals %d exceeds maximum %d", p.Decimals, domain.MaxDecimals)
	}
	if domain.IsZeroAddress(p.Owner) {
		return domain.Validationf("token owner must not be the zero address")
	}
	if domain.IsZeroAddress(p.AuthorizedFactory) {
		return domain.Validationf("authorized factory must not be the zero address")
	}
	if p.InitialSupply == nil || p.InitialSupply.Sign() < 0 {
		return domain.Validationf("initial supply must be non-negative")
	}
	capped := p.MaxSupply != nil && p.MaxSupply.Sign() > 0
	if capped && p.InitialSupply.Cmp(p.MaxSupply) > 0 {
		return domain.Validationf("initial supply %s exceeds max supply %s", p.InitialSupply, p.MaxSupply)
	}
	if p.PlatformFeeRate < 0 || p.PlatformFeeRate > domain.MaxPlatformFeeRate {
		return domain.Validationf("platform fee rate %d outside [0, %d]", p.PlatformFeeRate, domain.MaxPlatformFeeRate)
	}
	if p.CreatorFeeRate < 0 || p.CreatorFeeRate > domain.MaxCreatorFeeRate {
		return domain.Validationf("creator fee rate %d outside [0, %d]", p.CreatorFeeRate, domain.MaxCreatorFeeRate)
	}

	store.Put(keyName, []byte(p.Name))
	store.Put(keySymbol, []byte(p.Symbol))
	store.Put(keyDecimals, []byte{p.Decimals})
	store.Put(keyOwner, p.Owner.Bytes())
	store.Put(keyFactory, p.AuthorizedFactory.Bytes())
	putBool(store, keyMintable, p.Mintable)
	putBool(store, keyUpgradeable, p.Upgradeable)
	putBool(store, keyPausable, p.Pausable)
	if p.MetadataURI != "" {
		store.Put(keyMetadataURI, []byte(p.MetadataURI))
	}
	if capped {
		store.PutBigInt(keyMaxSupply, p.MaxSupply)
	}
	putInt64(store, keyPlatformFee, p.PlatformFeeRate)
	putInt64(store, keyCreatorFee, p.CreatorFeeRate)

	if p.InitialSupply.Sign() > 0 {
		store.PutBigInt(keyTotalSupply, p.InitialSupply)
		store.PutBigInt(balanceKey(p.Owner), p.InitialSupply)
	}
	return nil
}

// Name returns the token name
func (t *Token) Name(tx *ledger.TxContext) string {
	return string(tx.Storage(t.Address).Get(keyName))
}

// Symbol returns the token symbol
func (t *Token) Symbol(tx *ledger.TxContext) string {
	return string(tx.Storage(t.Address).Get(keySymbol))
}

// Decimals returns the token's decimal precision
func (t *Token) Decimals(tx *ledger.TxContext) uint8 {
	raw := tx.Storage(t.Address).Get(keyDecimals)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

// TotalSupply returns the current total supply
func (t *Token) TotalSupply(tx *ledger.TxContext) *big.Int {
	return tx.Storage(t.Address).GetBigInt(keyTotalSupply)
}

// BalanceOf returns the balance of an account
func (t *Token) BalanceOf(tx *ledger.TxContext, account common.Address) *big.Int {
	return tx.Storage(t.Address).GetBigInt(balanceKey(account))
}

// Owner returns the current owner account
func (t *Token) Owner(tx *ledger.TxContext) common.Address {
	return common.BytesToAddress(tx.Storage(t.Address).Get(keyOwner))
}

// AuthorizedFactory returns the factory account allowed to drive this
// instance's factory-gated operations
func (t *Token) AuthorizedFactory(tx *ledger.TxContext) common.Address {
	return common.BytesToAddress(tx.Storage(t.Address).Get(keyFactory))
}

// MaxSupply returns the supply cap, or nil if the supply is uncapped
func (t *Token) MaxSupply(tx *ledger.TxContext) *big.Int {
	if !tx.Storage(t.Address).Has(keyMaxSupply) {
		return nil
	}
	return tx.Storage(t.Address).GetBigInt(keyMaxSupply)
}

// MetadataURI returns the metadata URI
func (t *Token) MetadataURI(tx *ledger.TxContext) string {
	return string(tx.Storage(t.Address).Get(keyMetadataURI))
}

// Mintable reports whether new supply can be minted
func (t *Token) Mintable(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(t.Address), keyMintable)
}

// Upgradeable reports whether the instance accepts code upgrades
func (t *Token) Upgradeable(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(t.Address), keyUpgradeable)
}

// Pausable reports whether transfers can be paused
func (t *Token) Pausable(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(t.Address), keyPausable)
}

// Paused reports whether transfers are currently paused
func (t *Token) Paused(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(t.Address), keyPaused)
}

// Locked reports whether the instance is permanently locked against
// fee-bearing mutation
func (t *Token) Locked(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(t.Address), keyLocked)
}

// PlatformFeeRate returns the flat per-transfer platform fee in atomic
// fee-currency units
func (t *Token) PlatformFeeRate(tx *ledger.TxContext) int64 {
	return getInt64(tx.Storage(t.Address), keyPlatformFee)
}

// CreatorFeeRate returns the flat per-transfer creator fee in atomic
// fee-currency units
func (t *Token) CreatorFeeRate(tx *ledger.TxContext) int64 {
	return getInt64(tx.Storage(t.Address), keyCreatorFee)
}

// BurnRateBps returns the proportional per-transfer burn in basis points
func (t *Token) BurnRateBps(tx *ledger.TxContext) int64 {
	return getInt64(tx.Storage(t.Address), keyBurnRate)
}

func putBool(store *ledger.Storage, key []byte, v bool) {
	if v {
		store.Put(key, []byte{1})
	} else {
		store.Delete(key)
	}
}

func getBool(store *ledger.Storage, key []byte) bool {
	raw := store.Get(key)
	return len(raw) == 1 && raw[0] == 1
}

func putInt64(store *ledger.Storage, key []byte, v int64) {
	store.PutBigInt(key, big.NewInt(v))
}

func getInt64(store *ledger.Storage, key []byte) int64 {
	return store.GetBigInt(key).Int64()
}
