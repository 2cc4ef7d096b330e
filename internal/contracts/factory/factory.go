// Package factory implements the token factory contract: the paid creation
// path, the registry of deployed tokens, creator-facing lifecycle
// coordination, and the owner-facing administrative surface.
package factory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/hushnetwork/token-factory/internal/contracts/token"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
	"github.com/hushnetwork/token-factory/internal/logger"
)

// Administrative storage layout. Registry keys live in registry.go.
var (
	keyOwner        = []byte{0x00}
	keyPaused       = []byte{0x01}
	keyMinFee       = []byte{0x02}
	keyUpdateFee    = []byte{0x03}
	keyTreasury     = []byte{0x04}
	keyPremiumTiers = []byte{0x05}
	keyDefaultFee   = []byte{0x06}
	keyTemplate     = []byte{0x08}
)

// Factory is a handle on the deployed factory contract
type Factory struct {
	Address common.Address
}

// At returns a handle on the factory instance at addr
func At(addr common.Address) *Factory {
	return &Factory{Address: addr}
}

// Bootstrap initializes the factory's administrative state. It runs exactly
// once; a second call is rejected.
func (f *Factory) Bootstrap(tx *ledger.TxContext, owner common.Address) error {
	store := tx.Storage(f.Address)
	if store.Has(keyOwner) {
		return domain.Statef("factory %s is already initialized", f.Address.Hex())
	}
	if domain.IsZeroAddress(owner) {
		return domain.Validationf("factory owner must not be the zero address")
	}
	store.Put(keyOwner, owner.Bytes())
	putInt64(store, keyMinFee, domain.DefaultMinCreationFee)
	putInt64(store, keyUpdateFee, domain.DefaultUpdateFee)
	putInt64(store, keyDefaultFee, domain.DefaultPlatformFeeRate)
	return nil
}

// IsInitialized reports whether Bootstrap has run
func (f *Factory) IsInitialized(tx *ledger.TxContext) bool {
	return tx.Storage(f.Address).Has(keyOwner)
}

// Owner returns the factory owner
func (f *Factory) Owner(tx *ledger.TxContext) common.Address {
	return common.BytesToAddress(tx.Storage(f.Address).Get(keyOwner))
}

// IsPaused reports whether token creation is suspended
func (f *Factory) IsPaused(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(f.Address), keyPaused)
}

// MinFee returns the minimum creation fee in atomic fee-currency units
func (f *Factory) MinFee(tx *ledger.TxContext) int64 {
	return getInt64(tx.Storage(f.Address), keyMinFee)
}

// UpdateFee returns the flat fee charged per fee-bearing lifecycle mutation
func (f *Factory) UpdateFee(tx *ledger.TxContext) int64 {
	return getInt64(tx.Storage(f.Address), keyUpdateFee)
}

// Treasury returns the treasury account, or the zero address if unset
func (f *Factory) Treasury(tx *ledger.TxContext) common.Address {
	return common.BytesToAddress(tx.Storage(f.Address).Get(keyTreasury))
}

// PremiumTiersEnabled reports whether premium tier assignment is active
func (f *Factory) PremiumTiersEnabled(tx *ledger.TxContext) bool {
	return getBool(tx.Storage(f.Address), keyPremiumTiers)
}

// DefaultPlatformFeeRate returns the platform fee rate stamped onto newly
// created tokens
func (f *Factory) DefaultPlatformFeeRate(tx *ledger.TxContext) int64 {
	return getInt64(tx.Storage(f.Address), keyDefaultFee)
}

// HasTemplate reports whether the token template is installed
func (f *Factory) HasTemplate(tx *ledger.TxContext) bool {
	return tx.Storage(f.Address).Has(keyTemplate)
}

func (f *Factory) templateCodeHash(tx *ledger.TxContext) []byte {
	code := tx.Storage(f.Address).Get(keyTemplate)
	if len(code) == 0 {
		return nil
	}
	return crypto.Keccak256(code)
}

// OnPayment is the settlement callback for inbound native fee currency. A
// payment carrying a creation payload mints a new token; a payment without
// one is accepted silently.
func (f *Factory) OnPayment(tx *ledger.TxContext, payer common.Address, amount *big.Int, payload []any) error {
	if tx.CallingAccount() != ledger.NativeCurrencyAddress {
		return domain.Authorizationf("payment callback must originate from the settlement layer")
	}
	if payload == nil {
		return nil
	}
	if f.IsPaused(tx) {
		return domain.Statef("factory is paused")
	}
	if !f.HasTemplate(tx) {
		return domain.Statef("token template is not installed")
	}
	minFee := big.NewInt(f.MinFee(tx))
	if amount.Cmp(minFee) < 0 {
		return domain.InsufficientPaymentf("payment %s is below the creation fee %s", amount, minFee)
	}
	spec, err := decodeTokenSpec(payload)
	if err != nil {
		return err
	}
	if spec.Mode != domain.ModeCommunity {
		return domain.Validationf("new tokens must start in %s mode", domain.ModeCommunity)
	}
	if spec.CreatorFeeRate < 0 || spec.CreatorFeeRate > domain.MaxCreatorFeeRate {
		return domain.Validationf("creator fee rate %d outside [0, %d]", spec.CreatorFeeRate, domain.MaxCreatorFeeRate)
	}

	addr, err := f.createToken(tx, payer, amount, spec)
	if err != nil {
		return err
	}

	f.forwardToTreasury(tx, amount)

	tx.Emit(domain.EventTokenCreated, f.Address, map[string]any{
		"token":   addr.Hex(),
		"creator": payer.Hex(),
		"symbol":  spec.Symbol,
		"paid":    amount.String(),
	})
	return nil
}

// createToken deploys and initializes a token instance and registers it
func (f *Factory) createToken(tx *ledger.TxContext, creator common.Address, paid *big.Int, spec *domain.TokenSpec) (common.Address, error) {
	count := f.tokenCount(tx)
	manifestName := manifestNameFor(count)

	addr, err := tx.Deploy(f.Address, f.templateCodeHash(tx), manifestName)
	if err != nil {
		return domain.ZeroAddress, err
	}

	tok := token.At(addr)
	initErr := tx.CallAs(f.Address, func() error {
		return tok.Init(tx, domain.DeployParams{
			Name:              spec.Name,
			Symbol:            spec.Symbol,
			InitialSupply:     spec.InitialSupply,
			Decimals:          spec.Decimals,
			Owner:             creator,
			Mintable:          true,
			MaxSupply:         nil,
			Upgradeable:       false,
			MetadataURI:       "",
			Pausable:          false,
			AuthorizedFactory: f.Address,
			PlatformFeeRate:   f.DefaultPlatformFeeRate(tx),
			CreatorFeeRate:    spec.CreatorFeeRate,
		})
	})
	if initErr != nil {
		return domain.ZeroAddress, initErr
	}

	record := &domain.TokenRecord{
		Address:     addr,
		Symbol:      spec.Symbol,
		Creator:     creator,
		Supply:      spec.InitialSupply,
		Mode:        spec.Mode,
		Tier:        f.assignTier(tx, paid),
		CreatedAt:   tx.Now(),
		ImageURL:    spec.ImageURL,
		BurnRateBps: 0,
		MaxSupply:   nil,
		Locked:      false,
	}
	if err := f.register(tx, count, record); err != nil {
		return domain.ZeroAddress, err
	}
	return addr, nil
}

// assignTier grants the premium tier to creation payments of at least three
// times the minimum fee, when premium tiers are enabled
func (f *Factory) assignTier(tx *ledger.TxContext, paid *big.Int) domain.Tier {
	if !f.PremiumTiersEnabled(tx) {
		return domain.TierBasic
	}
	threshold := new(big.Int).Mul(big.NewInt(f.MinFee(tx)), big.NewInt(domain.PremiumTierFeeMultiple))
	if paid.Cmp(threshold) >= 0 {
		return domain.TierPremium
	}
	return domain.TierBasic
}

// forwardToTreasury sweeps the factory balance increment to the treasury
// when one is configured
func (f *Factory) forwardToTreasury(tx *ledger.TxContext, amount *big.Int) {
	treasury := f.Treasury(tx)
	if domain.IsZeroAddress(treasury) {
		return
	}
	// The factory spends its own balance; a treasury that is itself a
	// contract receives a payload-less receipt. The sweep is best-effort:
	// a failure is logged and never aborts the creation that funded it.
	err := tx.CallAs(f.Address, func() error {
		return tx.TransferNative(f.Address, treasury, amount, nil)
	})
	if err != nil {
		logger.WarnCtx(tx.Context(), "Treasury sweep failed",
			zap.Error(err),
			zap.String("treasury", treasury.Hex()),
			zap.String("amount", amount.String()),
		)
	}
}

func decodeTokenSpec(payload []any) (*domain.TokenSpec, error) {
	if len(payload) != domain.TokenSpecFieldCount {
		return nil, domain.Validationf("creation payload must have exactly %d fields, got %d", domain.TokenSpecFieldCount, len(payload))
	}
	name, err := asString(payload[0], "name")
	if err != nil {
		return nil, err
	}
	symbol, err := asString(payload[1], "symbol")
	if err != nil {
		return nil, err
	}
	supply, err := asBigInt(payload[2], "supply")
	if err != nil {
		return nil, err
	}
	decimals, err := asInt64(payload[3], "decimals")
	if err != nil {
		return nil, err
	}
	if decimals < 0 || decimals > domain.MaxDecimals {
		return nil, domain.Validationf("decimals %d outside [0, %d]", decimals, domain.MaxDecimals)
	}
	mode, err := asString(payload[4], "mode")
	if err != nil {
		return nil, err
	}
	if !domain.IsValidMode(domain.Mode(mode)) {
		return nil, domain.Validationf("unknown mode %q", mode)
	}
	imageURL, err := asString(payload[5], "imageUrl")
	if err != nil {
		return nil, err
	}
	creatorFee, err := asInt64(payload[6], "creatorFeeRate")
	if err != nil {
		return nil, err
	}
	return &domain.TokenSpec{
		Name:           name,
		Symbol:         symbol,
		InitialSupply:  supply,
		Decimals:       uint8(decimals),
		Mode:           domain.Mode(mode),
		ImageURL:       imageURL,
		CreatorFeeRate: creatorFee,
	}, nil
}

func asString(v any, field string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", domain.Validationf("payload field %s must be a string", field)
	}
	return s, nil
}

func asInt64(v any, field string) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case *big.Int:
		if !n.IsInt64() {
			return 0, domain.Validationf("payload field %s is out of range", field)
		}
		return n.Int64(), nil
	default:
		return 0, domain.Validationf("payload field %s must be an integer", field)
	}
}

func asBigInt(v any, field string) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	default:
		return nil, domain.Validationf("payload field %s must be an integer", field)
	}
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
