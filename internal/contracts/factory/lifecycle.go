package factory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/contracts/token"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// requireCreator rejects transactions not witnessed by the token's creator
func (f *Factory) requireCreator(tx *ledger.TxContext, record *domain.TokenRecord) error {
	if !tx.CheckWitness(record.Creator) {
		return domain.Authorizationf("transaction is not signed by the creator of token %s", record.Address.Hex())
	}
	return nil
}

// chargeUpdateFee collects the flat administrative fee from the payer. The
// factory's own payment callback treats the payload-less receipt silently.
func (f *Factory) chargeUpdateFee(tx *ledger.TxContext, payer common.Address) error {
	fee := f.UpdateFee(tx)
	if fee <= 0 {
		return nil
	}
	return tx.TransferNative(payer, f.Address, big.NewInt(fee), nil)
}

// asSelf runs fn with the factory on the caller stack, so the token
// instance's capability check sees the factory as the caller
func (f *Factory) asSelf(tx *ledger.TxContext, fn func() error) error {
	return tx.CallAs(f.Address, fn)
}

// MintTokens mints new supply on a managed token. Creator-gated; charges
// the update fee.
func (f *Factory) MintTokens(tx *ledger.TxContext, tokenAddr, to common.Address, amount *big.Int) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).MintByFactory(tx, to, amount)
	}); err != nil {
		return err
	}
	if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
		return err
	}
	record.Supply = new(big.Int).Add(record.Supply, amount)
	return f.putRecord(tx, record)
}

// SetTokenBurnRate sets a managed token's proportional transfer burn.
// Creator-gated; charges the update fee.
func (f *Factory) SetTokenBurnRate(tx *ledger.TxContext, tokenAddr common.Address, bps int64) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).SetBurnRate(tx, bps)
	}); err != nil {
		return err
	}
	if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
		return err
	}
	record.BurnRateBps = bps
	return f.putRecord(tx, record)
}

// SetTokenMaxSupply sets a managed token's supply cap. Creator-gated;
// charges the update fee.
func (f *Factory) SetTokenMaxSupply(tx *ledger.TxContext, tokenAddr common.Address, maxSupply *big.Int) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).SetMaxSupply(tx, maxSupply)
	}); err != nil {
		return err
	}
	if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
		return err
	}
	record.MaxSupply = maxSupply
	return f.putRecord(tx, record)
}

// UpdateTokenMetadata updates the registry image URL and the instance
// metadata URI. Creator-gated; charges the update fee.
func (f *Factory) UpdateTokenMetadata(tx *ledger.TxContext, tokenAddr common.Address, imageURL, metadataURI string) error {
	if imageURL == "" && metadataURI == "" {
		return domain.Validationf("no metadata changes requested")
	}
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if record.Locked {
		return domain.Statef("token %s is locked", tokenAddr.Hex())
	}
	if metadataURI != "" {
		if err := f.asSelf(tx, func() error {
			return token.At(tokenAddr).SetMetadataURI(tx, metadataURI)
		}); err != nil {
			return err
		}
	}
	if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
		return err
	}
	if imageURL != "" {
		record.ImageURL = imageURL
		tx.Emit(domain.EventMetadataChanged, tokenAddr, map[string]any{"image_url": imageURL})
	}
	return f.putRecord(tx, record)
}

// SetCreatorFee sets a managed token's flat per-transfer creator fee.
// Creator-gated; charges the update fee.
func (f *Factory) SetCreatorFee(tx *ledger.TxContext, tokenAddr common.Address, rate int64) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).SetCreatorFee(tx, rate)
	}); err != nil {
		return err
	}
	if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
		return err
	}
	return f.putRecord(tx, record)
}

// ChangeTokenMode moves a token between economic modes. Community is the
// hub: speculation and crowdfunding are entered from and left to community
// only. Auxiliary parameters are stored only when non-empty. Creator-gated;
// charges the update fee.
func (f *Factory) ChangeTokenMode(tx *ledger.TxContext, tokenAddr common.Address, newMode domain.Mode, params domain.ModeParams) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if record.Locked {
		return domain.Statef("token %s is locked", tokenAddr.Hex())
	}
	if err := f.changeMode(tx, record, newMode, params); err != nil {
		return err
	}
	if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
		return err
	}
	return f.putRecord(tx, record)
}

func (f *Factory) changeMode(tx *ledger.TxContext, record *domain.TokenRecord, newMode domain.Mode, params domain.ModeParams) error {
	if !domain.IsValidMode(newMode) {
		return domain.Validationf("unknown mode %q", newMode)
	}
	if !domain.CanTransition(record.Mode, newMode) {
		return domain.Statef("mode change %s -> %s is not allowed", record.Mode, newMode)
	}
	if len(params) > 0 {
		if err := f.putModeParams(tx, record.Address, params); err != nil {
			return err
		}
	}
	tx.Emit(domain.EventModeChanged, record.Address, map[string]any{
		"from": string(record.Mode),
		"to":   string(newMode),
	})
	record.Mode = newMode
	return nil
}

// LockToken permanently locks a managed token. Creator-gated and free of
// charge; there is no unlock.
func (f *Factory) LockToken(tx *ledger.TxContext, tokenAddr common.Address) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).Lock(tx)
	}); err != nil {
		return err
	}
	record.Locked = true
	return f.putRecord(tx, record)
}

// SetTokenPausable toggles a managed token's pausable flag. Creator-gated;
// charges the update fee.
func (f *Factory) SetTokenPausable(tx *ledger.TxContext, tokenAddr common.Address, pausable bool) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).SetPausable(tx, pausable)
	}); err != nil {
		return err
	}
	return f.chargeUpdateFee(tx, record.Creator)
}

// PauseToken suspends transfers on a managed token. Creator-gated; charges
// the update fee. Pausing stays available after the token is locked.
func (f *Factory) PauseToken(tx *ledger.TxContext, tokenAddr common.Address) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).Pause(tx)
	}); err != nil {
		return err
	}
	return f.chargeUpdateFee(tx, record.Creator)
}

// UnpauseToken resumes transfers on a managed token. Creator-gated; charges
// the update fee.
func (f *Factory) UnpauseToken(tx *ledger.TxContext, tokenAddr common.Address) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}
	if err := f.asSelf(tx, func() error {
		return token.At(tokenAddr).Unpause(tx)
	}); err != nil {
		return err
	}
	return f.chargeUpdateFee(tx, record.Creator)
}

// ApplyTokenChanges batches several lifecycle edits into one atomic call.
// Sentinel values leave a field unchanged: empty strings, negative numeric
// fields, a zero mint amount. Requesting nothing at all is rejected, as is
// combining a supply cap change with a mint. One update fee covers the whole
// batch; a batch that only locks is free. Creator-gated.
func (f *Factory) ApplyTokenChanges(tx *ledger.TxContext, tokenAddr common.Address, changes domain.TokenChanges) error {
	record, err := f.GetToken(tx, tokenAddr)
	if err != nil {
		return err
	}
	if err := f.requireCreator(tx, record); err != nil {
		return err
	}

	hasImage := changes.ImageURL != ""
	hasBurnRate := changes.BurnRateBps >= 0
	hasCreatorFee := changes.CreatorFeeRate >= 0
	hasMode := changes.NewMode != ""
	hasMaxSupply := changes.NewMaxSupply != nil && changes.NewMaxSupply.Sign() >= 0
	hasMint := changes.MintAmount != nil && changes.MintAmount.Sign() > 0

	feeBearing := hasImage || hasBurnRate || hasCreatorFee || hasMode || hasMaxSupply || hasMint
	if !feeBearing && !changes.Lock {
		return domain.Validationf("no changes requested")
	}
	if hasMaxSupply && hasMint {
		return domain.Validationf("a supply cap change and a mint cannot be combined")
	}
	if record.Locked {
		return domain.Statef("token %s is locked", tokenAddr.Hex())
	}

	tok := token.At(tokenAddr)

	if hasImage {
		record.ImageURL = changes.ImageURL
		tx.Emit(domain.EventMetadataChanged, tokenAddr, map[string]any{"image_url": changes.ImageURL})
	}
	if hasBurnRate {
		if err := f.asSelf(tx, func() error { return tok.SetBurnRate(tx, changes.BurnRateBps) }); err != nil {
			return err
		}
		record.BurnRateBps = changes.BurnRateBps
	}
	if hasCreatorFee {
		if err := f.asSelf(tx, func() error { return tok.SetCreatorFee(tx, changes.CreatorFeeRate) }); err != nil {
			return err
		}
	}
	if hasMode {
		if err := f.changeMode(tx, record, changes.NewMode, changes.ModeParams); err != nil {
			return err
		}
	}
	if hasMaxSupply {
		if err := f.asSelf(tx, func() error { return tok.SetMaxSupply(tx, changes.NewMaxSupply) }); err != nil {
			return err
		}
		record.MaxSupply = changes.NewMaxSupply
	}
	if hasMint {
		if domain.IsZeroAddress(changes.MintTo) {
			return domain.Validationf("mint recipient must not be the zero address")
		}
		if err := f.asSelf(tx, func() error { return tok.MintByFactory(tx, changes.MintTo, changes.MintAmount) }); err != nil {
			return err
		}
		record.Supply = new(big.Int).Add(record.Supply, changes.MintAmount)
	}
	if changes.Lock {
		if err := f.asSelf(tx, func() error { return tok.Lock(tx) }); err != nil {
			return err
		}
		record.Locked = true
	}

	if feeBearing {
		if err := f.chargeUpdateFee(tx, record.Creator); err != nil {
			return err
		}
	}
	return f.putRecord(tx, record)
}
