package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

var bpsDenominator = big.NewInt(domain.BpsDenominator)

// Transfer moves amount token units from one account to another, running the
// fee engine on the way:
//
//  1. Flat platform and creator fees are charged in native fee currency,
//     before any balance moves. Only direct transfers pay them; a transfer
//     relayed by a contract on the sender's behalf is exempt.
//  2. A transfer to the zero address burns the full amount and skips the
//     proportional burn.
//  3. Otherwise the proportional burn is taken out of amount and the
//     remainder is credited to the recipient.
//
// A fee-currency shortfall aborts the whole transfer.
func (t *Token) Transfer(tx *ledger.TxContext, from, to common.Address, amount *big.Int) error {
	if domain.IsZeroAddress(from) {
		return domain.Validationf("transfer sender must not be the zero address")
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.Validationf("transfer amount must be non-negative")
	}
	if t.Paused(tx) {
		return domain.Statef("token %s is paused", t.Address.Hex())
	}

	direct := tx.CheckWitness(from)
	if !direct && tx.CallingAccount() != from {
		return domain.Authorizationf("account %s has not authorized this transfer", from.Hex())
	}

	fromBalance := t.BalanceOf(tx, from)
	if fromBalance.Cmp(amount) < 0 {
		return domain.Statef("balance %s is below transfer amount %s", fromBalance, amount)
	}

	if direct {
		if err := t.chargeTransferFees(tx, from); err != nil {
			return err
		}
	}

	store := tx.Storage(t.Address)
	if domain.IsZeroAddress(to) {
		// Explicit burn of the full amount
		store.PutBigInt(balanceKey(from), new(big.Int).Sub(fromBalance, amount))
		store.PutBigInt(keyTotalSupply, new(big.Int).Sub(t.TotalSupply(tx), amount))
		tx.Emit(domain.EventTokenBurned, t.Address, map[string]any{
			"from":   from.Hex(),
			"amount": amount.String(),
		})
		return nil
	}

	burn := t.proportionalBurn(tx, amount)
	moved := new(big.Int).Sub(amount, burn)

	store.PutBigInt(balanceKey(from), new(big.Int).Sub(fromBalance, amount))
	store.PutBigInt(balanceKey(to), new(big.Int).Add(t.BalanceOf(tx, to), moved))
	if burn.Sign() > 0 {
		store.PutBigInt(keyTotalSupply, new(big.Int).Sub(t.TotalSupply(tx), burn))
		tx.Emit(domain.EventTokenBurned, t.Address, map[string]any{
			"from":   from.Hex(),
			"amount": burn.String(),
		})
	}
	tx.Emit(domain.EventTokenTransferred, t.Address, map[string]any{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": moved.String(),
	})
	return nil
}

// chargeTransferFees collects the flat platform and creator fees in native
// fee currency. The platform fee goes to the authorized factory, the creator
// fee to the token owner.
func (t *Token) chargeTransferFees(tx *ledger.TxContext, from common.Address) error {
	if rate := t.PlatformFeeRate(tx); rate > 0 {
		factory := t.AuthorizedFactory(tx)
		if !domain.IsZeroAddress(factory) {
			if err := tx.TransferNative(from, factory, big.NewInt(rate), nil); err != nil {
				return err
			}
		}
	}
	if rate := t.CreatorFeeRate(tx); rate > 0 {
		owner := t.Owner(tx)
		if !domain.IsZeroAddress(owner) && owner != from {
			if err := tx.TransferNative(from, owner, big.NewInt(rate), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// proportionalBurn computes floor(amount * burnRateBps / 10000). With the
// burn rate capped at 1000 bps the burn can never consume the whole amount.
func (t *Token) proportionalBurn(tx *ledger.TxContext, amount *big.Int) *big.Int {
	bps := t.BurnRateBps(tx)
	if bps <= 0 || amount.Sign() == 0 {
		return new(big.Int)
	}
	burn := new(big.Int).Mul(amount, big.NewInt(bps))
	return burn.Div(burn, bpsDenominator)
}
