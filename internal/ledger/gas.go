package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/domain"
)

// NativeCurrencyAddress is the reserved account of the settlement primitive.
// Its storage holds every account's native fee-currency balance, and it is
// the calling account contracts observe inside a payment callback.
var NativeCurrencyAddress = common.HexToAddress("0x000000000000000000000000000000000000ff00")

var nativeBalancePrefix = []byte{0x01}

func nativeBalanceKey(account common.Address) []byte {
	return append(append([]byte{}, nativeBalancePrefix...), account.Bytes()...)
}

// NativeBalance returns the native fee-currency balance of account
func (tx *TxContext) NativeBalance(account common.Address) *big.Int {
	return tx.Storage(NativeCurrencyAddress).GetBigInt(nativeBalanceKey(account))
}

func (tx *TxContext) setNativeBalance(account common.Address, balance *big.Int) {
	tx.Storage(NativeCurrencyAddress).PutBigInt(nativeBalanceKey(account), balance)
}

// TransferNative moves native fee currency from one account to another. The
// sender must either be a witness of the transaction or the contract
// currently executing. When the recipient is a contract with a registered
// payment callback the callback runs synchronously, inside the same
// transaction, with payload passed through; a callback error aborts the
// whole transfer.
func (tx *TxContext) TransferNative(from, to common.Address, amount *big.Int, payload []any) error {
	if domain.IsZeroAddress(from) || domain.IsZeroAddress(to) {
		return domain.Validationf("native transfer endpoints must be non-zero")
	}
	if amount == nil || amount.Sign() < 0 {
		return domain.Validationf("native transfer amount must be non-negative")
	}
	if !tx.CheckWitness(from) && tx.CallingAccount() != from {
		return domain.Authorizationf("account %s has not authorized this transfer", from.Hex())
	}

	balance := tx.NativeBalance(from)
	if balance.Cmp(amount) < 0 {
		return domain.InsufficientPaymentf("balance %s is below transfer amount %s", balance, amount)
	}
	tx.setNativeBalance(from, new(big.Int).Sub(balance, amount))
	tx.setNativeBalance(to, new(big.Int).Add(tx.NativeBalance(to), amount))

	if handler, ok := tx.env.handlers[to]; ok {
		return tx.CallAs(NativeCurrencyAddress, func() error {
			return handler.OnPayment(tx, from, new(big.Int).Set(amount), payload)
		})
	}
	return nil
}
