package token_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

func TestToken_TransferMovesBalance(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	params := defaultParams()
	params.PlatformFeeRate = 0
	params.CreatorFeeRate = 0
	tok := deployToken(t, env, params)

	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(400_000))
	}))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(600_000), tok.BalanceOf(tx, creator))
		assert.Equal(t, big.NewInt(400_000), tok.BalanceOf(tx, holder))
		assert.Equal(t, big.NewInt(1_000_000), tok.TotalSupply(tx))
	})
}

func TestToken_TransferRequiresAuthorization(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	tok := deployToken(t, env, defaultParams())

	err := transact(t, env, []common.Address{holder}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(1))
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrAuthorization, domain.KindOf(err))
}

func TestToken_TransferInsufficientBalance(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	tok := deployToken(t, env, defaultParams())

	err := transact(t, env, []common.Address{holder}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, holder, recipient, big.NewInt(1))
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrState, domain.KindOf(err))
}

func TestToken_ProportionalBurnExact(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	params := defaultParams()
	params.PlatformFeeRate = 0
	params.CreatorFeeRate = 0
	tok := deployToken(t, env, params)

	require.NoError(t, asFactory(t, env, func(tx *ledger.TxContext) error {
		return tok.SetBurnRate(tx, 1000)
	}))

	// 1000 units at 1000 bps: 100 burned, 900 delivered
	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(1000))
	}))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(900), tok.BalanceOf(tx, holder))
		assert.Equal(t, big.NewInt(999_000), tok.BalanceOf(tx, creator))
		assert.Equal(t, big.NewInt(999_900), tok.TotalSupply(tx))
	})
}

func TestToken_ProportionalBurnFloors(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	params := defaultParams()
	params.PlatformFeeRate = 0
	params.CreatorFeeRate = 0
	tok := deployToken(t, env, params)

	require.NoError(t, asFactory(t, env, func(tx *ledger.TxContext) error {
		return tok.SetBurnRate(tx, 33)
	}))

	// floor(7 * 33 / 10000) = 0: tiny transfers burn nothing
	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(7))
	}))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(7), tok.BalanceOf(tx, holder))
		assert.Equal(t, big.NewInt(1_000_000), tok.TotalSupply(tx))
	})
}

func TestToken_TransferToZeroBurnsFullAmount(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	params := defaultParams()
	params.PlatformFeeRate = 0
	params.CreatorFeeRate = 0
	tok := deployToken(t, env, params)

	// Even with a burn rate set, a transfer to the zero address burns the
	// whole amount and skips the proportional burn
	require.NoError(t, asFactory(t, env, func(tx *ledger.TxContext) error {
		return tok.SetBurnRate(tx, 1000)
	}))
	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, domain.ZeroAddress, big.NewInt(10_000))
	}))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(990_000), tok.BalanceOf(tx, creator))
		assert.Equal(t, big.NewInt(990_000), tok.TotalSupply(tx))
	})
}

func TestToken_DirectTransferChargesFlatFees(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	tok := deployToken(t, env, defaultParams())

	// Seed holder with tokens and fee currency
	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(10_000))
	}))
	require.NoError(t, env.Credit(context.Background(), holder, big.NewInt(10_000)))

	require.NoError(t, transact(t, env, []common.Address{holder}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, holder, recipient, big.NewInt(1_000))
	}))

	view(t, env, func(tx *ledger.TxContext) {
		// Flat fees: 500 platform to the factory, 300 creator to the owner
		assert.Equal(t, big.NewInt(10_000-500-300), tx.NativeBalance(holder))
		assert.Equal(t, big.NewInt(500), tx.NativeBalance(factoryAddr))
		assert.Equal(t, big.NewInt(300), tx.NativeBalance(creator))
		// Token amounts are untouched by the flat fees
		assert.Equal(t, big.NewInt(1_000), tok.BalanceOf(tx, recipient))
	})
}

func TestToken_RelayedTransferIsFeeExempt(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	tok := deployToken(t, env, defaultParams())
	relayer := common.HexToAddress("0x4000000000000000000000000000000000000004")

	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, relayer, big.NewInt(10_000))
	}))

	// The relayer contract moves its own tokens with no witness. No fee
	// currency is needed at all.
	require.NoError(t, transact(t, env, nil, func(tx *ledger.TxContext) error {
		return tx.CallAs(relayer, func() error {
			return tok.Transfer(tx, relayer, recipient, big.NewInt(1_000))
		})
	}))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(1_000), tok.BalanceOf(tx, recipient))
		assert.Equal(t, big.NewInt(0).String(), tx.NativeBalance(relayer).String())
	})
}

func TestToken_TransferFeeShortfallAborts(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	tok := deployToken(t, env, defaultParams())

	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(10_000))
	}))
	// Holder has tokens but only part of the flat fee in native currency
	require.NoError(t, env.Credit(context.Background(), holder, big.NewInt(100)))

	err := transact(t, env, []common.Address{holder}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, holder, recipient, big.NewInt(1_000))
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrInsufficientPayment, domain.KindOf(err))

	// Nothing moved, in either currency
	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(10_000), tok.BalanceOf(tx, holder))
		assert.Equal(t, big.NewInt(0).String(), tok.BalanceOf(tx, recipient).String())
		assert.Equal(t, big.NewInt(100), tx.NativeBalance(holder))
	})
}

func TestToken_SelfTransferSkipsCreatorFee(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	params := defaultParams()
	params.PlatformFeeRate = 0
	tok := deployToken(t, env, params)

	// The creator pays no creator fee on their own transfers
	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(1_000))
	}))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(1_000), tok.BalanceOf(tx, holder))
	})
}

func TestToken_TransferZeroAmount(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	params := defaultParams()
	params.PlatformFeeRate = 0
	params.CreatorFeeRate = 0
	tok := deployToken(t, env, params)

	require.NoError(t, transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(0))
	}))

	err := transact(t, env, []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tok.Transfer(tx, creator, holder, big.NewInt(-1))
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrValidation, domain.KindOf(err))
}
