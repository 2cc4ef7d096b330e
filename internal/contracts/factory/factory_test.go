package factory_test

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushnetwork/token-factory/internal/contracts/factory"
	"github.com/hushnetwork/token-factory/internal/contracts/token"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
	"github.com/hushnetwork/token-factory/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var (
	factoryAddr = common.HexToAddress("0xfac0000000000000000000000000000000000001")
	admin       = common.HexToAddress("0xad00000000000000000000000000000000000001")
	creator     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	holder      = common.HexToAddress("0x2000000000000000000000000000000000000002")

	templateCode = []byte{0x0a, 0x0b, 0x0c}
)

const (
	creationFee = int64(domain.DefaultMinCreationFee)
	updateFee   = int64(domain.DefaultUpdateFee)
)

// newTestFactory boots a factory with the template installed and the
// creator funded well past the creation fee
func newTestFactory(t *testing.T) (*ledger.Env, *factory.Factory) {
	t.Helper()
	env := ledger.NewEnv(ledger.Options{})
	f := factory.At(factoryAddr)
	env.RegisterPaymentHandler(factoryAddr, f)

	require.NoError(t, env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
		if err := f.Bootstrap(tx, admin); err != nil {
			return err
		}
		return f.SetTemplate(tx, templateCode)
	}))
	require.NoError(t, env.Credit(context.Background(), creator, big.NewInt(100*creationFee)))
	return env, f
}

func validPayload() []any {
	return []any{"Test Token", "TST", big.NewInt(1_000_000), int64(8), "community", "https://img.example/t.png", int64(300)}
}

// payCreation sends a creation payment with the given payload
func payCreation(t *testing.T, env *ledger.Env, amount int64, payload []any) error {
	t.Helper()
	return env.Transact(context.Background(), []common.Address{creator}, func(tx *ledger.TxContext) error {
		return tx.TransferNative(creator, factoryAddr, big.NewInt(amount), payload)
	})
}

// lastToken returns the most recently created token's record
func lastToken(t *testing.T, env *ledger.Env, f *factory.Factory) *domain.TokenRecord {
	t.Helper()
	var record *domain.TokenRecord
	require.NoError(t, env.View(context.Background(), func(tx *ledger.TxContext) error {
		total := f.TotalTokens(tx)
		require.NotZero(t, total)
		page, err := f.ListTokens(tx, total-1, 1)
		if err != nil {
			return err
		}
		record = page[0]
		return nil
	}))
	return record
}

func view(t *testing.T, env *ledger.Env, fn func(tx *ledger.TxContext)) {
	t.Helper()
	require.NoError(t, env.View(context.Background(), func(tx *ledger.TxContext) error {
		fn(tx)
		return nil
	}))
}

func TestFactory_BootstrapOnce(t *testing.T) {
	env, f := newTestFactory(t)

	err := env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
		return f.Bootstrap(tx, admin)
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrState, domain.KindOf(err))

	view(t, env, func(tx *ledger.TxContext) {
		assert.True(t, f.IsInitialized(tx))
		assert.Equal(t, admin, f.Owner(tx))
		assert.Equal(t, creationFee, f.MinFee(tx))
		assert.Equal(t, updateFee, f.UpdateFee(tx))
	})
}

func TestFactory_CreateToken(t *testing.T) {
	env, f := newTestFactory(t)

	require.NoError(t, payCreation(t, env, creationFee, validPayload()))

	record := lastToken(t, env, f)
	assert.Equal(t, "TST", record.Symbol)
	assert.Equal(t, creator, record.Creator)
	assert.Equal(t, big.NewInt(1_000_000), record.Supply)
	assert.Equal(t, domain.ModeCommunity, record.Mode)
	assert.Equal(t, domain.TierBasic, record.Tier)
	assert.Equal(t, "https://img.example/t.png", record.ImageURL)
	assert.Equal(t, int64(0), record.BurnRateBps)
	assert.Nil(t, record.MaxSupply)
	assert.False(t, record.Locked)

	// The instance is live with the factory's default platform fee and the
	// payload's creator fee, and the supply sits with the creator
	tok := token.At(record.Address)
	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, "Test Token", tok.Name(tx))
		assert.Equal(t, uint8(8), tok.Decimals(tx))
		assert.Equal(t, creator, tok.Owner(tx))
		assert.Equal(t, factoryAddr, tok.AuthorizedFactory(tx))
		assert.Equal(t, big.NewInt(1_000_000), tok.BalanceOf(tx, creator))
		assert.Equal(t, int64(domain.DefaultPlatformFeeRate), tok.PlatformFeeRate(tx))
		assert.Equal(t, int64(300), tok.CreatorFeeRate(tx))
	})
}

func TestFactory_CreateTokenDistinctAddresses(t *testing.T) {
	env, f := newTestFactory(t)

	require.NoError(t, payCreation(t, env, creationFee, validPayload()))
	second := validPayload()
	second[1] = "TST2"
	require.NoError(t, payCreation(t, env, creationFee, second))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, uint64(2), f.TotalTokens(tx))
		page, err := f.ListTokens(tx, 0, 10)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.NotEqual(t, page[0].Address, page[1].Address)
	})
}

func TestFactory_PaymentWithoutPayloadIsSilent(t *testing.T) {
	env, f := newTestFactory(t)

	require.NoError(t, payCreation(t, env, 123, nil))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Zero(t, f.TotalTokens(tx))
		assert.Equal(t, big.NewInt(123), tx.NativeBalance(factoryAddr))
	})
}

func TestFactory_CreationGuards(t *testing.T) {
	shortPayload := validPayload()[:6]
	speculation := validPayload()
	speculation[4] = "speculation"
	greedy := validPayload()
	greedy[6] = int64(domain.MaxCreatorFeeRate + 1)
	badMode := validPayload()
	badMode[4] = "vip"

	tests := []struct {
		name    string
		prepare func(t *testing.T, env *ledger.Env, f *factory.Factory)
		amount  int64
		payload []any
		kind    domain.ErrorKind
	}{
		{"paused factory", func(t *testing.T, env *ledger.Env, f *factory.Factory) {
			require.NoError(t, env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
				return f.Pause(tx)
			}))
		}, creationFee, validPayload(), domain.ErrState},
		{"below minimum fee", nil, creationFee - 1, validPayload(), domain.ErrInsufficientPayment},
		{"wrong arity", nil, creationFee, shortPayload, domain.ErrValidation},
		{"non-community mode", nil, creationFee, speculation, domain.ErrValidation},
		{"unknown mode", nil, creationFee, badMode, domain.ErrValidation},
		{"creator fee above bound", nil, creationFee, greedy, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, f := newTestFactory(t)
			if tt.prepare != nil {
				tt.prepare(t, env, f)
			}
			err := payCreation(t, env, tt.amount, tt.payload)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))

			// A rejected creation leaves no trace, payment included
			view(t, env, func(tx *ledger.TxContext) {
				assert.Zero(t, f.TotalTokens(tx))
				assert.Equal(t, big.NewInt(100*creationFee), tx.NativeBalance(creator))
			})
		})
	}
}

func TestFactory_CreationRequiresTemplate(t *testing.T) {
	env := ledger.NewEnv(ledger.Options{})
	f := factory.At(factoryAddr)
	env.RegisterPaymentHandler(factoryAddr, f)
	require.NoError(t, env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
		return f.Bootstrap(tx, admin)
	}))
	require.NoError(t, env.Credit(context.Background(), creator, big.NewInt(2*creationFee)))

	err := payCreation(t, env, creationFee, validPayload())
	require.Error(t, err)
	assert.Equal(t, domain.ErrState, domain.KindOf(err))
}

func TestFactory_PaymentCallbackRejectsDirectCalls(t *testing.T) {
	env, f := newTestFactory(t)

	// A contract invoking the callback without going through the settlement
	// layer is rejected
	err := env.Transact(context.Background(), nil, func(tx *ledger.TxContext) error {
		return tx.CallAs(holder, func() error {
			return f.OnPayment(tx, creator, big.NewInt(creationFee), validPayload())
		})
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrAuthorization, domain.KindOf(err))
}

func TestFactory_PremiumTierAssignment(t *testing.T) {
	env, f := newTestFactory(t)
	require.NoError(t, env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
		return f.SetPremiumTiersEnabled(tx, true)
	}))

	require.NoError(t, payCreation(t, env, creationFee, validPayload()))
	assert.Equal(t, domain.TierBasic, lastToken(t, env, f).Tier)

	premium := validPayload()
	premium[1] = "PRM"
	require.NoError(t, payCreation(t, env, 3*creationFee, premium))
	assert.Equal(t, domain.TierPremium, lastToken(t, env, f).Tier)
}

func TestFactory_PremiumTierDisabled(t *testing.T) {
	env, f := newTestFactory(t)

	// A generous payment earns nothing while premium tiers are off
	require.NoError(t, payCreation(t, env, 5*creationFee, validPayload()))
	assert.Equal(t, domain.TierBasic, lastToken(t, env, f).Tier)
}

func TestFactory_TreasurySweep(t *testing.T) {
	env, f := newTestFactory(t)
	treasury := common.HexToAddress("0x7000000000000000000000000000000000000007")
	require.NoError(t, env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
		return f.SetTreasuryAddress(tx, treasury)
	}))

	require.NoError(t, payCreation(t, env, creationFee, validPayload()))

	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, big.NewInt(creationFee), tx.NativeBalance(treasury))
		assert.Equal(t, big.NewInt(0).String(), tx.NativeBalance(factoryAddr).String())
	})
}

// rejectingTreasury refuses every native deposit
type rejectingTreasury struct{}

func (rejectingTreasury) OnPayment(tx *ledger.TxContext, payer common.Address, amount *big.Int, payload []any) error {
	return domain.Statef("treasury rejects deposits")
}

func TestFactory_TreasurySweepFailureTolerated(t *testing.T) {
	env, f := newTestFactory(t)
	treasury := common.HexToAddress("0x7000000000000000000000000000000000000007")
	env.RegisterPaymentHandler(treasury, rejectingTreasury{})
	require.NoError(t, env.Transact(context.Background(), []common.Address{admin}, func(tx *ledger.TxContext) error {
		return f.SetTreasuryAddress(tx, treasury)
	}))

	// A bouncing sweep never takes the creation down with it
	require.NoError(t, payCreation(t, env, creationFee, validPayload()))
	view(t, env, func(tx *ledger.TxContext) {
		assert.Equal(t, uint64(1), f.TotalTokens(tx))
	})
}

func TestFactory_Registry(t *testing.T) {
	env, f := newTestFactory(t)
	for i, symbol := range []string{"AAA", "BBB", "CCC"} {
		payload := validPayload()
		payload[1] = symbol
		require.NoError(t, payCreation(t, env, creationFee+int64(i), payload))
	}

	view(t, env, func(tx *ledger.TxContext) {
		// Offset past the end yields an empty page
		page, err := f.ListTokens(tx, 10, 5)
		require.NoError(t, err)
		assert.Empty(t, page)

		// A zero limit is an empty page, not a default size
		page, err = f.ListTokens(tx, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, page)

		page, err = f.ListTokensByCreator(tx, creator, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, page)

		// Mid-list pagination
		page, err = f.ListTokens(tx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "BBB", page[0].Symbol)

		// Creator index covers all three
		page, err = f.ListTokensByCreator(tx, creator, 0, 10)
		require.NoError(t, err)
		assert.Len(t, page, 3)

		page, err = f.ListTokensByCreator(tx, holder, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, page)

		// Unknown token lookups are not found
		_, err = f.GetToken(tx, holder)
		require.Error(t, err)
		assert.Equal(t, domain.ErrNotFound, domain.KindOf(err))
	})
}
