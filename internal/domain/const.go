package domain

const (
	// AtomicUnitsPerCoin is the number of atomic fee-currency units in one coin
	AtomicUnitsPerCoin = 100_000_000

	// MaxDecimals is the largest allowed decimal precision for a token
	MaxDecimals = 18

	// MaxPlatformFeeRate is the upper bound for the flat per-transfer platform
	// fee, in atomic fee-currency units
	MaxPlatformFeeRate = 10_000_000

	// MaxCreatorFeeRate is the upper bound for the flat per-transfer creator
	// fee, in atomic fee-currency units
	MaxCreatorFeeRate = 5_000_000

	// MaxBurnRateBps is the upper bound for the proportional transfer burn
	// (1000 bps = 10%)
	MaxBurnRateBps = 1000

	// BpsDenominator converts basis points to a fraction
	BpsDenominator = 10_000

	// MaxBatchSize is the per-call cap on paginated batch migrations
	MaxBatchSize = 50

	// TokenSpecFieldCount is the exact arity of a creation payment payload
	TokenSpecFieldCount = 7

	// TemplateNamePrefix is the manifest-name prefix for deployed token
	// instances; the global token count is appended to keep deterministic
	// address derivation collision-free
	TemplateNamePrefix = "TokenTemplate"

	// DefaultMinCreationFee is the default minimum creation fee (10 coins)
	DefaultMinCreationFee = 10 * AtomicUnitsPerCoin

	// DefaultUpdateFee is the default flat administrative fee charged per
	// fee-bearing lifecycle mutation (0.5 coin)
	DefaultUpdateFee = AtomicUnitsPerCoin / 2

	// DefaultPlatformFeeRate is the flat per-transfer platform fee stamped
	// onto newly created tokens (0.01 coin)
	DefaultPlatformFeeRate = 1_000_000

	// PremiumTierFeeMultiple: a creation payment of at least this multiple of
	// the minimum fee earns the premium tier when premium tiers are enabled
	PremiumTierFeeMultiple = 3
)
