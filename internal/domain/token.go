package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenRecord is the factory registry's denormalized cache of a deployed
// token, kept consistent with the token instance's canonical state by the
// lifecycle coordinator. A record exists iff the token was created through
// the factory's payment path.
type TokenRecord struct {
	Address     common.Address `json:"address"`
	Symbol      string         `json:"symbol"`
	Creator     common.Address `json:"creator"`
	Supply      *big.Int       `json:"supply"`
	Mode        Mode           `json:"mode"`
	Tier        Tier           `json:"tier"`
	CreatedAt   time.Time      `json:"created_at"`
	ImageURL    string         `json:"image_url"`
	BurnRateBps int64          `json:"burn_rate_bps"`
	MaxSupply   *big.Int       `json:"max_supply"`
	Locked      bool           `json:"locked"`
}

// TokenSpec is the decoded creation payment payload
type TokenSpec struct {
	Name           string
	Symbol         string
	InitialSupply  *big.Int
	Decimals       uint8
	Mode           Mode
	ImageURL       string
	CreatorFeeRate int64
}

// DeployParams is the 13-field parameter set for deploying a token instance
type DeployParams struct {
	Name              string
	Symbol            string
	InitialSupply     *big.Int
	Decimals          uint8
	Owner             common.Address
	Mintable          bool
	MaxSupply         *big.Int
	Upgradeable       bool
	MetadataURI       string
	Pausable          bool
	AuthorizedFactory common.Address
	PlatformFeeRate   int64
	CreatorFeeRate    int64
}

// ModeParams is an opaque auxiliary configuration bundle attached to a mode
// change; it is stored only when non-empty and is not validated here.
type ModeParams []any

// TokenChanges batches multiple lifecycle edits into one atomic call.
// Sentinel values mean "leave unchanged": empty string for ImageURL/NewMode,
// -1 for numeric fields, zero MintAmount.
type TokenChanges struct {
	ImageURL       string
	BurnRateBps    int64
	CreatorFeeRate int64
	NewMode        Mode
	ModeParams     ModeParams
	NewMaxSupply   *big.Int
	MintTo         common.Address
	MintAmount     *big.Int
	Lock           bool
}

// NoChanges returns a TokenChanges with every field set to its
// leave-unchanged sentinel
func NoChanges() TokenChanges {
	return TokenChanges{
		BurnRateBps:    -1,
		CreatorFeeRate: -1,
		NewMaxSupply:   big.NewInt(-1),
		MintAmount:     new(big.Int),
	}
}
