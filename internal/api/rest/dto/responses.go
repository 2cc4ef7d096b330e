package dto

import (
	"time"

	"github.com/hushnetwork/token-factory/internal/domain"
)

// TokenSummary represents a registry entry for a deployed token
type TokenSummary struct {
	Address     string      `json:"address"`
	Symbol      string      `json:"symbol"`
	Creator     string      `json:"creator"`
	Supply      string      `json:"supply"`
	Mode        domain.Mode `json:"mode"`
	Tier        domain.Tier `json:"tier"`
	ImageURL    string      `json:"image_url,omitempty"`
	BurnRateBps int64       `json:"burn_rate_bps"`
	MaxSupply   *string     `json:"max_supply,omitempty"`
	Locked      bool        `json:"locked"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TokenResponse represents a token with its full instance state
type TokenResponse struct {
	TokenSummary

	Name              string `json:"name"`
	Decimals          uint8  `json:"decimals"`
	Owner             string `json:"owner"`
	AuthorizedFactory string `json:"authorized_factory"`
	MetadataURI       string `json:"metadata_uri,omitempty"`
	PlatformFeeRate   int64  `json:"platform_fee_rate"`
	CreatorFeeRate    int64  `json:"creator_fee_rate"`
	Mintable          bool   `json:"mintable"`
	Pausable          bool   `json:"pausable"`
	Paused            bool   `json:"paused"`
}

// TokenListResponse represents a page of registry entries
type TokenListResponse struct {
	Tokens []TokenSummary `json:"tokens"`
	Total  uint64         `json:"total"`
	Offset uint64         `json:"offset"`
	Limit  uint64         `json:"limit"`
}

// ModeParamsResponse represents the auxiliary mode configuration of a token
type ModeParamsResponse struct {
	Address string            `json:"address"`
	Params  domain.ModeParams `json:"params"`
}

// FactoryInfoResponse represents the factory's administrative state
type FactoryInfoResponse struct {
	Address             string `json:"address"`
	Owner               string `json:"owner"`
	Paused              bool   `json:"paused"`
	MinCreationFee      int64  `json:"min_creation_fee"`
	UpdateFee           int64  `json:"update_fee"`
	Treasury            string `json:"treasury,omitempty"`
	PremiumTiersEnabled bool   `json:"premium_tiers_enabled"`
	DefaultPlatformFee  int64  `json:"default_platform_fee"`
	TotalTokens         uint64 `json:"total_tokens"`
}

// BalanceResponse represents a single account balance
type BalanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// BatchResponse represents progress of a paginated batch migration
type BatchResponse struct {
	Processed uint64 `json:"processed"`
	Skipped   uint64 `json:"skipped"`
	Next      uint64 `json:"next"`
	Total     uint64 `json:"total"`
}

// NewTokenSummary maps a registry record to its response form
func NewTokenSummary(record *domain.TokenRecord) TokenSummary {
	summary := TokenSummary{
		Address:     record.Address.Hex(),
		Symbol:      record.Symbol,
		Creator:     record.Creator.Hex(),
		Supply:      record.Supply.String(),
		Mode:        record.Mode,
		Tier:        record.Tier,
		ImageURL:    record.ImageURL,
		BurnRateBps: record.BurnRateBps,
		Locked:      record.Locked,
		CreatedAt:   record.CreatedAt,
	}
	if record.MaxSupply != nil {
		max := record.MaxSupply.String()
		summary.MaxSupply = &max
	}
	return summary
}
