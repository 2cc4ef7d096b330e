package dto

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/hushnetwork/token-factory/internal/domain"
)

// parseAddress decodes a 0x-prefixed hex address
func parseAddress(value, field string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s: %q", field, value)
	}
	return common.HexToAddress(value), nil
}

// parseAmount decodes a non-negative base-10 amount in atomic units
func parseAmount(value, field string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", field, value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s must not be negative", field)
	}
	return amount, nil
}

// CreateTokenRequest represents the request body for creating a token
// through the factory's payment path. Payment is the native amount in
// atomic units attached to the creation.
type CreateTokenRequest struct {
	Creator        string `json:"creator"`
	Payment        string `json:"payment"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	InitialSupply  string `json:"initial_supply"`
	Decimals       int64  `json:"decimals"`
	Mode           string `json:"mode"`
	ImageURL       string `json:"image_url"`
	CreatorFeeRate int64  `json:"creator_fee_rate"`
}

// Validate validates the request body
func (r *CreateTokenRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	if r.Payment == "" {
		return fmt.Errorf("payment is required")
	}
	if _, err := parseAmount(r.Payment, "payment"); err != nil {
		return err
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if _, err := parseAmount(r.InitialSupply, "initial_supply"); err != nil {
		return err
	}
	if !domain.IsValidMode(domain.Mode(r.Mode)) {
		return fmt.Errorf("invalid mode: %q", r.Mode)
	}
	return nil
}

// CreatorAddress returns the parsed creator address
func (r *CreateTokenRequest) CreatorAddress() common.Address {
	return common.HexToAddress(r.Creator)
}

// PaymentAmount returns the parsed payment amount
func (r *CreateTokenRequest) PaymentAmount() *big.Int {
	amount, _ := new(big.Int).SetString(r.Payment, 10)
	return amount
}

// Payload builds the creation payment payload the factory decodes
func (r *CreateTokenRequest) Payload() []any {
	supply, _ := new(big.Int).SetString(r.InitialSupply, 10)
	return []any{
		r.Name,
		r.Symbol,
		supply,
		r.Decimals,
		r.Mode,
		r.ImageURL,
		r.CreatorFeeRate,
	}
}

// TransferRequest represents the request body for a token transfer
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Validate validates the request body
func (r *TransferRequest) Validate() error {
	if !common.IsHexAddress(r.From) {
		return fmt.Errorf("invalid from: %q", r.From)
	}
	if !common.IsHexAddress(r.To) {
		return fmt.Errorf("invalid to: %q", r.To)
	}
	_, err := parseAmount(r.Amount, "amount")
	return err
}

// MintRequest represents the request body for minting into circulation
type MintRequest struct {
	Creator string `json:"creator"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

// Validate validates the request body
func (r *MintRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	if !common.IsHexAddress(r.To) {
		return fmt.Errorf("invalid to: %q", r.To)
	}
	_, err := parseAmount(r.Amount, "amount")
	return err
}

// SetBurnRateRequest represents the request body for updating the burn rate
type SetBurnRateRequest struct {
	Creator     string `json:"creator"`
	BurnRateBps int64  `json:"burn_rate_bps"`
}

// Validate validates the request body
func (r *SetBurnRateRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	return nil
}

// SetMaxSupplyRequest represents the request body for updating the supply cap
type SetMaxSupplyRequest struct {
	Creator   string `json:"creator"`
	MaxSupply string `json:"max_supply"`
}

// Validate validates the request body
func (r *SetMaxSupplyRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	_, err := parseAmount(r.MaxSupply, "max_supply")
	return err
}

// UpdateMetadataRequest represents the request body for updating token
// metadata. At least one of image_url and metadata_uri must be set.
type UpdateMetadataRequest struct {
	Creator     string `json:"creator"`
	ImageURL    string `json:"image_url"`
	MetadataURI string `json:"metadata_uri"`
}

// Validate validates the request body
func (r *UpdateMetadataRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	return nil
}

// SetCreatorFeeRequest represents the request body for updating the creator fee
type SetCreatorFeeRequest struct {
	Creator        string `json:"creator"`
	CreatorFeeRate int64  `json:"creator_fee_rate"`
}

// Validate validates the request body
func (r *SetCreatorFeeRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	return nil
}

// ChangeModeRequest represents the request body for changing a token's mode
type ChangeModeRequest struct {
	Creator    string `json:"creator"`
	Mode       string `json:"mode"`
	ModeParams []any  `json:"mode_params,omitempty"`
}

// Validate validates the request body
func (r *ChangeModeRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	if !domain.IsValidMode(domain.Mode(r.Mode)) {
		return fmt.Errorf("invalid mode: %q", r.Mode)
	}
	return nil
}

// LockTokenRequest represents the request body for locking a token
type LockTokenRequest struct {
	Creator string `json:"creator"`
}

// Validate validates the request body
func (r *LockTokenRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	return nil
}

// ApplyChangesRequest batches multiple lifecycle edits into one atomic
// call. Absent fields are left unchanged.
type ApplyChangesRequest struct {
	Creator        string  `json:"creator"`
	ImageURL       *string `json:"image_url,omitempty"`
	BurnRateBps    *int64  `json:"burn_rate_bps,omitempty"`
	CreatorFeeRate *int64  `json:"creator_fee_rate,omitempty"`
	NewMode        *string `json:"new_mode,omitempty"`
	ModeParams     []any   `json:"mode_params,omitempty"`
	NewMaxSupply   *string `json:"new_max_supply,omitempty"`
	MintTo         *string `json:"mint_to,omitempty"`
	MintAmount     *string `json:"mint_amount,omitempty"`
	Lock           bool    `json:"lock,omitempty"`
}

// Validate validates the request body
func (r *ApplyChangesRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	if r.NewMode != nil && !domain.IsValidMode(domain.Mode(*r.NewMode)) {
		return fmt.Errorf("invalid new_mode: %q", *r.NewMode)
	}
	if r.NewMaxSupply != nil {
		if _, err := parseAmount(*r.NewMaxSupply, "new_max_supply"); err != nil {
			return err
		}
	}
	if r.MintAmount != nil {
		if _, err := parseAmount(*r.MintAmount, "mint_amount"); err != nil {
			return err
		}
		if r.MintTo == nil || !common.IsHexAddress(*r.MintTo) {
			return fmt.Errorf("mint_to is required when mint_amount is set")
		}
	}
	return nil
}

// ToTokenChanges maps absent request fields onto leave-unchanged sentinels
func (r *ApplyChangesRequest) ToTokenChanges() domain.TokenChanges {
	changes := domain.NoChanges()
	if r.ImageURL != nil {
		changes.ImageURL = *r.ImageURL
	}
	if r.BurnRateBps != nil {
		changes.BurnRateBps = *r.BurnRateBps
	}
	if r.CreatorFeeRate != nil {
		changes.CreatorFeeRate = *r.CreatorFeeRate
	}
	if r.NewMode != nil {
		changes.NewMode = domain.Mode(*r.NewMode)
		changes.ModeParams = domain.ModeParams(r.ModeParams)
	}
	if r.NewMaxSupply != nil {
		changes.NewMaxSupply, _ = new(big.Int).SetString(*r.NewMaxSupply, 10)
	}
	if r.MintAmount != nil {
		changes.MintAmount, _ = new(big.Int).SetString(*r.MintAmount, 10)
		changes.MintTo = common.HexToAddress(*r.MintTo)
	}
	changes.Lock = r.Lock
	return changes
}

// PauseTokenRequest represents the request body for pausing or unpausing
// a token through the factory
type PauseTokenRequest struct {
	Creator string `json:"creator"`
}

// Validate validates the request body
func (r *PauseTokenRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	return nil
}

// SetPausableRequest represents the request body for toggling a token's
// pausable flag
type SetPausableRequest struct {
	Creator  string `json:"creator"`
	Pausable bool   `json:"pausable"`
}

// Validate validates the request body
func (r *SetPausableRequest) Validate() error {
	if !common.IsHexAddress(r.Creator) {
		return fmt.Errorf("invalid creator: %q", r.Creator)
	}
	return nil
}

// SetTokenOwnerRequest represents the request body for transferring token
// ownership
type SetTokenOwnerRequest struct {
	Owner    string `json:"owner"`
	NewOwner string `json:"new_owner"`
}

// Validate validates the request body
func (r *SetTokenOwnerRequest) Validate() error {
	if !common.IsHexAddress(r.Owner) {
		return fmt.Errorf("invalid owner: %q", r.Owner)
	}
	if !common.IsHexAddress(r.NewOwner) {
		return fmt.Errorf("invalid new_owner: %q", r.NewOwner)
	}
	return nil
}

// AuthorizeFactoryRequest represents the request body for handing a token
// over to a different coordinating factory. The owner field carries the
// factory owner, who drives the migration.
type AuthorizeFactoryRequest struct {
	Owner   string `json:"owner"`
	Factory string `json:"factory"`
}

// Validate validates the request body
func (r *AuthorizeFactoryRequest) Validate() error {
	if !common.IsHexAddress(r.Owner) {
		return fmt.Errorf("invalid owner: %q", r.Owner)
	}
	if !common.IsHexAddress(r.Factory) {
		return fmt.Errorf("invalid factory: %q", r.Factory)
	}
	return nil
}

// SetOwnerRequest represents the request body for transferring factory
// ownership
type SetOwnerRequest struct {
	NewOwner string `json:"new_owner"`
}

// Validate validates the request body
func (r *SetOwnerRequest) Validate() error {
	if !common.IsHexAddress(r.NewOwner) {
		return fmt.Errorf("invalid new_owner: %q", r.NewOwner)
	}
	return nil
}

// SetTemplateRequest represents the request body for installing the token
// template. Code is hex encoded.
type SetTemplateRequest struct {
	Code string `json:"code"`
}

// Validate validates the request body
func (r *SetTemplateRequest) Validate() error {
	if r.Code == "" {
		return fmt.Errorf("code is required")
	}
	if _, err := hex.DecodeString(strings.TrimPrefix(r.Code, "0x")); err != nil {
		return fmt.Errorf("invalid code: %v", err)
	}
	return nil
}

// TemplateCode returns the decoded template code
func (r *SetTemplateRequest) TemplateCode() []byte {
	code, _ := hex.DecodeString(strings.TrimPrefix(r.Code, "0x"))
	return code
}

// SetFeeRequest represents the request body for updating a flat fee amount
type SetFeeRequest struct {
	Fee int64 `json:"fee"`
}

// SetTreasuryRequest represents the request body for updating the treasury
// address
type SetTreasuryRequest struct {
	Treasury string `json:"treasury"`
}

// Validate validates the request body
func (r *SetTreasuryRequest) Validate() error {
	if !common.IsHexAddress(r.Treasury) {
		return fmt.Errorf("invalid treasury: %q", r.Treasury)
	}
	return nil
}

// SetPremiumTiersRequest represents the request body for toggling premium
// tier assignment
type SetPremiumTiersRequest struct {
	Enabled bool `json:"enabled"`
}

// AuthorizeAllRequest represents the request body for a batched factory
// handover migration
type AuthorizeAllRequest struct {
	NewFactory string `json:"new_factory"`
	Offset     uint64 `json:"offset"`
	BatchSize  uint64 `json:"batch_size"`
}

// Validate validates the request body
func (r *AuthorizeAllRequest) Validate() error {
	if !common.IsHexAddress(r.NewFactory) {
		return fmt.Errorf("invalid new_factory: %q", r.NewFactory)
	}
	return nil
}

// SetAllPlatformFeeRequest represents the request body for a batched
// platform fee migration
type SetAllPlatformFeeRequest struct {
	Rate      int64  `json:"rate"`
	Offset    uint64 `json:"offset"`
	BatchSize uint64 `json:"batch_size"`
}

// CreditRequest represents the request body for crediting native balance
// to an account
type CreditRequest struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// Validate validates the request body
func (r *CreditRequest) Validate() error {
	if !common.IsHexAddress(r.Account) {
		return fmt.Errorf("invalid account: %q", r.Account)
	}
	_, err := parseAmount(r.Amount, "amount")
	return err
}
