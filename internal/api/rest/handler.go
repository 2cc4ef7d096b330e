package rest

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hushnetwork/token-factory/internal/api/rest/dto"
	"github.com/hushnetwork/token-factory/internal/contracts/factory"
	"github.com/hushnetwork/token-factory/internal/contracts/token"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// defaultPageSize is used when the limit query parameter is absent
const defaultPageSize = 50

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)

	// GetFactoryInfo returns the factory's administrative state
	// GET /api/v1/factory
	GetFactoryInfo(c *gin.Context)

	// ListTokens returns a page of registry entries
	// GET /api/v1/tokens?offset=<offset>&limit=<limit>&creator=<address>
	ListTokens(c *gin.Context)

	// GetToken returns a single token with its full instance state
	// GET /api/v1/tokens/:address
	GetToken(c *gin.Context)

	// GetModeParams returns the auxiliary mode configuration of a token
	// GET /api/v1/tokens/:address/mode-params
	GetModeParams(c *gin.Context)

	// GetTokenBalance returns an account's balance on a token
	// GET /api/v1/tokens/:address/balances/:account
	GetTokenBalance(c *gin.Context)

	// GetNativeBalance returns an account's native currency balance
	// GET /api/v1/accounts/:address/balance
	GetNativeBalance(c *gin.Context)

	// CreateToken creates a token through the factory's payment path
	// POST /api/v1/tokens
	CreateToken(c *gin.Context)

	// Transfer moves token balance between accounts
	// POST /api/v1/tokens/:address/transfer
	Transfer(c *gin.Context)

	// Mint mints new supply into circulation via the factory
	// POST /api/v1/tokens/:address/mint
	Mint(c *gin.Context)

	// SetBurnRate updates a token's proportional burn rate
	// POST /api/v1/tokens/:address/burn-rate
	SetBurnRate(c *gin.Context)

	// SetMaxSupply updates a token's supply cap
	// POST /api/v1/tokens/:address/max-supply
	SetMaxSupply(c *gin.Context)

	// UpdateMetadata updates a token's image URL and metadata URI
	// POST /api/v1/tokens/:address/metadata
	UpdateMetadata(c *gin.Context)

	// SetCreatorFee updates a token's flat creator fee
	// POST /api/v1/tokens/:address/creator-fee
	SetCreatorFee(c *gin.Context)

	// ChangeMode transitions a token to a different economic mode
	// POST /api/v1/tokens/:address/mode
	ChangeMode(c *gin.Context)

	// LockToken permanently locks a token's configuration
	// POST /api/v1/tokens/:address/lock
	LockToken(c *gin.Context)

	// ApplyChanges applies a batch of lifecycle edits atomically
	// POST /api/v1/tokens/:address/changes
	ApplyChanges(c *gin.Context)

	// SetPausable toggles whether a token can be paused
	// POST /api/v1/tokens/:address/pausable
	SetPausable(c *gin.Context)

	// PauseToken pauses transfers on a pausable token
	// POST /api/v1/tokens/:address/pause
	PauseToken(c *gin.Context)

	// UnpauseToken resumes transfers on a paused token
	// POST /api/v1/tokens/:address/unpause
	UnpauseToken(c *gin.Context)

	// SetTokenOwner transfers ownership of a token instance
	// POST /api/v1/tokens/:address/owner
	SetTokenOwner(c *gin.Context)

	// AuthorizeTokenFactory hands a token over to a different factory
	// POST /api/v1/tokens/:address/factory
	AuthorizeTokenFactory(c *gin.Context)

	// PauseFactory pauses token creation (requires authentication)
	// POST /api/v1/admin/pause
	PauseFactory(c *gin.Context)

	// UnpauseFactory resumes token creation (requires authentication)
	// POST /api/v1/admin/unpause
	UnpauseFactory(c *gin.Context)

	// SetFactoryOwner transfers factory ownership (requires authentication)
	// POST /api/v1/admin/owner
	SetFactoryOwner(c *gin.Context)

	// SetTemplate installs the token template (requires authentication)
	// POST /api/v1/admin/template
	SetTemplate(c *gin.Context)

	// SetCreationFee updates the minimum creation fee (requires authentication)
	// POST /api/v1/admin/creation-fee
	SetCreationFee(c *gin.Context)

	// SetUpdateFee updates the flat update fee (requires authentication)
	// POST /api/v1/admin/update-fee
	SetUpdateFee(c *gin.Context)

	// SetTreasury updates the treasury address (requires authentication)
	// POST /api/v1/admin/treasury
	SetTreasury(c *gin.Context)

	// SetPremiumTiers toggles premium tier assignment (requires authentication)
	// POST /api/v1/admin/premium-tiers
	SetPremiumTiers(c *gin.Context)

	// AuthorizeAllTokens migrates registered tokens to a new factory in
	// batches (requires authentication)
	// POST /api/v1/admin/tokens/authorize-factory
	AuthorizeAllTokens(c *gin.Context)

	// SetAllPlatformFee updates the platform fee across registered tokens
	// in batches (requires authentication)
	// POST /api/v1/admin/tokens/platform-fee
	SetAllPlatformFee(c *gin.Context)

	// Credit credits native balance to an account (requires authentication)
	// POST /api/v1/admin/credit
	Credit(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	env     *ledger.Env
	factory *factory.Factory
	admin   common.Address
}

// NewHandler creates a new REST API handler over the ledger environment.
// Administrative operations are signed as the given admin account.
func NewHandler(env *ledger.Env, f *factory.Factory, admin common.Address) Handler {
	return &handler{
		env:     env,
		factory: f,
		admin:   admin,
	}
}

// tokenParam parses and validates the :address path parameter
func tokenParam(c *gin.Context) (common.Address, bool) {
	value := c.Param("address")
	if !common.IsHexAddress(value) {
		respondBadRequest(c, "Invalid token address")
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// transact runs fn as a single serialized transaction signed by signer and
// maps an abort to an HTTP error response. It reports whether the
// transaction committed.
func (h *handler) transact(c *gin.Context, signer common.Address, fn func(tx *ledger.TxContext) error) bool {
	err := h.env.Transact(c.Request.Context(), []common.Address{signer}, fn)
	if err != nil {
		respondTransactionError(c, err)
		return false
	}
	return true
}

// tokenResponse joins a registry record with the token instance's
// canonical state
func (h *handler) tokenResponse(tx *ledger.TxContext, record *domain.TokenRecord) dto.TokenResponse {
	instance := token.At(record.Address)
	return dto.TokenResponse{
		TokenSummary:      dto.NewTokenSummary(record),
		Name:              instance.Name(tx),
		Decimals:          instance.Decimals(tx),
		Owner:             instance.Owner(tx).Hex(),
		AuthorizedFactory: instance.AuthorizedFactory(tx).Hex(),
		MetadataURI:       instance.MetadataURI(tx),
		PlatformFeeRate:   instance.PlatformFeeRate(tx),
		CreatorFeeRate:    instance.CreatorFeeRate(tx),
		Mintable:          instance.Mintable(tx),
		Pausable:          instance.Pausable(tx),
		Paused:            instance.Paused(tx),
	}
}

// respondToken responds with the refreshed state of a registered token
func (h *handler) respondToken(c *gin.Context, tokenAddr common.Address) {
	var response dto.TokenResponse
	err := h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		record, err := h.factory.GetToken(tx, tokenAddr)
		if err != nil {
			return err
		}
		response = h.tokenResponse(tx, record)
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetFactoryInfo returns the factory's administrative state
func (h *handler) GetFactoryInfo(c *gin.Context) {
	var response dto.FactoryInfoResponse
	err := h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		response = dto.FactoryInfoResponse{
			Address:             h.factory.Address.Hex(),
			Owner:               h.factory.Owner(tx).Hex(),
			Paused:              h.factory.IsPaused(tx),
			MinCreationFee:      h.factory.MinFee(tx),
			UpdateFee:           h.factory.UpdateFee(tx),
			PremiumTiersEnabled: h.factory.PremiumTiersEnabled(tx),
			DefaultPlatformFee:  h.factory.DefaultPlatformFeeRate(tx),
			TotalTokens:         h.factory.TotalTokens(tx),
		}
		if treasury := h.factory.Treasury(tx); treasury != (common.Address{}) {
			response.Treasury = treasury.Hex()
		}
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListTokens returns a page of registry entries
func (h *handler) ListTokens(c *gin.Context) {
	offset, err := parseUintQuery(c, "offset", 0)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	limit, err := parseUintQuery(c, "limit", defaultPageSize)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	var creator *common.Address
	if value := c.Query("creator"); value != "" {
		if !common.IsHexAddress(value) {
			respondValidationError(c, "invalid creator address")
			return
		}
		addr := common.HexToAddress(value)
		creator = &addr
	}

	var response dto.TokenListResponse
	err = h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		var records []*domain.TokenRecord
		var err error
		if creator != nil {
			records, err = h.factory.ListTokensByCreator(tx, *creator, offset, limit)
		} else {
			records, err = h.factory.ListTokens(tx, offset, limit)
		}
		if err != nil {
			return err
		}

		response = dto.TokenListResponse{
			Tokens: make([]dto.TokenSummary, 0, len(records)),
			Total:  h.factory.TotalTokens(tx),
			Offset: offset,
			Limit:  limit,
		}
		for _, record := range records {
			response.Tokens = append(response.Tokens, dto.NewTokenSummary(record))
		}
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetToken returns a single token with its full instance state
func (h *handler) GetToken(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	h.respondToken(c, tokenAddr)
}

// GetModeParams returns the auxiliary mode configuration of a token
func (h *handler) GetModeParams(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}

	var response dto.ModeParamsResponse
	err := h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		params, err := h.factory.GetModeParams(tx, tokenAddr)
		if err != nil {
			return err
		}
		response = dto.ModeParamsResponse{
			Address: tokenAddr.Hex(),
			Params:  params,
		}
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetTokenBalance returns an account's balance on a token
func (h *handler) GetTokenBalance(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	account := c.Param("account")
	if !common.IsHexAddress(account) {
		respondBadRequest(c, "Invalid account address")
		return
	}
	accountAddr := common.HexToAddress(account)

	var response dto.BalanceResponse
	err := h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		if _, err := h.factory.GetToken(tx, tokenAddr); err != nil {
			return err
		}
		response = dto.BalanceResponse{
			Account: accountAddr.Hex(),
			Balance: token.At(tokenAddr).BalanceOf(tx, accountAddr).String(),
		}
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetNativeBalance returns an account's native currency balance
func (h *handler) GetNativeBalance(c *gin.Context) {
	account := c.Param("address")
	if !common.IsHexAddress(account) {
		respondBadRequest(c, "Invalid account address")
		return
	}
	accountAddr := common.HexToAddress(account)

	var response dto.BalanceResponse
	err := h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		response = dto.BalanceResponse{
			Account: accountAddr.Hex(),
			Balance: tx.NativeBalance(accountAddr).String(),
		}
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// CreateToken creates a token through the factory's payment path
func (h *handler) CreateToken(c *gin.Context) {
	var req dto.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := req.CreatorAddress()
	var response dto.TokenResponse
	ok := h.transact(c, creator, func(tx *ledger.TxContext) error {
		before := h.factory.TotalTokens(tx)
		if err := tx.TransferNative(creator, h.factory.Address, req.PaymentAmount(), req.Payload()); err != nil {
			return err
		}
		records, err := h.factory.ListTokens(tx, before, 1)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return domain.Statef("creation payment accepted but no token registered")
		}
		response = h.tokenResponse(tx, records[0])
		return nil
	})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, response)
}

// Transfer moves token balance between accounts
func (h *handler) Transfer(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	from := common.HexToAddress(req.From)
	to := common.HexToAddress(req.To)
	amount, _ := parseAmountParam(req.Amount)

	if !h.transact(c, from, func(tx *ledger.TxContext) error {
		return token.At(tokenAddr).Transfer(tx, from, to, amount)
	}) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Mint mints new supply into circulation via the factory
func (h *handler) Mint(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	to := common.HexToAddress(req.To)
	amount, _ := parseAmountParam(req.Amount)

	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.MintTokens(tx, tokenAddr, to, amount)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// SetBurnRate updates a token's proportional burn rate
func (h *handler) SetBurnRate(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.SetBurnRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.SetTokenBurnRate(tx, tokenAddr, req.BurnRateBps)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// SetMaxSupply updates a token's supply cap
func (h *handler) SetMaxSupply(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.SetMaxSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	maxSupply, _ := parseAmountParam(req.MaxSupply)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.SetTokenMaxSupply(tx, tokenAddr, maxSupply)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// UpdateMetadata updates a token's image URL and metadata URI
func (h *handler) UpdateMetadata(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.UpdateTokenMetadata(tx, tokenAddr, req.ImageURL, req.MetadataURI)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// SetCreatorFee updates a token's flat creator fee
func (h *handler) SetCreatorFee(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.SetCreatorFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.SetCreatorFee(tx, tokenAddr, req.CreatorFeeRate)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// ChangeMode transitions a token to a different economic mode
func (h *handler) ChangeMode(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.ChangeModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.ChangeTokenMode(tx, tokenAddr, domain.Mode(req.Mode), domain.ModeParams(req.ModeParams))
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// LockToken permanently locks a token's configuration
func (h *handler) LockToken(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.LockTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.LockToken(tx, tokenAddr)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// ApplyChanges applies a batch of lifecycle edits atomically
func (h *handler) ApplyChanges(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.ApplyChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	changes := req.ToTokenChanges()
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.ApplyTokenChanges(tx, tokenAddr, changes)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// SetPausable toggles whether a token can be paused
func (h *handler) SetPausable(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.SetPausableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return h.factory.SetTokenPausable(tx, tokenAddr, req.Pausable)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// PauseToken pauses transfers on a pausable token
func (h *handler) PauseToken(c *gin.Context) {
	h.tokenPauseOp(c, h.factory.PauseToken)
}

// UnpauseToken resumes transfers on a paused token
func (h *handler) UnpauseToken(c *gin.Context) {
	h.tokenPauseOp(c, h.factory.UnpauseToken)
}

// tokenPauseOp runs a creator-signed pause operation through the factory
func (h *handler) tokenPauseOp(c *gin.Context, op func(tx *ledger.TxContext, tokenAddr common.Address) error) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.PauseTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	creator := common.HexToAddress(req.Creator)
	if !h.transact(c, creator, func(tx *ledger.TxContext) error {
		return op(tx, tokenAddr)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// SetTokenOwner transfers ownership of a token instance
func (h *handler) SetTokenOwner(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.SetTokenOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	owner := common.HexToAddress(req.Owner)
	newOwner := common.HexToAddress(req.NewOwner)
	if !h.transact(c, owner, func(tx *ledger.TxContext) error {
		return token.At(tokenAddr).SetOwner(tx, newOwner)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}

// AuthorizeTokenFactory hands a token over to a different factory
func (h *handler) AuthorizeTokenFactory(c *gin.Context) {
	tokenAddr, ok := tokenParam(c)
	if !ok {
		return
	}
	var req dto.AuthorizeFactoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	owner := common.HexToAddress(req.Owner)
	newFactory := common.HexToAddress(req.Factory)
	if !h.transact(c, owner, func(tx *ledger.TxContext) error {
		return h.factory.AuthorizeTokenFactory(tx, tokenAddr, newFactory)
	}) {
		return
	}
	h.respondToken(c, tokenAddr)
}
