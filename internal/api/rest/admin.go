package rest

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hushnetwork/token-factory/internal/api/rest/dto"
	"github.com/hushnetwork/token-factory/internal/contracts/factory"
	"github.com/hushnetwork/token-factory/internal/ledger"
)

// adminOp runs an operation signed as the configured admin account and
// responds with the refreshed factory state
func (h *handler) adminOp(c *gin.Context, op func(tx *ledger.TxContext) error) {
	if !h.transact(c, h.admin, op) {
		return
	}
	h.GetFactoryInfo(c)
}

// PauseFactory pauses token creation
func (h *handler) PauseFactory(c *gin.Context) {
	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.Pause(tx)
	})
}

// UnpauseFactory resumes token creation
func (h *handler) UnpauseFactory(c *gin.Context) {
	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.Unpause(tx)
	})
}

// SetFactoryOwner transfers factory ownership
func (h *handler) SetFactoryOwner(c *gin.Context) {
	var req dto.SetOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	newOwner := common.HexToAddress(req.NewOwner)
	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.SetOwner(tx, newOwner)
	})
}

// SetTemplate installs the token template
func (h *handler) SetTemplate(c *gin.Context) {
	var req dto.SetTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	code := req.TemplateCode()
	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.SetTemplate(tx, code)
	})
}

// SetCreationFee updates the minimum creation fee
func (h *handler) SetCreationFee(c *gin.Context) {
	var req dto.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.SetFee(tx, req.Fee)
	})
}

// SetUpdateFee updates the flat update fee
func (h *handler) SetUpdateFee(c *gin.Context) {
	var req dto.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.SetUpdateFee(tx, req.Fee)
	})
}

// SetTreasury updates the treasury address
func (h *handler) SetTreasury(c *gin.Context) {
	var req dto.SetTreasuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	treasury := common.HexToAddress(req.Treasury)
	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.SetTreasuryAddress(tx, treasury)
	})
}

// SetPremiumTiers toggles premium tier assignment
func (h *handler) SetPremiumTiers(c *gin.Context) {
	var req dto.SetPremiumTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	h.adminOp(c, func(tx *ledger.TxContext) error {
		return h.factory.SetPremiumTiersEnabled(tx, req.Enabled)
	})
}

// AuthorizeAllTokens migrates registered tokens to a new factory in batches
func (h *handler) AuthorizeAllTokens(c *gin.Context) {
	var req dto.AuthorizeAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	newFactory := common.HexToAddress(req.NewFactory)
	var result *factory.BatchResult
	ok := h.transact(c, h.admin, func(tx *ledger.TxContext) error {
		var err error
		result, err = h.factory.AuthorizeAllTokens(tx, newFactory, req.Offset, req.BatchSize)
		return err
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, batchResponse(result))
}

// SetAllPlatformFee updates the platform fee across registered tokens in
// batches
func (h *handler) SetAllPlatformFee(c *gin.Context) {
	var req dto.SetAllPlatformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	var result *factory.BatchResult
	ok := h.transact(c, h.admin, func(tx *ledger.TxContext) error {
		var err error
		result, err = h.factory.SetAllPlatformFee(tx, req.Rate, req.Offset, req.BatchSize)
		return err
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, batchResponse(result))
}

// Credit credits native balance to an account
func (h *handler) Credit(c *gin.Context) {
	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	account := common.HexToAddress(req.Account)
	amount, _ := parseAmountParam(req.Amount)
	if err := h.env.Credit(c.Request.Context(), account, amount); err != nil {
		respondTransactionError(c, err)
		return
	}

	var response dto.BalanceResponse
	err := h.env.View(c.Request.Context(), func(tx *ledger.TxContext) error {
		response = dto.BalanceResponse{
			Account: account.Hex(),
			Balance: tx.NativeBalance(account).String(),
		}
		return nil
	})
	if err != nil {
		respondTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// batchResponse maps batch progress to its response form
func batchResponse(result *factory.BatchResult) dto.BatchResponse {
	return dto.BatchResponse{
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Next:      result.Next,
		Total:     result.Total,
	}
}
