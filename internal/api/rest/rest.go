package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/hushnetwork/token-factory/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Factory and registry reads (public access)
		v1.GET("/factory", handler.GetFactoryInfo)
		v1.GET("/tokens", handler.ListTokens)
		v1.GET("/tokens/:address", handler.GetToken)
		v1.GET("/tokens/:address/mode-params", handler.GetModeParams)
		v1.GET("/tokens/:address/balances/:account", handler.GetTokenBalance)
		v1.GET("/accounts/:address/balance", handler.GetNativeBalance)

		// Token creation through the factory's payment path
		v1.POST("/tokens", handler.CreateToken)

		// Token transfers
		v1.POST("/tokens/:address/transfer", handler.Transfer)

		// Creator lifecycle operations (authorized by ledger witness)
		v1.POST("/tokens/:address/mint", handler.Mint)
		v1.POST("/tokens/:address/burn-rate", handler.SetBurnRate)
		v1.POST("/tokens/:address/max-supply", handler.SetMaxSupply)
		v1.POST("/tokens/:address/metadata", handler.UpdateMetadata)
		v1.POST("/tokens/:address/creator-fee", handler.SetCreatorFee)
		v1.POST("/tokens/:address/mode", handler.ChangeMode)
		v1.POST("/tokens/:address/lock", handler.LockToken)
		v1.POST("/tokens/:address/changes", handler.ApplyChanges)
		v1.POST("/tokens/:address/pausable", handler.SetPausable)
		v1.POST("/tokens/:address/pause", handler.PauseToken)
		v1.POST("/tokens/:address/unpause", handler.UnpauseToken)

		// Token instance owner operations and factory migration
		v1.POST("/tokens/:address/owner", handler.SetTokenOwner)
		v1.POST("/tokens/:address/factory", handler.AuthorizeTokenFactory)

		// Factory administration (requires authentication)
		admin := v1.Group("/admin", middleware.Auth(authCfg))
		{
			admin.POST("/pause", handler.PauseFactory)
			admin.POST("/unpause", handler.UnpauseFactory)
			admin.POST("/owner", handler.SetFactoryOwner)
			admin.POST("/template", handler.SetTemplate)
			admin.POST("/creation-fee", handler.SetCreationFee)
			admin.POST("/update-fee", handler.SetUpdateFee)
			admin.POST("/treasury", handler.SetTreasury)
			admin.POST("/premium-tiers", handler.SetPremiumTiers)
			admin.POST("/tokens/authorize-factory", handler.AuthorizeAllTokens)
			admin.POST("/tokens/platform-fee", handler.SetAllPlatformFee)
			admin.POST("/credit", handler.Credit)
		}
	}
}
