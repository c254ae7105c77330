package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes. authRequired is the cookie-JWT
// middleware; only registration, login, refresh, and email verification stay
// outside it.
func SetupRoutes(router *gin.Engine, handler Handler, authRequired gin.HandlerFunc) {
	// Health check endpoint (no auth)
	router.GET("/health", handler.HealthCheck)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/refresh", handler.Refresh)
		authGroup.POST("/logout", handler.Logout)
		authGroup.GET("/verify", handler.VerifyEmail)
		authGroup.POST("/resend-verify", authRequired, handler.ResendVerification)

		mfa := authGroup.Group("/mfa", authRequired)
		{
			mfa.POST("/setup", handler.MFASetup)
			mfa.POST("/enable", handler.MFAEnable)
			mfa.POST("/disable", handler.MFADisable)
		}
	}

	account := router.Group("/account", authRequired)
	{
		account.GET("/", handler.GetAccount)
		account.POST("/update-username", handler.UpdateUsername)
		account.POST("/update-email", handler.UpdateEmail)
		account.POST("/change-password", handler.ChangePassword)
		account.DELETE("/delete", handler.DeleteAccount)
	}

	cards := router.Group("/cards", authRequired)
	{
		cards.POST("/", handler.CreateCard)
		cards.GET("/", handler.ListCards)
		cards.GET("/count", handler.CountCards)
		cards.POST("/import-csv", handler.ImportCardsCSV)
		cards.GET("/export-csv", handler.ExportCardsCSV)
		cards.POST("/revalue-all", handler.RevalueAll)
		cards.GET("/:id", handler.GetCard)
		cards.PUT("/:id", handler.UpdateCard)
		cards.DELETE("/:id", handler.DeleteCard)
		cards.POST("/:id/value", handler.CardValue)
		cards.POST("/:id/upload-front", handler.UploadFrontImage)
		cards.POST("/:id/upload-back", handler.UploadBackImage)
	}

	settings := router.Group("/settings", authRequired)
	{
		settings.GET("/", handler.GetSettings)
		settings.PUT("/", handler.UpdateSettings)
	}

	dictionary := router.Group("/dictionary", authRequired)
	{
		dictionary.GET("/entries", handler.ListDictionaryEntries)
		dictionary.POST("/entries", handler.CreateDictionaryEntry)
		dictionary.GET("/entries/:id", handler.GetDictionaryEntry)
		dictionary.PUT("/entries/:id", handler.UpdateDictionaryEntry)
		dictionary.DELETE("/entries/:id", handler.DeleteDictionaryEntry)
		dictionary.GET("/count", handler.CountDictionary)
		dictionary.GET("/players", handler.ListPlayers)
		dictionary.GET("/search", handler.SearchDictionary)
		dictionary.POST("/validate-csv", handler.ValidateDictionaryCSV)
		dictionary.POST("/import-csv", handler.ImportDictionaryCSV)
		dictionary.PATCH("/players/rookie-year", handler.SetRookieYear)
	}

	analytics := router.Group("/analytics", authRequired)
	{
		analytics.GET("/", handler.GetAnalytics)
	}

	valuation := router.Group("/valuation", authRequired)
	{
		valuation.POST("/sales", handler.CreateSale)
		valuation.GET("/sales/:card_id", handler.ListSales)
		valuation.GET("/stats/:card_id", handler.SaleStats)
		valuation.GET("/trends/:card_id", handler.SaleTrends)
		valuation.POST("/fetch-now", handler.FetchSalesNow)
	}

	chatGroup := router.Group("/chat", authRequired)
	{
		chatGroup.POST("/", handler.Chat)
	}
}
