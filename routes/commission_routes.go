package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/investlink/commission_backend/controllers"
	"github.com/investlink/commission_backend/middleware"
)

// RegisterCommissionRoutes sets up calculation, balance, withdrawal and campaign routes
func RegisterCommissionRoutes(e *echo.Echo, calculationController *controllers.CalculationController, withdrawalController *controllers.WithdrawalController, campaignController *controllers.CampaignController) {
	commission := e.Group("/api/commission")
	commission.Use(middleware.JWTMiddleware())

	// Calculation routes
	commission.POST("/calculate", calculationController.Calculate)
	commission.GET("/calculations", calculationController.GetCalculations)
	commission.GET("/calculations/summary", calculationController.GetCalculationSummary)
	commission.GET("/balance", calculationController.GetBalance)

	// Agent withdrawal routes
	commission.POST("/withdraw", withdrawalController.RequestWithdrawal)
	commission.GET("/withdrawals", withdrawalController.GetWithdrawals)

	// Campaign routes
	commission.GET("/campaigns/active", campaignController.GetActiveCampaigns)
	commission.GET("/campaigns/:structureId/qrcode", campaignController.GetCampaignQRCode)
}
