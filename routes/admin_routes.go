package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/investlink/commission_backend/controllers"
	"github.com/investlink/commission_backend/middleware"
)

// RegisterAdminRoutes sets up the admin withdrawal processing queue
func RegisterAdminRoutes(e *echo.Echo, withdrawalController *controllers.WithdrawalController) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType("admin"))

	// Commission withdrawal approval/rejection routes
	admin.GET("/withdrawals", withdrawalController.ListWithdrawalRequests)
	admin.POST("/withdrawals/:id/process", withdrawalController.ProcessWithdrawal)
	admin.GET("/withdrawals/:id/payout-status", withdrawalController.GetPayoutStatus)
}
