package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/investlink/commission_backend/config"
	"github.com/investlink/commission_backend/controllers"
	"github.com/investlink/commission_backend/middleware"
	"github.com/investlink/commission_backend/repositories"
	"github.com/investlink/commission_backend/services"
	"github.com/investlink/commission_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub) {
	// Initialize repositories
	structureRepo := repositories.NewStructureRepository(db, config.GetRedisClient())
	calculationRepo := repositories.NewCalculationRepository(db)
	withdrawalRepo := repositories.NewWithdrawalRepository(db)
	adminRepo := repositories.NewAdminRepository(db)

	// Initialize services
	calculator := services.NewCommissionCalculator(structureRepo)
	payoutService := services.NewPayoutService()

	// Initialize controllers
	authController := controllers.NewAuthController(db)
	calculationController := controllers.NewCalculationController(calculator, calculationRepo, withdrawalRepo, hub)
	structureController := controllers.NewStructureController(structureRepo, hub)
	campaignController := controllers.NewCampaignController(structureRepo)
	withdrawalController := controllers.NewWithdrawalController(withdrawalRepo, calculationRepo, adminRepo, payoutService, hub)

	// Register all route groups
	RegisterAuthRoutes(e, authController)
	RegisterCommissionRoutes(e, calculationController, withdrawalController, campaignController)
	RegisterStructureRoutes(e, structureController)
	RegisterAdminRoutes(e, withdrawalController)

	// WebSocket endpoint for calculation and withdrawal notifications
	ws := e.Group("/api/ws")
	ws.Use(middleware.JWTMiddleware())
	ws.GET("", websocket.HandleWebSocket(hub))
}
