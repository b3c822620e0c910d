package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/investlink/commission_backend/controllers"
	"github.com/investlink/commission_backend/middleware"
)

// RegisterAuthRoutes sets up authentication and session routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)
	e.GET("/api/auth/validate-token", authController.ValidateToken)
	e.POST("/api/auth/refresh-token", authController.RefreshToken)
	e.POST("/api/auth/remember-me/get", authController.GetRememberedCredentials)
	e.POST("/api/auth/remember-me/remove", authController.ClearRememberedCredentials)

	// Protected session routes
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTMiddleware())
	auth.POST("/logout", authController.Logout)

	// Account creation is restricted to admins
	register := auth.Group("")
	register.Use(middleware.RequireUserType("admin"))
	register.POST("/register", authController.CreateAdmin)
}
