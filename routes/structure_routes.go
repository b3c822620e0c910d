package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/investlink/commission_backend/controllers"
	"github.com/investlink/commission_backend/middleware"
)

// RegisterStructureRoutes sets up commission structure management routes.
// Reads are open to any authenticated user; mutations are admin only.
func RegisterStructureRoutes(e *echo.Echo, structureController *controllers.StructureController) {
	structures := e.Group("/api/commission/structures")
	structures.Use(middleware.JWTMiddleware())

	structures.GET("", structureController.ListStructures)
	structures.GET("/:structureId", structureController.GetStructure)

	admin := structures.Group("")
	admin.Use(middleware.RequireUserType("admin"))
	admin.POST("", structureController.CreateStructure)
	admin.PUT("/:structureId", structureController.UpdateStructure)
	admin.DELETE("/:structureId", structureController.DeactivateStructure)
	admin.POST("/:structureId/activate", structureController.ActivateStructure)
}
