package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
)

// RegisterClientRoutes sets up referred-client routes. Status transitions
// and deletion are reserved for the super-admin.
func RegisterClientRoutes(e *echo.Echo, clientController *controllers.ClientController) {
	clients := e.Group("/api/clients")
	clients.Use(middleware.JWTMiddleware())
	clients.Use(middleware.RequireRole(models.RoleAdmin, models.RoleAgency))

	clients.GET("", clientController.List)
	clients.GET("/:id", clientController.Get)
	clients.POST("", clientController.Create)
	clients.PUT("/:id", clientController.Update)

	adminOnly := e.Group("/api/clients")
	adminOnly.Use(middleware.JWTMiddleware())
	adminOnly.Use(middleware.RequireRole(models.RoleAdmin))
	adminOnly.PATCH("/:id/status", clientController.UpdateStatus)
	adminOnly.DELETE("/:id", clientController.Delete)
}
