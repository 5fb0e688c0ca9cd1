package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
)

// RegisterAdminRoutes sets up the super-admin dashboard routes.
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminController) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	admin.GET("/stats", adminController.Stats)
	admin.GET("/activity", adminController.Activity)
}
