package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
)

// RegisterCommissionRoutes sets up commission routes. Payment is reserved
// for the super-admin.
func RegisterCommissionRoutes(e *echo.Echo, commissionController *controllers.CommissionController) {
	commissions := e.Group("/api/commissions")
	commissions.Use(middleware.JWTMiddleware())
	commissions.Use(middleware.RequireRole(models.RoleAdmin, models.RoleAgency))

	commissions.GET("", commissionController.List)
	commissions.GET("/stats", commissionController.Stats)

	adminOnly := e.Group("/api/commissions")
	adminOnly.Use(middleware.JWTMiddleware())
	adminOnly.Use(middleware.RequireRole(models.RoleAdmin))
	adminOnly.PATCH("/:id/pay", commissionController.Pay)
}
