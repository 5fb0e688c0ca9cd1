package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
)

// RegisterAgencyRoutes sets up agency management routes. Updates and deletes
// are reserved for the super-admin; the rest is open to both roles, the
// resolver scoping what each actor can see.
func RegisterAgencyRoutes(e *echo.Echo, agencyController *controllers.AgencyController) {
	agencies := e.Group("/api/agencies")
	agencies.Use(middleware.JWTMiddleware())
	agencies.Use(middleware.RequireRole(models.RoleAdmin, models.RoleAgency))

	agencies.GET("/tree", agencyController.Tree)
	agencies.GET("/:id", agencyController.Get)
	agencies.GET("/:id/details", agencyController.Details)
	agencies.POST("", agencyController.Create)

	adminOnly := e.Group("/api/agencies")
	adminOnly.Use(middleware.JWTMiddleware())
	adminOnly.Use(middleware.RequireRole(models.RoleAdmin))
	adminOnly.PUT("/:id", agencyController.Update)
	adminOnly.DELETE("/:id", agencyController.Delete)
}
