package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
)

// RegisterReportRoutes sets up the dashboard summary and CSV export routes.
// Both are scope-filtered, so they are open to both roles.
func RegisterReportRoutes(e *echo.Echo, reportController *controllers.ReportController) {
	reports := e.Group("/api/reports")
	reports.Use(middleware.JWTMiddleware())
	reports.Use(middleware.RequireRole(models.RoleAdmin, models.RoleAgency))

	reports.GET("/dashboard", reportController.Dashboard)
	reports.GET("/export", reportController.Export)
}
