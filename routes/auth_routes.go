package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
)

// RegisterAuthRoutes sets up authentication routes.
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.POST("/api/auth/login", authController.Login)

	protected := e.Group("/api/auth")
	protected.Use(middleware.JWTMiddleware())
	protected.GET("/me", authController.Me)
	protected.POST("/2fa/setup", authController.Setup2FA)
	protected.POST("/2fa/verify", authController.Verify2FA)
}
