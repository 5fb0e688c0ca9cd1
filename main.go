package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/refchain/commission_backend/config"
	"github.com/refchain/commission_backend/controllers"
	"github.com/refchain/commission_backend/middleware"
	"github.com/refchain/commission_backend/models"
	"github.com/refchain/commission_backend/repositories"
	"github.com/refchain/commission_backend/routes"
	"github.com/refchain/commission_backend/services"
	"github.com/refchain/commission_backend/utils"
	"github.com/refchain/commission_backend/websocket"
)

// CustomValidator wires go-playground/validator into Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional; throttling and device tokens degrade without it)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := config.GetDatabase(client)

	// Initialize repositories
	agencyRepo := repositories.NewAgencyRepository(db)
	userRepo := repositories.NewUserRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	commissionRepo := repositories.NewCommissionRepository(db)

	seedAdmin(userRepo)

	// WebSocket hub for live activity
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Services
	resolver := services.NewAccessResolver(agencyRepo)
	enrollment := services.NewEnrollmentService(client, clientRepo, commissionRepo, wsHub)
	agencyService := services.NewAgencyService(client, agencyRepo, userRepo, clientRepo, commissionRepo, resolver)

	// Controllers
	authController := controllers.NewAuthController(userRepo, agencyRepo, redisClient)
	agencyController := controllers.NewAgencyController(agencyRepo, agencyService, resolver)
	clientController := controllers.NewClientController(client, clientRepo, commissionRepo, agencyRepo, enrollment, resolver)
	commissionController := controllers.NewCommissionController(commissionRepo, enrollment, resolver)
	adminController := controllers.NewAdminController(agencyRepo, userRepo, clientRepo, commissionRepo)
	reportController := controllers.NewReportController(clientRepo, commissionRepo, resolver)

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Commission Tracker backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Routes
	routes.RegisterAuthRoutes(e, authController)
	routes.RegisterAgencyRoutes(e, agencyController)
	routes.RegisterClientRoutes(e, clientController)
	routes.RegisterCommissionRoutes(e, commissionController)
	routes.RegisterAdminRoutes(e, adminController)
	routes.RegisterReportRoutes(e, reportController)

	// Live activity stream for authenticated sessions
	ws := e.Group("/api/ws")
	ws.Use(middleware.JWTMiddleware())
	ws.GET("", func(c echo.Context) error {
		actor, err := middleware.ActorFromContext(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid token",
			})
		}
		return websocket.HandleWebSocket(c, wsHub, actor.UserID)
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

// seedAdmin creates the super-admin account on first boot. ADMIN_EMAIL and
// ADMIN_PASSWORD must both be set for seeding to happen; an existing admin
// is never touched.
func seedAdmin(users *repositories.UserRepository) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seeding")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := users.EnsureAdmin(ctx, email, hash); err != nil {
		log.Printf("Failed to seed admin account: %v", err)
	}
}
