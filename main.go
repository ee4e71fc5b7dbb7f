package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/controllers"
	"github.com/dkamau/unimart_backend/middleware"
	"github.com/dkamau/unimart_backend/repositories"
	"github.com/dkamau/unimart_backend/routes"
	"github.com/dkamau/unimart_backend/services"
	"github.com/dkamau/unimart_backend/websocket"
)

// CustomValidator is a custom validator for Echo
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

	// Initialize Firebase
	config.InitFirebase()

	// Connect to Redis
	config.ConnectRedis()
	defer config.CloseRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Payment gateway client
	pesapal := services.NewPesapalService()

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	rateLimiter := middleware.NewRateLimiter()

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
		AllowEval:      false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "UniMart Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Repositories and controllers
	userRepo := repositories.NewUserRepository(client)
	authController := controllers.NewAuthController(client)
	userController := controllers.NewUserController(client, userRepo)

	routes.RegisterAuthRoutes(e, client, authController)
	routes.RegisterUserRoutes(e, client, authController, userController)
	routes.RegisterAgentRoutes(e, client, wsHub)
	routes.RegisterShopRoutes(e, client, pesapal)
	routes.RegisterAdminRoutes(e, client, wsHub, pesapal)
	routes.RegisterWebSocketRoutes(e, client, wsHub)

	// Ensure uploads directories exist
	os.MkdirAll("uploads/agent-applications/id-documents", 0755)
	os.MkdirAll("uploads/agent-applications/student-ids", 0755)
	os.MkdirAll("uploads/products", 0755)
	os.MkdirAll("uploads/profiles", 0755)

	e.Static("/uploads", "uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
