package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/controllers"
)

// RegisterAuthRoutes sets up authentication and password recovery routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client, authController *controllers.AuthController) {
	passwordController := controllers.NewPasswordController(db)

	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/google", authController.GoogleSignIn)
	e.POST("/api/auth/refresh-token", authController.RefreshToken)

	e.POST("/api/auth/forgot-password", passwordController.ForgotPassword)
	e.POST("/api/auth/reset-password", passwordController.ResetPassword)
}
