package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/controllers"
	"github.com/dkamau/unimart_backend/middleware"
)

// RegisterUserRoutes sets up the authenticated user's account routes
func RegisterUserRoutes(e *echo.Echo, db *mongo.Client, authController *controllers.AuthController, userController *controllers.UserController) {
	notificationController := controllers.NewNotificationController(db)

	user := e.Group("/api/user")
	user.Use(middleware.JWTMiddleware())
	user.Use(middleware.ActivityTracker(db))

	user.POST("/logout", authController.Logout)
	user.GET("/profile", userController.GetProfile)
	user.PUT("/profile", userController.UpdateProfile)
	user.POST("/profile-picture", userController.UploadProfilePicture)
	user.POST("/change-password", userController.ChangePassword)
	user.GET("/orders", userController.GetOrders)
	user.DELETE("/account", userController.DeleteAccount)

	user.GET("/notifications", notificationController.GetNotifications)
	user.PUT("/notifications/:id/read", notificationController.MarkRead)
	user.PUT("/notifications/read-all", notificationController.MarkAllRead)
}
