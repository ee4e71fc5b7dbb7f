package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/controllers"
	"github.com/dkamau/unimart_backend/middleware"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/services"
	"github.com/dkamau/unimart_backend/websocket"
)

// RegisterAdminRoutes sets up the admin review workflow and management
// endpoints
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, pesapal *services.PesapalService) {
	applicationController := controllers.NewAdminAgentApplicationController(db, hub)
	adminUserController := controllers.NewAdminUserController(db)
	commissionController := controllers.NewCommissionController(db)
	productController := controllers.NewProductController(db)
	categoryController := controllers.NewCategoryController(db)
	orderController := controllers.NewOrderController(db, pesapal)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.ActivityTracker(db))
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	// Agent application review
	admin.GET("/agent-applications", applicationController.ListApplications)
	admin.GET("/agent-applications/:id", applicationController.GetApplication)
	admin.POST("/agent-applications/:id/approve", applicationController.ApproveApplication)
	admin.POST("/agent-applications/:id/reject", applicationController.RejectApplication)
	admin.GET("/agent-applications/:id/documents/:type", applicationController.DownloadDocument)

	// Account management
	admin.GET("/users", adminUserController.ListUsers)
	admin.GET("/users/:id", adminUserController.GetUser)
	admin.PUT("/users/:id/active", adminUserController.SetUserActive)
	admin.GET("/agents", adminUserController.ListAgents)

	// Commission snapshots
	admin.POST("/commissions/snapshot", commissionController.Snapshot)
	admin.GET("/commissions", commissionController.ListSnapshots)

	// Catalog management
	admin.POST("/products", productController.CreateProduct)
	admin.PUT("/products/:id", productController.UpdateProduct)
	admin.DELETE("/products/:id", productController.DeleteProduct)
	admin.POST("/categories", categoryController.CreateCategory)
	admin.PUT("/categories/:id", categoryController.UpdateCategory)
	admin.DELETE("/categories/:id", categoryController.DeleteCategory)

	// Payment gateway setup
	admin.POST("/payments/register-ipn", orderController.RegisterPaymentIPN)
}
