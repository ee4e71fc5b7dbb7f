package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/controllers"
	"github.com/dkamau/unimart_backend/middleware"
	"github.com/dkamau/unimart_backend/services"
)

// RegisterShopRoutes sets up the public catalog plus the authenticated cart
// and checkout flow
func RegisterShopRoutes(e *echo.Echo, db *mongo.Client, pesapal *services.PesapalService) {
	productController := controllers.NewProductController(db)
	categoryController := controllers.NewCategoryController(db)
	cartController := controllers.NewCartController(db)
	orderController := controllers.NewOrderController(db, pesapal)

	// Public catalog
	e.GET("/api/products", productController.ListProducts)
	e.GET("/api/products/featured", productController.GetFeaturedProducts)
	e.GET("/api/products/:id", productController.GetProduct)
	e.GET("/api/categories", categoryController.ListCategories)

	// Pesapal calls back without a JWT.
	e.GET("/api/payments/callback", orderController.PaymentCallback)
	e.GET("/api/payments/ipn", orderController.PaymentCallback)

	// Cart
	cart := e.Group("/api/cart")
	cart.Use(middleware.JWTMiddleware())
	cart.Use(middleware.ActivityTracker(db))
	cart.GET("", cartController.GetCart)
	cart.POST("/items", cartController.AddItem)
	cart.PUT("/items/:productId", cartController.UpdateItem)
	cart.DELETE("/items/:productId", cartController.RemoveItem)
	cart.DELETE("", cartController.ClearCart)

	// Checkout
	orders := e.Group("/api/orders")
	orders.Use(middleware.JWTMiddleware())
	orders.Use(middleware.ActivityTracker(db))
	orders.POST("", orderController.CreateOrder)
	orders.GET("/:id", orderController.GetOrder)
	orders.POST("/:id/pay", orderController.InitiatePayment)
}
