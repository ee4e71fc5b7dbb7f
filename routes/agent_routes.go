package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/controllers"
	"github.com/dkamau/unimart_backend/middleware"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/websocket"
)

// RegisterAgentRoutes sets up application submission for users and the
// dashboard for approved agents
func RegisterAgentRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	applicationController := controllers.NewAgentApplicationController(db, hub)
	agentController := controllers.NewAgentController(db)

	// Any authenticated user can apply and check their application.
	application := e.Group("/api/agent-application")
	application.Use(middleware.JWTMiddleware())
	application.Use(middleware.ActivityTracker(db))
	application.GET("/status", applicationController.GetStatus)
	application.POST("/submit", applicationController.Submit)

	// Dashboard routes require the agent role.
	agent := e.Group("/api/agent")
	agent.Use(middleware.JWTMiddleware())
	agent.Use(middleware.ActivityTracker(db))
	agent.Use(middleware.RequireRole(models.RoleAgent, models.RoleAdmin))
	agent.GET("/dashboard", agentController.GetDashboard)
	agent.GET("/sales", agentController.GetSales)
	agent.GET("/sales/:id", agentController.GetSale)
	agent.GET("/referral-qr", agentController.GetReferralQR)
}
