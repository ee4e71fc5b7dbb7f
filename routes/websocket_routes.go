package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/middleware"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
	"github.com/dkamau/unimart_backend/websocket"
)

// RegisterWebSocketRoutes sets up the live notification socket
func RegisterWebSocketRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub) {
	ws := e.Group("/api/ws")
	ws.Use(middleware.JWTMiddleware())

	ws.GET("", func(c echo.Context) error {
		userID, err := utils.GetUserIDFromToken(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid authentication token",
			})
		}
		isAdmin := middleware.ExtractRole(c) == string(models.RoleAdmin)
		return websocket.HandleWebSocket(c, hub, userID, isAdmin)
	})
}
