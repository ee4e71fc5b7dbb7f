// middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dkamau/unimart_backend/models"
)

func databaseName() string {
	if name := os.Getenv("DB_NAME"); name != "" {
		return name
	}
	return "unimart"
}

// RequireRole checks if the authenticated user has one of the allowed roles.
func RequireRole(allowedRoles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := models.Role(ExtractRole(c))
			if role == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication failed: role not found",
				})
			}
			if !role.Valid() {
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Unknown account role",
				})
			}

			for _, allowed := range allowedRoles {
				if role == allowed {
					return next(c)
				}
			}

			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "Access denied for your account role",
			})
		}
	}
}

// ActivityTracker stamps the caller's lastActivityAt on every request.
func ActivityTracker(db *mongo.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserIDFromToken(c)
			if userID != "" {
				if objID, err := primitive.ObjectIDFromHex(userID); err == nil {
					go func() {
						ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						db.Database(databaseName()).Collection("users").UpdateOne(ctx,
							bson.M{"_id": objID},
							bson.M{"$set": bson.M{"lastActivityAt": time.Now()}})
					}()
				}
			}
			return next(c)
		}
	}
}
