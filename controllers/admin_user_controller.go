// controllers/admin_user_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
)

// AdminUserController handles account management for admins
type AdminUserController struct {
	DB *mongo.Client
}

// NewAdminUserController creates a new admin user controller
func NewAdminUserController(db *mongo.Client) *AdminUserController {
	return &AdminUserController{DB: db}
}

// ListUsers returns a paginated account list with role and search filters.
func (ac *AdminUserController) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := c.QueryParam("role"); role != "" {
		if !models.Role(role).Valid() {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid role filter",
			})
		}
		filter["role"] = role
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := utils.SearchPattern(search)
		filter["$or"] = []bson.M{
			{"fullName": bson.M{"$regex": pattern, "$options": "i"}},
			{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	collection := config.GetCollection(ac.DB, "users")

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("Failed to count users: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve users",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve users",
		})
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode users",
		})
	}

	publicUsers := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		publicUsers = append(publicUsers, u.Public())
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data: map[string]interface{}{
			"users": publicUsers,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// GetUser returns a single account with its agent profile (if any) and the
// user's most recent orders.
func (ac *AdminUserController) GetUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	var user models.User
	if err := config.GetCollection(ac.DB, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		log.Printf("Failed to fetch user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve user",
		})
	}

	data := map[string]interface{}{
		"user": user.Public(),
	}

	var agent models.Agent
	if err := config.GetCollection(ac.DB, "agents").FindOne(ctx, bson.M{"userId": userID}).Decode(&agent); err == nil {
		total, count, err := agentTotalSales(ctx, ac.DB, agent.ID)
		if err != nil {
			log.Printf("Failed to aggregate sales for agent %s: %v", agent.ID.Hex(), err)
		}
		data["agent"] = agent
		data["agent_stats"] = map[string]interface{}{
			"total_sales":  total,
			"total_orders": count,
			"tier":         models.ComputeTierInfo(loadTierBands(ctx, ac.DB), total),
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(10)
	cursor, err := config.GetCollection(ac.DB, "orders").Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		log.Printf("Failed to fetch orders for user %s: %v", userID.Hex(), err)
	} else {
		defer cursor.Close(ctx)
		orders := []models.Order{}
		if err := cursor.All(ctx, &orders); err == nil {
			data["recent_orders"] = orders
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    data,
	})
}

// SetUserActive activates or deactivates an account. Deactivating an agent
// also pauses their referral code.
func (ac *AdminUserController) SetUserActive(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "isActive is required",
		})
	}

	now := time.Now()
	result, err := config.GetCollection(ac.DB, "users").UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"isActive": *req.IsActive, "updatedAt": now}},
	)
	if err != nil {
		log.Printf("Failed to update user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update user",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	_, err = config.GetCollection(ac.DB, "agents").UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"isActive": *req.IsActive, "updatedAt": now}},
	)
	if err != nil {
		log.Printf("Failed to sync agent active flag for %s: %v", userID.Hex(), err)
	}

	message := "User deactivated successfully"
	if *req.IsActive {
		message = "User activated successfully"
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
	})
}

// ListAgents returns all agents with their live tier position.
func (ac *AdminUserController) ListAgents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := config.GetCollection(ac.DB, "agents").Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		log.Printf("Failed to fetch agents: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve agents",
		})
	}
	defer cursor.Close(ctx)

	var agents []models.Agent
	if err := cursor.All(ctx, &agents); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode agents",
		})
	}

	tiers := loadTierBands(ctx, ac.DB)

	rows := make([]map[string]interface{}, 0, len(agents))
	for _, agent := range agents {
		total, count, err := agentTotalSales(ctx, ac.DB, agent.ID)
		if err != nil {
			log.Printf("Failed to aggregate sales for agent %s: %v", agent.ID.Hex(), err)
		}
		tierInfo := models.ComputeTierInfo(tiers, total)

		var user models.User
		var publicUser models.PublicUser
		if err := config.GetCollection(ac.DB, "users").FindOne(ctx, bson.M{"_id": agent.UserID}).Decode(&user); err == nil {
			publicUser = user.Public()
		}

		rows = append(rows, map[string]interface{}{
			"agent":            agent,
			"user":             publicUser,
			"total_sales":      total,
			"total_orders":     count,
			"total_commission": total * tierInfo.CommissionRate / 100,
			"tier":             tierInfo,
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Agents retrieved successfully",
		Data:    rows,
	})
}
