// controllers/agent_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
	"github.com/dkamau/unimart_backend/utils"
)

const dashboardCacheTTL = 5 * time.Minute

// AgentController serves the agent dashboard, sales history and referral
// tooling for approved agents
type AgentController struct {
	DB *mongo.Client
}

// NewAgentController creates a new agent controller
func NewAgentController(db *mongo.Client) *AgentController {
	return &AgentController{DB: db}
}

// agentForUser resolves the caller's agent record.
func (ac *AgentController) agentForUser(ctx context.Context, c echo.Context) (*models.Agent, error) {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return nil, err
	}
	var agent models.Agent
	err = config.GetCollection(ac.DB, "agents").FindOne(ctx, bson.M{"userId": userID}).Decode(&agent)
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetDashboard returns the agent's live stats, tier position, quarterly
// chart data and recent sales. The payload is cached in Redis for a few
// minutes since every figure is recomputed from orders.
func (ac *AgentController) GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent, err := ac.agentForUser(ctx, c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "No agent profile found for this account",
			})
		}
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	cacheKey := "agent:dashboard:" + agent.ID.Hex()
	if rdb := config.GetRedisClient(); rdb != nil {
		if cached, err := rdb.Get(ctx, cacheKey).Result(); err == nil {
			var data map[string]interface{}
			if err := json.Unmarshal([]byte(cached), &data); err == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Dashboard retrieved successfully",
					Data:    data,
				})
			}
		}
	}

	total, orderCount, err := agentTotalSales(ctx, ac.DB, agent.ID)
	if err != nil {
		log.Printf("Failed to aggregate sales for agent %s: %v", agent.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load dashboard",
		})
	}

	tierInfo := models.ComputeTierInfo(loadTierBands(ctx, ac.DB), total)
	totalCommission := total * tierInfo.CommissionRate / 100

	quarters, err := ac.quarterlyData(ctx, agent.ID)
	if err != nil {
		log.Printf("Failed to build quarterly data for agent %s: %v", agent.ID.Hex(), err)
		quarters = []models.QuarterData{}
	}

	recent, err := ac.recentSales(ctx, agent.ID, 5)
	if err != nil {
		log.Printf("Failed to load recent sales for agent %s: %v", agent.ID.Hex(), err)
		recent = []models.RecentSale{}
	}

	data := map[string]interface{}{
		"agent_code": agent.AgentCode,
		"stats": map[string]interface{}{
			"total_sales":      total,
			"total_orders":     orderCount,
			"total_commission": totalCommission,
			"commission_rate":  tierInfo.CommissionRate,
		},
		"tier_info":      tierInfo,
		"quarterly_data": quarters,
		"recent_sales":   recent,
	}

	if rdb := config.GetRedisClient(); rdb != nil {
		if payload, err := json.Marshal(data); err == nil {
			if err := rdb.Set(ctx, cacheKey, payload, dashboardCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache dashboard for agent %s: %v", agent.ID.Hex(), err)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved successfully",
		Data:    data,
	})
}

// quarterlyData buckets the current year's sales into quarters.
func (ac *AgentController) quarterlyData(ctx context.Context, agentID primitive.ObjectID) ([]models.QuarterData, error) {
	yearStart := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	match := salesMatch(agentID)
	match["createdAt"] = bson.M{"$gte": yearStart}

	cursor, err := config.GetCollection(ac.DB, "orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$ceil": bson.M{"$divide": []interface{}{bson.M{"$month": "$createdAt"}, 3}}},
			"sales": bson.M{"$sum": "$totalAmount"},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Quarter int32   `bson:"_id"`
		Sales   float64 `bson:"sales"`
		Count   int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	byQuarter := map[int32]models.QuarterData{}
	for _, row := range rows {
		byQuarter[row.Quarter] = models.QuarterData{
			Quarter: fmt.Sprintf("Q%d", row.Quarter),
			Sales:   row.Sales,
			Orders:  row.Count,
		}
	}

	// Always return four bars so the chart keeps its shape.
	quarters := make([]models.QuarterData, 0, 4)
	for q := int32(1); q <= 4; q++ {
		if data, ok := byQuarter[q]; ok {
			quarters = append(quarters, data)
		} else {
			quarters = append(quarters, models.QuarterData{Quarter: fmt.Sprintf("Q%d", q)})
		}
	}
	return quarters, nil
}

func (ac *AgentController) recentSales(ctx context.Context, agentID primitive.ObjectID, limit int64) ([]models.RecentSale, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := config.GetCollection(ac.DB, "orders").Find(ctx, salesMatch(agentID), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}

	sales := make([]models.RecentSale, 0, len(orders))
	for _, order := range orders {
		sales = append(sales, models.RecentSale{
			ID:             order.ID,
			OrderReference: order.OrderReference,
			FullName:       order.FullName,
			TotalAmount:    order.TotalAmount,
			Status:         order.Status,
			CreatedAt:      order.CreatedAt.Format(time.RFC3339),
		})
	}
	return sales, nil
}

// GetSales returns the agent's paginated sales history with aggregate stats.
func (ac *AgentController) GetSales(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent, err := ac.agentForUser(ctx, c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "No agent profile found for this account",
			})
		}
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 15
	}

	ordersColl := config.GetCollection(ac.DB, "orders")
	filter := salesMatch(agent.ID)
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}
	if search := c.QueryParam("search"); search != "" {
		pattern := utils.SearchPattern(search)
		filter["$or"] = []bson.M{
			{"orderReference": bson.M{"$regex": pattern, "$options": "i"}},
			{"fullName": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	total, err := ordersColl.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve sales",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := ordersColl.Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve sales",
		})
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode sales",
		})
	}

	stats, err := ac.salesStats(ctx, agent.ID)
	if err != nil {
		log.Printf("Failed to aggregate sales stats for agent %s: %v", agent.ID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Sales retrieved successfully",
		Data: map[string]interface{}{
			"sales": orders,
			"stats": stats,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

func (ac *AgentController) salesStats(ctx context.Context, agentID primitive.ObjectID) (models.SalesStats, error) {
	var stats models.SalesStats

	total, count, err := agentTotalSales(ctx, ac.DB, agentID)
	if err != nil {
		return stats, err
	}
	stats.TotalSales = total
	stats.TotalOrders = count
	if count > 0 {
		stats.AverageOrderValue = total / float64(count)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	match := salesMatch(agentID)
	match["createdAt"] = bson.M{"$gte": monthStart}

	cursor, err := config.GetCollection(ac.DB, "orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	})
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, err
	}
	if len(rows) > 0 {
		stats.ThisMonthSales = rows[0].Total
	}
	return stats, nil
}

// GetSale returns one of the agent's orders in full.
func (ac *AgentController) GetSale(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent, err := ac.agentForUser(ctx, c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "No agent profile found for this account",
			})
		}
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID format",
		})
	}

	var order models.Order
	err = config.GetCollection(ac.DB, "orders").FindOne(ctx, bson.M{"_id": orderID, "agentId": agent.ID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Sale not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve sale",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Sale retrieved successfully",
		Data:    order,
	})
}

// GetReferralQR renders the agent's referral link as a PNG QR code.
func (ac *AgentController) GetReferralQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agent, err := ac.agentForUser(ctx, c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: "No agent profile found for this account",
			})
		}
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid authentication token",
		})
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "https://unimart.co.ke"
	}
	referralLink := fmt.Sprintf("%s/shop?ref=%s", frontendURL, agent.AgentCode)

	qrCode, err := qr.Encode(referralLink, qr.M, qr.Auto)
	if err != nil {
		log.Printf("Failed to encode referral QR for agent %s: %v", agent.ID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}
