// controllers/commission_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
)

// CommissionController writes and reads per-agent commission snapshots.
// Live figures are always recomputed from orders; snapshots freeze a
// period's totals for payout records.
type CommissionController struct {
	DB *mongo.Client
}

// NewCommissionController creates a new commission controller
func NewCommissionController(db *mongo.Client) *CommissionController {
	return &CommissionController{DB: db}
}

// Snapshot records every active agent's current totals and tier for the
// given period. Defaults to the current calendar month. Admin only.
func (cc *CommissionController) Snapshot(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var req struct {
		PeriodStart string `json:"period_start"` // YYYY-MM-DD
		PeriodEnd   string `json:"period_end"`   // YYYY-MM-DD
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	now := time.Now()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)
	if req.PeriodStart != "" {
		parsed, err := time.Parse("2006-01-02", req.PeriodStart)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "period_start must be a YYYY-MM-DD date",
			})
		}
		periodStart = parsed
	}
	if req.PeriodEnd != "" {
		parsed, err := time.Parse("2006-01-02", req.PeriodEnd)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "period_end must be a YYYY-MM-DD date",
			})
		}
		periodEnd = parsed
	}
	if !periodEnd.After(periodStart) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "period_end must be after period_start",
		})
	}

	cursor, err := config.GetCollection(cc.DB, "agents").Find(ctx, bson.M{"isActive": true})
	if err != nil {
		log.Printf("Snapshot: failed to fetch agents: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to snapshot commissions",
		})
	}
	defer cursor.Close(ctx)

	var agents []models.Agent
	if err := cursor.All(ctx, &agents); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to snapshot commissions",
		})
	}

	tiers := loadTierBands(ctx, cc.DB)
	commissionsColl := config.GetCollection(cc.DB, "commissions")

	snapshots := make([]models.Commission, 0, len(agents))
	for _, agent := range agents {
		total, err := cc.periodSales(ctx, agent.ID, periodStart, periodEnd)
		if err != nil {
			log.Printf("Snapshot: failed to aggregate sales for agent %s: %v", agent.ID.Hex(), err)
			continue
		}

		// The tier is selected from lifetime sales, then applied to the
		// period's volume.
		lifetime, _, err := agentTotalSales(ctx, cc.DB, agent.ID)
		if err != nil {
			log.Printf("Snapshot: failed to aggregate lifetime sales for agent %s: %v", agent.ID.Hex(), err)
			continue
		}
		tier := models.SelectTier(tiers, lifetime)
		tierInfo := models.ComputeTierInfo(tiers, lifetime)

		snapshot := models.Commission{
			AgentID:         agent.ID,
			TotalSales:      total,
			TotalCommission: total * tierInfo.CommissionRate / 100,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if !tier.ID.IsZero() {
			snapshot.TierID = &tier.ID
		}

		// One snapshot per agent and period; rerunning refreshes it.
		opts := options.Replace().SetUpsert(true)
		_, err = commissionsColl.ReplaceOne(ctx,
			bson.M{"agentId": agent.ID, "periodStart": periodStart, "periodEnd": periodEnd},
			snapshot, opts)
		if err != nil {
			log.Printf("Snapshot: failed to write snapshot for agent %s: %v", agent.ID.Hex(), err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission snapshot completed",
		Data: map[string]interface{}{
			"period_start": periodStart,
			"period_end":   periodEnd,
			"agents":       len(agents),
			"snapshots":    snapshots,
		},
	})
}

func (cc *CommissionController) periodSales(ctx context.Context, agentID primitive.ObjectID, start, end time.Time) (float64, error) {
	match := salesMatch(agentID)
	match["createdAt"] = bson.M{"$gte": start, "$lt": end}

	cursor, err := config.GetCollection(cc.DB, "orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalAmount"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// ListSnapshots returns stored snapshots, optionally filtered by agent.
// Admin only.
func (cc *CommissionController) ListSnapshots(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if agentParam := c.QueryParam("agent_id"); agentParam != "" {
		agentID, err := primitive.ObjectIDFromHex(agentParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid agent ID format",
			})
		}
		filter["agentId"] = agentID
	}

	opts := options.Find().SetSort(bson.D{{Key: "periodStart", Value: -1}})
	cursor, err := config.GetCollection(cc.DB, "commissions").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission snapshots",
		})
	}
	defer cursor.Close(ctx)

	snapshots := []models.Commission{}
	if err := cursor.All(ctx, &snapshots); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode commission snapshots",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission snapshots retrieved successfully",
		Data:    snapshots,
	})
}
