// controllers/agent_stats.go
package controllers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dkamau/unimart_backend/config"
	"github.com/dkamau/unimart_backend/models"
)

// salesMatch is the base filter for an agent's countable sales. Cancelled
// orders never count toward sales or commission.
func salesMatch(agentID primitive.ObjectID) bson.M {
	return bson.M{
		"agentId": agentID,
		"status":  bson.M{"$ne": models.OrderStatusCancelled},
	}
}

// agentTotalSales sums an agent's non-cancelled order amounts.
func agentTotalSales(ctx context.Context, db *mongo.Client, agentID primitive.ObjectID) (float64, int64, error) {
	cursor, err := config.GetCollection(db, "orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: salesMatch(agentID)}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$totalAmount"},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
		Count int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Total, rows[0].Count, nil
}

// loadTierBands fetches the tier bands sorted by minimum sales, falling back
// to the seeded reference bands when the collection is unreachable or empty.
func loadTierBands(ctx context.Context, db *mongo.Client) []models.AgentTier {
	opts := options.Find().SetSort(bson.D{{Key: "minSales", Value: 1}})
	cursor, err := config.GetCollection(db, "agent_tiers").Find(ctx, bson.M{}, opts)
	if err != nil {
		return models.SeedTiers()
	}
	defer cursor.Close(ctx)

	var tiers []models.AgentTier
	if err := cursor.All(ctx, &tiers); err != nil || len(tiers) == 0 {
		return models.SeedTiers()
	}
	return tiers
}
