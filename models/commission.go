package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission is a per-agent, per-period snapshot of sales and earned
// commission, tied to the tier in effect when the snapshot was taken.
// The dashboard recomputes live figures from orders; snapshots are written
// by the admin snapshot endpoint.
type Commission struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AgentID         primitive.ObjectID  `bson:"agentId" json:"agentId"`
	TotalSales      float64             `bson:"totalSales" json:"totalSales"`
	TotalCommission float64             `bson:"totalCommission" json:"totalCommission"`
	TierID          *primitive.ObjectID `bson:"tierId,omitempty" json:"tierId,omitempty"`
	PeriodStart     time.Time           `bson:"periodStart" json:"periodStart"`
	PeriodEnd       time.Time           `bson:"periodEnd" json:"periodEnd"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}
