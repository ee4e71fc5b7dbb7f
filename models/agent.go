// models/agent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCommissionRate is applied when an admin approves an application
// without overriding the rate.
const DefaultCommissionRate = 10.00

// Agent is an approved student representative. Exactly one agent exists per
// approved application, enforced by unique indexes on userId and
// applicationId.
type Agent struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"userId" bson:"userId"`
	ApplicationID   primitive.ObjectID `json:"applicationId" bson:"applicationId"`
	AgentCode       string             `json:"agentCode" bson:"agentCode"`
	CommissionRate  float64            `json:"commissionRate" bson:"commissionRate"`
	TotalSales      float64            `json:"totalSales" bson:"totalSales"`
	TotalCommission float64            `json:"totalCommission" bson:"totalCommission"`
	IsActive        bool               `json:"isActive" bson:"isActive"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AgentTier is a sales-volume band with its commission percentage.
// MaxSales is nil for the unbounded top tier. Bands are min-inclusive and
// max-exclusive and partition the non-negative sales axis.
type AgentTier struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	MinSales       float64            `json:"minSales" bson:"minSales"`
	MaxSales       *float64           `json:"maxSales,omitempty" bson:"maxSales,omitempty"`
	CommissionRate float64            `json:"commissionRate" bson:"commissionRate"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Contains reports whether total falls inside the tier's [min, max) band.
func (t AgentTier) Contains(total float64) bool {
	if total < t.MinSales {
		return false
	}
	return t.MaxSales == nil || total < *t.MaxSales
}

// Tier names. Seeded once at startup; read-only at runtime.
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

func tierBound(v float64) *float64 { return &v }

// SeedTiers returns the reference tier bands. Silver begins at exactly
// 25000: boundaries are min-inclusive, so a total sitting on a bound belongs
// to the higher tier.
func SeedTiers() []AgentTier {
	return []AgentTier{
		{Name: TierBronze, MinSales: 0, MaxSales: tierBound(25000), CommissionRate: 10.00},
		{Name: TierSilver, MinSales: 25000, MaxSales: tierBound(50000), CommissionRate: 20.00},
		{Name: TierGold, MinSales: 50000, MaxSales: nil, CommissionRate: 30.00},
	}
}

// fallbackCommissionRates is used when a tier document is missing from the
// database.
var fallbackCommissionRates = map[string]float64{
	TierBronze: 10,
	TierSilver: 20,
	TierGold:   30,
}

// TierInfo is the computed tier position of an agent.
type TierInfo struct {
	Name            string   `json:"name"`
	MinSales        float64  `json:"min_sales"`
	MaxSales        *float64 `json:"max_sales,omitempty"`
	CommissionRate  float64  `json:"commission_rate"`
	CurrentSales    float64  `json:"current_sales"`
	SalesToNextTier float64  `json:"sales_to_next_tier"`
}

// SelectTier maps a lifetime sales total onto one of the given bands.
// Negative totals and totals outside every band fall back to the first
// (lowest) tier. tiers must be sorted by MinSales ascending.
func SelectTier(tiers []AgentTier, totalSales float64) AgentTier {
	for _, t := range tiers {
		if t.Contains(totalSales) {
			return t
		}
	}
	return tiers[0]
}

// ComputeTierInfo derives the full tier position for a sales total. Missing
// or zero commission rates on the selected tier fall back to the hardcoded
// table. SalesToNextTier is zero at the top tier.
func ComputeTierInfo(tiers []AgentTier, totalSales float64) TierInfo {
	if len(tiers) == 0 {
		tiers = SeedTiers()
	}
	tier := SelectTier(tiers, totalSales)

	rate := tier.CommissionRate
	if rate == 0 {
		rate = fallbackCommissionRates[tier.Name]
	}

	var toNext float64
	if tier.MaxSales != nil {
		toNext = *tier.MaxSales - totalSales
		if toNext < 0 {
			toNext = 0
		}
	}

	return TierInfo{
		Name:            tier.Name,
		MinSales:        tier.MinSales,
		MaxSales:        tier.MaxSales,
		CommissionRate:  rate,
		CurrentSales:    totalSales,
		SalesToNextTier: toNext,
	}
}
