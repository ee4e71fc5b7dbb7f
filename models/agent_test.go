package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTierBands(t *testing.T) {
	tiers := SeedTiers()

	tests := []struct {
		name  string
		total float64
		want  string
	}{
		{"zero sales", 0, TierBronze},
		{"mid bronze", 12500, TierBronze},
		{"just below silver", 24999.99, TierBronze},
		{"exactly on silver boundary", 25000, TierSilver},
		{"mid silver", 37000, TierSilver},
		{"just below gold", 49999.99, TierSilver},
		{"exactly on gold boundary", 50000, TierGold},
		{"far above gold", 1000000, TierGold},
		{"negative total falls back to lowest", -100, TierBronze},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectTier(tiers, tt.total).Name)
		})
	}
}

func TestSelectTierIsTotal(t *testing.T) {
	tiers := SeedTiers()

	// Every non-negative total must land in exactly one band.
	for total := 0.0; total <= 100000; total += 250 {
		matches := 0
		for _, tier := range tiers {
			if tier.Contains(total) {
				matches++
			}
		}
		require.Equal(t, 1, matches, "total %.2f matched %d tiers", total, matches)
	}
}

func TestComputeTierInfoNewAgent(t *testing.T) {
	info := ComputeTierInfo(SeedTiers(), 0)

	assert.Equal(t, TierBronze, info.Name)
	assert.Equal(t, 10.0, info.CommissionRate)
	assert.Equal(t, 0.0, info.CurrentSales)
	assert.Equal(t, 25000.0, info.SalesToNextTier)
}

func TestComputeTierInfoTopTierHasNoNext(t *testing.T) {
	info := ComputeTierInfo(SeedTiers(), 75000)

	assert.Equal(t, TierGold, info.Name)
	assert.Equal(t, 30.0, info.CommissionRate)
	assert.Nil(t, info.MaxSales)
	assert.Equal(t, 0.0, info.SalesToNextTier)
}

func TestComputeTierInfoFallsBackToSeededBands(t *testing.T) {
	info := ComputeTierInfo(nil, 30000)

	assert.Equal(t, TierSilver, info.Name)
	assert.Equal(t, 20.0, info.CommissionRate)
	assert.Equal(t, 20000.0, info.SalesToNextTier)
}

func TestComputeTierInfoRateFallback(t *testing.T) {
	// A tier document missing its rate picks up the hardcoded table.
	tiers := SeedTiers()
	tiers[1].CommissionRate = 0

	info := ComputeTierInfo(tiers, 25000)
	assert.Equal(t, TierSilver, info.Name)
	assert.Equal(t, 20.0, info.CommissionRate)
}

func TestTierContains(t *testing.T) {
	bronze := SeedTiers()[0]

	assert.True(t, bronze.Contains(0))
	assert.True(t, bronze.Contains(24999.99))
	assert.False(t, bronze.Contains(25000))
	assert.False(t, bronze.Contains(-1))
}
