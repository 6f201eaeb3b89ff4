package domain

import "github.com/shopspring/decimal"

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

type tierThreshold struct {
	tier          Tier
	minCommission decimal.Decimal
	minReferrals  int
}

// Descending order, first match wins. Both conditions of a row must hold.
var tierTable = []tierThreshold{
	{TierPlatinum, decimal.NewFromInt(5000), 50},
	{TierGold, decimal.NewFromInt(2000), 25},
	{TierSilver, decimal.NewFromInt(500), 10},
}

// TierFor re-evaluates from current statistics on every call; it makes no
// monotonicity assumption.
func TierFor(stats Statistics) Tier {
	for _, row := range tierTable {
		if stats.TotalCommissionEarned.GreaterThanOrEqual(row.minCommission) &&
			stats.SuccessfulReferrals >= row.minReferrals {
			return row.tier
		}
	}
	return TierBronze
}
