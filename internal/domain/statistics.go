package domain

import "github.com/shopspring/decimal"

// Statistics is a derived snapshot, never hand-edited.
type Statistics struct {
	TotalReferrals        int
	SuccessfulReferrals   int
	PendingReferrals      int
	TotalCommissionEarned decimal.Decimal
}

// ComputeStatistics rescans the full transaction set. Only completed
// transactions contribute to earnings; cancelled ones count toward the total
// only.
func ComputeStatistics(txns []*ReferralTransaction) Statistics {
	stats := Statistics{TotalCommissionEarned: decimal.Zero}
	for _, t := range txns {
		stats.TotalReferrals++
		switch t.Status {
		case TxCompleted:
			stats.SuccessfulReferrals++
			stats.TotalCommissionEarned = stats.TotalCommissionEarned.Add(t.Commission.Amount)
		case TxPending:
			stats.PendingReferrals++
		}
	}
	return stats
}
