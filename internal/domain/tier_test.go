package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		name      string
		earned    float64
		referrals int
		want      Tier
	}{
		{"zero", 0, 0, TierBronze},
		{"platinum at threshold", 5000, 50, TierPlatinum},
		{"commission one short of platinum", 4999, 50, TierGold},
		{"referrals one short of platinum", 5000, 49, TierGold},
		{"gold at threshold", 2000, 25, TierGold},
		{"silver at threshold", 500, 10, TierSilver},
		{"commission short of silver", 499.99, 10, TierBronze},
		{"referrals short of silver", 500, 9, TierBronze},
		{"high commission but few referrals", 10000, 5, TierBronze},
		{"many referrals but low commission", 10, 100, TierBronze},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := Statistics{
				TotalCommissionEarned: decimal.NewFromFloat(tc.earned),
				SuccessfulReferrals:   tc.referrals,
			}
			require.Equal(t, tc.want, TierFor(stats))
		})
	}
}
