package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func milestoneAccount() *ReferralAccount {
	return &ReferralAccount{
		OwnerID: 1,
		Code:    "TESTCODE",
		Milestones: []*Milestone{
			{
				ID:     uuid.New(),
				Kind:   MilestoneSuccessfulConversions,
				Target: decimal.NewFromInt(2),
				Reward: RewardSpec{Type: RewardDiscount, Value: decimal.NewFromInt(10), TTL: 24 * time.Hour},
			},
			{
				ID:     uuid.New(),
				Kind:   MilestoneCommissionEarned,
				Target: decimal.NewFromInt(100),
				Reward: RewardSpec{Type: RewardCredits, Value: decimal.NewFromInt(500)},
			},
		},
	}
}

func TestEvaluateMilestonesIssuesOnCrossing(t *testing.T) {
	a := milestoneAccount()
	a.Statistics = Statistics{SuccessfulReferrals: 2, TotalCommissionEarned: decimal.NewFromInt(40)}
	now := time.Now()
	source := uuid.New()

	issued := a.EvaluateMilestones(now, &source)

	require.Len(t, issued, 1)
	require.Equal(t, RewardDiscount, issued[0].Type)
	require.Equal(t, RewardAvailable, issued[0].Status)
	require.NotNil(t, issued[0].TransactionID)
	require.Equal(t, source, *issued[0].TransactionID)
	require.NotNil(t, issued[0].ExpiresAt)
	require.True(t, a.Milestones[0].Achieved)
	require.NotNil(t, a.Milestones[0].AchievedAt)
	require.False(t, a.Milestones[1].Achieved)
	require.Len(t, a.Rewards, 1)
}

func TestEvaluateMilestonesIdempotent(t *testing.T) {
	a := milestoneAccount()
	a.Statistics = Statistics{SuccessfulReferrals: 5, TotalCommissionEarned: decimal.NewFromInt(500)}

	first := a.EvaluateMilestones(time.Now(), nil)
	require.Len(t, first, 2)
	achievedAt := *a.Milestones[0].AchievedAt

	// Re-evaluating achieved milestones is a no-op.
	second := a.EvaluateMilestones(time.Now().Add(time.Hour), nil)
	require.Empty(t, second)
	require.Len(t, a.Rewards, 2)
	require.Equal(t, achievedAt, *a.Milestones[0].AchievedAt)
}

func TestEvaluateMilestonesBelowTarget(t *testing.T) {
	a := milestoneAccount()
	a.Statistics = Statistics{SuccessfulReferrals: 1, TotalCommissionEarned: decimal.NewFromInt(99)}

	require.Empty(t, a.EvaluateMilestones(time.Now(), nil))
	require.Empty(t, a.Rewards)
	require.False(t, a.Milestones[0].Achieved)
}

func TestRewardLazyExpiry(t *testing.T) {
	now := time.Now()
	spec := RewardSpec{Type: RewardDiscount, Value: decimal.NewFromInt(10), TTL: time.Hour}
	r := spec.Issue(now, nil)

	require.True(t, r.Available(now))
	require.True(t, r.Available(now.Add(59*time.Minute)))
	// Status still reads available, but the reward is no longer redeemable.
	require.False(t, r.Available(now.Add(2*time.Hour)))
	require.Equal(t, RewardAvailable, r.Status)

	noExpiry := RewardSpec{Type: RewardCredits, Value: decimal.NewFromInt(1)}.Issue(now, nil)
	require.Nil(t, noExpiry.ExpiresAt)
	require.True(t, noExpiry.Available(now.Add(1000*time.Hour)))
}
