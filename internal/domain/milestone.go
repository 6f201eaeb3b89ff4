package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MilestoneKind string

const (
	MilestoneReferralCount         MilestoneKind = "referral_count"
	MilestoneCommissionEarned      MilestoneKind = "commission_earned"
	MilestoneSuccessfulConversions MilestoneKind = "successful_conversions"
)

// Milestone pairs a target with its achievement state. Achieved is
// monotonic: once set it never resets, and AchievedAt is stamped exactly
// once.
type Milestone struct {
	ID         uuid.UUID
	Kind       MilestoneKind
	Target     decimal.Decimal
	Achieved   bool
	AchievedAt *time.Time
	Reward     RewardSpec
}

// statistic selects the value Kind compares against Target. Both
// referral_count and successful_conversions track completed referrals.
func (m *Milestone) statistic(stats Statistics) decimal.Decimal {
	switch m.Kind {
	case MilestoneCommissionEarned:
		return stats.TotalCommissionEarned
	case MilestoneReferralCount, MilestoneSuccessfulConversions:
		return decimal.NewFromInt(int64(stats.SuccessfulReferrals))
	}
	// Unknown kinds never achieve.
	return decimal.NewFromInt(-1)
}

// EvaluateMilestones checks every unachieved milestone against the current
// statistics and issues the attached reward for each newly crossed target.
// Already-achieved milestones are skipped, so re-evaluation never issues a
// second reward. Returns the rewards issued by this pass.
func (a *ReferralAccount) EvaluateMilestones(now time.Time, source *uuid.UUID) []*Reward {
	var issued []*Reward
	for _, m := range a.Milestones {
		if m.Achieved {
			continue
		}
		if m.statistic(a.Statistics).LessThan(m.Target) {
			continue
		}
		m.Achieved = true
		at := now
		m.AchievedAt = &at
		r := m.Reward.Issue(now, source)
		a.Rewards = append(a.Rewards, r)
		issued = append(issued, r)
	}
	return issued
}
