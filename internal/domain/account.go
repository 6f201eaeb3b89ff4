package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settings holds per-account payout configuration. Rate changes apply to
// future transactions only; past commissions keep their snapshot.
type Settings struct {
	CommissionRate decimal.Decimal // percent
	MinPayout      decimal.Decimal
	PayoutMethod   string
}

// ReferralAccount is the aggregate root: it exclusively owns its
// transactions, rewards and milestones. Statistics and Tier are derived and
// must be recomputed whenever a transaction completes.
type ReferralAccount struct {
	OwnerID      int64
	Code         string
	Transactions []*ReferralTransaction
	Rewards      []*Reward
	Milestones   []*Milestone
	Statistics   Statistics
	Settings     Settings
	Tier         Tier
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *ReferralAccount) Transaction(id uuid.UUID) *ReferralTransaction {
	for _, t := range a.Transactions {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (a *ReferralAccount) Reward(id uuid.UUID) *Reward {
	for _, r := range a.Rewards {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Recompute refreshes the derived statistics and tier from the full
// transaction set.
func (a *ReferralAccount) Recompute() {
	a.Statistics = ComputeStatistics(a.Transactions)
	a.Tier = TierFor(a.Statistics)
}
