package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RewardType string

const (
	RewardDiscount   RewardType = "discount"
	RewardFreeCourse RewardType = "free_course"
	RewardCashBonus  RewardType = "cash_bonus"
	RewardCredits    RewardType = "credits"
)

type RewardStatus string

const (
	RewardAvailable RewardStatus = "available"
	RewardUsed      RewardStatus = "used"
	RewardExpired   RewardStatus = "expired"
)

// Reward is an earned, redeemable benefit. Value's unit is implied by Type:
// a percentage for discount, a currency amount for cash_bonus, a credit
// count for credits.
type Reward struct {
	ID       uuid.UUID
	Type     RewardType
	Value    decimal.Decimal
	Status   RewardStatus
	CourseID string
	// TransactionID points back at the transaction whose completion earned
	// this reward. Traceability only.
	TransactionID *uuid.UUID
	ExpiresAt     *time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}

// Expired reports whether the expiry date has passed. Expiry is evaluated
// lazily at read time; there is no background sweep.
func (r *Reward) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

func (r *Reward) Available(now time.Time) bool {
	return r.Status == RewardAvailable && !r.Expired(now)
}

// RewardSpec is a reward definition before issuance, attached to milestones.
type RewardSpec struct {
	Type     RewardType
	Value    decimal.Decimal
	CourseID string
	TTL      time.Duration // zero means no expiry
}

// Issue materializes the spec as an available reward.
func (s RewardSpec) Issue(now time.Time, source *uuid.UUID) *Reward {
	r := &Reward{
		ID:            uuid.New(),
		Type:          s.Type,
		Value:         s.Value,
		Status:        RewardAvailable,
		CourseID:      s.CourseID,
		TransactionID: source,
		CreatedAt:     now,
	}
	if s.TTL > 0 {
		exp := now.Add(s.TTL)
		r.ExpiresAt = &exp
	}
	return r
}
