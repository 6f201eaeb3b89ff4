package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/learnspace/referral/internal/config"
	"github.com/learnspace/referral/internal/domain"
	"github.com/learnspace/referral/internal/repository"
	"github.com/shopspring/decimal"
)

// Enrollments is the external enrollment-creation capability used by
// free_course redemption. A failure here must abort the redemption.
type Enrollments interface {
	CreateFreeEnrollment(ctx context.Context, userID int64, courseID string) (string, error)
}

type RewardService struct {
	store       repository.Store
	enrollments Enrollments
}

func NewRewardService(store repository.Store, enrollments Enrollments) *RewardService {
	return &RewardService{store: store, enrollments: enrollments}
}

// DiscountToken is a one-time token produced by redeeming a discount reward.
type DiscountToken struct {
	Code      string
	Percent   decimal.Decimal
	ExpiresAt time.Time
}

// RedemptionResult is a tagged union keyed by Type: exactly one variant
// field is populated per reward kind.
type RedemptionResult struct {
	RewardID uuid.UUID
	Type     domain.RewardType

	Discount       *DiscountToken  // discount
	EnrollmentID   string          // free_course
	PayoutAmount   decimal.Decimal // cash_bonus, owed to external payout processing
	CreditedAmount decimal.Decimal // credits
}

// Issue appends a reward to the account's inventory in available status.
func (s *RewardService) Issue(ctx context.Context, ownerID int64, spec domain.RewardSpec) (*domain.Reward, error) {
	var issued *domain.Reward
	_, err := s.store.UpdateAccount(ctx, ownerID, func(a *domain.ReferralAccount) error {
		issued = spec.Issue(time.Now(), nil)
		a.Rewards = append(a.Rewards, issued)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Available lists rewards that are redeemable as of now. Expiry is evaluated
// lazily: a reward past its expiry date is filtered out here even if its
// persisted status still reads available.
func (s *RewardService) Available(ctx context.Context, ownerID int64, now time.Time) ([]*domain.Reward, error) {
	acct, err := s.store.AccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var out []*domain.Reward
	for _, r := range acct.Rewards {
		if r.Available(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Redeem executes the reward's type-specific redemption procedure and marks
// it used. The whole operation is all-or-nothing: a collaborator failure
// leaves the reward available.
func (s *RewardService) Redeem(ctx context.Context, ownerID int64, rewardID uuid.UUID) (*RedemptionResult, error) {
	var (
		result     *RedemptionResult
		expiredNow bool
	)

	_, err := s.store.UpdateAccount(ctx, ownerID, func(a *domain.ReferralAccount) error {
		r := a.Reward(rewardID)
		if r == nil {
			return domain.ErrRewardNotFound
		}

		now := time.Now()
		if r.Status == domain.RewardAvailable && r.Expired(now) {
			// Transition-on-access: persist the expiry, then fail the
			// redemption after the write-back commits.
			r.Status = domain.RewardExpired
			expiredNow = true
			return nil
		}
		if r.Status != domain.RewardAvailable {
			return domain.ErrRewardNotAvailable
		}

		res := &RedemptionResult{RewardID: r.ID, Type: r.Type}
		switch r.Type {
		case domain.RewardDiscount:
			token, err := randomToken()
			if err != nil {
				return fmt.Errorf("generate discount token: %w", err)
			}
			res.Discount = &DiscountToken{
				Code:      token,
				Percent:   r.Value,
				ExpiresAt: now.Add(config.DiscountTokenValidity),
			}
		case domain.RewardFreeCourse:
			enrollmentID, err := s.enrollments.CreateFreeEnrollment(ctx, ownerID, r.CourseID)
			if err != nil {
				return fmt.Errorf("%w: create free enrollment: %v", domain.ErrDependencyFailure, err)
			}
			res.EnrollmentID = enrollmentID
		case domain.RewardCashBonus:
			res.PayoutAmount = r.Value
		case domain.RewardCredits:
			res.CreditedAmount = r.Value
		default:
			return domain.ErrUnsupportedRewardType
		}

		r.Status = domain.RewardUsed
		usedAt := now
		r.UsedAt = &usedAt
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expiredNow {
		return nil, domain.ErrRewardNotAvailable
	}

	slog.Info("reward redeemed",
		"owner_id", ownerID,
		"reward_id", rewardID,
		"type", string(result.Type),
	)
	return result, nil
}
