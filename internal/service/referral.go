package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learnspace/referral/internal/config"
	"github.com/learnspace/referral/internal/domain"
	"github.com/learnspace/referral/internal/repository"
	"github.com/shopspring/decimal"
)

// CourseCatalog is the external course price lookup consumed when a referral
// is applied against a purchase.
type CourseCatalog interface {
	Price(ctx context.Context, courseID string) (decimal.Decimal, error)
}

type ReferralService struct {
	store   repository.Store
	catalog CourseCatalog
	cfg     *config.Config
}

func NewReferralService(store repository.Store, catalog CourseCatalog, cfg *config.Config) *ReferralService {
	return &ReferralService{store: store, catalog: catalog, cfg: cfg}
}

// Application is what the referred user gets back from applying a code: the
// discount equals the referrer's commission.
type Application struct {
	TransactionID    uuid.UUID
	CommissionAmount decimal.Decimal
	FinalPrice       decimal.Decimal
}

// CalculateCommission is the pure commission function: purchase * rate / 100
// rounded to 2 decimal places, half-up.
func CalculateCommission(purchaseAmount, ratePercent decimal.Decimal) decimal.Decimal {
	return purchaseAmount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// EnsureAccount returns the owner's referral account, creating it with a
// fresh unique code, default settings and the default milestone ladder on
// first use.
func (s *ReferralService) EnsureAccount(ctx context.Context, ownerID int64) (*domain.ReferralAccount, error) {
	acct, err := s.store.AccountByOwner(ctx, ownerID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("get account: %w", err)
	}

	code, err := generateUniqueCode(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("generate referral code: %w", err)
	}

	now := time.Now()
	acct = &domain.ReferralAccount{
		OwnerID: ownerID,
		Code:    code,
		Settings: domain.Settings{
			CommissionRate: decimal.NewFromFloat(s.cfg.DefaultCommissionRate),
			MinPayout:      decimal.NewFromFloat(s.cfg.DefaultMinPayout),
			PayoutMethod:   s.cfg.DefaultPayoutMethod,
		},
		Tier:       domain.TierBronze,
		Statistics: domain.Statistics{TotalCommissionEarned: decimal.Zero},
		Milestones: defaultMilestones(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			// Lost a creation race; the existing account wins.
			return s.store.AccountByOwner(ctx, ownerID)
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	slog.Info("referral account created", "owner_id", ownerID, "code", code)
	return acct, nil
}

// ApplyReferral records a pending referral transaction against the code's
// owner. The purchase price comes from the course catalog; an empty courseID
// is a signup-only referral with zero purchase. Statistics are not touched
// here: pending transactions do not count until completion.
func (s *ReferralService) ApplyReferral(ctx context.Context, code string, referredUserID int64, courseID string) (*Application, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	acct, err := s.store.AccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("get account by code: %w", err)
	}
	if acct.OwnerID == referredUserID {
		return nil, domain.ErrSelfReferral
	}

	price := decimal.Zero
	if courseID != "" {
		price, err = s.catalog.Price(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("%w: course price lookup: %v", domain.ErrDependencyFailure, err)
		}
	}

	commission := CalculateCommission(price, acct.Settings.CommissionRate)
	txn := &domain.ReferralTransaction{
		ID:             uuid.New(),
		ReferredUserID: referredUserID,
		CourseID:       courseID,
		PurchaseAmount: price,
		Commission: domain.Commission{
			Amount:     commission,
			Percentage: acct.Settings.CommissionRate,
			Currency:   s.cfg.Currency,
		},
		Status:    domain.TxPending,
		CreatedAt: time.Now(),
	}

	if err := s.store.AppendTransaction(ctx, acct.OwnerID, txn); err != nil {
		if errors.Is(err, domain.ErrAlreadyReferred) {
			return nil, domain.ErrAlreadyReferred
		}
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	slog.Info("referral applied",
		"owner_id", acct.OwnerID,
		"referred_user_id", referredUserID,
		"course_id", courseID,
		"commission", commission.String(),
	)

	return &Application{
		TransactionID:    txn.ID,
		CommissionAmount: commission,
		FinalPrice:       price.Sub(commission),
	}, nil
}

// CompleteReferral transitions a pending transaction to completed and runs
// the statistics -> tier -> milestone pipeline synchronously inside the
// account's critical section.
func (s *ReferralService) CompleteReferral(ctx context.Context, ownerID int64, txnID uuid.UUID) (*domain.ReferralAccount, error) {
	var issued []*domain.Reward
	acct, err := s.store.UpdateAccount(ctx, ownerID, func(a *domain.ReferralAccount) error {
		txn := a.Transaction(txnID)
		if txn == nil {
			return domain.ErrTransactionNotFound
		}
		if err := txn.Complete(); err != nil {
			return err
		}
		a.Recompute()
		issued = a.EvaluateMilestones(time.Now(), &txn.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range issued {
		slog.Info("milestone reward issued",
			"owner_id", ownerID,
			"reward_id", r.ID,
			"type", string(r.Type),
			"value", r.Value.String(),
		)
	}
	return acct, nil
}

// CancelReferral invalidates a pending transaction. Cancelled transactions
// never contributed to statistics, so nothing is recomputed.
func (s *ReferralService) CancelReferral(ctx context.Context, ownerID int64, txnID uuid.UUID) error {
	_, err := s.store.UpdateAccount(ctx, ownerID, func(a *domain.ReferralAccount) error {
		txn := a.Transaction(txnID)
		if txn == nil {
			return domain.ErrTransactionNotFound
		}
		return txn.Cancel()
	})
	return err
}

func (s *ReferralService) Account(ctx context.Context, ownerID int64) (*domain.ReferralAccount, error) {
	return s.store.AccountByOwner(ctx, ownerID)
}

func (s *ReferralService) Statistics(ctx context.Context, ownerID int64) (domain.Statistics, error) {
	acct, err := s.store.AccountByOwner(ctx, ownerID)
	if err != nil {
		return domain.Statistics{}, err
	}
	return acct.Statistics, nil
}

// UpdateSettings changes the account's payout configuration. Rate changes
// apply to future transactions only; existing commissions keep the snapshot
// taken when they were applied.
func (s *ReferralService) UpdateSettings(ctx context.Context, ownerID int64, settings domain.Settings) error {
	if settings.CommissionRate.IsNegative() || settings.CommissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.ErrInvalidRate
	}
	_, err := s.store.UpdateAccount(ctx, ownerID, func(a *domain.ReferralAccount) error {
		a.Settings = settings
		return nil
	})
	return err
}

func defaultMilestones() []*domain.Milestone {
	return []*domain.Milestone{
		{
			ID:     uuid.New(),
			Kind:   domain.MilestoneSuccessfulConversions,
			Target: decimal.NewFromInt(config.MilestoneConversionsDiscount),
			Reward: domain.RewardSpec{
				Type:  domain.RewardDiscount,
				Value: decimal.NewFromInt(config.MilestoneDiscountPercent),
				TTL:   config.MilestoneDiscountValidity,
			},
		},
		{
			ID:     uuid.New(),
			Kind:   domain.MilestoneSuccessfulConversions,
			Target: decimal.NewFromInt(config.MilestoneConversionsFreeCourse),
			Reward: domain.RewardSpec{
				Type: domain.RewardFreeCourse,
			},
		},
		{
			ID:     uuid.New(),
			Kind:   domain.MilestoneSuccessfulConversions,
			Target: decimal.NewFromInt(config.MilestoneConversionsCashBonus),
			Reward: domain.RewardSpec{
				Type:  domain.RewardCashBonus,
				Value: decimal.NewFromInt(config.MilestoneCashBonusAmount),
			},
		},
		{
			ID:     uuid.New(),
			Kind:   domain.MilestoneCommissionEarned,
			Target: decimal.NewFromInt(config.MilestoneCommissionCredits),
			Reward: domain.RewardSpec{
				Type:  domain.RewardCredits,
				Value: decimal.NewFromInt(config.MilestoneCreditsAmount),
			},
		},
	}
}
