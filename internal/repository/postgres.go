package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnspace/referral/internal/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists accounts in PostgreSQL. Global uniqueness of codes
// and referred users rides on unique indexes, so check-then-insert races
// collapse into constraint violations mapped to domain conflicts.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) CreateAccount(ctx context.Context, acct *domain.ReferralAccount) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO referral_accounts
			(owner_id, code, commission_rate, min_payout, payout_method, tier,
			 total_referrals, successful_referrals, pending_referrals, total_commission,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		acct.OwnerID, acct.Code,
		acct.Settings.CommissionRate, acct.Settings.MinPayout, acct.Settings.PayoutMethod,
		string(acct.Tier),
		acct.Statistics.TotalReferrals, acct.Statistics.SuccessfulReferrals,
		acct.Statistics.PendingReferrals, acct.Statistics.TotalCommissionEarned,
		acct.CreatedAt, acct.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "code") {
				return domain.ErrCodeTaken
			}
			return domain.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}

	for i, m := range acct.Milestones {
		_, err = tx.Exec(ctx, `
			INSERT INTO referral_milestones
				(id, owner_id, position, kind, target, achieved, achieved_at,
				 reward_type, reward_value, reward_course_id, reward_ttl_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			m.ID, acct.OwnerID, i, string(m.Kind), m.Target, m.Achieved, m.AchievedAt,
			string(m.Reward.Type), m.Reward.Value, m.Reward.CourseID,
			int64(m.Reward.TTL/time.Second),
		)
		if err != nil {
			return fmt.Errorf("insert milestone: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) AccountByOwner(ctx context.Context, ownerID int64) (*domain.ReferralAccount, error) {
	return loadAccount(ctx, s.db, ownerID, false)
}

func (s *PostgresStore) AccountByCode(ctx context.Context, code string) (*domain.ReferralAccount, error) {
	var ownerID int64
	err := s.db.QueryRow(ctx,
		`SELECT owner_id FROM referral_accounts WHERE code = $1`, code,
	).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	return loadAccount(ctx, s.db, ownerID, false)
}

func (s *PostgresStore) CodeInUse(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM referral_accounts WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, ownerID int64, txn *domain.ReferralTransaction) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO referral_transactions
			(id, owner_id, referred_user_id, course_id, enrollment_id,
			 purchase_amount, commission_amount, commission_percent, currency,
			 status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.ID, ownerID, txn.ReferredUserID, txn.CourseID, txn.EnrollmentID,
		txn.PurchaseAmount, txn.Commission.Amount, txn.Commission.Percentage,
		txn.Commission.Currency, string(txn.Status), txn.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrAlreadyReferred
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE referral_accounts SET updated_at = now() WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("touch account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAccount(ctx context.Context, ownerID int64, fn func(*domain.ReferralAccount) error) (*domain.ReferralAccount, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	acct, err := loadAccount(ctx, tx, ownerID, true)
	if err != nil {
		return nil, err
	}

	before := len(acct.Rewards)
	if err := fn(acct); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE referral_accounts
		SET commission_rate = $2, min_payout = $3, payout_method = $4, tier = $5,
		    total_referrals = $6, successful_referrals = $7, pending_referrals = $8,
		    total_commission = $9, updated_at = now()
		WHERE owner_id = $1`,
		ownerID,
		acct.Settings.CommissionRate, acct.Settings.MinPayout, acct.Settings.PayoutMethod,
		string(acct.Tier),
		acct.Statistics.TotalReferrals, acct.Statistics.SuccessfulReferrals,
		acct.Statistics.PendingReferrals, acct.Statistics.TotalCommissionEarned,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	for _, t := range acct.Transactions {
		_, err = tx.Exec(ctx, `
			UPDATE referral_transactions SET status = $2, enrollment_id = $3 WHERE id = $1`,
			t.ID, string(t.Status), t.EnrollmentID,
		)
		if err != nil {
			return nil, fmt.Errorf("update transaction: %w", err)
		}
	}

	for i, r := range acct.Rewards {
		if i < before {
			_, err = tx.Exec(ctx, `
				UPDATE referral_rewards SET status = $2, expires_at = $3, used_at = $4 WHERE id = $1`,
				r.ID, string(r.Status), r.ExpiresAt, r.UsedAt,
			)
		} else {
			_, err = tx.Exec(ctx, `
				INSERT INTO referral_rewards
					(id, owner_id, type, value, status, course_id, transaction_id,
					 expires_at, used_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				r.ID, ownerID, string(r.Type), r.Value, string(r.Status), r.CourseID,
				r.TransactionID, r.ExpiresAt, r.UsedAt, r.CreatedAt,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("write reward: %w", err)
		}
	}

	for _, m := range acct.Milestones {
		_, err = tx.Exec(ctx, `
			UPDATE referral_milestones SET achieved = $2, achieved_at = $3 WHERE id = $1`,
			m.ID, m.Achieved, m.AchievedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("update milestone: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return acct, nil
}

// loadAccount reads the full aggregate. With forUpdate the account row is
// locked for the lifetime of the surrounding transaction.
func loadAccount(ctx context.Context, q querier, ownerID int64, forUpdate bool) (*domain.ReferralAccount, error) {
	query := `
		SELECT owner_id, code, commission_rate, min_payout, payout_method, tier,
		       total_referrals, successful_referrals, pending_referrals, total_commission,
		       created_at, updated_at
		FROM referral_accounts
		WHERE owner_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	acct := &domain.ReferralAccount{}
	var tier string
	err := q.QueryRow(ctx, query, ownerID).Scan(
		&acct.OwnerID, &acct.Code,
		&acct.Settings.CommissionRate, &acct.Settings.MinPayout, &acct.Settings.PayoutMethod,
		&tier,
		&acct.Statistics.TotalReferrals, &acct.Statistics.SuccessfulReferrals,
		&acct.Statistics.PendingReferrals, &acct.Statistics.TotalCommissionEarned,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	acct.Tier = domain.Tier(tier)

	if acct.Transactions, err = loadTransactions(ctx, q, ownerID); err != nil {
		return nil, err
	}
	if acct.Rewards, err = loadRewards(ctx, q, ownerID); err != nil {
		return nil, err
	}
	if acct.Milestones, err = loadMilestones(ctx, q, ownerID); err != nil {
		return nil, err
	}
	return acct, nil
}

func loadTransactions(ctx context.Context, q querier, ownerID int64) ([]*domain.ReferralTransaction, error) {
	rows, err := q.Query(ctx, `
		SELECT id, referred_user_id, course_id, enrollment_id, purchase_amount,
		       commission_amount, commission_percent, currency, status, created_at
		FROM referral_transactions
		WHERE owner_id = $1
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.ReferralTransaction
	for rows.Next() {
		t := &domain.ReferralTransaction{}
		var status string
		err := rows.Scan(
			&t.ID, &t.ReferredUserID, &t.CourseID, &t.EnrollmentID, &t.PurchaseAmount,
			&t.Commission.Amount, &t.Commission.Percentage, &t.Commission.Currency,
			&status, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Status = domain.TxStatus(status)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func loadRewards(ctx context.Context, q querier, ownerID int64) ([]*domain.Reward, error) {
	rows, err := q.Query(ctx, `
		SELECT id, type, value, status, course_id, transaction_id, expires_at, used_at, created_at
		FROM referral_rewards
		WHERE owner_id = $1
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*domain.Reward
	for rows.Next() {
		r := &domain.Reward{}
		var typ, status string
		var txnID *uuid.UUID
		err := rows.Scan(
			&r.ID, &typ, &r.Value, &status, &r.CourseID, &txnID,
			&r.ExpiresAt, &r.UsedAt, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		r.Type = domain.RewardType(typ)
		r.Status = domain.RewardStatus(status)
		r.TransactionID = txnID
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

func loadMilestones(ctx context.Context, q querier, ownerID int64) ([]*domain.Milestone, error) {
	rows, err := q.Query(ctx, `
		SELECT id, kind, target, achieved, achieved_at,
		       reward_type, reward_value, reward_course_id, reward_ttl_seconds
		FROM referral_milestones
		WHERE owner_id = $1
		ORDER BY position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load milestones: %w", err)
	}
	defer rows.Close()

	var milestones []*domain.Milestone
	for rows.Next() {
		m := &domain.Milestone{}
		var kind, rewardType string
		var ttlSeconds int64
		err := rows.Scan(
			&m.ID, &kind, &m.Target, &m.Achieved, &m.AchievedAt,
			&rewardType, &m.Reward.Value, &m.Reward.CourseID, &ttlSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		m.Kind = domain.MilestoneKind(kind)
		m.Reward.Type = domain.RewardType(rewardType)
		m.Reward.TTL = time.Duration(ttlSeconds) * time.Second
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
