package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/learnspace/referral/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testAccount(ownerID int64, code string) *domain.ReferralAccount {
	now := time.Now()
	return &domain.ReferralAccount{
		OwnerID: ownerID,
		Code:    code,
		Settings: domain.Settings{
			CommissionRate: decimal.NewFromInt(10),
		},
		Tier:       domain.TierBronze,
		Statistics: domain.Statistics{TotalCommissionEarned: decimal.Zero},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func pendingTxn(referredUserID int64) *domain.ReferralTransaction {
	return &domain.ReferralTransaction{
		ID:             uuid.New(),
		ReferredUserID: referredUserID,
		PurchaseAmount: decimal.NewFromInt(100),
		Commission: domain.Commission{
			Amount:     decimal.NewFromInt(10),
			Percentage: decimal.NewFromInt(10),
			Currency:   "USD",
		},
		Status:    domain.TxPending,
		CreatedAt: time.Now(),
	}
}

func TestMemoryStoreUniqueness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount(1, "AAAAAAAA")))

	require.ErrorIs(t, store.CreateAccount(ctx, testAccount(1, "BBBBBBBB")), domain.ErrAccountExists)
	require.ErrorIs(t, store.CreateAccount(ctx, testAccount(2, "AAAAAAAA")), domain.ErrCodeTaken)

	inUse, err := store.CodeInUse(ctx, "AAAAAAAA")
	require.NoError(t, err)
	require.True(t, inUse)
}

func TestMemoryStoreReferredUniqueAcrossAccounts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount(1, "AAAAAAAA")))
	require.NoError(t, store.CreateAccount(ctx, testAccount(2, "BBBBBBBB")))

	require.NoError(t, store.AppendTransaction(ctx, 1, pendingTxn(42)))

	// The same referred user is refused everywhere, for any account.
	require.ErrorIs(t, store.AppendTransaction(ctx, 1, pendingTxn(42)), domain.ErrAlreadyReferred)
	require.ErrorIs(t, store.AppendTransaction(ctx, 2, pendingTxn(42)), domain.ErrAlreadyReferred)

	require.ErrorIs(t, store.AppendTransaction(ctx, 99, pendingTxn(43)), domain.ErrAccountNotFound)
}

func TestMemoryStoreUpdateRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount(1, "AAAAAAAA")))
	require.NoError(t, store.AppendTransaction(ctx, 1, pendingTxn(42)))

	boom := errors.New("boom")
	_, err := store.UpdateAccount(ctx, 1, func(a *domain.ReferralAccount) error {
		a.Transactions[0].Status = domain.TxCompleted
		a.Tier = domain.TierPlatinum
		return boom
	})
	require.ErrorIs(t, err, boom)

	acct, err := store.AccountByOwner(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, domain.TxPending, acct.Transactions[0].Status)
	require.Equal(t, domain.TierBronze, acct.Tier)
}

func TestMemoryStoreReturnsIsolatedCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, testAccount(1, "AAAAAAAA")))
	require.NoError(t, store.AppendTransaction(ctx, 1, pendingTxn(42)))

	acct, err := store.AccountByOwner(ctx, 1)
	require.NoError(t, err)

	// Mutating a loaded aggregate must not leak into the store.
	acct.Transactions[0].Status = domain.TxCompleted
	acct.Code = "HACKED"

	fresh, err := store.AccountByOwner(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "AAAAAAAA", fresh.Code)
	require.Equal(t, domain.TxPending, fresh.Transactions[0].Status)
}
