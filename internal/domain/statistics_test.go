package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func txn(status TxStatus, commission string) *ReferralTransaction {
	amount, err := decimal.NewFromString(commission)
	if err != nil {
		panic(err)
	}
	return &ReferralTransaction{
		ID:         uuid.New(),
		Status:     status,
		Commission: Commission{Amount: amount, Percentage: decimal.NewFromInt(10), Currency: "USD"},
		CreatedAt:  time.Now(),
	}
}

func TestComputeStatistics(t *testing.T) {
	txns := []*ReferralTransaction{
		txn(TxCompleted, "20.00"),
		txn(TxCompleted, "5.50"),
		txn(TxPending, "7.00"),
		txn(TxCancelled, "3.00"),
	}

	stats := ComputeStatistics(txns)

	require.Equal(t, 4, stats.TotalReferrals)
	require.Equal(t, 2, stats.SuccessfulReferrals)
	require.Equal(t, 1, stats.PendingReferrals)
	require.True(t, stats.TotalCommissionEarned.Equal(decimal.NewFromFloat(25.50)),
		"earned = %s", stats.TotalCommissionEarned)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)

	require.Zero(t, stats.TotalReferrals)
	require.Zero(t, stats.SuccessfulReferrals)
	require.Zero(t, stats.PendingReferrals)
	require.True(t, stats.TotalCommissionEarned.IsZero())
}

func TestTransactionLifecycle(t *testing.T) {
	tx := txn(TxPending, "10.00")

	require.NoError(t, tx.Complete())
	require.Equal(t, TxCompleted, tx.Status)

	// Terminal states stay terminal.
	require.ErrorIs(t, tx.Complete(), ErrAlreadyProcessed)
	require.ErrorIs(t, tx.Cancel(), ErrInvalidTransition)

	tx2 := txn(TxPending, "10.00")
	require.NoError(t, tx2.Cancel())
	require.Equal(t, TxCancelled, tx2.Status)
	require.ErrorIs(t, tx2.Cancel(), ErrInvalidTransition)
	require.ErrorIs(t, tx2.Complete(), ErrAlreadyProcessed)
}
