package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
	TxCancelled TxStatus = "cancelled"
)

// Commission is the amount credited to the referrer, fixed at creation time
// from the account's rate at that moment.
type Commission struct {
	Amount     decimal.Decimal
	Percentage decimal.Decimal
	Currency   string
}

type ReferralTransaction struct {
	ID             uuid.UUID
	ReferredUserID int64
	CourseID       string
	EnrollmentID   string
	PurchaseAmount decimal.Decimal
	Commission     Commission
	Status         TxStatus
	CreatedAt      time.Time
}

// Complete transitions pending -> completed.
func (t *ReferralTransaction) Complete() error {
	if t.Status != TxPending {
		return ErrAlreadyProcessed
	}
	t.Status = TxCompleted
	return nil
}

// Cancel transitions pending -> cancelled. Terminal states stay terminal.
func (t *ReferralTransaction) Cancel() error {
	if t.Status != TxPending {
		return ErrInvalidTransition
	}
	t.Status = TxCancelled
	return nil
}
