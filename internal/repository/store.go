package repository

import (
	"context"

	"github.com/learnspace/referral/internal/domain"
)

// Store persists referral accounts and enforces the two system-wide
// uniqueness invariants: referral codes and referred users.
type Store interface {
	// CreateAccount persists a new account with its seeded milestones.
	// Returns domain.ErrAccountExists if the owner already has one and
	// domain.ErrCodeTaken if the code lost a race for uniqueness.
	CreateAccount(ctx context.Context, acct *domain.ReferralAccount) error

	// AccountByOwner loads the full aggregate. domain.ErrAccountNotFound
	// when absent.
	AccountByOwner(ctx context.Context, ownerID int64) (*domain.ReferralAccount, error)

	// AccountByCode resolves a referral code to its owning aggregate.
	// domain.ErrCodeNotFound when no account owns the code.
	AccountByCode(ctx context.Context, code string) (*domain.ReferralAccount, error)

	// CodeInUse reports whether a code is already assigned.
	CodeInUse(ctx context.Context, code string) (bool, error)

	// AppendTransaction appends a pending transaction to the owner's
	// ledger. The referred-user uniqueness check and the insert are a
	// single atomic step; a duplicate referred user yields
	// domain.ErrAlreadyReferred regardless of the prior transaction's
	// status.
	AppendTransaction(ctx context.Context, ownerID int64, txn *domain.ReferralTransaction) error

	// UpdateAccount runs fn inside the account's critical section: the
	// aggregate is loaded under a per-account lock, fn mutates it, and the
	// result is written back only if fn returns nil. fn may change account
	// fields, transition transactions and milestones, mutate rewards and
	// append new rewards; it must not add transactions or milestones.
	UpdateAccount(ctx context.Context, ownerID int64, fn func(*domain.ReferralAccount) error) (*domain.ReferralAccount, error)
}
