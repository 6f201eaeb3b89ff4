package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/learnspace/referral/internal/domain"
)

// MemoryStore keeps the whole ledger in process memory. A single mutex
// serializes every mutation, which satisfies the per-account serialization
// requirement trivially; aggregates are deep-copied on the way in and out so
// callers can only mutate state through UpdateAccount.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[int64]*domain.ReferralAccount
	codes    map[string]int64
	referred map[int64]int64 // referred user id -> referrer owner id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int64]*domain.ReferralAccount),
		codes:    make(map[string]int64),
		referred: make(map[int64]int64),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, acct *domain.ReferralAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.OwnerID]; ok {
		return domain.ErrAccountExists
	}
	if _, ok := s.codes[acct.Code]; ok {
		return domain.ErrCodeTaken
	}

	stored := cloneAccount(acct)
	s.accounts[acct.OwnerID] = stored
	s.codes[acct.Code] = acct.OwnerID
	for _, t := range stored.Transactions {
		s.referred[t.ReferredUserID] = acct.OwnerID
	}
	return nil
}

func (s *MemoryStore) AccountByOwner(ctx context.Context, ownerID int64) (*domain.ReferralAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[ownerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(acct), nil
}

func (s *MemoryStore) AccountByCode(ctx context.Context, code string) (*domain.ReferralAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownerID, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	return cloneAccount(s.accounts[ownerID]), nil
}

func (s *MemoryStore) CodeInUse(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.codes[code]
	return ok, nil
}

func (s *MemoryStore) AppendTransaction(ctx context.Context, ownerID int64, txn *domain.ReferralTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[ownerID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if _, ok := s.referred[txn.ReferredUserID]; ok {
		return domain.ErrAlreadyReferred
	}

	acct.Transactions = append(acct.Transactions, cloneTransaction(txn))
	acct.UpdatedAt = time.Now()
	s.referred[txn.ReferredUserID] = ownerID
	return nil
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, ownerID int64, fn func(*domain.ReferralAccount) error) (*domain.ReferralAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[ownerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	work := cloneAccount(acct)
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now()
	s.accounts[ownerID] = work
	return cloneAccount(work), nil
}

func cloneAccount(a *domain.ReferralAccount) *domain.ReferralAccount {
	out := *a
	out.Transactions = make([]*domain.ReferralTransaction, len(a.Transactions))
	for i, t := range a.Transactions {
		out.Transactions[i] = cloneTransaction(t)
	}
	out.Rewards = make([]*domain.Reward, len(a.Rewards))
	for i, r := range a.Rewards {
		out.Rewards[i] = cloneReward(r)
	}
	out.Milestones = make([]*domain.Milestone, len(a.Milestones))
	for i, m := range a.Milestones {
		out.Milestones[i] = cloneMilestone(m)
	}
	return &out
}

func cloneTransaction(t *domain.ReferralTransaction) *domain.ReferralTransaction {
	out := *t
	return &out
}

func cloneReward(r *domain.Reward) *domain.Reward {
	out := *r
	out.TransactionID = cloneUUIDPtr(r.TransactionID)
	out.ExpiresAt = cloneTimePtr(r.ExpiresAt)
	out.UsedAt = cloneTimePtr(r.UsedAt)
	return &out
}

func cloneMilestone(m *domain.Milestone) *domain.Milestone {
	out := *m
	out.AchievedAt = cloneTimePtr(m.AchievedAt)
	return &out
}

func cloneUUIDPtr(u *uuid.UUID) *uuid.UUID {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
