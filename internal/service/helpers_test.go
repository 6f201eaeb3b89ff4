package service

import (
	"context"
	"errors"
	"testing"

	"github.com/learnspace/referral/internal/config"
	"github.com/learnspace/referral/internal/repository"
	"github.com/shopspring/decimal"
)

type fakeCatalog map[string]float64

func (c fakeCatalog) Price(ctx context.Context, courseID string) (decimal.Decimal, error) {
	price, ok := c[courseID]
	if !ok {
		return decimal.Zero, errors.New("course not found")
	}
	return decimal.NewFromFloat(price), nil
}

type fakeEnrollments struct {
	err        error
	calls      int
	lastUser   int64
	lastCourse string
}

func (f *fakeEnrollments) CreateFreeEnrollment(ctx context.Context, userID int64, courseID string) (string, error) {
	f.calls++
	f.lastUser = userID
	f.lastCourse = courseID
	if f.err != nil {
		return "", f.err
	}
	return "enrollment-1", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Currency:              "USD",
		DefaultCommissionRate: 10,
		DefaultMinPayout:      50,
		DefaultPayoutMethod:   "bank_transfer",
	}
}

func newTestReferralService(t *testing.T, catalog CourseCatalog) (*ReferralService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewReferralService(store, catalog, testConfig()), store
}
