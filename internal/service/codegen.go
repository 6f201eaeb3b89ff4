package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/learnspace/referral/internal/config"
	"github.com/learnspace/referral/internal/domain"
	"github.com/learnspace/referral/internal/repository"
)

func randomCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(config.CodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("random int: %w", err)
		}
		code[i] = config.CodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// generateUniqueCode draws codes until one is free. After CodeMaxAttempts
// collisions at the standard length it widens the code rather than spinning
// forever; if the widened length collides just as often the code space is
// effectively gone and the caller gets domain.ErrCodeExhausted.
func generateUniqueCode(ctx context.Context, store repository.Store) (string, error) {
	for _, length := range []int{config.CodeLength, config.CodeLengthWide} {
		for attempt := 0; attempt < config.CodeMaxAttempts; attempt++ {
			code, err := randomCode(length)
			if err != nil {
				return "", err
			}
			inUse, err := store.CodeInUse(ctx, code)
			if err != nil {
				return "", fmt.Errorf("check referral code: %w", err)
			}
			if !inUse {
				return code, nil
			}
		}
	}
	return "", domain.ErrCodeExhausted
}

// randomToken generates a one-time discount token. Same alphabet as referral
// codes so the token stays human-typed.
func randomToken() (string, error) {
	return randomCode(config.DiscountTokenLength)
}
