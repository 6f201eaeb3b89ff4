package service

import (
	"context"
	"strings"
	"testing"

	"github.com/learnspace/referral/internal/config"
	"github.com/learnspace/referral/internal/domain"
	"github.com/learnspace/referral/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestRandomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := randomCode(config.CodeLength)
		require.NoError(t, err)
		require.Len(t, code, config.CodeLength)
		for _, c := range code {
			require.True(t, strings.ContainsRune(config.CodeAlphabet, c),
				"unexpected character %q in %s", c, code)
		}
		seen[code] = true
	}
	// 100 draws from a 33^8 space colliding would point at a broken sampler.
	require.Len(t, seen, 100)
}

func TestGenerateUniqueCode(t *testing.T) {
	store := repository.NewMemoryStore()
	code, err := generateUniqueCode(context.Background(), store)
	require.NoError(t, err)
	require.Len(t, code, config.CodeLength)
}

// saturatedStore reports every code as taken, forcing the generator through
// its widening fallback and into exhaustion.
type saturatedStore struct {
	repository.Store
	checks []int
}

func (s *saturatedStore) CodeInUse(ctx context.Context, code string) (bool, error) {
	s.checks = append(s.checks, len(code))
	return true, nil
}

func TestGenerateUniqueCodeExhaustion(t *testing.T) {
	store := &saturatedStore{}
	_, err := generateUniqueCode(context.Background(), store)
	require.ErrorIs(t, err, domain.ErrCodeExhausted)

	// Bounded retries at the standard length, then the widened length.
	require.Len(t, store.checks, 2*config.CodeMaxAttempts)
	require.Equal(t, config.CodeLength, store.checks[0])
	require.Equal(t, config.CodeLengthWide, store.checks[len(store.checks)-1])
}
