package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Currency recorded on commissions.
	Currency string `env:"CURRENCY" envDefault:"USD"`

	// Settings applied to newly created referral accounts.
	DefaultCommissionRate float64 `env:"DEFAULT_COMMISSION_RATE" envDefault:"10"`
	DefaultMinPayout      float64 `env:"DEFAULT_MIN_PAYOUT" envDefault:"50"`
	DefaultPayoutMethod   string  `env:"DEFAULT_PAYOUT_METHOD" envDefault:"bank_transfer"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
