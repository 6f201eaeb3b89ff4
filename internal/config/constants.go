package config

import "time"

const (
	// Referral code shape. The alphabet excludes visually confusable
	// characters (0, 1, I, O).
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 8

	// Collision handling: resample up to CodeMaxAttempts at CodeLength,
	// then widen to CodeLengthWide for another CodeMaxAttempts.
	CodeMaxAttempts = 20
	CodeLengthWide  = 12

	// One-time discount tokens issued on redemption
	DiscountTokenLength   = 16
	DiscountTokenValidity = 30 * 24 * time.Hour

	// Default milestone ladder
	MilestoneConversionsDiscount   = 5
	MilestoneConversionsFreeCourse = 10
	MilestoneConversionsCashBonus  = 25
	MilestoneCommissionCredits     = 1000

	MilestoneDiscountPercent  = 10
	MilestoneCashBonusAmount  = 50
	MilestoneCreditsAmount    = 500
	MilestoneDiscountValidity = 90 * 24 * time.Hour
)
