package domain

import "errors"

var (
	ErrAccountNotFound       = errors.New("referral account not found")
	ErrAccountExists         = errors.New("referral account already exists")
	ErrCodeNotFound          = errors.New("referral code not found")
	ErrCodeTaken             = errors.New("referral code already taken")
	ErrCodeExhausted         = errors.New("referral code generation exhausted")
	ErrSelfReferral          = errors.New("self referral not allowed")
	ErrAlreadyReferred       = errors.New("user already referred")
	ErrTransactionNotFound   = errors.New("referral transaction not found")
	ErrAlreadyProcessed      = errors.New("referral transaction already processed")
	ErrInvalidTransition     = errors.New("invalid transaction state transition")
	ErrRewardNotFound        = errors.New("reward not found")
	ErrRewardNotAvailable    = errors.New("reward not available")
	ErrUnsupportedRewardType = errors.New("unsupported reward type")
	ErrDependencyFailure     = errors.New("dependency call failed")
	ErrInvalidRate           = errors.New("invalid commission rate")
)
