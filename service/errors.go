package service

import "errors"

// Validation failures surfaced to the caller. Never retried automatically;
// match with errors.Is since call sites wrap them with context.
var (
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInsufficientBalance     = errors.New("insufficient available balance")
	ErrInvalidPayoutDetails    = errors.New("invalid payout details")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrLinkNotFound            = errors.New("affiliate link not found")
	ErrUserNotFound            = errors.New("affiliate user not found")
	ErrCodeTaken               = errors.New("referral code already taken")
	ErrInvalidTierThresholds   = errors.New("tier thresholds must satisfy 0 <= silver < gold < platinum")
)
