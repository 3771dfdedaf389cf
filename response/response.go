package response

import (
	"time"

	"github.com/shopspring/decimal"
)

// AffiliateStats is the dashboard aggregate for one affiliate. Consumers
// refetch it to reconcile after missed change notifications.
type AffiliateStats struct {
	AffiliateID      uint            `json:"affiliateId"`
	ReferenceID      string          `json:"referenceId"`
	Code             string          `json:"code,omitempty"`
	Tier             string          `json:"tier"`
	VisitCount       int64           `json:"visitCount"`
	SignupCount      int64           `json:"signupCount"`
	BookingCount     int64           `json:"bookingCount"`
	LifetimeEarnings decimal.Decimal `json:"lifetimeEarnings"`
	PendingEarnings  decimal.Decimal `json:"pendingEarnings"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// TierProgress describes how far an affiliate is from the next tier. NextTier
// is nil at platinum.
type TierProgress struct {
	Tier          string           `json:"tier"`
	Earnings      decimal.Decimal  `json:"earnings"`
	NextTier      *string          `json:"nextTier,omitempty"`
	NextThreshold *decimal.Decimal `json:"nextThreshold,omitempty"`
	Remaining     *decimal.Decimal `json:"remaining,omitempty"`
}
