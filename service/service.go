package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/response"
)

// LinkService handles issuance and resolution of referral codes.
type LinkService interface {
	CreateLink(req request.CreateLinkRequest) (*models.AffiliateLink, error)
	GetLinks(req request.GetLinksRequest) ([]models.AffiliateLink, int64, error)
	ResolveCode(code string) (*models.AffiliateLink, error)
	UpdateLinkStatus(code string, active bool) (*models.AffiliateLink, error)
}

// AttributionService tracks which referral code should receive credit for the
// current client. Backed by client-local storage; visits are tracked
// best-effort and attribution follows a last-touch model with a 30-day window.
type AttributionService interface {
	CaptureVisit(code, userAgent, referrerURL string)
	ActiveAttribution() (code string, ok bool)
	VisitorID() string
}

// SignupService binds a freshly signed-up user to whichever affiliate holds
// valid attribution.
type SignupService interface {
	// LinkSignup returns the engine's user row and whether the user is linked
	// to a referrer. A missing or expired attribution is not an error.
	LinkSignup(userRef string) (*models.User, bool, error)
}

// CommissionService records and manages commissions owed to affiliates.
type CommissionService interface {
	// RecordBookingCommission computes and records the commission for a paid
	// booking by a referred user. Returns (nil, nil) when the booking user has
	// no referrer; a duplicate requestID returns the existing commission.
	RecordBookingCommission(bookingUserRef, requestID string, bookingAmount decimal.Decimal) (*models.Commission, error)
	UpdateCommissionStatus(id uint, newStatus string) (*models.Commission, error)
	// ConfirmSignupCommission is the entry point for the host's external
	// verification process: it fills in the amount of a zero-value signup
	// commission and confirms it in one step.
	ConfirmSignupCommission(id uint, amount decimal.Decimal) (*models.Commission, error)
	GetCommissions(req request.GetCommissionsRequest) ([]models.Commission, int64, error)
	GetTotalCommissions(req request.GetCommissionsRequest) (decimal.Decimal, error)
}

// PayoutService validates and records withdrawal requests against confirmed
// commission balance.
type PayoutService interface {
	RequestPayout(affiliateID uint, req request.CreatePayoutRequest) (*models.Payout, error)
	UpdatePayoutStatus(id uint, newStatus string) (*models.Payout, error)
	FailPayout(id uint, reason string) (*models.Payout, error)
	AvailableBalance(affiliateID uint) (decimal.Decimal, error)
	GetPayouts(req request.GetPayoutsRequest) ([]models.Payout, int64, error)
}

// TierService loads threshold configuration and derives tier labels from
// earnings. TierFor and RateFor are pure.
type TierService interface {
	Thresholds() models.TierThresholds
	SetThresholds(t models.TierThresholds) error
	TierFor(earnings decimal.Decimal, t models.TierThresholds) string
	RateFor(tier string) decimal.Decimal
	// Earnings is the confirmed-plus-paid commission total used for tier
	// derivation.
	Earnings(affiliateID uint) (decimal.Decimal, error)
	Progress(affiliateID uint) (*response.TierProgress, error)
}

// TrackingService appends and queries immutable tracking events.
type TrackingService interface {
	RecordVisit(affiliateID uint, meta models.VisitMeta) (*models.TrackingEvent, error)
	RecordSignup(affiliateID uint, meta models.SignupMeta) (*models.TrackingEvent, error)
	RecordBooking(affiliateID uint, meta models.BookingMeta) (*models.TrackingEvent, error)
	GetEvents(req request.GetTrackingEventsRequest) ([]models.TrackingEvent, int64, error)
	CountEvents(req request.GetTrackingEventsRequest) (int64, error)
}

// StatsService aggregates per-affiliate dashboard figures.
type StatsService interface {
	AffiliateStats(affiliateID uint) (*response.AffiliateStats, error)
}

// Change is one row-level change notification.
type Change struct {
	Table       string `json:"table"`
	Op          string `json:"op"`
	ID          uint   `json:"id"`
	AffiliateID uint   `json:"affiliateId"`
}

const (
	OpInsert = "insert"
	OpUpdate = "update"
)

// ChangeFeed fans row changes out to in-process subscribers. Delivery is
// best-effort: a slow subscriber's channel drops notifications rather than
// blocking the write path, and consumers reconcile by refetching.
type ChangeFeed interface {
	// Subscribe filters by table ("" for all) and affiliate id (0 for all).
	// The returned cancel func must be called to release the subscription.
	Subscribe(table string, affiliateID uint) (<-chan Change, func())
	Publish(c Change)
}

// Worker dispatches pending payouts, optionally on a schedule.
type Worker interface {
	ProcessPendingPayouts() error
	StartScheduler(interval time.Duration) error
	StopScheduler() error
}
