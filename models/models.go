package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"index" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Tier labels, ordered from lowest to highest.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

const (
	CommissionStatusPending   = "pending"
	CommissionStatusConfirmed = "confirmed"
	CommissionStatusCancelled = "cancelled"
	CommissionStatusPaid      = "paid"
)

const (
	CommissionTypeSignup    = "signup"
	CommissionTypeBooking   = "booking"
	CommissionTypeRecurring = "recurring"
)

const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusFailed     = "failed"
)

const (
	PayoutMethodPayPal       = "paypal"
	PayoutMethodBankTransfer = "bank_transfer"
	PayoutMethodWalletCredit = "wallet_credit"
)

const (
	EventTypeVisit   = "visit"
	EventTypeSignup  = "signup"
	EventTypeBooking = "booking"
)

// Setting keys.
const SettingTierThresholds = "affiliate_tiers"

// User mirrors the marketplace user inside the engine's own tables. ReferrerID
// is set exactly once at signup linkage and is the source of truth for
// attribution; AffiliateTier is a display cache refreshed after commission
// confirmations and never consulted on money paths.
type User struct {
	BaseModel
	ReferenceID   string `gorm:"size:100;not null;uniqueIndex" json:"referenceId"`
	ReferrerID    *uint  `gorm:"index" json:"referrerId"`
	AffiliateTier string `gorm:"size:20;default:'bronze';index" json:"affiliateTier"`

	Referrer *User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
}

func (User) TableName() string {
	return "affiliate_users"
}

// AffiliateLink is a user-owned referral code. One link per user; the code is
// immutable once issued.
type AffiliateLink struct {
	BaseModel
	UserID      uint   `gorm:"not null;uniqueIndex" json:"userId"`
	Code        string `gorm:"size:50;not null;uniqueIndex" json:"code"`
	LandingPage string `gorm:"size:255" json:"landingPage"`
	Active      bool   `gorm:"default:true;index" json:"active"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AffiliateLink) TableName() string {
	return "affiliate_links"
}

// TrackingEvent is an append-only record of a visit, signup or booking
// credited to an affiliate. Rows are never updated or deleted; they exist for
// aggregate counting only.
type TrackingEvent struct {
	BaseModel
	AffiliateID uint    `gorm:"not null;index" json:"affiliateId"`
	EventType   string  `gorm:"size:20;not null;index" json:"eventType"`
	VisitorID   string  `gorm:"size:64;index" json:"visitorId"`
	Metadata    *string `gorm:"type:json" json:"metadata"`

	Affiliate *User `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
}

func (TrackingEvent) TableName() string {
	return "affiliate_tracking_events"
}

// VisitMeta is the metadata payload for visit events.
type VisitMeta struct {
	VisitorID   string `json:"visitorId"`
	UserAgent   string `json:"userAgent,omitempty"`
	ReferrerURL string `json:"referrerUrl,omitempty"`
}

// SignupMeta is the metadata payload for signup events.
type SignupMeta struct {
	VisitorID       string `json:"visitorId,omitempty"`
	ReferredUserID  uint   `json:"referredUserId"`
	ReferredUserRef string `json:"referredUserRef"`
}

// BookingMeta is the metadata payload for booking events.
type BookingMeta struct {
	ReferredUserID  uint            `json:"referredUserId"`
	ReferredUserRef string          `json:"referredUserRef"`
	RequestID       string          `json:"requestId"`
	BookingAmount   decimal.Decimal `json:"bookingAmount"`
}

func NewVisitEvent(affiliateID uint, meta VisitMeta) (*TrackingEvent, error) {
	return newTrackingEvent(affiliateID, EventTypeVisit, meta.VisitorID, meta)
}

func NewSignupEvent(affiliateID uint, meta SignupMeta) (*TrackingEvent, error) {
	return newTrackingEvent(affiliateID, EventTypeSignup, meta.VisitorID, meta)
}

func NewBookingEvent(affiliateID uint, meta BookingMeta) (*TrackingEvent, error) {
	return newTrackingEvent(affiliateID, EventTypeBooking, "", meta)
}

func newTrackingEvent(affiliateID uint, eventType, visitorID string, meta any) (*TrackingEvent, error) {
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	encoded := string(data)
	return &TrackingEvent{
		AffiliateID: affiliateID,
		EventType:   eventType,
		VisitorID:   visitorID,
		Metadata:    &encoded,
	}, nil
}

// Commission is money owed to an affiliate for one referred event. A booking
// commission's amount is fixed at creation time from the referrer's tier at
// that moment and is never recalculated. Status transitions are monotonic:
// pending -> {confirmed, cancelled}, confirmed -> paid.
type Commission struct {
	BaseModel
	AffiliateID    uint            `gorm:"not null;index" json:"affiliateId"`
	ReferredUserID *uint           `gorm:"index" json:"referredUserId"`
	RequestID      *string         `gorm:"size:100;uniqueIndex:idx_commission_type_request" json:"requestId"`
	CommissionType string          `gorm:"size:20;not null;index;uniqueIndex:idx_commission_type_request" json:"commissionType"`
	Amount         decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	Status         string          `gorm:"size:20;default:'pending';not null;index" json:"status"`

	Affiliate    *User `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
	ReferredUser *User `gorm:"foreignKey:ReferredUserID" json:"referredUser,omitempty"`
}

func (Commission) TableName() string {
	return "affiliate_commissions"
}

// Payout is a withdrawal request against an affiliate's confirmed commission
// balance. Only processing and completed payouts reserve funds.
type Payout struct {
	BaseModel
	AffiliateID   uint            `gorm:"not null;index" json:"affiliateId"`
	Amount        decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	Method        string          `gorm:"size:30;not null;index" json:"method"`
	Details       string          `gorm:"type:json" json:"details"`
	Status        string          `gorm:"size:20;default:'pending';not null;index" json:"status"`
	FailureReason *string         `gorm:"type:text" json:"failureReason"`

	Affiliate *User `gorm:"foreignKey:AffiliateID" json:"affiliate,omitempty"`
}

func (Payout) TableName() string {
	return "affiliate_payouts"
}

// Setting is a key-value configuration row with a JSON value.
type Setting struct {
	BaseModel
	Key   string `gorm:"size:100;not null;uniqueIndex" json:"key"`
	Value string `gorm:"type:json;not null" json:"value"`
}

func (Setting) TableName() string {
	return "affiliate_settings"
}

// TierThresholds is the earnings floor for each tier above bronze. Bronze is
// always zero.
type TierThresholds struct {
	Silver   decimal.Decimal `json:"silver"`
	Gold     decimal.Decimal `json:"gold"`
	Platinum decimal.Decimal `json:"platinum"`
}

// Valid reports whether the thresholds satisfy 0 <= silver < gold < platinum.
func (t TierThresholds) Valid() bool {
	return !t.Silver.IsNegative() &&
		t.Silver.LessThan(t.Gold) &&
		t.Gold.LessThan(t.Platinum)
}

// DefaultTierThresholds are used when no affiliate_tiers setting exists or the
// stored value is malformed.
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{
		Silver:   decimal.NewFromInt(500),
		Gold:     decimal.NewFromInt(2000),
		Platinum: decimal.NewFromInt(5000),
	}
}
