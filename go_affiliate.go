// Package go_affiliate is an embeddable affiliate attribution and commission
// engine for the marketplace: it captures referral visits, binds signups to
// referrers, accrues tiered booking commissions and validates payout requests.
package go_affiliate

import (
	"time"

	db2 "github.com/starloop/go-affiliate/internal/db"
	"github.com/starloop/go-affiliate/internal/serviceimpl"
	"github.com/starloop/go-affiliate/service"
	"github.com/starloop/go-affiliate/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AffiliateService struct {
	Links       service.LinkService
	Attribution service.AttributionService
	Signups     service.SignupService
	Commissions service.CommissionService
	Payouts     service.PayoutService
	Tiers       service.TierService
	Tracking    service.TrackingService
	Stats       service.StatsService
	Changes     service.ChangeFeed
	Worker      service.Worker
}

type Option func(*options)

type options struct {
	logger *zap.Logger
	now    func() time.Time
}

// WithLogger wires a host logger; the engine is silent by default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the attribution clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewAffiliateService runs migrations and wires the engine over the given
// database and client-local store.
func NewAffiliateService(db *gorm.DB, local store.LocalStore, opts ...Option) *AffiliateService {
	o := &options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	db2.Migrate(db)

	changes := serviceimpl.NewChangeFeed(o.logger)
	tiers := serviceimpl.NewTierService(db, o.logger)
	links := serviceimpl.NewLinkService(db, o.logger)
	tracking := serviceimpl.NewTrackingService(db, o.logger)
	attribution := serviceimpl.NewAttributionService(local, links, tracking, o.logger, o.now)
	payouts := serviceimpl.NewPayoutService(db, o.logger, changes)

	return &AffiliateService{
		Links:       links,
		Attribution: attribution,
		Signups:     serviceimpl.NewSignupService(db, o.logger, attribution, changes),
		Commissions: serviceimpl.NewCommissionService(db, o.logger, tiers, changes),
		Payouts:     payouts,
		Tiers:       tiers,
		Tracking:    tracking,
		Stats:       serviceimpl.NewAggregatorService(db, o.logger, tiers),
		Changes:     changes,
		Worker:      serviceimpl.NewWorkerService(db, o.logger, payouts),
	}
}
