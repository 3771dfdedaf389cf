package serviceimpl

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/response"
	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type aggregatorService struct {
	DB    *gorm.DB
	log   *zap.Logger
	tiers service.TierService
}

var _ service.StatsService = &aggregatorService{}

func NewAggregatorService(db *gorm.DB, log *zap.Logger, tiers service.TierService) *aggregatorService {
	return &aggregatorService{DB: db, log: log.Named("stats"), tiers: tiers}
}

// AffiliateStats assembles the dashboard aggregate for one affiliate. The
// tier is derived live from earnings, not read from the cached column.
func (s *aggregatorService) AffiliateStats(affiliateID uint) (*response.AffiliateStats, error) {
	var user models.User
	if err := s.DB.First(&user, affiliateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", service.ErrUserNotFound, affiliateID)
		}
		return nil, fmt.Errorf("failed to fetch affiliate %d: %w", affiliateID, err)
	}

	stats := &response.AffiliateStats{
		AffiliateID: user.ID,
		ReferenceID: user.ReferenceID,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}

	var link models.AffiliateLink
	err := s.DB.Where("user_id = ?", affiliateID).First(&link).Error
	switch {
	case err == nil:
		stats.Code = link.Code
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to fetch link for affiliate %d: %w", affiliateID, err)
	}

	for eventType, target := range map[string]*int64{
		models.EventTypeVisit:   &stats.VisitCount,
		models.EventTypeSignup:  &stats.SignupCount,
		models.EventTypeBooking: &stats.BookingCount,
	} {
		if err := s.DB.Model(&models.TrackingEvent{}).
			Where("affiliate_id = ? AND event_type = ?", affiliateID, eventType).
			Count(target).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s events: %w", eventType, err)
		}
	}

	earnings, err := confirmedEarnings(s.DB, affiliateID)
	if err != nil {
		return nil, err
	}
	stats.LifetimeEarnings = earnings
	stats.Tier = s.tiers.TierFor(earnings, s.tiers.Thresholds())

	var pending decimal.Decimal
	if err := s.DB.Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("affiliate_id = ? AND status = ?", affiliateID, models.CommissionStatusPending).
		Scan(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to sum pending commissions: %w", err)
	}
	stats.PendingEarnings = pending

	available, err := availableBalance(s.DB, affiliateID)
	if err != nil {
		return nil, err
	}
	stats.AvailableBalance = available

	return stats, nil
}
