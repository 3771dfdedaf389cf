package serviceimpl

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/response"
	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Commission rate per tier. Fixed; only the thresholds are configurable.
var commissionRates = map[string]decimal.Decimal{
	models.TierBronze:   decimal.RequireFromString("0.10"),
	models.TierSilver:   decimal.RequireFromString("0.12"),
	models.TierGold:     decimal.RequireFromString("0.15"),
	models.TierPlatinum: decimal.RequireFromString("0.20"),
}

var tierOrder = []string{models.TierBronze, models.TierSilver, models.TierGold, models.TierPlatinum}

type tierService struct {
	DB  *gorm.DB
	log *zap.Logger
}

var _ service.TierService = &tierService{}

func NewTierService(db *gorm.DB, log *zap.Logger) *tierService {
	return &tierService{DB: db, log: log.Named("tier")}
}

// Thresholds loads the affiliate_tiers setting, falling back to defaults when
// the row is absent or malformed. Never fails.
func (s *tierService) Thresholds() models.TierThresholds {
	var setting models.Setting
	if err := s.DB.Where("key = ?", models.SettingTierThresholds).First(&setting).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("failed to load tier thresholds, using defaults", zap.Error(err))
		}
		return models.DefaultTierThresholds()
	}

	var t models.TierThresholds
	if err := json.Unmarshal([]byte(setting.Value), &t); err != nil {
		s.log.Warn("malformed tier thresholds setting, using defaults", zap.Error(err))
		return models.DefaultTierThresholds()
	}
	if !t.Valid() {
		s.log.Warn("non-monotonic tier thresholds setting, using defaults",
			zap.String("value", setting.Value))
		return models.DefaultTierThresholds()
	}
	return t
}

func (s *tierService) SetThresholds(t models.TierThresholds) error {
	if !t.Valid() {
		return fmt.Errorf("%w: silver=%s gold=%s platinum=%s",
			service.ErrInvalidTierThresholds, t.Silver, t.Gold, t.Platinum)
	}

	value, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tier thresholds: %w", err)
	}

	setting := models.Setting{Key: models.SettingTierThresholds, Value: string(value)}
	err = s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to save tier thresholds: %w", err)
	}
	return nil
}

// TierFor returns the highest tier whose threshold is <= earnings.
func (s *tierService) TierFor(earnings decimal.Decimal, t models.TierThresholds) string {
	switch {
	case earnings.GreaterThanOrEqual(t.Platinum):
		return models.TierPlatinum
	case earnings.GreaterThanOrEqual(t.Gold):
		return models.TierGold
	case earnings.GreaterThanOrEqual(t.Silver):
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

// RateFor returns the commission rate for a tier label. Unknown labels get
// the bronze rate.
func (s *tierService) RateFor(tier string) decimal.Decimal {
	rate, ok := commissionRates[tier]
	if !ok {
		s.log.Warn("unknown tier label, using bronze rate", zap.String("tier", tier))
		return commissionRates[models.TierBronze]
	}
	return rate
}

func (s *tierService) Earnings(affiliateID uint) (decimal.Decimal, error) {
	return confirmedEarnings(s.DB, affiliateID)
}

func (s *tierService) Progress(affiliateID uint) (*response.TierProgress, error) {
	earnings, err := s.Earnings(affiliateID)
	if err != nil {
		return nil, err
	}

	thresholds := s.Thresholds()
	tier := s.TierFor(earnings, thresholds)

	progress := &response.TierProgress{Tier: tier, Earnings: earnings}
	for i, label := range tierOrder {
		if label != tier || i == len(tierOrder)-1 {
			continue
		}
		next := tierOrder[i+1]
		threshold := s.thresholdFor(next, thresholds)
		remaining := threshold.Sub(earnings)
		progress.NextTier = &next
		progress.NextThreshold = &threshold
		progress.Remaining = &remaining
	}
	return progress, nil
}

func (s *tierService) thresholdFor(tier string, t models.TierThresholds) decimal.Decimal {
	switch tier {
	case models.TierSilver:
		return t.Silver
	case models.TierGold:
		return t.Gold
	case models.TierPlatinum:
		return t.Platinum
	default:
		return decimal.Zero
	}
}
