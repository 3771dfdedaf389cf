package serviceimpl

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Monotonic commission status machine.
var commissionTransitions = map[string][]string{
	models.CommissionStatusPending:   {models.CommissionStatusConfirmed, models.CommissionStatusCancelled},
	models.CommissionStatusConfirmed: {models.CommissionStatusPaid},
}

type commissionService struct {
	DB      *gorm.DB
	log     *zap.Logger
	tiers   service.TierService
	changes service.ChangeFeed
}

var _ service.CommissionService = &commissionService{}

func NewCommissionService(db *gorm.DB, log *zap.Logger, tiers service.TierService, changes service.ChangeFeed) *commissionService {
	return &commissionService{
		DB:      db,
		log:     log.Named("commissions"),
		tiers:   tiers,
		changes: changes,
	}
}

// RecordBookingCommission fixes the commission amount from the referrer's tier
// at this moment. The tier is recomputed from current earnings, never read
// from the cached label. requestID is the natural dedup key: a repeat call
// returns the existing commission and writes nothing.
func (s *commissionService) RecordBookingCommission(bookingUserRef, requestID string, bookingAmount decimal.Decimal) (*models.Commission, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}
	if !bookingAmount.IsPositive() {
		return nil, fmt.Errorf("%w: booking amount %s", service.ErrInvalidAmount, bookingAmount)
	}

	var user models.User
	if err := s.DB.Where("reference_id = ?", bookingUserRef).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch booking user %q: %w", bookingUserRef, err)
	}
	if user.ReferrerID == nil {
		return nil, nil
	}
	referrerID := *user.ReferrerID

	var commission *models.Commission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Commission
		err := tx.Where("commission_type = ? AND request_id = ?",
			models.CommissionTypeBooking, requestID).First(&existing).Error
		if err == nil {
			s.log.Warn("duplicate booking commission suppressed",
				zap.String("requestID", requestID), zap.Uint("affiliateID", referrerID))
			commission = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for existing commission: %w", err)
		}

		earnings, err := confirmedEarnings(tx, referrerID)
		if err != nil {
			return err
		}
		tier := s.tiers.TierFor(earnings, s.tiers.Thresholds())
		rate := s.tiers.RateFor(tier)
		amount := bookingAmount.Mul(rate).Round(2)

		event, err := models.NewBookingEvent(referrerID, models.BookingMeta{
			ReferredUserID:  user.ID,
			ReferredUserRef: bookingUserRef,
			RequestID:       requestID,
			BookingAmount:   bookingAmount,
		})
		if err != nil {
			return fmt.Errorf("failed to encode booking event: %w", err)
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to record booking event: %w", err)
		}

		commission = &models.Commission{
			AffiliateID:    referrerID,
			ReferredUserID: &user.ID,
			RequestID:      &requestID,
			CommissionType: models.CommissionTypeBooking,
			Amount:         amount,
			Status:         models.CommissionStatusPending,
		}
		if err := tx.Create(commission).Error; err != nil {
			return fmt.Errorf("failed to create booking commission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changes.Publish(service.Change{
		Table:       models.Commission{}.TableName(),
		Op:          service.OpInsert,
		ID:          commission.ID,
		AffiliateID: referrerID,
	})
	return commission, nil
}

func (s *commissionService) UpdateCommissionStatus(id uint, newStatus string) (*models.Commission, error) {
	var commission models.Commission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&commission, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("commission %d not found", id)
			}
			return fmt.Errorf("failed to fetch commission %d: %w", id, err)
		}

		if !validTransition(commissionTransitions, commission.Status, newStatus) {
			return fmt.Errorf("%w: commission %s -> %s",
				service.ErrInvalidStatusTransition, commission.Status, newStatus)
		}

		commission.Status = newStatus
		if err := tx.Save(&commission).Error; err != nil {
			return fmt.Errorf("failed to update commission status: %w", err)
		}

		return s.refreshTierCache(tx, commission.AffiliateID)
	})
	if err != nil {
		return nil, err
	}

	s.changes.Publish(service.Change{
		Table:       models.Commission{}.TableName(),
		Op:          service.OpUpdate,
		ID:          commission.ID,
		AffiliateID: commission.AffiliateID,
	})
	return &commission, nil
}

// ConfirmSignupCommission fills in the amount determined by the host's
// verification process and confirms the placeholder in one step.
func (s *commissionService) ConfirmSignupCommission(id uint, amount decimal.Decimal) (*models.Commission, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: signup commission amount %s", service.ErrInvalidAmount, amount)
	}

	var commission models.Commission
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&commission, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("commission %d not found", id)
			}
			return fmt.Errorf("failed to fetch commission %d: %w", id, err)
		}

		if commission.CommissionType != models.CommissionTypeSignup {
			return fmt.Errorf("commission %d is not a signup commission", id)
		}
		if !validTransition(commissionTransitions, commission.Status, models.CommissionStatusConfirmed) {
			return fmt.Errorf("%w: commission %s -> %s",
				service.ErrInvalidStatusTransition, commission.Status, models.CommissionStatusConfirmed)
		}

		commission.Amount = amount
		commission.Status = models.CommissionStatusConfirmed
		if err := tx.Save(&commission).Error; err != nil {
			return fmt.Errorf("failed to confirm signup commission: %w", err)
		}

		return s.refreshTierCache(tx, commission.AffiliateID)
	})
	if err != nil {
		return nil, err
	}

	s.changes.Publish(service.Change{
		Table:       models.Commission{}.TableName(),
		Op:          service.OpUpdate,
		ID:          commission.ID,
		AffiliateID: commission.AffiliateID,
	})
	return &commission, nil
}

// refreshTierCache recomputes the display tier after earnings changed. Money
// paths never read this column.
func (s *commissionService) refreshTierCache(tx *gorm.DB, affiliateID uint) error {
	earnings, err := confirmedEarnings(tx, affiliateID)
	if err != nil {
		return err
	}
	tier := s.tiers.TierFor(earnings, s.tiers.Thresholds())
	if err := tx.Model(&models.User{}).Where("id = ?", affiliateID).
		Update("affiliate_tier", tier).Error; err != nil {
		return fmt.Errorf("failed to refresh tier cache for affiliate %d: %w", affiliateID, err)
	}
	return nil
}

func (s *commissionService) GetCommissions(req request.GetCommissionsRequest) ([]models.Commission, int64, error) {
	var commissions []models.Commission
	var count int64

	query := s.DB.Model(&models.Commission{})
	query = request.ApplyGetCommissionsRequest(req, query)

	countQuery := query
	if err := countQuery.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count commissions: %w", err)
	}

	query = request.ApplyPaginationConditions(query, req.PaginationConditions)

	if err := query.Preload("ReferredUser").Find(&commissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch commissions: %w", err)
	}

	return commissions, count, nil
}

func (s *commissionService) GetTotalCommissions(req request.GetCommissionsRequest) (decimal.Decimal, error) {
	var total decimal.Decimal

	query := s.DB.Model(&models.Commission{}).Select("COALESCE(SUM(amount), 0)")
	query = request.ApplyGetCommissionsRequest(req, query)

	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum commissions: %w", err)
	}
	return total, nil
}

func validTransition(machine map[string][]string, from, to string) bool {
	for _, allowed := range machine[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
