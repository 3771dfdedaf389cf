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

var payoutTransitions = map[string][]string{
	models.PayoutStatusPending:    {models.PayoutStatusProcessing, models.PayoutStatusFailed},
	models.PayoutStatusProcessing: {models.PayoutStatusCompleted, models.PayoutStatusFailed},
}

type payoutService struct {
	DB      *gorm.DB
	log     *zap.Logger
	changes service.ChangeFeed
}

var _ service.PayoutService = &payoutService{}

func NewPayoutService(db *gorm.DB, log *zap.Logger, changes service.ChangeFeed) *payoutService {
	return &payoutService{DB: db, log: log.Named("payouts"), changes: changes}
}

// RequestPayout validates the method details and the available balance, then
// records a pending payout. Balance check and insert share one transaction
// with the affiliate row locked, so concurrent requests against the same
// affiliate serialize.
func (s *payoutService) RequestPayout(affiliateID uint, req request.CreatePayoutRequest) (*models.Payout, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payout amount %s", service.ErrInvalidAmount, req.Amount)
	}
	if err := req.Details.Validate(req.Method); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidPayoutDetails, err)
	}
	details, err := req.Details.Encode(req.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidPayoutDetails, err)
	}

	var payout *models.Payout
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).
			First(&user, affiliateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", service.ErrUserNotFound, affiliateID)
			}
			return fmt.Errorf("failed to fetch affiliate %d: %w", affiliateID, err)
		}

		available, err := availableBalance(tx, affiliateID)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(available) {
			return fmt.Errorf("%w: requested %s, available %s",
				service.ErrInsufficientBalance, req.Amount, available)
		}

		payout = &models.Payout{
			AffiliateID: affiliateID,
			Amount:      req.Amount,
			Method:      req.Method,
			Details:     details,
			Status:      models.PayoutStatusPending,
		}
		return tx.Create(payout).Error
	})
	if err != nil {
		return nil, err
	}

	s.changes.Publish(service.Change{
		Table:       models.Payout{}.TableName(),
		Op:          service.OpInsert,
		ID:          payout.ID,
		AffiliateID: affiliateID,
	})
	return payout, nil
}

// UpdatePayoutStatus advances the payout state machine. The transition to
// processing is the moment funds become reserved, so the balance is
// re-validated there; an over-drawn payout stays pending and the caller gets
// ErrInsufficientBalance.
func (s *payoutService) UpdatePayoutStatus(id uint, newStatus string) (*models.Payout, error) {
	var payout models.Payout
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&payout, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payout %d not found", id)
			}
			return fmt.Errorf("failed to fetch payout %d: %w", id, err)
		}

		if !validTransition(payoutTransitions, payout.Status, newStatus) {
			return fmt.Errorf("%w: payout %s -> %s",
				service.ErrInvalidStatusTransition, payout.Status, newStatus)
		}

		if newStatus == models.PayoutStatusProcessing {
			available, err := availableBalance(tx, payout.AffiliateID)
			if err != nil {
				return err
			}
			if payout.Amount.GreaterThan(available) {
				return fmt.Errorf("%w: payout %d needs %s, available %s",
					service.ErrInsufficientBalance, id, payout.Amount, available)
			}
		}

		payout.Status = newStatus
		return tx.Save(&payout).Error
	})
	if err != nil {
		return nil, err
	}

	s.changes.Publish(service.Change{
		Table:       models.Payout{}.TableName(),
		Op:          service.OpUpdate,
		ID:          payout.ID,
		AffiliateID: payout.AffiliateID,
	})
	return &payout, nil
}

// FailPayout marks a pending or processing payout failed with a reason.
func (s *payoutService) FailPayout(id uint, reason string) (*models.Payout, error) {
	var payout models.Payout
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&payout, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payout %d not found", id)
			}
			return fmt.Errorf("failed to fetch payout %d: %w", id, err)
		}

		if !validTransition(payoutTransitions, payout.Status, models.PayoutStatusFailed) {
			return fmt.Errorf("%w: payout %s -> %s",
				service.ErrInvalidStatusTransition, payout.Status, models.PayoutStatusFailed)
		}

		payout.Status = models.PayoutStatusFailed
		payout.FailureReason = &reason
		return tx.Save(&payout).Error
	})
	if err != nil {
		return nil, err
	}

	s.changes.Publish(service.Change{
		Table:       models.Payout{}.TableName(),
		Op:          service.OpUpdate,
		ID:          payout.ID,
		AffiliateID: payout.AffiliateID,
	})
	return &payout, nil
}

func (s *payoutService) AvailableBalance(affiliateID uint) (decimal.Decimal, error) {
	return availableBalance(s.DB, affiliateID)
}

func (s *payoutService) GetPayouts(req request.GetPayoutsRequest) ([]models.Payout, int64, error) {
	var payouts []models.Payout
	var count int64

	query := s.DB.Model(&models.Payout{})
	query = request.ApplyGetPayoutsRequest(req, query)

	countQuery := query
	if err := countQuery.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	query = request.ApplyPaginationConditions(query, req.PaginationConditions)

	if err := query.Find(&payouts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payouts: %w", err)
	}

	return payouts, count, nil
}
