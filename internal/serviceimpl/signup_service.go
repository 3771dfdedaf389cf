package serviceimpl

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type signupService struct {
	DB          *gorm.DB
	log         *zap.Logger
	attribution service.AttributionService
	changes     service.ChangeFeed
}

var _ service.SignupService = &signupService{}

func NewSignupService(db *gorm.DB, log *zap.Logger, attribution service.AttributionService, changes service.ChangeFeed) *signupService {
	return &signupService{
		DB:          db,
		log:         log.Named("signup"),
		attribution: attribution,
		changes:     changes,
	}
}

// LinkSignup binds the new user to the affiliate holding valid attribution.
// referrer_id is set exactly once; a second invocation is absorbed as a no-op.
// The referrer-id write, signup event and placeholder commission share one
// transaction.
func (s *signupService) LinkSignup(userRef string) (*models.User, bool, error) {
	if userRef == "" {
		return nil, false, fmt.Errorf("user reference is required")
	}

	code, ok := s.attribution.ActiveAttribution()
	if !ok {
		return nil, false, nil
	}

	var link models.AffiliateLink
	if err := s.DB.Where("code = ? AND active = ?", code, true).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("attributed code does not resolve to an active link, skipping signup linkage",
				zap.String("code", code))
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to resolve attributed code %q: %w", code, err)
	}

	var user *models.User
	var commission *models.Commission
	linked := false
	created := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = ensureUser(tx, userRef)
		if err != nil {
			return err
		}

		// Re-read under lock so the set-once guard holds against concurrent
		// invocations.
		if err := lockForUpdate(tx).
			First(user, user.ID).Error; err != nil {
			return fmt.Errorf("failed to lock user %q: %w", userRef, err)
		}

		if user.ReferrerID != nil {
			s.log.Warn("referrer already set, suppressing duplicate signup linkage",
				zap.String("userRef", userRef), zap.Uint("referrerID", *user.ReferrerID))
			linked = true
			return nil
		}

		if link.UserID == user.ID {
			s.log.Warn("self-referral suppressed", zap.String("userRef", userRef),
				zap.String("code", code))
			return nil
		}

		user.ReferrerID = &link.UserID
		if err := tx.Model(user).Update("referrer_id", link.UserID).Error; err != nil {
			return fmt.Errorf("failed to set referrer for user %q: %w", userRef, err)
		}

		event, err := models.NewSignupEvent(link.UserID, models.SignupMeta{
			VisitorID:       s.attribution.VisitorID(),
			ReferredUserID:  user.ID,
			ReferredUserRef: userRef,
		})
		if err != nil {
			return fmt.Errorf("failed to encode signup event: %w", err)
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to record signup event: %w", err)
		}

		// Placeholder commission; the amount is filled in by the host's
		// confirmation process.
		commission = &models.Commission{
			AffiliateID:    link.UserID,
			ReferredUserID: &user.ID,
			CommissionType: models.CommissionTypeSignup,
			Amount:         decimal.Zero,
			Status:         models.CommissionStatusPending,
		}
		if err := tx.Create(commission).Error; err != nil {
			return fmt.Errorf("failed to create signup commission: %w", err)
		}

		linked = true
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !linked {
		return nil, false, nil
	}
	if !created {
		return user, true, nil
	}

	s.changes.Publish(service.Change{
		Table:       models.User{}.TableName(),
		Op:          service.OpUpdate,
		ID:          user.ID,
		AffiliateID: link.UserID,
	})
	s.changes.Publish(service.Change{
		Table:       models.Commission{}.TableName(),
		Op:          service.OpInsert,
		ID:          commission.ID,
		AffiliateID: link.UserID,
	})

	return user, true, nil
}
