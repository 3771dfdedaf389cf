package serviceimpl

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate adds a row-level lock on dialects that support it. SQLite has
// no FOR UPDATE; its single-writer transactions serialize the same paths.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ensureUser fetches the engine's row for the given external user reference,
// creating one if absent.
func ensureUser(tx *gorm.DB, userRef string) (*models.User, error) {
	var user models.User
	err := tx.Where("reference_id = ?", userRef).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch user %q: %w", userRef, err)
	}

	user = models.User{ReferenceID: userRef, AffiliateTier: models.TierBronze}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", userRef, err)
	}
	// Re-fetch to cover the conflict path, where Create is a no-op.
	if err := tx.Where("reference_id = ?", userRef).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user %q: %w", userRef, err)
	}
	return &user, nil
}

// confirmedEarnings sums confirmed and paid commissions. This is the earnings
// figure tiers are derived from.
func confirmedEarnings(tx *gorm.DB, affiliateID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("affiliate_id = ? AND status IN (?)", affiliateID,
			[]string{models.CommissionStatusConfirmed, models.CommissionStatusPaid}).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum earnings for affiliate %d: %w", affiliateID, err)
	}
	return total, nil
}

// availableBalance computes confirmed commissions minus payouts that reserve
// funds. Pending payouts do not reserve.
func availableBalance(tx *gorm.DB, affiliateID uint) (decimal.Decimal, error) {
	var confirmed decimal.Decimal
	err := tx.Model(&models.Commission{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("affiliate_id = ? AND status = ?", affiliateID, models.CommissionStatusConfirmed).
		Scan(&confirmed).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum confirmed commissions for affiliate %d: %w", affiliateID, err)
	}

	var reserved decimal.Decimal
	err = tx.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("affiliate_id = ? AND status IN (?)", affiliateID,
			[]string{models.PayoutStatusProcessing, models.PayoutStatusCompleted}).
		Scan(&reserved).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum reserved payouts for affiliate %d: %w", affiliateID, err)
	}

	return confirmed.Sub(reserved), nil
}
