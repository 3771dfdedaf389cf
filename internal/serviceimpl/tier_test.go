package serviceimpl_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/service"
	"github.com/stretchr/testify/assert"
)

func TestTierForDefaults(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	thresholds := svc.Tiers.Thresholds()

	cases := []struct {
		earnings string
		tier     string
	}{
		{"0", models.TierBronze},
		{"499.99", models.TierBronze},
		{"500", models.TierSilver},
		{"1999.99", models.TierSilver},
		{"2000", models.TierGold},
		{"4999.99", models.TierGold},
		{"5000", models.TierPlatinum},
		{"1000000", models.TierPlatinum},
	}
	for _, tc := range cases {
		tier := svc.Tiers.TierFor(decimal.RequireFromString(tc.earnings), thresholds)
		assert.Equal(t, tc.tier, tier, "earnings %s", tc.earnings)
	}
}

func TestTierForIsMonotonic(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	thresholds := svc.Tiers.Thresholds()

	rank := map[string]int{
		models.TierBronze:   0,
		models.TierSilver:   1,
		models.TierGold:     2,
		models.TierPlatinum: 3,
	}

	prev := -1
	for earnings := int64(0); earnings <= 6000; earnings += 50 {
		tier := svc.Tiers.TierFor(decimal.NewFromInt(earnings), thresholds)
		assert.GreaterOrEqual(t, rank[tier], prev, "tier regressed at earnings %d", earnings)
		prev = rank[tier]
	}
}

func TestRateForKnownTiers(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	assertDecimalEqual(t, "0.10", svc.Tiers.RateFor(models.TierBronze), "bronze rate")
	assertDecimalEqual(t, "0.12", svc.Tiers.RateFor(models.TierSilver), "silver rate")
	assertDecimalEqual(t, "0.15", svc.Tiers.RateFor(models.TierGold), "gold rate")
	assertDecimalEqual(t, "0.20", svc.Tiers.RateFor(models.TierPlatinum), "platinum rate")
	assertDecimalEqual(t, "0.10", svc.Tiers.RateFor("mystery"), "unknown label falls back to bronze")
}

func TestSetThresholdsRoundTrip(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	custom := models.TierThresholds{
		Silver:   decimal.NewFromInt(100),
		Gold:     decimal.NewFromInt(1000),
		Platinum: decimal.NewFromInt(10000),
	}
	assert.NoError(t, svc.Tiers.SetThresholds(custom))

	loaded := svc.Tiers.Thresholds()
	assertDecimalEqual(t, "100", loaded.Silver, "silver threshold")
	assertDecimalEqual(t, "1000", loaded.Gold, "gold threshold")
	assertDecimalEqual(t, "10000", loaded.Platinum, "platinum threshold")
}

func TestSetThresholdsRejectsNonMonotonic(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	err := svc.Tiers.SetThresholds(models.TierThresholds{
		Silver:   decimal.NewFromInt(2000),
		Gold:     decimal.NewFromInt(500),
		Platinum: decimal.NewFromInt(5000),
	})
	assert.ErrorIs(t, err, service.ErrInvalidTierThresholds)
}

func TestMalformedThresholdSettingFallsBackToDefaults(t *testing.T) {
	svc, _, db := newTestEngine(t)

	setting := models.Setting{Key: models.SettingTierThresholds, Value: `{"silver": "oops"`}
	assert.NoError(t, db.Create(&setting).Error)

	loaded := svc.Tiers.Thresholds()
	assertDecimalEqual(t, "500", loaded.Silver, "default silver threshold")
	assertDecimalEqual(t, "2000", loaded.Gold, "default gold threshold")
	assertDecimalEqual(t, "5000", loaded.Platinum, "default platinum threshold")
}

func TestTierProgress(t *testing.T) {
	svc, _, db := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")
	seedConfirmedCommission(t, db, link.UserID, "600")

	progress, err := svc.Tiers.Progress(link.UserID)
	assert.NoError(t, err)
	assert.Equal(t, models.TierSilver, progress.Tier)
	assertDecimalEqual(t, "600", progress.Earnings, "earnings")
	if assert.NotNil(t, progress.NextTier) {
		assert.Equal(t, models.TierGold, *progress.NextTier)
		assertDecimalEqual(t, "1400", *progress.Remaining, "remaining to gold")
	}
}

func TestTierProgressAtPlatinum(t *testing.T) {
	svc, _, db := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")
	seedConfirmedCommission(t, db, link.UserID, "9000")

	progress, err := svc.Tiers.Progress(link.UserID)
	assert.NoError(t, err)
	assert.Equal(t, models.TierPlatinum, progress.Tier)
	assert.Nil(t, progress.NextTier)
}
