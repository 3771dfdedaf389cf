package serviceimpl_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	go_affiliate "github.com/starloop/go-affiliate"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a uniquely named shared in-memory database so each test gets
// an isolated schema that survives gorm's connection pooling.
func newTestDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open test database")
	return db
}

func newTestEngine(t *testing.T) (*go_affiliate.AffiliateService, *store.MemoryStore, *gorm.DB) {
	db := newTestDB(t)
	local := store.NewMemoryStore()
	svc := go_affiliate.NewAffiliateService(db, local)
	return svc, local, db
}

// newTestEngineWithClock returns an engine whose attribution clock reads from
// the returned pointer, so tests can advance time.
func newTestEngineWithClock(t *testing.T) (*go_affiliate.AffiliateService, *store.MemoryStore, *time.Time) {
	db := newTestDB(t)
	local := store.NewMemoryStore()
	current := time.Now()
	svc := go_affiliate.NewAffiliateService(db, local, go_affiliate.WithClock(func() time.Time {
		return current
	}))
	return svc, local, &current
}

func createAffiliate(t *testing.T, svc *go_affiliate.AffiliateService, userRef string) *models.AffiliateLink {
	link, err := svc.Links.CreateLink(request.CreateLinkRequest{UserRef: userRef})
	assert.NoError(t, err, "failed to create affiliate link")
	assert.NotNil(t, link)
	assert.NotEmpty(t, link.Code)
	assert.True(t, link.Active)
	return link
}

// linkReferredUser walks the visit-then-signup path for a fresh user.
func linkReferredUser(t *testing.T, svc *go_affiliate.AffiliateService, code, userRef string) *models.User {
	svc.Attribution.CaptureVisit(code, "test-agent", "https://example.com/")
	user, linked, err := svc.Signups.LinkSignup(userRef)
	assert.NoError(t, err, "failed to link signup")
	assert.True(t, linked, "expected signup to be linked")
	assert.NotNil(t, user)
	assert.NotNil(t, user.ReferrerID)
	return user
}

// seedConfirmedCommission inserts a confirmed commission directly, standing in
// for earnings accrued before the test began.
func seedConfirmedCommission(t *testing.T, db *gorm.DB, affiliateID uint, amount string) *models.Commission {
	requestID := fmt.Sprintf("seed-%s-%d", amount, time.Now().UnixNano())
	commission := &models.Commission{
		AffiliateID:    affiliateID,
		RequestID:      &requestID,
		CommissionType: models.CommissionTypeBooking,
		Amount:         decimal.RequireFromString(amount),
		Status:         models.CommissionStatusConfirmed,
	}
	require.NoError(t, db.Create(commission).Error, "failed to seed commission")
	return commission
}

func assertDecimalEqual(t *testing.T, expected string, actual decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual),
		"%s: expected %s, got %s", msg, expected, actual)
}
