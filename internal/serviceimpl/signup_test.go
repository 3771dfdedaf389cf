package serviceimpl_test

import (
	"testing"
	"time"

	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/utils"
	"github.com/stretchr/testify/assert"
)

func TestLinkSignupBindsReferrerAndCreatesPlaceholder(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")

	user := linkReferredUser(t, svc, link.Code, "fan-u1")
	assert.Equal(t, link.UserID, *user.ReferrerID)

	// One signup tracking event for the affiliate.
	count, err := svc.Tracking.CountEvents(request.GetTrackingEventsRequest{
		AffiliateID: &link.UserID,
		EventType:   utils.StringPtr(models.EventTypeSignup),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// One zero-amount pending signup commission.
	commissions, total, err := svc.Commissions.GetCommissions(request.GetCommissionsRequest{
		AffiliateID:    &link.UserID,
		CommissionType: utils.StringPtr(models.CommissionTypeSignup),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assertDecimalEqual(t, "0", commissions[0].Amount, "signup commission amount")
	assert.Equal(t, models.CommissionStatusPending, commissions[0].Status)
}

func TestLinkSignupWithoutAttributionIsNoop(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	user, linked, err := svc.Signups.LinkSignup("fan-u2")
	assert.NoError(t, err)
	assert.False(t, linked)
	assert.Nil(t, user)
}

func TestLinkSignupIsIdempotent(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")

	first := linkReferredUser(t, svc, link.Code, "fan-u3")

	// Second invocation under still-valid attribution must not rewrite
	// referrer_id or add a second commission.
	second, linked, err := svc.Signups.LinkSignup("fan-u3")
	assert.NoError(t, err)
	assert.True(t, linked)
	assert.Equal(t, *first.ReferrerID, *second.ReferrerID)

	_, total, err := svc.Commissions.GetCommissions(request.GetCommissionsRequest{
		AffiliateID:    &link.UserID,
		CommissionType: utils.StringPtr(models.CommissionTypeSignup),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total, "duplicate signup must not create a second commission")
}

func TestLinkSignupKeepsFirstReferrerUnderNewAttribution(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	first := createAffiliate(t, svc, "creator-one")
	second := createAffiliate(t, svc, "creator-two")

	user := linkReferredUser(t, svc, first.Code, "fan-u4")

	// A later visit through another code must not rebind the user.
	svc.Attribution.CaptureVisit(second.Code, "", "")
	rebound, linked, err := svc.Signups.LinkSignup("fan-u4")
	assert.NoError(t, err)
	assert.True(t, linked)
	assert.Equal(t, *user.ReferrerID, *rebound.ReferrerID, "referrer_id is immutable once set")
}

func TestLinkSignupInactiveLinkIsNoop(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")
	_, err := svc.Links.UpdateLinkStatus(link.Code, false)
	assert.NoError(t, err)

	svc.Attribution.CaptureVisit(link.Code, "", "")
	user, linked, err := svc.Signups.LinkSignup("fan-u5")
	assert.NoError(t, err)
	assert.False(t, linked)
	assert.Nil(t, user)
}

func TestLinkSignupSelfReferralIsNoop(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")

	svc.Attribution.CaptureVisit(link.Code, "", "")
	user, linked, err := svc.Signups.LinkSignup("creator-alice")
	assert.NoError(t, err)
	assert.False(t, linked)
	assert.Nil(t, user)
}

func TestLinkSignupExpiredAttributionIsNoop(t *testing.T) {
	svc, _, clock := newTestEngineWithClock(t)
	link := createAffiliate(t, svc, "creator-alice")

	svc.Attribution.CaptureVisit(link.Code, "", "")
	*clock = clock.Add(31 * 24 * time.Hour)

	user, linked, err := svc.Signups.LinkSignup("fan-u6")
	assert.NoError(t, err)
	assert.False(t, linked)
	assert.Nil(t, user)
}
