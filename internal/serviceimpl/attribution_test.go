package serviceimpl_test

import (
	"testing"
	"time"

	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/store"
	"github.com/starloop/go-affiliate/utils"
	"github.com/stretchr/testify/assert"
)

func TestCaptureVisitPersistsAttributionAndTracksVisit(t *testing.T) {
	svc, local, _ := newTestEngine(t)
	link := createAffiliate(t, svc, "creator-alice")

	svc.Attribution.CaptureVisit(link.Code, "Mozilla/5.0", "https://blog.example.com/post")

	code, ok := svc.Attribution.ActiveAttribution()
	assert.True(t, ok)
	assert.Equal(t, link.Code, code)

	stored, ok := local.Get(store.KeyAffiliateCode)
	assert.True(t, ok)
	assert.Equal(t, link.Code, stored)

	events, count, err := svc.Tracking.GetEvents(request.GetTrackingEventsRequest{
		AffiliateID: &link.UserID,
		EventType:   utils.StringPtr(models.EventTypeVisit),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, svc.Attribution.VisitorID(), events[0].VisitorID)
}

func TestCaptureVisitUnknownCodeStillPersistsAttribution(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	// No link exists for this code, so tracking is skipped, but the
	// attribution must survive for a later signup to validate.
	svc.Attribution.CaptureVisit("nonexistent-code", "", "")

	code, ok := svc.Attribution.ActiveAttribution()
	assert.True(t, ok)
	assert.Equal(t, "nonexistent-code", code)
}

func TestCaptureVisitEmptyCodeIsNoop(t *testing.T) {
	svc, local, _ := newTestEngine(t)

	svc.Attribution.CaptureVisit("", "", "")

	_, ok := local.Get(store.KeyAffiliateCode)
	assert.False(t, ok)
}

func TestAttributionExpiresAfterWindow(t *testing.T) {
	svc, local, clock := newTestEngineWithClock(t)
	link := createAffiliate(t, svc, "creator-bob")

	svc.Attribution.CaptureVisit(link.Code, "", "")

	*clock = clock.Add(29 * 24 * time.Hour)
	code, ok := svc.Attribution.ActiveAttribution()
	assert.True(t, ok, "attribution should still be valid inside the window")
	assert.Equal(t, link.Code, code)

	*clock = clock.Add(2 * 24 * time.Hour)
	_, ok = svc.Attribution.ActiveAttribution()
	assert.False(t, ok, "attribution should expire after 30 days")

	// Lazy expiration purges the stale record.
	_, ok = local.Get(store.KeyAffiliateCode)
	assert.False(t, ok, "expired attribution should be purged")
	_, ok = local.Get(store.KeyAffiliateTimestamp)
	assert.False(t, ok)
}

func TestLastTouchAttributionWins(t *testing.T) {
	svc, _, _ := newTestEngine(t)
	first := createAffiliate(t, svc, "creator-one")
	second := createAffiliate(t, svc, "creator-two")

	svc.Attribution.CaptureVisit(first.Code, "", "")
	svc.Attribution.CaptureVisit(second.Code, "", "")

	code, ok := svc.Attribution.ActiveAttribution()
	assert.True(t, ok)
	assert.Equal(t, second.Code, code, "most recent code should win")
}

func TestVisitorIDIsStable(t *testing.T) {
	svc, _, _ := newTestEngine(t)

	id := svc.Attribution.VisitorID()
	assert.NotEmpty(t, id)

	svc.Attribution.CaptureVisit("some-code", "", "")
	assert.Equal(t, id, svc.Attribution.VisitorID(), "visitor id must never change")
}

func TestMalformedTimestampPurgesAttribution(t *testing.T) {
	svc, local, _ := newTestEngine(t)

	local.Set(store.KeyAffiliateCode, "abc123")
	local.Set(store.KeyAffiliateTimestamp, "not-a-timestamp")

	_, ok := svc.Attribution.ActiveAttribution()
	assert.False(t, ok)
	_, ok = local.Get(store.KeyAffiliateCode)
	assert.False(t, ok)
}

func TestReferralCodeFromURL(t *testing.T) {
	assert.Equal(t, "alice-9f2a", utils.ReferralCodeFromURL("https://app.example.com/?ref=alice-9f2a"))
	assert.Equal(t, "", utils.ReferralCodeFromURL("https://app.example.com/"))
	assert.Equal(t, "", utils.ReferralCodeFromURL("://bad-url"))
}
