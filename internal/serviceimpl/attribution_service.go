package serviceimpl

import (
	"time"

	"github.com/google/uuid"
	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/service"
	"github.com/starloop/go-affiliate/store"
	"go.uber.org/zap"
)

// AttributionWindow is how long a captured referral code stays valid.
const AttributionWindow = 30 * 24 * time.Hour

type attributionService struct {
	local    store.LocalStore
	links    service.LinkService
	tracking service.TrackingService
	log      *zap.Logger
	now      func() time.Time
}

var _ service.AttributionService = &attributionService{}

func NewAttributionService(local store.LocalStore, links service.LinkService, tracking service.TrackingService, log *zap.Logger, now func() time.Time) *attributionService {
	if now == nil {
		now = time.Now
	}
	return &attributionService{
		local:    local,
		links:    links,
		tracking: tracking,
		log:      log.Named("attribution"),
		now:      now,
	}
}

// CaptureVisit records a visit for the affiliate owning code and persists the
// attribution locally. Last-touch: the new code unconditionally replaces any
// earlier one. Tracking is best-effort; a failed tracking write never blocks
// the local persist.
func (s *attributionService) CaptureVisit(code, userAgent, referrerURL string) {
	if code == "" {
		return
	}

	visitorID := s.VisitorID()

	link, err := s.links.ResolveCode(code)
	switch {
	case err != nil:
		s.log.Warn("visit tracking skipped: unresolvable referral code",
			zap.String("code", code), zap.Error(err))
	case !link.Active:
		s.log.Warn("visit tracking skipped: inactive referral code",
			zap.String("code", code))
	default:
		_, err := s.tracking.RecordVisit(link.UserID, models.VisitMeta{
			VisitorID:   visitorID,
			UserAgent:   userAgent,
			ReferrerURL: referrerURL,
		})
		if err != nil {
			s.log.Warn("visit tracking failed", zap.String("code", code), zap.Error(err))
		}
	}

	s.local.Set(store.KeyAffiliateCode, code)
	s.local.Set(store.KeyAffiliateTimestamp, s.now().UTC().Format(time.RFC3339))
}

// ActiveAttribution returns the captured code if it is still within the
// attribution window. Expired or unreadable records are purged lazily.
func (s *attributionService) ActiveAttribution() (string, bool) {
	code, ok := s.local.Get(store.KeyAffiliateCode)
	if !ok || code == "" {
		return "", false
	}

	raw, ok := s.local.Get(store.KeyAffiliateTimestamp)
	if !ok {
		s.purge()
		return "", false
	}
	captured, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.log.Warn("unreadable attribution timestamp, purging", zap.String("value", raw))
		s.purge()
		return "", false
	}

	if s.now().Sub(captured) >= AttributionWindow {
		s.purge()
		return "", false
	}
	return code, true
}

// VisitorID returns the stable anonymous identifier for this client,
// generating and persisting one on first use.
func (s *attributionService) VisitorID() string {
	if id, ok := s.local.Get(store.KeyVisitorID); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	s.local.Set(store.KeyVisitorID, id)
	return id
}

func (s *attributionService) purge() {
	s.local.Delete(store.KeyAffiliateCode)
	s.local.Delete(store.KeyAffiliateTimestamp)
}
