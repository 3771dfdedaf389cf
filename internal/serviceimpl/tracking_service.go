package serviceimpl

import (
	"fmt"

	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type trackingService struct {
	DB  *gorm.DB
	log *zap.Logger
}

var _ service.TrackingService = &trackingService{}

func NewTrackingService(db *gorm.DB, log *zap.Logger) *trackingService {
	return &trackingService{DB: db, log: log.Named("tracking")}
}

func (s *trackingService) RecordVisit(affiliateID uint, meta models.VisitMeta) (*models.TrackingEvent, error) {
	event, err := models.NewVisitEvent(affiliateID, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode visit metadata: %w", err)
	}
	return s.append(event)
}

func (s *trackingService) RecordSignup(affiliateID uint, meta models.SignupMeta) (*models.TrackingEvent, error) {
	event, err := models.NewSignupEvent(affiliateID, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signup metadata: %w", err)
	}
	return s.append(event)
}

func (s *trackingService) RecordBooking(affiliateID uint, meta models.BookingMeta) (*models.TrackingEvent, error) {
	event, err := models.NewBookingEvent(affiliateID, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking metadata: %w", err)
	}
	return s.append(event)
}

func (s *trackingService) append(event *models.TrackingEvent) (*models.TrackingEvent, error) {
	if err := s.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to append tracking event: %w", err)
	}
	return event, nil
}

func (s *trackingService) GetEvents(req request.GetTrackingEventsRequest) ([]models.TrackingEvent, int64, error) {
	var events []models.TrackingEvent
	var count int64

	query := s.DB.Model(&models.TrackingEvent{})
	query = request.ApplyGetTrackingEventsRequest(req, query)

	countQuery := query
	if err := countQuery.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tracking events: %w", err)
	}

	query = request.ApplyPaginationConditions(query, req.PaginationConditions)

	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tracking events: %w", err)
	}

	return events, count, nil
}

func (s *trackingService) CountEvents(req request.GetTrackingEventsRequest) (int64, error) {
	var count int64
	query := s.DB.Model(&models.TrackingEvent{})
	query = request.ApplyGetTrackingEventsRequest(req, query)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tracking events: %w", err)
	}
	return count, nil
}
