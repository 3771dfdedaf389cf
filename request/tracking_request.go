package request

import "gorm.io/gorm"

type GetTrackingEventsRequest struct {
	ID                   *uint                `form:"id"`
	AffiliateID          *uint                `form:"affiliateID"`
	EventType            *string              `form:"eventType"`
	VisitorID            *string              `form:"visitorID"`
	PaginationConditions PaginationConditions `form:"paginationConditions"`
}

func ApplyGetTrackingEventsRequest(req GetTrackingEventsRequest, query *gorm.DB) *gorm.DB {
	if req.ID != nil {
		query = query.Where("id = ?", *req.ID)
	}
	if req.AffiliateID != nil {
		query = query.Where("affiliate_id = ?", *req.AffiliateID)
	}
	if req.EventType != nil {
		query = query.Where("event_type = ?", *req.EventType)
	}
	if req.VisitorID != nil {
		query = query.Where("visitor_id = ?", *req.VisitorID)
	}
	return query
}
