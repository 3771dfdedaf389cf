package request

import "gorm.io/gorm"

type GetCommissionsRequest struct {
	ID                   *uint                `form:"id"`
	AffiliateID          *uint                `form:"affiliateID"`
	ReferredUserID       *uint                `form:"referredUserID"`
	RequestID            *string              `form:"requestID"`
	CommissionType       *string              `form:"commissionType"`
	Status               *string              `form:"status"`
	Statuses             []string             `form:"statuses"`
	PaginationConditions PaginationConditions `form:"paginationConditions"`
}

func ApplyGetCommissionsRequest(req GetCommissionsRequest, query *gorm.DB) *gorm.DB {
	if req.ID != nil {
		query = query.Where("id = ?", *req.ID)
	}
	if req.AffiliateID != nil {
		query = query.Where("affiliate_id = ?", *req.AffiliateID)
	}
	if req.ReferredUserID != nil {
		query = query.Where("referred_user_id = ?", *req.ReferredUserID)
	}
	if req.RequestID != nil {
		query = query.Where("request_id = ?", *req.RequestID)
	}
	if req.CommissionType != nil {
		query = query.Where("commission_type = ?", *req.CommissionType)
	}
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if len(req.Statuses) > 0 {
		query = query.Where("status IN (?)", req.Statuses)
	}
	return query
}
