package request

import "gorm.io/gorm"

type CreateLinkRequest struct {
	UserRef       string  `json:"userRef"`
	LandingPage   string  `json:"landingPage"`
	PreferredCode *string `json:"preferredCode"`
}

type GetLinksRequest struct {
	ID                   *uint                `form:"id"`
	UserID               *uint                `form:"userID"`
	Code                 *string              `form:"code"`
	Active               *bool                `form:"active"`
	PaginationConditions PaginationConditions `form:"paginationConditions"`
}

func ApplyGetLinksRequest(req GetLinksRequest, query *gorm.DB) *gorm.DB {
	if req.ID != nil {
		query = query.Where("id = ?", *req.ID)
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}
	if req.Code != nil {
		query = query.Where("code = ?", *req.Code)
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	return query
}
