package serviceimpl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/starloop/go-affiliate/models"
	"github.com/starloop/go-affiliate/request"
	"github.com/starloop/go-affiliate/service"
	"github.com/starloop/go-affiliate/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type linkService struct {
	DB  *gorm.DB
	log *zap.Logger
}

var _ service.LinkService = &linkService{}

func NewLinkService(db *gorm.DB, log *zap.Logger) *linkService {
	return &linkService{DB: db, log: log.Named("links")}
}

// CreateLink issues the user's referral code. Opting in twice returns the
// existing link unchanged; codes are immutable once issued.
func (s *linkService) CreateLink(req request.CreateLinkRequest) (*models.AffiliateLink, error) {
	if req.UserRef == "" {
		return nil, fmt.Errorf("user reference is required")
	}

	var link *models.AffiliateLink
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		user, err := ensureUser(tx, req.UserRef)
		if err != nil {
			return err
		}

		var existing models.AffiliateLink
		err = tx.Where("user_id = ?", user.ID).First(&existing).Error
		if err == nil {
			link = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to fetch existing link: %w", err)
		}

		code := ""
		if req.PreferredCode != nil && *req.PreferredCode != "" {
			code = *req.PreferredCode
		} else {
			code, err = utils.CreateReferralCode(7)
			if err != nil {
				return fmt.Errorf("failed to generate referral code: %w", err)
			}
		}

		link = &models.AffiliateLink{
			UserID:      user.ID,
			Code:        code,
			LandingPage: req.LandingPage,
			Active:      true,
		}
		if err := tx.Create(link).Error; err != nil {
			if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
				return fmt.Errorf("%w: %q", service.ErrCodeTaken, code)
			}
			return fmt.Errorf("failed to create affiliate link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.DB.Preload("User").First(link, link.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload affiliate link: %w", err)
	}
	return link, nil
}

// ResolveCode returns the link for a referral code, active or not.
func (s *linkService) ResolveCode(code string) (*models.AffiliateLink, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", service.ErrLinkNotFound)
	}
	var link models.AffiliateLink
	if err := s.DB.Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", service.ErrLinkNotFound, code)
		}
		return nil, fmt.Errorf("failed to resolve code %q: %w", code, err)
	}
	return &link, nil
}

func (s *linkService) UpdateLinkStatus(code string, active bool) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("code = ?", code).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", service.ErrLinkNotFound, code)
			}
			return fmt.Errorf("failed to fetch link %q: %w", code, err)
		}
		link.Active = active
		return tx.Save(&link).Error
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *linkService) GetLinks(req request.GetLinksRequest) ([]models.AffiliateLink, int64, error) {
	var links []models.AffiliateLink
	var count int64

	query := s.DB.Model(&models.AffiliateLink{})
	query = request.ApplyGetLinksRequest(req, query)

	countQuery := query
	if err := countQuery.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	query = request.ApplyPaginationConditions(query, req.PaginationConditions)

	if err := query.Preload("User").Find(&links).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch links: %w", err)
	}

	return links, count, nil
}
