package migration

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/starloop/go-affiliate/models"
	"gorm.io/gorm"
)

var Initialise = &gormigrate.Migration{
	ID: "202608251102-ga-118203",
	Migrate: func(db *gorm.DB) error {
		return db.AutoMigrate(
			&models.User{},
			&models.AffiliateLink{},
			&models.TrackingEvent{},
			&models.Commission{},
			&models.Payout{},
			&models.Setting{},
		)
	},
	Rollback: func(db *gorm.DB) error {
		return db.Migrator().DropTable(
			&models.User{},
			&models.AffiliateLink{},
			&models.TrackingEvent{},
			&models.Commission{},
			&models.Payout{},
			&models.Setting{},
		)
	},
}
