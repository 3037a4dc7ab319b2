package migrations

import (
	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Client{},
		&models.Shop{},
		&models.Category{},
		&models.Product{},
		&models.Listing{},
		&models.Attribute{},
		&models.ListingAttribute{},
		&models.Contact{},
		&models.Order{},
		&models.OrderLine{},
		&models.ConfirmEmailToken{},
	)
}
