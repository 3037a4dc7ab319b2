package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is shared across shops: the importer upserts by the feed's numeric
// id (ExternalID) and only attaches the row to the uploading shop.
type Category struct {
	ID         string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ExternalID int    `gorm:"not null;uniqueIndex"`
	Name       string `gorm:"size:40;not null"`
	Shops      []Shop `gorm:"many2many:shop_categories;"`
	Products   []Product
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
