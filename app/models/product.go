package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product carries only name and category. (name, category) is the natural
// dedup key: the importer finds-or-creates on it instead of duplicating.
type Product struct {
	ID         string   `gorm:"size:36;not null;uniqueIndex;primary_key"`
	Name       string   `gorm:"size:80;not null;uniqueIndex:idx_product_name_category"`
	CategoryID string   `gorm:"size:36;not null;uniqueIndex:idx_product_name_category"`
	Category   Category `gorm:"foreignKey:CategoryID"`
	Listings   []Listing
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
