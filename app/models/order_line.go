package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderLine ties one listing to one order. The composite unique index keeps
// a listing to a single line per order; re-adding overwrites the quantity.
type OrderLine struct {
	ID        string  `gorm:"size:36;not null;uniqueIndex;primary_key"`
	OrderID   string  `gorm:"size:36;not null;uniqueIndex:idx_order_listing"`
	ListingID string  `gorm:"size:36;not null;uniqueIndex:idx_order_listing"`
	Listing   Listing `gorm:"foreignKey:ListingID"`
	Quantity  int     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ol *OrderLine) BeforeCreate(tx *gorm.DB) (err error) {
	if ol.ID == "" {
		ol.ID = uuid.New().String()
	}
	return
}
