package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attribute is a parameter name (e.g. "Color") shared across listings.
type Attribute struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	Name      string `gorm:"size:40;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Attribute) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

// ListingAttribute holds one attribute value scoped to one listing.
type ListingAttribute struct {
	ID          string    `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ListingID   string    `gorm:"size:36;not null;uniqueIndex:idx_listing_attribute"`
	AttributeID string    `gorm:"size:36;not null;uniqueIndex:idx_listing_attribute"`
	Attribute   Attribute `gorm:"foreignKey:AttributeID"`
	Value       string    `gorm:"size:100;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (la *ListingAttribute) BeforeCreate(tx *gorm.DB) (err error) {
	if la.ID == "" {
		la.ID = uuid.New().String()
	}
	return
}
