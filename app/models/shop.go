package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is a seller profile. State is the accepting-orders flag: while it is
// false the shop's orders are hidden from the partner listing.
type Shop struct {
	ID         string  `gorm:"size:36;not null;uniqueIndex;primary_key"`
	Name       string  `gorm:"size:50;not null"`
	URL        string  `gorm:"size:255"`
	ClientID   *string `gorm:"size:36;uniqueIndex"`
	Client     *Client `gorm:"foreignKey:ClientID"`
	State      bool    `gorm:"default:true;not null"`
	Categories []Category `gorm:"many2many:shop_categories;"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *Shop) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return
}
