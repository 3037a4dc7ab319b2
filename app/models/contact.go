package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a buyer's delivery address. A buyer keeps at most one active
// contact record; checkout consumes it.
type Contact struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ClientID  string `gorm:"size:36;not null;uniqueIndex"`
	City      string `gorm:"size:50"`
	Street    string `gorm:"size:100"`
	House     string `gorm:"size:15"`
	Structure string `gorm:"size:15"`
	Building  string `gorm:"size:15"`
	Apartment string `gorm:"size:15"`
	Phone     string `gorm:"size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
