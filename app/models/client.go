package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ClientTypeBuyer = "buyer"
	ClientTypeShop  = "shop"
)

type Client struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	FirstName string `gorm:"size:50;not null"`
	LastName  string `gorm:"size:50;not null"`
	Username  string `gorm:"size:50;not null;uniqueIndex"`
	Email     string `gorm:"size:100;not null;uniqueIndex"`
	Password  string `gorm:"size:100"`
	Company   string `gorm:"size:40"`
	Position  string `gorm:"size:40"`
	Active    bool   `gorm:"default:false"`
	Type      string `gorm:"size:5;default:'buyer';not null"`
	Contacts  []Contact
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
