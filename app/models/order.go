package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StateBasket    = "basket"
	StateNew       = "new"
	StateConfirmed = "confirmed"
	StateAssembled = "assembled"
	StateSent      = "sent"
	StateDelivered = "delivered"
	StateCanceled  = "canceled"
)

// OrderStates lists every lifecycle state in forward order, terminal states
// last.
var OrderStates = []string{
	StateBasket, StateNew, StateConfirmed, StateAssembled,
	StateSent, StateDelivered, StateCanceled,
}

func KnownState(state string) bool {
	for _, s := range OrderStates {
		if s == state {
			return true
		}
	}
	return false
}

func TerminalState(state string) bool {
	return state == StateDelivered || state == StateCanceled
}

// Order doubles as the basket: an order in state "basket" is the buyer's
// mutable cart. BasketOwner is set to the buyer id only while the order sits
// in that state, so the unique index makes the one-basket-per-buyer rule a
// storage constraint instead of a convention (MySQL has no partial unique
// indexes).
type Order struct {
	ID          string  `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ClientID    string  `gorm:"size:36;not null;index"`
	Client      Client  `gorm:"foreignKey:ClientID"`
	State       string  `gorm:"size:15;not null;index"`
	ContactID   *string `gorm:"size:36"`
	Contact     *Contact `gorm:"foreignKey:ContactID"`
	BasketOwner *string `gorm:"size:36;uniqueIndex"`
	Lines       []OrderLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return
}
