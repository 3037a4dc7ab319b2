package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmEmailTokenTTL is how long a verification key stays valid.
const ConfirmEmailTokenTTL = 24 * time.Hour

// ConfirmEmailToken is the single active email-verification token for a
// client. Reissuing deletes the previous row first, so the unique ClientID
// index holds.
type ConfirmEmailToken struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ClientID  string `gorm:"size:36;not null;uniqueIndex"`
	Key       string `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time
}

func (t *ConfirmEmailToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Key == "" {
		t.Key, err = generateTokenKey()
	}
	return
}

func (t *ConfirmEmailToken) Expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) > ConfirmEmailTokenTTL
}

func generateTokenKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
