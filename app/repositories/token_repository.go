package repositories

import (
	"context"
	"errors"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

type TokenRepository interface {
	// Replace invalidates any existing token for the client and issues a
	// fresh one.
	Replace(ctx context.Context, clientID string) (*models.ConfirmEmailToken, error)
	FindByClientID(ctx context.Context, clientID string) (*models.ConfirmEmailToken, error)
	DeleteByClientID(ctx context.Context, tx *gorm.DB, clientID string) error
}

type gormTokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &gormTokenRepository{db: db}
}

func (r *gormTokenRepository) Replace(ctx context.Context, clientID string) (*models.ConfirmEmailToken, error) {
	token := models.ConfirmEmailToken{ClientID: clientID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", clientID).Delete(&models.ConfirmEmailToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *gormTokenRepository) FindByClientID(ctx context.Context, clientID string) (*models.ConfirmEmailToken, error) {
	var token models.ConfirmEmailToken
	err := r.db.WithContext(ctx).First(&token, "client_id = ?", clientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *gormTokenRepository) DeleteByClientID(ctx context.Context, tx *gorm.DB, clientID string) error {
	return tx.WithContext(ctx).Where("client_id = ?", clientID).Delete(&models.ConfirmEmailToken{}).Error
}
