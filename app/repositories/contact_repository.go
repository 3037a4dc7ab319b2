package repositories

import (
	"context"
	"errors"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Upsert(ctx context.Context, contact *models.Contact) error
	FindByClientID(ctx context.Context, clientID string) (*models.Contact, error)
	DeleteByClientID(ctx context.Context, tx *gorm.DB, clientID string) error
}

type gormContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &gormContactRepository{db: db}
}

// Upsert keeps the one-contact-per-buyer rule: an existing record is
// overwritten in place.
func (r *gormContactRepository) Upsert(ctx context.Context, contact *models.Contact) error {
	var existing models.Contact
	err := r.db.WithContext(ctx).First(&existing, "client_id = ?", contact.ClientID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return r.db.WithContext(ctx).Create(contact).Error
	}
	contact.ID = existing.ID
	contact.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *gormContactRepository) FindByClientID(ctx context.Context, clientID string) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).First(&contact, "client_id = ?", clientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contact, nil
}

func (r *gormContactRepository) DeleteByClientID(ctx context.Context, tx *gorm.DB, clientID string) error {
	return tx.WithContext(ctx).Where("client_id = ?", clientID).Delete(&models.Contact{}).Error
}
