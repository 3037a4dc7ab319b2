package repositories

import (
	"context"
	"errors"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, id string) (*models.Client, error)
	FindByEmail(ctx context.Context, email string) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	UpdatePassword(ctx context.Context, clientID, hashedPassword string) error
	SetActive(ctx context.Context, clientID string, active bool) error
	Delete(ctx context.Context, tx *gorm.DB, clientID string) error
}

type gormClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &gormClientRepository{db: db}
}

func (r *gormClientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *gormClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Preload("Contacts").First(&client, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *gormClientRepository) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).First(&client, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *gormClientRepository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *gormClientRepository) UpdatePassword(ctx context.Context, clientID, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).Update("password", hashedPassword).Error
}

func (r *gormClientRepository) SetActive(ctx context.Context, clientID string, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).Update("active", active).Error
}

func (r *gormClientRepository) Delete(ctx context.Context, tx *gorm.DB, clientID string) error {
	return tx.WithContext(ctx).Delete(&models.Client{}, "id = ?", clientID).Error
}
