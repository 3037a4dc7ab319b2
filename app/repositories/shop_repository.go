package repositories

import (
	"context"
	"errors"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

type ShopRepository interface {
	Create(ctx context.Context, shop *models.Shop) error
	FindByID(ctx context.Context, id string) (*models.Shop, error)
	FindByClientID(ctx context.Context, clientID string) (*models.Shop, error)
	Update(ctx context.Context, shop *models.Shop) error
	UpdateState(ctx context.Context, shopID string, state bool) error
}

type gormShopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &gormShopRepository{db: db}
}

func (r *gormShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *gormShopRepository) FindByID(ctx context.Context, id string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Preload("Client").First(&shop, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

func (r *gormShopRepository) FindByClientID(ctx context.Context, clientID string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Preload("Client").First(&shop, "client_id = ?", clientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}

func (r *gormShopRepository) Update(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

func (r *gormShopRepository) UpdateState(ctx context.Context, shopID string, state bool) error {
	return r.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", shopID).Update("state", state).Error
}
