package repositories

import (
	"context"
	"errors"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

type OrderRepository interface {
	GetOrCreateBasket(ctx context.Context, tx *gorm.DB, clientID string) (*models.Order, error)
	FindBasketWithLines(ctx context.Context, clientID string) (*models.Order, error)
	CheckoutBasket(ctx context.Context, basketID, contactID string) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Order, error)
	ListByShop(ctx context.Context, shopID string) ([]models.Order, error)
	UpdateState(ctx context.Context, orderID, fromState, toState string) (int64, error)
	DeleteByClient(ctx context.Context, tx *gorm.DB, clientID string) error
}

type gormOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

// GetOrCreateBasket returns the buyer's singleton basket, creating it when
// absent. A concurrent create loses on the basket_owner unique index and
// comes back as gorm.ErrDuplicatedKey for the caller to retry.
func (r *gormOrderRepository) GetOrCreateBasket(ctx context.Context, tx *gorm.DB, clientID string) (*models.Order, error) {
	owner := clientID
	basket := models.Order{
		ClientID:    clientID,
		State:       models.StateBasket,
		BasketOwner: &owner,
	}
	err := tx.WithContext(ctx).
		Where("basket_owner = ?", clientID).
		FirstOrCreate(&basket).Error
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

func (r *gormOrderRepository) FindBasketWithLines(ctx context.Context, clientID string) (*models.Order, error) {
	var basket models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines.Listing.Product.Category").
		Preload("Lines.Listing.Attributes.Attribute").
		First(&basket, "basket_owner = ?", clientID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &basket, nil
}

// CheckoutBasket is the compare-and-set that turns the basket into an order:
// exactly one of two racing checkouts can match state='basket'. The returned
// count is the number of rows moved (0 or 1).
func (r *gormOrderRepository) CheckoutBasket(ctx context.Context, basketID, contactID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND state = ?", basketID, models.StateBasket).
		Updates(map[string]interface{}{
			"state":        models.StateNew,
			"contact_id":   contactID,
			"basket_owner": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *gormOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Lines.Listing").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) ListByClient(ctx context.Context, clientID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines.Listing.Product.Category").
		Preload("Lines.Listing.Attributes.Attribute").
		Preload("Contact").
		Where("client_id = ? AND state <> ?", clientID, models.StateBasket).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *gormOrderRepository) ListByShop(ctx context.Context, shopID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Distinct("orders.*").
		Joins("JOIN order_lines ON order_lines.order_id = orders.id").
		Joins("JOIN listings ON listings.id = order_lines.listing_id").
		Where("listings.shop_id = ?", shopID).
		Where("orders.state <> ?", models.StateBasket).
		Preload("Lines.Listing.Product.Category").
		Preload("Lines.Listing.Attributes.Attribute").
		Preload("Contact").
		Order("orders.created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateState is guarded by the current state so concurrent transitions
// cannot overwrite each other unnoticed.
func (r *gormOrderRepository) UpdateState(ctx context.Context, orderID, fromState, toState string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND state = ?", orderID, fromState).
		Update("state", toState)
	return res.RowsAffected, res.Error
}

func (r *gormOrderRepository) DeleteByClient(ctx context.Context, tx *gorm.DB, clientID string) error {
	err := tx.WithContext(ctx).
		Where("order_id IN (?)", tx.Model(&models.Order{}).Select("id").Where("client_id = ?", clientID)).
		Delete(&models.OrderLine{}).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("client_id = ?", clientID).Delete(&models.Order{}).Error
}
