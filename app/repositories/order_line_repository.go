package repositories

import (
	"context"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

type OrderLineRepository interface {
	UpsertLine(ctx context.Context, tx *gorm.DB, orderID, listingID string, quantity int) (created bool, err error)
	RemoveLines(ctx context.Context, tx *gorm.DB, orderID string, listingIDs []string) (int64, error)
}

type gormOrderLineRepository struct {
	db *gorm.DB
}

func NewOrderLineRepository(db *gorm.DB) OrderLineRepository {
	return &gormOrderLineRepository{db: db}
}

// UpsertLine overwrites the quantity of an existing line or inserts a fresh
// one. An insert racing another request trips the (order, listing) unique
// index and returns gorm.ErrDuplicatedKey; the service retries the update.
func (r *gormOrderLineRepository) UpsertLine(ctx context.Context, tx *gorm.DB, orderID, listingID string, quantity int) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("order_id = ? AND listing_id = ?", orderID, listingID).
		Update("quantity", quantity)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	line := models.OrderLine{
		OrderID:   orderID,
		ListingID: listingID,
		Quantity:  quantity,
	}
	if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *gormOrderLineRepository) RemoveLines(ctx context.Context, tx *gorm.DB, orderID string, listingIDs []string) (int64, error) {
	if len(listingIDs) == 0 {
		return 0, nil
	}
	res := tx.WithContext(ctx).
		Where("order_id = ? AND listing_id IN ?", orderID, listingIDs).
		Delete(&models.OrderLine{})
	return res.RowsAffected, res.Error
}
