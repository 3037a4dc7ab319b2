package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Listing is one shop's priced, quantified instance of a product.
// ExternalID is the seller's own SKU id from the pricelist feed; a seller
// cannot list the same (product, external id) pair twice.
type Listing struct {
	ID               string          `gorm:"size:36;not null;uniqueIndex;primary_key"`
	ProductID        string          `gorm:"size:36;not null;uniqueIndex:idx_listing_product_shop_sku"`
	Product          Product         `gorm:"foreignKey:ProductID"`
	ShopID           string          `gorm:"size:36;not null;index;uniqueIndex:idx_listing_product_shop_sku"`
	Shop             Shop            `gorm:"foreignKey:ShopID"`
	ExternalID       int             `gorm:"not null;uniqueIndex:idx_listing_product_shop_sku"`
	Model            string          `gorm:"size:80"`
	Quantity         int             `gorm:"not null"`
	Price            decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	RecommendedPrice decimal.Decimal `gorm:"type:decimal(16,2);not null"`
	Attributes       []ListingAttribute
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l *Listing) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return
}
