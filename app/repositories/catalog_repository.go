package repositories

import (
	"context"
	"errors"

	"github.com/pinocoladium/marketplace/app/models"
	"gorm.io/gorm"
)

// CatalogRepository covers categories, products, listings and attributes.
// The mutating methods take the transaction handle so the importer can run
// the whole catalog replace inside one atomic unit.
type CatalogRepository interface {
	UpsertCategory(ctx context.Context, tx *gorm.DB, externalID int, name string) (*models.Category, error)
	AttachCategoryToShop(ctx context.Context, tx *gorm.DB, category *models.Category, shopID string) error
	FindCategoryByExternalID(ctx context.Context, tx *gorm.DB, externalID int) (*models.Category, error)

	FindOrCreateProduct(ctx context.Context, tx *gorm.DB, name, categoryID string) (*models.Product, error)
	CreateListing(ctx context.Context, tx *gorm.DB, listing *models.Listing) error
	DeleteShopListings(ctx context.Context, tx *gorm.DB, shopID string) error

	FindOrCreateAttribute(ctx context.Context, tx *gorm.DB, name string) (*models.Attribute, error)
	CreateListingAttribute(ctx context.Context, tx *gorm.DB, attr *models.ListingAttribute) error

	FindListingByID(ctx context.Context, id string) (*models.Listing, error)
	ListShopListings(ctx context.Context, shopID string) ([]models.Listing, error)
	CountShopListings(ctx context.Context, shopID string) (int64, error)
	SearchProducts(ctx context.Context, query string, limit, offset int) ([]models.Product, error)
}

type gormCatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

func (r *gormCatalogRepository) UpsertCategory(ctx context.Context, tx *gorm.DB, externalID int, name string) (*models.Category, error) {
	var category models.Category
	err := tx.WithContext(ctx).First(&category, "external_id = ?", externalID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		category = models.Category{ExternalID: externalID, Name: name}
		if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
			return nil, err
		}
		return &category, nil
	}
	if category.Name != name {
		category.Name = name
		if err := tx.WithContext(ctx).Save(&category).Error; err != nil {
			return nil, err
		}
	}
	return &category, nil
}

func (r *gormCatalogRepository) AttachCategoryToShop(ctx context.Context, tx *gorm.DB, category *models.Category, shopID string) error {
	return tx.WithContext(ctx).Model(category).Association("Shops").Append(&models.Shop{ID: shopID})
}

func (r *gormCatalogRepository) FindCategoryByExternalID(ctx context.Context, tx *gorm.DB, externalID int) (*models.Category, error) {
	var category models.Category
	err := tx.WithContext(ctx).First(&category, "external_id = ?", externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *gormCatalogRepository) FindOrCreateProduct(ctx context.Context, tx *gorm.DB, name, categoryID string) (*models.Product, error) {
	var product models.Product
	err := tx.WithContext(ctx).
		Where("name = ? AND category_id = ?", name, categoryID).
		FirstOrCreate(&product, models.Product{Name: name, CategoryID: categoryID}).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *gormCatalogRepository) CreateListing(ctx context.Context, tx *gorm.DB, listing *models.Listing) error {
	return tx.WithContext(ctx).Create(listing).Error
}

// DeleteShopListings removes every listing of the shop together with the
// attribute rows hanging off them. Explicit deletes instead of FK cascades
// keep the behavior identical across storage engines.
func (r *gormCatalogRepository) DeleteShopListings(ctx context.Context, tx *gorm.DB, shopID string) error {
	err := tx.WithContext(ctx).
		Where("listing_id IN (?)", tx.Model(&models.Listing{}).Select("id").Where("shop_id = ?", shopID)).
		Delete(&models.ListingAttribute{}).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&models.Listing{}).Error
}

func (r *gormCatalogRepository) FindOrCreateAttribute(ctx context.Context, tx *gorm.DB, name string) (*models.Attribute, error) {
	var attribute models.Attribute
	err := tx.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&attribute, models.Attribute{Name: name}).Error
	if err != nil {
		return nil, err
	}
	return &attribute, nil
}

func (r *gormCatalogRepository) CreateListingAttribute(ctx context.Context, tx *gorm.DB, attr *models.ListingAttribute) error {
	return tx.WithContext(ctx).Create(attr).Error
}

func (r *gormCatalogRepository) FindListingByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *gormCatalogRepository) ListShopListings(ctx context.Context, shopID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Preload("Product.Category").
		Preload("Attributes.Attribute").
		Where("shop_id = ?", shopID).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *gormCatalogRepository) CountShopListings(ctx context.Context, shopID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error
	return count, err
}

func (r *gormCatalogRepository) SearchProducts(ctx context.Context, query string, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Preload("Category")
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Joins("LEFT JOIN listings ON listings.product_id = products.id").
			Where("products.name LIKE ? OR listings.model LIKE ?", pattern, pattern).
			Distinct("products.*")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
