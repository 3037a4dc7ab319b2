package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceFeed is the seller-submitted pricelist document. Numeric fields that
// must be present are pointers so a missing key is distinguishable from an
// explicit zero.
type PriceFeed struct {
	Categories []FeedCategory `json:"categories" validate:"required,min=1,dive"`
	Goods      []FeedItem     `json:"goods" validate:"dive"`
}

type FeedCategory struct {
	ID   int    `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required"`
}

type FeedItem struct {
	ID         int            `json:"id" validate:"required,gt=0"`
	Category   int            `json:"category" validate:"required,gt=0"`
	Name       string         `json:"name" validate:"required"`
	Model      string         `json:"model"`
	Price      *int64         `json:"price" validate:"required,gte=0"`
	PriceRRC   *int64         `json:"price_rrc" validate:"required,gte=0"`
	Quantity   *int           `json:"quantity" validate:"required,gte=0"`
	Parameters map[string]any `json:"parameters"`
}

type ImportSummary struct {
	ShopID     string    `json:"shop_id"`
	Categories int       `json:"categories"`
	Listings   int       `json:"listings"`
	Attributes int       `json:"attributes"`
	LoadedAt   time.Time `json:"loaded_at"`
}

type ImportService struct {
	db          *gorm.DB
	catalogRepo repositories.CatalogRepository
	shopRepo    repositories.ShopRepository
	bus         notifications.Bus
	validate    *validator.Validate
}

func NewImportService(
	db *gorm.DB,
	catalogRepo repositories.CatalogRepository,
	shopRepo repositories.ShopRepository,
	bus notifications.Bus,
) *ImportService {
	return &ImportService{
		db:          db,
		catalogRepo: catalogRepo,
		shopRepo:    shopRepo,
		bus:         bus,
		// On pointer fields "required" means the key was present; a zero
		// price or quantity is legal, a missing one is not.
		validate: validator.New(),
	}
}

// ImportCatalog atomically replaces the shop's listings with the feed's
// contents: either every category, listing and attribute lands, or the
// catalog stays exactly as it was. The outcome is also queued as a
// CatalogImported event for the seller.
func (s *ImportService) ImportCatalog(ctx context.Context, shopID string, feed *PriceFeed) (*ImportSummary, error) {
	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}

	if err := s.validateFeed(feed); err != nil {
		s.notifyOutcome(shop, nil, err)
		return nil, err
	}

	summary := &ImportSummary{ShopID: shopID, LoadedAt: time.Now()}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := make(map[int]*models.Category, len(feed.Categories))
		for i, fc := range feed.Categories {
			category, err := s.catalogRepo.UpsertCategory(ctx, tx, fc.ID, fc.Name)
			if err != nil {
				return fmt.Errorf("categories[%d] (id=%d): %w", i, fc.ID, err)
			}
			if err := s.catalogRepo.AttachCategoryToShop(ctx, tx, category, shopID); err != nil {
				return fmt.Errorf("categories[%d] (id=%d): %w", i, fc.ID, err)
			}
			categories[fc.ID] = category
			summary.Categories++
		}

		// A pricelist upload is authoritative: wipe and recreate.
		if err := s.catalogRepo.DeleteShopListings(ctx, tx, shopID); err != nil {
			return fmt.Errorf("failed to clear previous listings: %w", err)
		}

		for i, item := range feed.Goods {
			category := categories[item.Category]
			product, err := s.catalogRepo.FindOrCreateProduct(ctx, tx, item.Name, category.ID)
			if err != nil {
				return fmt.Errorf("goods[%d] (id=%d): %w", i, item.ID, err)
			}

			listing := &models.Listing{
				ProductID:        product.ID,
				ShopID:           shopID,
				ExternalID:       item.ID,
				Model:            item.Model,
				Quantity:         *item.Quantity,
				Price:            decimal.NewFromInt(*item.Price),
				RecommendedPrice: decimal.NewFromInt(*item.PriceRRC),
			}
			if err := s.catalogRepo.CreateListing(ctx, tx, listing); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("goods[%d] (id=%d): duplicate listing for this shop: %w", i, item.ID, ErrConflict)
				}
				return fmt.Errorf("goods[%d] (id=%d): %w", i, item.ID, err)
			}
			summary.Listings++

			for name, raw := range item.Parameters {
				value, _ := coerceParamValue(raw)
				attribute, err := s.catalogRepo.FindOrCreateAttribute(ctx, tx, name)
				if err != nil {
					return fmt.Errorf("goods[%d] parameter %q: %w", i, name, err)
				}
				la := &models.ListingAttribute{
					ListingID:   listing.ID,
					AttributeID: attribute.ID,
					Value:       value,
				}
				if err := s.catalogRepo.CreateListingAttribute(ctx, tx, la); err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return fmt.Errorf("goods[%d] parameter %q: duplicate attribute for listing: %w", i, name, ErrConflict)
					}
					return fmt.Errorf("goods[%d] parameter %q: %w", i, name, err)
				}
				summary.Attributes++
			}
		}
		return nil
	})

	if err != nil {
		s.notifyOutcome(shop, nil, err)
		return nil, err
	}

	s.notifyOutcome(shop, summary, nil)
	return summary, nil
}

// validateFeed checks the whole document before any write: one malformed
// category or item rejects the entire import.
func (s *ImportService) validateFeed(feed *PriceFeed) error {
	if feed == nil {
		return NewValidationError("feed", "empty document")
	}
	if err := s.validate.Struct(feed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return NewValidationError(first.Namespace(), "failed %q check", first.Tag())
		}
		return NewValidationError("feed", "%v", err)
	}

	categoryIDs := make(map[int]bool, len(feed.Categories))
	for i, fc := range feed.Categories {
		if categoryIDs[fc.ID] {
			return NewValidationError(fmt.Sprintf("categories[%d]", i), "duplicate category id %d", fc.ID)
		}
		categoryIDs[fc.ID] = true
	}

	seenListings := make(map[string]bool, len(feed.Goods))
	for i, item := range feed.Goods {
		if !categoryIDs[item.Category] {
			return NewValidationError(fmt.Sprintf("goods[%d]", i), "unknown category %d", item.Category)
		}
		key := fmt.Sprintf("%d|%s|%d", item.Category, item.Name, item.ID)
		if seenListings[key] {
			return NewValidationError(fmt.Sprintf("goods[%d]", i), "duplicate listing (name=%q, id=%d)", item.Name, item.ID)
		}
		seenListings[key] = true

		for name, raw := range item.Parameters {
			if name == "" {
				return NewValidationError(fmt.Sprintf("goods[%d].parameters", i), "empty attribute name")
			}
			value, err := coerceParamValue(raw)
			if err != nil {
				return NewValidationError(fmt.Sprintf("goods[%d].parameters[%s]", i, name), "%v", err)
			}
			if value == "" {
				return NewValidationError(fmt.Sprintf("goods[%d].parameters[%s]", i, name), "empty attribute value")
			}
		}
	}
	return nil
}

// coerceParamValue accepts the string-or-number values the feed allows and
// stores everything as text.
func coerceParamValue(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("value must be a string or a number, got %T", raw)
	}
}

func (s *ImportService) notifyOutcome(shop *models.Shop, summary *ImportSummary, importErr error) {
	if shop.Client == nil || shop.Client.Email == "" {
		return
	}
	payload := notifications.CatalogImportedPayload{
		SellerEmail: shop.Client.Email,
		LoadedAt:    time.Now(),
	}
	if summary != nil {
		payload.Categories = summary.Categories
		payload.Listings = summary.Listings
		payload.Attributes = summary.Attributes
		payload.LoadedAt = summary.LoadedAt
	}
	if importErr != nil {
		payload.Error = importErr.Error()
	}
	s.bus.Publish(notifications.NewEvent(notifications.EventCatalogImported, shop.Client.Email, payload))
}
