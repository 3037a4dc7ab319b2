package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/services"
	"gorm.io/gorm"
)

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }

var demoFeed = &services.PriceFeed{
	Categories: []services.FeedCategory{
		{ID: 224, Name: "Phones"},
		{ID: 15, Name: "Accessories"},
	},
	Goods: []services.FeedItem{
		{
			ID: 4216292, Category: 224, Name: "iPhone SE", Model: "apple/iphone/se",
			Price: int64p(42000), PriceRRC: int64p(44990), Quantity: intp(10),
			Parameters: map[string]any{"Color": "black", "Memory (GB)": 64},
		},
		{
			ID: 4216313, Category: 224, Name: "Galaxy A54", Model: "samsung/galaxy/a54",
			Price: int64p(31000), PriceRRC: int64p(33490), Quantity: intp(7),
			Parameters: map[string]any{"Color": "silver", "Memory (GB)": 128},
		},
		{
			ID: 9170, Category: 15, Name: "USB-C cable 1m", Model: "generic/cable/usbc",
			Price: int64p(400), PriceRRC: int64p(590), Quantity: intp(120),
		},
	},
}

// DBSeed creates a demo buyer with a contact, a seller with an open shop,
// and pushes a small feed through the real import pipeline so the seeded
// catalog went through the same validation as a production upload.
func DBSeed(ctx context.Context, db *gorm.DB) error {
	buyer := &models.Client{
		FirstName: "Dana",
		LastName:  "Buyer",
		Username:  "dana",
		Email:     "buyer@example.com",
		Password:  helpers.HashPassword("password123"),
		Type:      models.ClientTypeBuyer,
		Active:    true,
	}
	seller := &models.Client{
		FirstName: "Sam",
		LastName:  "Seller",
		Username:  "sam",
		Email:     "seller@example.com",
		Password:  helpers.HashPassword("password123"),
		Type:      models.ClientTypeShop,
		Active:    true,
	}
	if err := db.WithContext(ctx).Create(buyer).Error; err != nil {
		return fmt.Errorf("failed to seed buyer: %w", err)
	}
	if err := db.WithContext(ctx).Create(seller).Error; err != nil {
		return fmt.Errorf("failed to seed seller: %w", err)
	}

	contact := &models.Contact{
		ClientID: buyer.ID,
		City:     "Springfield",
		Street:   "Evergreen Terrace",
		House:    "742",
		Phone:    "+1-555-0100",
	}
	if err := db.WithContext(ctx).Create(contact).Error; err != nil {
		return fmt.Errorf("failed to seed contact: %w", err)
	}

	shop := &models.Shop{
		Name:     "Demo Electronics",
		URL:      "https://demo-electronics.example.com",
		ClientID: &seller.ID,
		State:    true,
	}
	if err := db.WithContext(ctx).Create(shop).Error; err != nil {
		return fmt.Errorf("failed to seed shop: %w", err)
	}

	bus := notifications.NewChannelBus(notifications.LogSink{}, 16)
	bus.Start()
	defer bus.Close()

	importer := services.NewImportService(
		db,
		repositories.NewCatalogRepository(db),
		repositories.NewShopRepository(db),
		bus,
	)
	summary, err := importer.ImportCatalog(ctx, shop.ID, demoFeed)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Printf("seeded shop %s with %d listings in %d categories", shop.Name, summary.Listings, summary.Categories)
	return nil
}
