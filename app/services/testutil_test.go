package services

import (
	"sync"
	"testing"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/models/migrations"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. A single connection
// keeps the schema alive for the test's lifetime.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrations.AutoMigrate(db))
	return db
}

// captureBus records published events so tests can assert on the
// notification contract without any delivery machinery.
type captureBus struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (b *captureBus) Publish(event notifications.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *captureBus) Events() []notifications.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]notifications.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *captureBus) EventsOfType(eventType string) []notifications.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []notifications.Event
	for _, e := range b.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func createBuyer(t *testing.T, db *gorm.DB, username, email string) *models.Client {
	t.Helper()
	client := &models.Client{
		FirstName: "Test",
		LastName:  "Buyer",
		Username:  username,
		Email:     email,
		Password:  helpers.HashPassword("password123"),
		Type:      models.ClientTypeBuyer,
		Active:    true,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func createSellerWithShop(t *testing.T, db *gorm.DB, username, email string) (*models.Client, *models.Shop) {
	t.Helper()
	seller := &models.Client{
		FirstName: "Test",
		LastName:  "Seller",
		Username:  username,
		Email:     email,
		Password:  helpers.HashPassword("password123"),
		Type:      models.ClientTypeShop,
		Active:    true,
	}
	require.NoError(t, db.Create(seller).Error)

	shop := &models.Shop{
		Name:     username + " shop",
		ClientID: &seller.ID,
		State:    true,
	}
	require.NoError(t, db.Create(shop).Error)
	return seller, shop
}

func createContact(t *testing.T, db *gorm.DB, clientID string) *models.Contact {
	t.Helper()
	contact := &models.Contact{
		ClientID: clientID,
		City:     "Springfield",
		Street:   "Evergreen Terrace",
		House:    "742",
		Phone:    "+1-555-0100",
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

func ptrInt64(v int64) *int64 { return &v }
func ptrInt(v int) *int       { return &v }

func phonesFeed() *PriceFeed {
	return &PriceFeed{
		Categories: []FeedCategory{{ID: 224, Name: "Phones"}},
		Goods: []FeedItem{
			{
				ID: 4216292, Category: 224, Name: "iPhone SE", Model: "apple/iphone/se",
				Price: ptrInt64(42000), PriceRRC: ptrInt64(44990), Quantity: ptrInt(10),
				Parameters: map[string]any{"Color": "black", "Memory (GB)": 64},
			},
			{
				ID: 4216313, Category: 224, Name: "Galaxy A54", Model: "samsung/galaxy/a54",
				Price: ptrInt64(31000), PriceRRC: ptrInt64(33490), Quantity: ptrInt(7),
			},
		},
	}
}

func newImportService(db *gorm.DB, bus notifications.Bus) *ImportService {
	return NewImportService(db, repositories.NewCatalogRepository(db), repositories.NewShopRepository(db), bus)
}

func newBasketService(db *gorm.DB, bus notifications.Bus) *BasketService {
	return NewBasketService(
		db,
		repositories.NewOrderRepository(db),
		repositories.NewOrderLineRepository(db),
		repositories.NewCatalogRepository(db),
		repositories.NewContactRepository(db),
		repositories.NewClientRepository(db),
		bus,
	)
}

func newOrderService(db *gorm.DB, bus notifications.Bus) *OrderService {
	return NewOrderService(repositories.NewOrderRepository(db), repositories.NewShopRepository(db), bus, nil)
}

func newAccountService(db *gorm.DB, bus notifications.Bus) *AccountService {
	return NewAccountService(
		db,
		repositories.NewClientRepository(db),
		repositories.NewShopRepository(db),
		repositories.NewContactRepository(db),
		repositories.NewTokenRepository(db),
		repositories.NewOrderRepository(db),
		repositories.NewCatalogRepository(db),
		bus,
	)
}
