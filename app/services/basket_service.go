package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/utils/calc"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// lineRaceRetries bounds how often a basket-line upsert is retried after a
// uniqueness race before it surfaces as ErrConflict.
const lineRaceRetries = 3

type LineEdit struct {
	ListingID string `json:"listing_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// BasketView is the basket with lines expanded and the read-time total.
// TotalSum follows the listings' current prices; nothing is frozen until
// checkout detaches the order from buyer edits.
type BasketView struct {
	Order    *models.Order
	TotalSum decimal.Decimal
	Empty    bool
}

type BasketService struct {
	db          *gorm.DB
	orderRepo   repositories.OrderRepository
	lineRepo    repositories.OrderLineRepository
	catalogRepo repositories.CatalogRepository
	contactRepo repositories.ContactRepository
	clientRepo  repositories.ClientRepository
	bus         notifications.Bus
}

func NewBasketService(
	db *gorm.DB,
	orderRepo repositories.OrderRepository,
	lineRepo repositories.OrderLineRepository,
	catalogRepo repositories.CatalogRepository,
	contactRepo repositories.ContactRepository,
	clientRepo repositories.ClientRepository,
	bus notifications.Bus,
) *BasketService {
	return &BasketService{
		db:          db,
		orderRepo:   orderRepo,
		lineRepo:    lineRepo,
		catalogRepo: catalogRepo,
		contactRepo: contactRepo,
		clientRepo:  clientRepo,
		bus:         bus,
	}
}

// UpsertLines applies a batch of line edits to the buyer's singleton basket
// in one transaction: every edit lands or none does. An existing line's
// quantity is overwritten, not incremented, so repeating a request is
// harmless. Returns the number of lines written.
func (s *BasketService) UpsertLines(ctx context.Context, buyerID string, edits []LineEdit) (int, error) {
	if len(edits) == 0 {
		return 0, NewValidationError("items", "no line edits supplied")
	}
	for i, edit := range edits {
		if edit.Quantity <= 0 {
			return 0, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be a positive integer")
		}
		listing, err := s.catalogRepo.FindListingByID(ctx, edit.ListingID)
		if err != nil {
			return 0, fmt.Errorf("failed to check listing: %w", err)
		}
		if listing == nil {
			return 0, fmt.Errorf("items[%d]: %w", i, ErrListingNotFound)
		}
	}

	var lastErr error
	for attempt := 0; attempt < lineRaceRetries; attempt++ {
		lastErr = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			basket, err := s.orderRepo.GetOrCreateBasket(ctx, tx, buyerID)
			if err != nil {
				return err
			}
			for _, edit := range edits {
				if _, err := s.lineRepo.UpsertLine(ctx, tx, basket.ID, edit.ListingID, edit.Quantity); err != nil {
					return err
				}
			}
			return nil
		})
		if lastErr == nil {
			return len(edits), nil
		}
		// Two requests raced on the same (basket, listing) pair; the loser
		// re-runs and lands on the update path.
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("failed to update basket: %w", lastErr)
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

// RemoveLines deletes the given listings from the buyer's basket. Removing
// what is not there is a no-op, not an error.
func (s *BasketService) RemoveLines(ctx context.Context, buyerID string, listingIDs []string) (int64, error) {
	if len(listingIDs) == 0 {
		return 0, NewValidationError("items", "no listing ids supplied")
	}
	basket, err := s.orderRepo.FindBasketWithLines(ctx, buyerID)
	if err != nil {
		return 0, fmt.Errorf("failed to load basket: %w", err)
	}
	if basket == nil {
		return 0, nil
	}
	removed, err := s.lineRepo.RemoveLines(ctx, s.db, basket.ID, listingIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to remove basket lines: %w", err)
	}
	return removed, nil
}

// ViewBasket returns the expanded basket. An empty or missing basket is a
// normal result.
func (s *BasketService) ViewBasket(ctx context.Context, buyerID string) (*BasketView, error) {
	basket, err := s.orderRepo.FindBasketWithLines(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load basket: %w", err)
	}
	if basket == nil || len(basket.Lines) == 0 {
		return &BasketView{Order: basket, TotalSum: decimal.Zero, Empty: true}, nil
	}
	return &BasketView{
		Order:    basket,
		TotalSum: calc.OrderTotal(basket.Lines),
	}, nil
}

// Checkout atomically moves the basket to state "new" and attaches the
// buyer's contact. From here on the order is immutable to the buyer. Exactly
// one of two racing checkouts wins; the loser observes ErrBasketEmpty.
func (s *BasketService) Checkout(ctx context.Context, buyerID string) (*models.Order, error) {
	contact, err := s.contactRepo.FindByClientID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact == nil {
		return nil, ErrMissingContact
	}

	basket, err := s.orderRepo.FindBasketWithLines(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load basket: %w", err)
	}
	if basket == nil || len(basket.Lines) == 0 {
		return nil, ErrBasketEmpty
	}

	rows, err := s.orderRepo.CheckoutBasket(ctx, basket.ID, contact.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check out basket: %w", err)
	}
	if rows == 0 {
		return nil, ErrBasketEmpty
	}

	order, err := s.orderRepo.FindByID(ctx, basket.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	if client, err := s.clientRepo.FindByID(ctx, buyerID); err == nil && client != nil {
		s.bus.Publish(notifications.NewEvent(notifications.EventOrderPlaced, client.Email, notifications.OrderPlacedPayload{
			Email:   client.Email,
			OrderID: basket.ID,
		}))
	}

	return order, nil
}
