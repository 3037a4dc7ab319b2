package services

import (
	"context"
	"testing"

	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// importPhones pushes the stock phones feed through the real import
// pipeline and returns the resulting listings keyed by external id.
func importPhones(t *testing.T, svc *ImportService, shopID string) map[int]models.Listing {
	t.Helper()
	_, err := svc.ImportCatalog(context.Background(), shopID, phonesFeed())
	require.NoError(t, err)

	listings, err := svc.catalogRepo.ListShopListings(context.Background(), shopID)
	require.NoError(t, err)

	out := map[int]models.Listing{}
	for _, l := range listings {
		out[l.ExternalID] = l
	}
	return out
}

func TestUpsertLinesReplacesQuantity(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	listings := importPhones(t, importSvc, shop.ID)
	iphone := listings[4216292]

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: iphone.ID, Quantity: 3}})
	require.NoError(t, err)

	// re-post replaces, it does not stack a second line
	_, err = basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: iphone.ID, Quantity: 7}})
	require.NoError(t, err)

	view, err := basketSvc.ViewBasket(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Order.Lines, 1)
	assert.Equal(t, 7, view.Order.Lines[0].Quantity)
}

// racingLineRepo fails the first n upserts with a uniqueness violation, as
// if a concurrent request inserted the same (order, listing) line between
// this request's check and its insert. conflicts < 0 conflicts forever.
type racingLineRepo struct {
	repositories.OrderLineRepository
	conflicts int
}

func (r *racingLineRepo) UpsertLine(ctx context.Context, tx *gorm.DB, orderID, listingID string, quantity int) (bool, error) {
	if r.conflicts != 0 {
		if r.conflicts > 0 {
			r.conflicts--
		}
		return false, gorm.ErrDuplicatedKey
	}
	return r.OrderLineRepository.UpsertLine(ctx, tx, orderID, listingID, quantity)
}

func newBasketServiceWithLines(db *gorm.DB, bus notifications.Bus, lines repositories.OrderLineRepository) *BasketService {
	return NewBasketService(
		db,
		repositories.NewOrderRepository(db),
		lines,
		repositories.NewCatalogRepository(db),
		repositories.NewContactRepository(db),
		repositories.NewClientRepository(db),
		bus,
	)
}

func TestUpsertLinesRetriesAfterLineRace(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)

	lines := &racingLineRepo{OrderLineRepository: repositories.NewOrderLineRepository(db), conflicts: 1}
	basketSvc := newBasketServiceWithLines(db, bus, lines)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	iphone := importPhones(t, importSvc, shop.ID)[4216292]

	ctx := context.Background()
	n, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: iphone.ID, Quantity: 4}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, lines.conflicts, "the retry must re-run the upsert")

	view, err := basketSvc.ViewBasket(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, view.Order.Lines, 1)
	assert.Equal(t, 4, view.Order.Lines[0].Quantity)
}

func TestUpsertLinesGivesUpAfterRepeatedConflicts(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)

	lines := &racingLineRepo{OrderLineRepository: repositories.NewOrderLineRepository(db), conflicts: -1}
	basketSvc := newBasketServiceWithLines(db, bus, lines)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	iphone := importPhones(t, importSvc, shop.ID)[4216292]

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: iphone.ID, Quantity: 4}})
	assert.ErrorIs(t, err, ErrConflict)

	view, err := basketSvc.ViewBasket(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, view.Empty)
}

func TestBasketTotalFollowsCurrentPrices(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")

	feed := &PriceFeed{
		Categories: []FeedCategory{{ID: 1, Name: "Stationery"}},
		Goods: []FeedItem{
			{ID: 1, Category: 1, Name: "Pen", Price: ptrInt64(100), PriceRRC: ptrInt64(120), Quantity: ptrInt(50)},
			{ID: 2, Category: 1, Name: "Notebook", Price: ptrInt64(50), PriceRRC: ptrInt64(60), Quantity: ptrInt(50)},
		},
	}
	_, err := importSvc.ImportCatalog(context.Background(), shop.ID, feed)
	require.NoError(t, err)

	listings, err := importSvc.catalogRepo.ListShopListings(context.Background(), shop.ID)
	require.NoError(t, err)
	byID := map[int]models.Listing{}
	for _, l := range listings {
		byID[l.ExternalID] = l
	}

	ctx := context.Background()
	_, err = basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{
		{ListingID: byID[1].ID, Quantity: 2}, // 2 * 100
		{ListingID: byID[2].ID, Quantity: 2}, // 2 * 50
	})
	require.NoError(t, err)

	view, err := basketSvc.ViewBasket(ctx, buyer.ID)
	require.NoError(t, err)
	assert.False(t, view.Empty)
	assert.True(t, view.TotalSum.Equal(decimal.NewFromInt(300)), "got %s", view.TotalSum)
}

func TestRemoveLinesEmptiesBasket(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	listings := importPhones(t, importSvc, shop.ID)
	iphone := listings[4216292]

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: iphone.ID, Quantity: 1}})
	require.NoError(t, err)

	removed, err := basketSvc.RemoveLines(ctx, buyer.ID, []string{iphone.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	view, err := basketSvc.ViewBasket(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, view.Empty)
	assert.True(t, view.TotalSum.IsZero())

	// removing what is not there is a no-op
	removed, err = basketSvc.RemoveLines(ctx, buyer.ID, []string{iphone.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
}

func TestUpsertLinesValidation(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	basketSvc := newBasketService(db, bus)
	buyer := createBuyer(t, db, "dana", "buyer@example.com")

	ctx := context.Background()

	_, err := basketSvc.UpsertLines(ctx, buyer.ID, nil)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: "x", Quantity: 0}})
	assert.ErrorAs(t, err, &verr)

	_, err = basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: "no-such-listing", Quantity: 1}})
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestCheckoutRequiresContact(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	listings := importPhones(t, importSvc, shop.ID)

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: listings[4216292].ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = basketSvc.Checkout(ctx, buyer.ID)
	assert.ErrorIs(t, err, ErrMissingContact)
}

func TestCheckoutEmptyBasket(t *testing.T) {
	db := newTestDB(t)
	basketSvc := newBasketService(db, &captureBus{})
	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)

	_, err := basketSvc.Checkout(context.Background(), buyer.ID)
	assert.ErrorIs(t, err, ErrBasketEmpty)
}

func TestCheckoutFreezesBasket(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	contact := createContact(t, db, buyer.ID)
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	listings := importPhones(t, importSvc, shop.ID)

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: listings[4216292].ID, Quantity: 2}})
	require.NoError(t, err)

	order, err := basketSvc.Checkout(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateNew, order.State)
	require.NotNil(t, order.ContactID)
	assert.Equal(t, contact.ID, *order.ContactID)
	assert.Nil(t, order.BasketOwner)

	placed := bus.EventsOfType(notifications.EventOrderPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, "buyer@example.com", placed[0].Recipient)

	// the next basket is a fresh one
	view, err := basketSvc.ViewBasket(ctx, buyer.ID)
	require.NoError(t, err)
	assert.True(t, view.Empty)
}

func TestDoubleCheckoutSingleWinner(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	listings := importPhones(t, importSvc, shop.ID)

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: listings[4216292].ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = basketSvc.Checkout(ctx, buyer.ID)
	require.NoError(t, err)

	// the second submit of the same basket loses the guarded update
	_, err = basketSvc.Checkout(ctx, buyer.ID)
	assert.ErrorIs(t, err, ErrBasketEmpty)

	var placed int64
	require.NoError(t, db.Model(&models.Order{}).Where("state = ?", models.StateNew).Count(&placed).Error)
	assert.Equal(t, int64(1), placed)
	assert.Len(t, bus.EventsOfType(notifications.EventOrderPlaced), 1)
}

func TestBasketIsSingleton(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	listings := importPhones(t, importSvc, shop.ID)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{{ListingID: listings[4216292].ID, Quantity: i + 1}})
		require.NoError(t, err)
	}

	var baskets int64
	require.NoError(t, db.Model(&models.Order{}).
		Where("client_id = ? AND state = ?", buyer.ID, models.StateBasket).
		Count(&baskets).Error)
	assert.Equal(t, int64(1), baskets)
}
