package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDefaultTransitionPolicy(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.StateNew, models.StateConfirmed, true},
		{models.StateConfirmed, models.StateAssembled, true},
		{models.StateAssembled, models.StateSent, true},
		{models.StateSent, models.StateDelivered, true},
		{models.StateNew, models.StateCanceled, true},
		{models.StateConfirmed, models.StateCanceled, true},
		{models.StateAssembled, models.StateCanceled, true},

		// no skipping forward
		{models.StateNew, models.StateAssembled, false},
		{models.StateNew, models.StateSent, false},
		{models.StateConfirmed, models.StateSent, false},
		// no moving backward
		{models.StateConfirmed, models.StateNew, false},
		{models.StateSent, models.StateAssembled, false},
		// sent orders are already on their way
		{models.StateSent, models.StateCanceled, false},
		// terminal states have no exits
		{models.StateDelivered, models.StateCanceled, false},
		{models.StateCanceled, models.StateNew, false},
		// the basket is not part of the fulfilment lifecycle
		{models.StateBasket, models.StateNew, false},
		{models.StateNew, models.StateBasket, false},
		{models.StateConfirmed, models.StateBasket, false},
		// unknown target
		{models.StateNew, "shipped", false},
	}

	for _, tc := range cases {
		err := DefaultTransitionPolicy(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			var serr *StateError
			assert.ErrorAs(t, err, &serr, "%s -> %s", tc.from, tc.to)
		}
	}
}

// placeOrder runs the full buyer path and returns the placed order.
func placeOrder(t *testing.T, db *gorm.DB, bus notifications.Bus, buyer *models.Client, shopID string) *models.Order {
	t.Helper()
	importSvc := newImportService(db, bus)
	basketSvc := newBasketService(db, bus)

	listings := importPhones(t, importSvc, shopID)

	ctx := context.Background()
	_, err := basketSvc.UpsertLines(ctx, buyer.ID, []LineEdit{
		{ListingID: listings[4216292].ID, Quantity: 2},
		{ListingID: listings[4216313].ID, Quantity: 1},
	})
	require.NoError(t, err)

	order, err := basketSvc.Checkout(ctx, buyer.ID)
	require.NoError(t, err)
	return order
}

func TestTransitionStateNotifiesBuyer(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	orderSvc := newOrderService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	order := placeOrder(t, db, bus, buyer, shop.ID)

	ctx := context.Background()
	require.NoError(t, orderSvc.TransitionState(ctx, order.ID, models.StateConfirmed))

	events := bus.EventsOfType(notifications.EventOrderStateChanged)
	require.Len(t, events, 1)
	assert.Equal(t, "buyer@example.com", events[0].Recipient)

	var payload notifications.OrderStateChangedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, order.ID, payload.OrderID)
	assert.Equal(t, models.StateConfirmed, payload.NewState)

	reloaded, err := orderSvc.GetOrder(ctx, order.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateConfirmed, reloaded.Order.State)
}

func TestTransitionStateRejectsInvalidMove(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	orderSvc := newOrderService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	order := placeOrder(t, db, bus, buyer, shop.ID)

	ctx := context.Background()
	err := orderSvc.TransitionState(ctx, order.ID, models.StateSent)
	var serr *StateError
	require.ErrorAs(t, err, &serr)

	// nothing moved, nothing announced
	reloaded, err := orderSvc.GetOrder(ctx, order.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateNew, reloaded.Order.State)
	assert.Empty(t, bus.EventsOfType(notifications.EventOrderStateChanged))
}

func TestTransitionStateUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	orderSvc := newOrderService(db, &captureBus{})

	err := orderSvc.TransitionState(context.Background(), "no-such-order", models.StateConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrdersExcludesBasket(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	orderSvc := newOrderService(db, bus)
	basketSvc := newBasketService(db, bus)
	importSvc := newImportService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	order := placeOrder(t, db, bus, buyer, shop.ID)

	// a new basket started after checkout must stay invisible
	listings, err := importSvc.catalogRepo.ListShopListings(context.Background(), shop.ID)
	require.NoError(t, err)
	_, err = basketSvc.UpsertLines(context.Background(), buyer.ID, []LineEdit{
		{ListingID: listings[0].ID, Quantity: 1},
	})
	require.NoError(t, err)

	views, err := orderSvc.ListOrders(context.Background(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, order.ID, views[0].Order.ID)

	// 2 * 42000 + 1 * 31000
	assert.True(t, views[0].TotalSum.Equal(decimal.NewFromInt(115000)), "got %s", views[0].TotalSum)
}

func TestListShopOrders(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	orderSvc := newOrderService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	order := placeOrder(t, db, bus, buyer, shop.ID)

	// an unrelated shop sees nothing
	_, otherShop := createSellerWithShop(t, db, "other", "other@example.com")

	ctx := context.Background()
	views, err := orderSvc.ListShopOrders(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, order.ID, views[0].Order.ID)

	views, err = orderSvc.ListShopOrders(ctx, otherShop.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListShopOrdersRestrictedWhenClosed(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	orderSvc := newOrderService(db, bus)

	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	require.NoError(t, db.Model(&models.Shop{}).Where("id = ?", shop.ID).Update("state", false).Error)

	_, err := orderSvc.ListShopOrders(context.Background(), shop.ID)
	assert.ErrorIs(t, err, ErrShopRestricted)
}

func TestGetOrderOwnership(t *testing.T) {
	db := newTestDB(t)
	bus := &captureBus{}
	orderSvc := newOrderService(db, bus)

	buyer := createBuyer(t, db, "dana", "buyer@example.com")
	createContact(t, db, buyer.ID)
	other := createBuyer(t, db, "eve", "other-buyer@example.com")
	_, shop := createSellerWithShop(t, db, "sam", "seller@example.com")
	order := placeOrder(t, db, bus, buyer, shop.ID)

	ctx := context.Background()
	_, err := orderSvc.GetOrder(ctx, order.ID, other.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	view, err := orderSvc.GetOrder(ctx, order.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, view.Order.ID)
}
