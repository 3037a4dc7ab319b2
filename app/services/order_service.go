package services

import (
	"context"
	"fmt"

	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/notifications"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/utils/calc"
	"github.com/shopspring/decimal"
)

// TransitionPolicy decides whether an order may move between two states.
// Swapping the function swaps the business rule without touching the engine.
type TransitionPolicy func(from, to string) error

// DefaultTransitionPolicy enforces the forward chain
// new -> confirmed -> assembled -> sent -> delivered, with canceled reachable
// from new, confirmed and assembled. basket and new are never valid targets:
// only checkout itself produces them.
func DefaultTransitionPolicy(from, to string) error {
	if !models.KnownState(to) {
		return &StateError{From: from, To: to}
	}
	if to == models.StateBasket || to == models.StateNew {
		return &StateError{From: from, To: to}
	}
	if models.TerminalState(from) {
		return &StateError{From: from, To: to}
	}

	if to == models.StateCanceled {
		switch from {
		case models.StateNew, models.StateConfirmed, models.StateAssembled:
			return nil
		}
		return &StateError{From: from, To: to}
	}

	forward := map[string]string{
		models.StateNew:       models.StateConfirmed,
		models.StateConfirmed: models.StateAssembled,
		models.StateAssembled: models.StateSent,
		models.StateSent:      models.StateDelivered,
	}
	if next, ok := forward[from]; ok && next == to {
		return nil
	}
	return &StateError{From: from, To: to}
}

// OrderView pairs an order with its read-time total.
type OrderView struct {
	Order    *models.Order
	TotalSum decimal.Decimal
}

type OrderService struct {
	orderRepo repositories.OrderRepository
	shopRepo  repositories.ShopRepository
	bus       notifications.Bus
	policy    TransitionPolicy
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	shopRepo repositories.ShopRepository,
	bus notifications.Bus,
	policy TransitionPolicy,
) *OrderService {
	if policy == nil {
		policy = DefaultTransitionPolicy
	}
	return &OrderService{
		orderRepo: orderRepo,
		shopRepo:  shopRepo,
		bus:       bus,
		policy:    policy,
	}
}

// ListOrders returns the buyer's placed orders (never the basket), lines
// expanded and totals computed.
func (s *OrderService) ListOrders(ctx context.Context, buyerID string) ([]OrderView, error) {
	orders, err := s.orderRepo.ListByClient(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return expandOrders(orders), nil
}

// GetOrder returns a single placed order. Buyers only see their own.
func (s *OrderService) GetOrder(ctx context.Context, orderID, buyerID string) (*OrderView, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil || order.ClientID != buyerID || order.State == models.StateBasket {
		return nil, ErrOrderNotFound
	}
	return &OrderView{Order: order, TotalSum: calc.OrderTotal(order.Lines)}, nil
}

// ListShopOrders returns orders containing at least one of the shop's
// listings. A shop that switched off order acceptance gets the restricted
// status instead.
func (s *OrderService) ListShopOrders(ctx context.Context, shopID string) ([]OrderView, error) {
	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if !shop.State {
		return nil, ErrShopRestricted
	}

	orders, err := s.orderRepo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop orders: %w", err)
	}
	return expandOrders(orders), nil
}

// TransitionState moves an order through the lifecycle and notifies the
// order's buyer, not the acting seller.
func (s *OrderService) TransitionState(ctx context.Context, orderID, newState string) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if err := s.policy(order.State, newState); err != nil {
		return err
	}

	rows, err := s.orderRepo.UpdateState(ctx, orderID, order.State, newState)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	if rows == 0 {
		// Someone else moved the order first.
		return ErrConflict
	}

	s.bus.Publish(notifications.NewEvent(notifications.EventOrderStateChanged, order.Client.Email, notifications.OrderStateChangedPayload{
		BuyerEmail: order.Client.Email,
		OrderID:    orderID,
		NewState:   newState,
	}))
	return nil
}

func expandOrders(orders []models.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, OrderView{
			Order:    &orders[i],
			TotalSum: calc.OrderTotal(orders[i].Lines),
		})
	}
	return views
}
