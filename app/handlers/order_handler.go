package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/unrolled/render"
)

type OrderHandler struct {
	render   *render.Render
	orders   *services.OrderService
	shopRepo repositories.ShopRepository
}

func NewOrderHandler(r *render.Render, orders *services.OrderService, shopRepo repositories.ShopRepository) *OrderHandler {
	return &OrderHandler{
		render:   r,
		orders:   orders,
		shopRepo: shopRepo,
	}
}

func orderViewsResponse(views []services.OrderView) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(views))
	for _, v := range views {
		out = append(out, map[string]interface{}{
			"order":     v.Order,
			"total_sum": v.TotalSum,
		})
	}
	return out
}

func (h *OrderHandler) OrdersGet(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	views, err := h.orders.ListOrders(r.Context(), clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"orders": orderViewsResponse(views)})
}

func (h *OrderHandler) OrderGet(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)
	id := mux.Vars(r)["id"]

	view, err := h.orders.GetOrder(r.Context(), id, clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{
		"order":     view.Order,
		"total_sum": view.TotalSum,
	})
}

func (h *OrderHandler) ShopOrdersGet(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	shop, err := h.shopRepo.FindByClientID(r.Context(), clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	if shop == nil {
		writeError(h.render, w, services.ErrShopNotFound)
		return
	}

	views, err := h.orders.ListShopOrders(r.Context(), shop.ID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"orders": orderViewsResponse(views)})
}

// OrderStatePatch moves an order along the fulfilment lifecycle.
func (h *OrderHandler) OrderStatePatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var input struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	if err := h.orders.TransitionState(r.Context(), id, input.State); err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"state": input.State})
}
