package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/unrolled/render"
)

type BasketHandler struct {
	render  *render.Render
	baskets *services.BasketService
}

func NewBasketHandler(r *render.Render, baskets *services.BasketService) *BasketHandler {
	return &BasketHandler{
		render:  r,
		baskets: baskets,
	}
}

func (h *BasketHandler) BasketGet(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	view, err := h.baskets.ViewBasket(r.Context(), clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{
		"basket":    view.Order,
		"total_sum": view.TotalSum,
		"empty":     view.Empty,
	})
}

// BasketPost applies a batch of line edits. Re-posting a listing replaces
// its quantity rather than stacking a second line.
func (h *BasketHandler) BasketPost(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	var input struct {
		Items []services.LineEdit `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	updated, err := h.baskets.UpsertLines(r.Context(), clientID, input.Items)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"updated": updated})
}

func (h *BasketHandler) BasketDelete(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	var input struct {
		Items []string `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	removed, err := h.baskets.RemoveLines(r.Context(), clientID, input.Items)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// CheckoutPost freezes the basket into a placed order.
func (h *BasketHandler) CheckoutPost(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	order, err := h.baskets.Checkout(r.Context(), clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusCreated, map[string]interface{}{"order": order})
}
