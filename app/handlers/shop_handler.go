package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/unrolled/render"
)

type ShopHandler struct {
	render   *render.Render
	accounts *services.AccountService
	shopRepo repositories.ShopRepository
}

func NewShopHandler(r *render.Render, accounts *services.AccountService, shopRepo repositories.ShopRepository) *ShopHandler {
	return &ShopHandler{
		render:   r,
		accounts: accounts,
		shopRepo: shopRepo,
	}
}

func (h *ShopHandler) ShopPost(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	var input struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	shop, err := h.accounts.CreateShop(r.Context(), clientID, input.Name, input.URL)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusCreated, map[string]interface{}{"shop": shop})
}

func (h *ShopHandler) ShopGet(w http.ResponseWriter, r *http.Request) {
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
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"shop": shop})
}

// ShopStatePost flips the accepting-orders flag and reports the new value.
func (h *ShopHandler) ShopStatePost(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	state, err := h.accounts.ToggleShopState(r.Context(), clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"state": state})
}
