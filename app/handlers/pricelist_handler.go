package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/unrolled/render"
)

// Enqueuer is what the accept endpoint needs from the import queue.
type Enqueuer interface {
	Enqueue(job services.ImportJob) bool
}

type PricelistHandler struct {
	render      *render.Render
	queue       Enqueuer
	shopRepo    repositories.ShopRepository
	catalogRepo repositories.CatalogRepository
}

func NewPricelistHandler(r *render.Render, queue Enqueuer, shopRepo repositories.ShopRepository, catalogRepo repositories.CatalogRepository) *PricelistHandler {
	return &PricelistHandler{
		render:      r,
		queue:       queue,
		shopRepo:    shopRepo,
		catalogRepo: catalogRepo,
	}
}

// PricelistPost accepts a catalog feed for the seller's shop. The body is
// only decoded here; validation and the replacement itself run on the
// worker, which reports the outcome through the notification bus.
func (h *PricelistHandler) PricelistPost(w http.ResponseWriter, r *http.Request) {
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

	var feed services.PriceFeed
	if err := json.NewDecoder(r.Body).Decode(&feed); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	if !h.queue.Enqueue(services.ImportJob{ShopID: shop.ID, Feed: &feed}) {
		writeError(h.render, w, services.ErrImportBusy)
		return
	}
	writeOK(h.render, w, http.StatusAccepted, map[string]interface{}{"shop_id": shop.ID})
}

// ListingsGet returns the seller's current catalog.
func (h *PricelistHandler) ListingsGet(w http.ResponseWriter, r *http.Request) {
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

	listings, err := h.catalogRepo.ListShopListings(r.Context(), shop.ID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"listings": listings})
}
