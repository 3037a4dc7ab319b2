package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/unrolled/render"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
)

type ProductHandler struct {
	render      *render.Render
	catalogRepo repositories.CatalogRepository
}

func NewProductHandler(r *render.Render, catalogRepo repositories.CatalogRepository) *ProductHandler {
	return &ProductHandler{
		render:      r,
		catalogRepo: catalogRepo,
	}
}

// ProductsGet lists products matching ?q= with limit/offset paging.
func (h *ProductHandler) ProductsGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := defaultProductLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(h.render, w, services.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(h.render, w, services.NewValidationError("offset", "must be a non-negative integer"))
			return
		}
		offset = n
	}

	products, err := h.catalogRepo.SearchProducts(r.Context(), query, limit, offset)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"products": products})
}

// ListingGet returns one shop listing with its product and attributes.
func (h *ProductHandler) ListingGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	listing, err := h.catalogRepo.FindListingByID(r.Context(), id)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	if listing == nil {
		writeError(h.render, w, services.ErrListingNotFound)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"listing": listing})
}
