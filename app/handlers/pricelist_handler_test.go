package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unrolled/render"
)

type fakeQueue struct {
	jobs []services.ImportJob
	full bool
}

func (q *fakeQueue) Enqueue(job services.ImportJob) bool {
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

type fakeShopRepo struct {
	repositories.ShopRepository
	shop *models.Shop
}

func (r *fakeShopRepo) FindByClientID(ctx context.Context, clientID string) (*models.Shop, error) {
	if r.shop != nil && r.shop.ClientID != nil && *r.shop.ClientID == clientID {
		return r.shop, nil
	}
	return nil, nil
}

type fakeCatalogRepo struct {
	repositories.CatalogRepository
	listings []models.Listing
}

func (r *fakeCatalogRepo) ListShopListings(ctx context.Context, shopID string) ([]models.Listing, error) {
	return r.listings, nil
}

func pricelistRequest(t *testing.T, clientID string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricelist", bytes.NewReader(raw))
	ctx := context.WithValue(req.Context(), helpers.ContextKeyClientID, clientID)
	return req.WithContext(ctx)
}

func testShop(clientID string) *models.Shop {
	return &models.Shop{ID: "shop-1", Name: "Test Shop", ClientID: &clientID, State: true}
}

func TestPricelistPostAccepts(t *testing.T) {
	queue := &fakeQueue{}
	h := NewPricelistHandler(render.New(), queue, &fakeShopRepo{shop: testShop("client-1")}, &fakeCatalogRepo{})

	body := map[string]any{
		"categories": []map[string]any{{"id": 224, "name": "Phones"}},
		"goods": []map[string]any{
			{"id": 1, "category": 224, "name": "iPhone SE", "price": 42000, "price_rrc": 44990, "quantity": 10},
		},
	}

	rec := httptest.NewRecorder()
	h.PricelistPost(rec, pricelistRequest(t, "client-1", body))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "shop-1", queue.jobs[0].ShopID)
	require.Len(t, queue.jobs[0].Feed.Goods, 1)
	require.NotNil(t, queue.jobs[0].Feed.Goods[0].Quantity)
	assert.Equal(t, 10, *queue.jobs[0].Feed.Goods[0].Quantity)

	var resp struct {
		Status bool   `json:"status"`
		ShopID string `json:"shop_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	assert.Equal(t, "shop-1", resp.ShopID)
}

func TestPricelistPostNoShop(t *testing.T) {
	queue := &fakeQueue{}
	h := NewPricelistHandler(render.New(), queue, &fakeShopRepo{}, &fakeCatalogRepo{})

	rec := httptest.NewRecorder()
	h.PricelistPost(rec, pricelistRequest(t, "client-1", map[string]any{}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, queue.jobs)
}

func TestPricelistPostMalformedBody(t *testing.T) {
	queue := &fakeQueue{}
	h := NewPricelistHandler(render.New(), queue, &fakeShopRepo{shop: testShop("client-1")}, &fakeCatalogRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricelist", bytes.NewReader([]byte("{not json")))
	req = req.WithContext(context.WithValue(req.Context(), helpers.ContextKeyClientID, "client-1"))

	rec := httptest.NewRecorder()
	h.PricelistPost(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, queue.jobs)
}

func TestPricelistPostQueueFull(t *testing.T) {
	queue := &fakeQueue{full: true}
	h := NewPricelistHandler(render.New(), queue, &fakeShopRepo{shop: testShop("client-1")}, &fakeCatalogRepo{})

	rec := httptest.NewRecorder()
	h.PricelistPost(rec, pricelistRequest(t, "client-1", map[string]any{}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
