package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pinocoladium/marketplace/app/handlers"
	"github.com/pinocoladium/marketplace/app/middlewares"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/utils/sessions"
	"github.com/unrolled/render"
)

type Handlers struct {
	Account   *handlers.AccountHandler
	Shop      *handlers.ShopHandler
	Pricelist *handlers.PricelistHandler
	Product   *handlers.ProductHandler
	Basket    *handlers.BasketHandler
	Order     *handlers.OrderHandler
}

func NewRouter(
	rnd *render.Render,
	sessionStore sessions.SessionStore,
	clientRepo repositories.ClientRepository,
	h Handlers,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middlewares.ClientContextMiddleware(sessionStore, clientRepo))

	api := router.PathPrefix("/api/v1").Subrouter()

	// public
	api.HandleFunc("/register", h.Account.RegisterPost).Methods(http.MethodPost)
	api.HandleFunc("/register/confirm", h.Account.ConfirmPost).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Account.LoginPost).Methods(http.MethodPost)
	api.HandleFunc("/password/reset", h.Account.PasswordResetPost).Methods(http.MethodPost)
	api.HandleFunc("/products", h.Product.ProductsGet).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.Product.ListingGet).Methods(http.MethodGet)

	// any signed-in account
	authed := api.NewRoute().Subrouter()
	authed.Use(middlewares.RequireAuth(rnd))
	authed.HandleFunc("/logout", h.Account.LogoutPost).Methods(http.MethodPost)
	authed.HandleFunc("/profile", h.Account.ProfileGet).Methods(http.MethodGet)
	authed.HandleFunc("/profile", h.Account.ProfilePatch).Methods(http.MethodPatch)
	authed.HandleFunc("/profile", h.Account.AccountDelete).Methods(http.MethodDelete)
	authed.HandleFunc("/shop", h.Shop.ShopPost).Methods(http.MethodPost)

	// verified buyers
	buyer := api.NewRoute().Subrouter()
	buyer.Use(middlewares.RequireVerified(rnd))
	buyer.HandleFunc("/contact", h.Account.ContactGet).Methods(http.MethodGet)
	buyer.HandleFunc("/contact", h.Account.ContactPost).Methods(http.MethodPost)
	buyer.HandleFunc("/contact", h.Account.ContactDelete).Methods(http.MethodDelete)
	buyer.HandleFunc("/basket", h.Basket.BasketGet).Methods(http.MethodGet)
	buyer.HandleFunc("/basket", h.Basket.BasketPost).Methods(http.MethodPost)
	buyer.HandleFunc("/basket", h.Basket.BasketDelete).Methods(http.MethodDelete)
	buyer.HandleFunc("/basket/checkout", h.Basket.CheckoutPost).Methods(http.MethodPost)
	buyer.HandleFunc("/orders", h.Order.OrdersGet).Methods(http.MethodGet)
	buyer.HandleFunc("/orders/{id}", h.Order.OrderGet).Methods(http.MethodGet)

	// seller-only
	seller := api.NewRoute().Subrouter()
	seller.Use(middlewares.RequireShop(rnd))
	seller.HandleFunc("/shop/profile", h.Shop.ShopGet).Methods(http.MethodGet)
	seller.HandleFunc("/shop/state", h.Shop.ShopStatePost).Methods(http.MethodPost)
	seller.HandleFunc("/pricelist", h.Pricelist.PricelistPost).Methods(http.MethodPost)
	seller.HandleFunc("/shop/listings", h.Pricelist.ListingsGet).Methods(http.MethodGet)
	seller.HandleFunc("/shop/orders", h.Order.ShopOrdersGet).Methods(http.MethodGet)
	seller.HandleFunc("/shop/orders/{id}/state", h.Order.OrderStatePatch).Methods(http.MethodPatch)

	return router
}
