package middlewares

import (
	"context"
	"log"
	"net/http"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/repositories"
	"github.com/pinocoladium/marketplace/app/utils/sessions"
	"github.com/unrolled/render"
)

// ClientContextMiddleware resolves the session principal into the request
// context. Requests without a valid session pass through untouched; the
// auth middlewares below decide whether that is acceptable.
func ClientContextMiddleware(sessionStore sessions.SessionStore, clientRepo repositories.ClientRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := sessionStore.GetClientID(r)
			if clientID == "" {
				next.ServeHTTP(w, r)
				return
			}

			client, err := clientRepo.FindByID(r.Context(), clientID)
			if err != nil {
				log.Printf("ClientContextMiddleware: failed to load client %s: %v", clientID, err)
				next.ServeHTTP(w, r)
				return
			}
			if client == nil {
				// stale session, drop it
				if err := sessionStore.ClearSession(w, r); err != nil {
					log.Printf("ClientContextMiddleware: failed to clear stale session: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), helpers.ContextKeyClientID, client.ID)
			ctx = context.WithValue(ctx, helpers.ContextKeyClient, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no resolved principal.
func RequireAuth(rnd *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, ok := r.Context().Value(helpers.ContextKeyClientID).(string)
			if !ok || clientID == "" {
				_ = rnd.JSON(w, http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"error":  "authentication required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified additionally demands a confirmed email address.
func RequireVerified(rnd *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := r.Context().Value(helpers.ContextKeyClient).(*models.Client)
			if !ok || client == nil {
				_ = rnd.JSON(w, http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"error":  "authentication required",
				})
				return
			}
			if !client.Active {
				_ = rnd.JSON(w, http.StatusForbidden, map[string]interface{}{
					"status": false,
					"error":  "email address not confirmed",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireShop gates seller-only routes on the account type.
func RequireShop(rnd *render.Render) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, ok := r.Context().Value(helpers.ContextKeyClient).(*models.Client)
			if !ok || client == nil {
				_ = rnd.JSON(w, http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"error":  "authentication required",
				})
				return
			}
			if client.Type != models.ClientTypeShop {
				_ = rnd.JSON(w, http.StatusForbidden, map[string]interface{}{
					"status": false,
					"error":  "shop account required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
