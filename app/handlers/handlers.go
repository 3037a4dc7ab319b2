package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pinocoladium/marketplace/app/services"
	"github.com/unrolled/render"
	"gorm.io/gorm"
)

// writeError maps service errors onto HTTP statuses and a uniform
// {"status": false, "error": "..."} body.
func writeError(rnd *render.Render, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var verr *services.ValidationError
	var serr *services.StateError

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		message = verr.Error()
	case errors.As(err, &serr):
		status = http.StatusConflict
		message = serr.Error()
	case errors.Is(err, services.ErrClientNotFound),
		errors.Is(err, services.ErrShopNotFound),
		errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrHasShop),
		errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, gorm.ErrDuplicatedKey):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrBasketEmpty),
		errors.Is(err, services.ErrMissingContact),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrInvalidToken):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, services.ErrShopRestricted):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, services.ErrImportBusy):
		status = http.StatusServiceUnavailable
		message = err.Error()
	default:
		log.Printf("handler error: %v", err)
	}

	_ = rnd.JSON(w, status, map[string]interface{}{
		"status": false,
		"error":  message,
	})
}

func writeOK(rnd *render.Render, w http.ResponseWriter, status int, fields map[string]interface{}) {
	body := map[string]interface{}{"status": true}
	for k, v := range fields {
		body[k] = v
	}
	_ = rnd.JSON(w, status, body)
}

func writeBadJSON(rnd *render.Render, w http.ResponseWriter) {
	_ = rnd.JSON(w, http.StatusBadRequest, map[string]interface{}{
		"status": false,
		"error":  "invalid JSON body",
	})
}
