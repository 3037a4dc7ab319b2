package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pinocoladium/marketplace/app/helpers"
	"github.com/pinocoladium/marketplace/app/models"
	"github.com/pinocoladium/marketplace/app/services"
	"github.com/pinocoladium/marketplace/app/utils/sessions"
	"github.com/unrolled/render"
)

type AccountHandler struct {
	render       *render.Render
	accounts     *services.AccountService
	sessionStore sessions.SessionStore
}

func NewAccountHandler(r *render.Render, accounts *services.AccountService, sessionStore sessions.SessionStore) *AccountHandler {
	return &AccountHandler{
		render:       r,
		accounts:     accounts,
		sessionStore: sessionStore,
	}
}

func (h *AccountHandler) RegisterPost(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	client, generated, err := h.accounts.Register(r.Context(), input)
	if err != nil {
		writeError(h.render, w, err)
		return
	}

	fields := map[string]interface{}{"id": client.ID}
	if generated != "" {
		fields["password"] = generated
	}
	writeOK(h.render, w, http.StatusCreated, fields)
}

func (h *AccountHandler) ConfirmPost(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	// an expired key is reported as such; a replacement token has already
	// been queued for delivery by then
	if err := h.accounts.Verify(r.Context(), input.Email, input.Token); err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, nil)
}

func (h *AccountHandler) LoginPost(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	client, err := h.accounts.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			_ = h.render.JSON(w, http.StatusUnauthorized, map[string]interface{}{
				"status": false,
				"error":  "invalid email or password",
			})
			return
		}
		writeError(h.render, w, err)
		return
	}

	if err := h.sessionStore.SetClientID(w, r, client.ID); err != nil {
		log.Printf("LoginPost: failed to set session for %s: %v", client.ID, err)
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"id": client.ID})
}

func (h *AccountHandler) LogoutPost(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionStore.ClearSession(w, r); err != nil {
		log.Printf("LogoutPost: failed to clear session: %v", err)
	}
	writeOK(h.render, w, http.StatusOK, nil)
}

func (h *AccountHandler) ProfileGet(w http.ResponseWriter, r *http.Request) {
	client, ok := r.Context().Value(helpers.ContextKeyClient).(*models.Client)
	if !ok || client == nil {
		writeError(h.render, w, services.ErrClientNotFound)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"client": client})
}

func (h *AccountHandler) ProfilePatch(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	var input services.ProfileUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	client, err := h.accounts.UpdateProfile(r.Context(), clientID, input)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"client": client})
}

func (h *AccountHandler) AccountDelete(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	if err := h.accounts.DeleteAccount(r.Context(), clientID); err != nil {
		writeError(h.render, w, err)
		return
	}
	if err := h.sessionStore.ClearSession(w, r); err != nil {
		log.Printf("AccountDelete: failed to clear session: %v", err)
	}
	writeOK(h.render, w, http.StatusOK, nil)
}

func (h *AccountHandler) PasswordResetPost(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), input.Email); err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, nil)
}

func (h *AccountHandler) ContactGet(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	contact, err := h.accounts.GetContact(r.Context(), clientID)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"contact": contact})
}

func (h *AccountHandler) ContactPost(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	var input services.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadJSON(h.render, w)
		return
	}

	contact, err := h.accounts.UpsertContact(r.Context(), clientID, input)
	if err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, map[string]interface{}{"contact": contact})
}

func (h *AccountHandler) ContactDelete(w http.ResponseWriter, r *http.Request) {
	clientID, _ := r.Context().Value(helpers.ContextKeyClientID).(string)

	if err := h.accounts.DeleteContact(r.Context(), clientID); err != nil {
		writeError(h.render, w, err)
		return
	}
	writeOK(h.render, w, http.StatusOK, nil)
}
