package sessions

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	sessionCookieName = "marketplace-session"

	clientIDSessionKey = "clientID"
)

type SessionStore interface {
	GetClientID(r *http.Request) string
	SetClientID(w http.ResponseWriter, r *http.Request, clientID string) error
	ClearSession(w http.ResponseWriter, r *http.Request) error
}

type CookieSessionStore struct {
	store *sessions.CookieStore
}

func NewCookieSessionStore(keyPairs ...[]byte) *CookieSessionStore {
	store := sessions.NewCookieStore(keyPairs...)

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(30 * 24 * time.Hour / time.Second),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessionStore{store: store}
}

func (c *CookieSessionStore) getSession(r *http.Request) (*sessions.Session, error) {
	session, err := c.store.Get(r, sessionCookieName)
	if err != nil {
		log.Printf("Error getting session: %v", err)
	}
	return session, nil
}

func (c *CookieSessionStore) GetClientID(r *http.Request) string {
	session, err := c.getSession(r)
	if err != nil || session == nil {
		return ""
	}
	clientID, ok := session.Values[clientIDSessionKey].(string)
	if !ok {
		return ""
	}
	return clientID
}

func (c *CookieSessionStore) SetClientID(w http.ResponseWriter, r *http.Request, clientID string) error {
	session, err := c.getSession(r)
	if err != nil || session == nil {
		return err
	}
	session.Values[clientIDSessionKey] = clientID
	return session.Save(r, w)
}

func (c *CookieSessionStore) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, err := c.getSession(r)
	if err != nil || session == nil {
		return err
	}
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
