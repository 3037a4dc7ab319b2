package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventEmailConfirmationRequested = "EmailConfirmationRequested"
	EventPasswordResetIssued        = "PasswordResetIssued"
	EventAccountDeleted             = "AccountDeleted"
	EventOrderPlaced                = "OrderPlaced"
	EventOrderStateChanged          = "OrderStateChanged"
	EventCatalogImported            = "CatalogImported"
)

// Event is the envelope handed to the delivery collaborator. Recipient is
// the email address the delivery worker should target; the payload shape
// depends on the event type.
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Recipient  string          `json:"recipient"`
	Payload    json.RawMessage `json:"payload"`
}

func NewEvent(eventType, recipient string, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Payload types are plain structs defined below; a marshal failure is
		// a programming error.
		panic(err)
	}
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Recipient:  recipient,
		Payload:    raw,
	}
}

type EmailConfirmationPayload struct {
	AccountID string `json:"account_id"`
	Token     string `json:"token"`
}

type PasswordResetPayload struct {
	AccountID   string `json:"account_id"`
	NewPassword string `json:"new_password"`
}

type AccountDeletedPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type OrderPlacedPayload struct {
	Email   string `json:"email"`
	OrderID string `json:"order_id"`
}

type OrderStateChangedPayload struct {
	BuyerEmail string `json:"buyer_email"`
	OrderID    string `json:"order_id"`
	NewState   string `json:"new_state"`
}

type CatalogImportedPayload struct {
	SellerEmail string    `json:"seller_email"`
	Categories  int       `json:"categories"`
	Listings    int       `json:"listings"`
	Attributes  int       `json:"attributes"`
	Error       string    `json:"error,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}
