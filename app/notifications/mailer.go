package notifications

import (
	"encoding/json"
	"fmt"
	"net/smtp"
)

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// MailSink renders events to plain-text mail over SMTP.
type MailSink struct {
	config MailConfig
}

func NewMailSink(cfg MailConfig) *MailSink {
	return &MailSink{
		config: cfg,
	}
}

func (m *MailSink) Deliver(event Event) error {
	subject, body, err := renderMail(event)
	if err != nil {
		return err
	}
	return m.send(event.Recipient, subject, body)
}

func (m *MailSink) send(to, subject, body string) error {

	headers := map[string]string{
		"From":         m.config.From,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/plain; charset=\"UTF-8\"",
	}

	var msg string
	for k, v := range headers {
		msg += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	msg += "\r\n" + body

	auth := smtp.PlainAuth(m.config.From, m.config.Username, m.config.Password, m.config.Host)

	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func renderMail(event Event) (subject, body string, err error) {
	switch event.Type {
	case EventEmailConfirmationRequested:
		var p EmailConfirmationPayload
		if err = json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		subject = "Confirm your email address"
		body = fmt.Sprintf("Your confirmation token: %s", p.Token)
	case EventPasswordResetIssued:
		var p PasswordResetPayload
		if err = json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		subject = "Your password has been reset"
		body = fmt.Sprintf("The new password for your account: %s", p.NewPassword)
	case EventAccountDeleted:
		var p AccountDeletedPayload
		if err = json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		subject = "Your account has been deleted"
		body = fmt.Sprintf("The account %s (%s) was removed.", p.Username, p.Email)
	case EventOrderPlaced:
		var p OrderPlacedPayload
		if err = json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		subject = "Order placed"
		body = fmt.Sprintf("Your order %s has been placed and is being processed.", p.OrderID)
	case EventOrderStateChanged:
		var p OrderStateChangedPayload
		if err = json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		subject = "Order status updated"
		body = fmt.Sprintf("Order %s is now %q.", p.OrderID, p.NewState)
	case EventCatalogImported:
		var p CatalogImportedPayload
		if err = json.Unmarshal(event.Payload, &p); err != nil {
			return
		}
		subject = "Pricelist import finished"
		if p.Error != "" {
			body = fmt.Sprintf("Import at %s failed: %s", p.LoadedAt.Format("2006-01-02 15:04:05"), p.Error)
		} else {
			body = fmt.Sprintf("Import at %s succeeded: %d categories, %d listings, %d attributes.",
				p.LoadedAt.Format("2006-01-02 15:04:05"), p.Categories, p.Listings, p.Attributes)
		}
	default:
		err = fmt.Errorf("unknown event type %q", event.Type)
	}
	return
}
