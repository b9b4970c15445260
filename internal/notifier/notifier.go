// Package notifier turns storefront events into operator emails.
package notifier

import (
	"encoding/json"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"github.com/huutix/storefront/internal/repository"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	To       string
}

type Mailer struct {
	config SMTPConfig
}

func NewMailer(config SMTPConfig) *Mailer {
	return &Mailer{config: config}
}

// Handle inspects the event envelope and sends the matching notification.
// Unknown events are logged and skipped so the consumer never wedges on a
// payload it does not understand.
func (m *Mailer) Handle(payload []byte) error {
	var envelope struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	switch envelope.Event {
	case repository.EventOrderCreated:
		var event repository.OrderCreatedPayload
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		return m.send(
			fmt.Sprintf("New order: %s", event.PackageName),
			fmt.Sprintf("Order %s\nPackage: %s\nPrice: %d ILS\nMethod: %s\nCoupon: %s\nCreated: %s\n",
				event.OrderID, event.PackageName, event.Price, event.Method, event.CouponCode, event.CreatedAt),
		)
	case repository.EventPayoutRequested:
		var event repository.PayoutRequestedPayload
		if err := json.Unmarshal(payload, &event); err != nil {
			return fmt.Errorf("failed to decode payout event: %w", err)
		}
		return m.send(
			fmt.Sprintf("Payout requested by %s", event.Username),
			fmt.Sprintf("Affiliate #%d (%s) requested a payout of %d ILS via %s.\n",
				event.AffiliateID, event.Username, event.Amount, event.Method),
		)
	case repository.EventAuditLog:
		// audit entries are consumed for the log trail only
		zap.S().Infow("audit event", "payload", string(payload))
		return nil
	default:
		zap.S().Warnw("skipping unknown event", "event", envelope.Event)
		return nil
	}
}

func (m *Mailer) send(subject, body string) error {
	msg := email.NewEmail()
	msg.From = m.config.From
	msg.To = []string{m.config.To}
	msg.Subject = subject
	msg.Text = []byte(body)

	addr := m.config.Host + ":" + m.config.Port
	auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	if err := msg.Send(addr, auth); err != nil {
		return fmt.Errorf("failed to send email %q: %w", subject, err)
	}

	zap.S().Infow("notification sent", "subject", subject)
	return nil
}
