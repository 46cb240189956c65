// Package notify delivers intervention alerts to customers over email and SMS.
package notify

import (
	"context"
	"log/slog"

	"github.com/opensource-finance/credix/internal/domain"
)

// Channel delivers a notification over one transport.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, customer *domain.CustomerRecord, n *domain.Notification) error
}

// Notifier fans a notification out to the email and SMS channels.
// Each channel is tried once; a failure is reported in Delivery, not as an error.
type Notifier struct {
	email Channel
	sms   Channel
}

// New creates a Notifier. Either channel may be nil to disable it.
func New(email, sms Channel) *Notifier {
	return &Notifier{email: email, sms: sms}
}

// NewFromConfig wires the SMTP and SMS channels from configuration.
// Email is disabled when no SMTP host is configured.
func NewFromConfig(cfg domain.NotificationConfig) (*Notifier, error) {
	var email Channel
	if cfg.SMTPHost != "" {
		sender, err := NewEmailSender(cfg)
		if err != nil {
			return nil, err
		}
		email = sender
	} else {
		slog.Warn("SMTP host not configured, email channel disabled")
	}

	var sms Channel
	if cfg.SMSEnabled {
		sms = NewSMSSender()
	}
	return New(email, sms), nil
}

// Send delivers n to customer on every enabled channel.
func (n *Notifier) Send(ctx context.Context, customer *domain.CustomerRecord, msg *domain.Notification) (domain.Delivery, error) {
	return domain.Delivery{
		EmailSent: n.deliver(ctx, n.email, customer, msg),
		SMSSent:   n.deliver(ctx, n.sms, customer, msg),
	}, nil
}

func (n *Notifier) deliver(ctx context.Context, ch Channel, customer *domain.CustomerRecord, msg *domain.Notification) bool {
	if ch == nil {
		return false
	}
	if err := ch.Deliver(ctx, customer, msg); err != nil {
		slog.Error("notification delivery failed",
			"channel", ch.Name(),
			"customer_id", customer.CustomerID,
			"error", err,
		)
		return false
	}
	slog.Info("notification delivered",
		"channel", ch.Name(),
		"customer_id", customer.CustomerID,
	)
	return true
}

var _ domain.Notifier = (*Notifier)(nil)
