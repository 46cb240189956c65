package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opensource-finance/credix/internal/domain"
)

// SMSSender writes SMS messages to the structured log. No gateway is wired.
type SMSSender struct {
	logger *slog.Logger
}

// NewSMSSender creates a log-only SMS channel.
func NewSMSSender() *SMSSender {
	return &SMSSender{logger: slog.Default().With("channel", "sms")}
}

// Name implements Channel.
func (s *SMSSender) Name() string { return "sms" }

// Deliver logs the SMS body for the customer's mobile number.
func (s *SMSSender) Deliver(ctx context.Context, customer *domain.CustomerRecord, n *domain.Notification) error {
	if !customer.HasMobile() {
		return fmt.Errorf("customer %s has no mobile number", customer.CustomerID)
	}
	s.logger.InfoContext(ctx, "sms sent",
		"customer_id", customer.CustomerID,
		"mobile_number", customer.MobileNumber,
		"message", n.SMS,
	)
	return nil
}
