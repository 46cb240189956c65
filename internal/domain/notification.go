package domain

import (
	"context"
	"time"
)

// Delivery reports which channels accepted a notification.
type Delivery struct {
	EmailSent bool `json:"emailSent"`
	SMSSent   bool `json:"smsSent"`
}

// LinkPlaceholder marks where the intervention link goes in a message template.
const LinkPlaceholder = "[Link]"

// Notification is a rendered message ready for dispatch.
type Notification struct {
	Subject  string
	Template string // band message still holding LinkPlaceholder
	Message  string // Template with the link substituted
	Link     string
	SMS      string
}

// Notifier delivers an intervention notification over email and SMS.
type Notifier interface {
	Send(ctx context.Context, customer *CustomerRecord, n *Notification) (Delivery, error)
}

// AlertResult is the outcome of dispatching one intervention alert.
type AlertResult struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	RiskBand   RiskBand  `json:"riskBand"`
	EmailSent  bool      `json:"emailSent"`
	SMSSent    bool      `json:"smsSent"`
	Token      string    `json:"token"`
	Link       string    `json:"link"`
	Timestamp  time.Time `json:"timestamp"`
}

// NotificationConfig holds transport settings, injected at construction.
type NotificationConfig struct {
	// BaseURL is the intervention portal origin used to build links.
	BaseURL string

	// SMTP settings. Email is disabled when SMTPHost is empty.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration

	// SMSEnabled toggles the SMS channel.
	SMSEnabled bool
}
