package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/opensource-finance/credix/internal/domain"
	"github.com/wneessen/go-mail"
)

var emailTemplate = template.Must(template.New("alert").Parse(`<html>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 8px;">
      <h2 style="color: #0a2342;">CREDIX Support</h2>
      <p>Hi {{.Name}},</p>
      <p>{{.Message}}</p>
      <p>We have created a personalized portal for you to review your options.</p>
      <div style="text-align: center; margin: 30px 0;">
        <a href="{{.Link}}" style="background-color: #0a2342; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">View Your Personalized Options</a>
      </div>
    </div>
  </body>
</html>
`))

type emailView struct {
	Name    string
	Message string
	Link    string
}

// RenderEmail builds the HTML body. The link placeholder is replaced by a button.
func RenderEmail(customer *domain.CustomerRecord, n *domain.Notification) (string, error) {
	view := emailView{
		Name:    customer.DisplayName(),
		Message: strings.TrimSpace(strings.ReplaceAll(n.Template, domain.LinkPlaceholder, "")),
		Link:    n.Link,
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	from   string
	client *mail.Client
}

// NewEmailSender creates an SMTP sender. Credentials come only from cfg.
func NewEmailSender(cfg domain.NotificationConfig) (*EmailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPTimeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.SMTPTimeout))
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &EmailSender{from: from, client: client}, nil
}

// Name implements Channel.
func (s *EmailSender) Name() string { return "email" }

// Deliver sends one message and closes the connection.
func (s *EmailSender) Deliver(ctx context.Context, customer *domain.CustomerRecord, n *domain.Notification) error {
	if !customer.HasEmail() {
		return fmt.Errorf("customer %s has no email address", customer.CustomerID)
	}

	msg, err := s.buildMessage(customer, n)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailSender) buildMessage(customer *domain.CustomerRecord, n *domain.Notification) (*mail.Msg, error) {
	body, err := RenderEmail(customer, n)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(strings.TrimSpace(customer.EmailID)); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(mail.TypeTextPlain, n.Message)
	msg.AddAlternativeString(mail.TypeTextHTML, body)
	return msg, nil
}
