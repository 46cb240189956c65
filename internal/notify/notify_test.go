package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
)

type fakeChannel struct {
	name  string
	err   error
	calls int
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Deliver(ctx context.Context, c *domain.CustomerRecord, n *domain.Notification) error {
	f.calls++
	return f.err
}

func testNotification() *domain.Notification {
	return &domain.Notification{
		Subject:  "We have personalized support options for you",
		Template: "Hi Asha, check them out: [Link]",
		Message:  "Hi Asha, check them out: http://localhost:8051/customer/intervention?token=CUST-1",
		Link:     "http://localhost:8051/customer/intervention?token=CUST-1",
		SMS:      "CREDIX: Hi Asha, please review your new support options securely: http://localhost:8051/customer/intervention?token=CUST-1",
	}
}

func TestNotifierSend(t *testing.T) {
	customer := &domain.CustomerRecord{CustomerID: "CUST-1", EmailID: "asha@example.com", MobileNumber: "+919800000000"}

	t.Run("both channels", func(t *testing.T) {
		email := &fakeChannel{name: "email"}
		sms := &fakeChannel{name: "sms"}
		d, err := New(email, sms).Send(context.Background(), customer, testNotification())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.EmailSent || !d.SMSSent {
			t.Errorf("expected both channels sent, got %+v", d)
		}
	})

	t.Run("failure is reported not returned", func(t *testing.T) {
		email := &fakeChannel{name: "email", err: errors.New("smtp down")}
		sms := &fakeChannel{name: "sms"}
		d, err := New(email, sms).Send(context.Background(), customer, testNotification())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.EmailSent {
			t.Error("expected email not sent")
		}
		if !d.SMSSent {
			t.Error("expected sms sent")
		}
		if email.calls != 1 {
			t.Errorf("expected a single attempt, got %d", email.calls)
		}
	})

	t.Run("disabled channels", func(t *testing.T) {
		d, _ := New(nil, nil).Send(context.Background(), customer, testNotification())
		if d.EmailSent || d.SMSSent {
			t.Errorf("expected nothing sent, got %+v", d)
		}
	})
}

func TestSMSSender(t *testing.T) {
	sms := NewSMSSender()
	if err := sms.Deliver(context.Background(), &domain.CustomerRecord{CustomerID: "CUST-1", MobileNumber: "+919800000000"}, testNotification()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := sms.Deliver(context.Background(), &domain.CustomerRecord{CustomerID: "CUST-2", MobileNumber: "nan"}, testNotification()); err == nil {
		t.Error("expected error for missing mobile number")
	}
}

func TestRenderEmail(t *testing.T) {
	customer := &domain.CustomerRecord{CustomerID: "CUST-1", FullName: "Asha <Rao>"}
	body, err := RenderEmail(customer, testNotification())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(body, "[Link]") {
		t.Error("placeholder should be removed from the body")
	}
	if !strings.Contains(body, "Asha &lt;Rao&gt;") {
		t.Error("expected name to be HTML escaped")
	}
	if !strings.Contains(body, `href="http://localhost:8051/customer/intervention?token=CUST-1"`) {
		t.Error("expected link button")
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Run("no smtp host", func(t *testing.T) {
		n, err := NewFromConfig(domain.NotificationConfig{SMSEnabled: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.email != nil {
			t.Error("expected email channel disabled")
		}
		if n.sms == nil {
			t.Error("expected sms channel enabled")
		}
	})

	t.Run("smtp host", func(t *testing.T) {
		n, err := NewFromConfig(domain.NotificationConfig{
			SMTPHost:     "smtp.example.com",
			SMTPPort:     587,
			SMTPUsername: "alerts@example.com",
			SMTPPassword: "secret",
			SMTPTimeout:  5 * time.Second,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n.email == nil {
			t.Error("expected email channel enabled")
		}
		if n.sms != nil {
			t.Error("expected sms channel disabled")
		}
	})
}

func TestEmailSenderRejectsMissingEmail(t *testing.T) {
	sender, err := NewEmailSender(domain.NotificationConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "alerts@example.com"})
	if err != nil {
		t.Fatalf("failed to create sender: %v", err)
	}
	err = sender.Deliver(context.Background(), &domain.CustomerRecord{CustomerID: "CUST-1", EmailID: "nan"}, testNotification())
	if err == nil {
		t.Error("expected error for missing email")
	}
}

func TestEmailMessage(t *testing.T) {
	sender, err := NewEmailSender(domain.NotificationConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "alerts@example.com"})
	if err != nil {
		t.Fatalf("failed to create sender: %v", err)
	}

	if _, err := sender.buildMessage(&domain.CustomerRecord{CustomerID: "CUST-1", EmailID: "asha@example.com"}, testNotification()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := sender.buildMessage(&domain.CustomerRecord{CustomerID: "CUST-1", EmailID: "not an address"}, testNotification()); err == nil {
		t.Error("expected error for invalid recipient")
	}
}
