// Package intervention orchestrates the customer-facing intervention flow:
// token resolution, messaging, alert dispatch and outcome recording.
package intervention

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/opensource-finance/credix/internal/bus"
	"github.com/opensource-finance/credix/internal/cache"
	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/outcome"
	"github.com/opensource-finance/credix/internal/plans"
	"github.com/opensource-finance/credix/internal/repository"
	"github.com/opensource-finance/credix/internal/risk"
)

var (
	// ErrMissingEmail is returned by DispatchAlert when a customer has no usable email address.
	ErrMissingEmail = errors.New("missing email_id")

	// ErrCustomerNotFound is returned when a token or id resolves to no customer.
	ErrCustomerNotFound = errors.New("customer not found")
)

const (
	alertSubject = "We have personalized support options for you"
	tracerName   = "credix-intervention"
)

// Config holds the orchestrator settings.
type Config struct {
	// BaseURL is the portal origin used to build intervention links.
	BaseURL string

	// DemoMode enables the fallback customer for unresolvable tokens.
	// Tokens are plaintext customer ids and are not secure capabilities either way.
	DemoMode      bool
	DemoThreshold float64

	ScanLimit       int
	ScanConcurrency int

	// CustomerTTL bounds how long a resolved record is served from cache.
	CustomerTTL time.Duration
}

// ConfigFrom derives the orchestrator settings from the service configuration.
func ConfigFrom(cfg *domain.Config) Config {
	return Config{
		BaseURL:         cfg.Notification.BaseURL,
		DemoMode:        cfg.Intervention.DemoMode,
		DemoThreshold:   cfg.Intervention.DemoThreshold,
		ScanLimit:       cfg.Intervention.ScanLimit,
		ScanConcurrency: cfg.Intervention.ScanConcurrency,
		CustomerTTL:     cfg.Cache.CustomerTTL,
	}
}

// Service is the intervention orchestrator.
type Service struct {
	cfg        Config
	classifier *risk.Classifier
	repo       domain.CustomerRepository
	cache      domain.Cache
	outcomes   domain.OutcomeLog
	notifier   domain.Notifier
	bus        domain.EventBus
}

// NewService creates an orchestrator. cache and bus may be nil.
func NewService(cfg Config, classifier *risk.Classifier, repo domain.CustomerRepository, customerCache domain.Cache, outcomes domain.OutcomeLog, notifier domain.Notifier, eventBus domain.EventBus) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8051"
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 3
	}
	if cfg.ScanConcurrency <= 0 {
		cfg.ScanConcurrency = 4
	}
	if cfg.CustomerTTL <= 0 {
		cfg.CustomerTTL = 5 * time.Minute
	}

	return &Service{
		cfg:        cfg,
		classifier: classifier,
		repo:       repo,
		cache:      customerCache,
		outcomes:   outcomes,
		notifier:   notifier,
		bus:        eventBus,
	}
}

// Classifier returns the risk classifier used by the service.
func (s *Service) Classifier() *risk.Classifier {
	return s.classifier
}

// Customer loads one customer, reading through the cache.
func (s *Service) Customer(ctx context.Context, customerID string) (*domain.CustomerRecord, error) {
	if s.cache != nil {
		c, err := s.cache.GetCustomer(ctx, customerID)
		if err != nil {
			slog.Warn("customer cache read failed",
				"customer_id", customerID,
				"error", err,
			)
		}
		if c != nil {
			return c, nil
		}
	}

	c, err := s.repo.GetCustomer(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidInput) {
		return nil, fmt.Errorf("%w: %q", ErrCustomerNotFound, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}

	if s.cache != nil {
		if err := s.cache.SetCustomer(ctx, c, s.cfg.CustomerTTL); err != nil {
			slog.Warn("customer cache write failed",
				"customer_id", customerID,
				"error", err,
			)
		}
	}
	return c, nil
}

// ResolveCustomer looks up the customer behind an intervention token and
// records an OPENED outcome. The token is the plaintext customer id.
// In demo mode an unresolvable token degrades to a fallback customer and
// degraded is true; otherwise ErrCustomerNotFound is returned.
func (s *Service) ResolveCustomer(ctx context.Context, token string) (c *domain.CustomerRecord, degraded bool, err error) {
	c, err = s.Customer(ctx, token)
	if err != nil {
		if !s.cfg.DemoMode {
			return nil, false, err
		}

		fallback, ferr := s.demoCustomer(ctx)
		if ferr != nil {
			return nil, false, fmt.Errorf("%w: %w", err, ferr)
		}

		slog.Warn("token unresolved, serving demo customer",
			"token", token,
			"customer_id", fallback.CustomerID,
			"error", err,
		)
		c, degraded = fallback, true
	}

	s.LogOutcome(ctx, c.CustomerID, nil, domain.StatusOpened, "")
	return c, degraded, nil
}

func (s *Service) demoCustomer(ctx context.Context) (*domain.CustomerRecord, error) {
	c, err := s.repo.FirstAbove(ctx, s.cfg.DemoThreshold)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load demo customer: %w", err)
	}

	all, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load demo customer: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrCustomerNotFound)
	}
	return all[0], nil
}

// RenderMessage returns the alert message for a band. The result always
// contains domain.LinkPlaceholder for the caller to substitute.
func RenderMessage(name string, band domain.RiskBand) string {
	switch band {
	case domain.RiskHigh:
		return fmt.Sprintf("Hi %s, we noticed some recent changes in your account activity and would like to help you stay financially comfortable. Please review your personalized options here: %s", name, domain.LinkPlaceholder)
	case domain.RiskModerate:
		return fmt.Sprintf("Hi %s, to help you manage your upcoming payments more easily, we've prepared some flexible options for you. Check them out: %s", name, domain.LinkPlaceholder)
	default:
		return fmt.Sprintf("Hi %s, thank you for banking with us! We have some new rewards and tips to help you grow your financial health. View here: %s", name, domain.LinkPlaceholder)
	}
}

// Link returns the intervention portal link for a customer.
func (s *Service) Link(customerID string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/customer/intervention?token=" + url.QueryEscape(customerID)
}

// LogOutcome appends one interaction to the outcome log.
// Failures are logged and never returned.
func (s *Service) LogOutcome(ctx context.Context, customerID string, planID *string, status, reason string) {
	entry := &domain.OutcomeLogEntry{
		CustomerID: customerID,
		PlanID:     planID,
		Status:     status,
		Reason:     reason,
	}

	if err := s.outcomes.Append(ctx, entry); err != nil {
		slog.Error("failed to write outcome log",
			"customer_id", customerID,
			"plan_id", entry.PlanRef(),
			"status", status,
			"error", err,
		)
		return
	}

	slog.Info("outcome logged",
		"customer_id", customerID,
		"plan_id", entry.PlanRef(),
		"status", status,
	)
	s.publish(ctx, domain.TopicOutcomeLogged, entry)
}

// Accept records that the customer accepted a plan.
func (s *Service) Accept(ctx context.Context, customerID, planID string) {
	s.LogOutcome(ctx, customerID, &planID, domain.StatusAccepted, "")
}

// Decline records that the customer declined a plan.
func (s *Service) Decline(ctx context.Context, customerID, planID, reason string) {
	s.LogOutcome(ctx, customerID, &planID, domain.StatusDeclined, reason)
}

// History returns a customer's interactions and the state derived from them.
func (s *Service) History(ctx context.Context, customerID string) ([]*domain.OutcomeLogEntry, string, error) {
	entries, err := s.outcomes.Entries(ctx, customerID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read outcome log: %w", err)
	}
	return entries, outcome.CurrentState(entries), nil
}

// Engagement summarises the outcome log for the operations view.
func (s *Service) Engagement(ctx context.Context) (*domain.EngagementSummary, error) {
	return s.outcomes.Summary(ctx)
}

// DispatchAlert sends the intervention message to one customer.
// A customer without a usable email fails with ErrMissingEmail before any send attempt.
func (s *Service) DispatchAlert(ctx context.Context, c *domain.CustomerRecord) (*domain.AlertResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "intervention.dispatch_alert")
	defer span.End()
	span.SetAttributes(attribute.String("credix.customer_id", c.CustomerID))

	if !c.HasEmail() {
		err := fmt.Errorf("%w for customer %s", ErrMissingEmail, c.CustomerID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing email")
		return nil, err
	}

	band := s.classifier.Classify(c)
	name := c.DisplayName()
	link := s.Link(c.CustomerID)
	template := RenderMessage(name, band)

	n := &domain.Notification{
		Subject:  alertSubject,
		Template: template,
		Message:  strings.ReplaceAll(template, domain.LinkPlaceholder, link),
		Link:     link,
		SMS:      fmt.Sprintf("CREDIX: Hi %s, please review your new support options securely: %s", name, link),
	}

	delivery, err := s.notifier.Send(ctx, c, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notify failed")
		return nil, fmt.Errorf("failed to notify customer %s: %w", c.CustomerID, err)
	}

	result := &domain.AlertResult{
		ID:         uuid.New().String(),
		CustomerID: c.CustomerID,
		RiskBand:   band,
		EmailSent:  delivery.EmailSent,
		SMSSent:    delivery.SMSSent,
		Token:      c.CustomerID,
		Link:       link,
		Timestamp:  time.Now().UTC(),
	}

	span.SetAttributes(
		attribute.String("credix.risk_band", string(band)),
		attribute.Bool("credix.email_sent", result.EmailSent),
		attribute.Bool("credix.sms_sent", result.SMSSent),
	)

	if err := s.repo.SaveAlert(ctx, result); err != nil {
		slog.Error("failed to save alert",
			"customer_id", c.CustomerID,
			"alert_id", result.ID,
			"error", err,
		)
	}

	slog.Info("alert dispatched",
		"customer_id", c.CustomerID,
		"risk_band", band,
		"email_sent", result.EmailSent,
		"sms_sent", result.SMSSent,
	)
	s.publish(ctx, domain.TopicAlertDispatched, result)

	return result, nil
}

// DispatchAlertByID loads a customer and dispatches an alert.
func (s *Service) DispatchAlertByID(ctx context.Context, customerID string) (*domain.AlertResult, error) {
	c, err := s.Customer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.DispatchAlert(ctx, c)
}

// RequestAlert queues an alert for the worker instead of dispatching inline.
func (s *Service) RequestAlert(ctx context.Context, customerID, requestedBy string) error {
	if s.bus == nil {
		return fmt.Errorf("no event bus configured")
	}
	if _, err := s.Customer(ctx, customerID); err != nil {
		return err
	}
	return bus.PublishJSON(ctx, s.bus, domain.TopicAlertRequested, domain.AlertRequest{
		CustomerID:  customerID,
		RequestedBy: requestedBy,
	})
}

// ScanFailure is a customer the scan could not alert.
type ScanFailure struct {
	CustomerID string `json:"customerId"`
	Error      string `json:"error"`
}

// ScanResult is the outcome of a portfolio scan.
type ScanResult struct {
	Scanned  int                   `json:"scanned"`
	Alerts   []*domain.AlertResult `json:"alerts"`
	Failures []ScanFailure         `json:"failures"`
}

// ScanAndAlert dispatches alerts to the limit customers with the highest
// probability of default. limit <= 0 uses the configured default.
// Per-customer failures are collected, not fatal.
func (s *Service) ScanAndAlert(ctx context.Context, limit int) (*ScanResult, error) {
	if limit <= 0 {
		limit = s.cfg.ScanLimit
	}

	customers, err := s.repo.TopByDefaultProbability(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank customers: %w", err)
	}

	alerts := make([]*domain.AlertResult, len(customers))
	errs := make([]error, len(customers))

	var g errgroup.Group
	g.SetLimit(s.cfg.ScanConcurrency)
	for i, c := range customers {
		g.Go(func() error {
			alerts[i], errs[i] = s.DispatchAlert(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	result := &ScanResult{
		Scanned:  len(customers),
		Alerts:   make([]*domain.AlertResult, 0, len(customers)),
		Failures: []ScanFailure{},
	}
	for i, c := range customers {
		if errs[i] != nil {
			slog.Warn("scan alert failed",
				"customer_id", c.CustomerID,
				"error", errs[i],
			)
			result.Failures = append(result.Failures, ScanFailure{CustomerID: c.CustomerID, Error: errs[i].Error()})
			continue
		}
		result.Alerts = append(result.Alerts, alerts[i])
	}

	slog.Info("scan complete",
		"scanned", result.Scanned,
		"alerted", len(result.Alerts),
		"failed", len(result.Failures),
	)
	return result, nil
}

// View is everything the intervention portal renders for one customer.
type View struct {
	CustomerID string                 `json:"customerId"`
	Name       string                 `json:"name"`
	Assessment *domain.RiskAssessment `json:"assessment"`
	Message    string                 `json:"message"`
	Plans      []domain.PlanOffer     `json:"plans"`
	Params     plans.Params           `json:"params"`
	Degraded   bool                   `json:"degraded"`
}

// BuildView resolves a token and assembles the portal payload.
func (s *Service) BuildView(ctx context.Context, token string) (*View, error) {
	c, degraded, err := s.ResolveCustomer(ctx, token)
	if err != nil {
		return nil, err
	}

	assessment := s.classifier.Assess(c)
	params := plans.EstimateParams(c)

	return &View{
		CustomerID: c.CustomerID,
		Name:       c.DisplayName(),
		Assessment: assessment,
		Message:    strings.ReplaceAll(RenderMessage(c.DisplayName(), assessment.Band), domain.LinkPlaceholder, s.Link(c.CustomerID)),
		Plans:      plans.GetPlans(assessment.Band, params),
		Params:     params,
		Degraded:   degraded,
	}, nil
}

// Import loads a dataset or customer master CSV and invalidates cached
// snapshots of every customer it touches.
func (s *Service) Import(ctx context.Context, r io.Reader, master bool) (*repository.ImportStats, error) {
	repo := &invalidatingRepo{CustomerRepository: s.repo, cache: s.cache}
	if master {
		return repository.ImportMaster(ctx, repo, r)
	}
	return repository.ImportDataset(ctx, repo, r)
}

// invalidatingRepo drops the cached snapshot of every customer it saves.
type invalidatingRepo struct {
	domain.CustomerRepository
	cache domain.Cache
}

func (r *invalidatingRepo) SaveCustomer(ctx context.Context, c *domain.CustomerRecord) error {
	if err := r.CustomerRepository.SaveCustomer(ctx, c); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Delete(ctx, cache.CustomerKey(c.CustomerID)); err != nil {
			slog.Warn("customer cache invalidation failed",
				"customer_id", c.CustomerID,
				"error", err,
			)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, topic string, v any) {
	if s.bus == nil {
		return
	}
	if err := bus.PublishJSON(ctx, s.bus, topic, v); err != nil {
		slog.Warn("failed to publish event",
			"topic", topic,
			"error", err,
		)
	}
}
