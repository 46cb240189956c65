// Package worker dispatches intervention alerts off the request path.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/credix/internal/bus"
	"github.com/opensource-finance/credix/internal/domain"
)

// Dispatcher sends the alert for one customer.
type Dispatcher interface {
	DispatchAlertByID(ctx context.Context, customerID string) (*domain.AlertResult, error)
}

// Worker consumes alert requests from the EventBus.
type Worker struct {
	bus        domain.EventBus
	dispatcher Dispatcher

	mu            sync.Mutex
	subscriptions []domain.Subscription
	stopping      bool
	slots         chan struct{}
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
}

// Config holds worker configuration.
type Config struct {
	// Concurrency bounds in-flight dispatches.
	Concurrency int
}

// NewWorker creates a new async worker.
func NewWorker(eventBus domain.EventBus, dispatcher Dispatcher) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:        eventBus,
		dispatcher: dispatcher,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to alert requests.
func (w *Worker) Start(cfg Config) error {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	w.slots = make(chan struct{}, cfg.Concurrency)

	sub, err := w.bus.Subscribe(w.ctx, domain.TopicAlertRequested, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", domain.TopicAlertRequested, err)
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()

	slog.Info("alert worker started",
		"topic", domain.TopicAlertRequested,
		"concurrency", cfg.Concurrency,
	)
	return nil
}

// errStopping rejects requests that arrive after Stop has begun.
var errStopping = errors.New("worker is stopping")

// handleMessage hands a request to a free slot so the subscription keeps draining.
// Dispatches run under the worker context, not the subscription context, so
// unsubscribing never aborts a send that has already started.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var req domain.AlertRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse alert request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if req.TraceID == "" {
		req.TraceID = msg.ID
	}

	w.mu.Lock()
	if w.stopping {
		w.mu.Unlock()
		return errStopping
	}
	w.wg.Add(1)
	w.mu.Unlock()

	select {
	case w.slots <- struct{}{}:
	case <-ctx.Done():
		w.wg.Done()
		return ctx.Err()
	}

	go func() {
		defer w.wg.Done()
		defer func() { <-w.slots }()
		w.process(w.ctx, req)
	}()
	return nil
}

func (w *Worker) process(ctx context.Context, req domain.AlertRequest) {
	start := time.Now()

	slog.Debug("processing alert request",
		"customer_id", req.CustomerID,
		"trace_id", req.TraceID,
		"requested_by", req.RequestedBy,
	)

	result, err := w.dispatcher.DispatchAlertByID(ctx, req.CustomerID)
	if err != nil {
		w.failed.Add(1)
		slog.Warn("alert request failed",
			"customer_id", req.CustomerID,
			"trace_id", req.TraceID,
			"error", err,
		)

		failure := domain.AlertFailure{CustomerID: req.CustomerID, Error: err.Error(), TraceID: req.TraceID}
		if err := bus.PublishJSON(ctx, w.bus, domain.TopicAlertFailed, failure); err != nil {
			slog.Error("failed to publish alert failure",
				"customer_id", req.CustomerID,
				"error", err,
			)
		}
		return
	}

	w.processed.Add(1)
	slog.Info("alert request processed",
		"customer_id", req.CustomerID,
		"trace_id", req.TraceID,
		"alert_id", result.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop unsubscribes and waits for in-flight dispatches to finish.
// The worker context is cancelled only once they have returned.
func (w *Worker) Stop() error {
	w.mu.Lock()
	w.stopping = true
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil
	w.mu.Unlock()

	w.wg.Wait()
	w.cancel()

	slog.Info("alert worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
	Processed         int64    `json:"processed"`
	Failed            int64    `json:"failed"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
		Processed:         w.processed.Load(),
		Failed:            w.failed.Load(),
	}
}
