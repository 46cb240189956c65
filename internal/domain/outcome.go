package domain

import (
	"context"
	"strings"
	"time"
)

// Interaction statuses recorded in the outcome log. Free-form statuses are also accepted.
const (
	StatusOpened   = "OPENED"
	StatusAccepted = "ACCEPTED"
	StatusDeclined = "DECLINED"
)

// PlanNotApplicable is the plan id written for events not tied to a plan.
const PlanNotApplicable = "N/A"

// OutcomeLogVersion is the current line format version.
const OutcomeLogVersion = 1

// OutcomeLogEntry is one customer interaction with the intervention flow.
// Entries are append-only and never mutated.
type OutcomeLogEntry struct {
	Version    int       `json:"v"`
	Timestamp  time.Time `json:"timestamp"`
	CustomerID string    `json:"customer_id"`
	PlanID     *string   `json:"plan_id"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
}

// PlanRef returns the plan id or PlanNotApplicable.
func (e OutcomeLogEntry) PlanRef() string {
	if e.PlanID == nil || *e.PlanID == "" {
		return PlanNotApplicable
	}
	return *e.PlanID
}

// IsAccepted matches ACCEPTED and its variants such as ACCEPTED_FROM_DETAILS.
func IsAccepted(status string) bool { return strings.HasPrefix(status, StatusAccepted) }

// IsOpened matches OPENED and its page variants such as OPENED_LOW.
func IsOpened(status string) bool { return strings.HasPrefix(status, StatusOpened) }

// IsDeclined matches DECLINED and its variants.
func IsDeclined(status string) bool { return strings.HasPrefix(status, StatusDeclined) }

// OutcomeLog is the durable, append-only store of interaction events.
type OutcomeLog interface {
	// Append writes one entry as a single line.
	Append(ctx context.Context, entry *OutcomeLogEntry) error

	// Entries returns the history of one customer in write order.
	Entries(ctx context.Context, customerID string) ([]*OutcomeLogEntry, error)

	// Summary aggregates distinct customers per status across the whole log.
	Summary(ctx context.Context) (*EngagementSummary, error)

	Close() error
}

// EngagementSummary is what the operations view reads from the outcome log.
type EngagementSummary struct {
	OpenedCustomers   int            `json:"openedCustomers"`
	AcceptedCustomers int            `json:"acceptedCustomers"`
	DeclinedCustomers int            `json:"declinedCustomers"`
	StatusCounts      map[string]int `json:"statusCounts"`
	Lines             int            `json:"lines"`
	Skipped           int            `json:"skipped"`
}
