// Package domain defines the core interfaces and types for Credix.
package domain

import (
	"context"
	"time"
)

// CustomerRepository is the dataset collaborator: a read-mostly store of
// customer records plus the audit trail of dispatched alerts.
type CustomerRepository interface {
	// Customer records
	SaveCustomer(ctx context.Context, c *CustomerRecord) error
	GetCustomer(ctx context.Context, customerID string) (*CustomerRecord, error)
	ListCustomers(ctx context.Context) ([]*CustomerRecord, error)

	// TopByDefaultProbability returns up to limit customers ordered by PD descending.
	TopByDefaultProbability(ctx context.Context, limit int) ([]*CustomerRecord, error)

	// FirstAbove returns the first customer (by id) whose PD exceeds threshold.
	FirstAbove(ctx context.Context, threshold float64) (*CustomerRecord, error)

	// Alert dispatch audit
	SaveAlert(ctx context.Context, alert *AlertResult) error
	ListAlerts(ctx context.Context, customerID string) ([]*AlertResult, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
