// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.CustomerRepository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}

	for _, c := range addedColumns {
		// Selecting a missing column fails on both drivers.
		if _, err := r.db.Exec(`SELECT ` + c.column + ` FROM ` + c.table + ` LIMIT 0`); err == nil {
			continue
		}
		if _, err := r.db.Exec(`ALTER TABLE ` + c.table + ` ADD COLUMN ` + c.column + ` ` + c.ddl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", c.table, c.column, err)
		}
		slog.Info("added column", "table", c.table, "column", c.column)
	}
	return nil
}

const customerColumns = `
	customer_id, probability_of_default, tenure_months,
	salary_credit_delay_days, savings_balance_trend_percent,
	utility_payment_delay_days, credit_utilization_percent,
	failed_auto_debits_last_3m, existing_liabilities_inr,
	emi_amount, monthly_income, risk_trend, bureau_score, target,
	full_name, email_id, mobile_number`

// SaveCustomer inserts or replaces a customer record.
func (r *SQLRepository) SaveCustomer(ctx context.Context, c *domain.CustomerRecord) error {
	if c == nil || strings.TrimSpace(c.CustomerID) == "" {
		return fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO customers (` + customerColumns + `,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			probability_of_default = excluded.probability_of_default,
			tenure_months = excluded.tenure_months,
			salary_credit_delay_days = excluded.salary_credit_delay_days,
			savings_balance_trend_percent = excluded.savings_balance_trend_percent,
			utility_payment_delay_days = excluded.utility_payment_delay_days,
			credit_utilization_percent = excluded.credit_utilization_percent,
			failed_auto_debits_last_3m = excluded.failed_auto_debits_last_3m,
			existing_liabilities_inr = excluded.existing_liabilities_inr,
			emi_amount = excluded.emi_amount,
			monthly_income = excluded.monthly_income,
			risk_trend = excluded.risk_trend,
			bureau_score = excluded.bureau_score,
			target = excluded.target,
			full_name = excluded.full_name,
			email_id = excluded.email_id,
			mobile_number = excluded.mobile_number,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.CustomerID, nullFloat(c.ProbabilityOfDefault), nullInt(c.TenureMonths),
		nullInt(c.SalaryCreditDelayDays), nullFloat(c.SavingsBalanceTrendPercent),
		nullInt(c.UtilityPaymentDelayDays), nullFloat(c.CreditUtilizationPercent),
		nullInt(c.FailedAutoDebitsLast3M), nullFloat(c.ExistingLiabilities),
		nullFloat(c.EMIAmount), nullFloat(c.MonthlyIncome), nullInt(c.RiskTrend), nullInt(c.BureauScore),
		nullInt(c.Target), c.FullName, c.EmailID, c.MobileNumber,
		now, now,
	)
	return err
}

// GetCustomer retrieves a customer by id.
func (r *SQLRepository) GetCustomer(ctx context.Context, customerID string) (*domain.CustomerRecord, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = ?`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, r.rebind(query), customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCustomers returns every customer ordered by id.
func (r *SQLRepository) ListCustomers(ctx context.Context) ([]*domain.CustomerRecord, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY customer_id`
	return r.queryCustomers(ctx, query)
}

// TopByDefaultProbability returns up to limit customers with the highest PD.
// Customers without a PD sort as 0.
func (r *SQLRepository) TopByDefaultProbability(ctx context.Context, limit int) ([]*domain.CustomerRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		ORDER BY COALESCE(probability_of_default, 0) DESC, customer_id
		LIMIT ?
	`
	return r.queryCustomers(ctx, query, limit)
}

// FirstAbove returns the first customer by id whose PD exceeds threshold.
func (r *SQLRepository) FirstAbove(ctx context.Context, threshold float64) (*domain.CustomerRecord, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE probability_of_default > ?
		ORDER BY customer_id
		LIMIT 1
	`

	c, err := scanCustomer(r.db.QueryRowContext(ctx, r.rebind(query), threshold))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *SQLRepository) queryCustomers(ctx context.Context, query string, args ...any) ([]*domain.CustomerRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*domain.CustomerRecord
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	return customers, rows.Err()
}

// SaveAlert records a dispatched alert.
func (r *SQLRepository) SaveAlert(ctx context.Context, alert *domain.AlertResult) error {
	if alert == nil || alert.ID == "" || alert.CustomerID == "" {
		return fmt.Errorf("%w: alert id and customer_id are required", ErrInvalidInput)
	}

	query := `
		INSERT INTO alerts (
			id, customer_id, risk_band, email_sent, sms_sent, token, link, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		alert.ID, alert.CustomerID, string(alert.RiskBand),
		boolToInt(alert.EmailSent), boolToInt(alert.SMSSent),
		alert.Token, alert.Link, alert.Timestamp,
	)
	return err
}

// ListAlerts returns the alerts sent to a customer, newest first.
func (r *SQLRepository) ListAlerts(ctx context.Context, customerID string) ([]*domain.AlertResult, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}

	query := `
		SELECT id, customer_id, risk_band, email_sent, sms_sent, token, link, timestamp
		FROM alerts
		WHERE customer_id = ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.AlertResult
	for rows.Next() {
		var a domain.AlertResult
		var band string
		var emailSent, smsSent int

		if err := rows.Scan(
			&a.ID, &a.CustomerID, &band, &emailSent, &smsSent,
			&a.Token, &a.Link, &a.Timestamp,
		); err != nil {
			return nil, err
		}

		a.RiskBand = domain.RiskBand(band)
		a.EmailSent = emailSent == 1
		a.SMSSent = smsSent == 1
		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.CustomerRecord, error) {
	var c domain.CustomerRecord
	var pd, savings, utilization, exposure, emi, income sql.NullFloat64
	var tenure, salary, utility, failed, trend, bureau, target sql.NullInt64

	if err := row.Scan(
		&c.CustomerID, &pd, &tenure,
		&salary, &savings,
		&utility, &utilization,
		&failed, &exposure,
		&emi, &income, &trend, &bureau, &target,
		&c.FullName, &c.EmailID, &c.MobileNumber,
	); err != nil {
		return nil, err
	}

	c.ProbabilityOfDefault = floatPtr(pd)
	c.TenureMonths = intPtr(tenure)
	c.SalaryCreditDelayDays = intPtr(salary)
	c.SavingsBalanceTrendPercent = floatPtr(savings)
	c.UtilityPaymentDelayDays = intPtr(utility)
	c.CreditUtilizationPercent = floatPtr(utilization)
	c.FailedAutoDebitsLast3M = intPtr(failed)
	c.ExistingLiabilities = floatPtr(exposure)
	c.EMIAmount = floatPtr(emi)
	c.MonthlyIncome = floatPtr(income)
	c.RiskTrend = intPtr(trend)
	c.BureauScore = intPtr(bureau)
	c.Target = intPtr(target)

	return &c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return domain.Float(v.Float64)
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return domain.Int(int(v.Int64))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ domain.CustomerRepository = (*SQLRepository)(nil)
