package repository

// Schema definitions for the Credix database.
// Compatible with both SQLite and PostgreSQL.

// schemaCustomers holds the merged risk + CRM dataset, one row per customer.
// Risk attributes are nullable: NULL means "absent" and is defaulted on read.
const schemaCustomers = `
CREATE TABLE IF NOT EXISTS customers (
    customer_id TEXT PRIMARY KEY,
    probability_of_default REAL,
    tenure_months INTEGER,
    salary_credit_delay_days INTEGER,
    savings_balance_trend_percent REAL,
    utility_payment_delay_days INTEGER,
    credit_utilization_percent REAL,
    failed_auto_debits_last_3m INTEGER,
    existing_liabilities_inr REAL,
    emi_amount REAL,
    monthly_income REAL,
    risk_trend INTEGER,
    bureau_score INTEGER,
    target INTEGER,
    full_name TEXT NOT NULL DEFAULT '',
    email_id TEXT NOT NULL DEFAULT '',
    mobile_number TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_customers_pd ON customers(probability_of_default);
`

// schemaAlerts is the audit trail of dispatched intervention alerts.
const schemaAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    risk_band TEXT NOT NULL,
    email_sent INTEGER NOT NULL DEFAULT 0,
    sms_sent INTEGER NOT NULL DEFAULT 0,
    token TEXT NOT NULL,
    link TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alerts_customer ON alerts(customer_id);
CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
`

// addedColumns are columns introduced after a table's first release.
// Databases created earlier are extended in place at startup.
var addedColumns = []struct {
	table, column, ddl string
}{
	{"customers", "target", "INTEGER"},
}

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaCustomers,
		schemaAlerts,
	}
}
