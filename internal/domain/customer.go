package domain

import "strings"

// Defaults applied when a customer attribute is absent from the dataset.
const (
	DefaultTenureMonths = 12
	DefaultCustomerName = "Valued Customer"
	DefaultBureauScore  = 750
)

// CustomerRecord is one row of the merged risk + CRM dataset.
// Every risk attribute is optional: a nil field means "absent" and the
// accessor methods return the documented default instead.
type CustomerRecord struct {
	CustomerID string `json:"customer_id" csv:"customer_id"`

	// Model output
	ProbabilityOfDefault *float64 `json:"probability_of_default,omitempty" csv:"probability_of_default,omitempty"`

	// Behavioural signals
	TenureMonths               *int     `json:"tenure_months,omitempty" csv:"tenure_months,omitempty"`
	SalaryCreditDelayDays      *int     `json:"salary_credit_delay_days,omitempty" csv:"salary_credit_delay_days,omitempty"`
	SavingsBalanceTrendPercent *float64 `json:"savings_balance_trend_percent,omitempty" csv:"savings_balance_trend_percent,omitempty"`
	UtilityPaymentDelayDays    *int     `json:"utility_payment_delay_days,omitempty" csv:"utility_payment_delay_days,omitempty"`
	CreditUtilizationPercent   *float64 `json:"credit_utilization_percent,omitempty" csv:"credit_utilization_percent,omitempty"`
	FailedAutoDebitsLast3M     *int     `json:"failed_auto_debits_last_3m,omitempty" csv:"failed_auto_debits_last_3m,omitempty"`

	// Portfolio attributes
	ExistingLiabilities *float64 `json:"existing_liabilities_inr,omitempty" csv:"existing_liabilities_inr,omitempty"`
	EMIAmount           *float64 `json:"emi_amount,omitempty" csv:"emi_amount,omitempty"`
	MonthlyIncome       *float64 `json:"monthly_income,omitempty" csv:"monthly_income,omitempty"`
	RiskTrend           *int     `json:"risk_trend,omitempty" csv:"risk_trend,omitempty"`
	BureauScore         *int     `json:"bureau_score,omitempty" csv:"bureau_score,omitempty"`

	// Observed outcome label (1 defaulted, 0 did not), used to back-test PD cutoffs
	Target *int `json:"target,omitempty" csv:"target,omitempty"`

	// Messaging only, never used by risk logic
	FullName     string `json:"full_name,omitempty" csv:"full_name,omitempty"`
	EmailID      string `json:"email_id,omitempty" csv:"email_id,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty" csv:"mobile_number,omitempty"`
}

// Risk trend codes used by the operations worklist.
const (
	TrendStable     = 0
	TrendIncreasing = 1
	TrendDecreasing = 2
)

// PD returns the probability of default, 0.0 when absent.
func (c *CustomerRecord) PD() float64 { return floatOr(c.ProbabilityOfDefault, 0) }

// Tenure returns the relationship length in months, 12 when absent.
func (c *CustomerRecord) Tenure() int { return intOr(c.TenureMonths, DefaultTenureMonths) }

func (c *CustomerRecord) SalaryDelay() int { return intOr(c.SalaryCreditDelayDays, 0) }
func (c *CustomerRecord) SavingsTrend() float64 { return floatOr(c.SavingsBalanceTrendPercent, 0) }
func (c *CustomerRecord) UtilityDelay() int { return intOr(c.UtilityPaymentDelayDays, 0) }
func (c *CustomerRecord) CreditUtilization() float64 { return floatOr(c.CreditUtilizationPercent, 0) }
func (c *CustomerRecord) FailedAutoDebits() int { return intOr(c.FailedAutoDebitsLast3M, 0) }
func (c *CustomerRecord) Exposure() float64 { return floatOr(c.ExistingLiabilities, 0) }
func (c *CustomerRecord) EMI() float64 { return floatOr(c.EMIAmount, 0) }
func (c *CustomerRecord) Trend() int { return intOr(c.RiskTrend, TrendStable) }
func (c *CustomerRecord) Bureau() int { return intOr(c.BureauScore, DefaultBureauScore) }

// Income returns the monthly income, or fallback when the dataset has none.
func (c *CustomerRecord) Income(fallback float64) float64 {
	return floatOr(c.MonthlyIncome, fallback)
}

// DisplayName is the name used in customer-facing messages.
func (c *CustomerRecord) DisplayName() string {
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	return DefaultCustomerName
}

// FirstName is the first word of DisplayName, used in greetings.
func (c *CustomerRecord) FirstName() string {
	return strings.Fields(c.DisplayName())[0]
}

// HasEmail reports whether the record carries a usable email address.
// Empty values and the literal "nan" left behind by dataframe exports are unusable.
func (c *CustomerRecord) HasEmail() bool {
	email := strings.TrimSpace(c.EmailID)
	return email != "" && !strings.EqualFold(email, "nan")
}

// HasMobile reports whether the record carries a usable mobile number.
func (c *CustomerRecord) HasMobile() bool {
	mobile := strings.TrimSpace(c.MobileNumber)
	return mobile != "" && !strings.EqualFold(mobile, "nan")
}

// Float and Int build optional attribute values.
func Float(v float64) *float64 { return &v }
func Int(v int) *int { return &v }

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
