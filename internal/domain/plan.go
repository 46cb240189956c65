package domain

// PlanType categorises a plan offer.
type PlanType string

const (
	PlanRelief          PlanType = "Relief"
	PlanHoliday         PlanType = "Holiday"
	PlanAssistance      PlanType = "Assistance"
	PlanStabilityReward PlanType = "Stability Reward"
)

// PlanOffer is one relief or reward option presented to a customer.
type PlanOffer struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Tagline      string            `json:"tagline"`
	Type         PlanType          `json:"type"`
	Description  string            `json:"description"`
	Reason       string            `json:"reason"`
	BestFor      string            `json:"bestFor"`
	ImpactAmount string            `json:"impactAmount"`
	Eligibility  []string          `json:"eligibility"`
	Conditions   []string          `json:"conditions"`
	Simulation   *SimulationResult `json:"simulation"`
}

// IsReward reports whether the plan is a stability reward without cash-flow impact.
func (p PlanOffer) IsReward() bool {
	return p.Type == PlanStabilityReward
}

// SimulationResult is the projected before/after repayment picture of a plan.
type SimulationResult struct {
	CurrentEMI         int               `json:"currentEmi"`
	NewEMI             int               `json:"newEmi"`
	CurrentTenure      int               `json:"currentTenure"`
	NewTenure          int               `json:"newTenure"`
	MonthlyRelief      int               `json:"monthlyRelief"`
	TotalPaymentChange int               `json:"totalPaymentChange"`
	Cashflow           CashflowBreakdown `json:"cashflow"`
}

// CashflowBreakdown compares the monthly surplus before and after a plan.
// Balances may be negative; a negative balance is a meaningful signal.
type CashflowBreakdown struct {
	Income         int `json:"income"`
	Expenses       int `json:"expenses"`
	CurrentBalance int `json:"currentBalance"`
	NewBalance     int `json:"newBalance"`
}
