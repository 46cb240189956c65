// Package plans builds the relief and reward offers shown to a customer.
//
// Every function here is pure: the same band and parameters always yield the
// same ordered list of offers.
package plans

import (
	"math"

	"github.com/opensource-finance/credix/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Plan identifiers, unique within one GetPlans call.
const (
	IDRestructure     = "emi_restructure"
	IDPaymentHoliday  = "payment_holiday"
	IDHardship        = "hardship_assistance"
	IDRateCut         = "reward_rate_cut"
	IDLimitIncrease   = "reward_limit_increase"
	IDPrioritySupport = "reward_priority_support"
)

// Params are the financial inputs of a plan simulation.
// Values are used as given; zero or negative inputs are not rejected.
type Params struct {
	EMI      int `json:"emi"`
	Tenure   int `json:"tenure"`
	Income   int `json:"income"`
	Expenses int `json:"expenses"`
}

// DefaultParams is used when the caller has no figures for the customer.
func DefaultParams() Params {
	return Params{
		EMI:      15000,
		Tenure:   24,
		Income:   50000,
		Expenses: 30000,
	}
}

// Estimate heuristics for customers without known loan terms.
const (
	estimatedEMIRate      = 0.05
	estimatedExpenseRatio = 0.4
	fallbackEMI           = 5000
)

// EstimateParams derives plan inputs from a customer record: EMI is 5% of
// exposure (5000 when there is none) and expenses are 40% of income.
func EstimateParams(c *domain.CustomerRecord) Params {
	p := DefaultParams()

	income := c.Income(float64(p.Income))
	p.Income = round(income)
	p.Expenses = round(income * estimatedExpenseRatio)

	p.EMI = round(c.Exposure() * estimatedEMIRate)
	if p.EMI == 0 {
		p.EMI = fallbackEMI
	}
	return p
}

// builder produces the offers contributed by one band.
type builder func(p Params) []domain.PlanOffer

var builders = map[domain.RiskBand][]builder{
	domain.RiskLow:      {rewardPlans},
	domain.RiskModerate: {reliefPlans},
	domain.RiskHigh:     {reliefPlans, hardshipPlans},
}

// GetPlans returns the ordered offers for a band.
// Low gets reward plans only. Moderate gets restructuring and a payment
// holiday, and High adds hardship assistance. Unknown bands get none.
func GetPlans(band domain.RiskBand, p Params) []domain.PlanOffer {
	var offers []domain.PlanOffer
	for _, build := range builders[band] {
		offers = append(offers, build(p)...)
	}
	return offers
}

func reliefPlans(p Params) []domain.PlanOffer {
	return []domain.PlanOffer{restructurePlan(p), paymentHolidayPlan(p)}
}

func hardshipPlans(p Params) []domain.PlanOffer {
	return []domain.PlanOffer{hardshipPlan(p)}
}

func restructurePlan(p Params) domain.PlanOffer {
	original := float64(p.EMI) * float64(p.Tenure)
	newTenure := p.Tenure + 12
	newEMI := round(original / float64(newTenure) * 1.10)
	sim := simulate(p, newEMI, newTenure)
	sim.TotalPaymentChange = newEMI*newTenure - p.EMI*p.Tenure

	return domain.PlanOffer{
		ID:           IDRestructure,
		Title:        "EMI Restructuring Plan",
		Tagline:      "Reduce monthly payments by extending tenure.",
		Type:         domain.PlanRelief,
		ImpactAmount: rupees(sim.MonthlyRelief),
		Description:  "Convert your outstanding balance into smaller, more manageable EMIs by extending your loan tenure.",
		Reason:       "Recommended because your recent account activity shows higher monthly expenses.",
		BestFor:      "Long-term affordability",
		Simulation:   sim,
		Eligibility: []string{
			"Account must be standard (no current default).",
			"Minimum outstanding balance of ₹50,000.",
			"No previous restructuring in last 12 months.",
		},
		Conditions: []string{
			"Interest rate will increase by 0.5% for the extended period.",
			"Processing fee of ₹500 waived for this offer.",
		},
	}
}

func paymentHolidayPlan(p Params) domain.PlanOffer {
	// New EMI is zero for the skipped month only.
	sim := simulate(p, 0, p.Tenure+1)
	sim.TotalPaymentChange = round(float64(p.EMI) * 0.02)

	return domain.PlanOffer{
		ID:           IDPaymentHoliday,
		Title:        "Payment Holiday",
		Tagline:      "Skip this month's EMI with zero penalty.",
		Type:         domain.PlanHoliday,
		ImpactAmount: rupees(p.EMI),
		Description:  "Take a break from your loan payment this month to manage unexpected expenses. Zero late fees.",
		Reason:       "Recommended for short-term cash flow mismatches.",
		BestFor:      "Immediate cash relief",
		Simulation:   sim,
		Eligibility: []string{
			"Consistent repayment history for last 6 months.",
			"Not applicable for final EMI.",
		},
		Conditions: []string{
			"Interest for the skipped month will be added to the end of tenure.",
			"Next EMI date remains unchanged.",
		},
	}
}

func hardshipPlan(p Params) domain.PlanOffer {
	sim := simulate(p, round(float64(p.EMI)*0.5), p.Tenure+24)
	// Terms are agreed with a relationship manager.
	sim.TotalPaymentChange = 0

	return domain.PlanOffer{
		ID:           IDHardship,
		Title:        "Hardship Assistance Program",
		Tagline:      "Customized support for difficult times.",
		Type:         domain.PlanAssistance,
		ImpactAmount: "Variable",
		Description:  "Work directly with a relationship manager to restructure your debt based on your current income.",
		Reason:       "Recommended due to significant changes in income or financial status.",
		BestFor:      "Complex financial situations",
		Simulation:   sim,
		Eligibility:  []string{"Proof of income reduction required."},
		Conditions:   []string{"Requires document verification."},
	}
}

func rewardPlans(Params) []domain.PlanOffer {
	return []domain.PlanOffer{
		{
			ID:           IDRateCut,
			Title:        "Rate Reduction Benefit",
			Tagline:      "Unlock 0.5% lower interest on future loans.",
			Type:         domain.PlanStabilityReward,
			ImpactAmount: "-0.5% Interest",
			Description:  "As a Stability Rewards member, you qualify for a preferential interest rate on your next personal loan or top-up.",
			Reason:       "Earned via consistent on-time payments and high Stability Score.",
			BestFor:      "Future borrowing",
			Eligibility:  []string{"Stability Points > 1000", "No late payments in 12 months."},
			Conditions:   []string{"Valid for 90 days."},
		},
		{
			ID:           IDLimitIncrease,
			Title:        "Pre-approved Limit Increase",
			Tagline:      "Instantly increase your credit limit by 20%.",
			Type:         domain.PlanStabilityReward,
			ImpactAmount: "+20% Limit",
			Description:  "Get more financial flexibility with a pre-approved credit limit enhancement. No documentation required.",
			Reason:       "Reward for maintaining low credit utilization.",
			BestFor:      "Financial flexibility",
			Eligibility:  []string{"Stability Points > 1200"},
			Conditions:   []string{"Subject to final CIBIL check."},
		},
		{
			ID:           IDPrioritySupport,
			Title:        "Priority Customer Support",
			Tagline:      "Skip the queue with dedicated access.",
			Type:         domain.PlanStabilityReward,
			ImpactAmount: "VIP Access",
			Description:  "Direct access to our senior relationship managers for any queries or faster loan processing.",
			Reason:       "Exclusive benefit for our most reliable customers.",
			BestFor:      "Convenience",
			Eligibility:  []string{"Stability Points > 800"},
			Conditions:   []string{"Available 24/7."},
		},
	}
}

// simulate fills the before/after projection. Balances are never clamped.
func simulate(p Params, newEMI, newTenure int) *domain.SimulationResult {
	base := p.Income - p.Expenses
	return &domain.SimulationResult{
		CurrentEMI:    p.EMI,
		NewEMI:        newEMI,
		CurrentTenure: p.Tenure,
		NewTenure:     newTenure,
		MonthlyRelief: p.EMI - newEMI,
		Cashflow: domain.CashflowBreakdown{
			Income:         p.Income,
			Expenses:       p.Expenses,
			CurrentBalance: base - p.EMI,
			NewBalance:     base - newEMI,
		},
	}
}

// rupees renders an amount with thousands grouping, e.g. ₹4,000.
func rupees(amount int) string {
	return message.NewPrinter(language.English).Sprintf("₹%d", amount)
}

// round converts to int, mapping non-finite values to 0.
func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
