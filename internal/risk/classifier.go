// Package risk classifies customers into risk bands and explains why.
package risk

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/opensource-finance/credix/internal/domain"
)

// Band thresholds on probability of default.
const (
	HighThreshold     = 0.7
	ModerateThreshold = 0.3
)

// Explanation limits. When no trigger fires and pd is above
// FallbackThreshold, FallbackReason is the only reason given.
const (
	MaxReasons        = 3
	FallbackThreshold = 0.5
	FallbackReason    = "We noticed some unusual patterns in your recent transactions."
)

// Stability score: base + (1-pd)*pdWeight + tenure*tenureMul, only for
// customers with pd below RewardThreshold.
const (
	RewardThreshold    = 0.3
	stabilityBase      = 500
	stabilityPDWeight  = 1000
	stabilityTenureMul = 10
)

// Trigger is one explanation rule: a CEL condition and the sentence shown when it holds.
type Trigger struct {
	ID         string
	Expression string
	Reason     string
}

// DefaultTriggers are evaluated in priority order; earlier triggers win the reason slots.
var DefaultTriggers = []Trigger{
	{ID: "salary_delay", Expression: "salary_delay > 5", Reason: "Your salary was credited later than usual."},
	{ID: "savings_drop", Expression: "savings_trend < -10.0", Reason: "Your savings balance has reduced recently."},
	{ID: "utility_delay", Expression: "utility_delay > 5", Reason: "Utility payments are happening later than normal."},
	{ID: "high_utilization", Expression: "utilization > 80.0", Reason: "Your credit card utilization is higher than recommended."},
	{ID: "failed_auto_debit", Expression: "failed_debits > 0", Reason: "We noticed a recent failed auto-debit."},
}

// Classifier explains risk using compiled CEL triggers.
// Compiled programs are immutable, so a Classifier is safe for concurrent use.
type Classifier struct {
	env      *cel.Env
	triggers []compiledTrigger
}

type compiledTrigger struct {
	Trigger
	program cel.Program
}

// NewClassifier compiles the given triggers, or DefaultTriggers when none are passed.
func NewClassifier(triggers ...Trigger) (*Classifier, error) {
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}

	env, err := cel.NewEnv(
		cel.Variable("pd", cel.DoubleType),
		cel.Variable("tenure", cel.IntType),
		cel.Variable("salary_delay", cel.IntType),
		cel.Variable("savings_trend", cel.DoubleType),
		cel.Variable("utility_delay", cel.IntType),
		cel.Variable("utilization", cel.DoubleType),
		cel.Variable("failed_debits", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	c := &Classifier{env: env}
	for _, t := range triggers {
		ct, err := c.compile(t)
		if err != nil {
			return nil, err
		}
		c.triggers = append(c.triggers, ct)
	}
	return c, nil
}

func (c *Classifier) compile(t Trigger) (compiledTrigger, error) {
	ast, issues := c.env.Compile(t.Expression)
	if issues != nil && issues.Err() != nil {
		return compiledTrigger{}, fmt.Errorf("failed to compile trigger %s: %w", t.ID, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return compiledTrigger{}, fmt.Errorf("trigger %s: expression must return bool, got %s", t.ID, ast.OutputType())
	}

	program, err := c.env.Program(ast)
	if err != nil {
		return compiledTrigger{}, fmt.Errorf("failed to create program for trigger %s: %w", t.ID, err)
	}
	return compiledTrigger{Trigger: t, program: program}, nil
}

// Classify maps probability of default to a band.
// pd > 0.7 is High, 0.3 < pd <= 0.7 is Moderate, everything else is Low.
func Classify(c *domain.CustomerRecord) domain.RiskBand {
	pd := c.PD()
	switch {
	case pd > HighThreshold:
		return domain.RiskHigh
	case pd > ModerateThreshold:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

// StabilityScore is the reward score for customers below the reward threshold, 0 otherwise.
func StabilityScore(c *domain.CustomerRecord) int {
	pd := c.PD()
	if pd >= RewardThreshold {
		return 0
	}
	return stabilityBase + int(math.Round((1-pd)*stabilityPDWeight)) + c.Tenure()*stabilityTenureMul
}

// Classify is a convenience wrapper over the package function.
func (c *Classifier) Classify(rec *domain.CustomerRecord) domain.RiskBand { return Classify(rec) }

// StabilityScore is a convenience wrapper over the package function.
func (c *Classifier) StabilityScore(rec *domain.CustomerRecord) int { return StabilityScore(rec) }

// Explain returns at most three reasons in trigger order.
// When nothing triggers and pd > 0.5 a single generic reason is returned.
// A trigger that fails to evaluate counts as not triggered.
func (c *Classifier) Explain(rec *domain.CustomerRecord) []string {
	activation := activationFor(rec)

	reasons := make([]string, 0, MaxReasons)
	for _, t := range c.triggers {
		out, _, err := t.program.Eval(activation)
		if err != nil {
			slog.Warn("trigger evaluation failed",
				"trigger", t.ID,
				"customer_id", rec.CustomerID,
				"error", err,
			)
			continue
		}
		if out == types.True {
			reasons = append(reasons, t.Reason)
		}
	}

	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	if len(reasons) == 0 && rec.PD() > FallbackThreshold {
		reasons = append(reasons, FallbackReason)
	}
	return reasons
}

// Assess runs the full classification for one customer.
func (c *Classifier) Assess(rec *domain.CustomerRecord) *domain.RiskAssessment {
	return &domain.RiskAssessment{
		CustomerID:     rec.CustomerID,
		Probability:    rec.PD(),
		Band:           Classify(rec),
		Reasons:        c.Explain(rec),
		StabilityScore: StabilityScore(rec),
	}
}

func activationFor(rec *domain.CustomerRecord) map[string]any {
	return map[string]any{
		"pd":            rec.PD(),
		"tenure":        int64(rec.Tenure()),
		"salary_delay":  int64(rec.SalaryDelay()),
		"savings_trend": rec.SavingsTrend(),
		"utility_delay": int64(rec.UtilityDelay()),
		"utilization":   rec.CreditUtilization(),
		"failed_debits": int64(rec.FailedAutoDebits()),
	}
}
