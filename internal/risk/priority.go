package risk

import (
	"sort"

	"github.com/opensource-finance/credix/internal/domain"
)

// Worklist thresholds and score weights.
const (
	EscalationThreshold = 0.85
	FollowUpThreshold   = 0.40

	bounceWeight = 50000
	emiWeight    = 2
)

// Segment labels a customer for the collections worklist.
func Segment(pd float64) string {
	switch {
	case pd > EscalationThreshold:
		return "ESCALATION"
	case pd > HighThreshold:
		return "High Priority"
	case pd > FollowUpThreshold:
		return "Follow-Up"
	default:
		return "Low Monitor"
	}
}

// Action recommends the next collections step. A rising risk trend escalates
// the high and follow-up segments one level.
func Action(pd float64, trend int) string {
	switch {
	case pd > EscalationThreshold:
		return "Field Visit / Legal"
	case pd > HighThreshold:
		if trend == domain.TrendIncreasing {
			return "Escalate to Senior Manager"
		}
		return "Call Within 24h"
	case pd > FollowUpThreshold:
		if trend == domain.TrendIncreasing {
			return "Priority Call"
		}
		return "SMS / Email Reminder"
	default:
		return "Automated Statement"
	}
}

// TrendLabel renders a risk trend code.
func TrendLabel(trend int) string {
	switch trend {
	case domain.TrendStable:
		return "Stable"
	case domain.TrendIncreasing:
		return "Increasing ↗"
	case domain.TrendDecreasing:
		return "Decreasing ↘"
	default:
		return "Unknown"
	}
}

// Prioritize builds the worklist row for one customer.
// Score = expected loss + failed auto-debits * 50000 + EMI * 2.
func Prioritize(c *domain.CustomerRecord) domain.Priority {
	pd := c.PD()
	expectedLoss := pd * c.Exposure()
	return domain.Priority{
		CustomerID:    c.CustomerID,
		Segment:       Segment(pd),
		Action:        Action(pd, c.Trend()),
		Probability:   pd,
		Exposure:      c.Exposure(),
		EMI:           c.EMI(),
		Trend:         TrendLabel(c.Trend()),
		ExpectedLoss:  expectedLoss,
		PriorityScore: expectedLoss + float64(c.FailedAutoDebits()*bounceWeight) + c.EMI()*emiWeight,
	}
}

// Worklist returns rows sorted by priority score, highest first.
// Ties keep dataset order.
func Worklist(customers []*domain.CustomerRecord) []domain.Priority {
	rows := make([]domain.Priority, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, Prioritize(c))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PriorityScore > rows[j].PriorityScore
	})
	return rows
}
