package risk

import "github.com/opensource-finance/credix/internal/domain"

// Loss assumptions for missed defaults at a cutoff.
const (
	AssumedExposure = 50000
	AssumedLGD      = 0.45
)

// Cutoff back-tests rejecting every customer whose PD is at or above
// threshold. Only customers with both a PD and a target label are scored;
// the rest are counted as unlabelled. Rates are percentages.
func Cutoff(customers []*domain.CustomerRecord, threshold float64) *domain.CutoffAnalysis {
	a := &domain.CutoffAnalysis{Threshold: threshold}

	m := &a.Matrix
	for _, c := range customers {
		if c.ProbabilityOfDefault == nil || c.Target == nil {
			a.Unlabelled++
			continue
		}
		a.Labelled++

		rejected := *c.ProbabilityOfDefault >= threshold
		defaulted := *c.Target == 1
		switch {
		case defaulted && rejected:
			m.TruePositive++
		case defaulted:
			m.FalseNegative++
		case rejected:
			m.FalsePositive++
		default:
			m.TrueNegative++
		}
	}

	approved := m.TrueNegative + m.FalseNegative
	a.ApprovalRate = ratio(approved, a.Labelled) * 100
	a.BadRate = ratio(m.FalseNegative, approved) * 100
	a.ProjectedLoss = float64(m.FalseNegative) * AssumedExposure * AssumedLGD

	a.Precision = ratio(m.TruePositive, m.TruePositive+m.FalsePositive)
	a.Recall = ratio(m.TruePositive, m.TruePositive+m.FalseNegative)
	if a.Precision+a.Recall > 0 {
		a.F1 = 2 * a.Precision * a.Recall / (a.Precision + a.Recall)
	}
	return a
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
