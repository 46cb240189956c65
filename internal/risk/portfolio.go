package risk

import "github.com/opensource-finance/credix/internal/domain"

// Portfolio aggregates risk KPIs across the customer book.
func Portfolio(customers []*domain.CustomerRecord) *domain.PortfolioKPIs {
	kpis := &domain.PortfolioKPIs{
		TotalCustomers: len(customers),
		BandCounts: map[domain.RiskBand]int{
			domain.RiskLow:      0,
			domain.RiskModerate: 0,
			domain.RiskHigh:     0,
		},
	}
	if len(customers) == 0 {
		return kpis
	}

	var pdSum, highEMI float64
	for _, c := range customers {
		pd := c.PD()
		exposure := c.Exposure()

		pdSum += pd
		kpis.TotalExposure += exposure
		kpis.ExpectedLoss += pd * exposure
		kpis.BandCounts[Classify(c)]++

		switch {
		case pd > HighThreshold:
			kpis.HighRiskExposure += exposure
			kpis.ActionToday++
			highEMI += c.EMI()
		case pd > FollowUpThreshold:
			kpis.PendingFollowUps++
		}
	}

	kpis.AveragePD = pdSum / float64(len(customers))
	if kpis.ActionToday > 0 {
		kpis.AvgEMIHighRisk = highEMI / float64(kpis.ActionToday)
	}
	return kpis
}
