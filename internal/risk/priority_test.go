package risk

import (
	"testing"

	"github.com/opensource-finance/credix/internal/domain"
)

func TestSegmentAndAction(t *testing.T) {
	tests := []struct {
		pd      float64
		trend   int
		segment string
		action  string
	}{
		{0.9, domain.TrendStable, "ESCALATION", "Field Visit / Legal"},
		{0.85, domain.TrendIncreasing, "High Priority", "Escalate to Senior Manager"},
		{0.75, domain.TrendStable, "High Priority", "Call Within 24h"},
		{0.7, domain.TrendIncreasing, "Follow-Up", "Priority Call"},
		{0.5, domain.TrendDecreasing, "Follow-Up", "SMS / Email Reminder"},
		{0.4, domain.TrendIncreasing, "Low Monitor", "Automated Statement"},
	}

	for _, tt := range tests {
		if got := Segment(tt.pd); got != tt.segment {
			t.Errorf("Segment(%v) = %q, want %q", tt.pd, got, tt.segment)
		}
		if got := Action(tt.pd, tt.trend); got != tt.action {
			t.Errorf("Action(%v, %d) = %q, want %q", tt.pd, tt.trend, got, tt.action)
		}
	}
}

func TestWorklistOrdering(t *testing.T) {
	customers := []*domain.CustomerRecord{
		{CustomerID: "A", ProbabilityOfDefault: domain.Float(0.2), ExistingLiabilities: domain.Float(100000)},
		{CustomerID: "B", ProbabilityOfDefault: domain.Float(0.5), ExistingLiabilities: domain.Float(100000), FailedAutoDebitsLast3M: domain.Int(1)},
		{CustomerID: "C", ProbabilityOfDefault: domain.Float(0.9), ExistingLiabilities: domain.Float(200000), EMIAmount: domain.Float(10000)},
	}

	rows := Worklist(customers)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// C: 180000 + 20000 = 200000; B: 50000 + 50000 = 100000; A: 20000
	want := []string{"C", "B", "A"}
	for i, id := range want {
		if rows[i].CustomerID != id {
			t.Errorf("row %d = %s, want %s", i, rows[i].CustomerID, id)
		}
	}
	if rows[0].PriorityScore != 200000 {
		t.Errorf("expected score 200000, got %v", rows[0].PriorityScore)
	}
	if rows[1].ExpectedLoss != 50000 {
		t.Errorf("expected loss 50000, got %v", rows[1].ExpectedLoss)
	}
}

func TestTrendLabel(t *testing.T) {
	if TrendLabel(domain.TrendIncreasing) != "Increasing ↗" {
		t.Error("unexpected increasing label")
	}
	if TrendLabel(7) != "Unknown" {
		t.Error("expected Unknown for unmapped trend")
	}
}

func TestPortfolio(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		kpis := Portfolio(nil)
		if kpis.TotalCustomers != 0 || kpis.AveragePD != 0 {
			t.Errorf("unexpected kpis for empty book: %+v", kpis)
		}
	})

	t.Run("aggregates", func(t *testing.T) {
		customers := []*domain.CustomerRecord{
			{ProbabilityOfDefault: domain.Float(0.1), ExistingLiabilities: domain.Float(100000)},
			{ProbabilityOfDefault: domain.Float(0.5), ExistingLiabilities: domain.Float(100000)},
			{ProbabilityOfDefault: domain.Float(0.8), ExistingLiabilities: domain.Float(200000), EMIAmount: domain.Float(6000)},
			{ProbabilityOfDefault: domain.Float(0.9), ExistingLiabilities: domain.Float(100000), EMIAmount: domain.Float(4000)},
		}

		kpis := Portfolio(customers)
		if kpis.TotalCustomers != 4 {
			t.Errorf("expected 4 customers, got %d", kpis.TotalCustomers)
		}
		if kpis.TotalExposure != 500000 {
			t.Errorf("expected total exposure 500000, got %v", kpis.TotalExposure)
		}
		if kpis.HighRiskExposure != 300000 {
			t.Errorf("expected high risk exposure 300000, got %v", kpis.HighRiskExposure)
		}
		if kpis.BandCounts[domain.RiskHigh] != 2 || kpis.BandCounts[domain.RiskModerate] != 1 || kpis.BandCounts[domain.RiskLow] != 1 {
			t.Errorf("unexpected band counts: %v", kpis.BandCounts)
		}
		if kpis.ActionToday != 2 || kpis.PendingFollowUps != 1 {
			t.Errorf("unexpected action counts: today=%d follow-ups=%d", kpis.ActionToday, kpis.PendingFollowUps)
		}
		if kpis.AvgEMIHighRisk != 5000 {
			t.Errorf("expected avg EMI 5000, got %v", kpis.AvgEMIHighRisk)
		}
	})
}
