package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "credix-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetCustomer", func(t *testing.T) {
		c := &domain.CustomerRecord{
			CustomerID:            "CUST-10001",
			ProbabilityOfDefault:  domain.Float(0.82),
			TenureMonths:          domain.Int(36),
			SalaryCreditDelayDays: domain.Int(9),
			ExistingLiabilities:   domain.Float(250000),
			FullName:              "Asha Rao",
			EmailID:               "asha@example.com",
		}
		if err := repo.SaveCustomer(ctx, c); err != nil {
			t.Fatalf("SaveCustomer failed: %v", err)
		}

		got, err := repo.GetCustomer(ctx, "CUST-10001")
		if err != nil {
			t.Fatalf("GetCustomer failed: %v", err)
		}
		if got.PD() != 0.82 || got.Tenure() != 36 || got.SalaryDelay() != 9 {
			t.Errorf("unexpected risk fields: %+v", got)
		}
		if got.SavingsBalanceTrendPercent != nil {
			t.Error("expected absent savings trend to stay nil")
		}
		if got.FullName != "Asha Rao" || got.EmailID != "asha@example.com" {
			t.Errorf("unexpected contact fields: %+v", got)
		}
	})

	t.Run("SaveCustomerUpserts", func(t *testing.T) {
		c := &domain.CustomerRecord{CustomerID: "CUST-10001", ProbabilityOfDefault: domain.Float(0.4)}
		if err := repo.SaveCustomer(ctx, c); err != nil {
			t.Fatalf("SaveCustomer failed: %v", err)
		}
		got, _ := repo.GetCustomer(ctx, "CUST-10001")
		if got.PD() != 0.4 {
			t.Errorf("expected updated pd 0.4, got %v", got.PD())
		}
		if got.TenureMonths != nil {
			t.Error("expected tenure cleared by upsert")
		}
	})

	t.Run("SaveCustomerRequiresID", func(t *testing.T) {
		err := repo.SaveCustomer(ctx, &domain.CustomerRecord{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}
	})

	t.Run("GetCustomerNotFound", func(t *testing.T) {
		_, err := repo.GetCustomer(ctx, "missing")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestRanking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []*domain.CustomerRecord{
		{CustomerID: "A", ProbabilityOfDefault: domain.Float(0.2)},
		{CustomerID: "B", ProbabilityOfDefault: domain.Float(0.95)},
		{CustomerID: "C", ProbabilityOfDefault: domain.Float(0.65)},
		{CustomerID: "D"},
		{CustomerID: "E", ProbabilityOfDefault: domain.Float(0.75)},
	} {
		if err := repo.SaveCustomer(ctx, c); err != nil {
			t.Fatalf("SaveCustomer failed: %v", err)
		}
	}

	t.Run("TopByDefaultProbability", func(t *testing.T) {
		top, err := repo.TopByDefaultProbability(ctx, 3)
		if err != nil {
			t.Fatalf("TopByDefaultProbability failed: %v", err)
		}
		want := []string{"B", "E", "C"}
		if len(top) != len(want) {
			t.Fatalf("expected %d customers, got %d", len(want), len(top))
		}
		for i, id := range want {
			if top[i].CustomerID != id {
				t.Errorf("rank %d = %s, want %s", i, top[i].CustomerID, id)
			}
		}
	})

	t.Run("TopRejectsNonPositiveLimit", func(t *testing.T) {
		if _, err := repo.TopByDefaultProbability(ctx, 0); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}
	})

	t.Run("FirstAbove", func(t *testing.T) {
		c, err := repo.FirstAbove(ctx, 0.6)
		if err != nil {
			t.Fatalf("FirstAbove failed: %v", err)
		}
		if c.CustomerID != "B" {
			t.Errorf("expected B, got %s", c.CustomerID)
		}

		if _, err := repo.FirstAbove(ctx, 0.99); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("ListCustomers", func(t *testing.T) {
		all, err := repo.ListCustomers(ctx)
		if err != nil {
			t.Fatalf("ListCustomers failed: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("expected 5 customers, got %d", len(all))
		}
	})
}

func TestAlerts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	alerts := []*domain.AlertResult{
		{ID: "alert-1", CustomerID: "CUST-1", RiskBand: domain.RiskHigh, EmailSent: true, Token: "CUST-1", Link: "http://x/customer/intervention?token=CUST-1", Timestamp: now.Add(-time.Hour)},
		{ID: "alert-2", CustomerID: "CUST-1", RiskBand: domain.RiskModerate, SMSSent: true, Token: "CUST-1", Link: "http://x/customer/intervention?token=CUST-1", Timestamp: now},
	}
	for _, a := range alerts {
		if err := repo.SaveAlert(ctx, a); err != nil {
			t.Fatalf("SaveAlert failed: %v", err)
		}
	}

	got, err := repo.ListAlerts(ctx, "CUST-1")
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].ID != "alert-2" {
		t.Errorf("expected newest first, got %s", got[0].ID)
	}
	if !got[0].SMSSent || got[0].EmailSent {
		t.Errorf("unexpected delivery flags: %+v", got[0])
	}
	if got[1].RiskBand != domain.RiskHigh {
		t.Errorf("expected High, got %s", got[1].RiskBand)
	}

	if err := repo.SaveAlert(ctx, &domain.AlertResult{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestImportDataset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := `customer_id,probability_of_default,tenure_months,salary_credit_delay_days,savings_balance_trend_percent,credit_utilization_percent,existing_liabilities_inr,full_name,target,extra_column
CUST-1,0.91,24.0,7,-15.5,85,300000,Ravi Kumar,1.0,x
CUST-2,0.12,,0,nan,20,,nan,,y
,0.5,12,0,0,0,0,,0,z
`
	stats, err := ImportDataset(ctx, repo, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ImportDataset failed: %v", err)
	}
	if stats.Rows != 3 || stats.Saved != 3 || stats.Assigned != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	c1, err := repo.GetCustomer(ctx, "CUST-1")
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if c1.Tenure() != 24 || c1.SavingsTrend() != -15.5 || c1.FullName != "Ravi Kumar" {
		t.Errorf("unexpected record: %+v", c1)
	}
	if c1.Target == nil || *c1.Target != 1 {
		t.Errorf("expected target 1, got %v", c1.Target)
	}

	c2, _ := repo.GetCustomer(ctx, "CUST-2")
	if c2.TenureMonths != nil || c2.SavingsBalanceTrendPercent != nil || c2.Target != nil {
		t.Error("expected empty and nan cells to be absent")
	}
	if c2.DisplayName() != domain.DefaultCustomerName {
		t.Errorf("expected default name, got %q", c2.DisplayName())
	}

	if _, err := repo.GetCustomer(ctx, "CUST-10003"); err != nil {
		t.Errorf("expected synthetic id for third row: %v", err)
	}
}

func TestImportMaster(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.SaveCustomer(ctx, &domain.CustomerRecord{CustomerID: "CUST-1", FullName: "Ravi Kumar"})
	repo.SaveCustomer(ctx, &domain.CustomerRecord{CustomerID: "CUST-2"})

	master := `customer_id,full_name,email_id,mobile_number,city
CUST-1,R. Kumar,ravi@example.com,+919800000001,Pune
CUST-2,Meera Iyer,meera@example.com,+919800000002,Chennai
CUST-9,Nobody,nobody@example.com,,Delhi
`
	stats, err := ImportMaster(ctx, repo, strings.NewReader(master))
	if err != nil {
		t.Fatalf("ImportMaster failed: %v", err)
	}
	if stats.Saved != 2 || stats.Unknown != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	c1, _ := repo.GetCustomer(ctx, "CUST-1")
	if c1.FullName != "Ravi Kumar" {
		t.Errorf("dataset name should win, got %q", c1.FullName)
	}
	if c1.EmailID != "ravi@example.com" {
		t.Errorf("expected email merged, got %q", c1.EmailID)
	}

	c2, _ := repo.GetCustomer(ctx, "CUST-2")
	if c2.FullName != "Meera Iyer" || !c2.HasMobile() {
		t.Errorf("expected master contact details, got %+v", c2)
	}
}

func TestImportEmpty(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := ImportDataset(context.Background(), repo, strings.NewReader("")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestImportMalformedRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	data := "customer_id,probability_of_default\nCUST-1,0.4\nCUST-2,high\n"
	stats, err := ImportDataset(ctx, repo, strings.NewReader(data))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("expected row number in error, got: %v", err)
	}
	if stats.Saved != 1 {
		t.Errorf("expected rows before the bad one to be saved, got %+v", stats)
	}

	if _, err := ImportMaster(ctx, repo, strings.NewReader("customer_id,email_id\nCUST-1,\"a@b\n")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput from master import, got: %v", err)
	}
}

func TestMigrateAddsTargetColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open legacy db: %v", err)
	}
	_, err = legacy.Exec(`CREATE TABLE customers (
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
		full_name TEXT NOT NULL DEFAULT '',
		email_id TEXT NOT NULL DEFAULT '',
		mobile_number TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	legacy.Close()
	if err != nil {
		t.Fatalf("failed to create legacy schema: %v", err)
	}

	for range 2 {
		repo, err := New(domain.RepositoryConfig{Driver: "sqlite", SQLitePath: path})
		if err != nil {
			t.Fatalf("New on legacy db failed: %v", err)
		}

		ctx := context.Background()
		if err := repo.SaveCustomer(ctx, &domain.CustomerRecord{CustomerID: "CUST-1", Target: domain.Int(1)}); err != nil {
			t.Fatalf("SaveCustomer failed: %v", err)
		}
		c, err := repo.GetCustomer(ctx, "CUST-1")
		if err != nil {
			t.Fatalf("GetCustomer failed: %v", err)
		}
		if c.Target == nil || *c.Target != 1 {
			t.Errorf("expected target 1 after migration, got %v", c.Target)
		}
		repo.Close()
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{driver: "postgres"}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("unexpected rebind: %s", got)
	}
	lite := &SQLRepository{driver: "sqlite"}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query should be unchanged: %s", got)
	}
}
