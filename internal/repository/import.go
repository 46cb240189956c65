package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/opensource-finance/credix/internal/domain"
)

// ImportStats reports the outcome of a CSV import.
type ImportStats struct {
	Rows     int `json:"rows"`
	Saved    int `json:"saved"`
	Skipped  int `json:"skipped"`
	Unknown  int `json:"unknown,omitempty"`
	Assigned int `json:"assignedIds,omitempty"`
}

// syntheticIDBase numbers rows of datasets exported without a customer_id column.
const syntheticIDBase = 10001

// ImportDataset loads the scored risk dataset into repo.
// Empty cells and "nan" become absent attributes, and rows without a
// customer_id are assigned CUST-<n> by position.
func ImportDataset(ctx context.Context, repo domain.CustomerRepository, r io.Reader) (*ImportStats, error) {
	dec, err := newDecoder(r)
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{}
	for i := 0; ; i++ {
		var c domain.CustomerRecord
		if err := dec.Decode(&c); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("%w: row %d: %w", ErrInvalidInput, i+1, err)
		}
		stats.Rows++

		if strings.TrimSpace(c.CustomerID) == "" {
			c.CustomerID = fmt.Sprintf("CUST-%d", syntheticIDBase+i)
			stats.Assigned++
		}

		if err := repo.SaveCustomer(ctx, &c); err != nil {
			slog.Warn("skipping customer row",
				"row", i+1,
				"customer_id", c.CustomerID,
				"error", err,
			)
			stats.Skipped++
			continue
		}
		stats.Saved++
	}

	return stats, nil
}

// masterRow is the contact data held in the customer master file.
type masterRow struct {
	CustomerID   string `csv:"customer_id"`
	FullName     string `csv:"full_name,omitempty"`
	EmailID      string `csv:"email_id,omitempty"`
	MobileNumber string `csv:"mobile_number,omitempty"`
}

// ImportMaster merges contact details from the customer master into
// customers already in repo. The dataset name wins when both have one.
// Master rows for unknown customers are counted and ignored.
func ImportMaster(ctx context.Context, repo domain.CustomerRepository, r io.Reader) (*ImportStats, error) {
	dec, err := newDecoder(r)
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{}
	for i := 0; ; i++ {
		var row masterRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("%w: row %d: %w", ErrInvalidInput, i+1, err)
		}
		stats.Rows++

		c, err := repo.GetCustomer(ctx, row.CustomerID)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) {
			stats.Unknown++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to load customer %s: %w", row.CustomerID, err)
		}

		if strings.TrimSpace(c.FullName) == "" {
			c.FullName = row.FullName
		}
		if row.EmailID != "" {
			c.EmailID = row.EmailID
		}
		if row.MobileNumber != "" {
			c.MobileNumber = row.MobileNumber
		}

		if err := repo.SaveCustomer(ctx, c); err != nil {
			stats.Skipped++
			continue
		}
		stats.Saved++
	}

	return stats, nil
}

func newDecoder(r io.Reader) (*csvutil.Decoder, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: failed to read csv header: %w", ErrInvalidInput, err)
	}
	dec.Map = normalizeCell
	return dec, nil
}

// normalizeCell maps dataframe export artefacts onto values the decoder
// understands: "nan" is empty, and integral floats such as "24.0" become "24".
func normalizeCell(field, col string, v any) string {
	field = strings.TrimSpace(field)
	if strings.EqualFold(field, "nan") {
		return ""
	}
	if whole, ok := strings.CutSuffix(field, ".0"); ok && whole != "" && whole != "-" {
		return whole
	}
	return field
}
