package outcome

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
)

const (
	legacyMarker     = "INTERVENTION_LOG:"
	legacyTimeLayout = "2006-01-02 15:04:05"
	maxLineSize      = 1 << 20
)

// ParseLine decodes one log line. Both the JSON format and the older
// "<ts> - INTERVENTION_LOG: Customer=..., Plan=..., Status=..." text format
// are understood.
func ParseLine(line []byte) (*domain.OutcomeLogEntry, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}

	if line[0] == '{' {
		var e domain.OutcomeLogEntry
		if err := json.Unmarshal(line, &e); err != nil || e.CustomerID == "" || e.Status == "" {
			return nil, false
		}
		return &e, true
	}
	return parseLegacy(string(line))
}

func parseLegacy(line string) (*domain.OutcomeLogEntry, bool) {
	ts, rest, ok := strings.Cut(line, legacyMarker)
	if !ok {
		return nil, false
	}

	e := &domain.OutcomeLogEntry{}
	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Customer":
			e.CustomerID = value
		case "Plan":
			if value != "" && value != domain.PlanNotApplicable && value != "None" {
				plan := value
				e.PlanID = &plan
			}
		case "Status":
			e.Status = value
		}
	}
	if e.CustomerID == "" || e.Status == "" {
		return nil, false
	}

	ts = strings.TrimSuffix(strings.TrimSpace(ts), "-")
	if t, err := time.ParseInLocation(legacyTimeLayout, strings.TrimSpace(ts), time.Local); err == nil {
		e.Timestamp = t
	}
	return e, true
}

// Summarize counts distinct customers per status across every line of r.
// Unparseable lines are counted as skipped. A nil reader yields an empty summary.
func Summarize(r io.Reader) *domain.EngagementSummary {
	summary := &domain.EngagementSummary{StatusCounts: make(map[string]int)}
	if r == nil {
		return summary
	}

	opened := make(map[string]struct{})
	accepted := make(map[string]struct{})
	declined := make(map[string]struct{})

	// A read error ends the scan; counts so far are still returned.
	_ = scanLines(r, func(line []byte) {
		if len(bytes.TrimSpace(line)) == 0 {
			return
		}
		summary.Lines++

		e, ok := ParseLine(line)
		if !ok {
			summary.Skipped++
			return
		}

		summary.StatusCounts[e.Status]++
		switch {
		case domain.IsOpened(e.Status):
			opened[e.CustomerID] = struct{}{}
		case domain.IsAccepted(e.Status):
			accepted[e.CustomerID] = struct{}{}
		case domain.IsDeclined(e.Status):
			declined[e.CustomerID] = struct{}{}
		}
	})

	summary.OpenedCustomers = len(opened)
	summary.AcceptedCustomers = len(accepted)
	summary.DeclinedCustomers = len(declined)
	return summary
}

func scanLines(r io.Reader, fn func([]byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		fn(scanner.Bytes())
	}
	return scanner.Err()
}
