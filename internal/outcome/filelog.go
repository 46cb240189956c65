// Package outcome persists customer interactions with the intervention flow
// as an append-only JSON-lines file.
package outcome

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
)

// FileLog is a domain.OutcomeLog backed by a local file.
//
// Each entry is encoded into one buffer and written with a single write on an
// O_APPEND descriptor, so concurrent writers (including other processes)
// never interleave partial lines.
type FileLog struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// Open opens or creates the log at path.
func Open(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open outcome log %s: %w", path, err)
	}
	return &FileLog{path: path, file: f}, nil
}

// Path returns the file backing the log.
func (l *FileLog) Path() string {
	return l.path
}

// Append writes entry as one line. Version and timestamp are filled in when unset.
func (l *FileLog) Append(ctx context.Context, entry *domain.OutcomeLogEntry) error {
	if entry == nil {
		return fmt.Errorf("outcome entry is required")
	}
	if entry.Version == 0 {
		entry.Version = domain.OutcomeLogVersion
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode outcome entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("outcome log %s is closed", l.path)
	}
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to append outcome entry: %w", err)
	}
	return nil
}

// Entries returns every entry for customerID in write order.
func (l *FileLog) Entries(ctx context.Context, customerID string) ([]*domain.OutcomeLogEntry, error) {
	var entries []*domain.OutcomeLogEntry
	err := l.scan(func(e *domain.OutcomeLogEntry) {
		if e.CustomerID == customerID {
			entries = append(entries, e)
		}
	})
	return entries, err
}

// Summary aggregates the whole log.
func (l *FileLog) Summary(ctx context.Context) (*domain.EngagementSummary, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Summarize(nil), nil
		}
		return nil, fmt.Errorf("failed to read outcome log: %w", err)
	}
	defer f.Close()

	return Summarize(f), nil
}

// Close releases the file handle.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *FileLog) scan(fn func(*domain.OutcomeLogEntry)) error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read outcome log: %w", err)
	}
	defer f.Close()

	return scanLines(f, func(line []byte) {
		if e, ok := ParseLine(line); ok {
			fn(e)
		}
	})
}

// CurrentState is the status of the customer's most recent entry,
// or empty when the customer has no history.
func CurrentState(entries []*domain.OutcomeLogEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Status
}

var _ domain.OutcomeLog = (*FileLog)(nil)
