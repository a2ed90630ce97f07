// Package store provides a SQLite-backed history of provider API calls.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MateoRodr13/qa-test-generator/internal/metrics"

	_ "modernc.org/sqlite" // register sqlite driver
)

// History persists completed call records for the metrics command.
type History struct {
	db *sql.DB
}

// DefaultPath returns the default history database location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "qa-test-generator", "history.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "qa-test-generator", "history.db")
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// SaveRecord appends a completed call record. Implements metrics.Sink.
func (h *History) SaveRecord(r metrics.CallRecord) error {
	boolInt := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}

	_, err := h.db.Exec(`INSERT INTO api_calls
		(provider, operation, start_time, end_time, duration_ms, success,
		 error_message, prompt_length, response_length, cached, rate_limited)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Provider, r.Operation,
		r.StartTime.UTC().Format(time.RFC3339Nano),
		r.EndTime.UTC().Format(time.RFC3339Nano),
		r.Duration.Milliseconds(), boolInt(r.Success),
		r.ErrorMessage, r.PromptLength, r.ResponseLength,
		boolInt(r.Cached), boolInt(r.RateLimited),
	)
	return err
}

// LoadAggregates folds the stored history into per provider:operation
// aggregates, mirroring the in-process collector's rollup.
func (h *History) LoadAggregates() (map[string]metrics.Aggregate, error) {
	rows, err := h.db.Query(`SELECT
		provider, operation, duration_ms, success,
		prompt_length, response_length, cached, rate_limited
		FROM api_calls`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]*metrics.Aggregate)
	for rows.Next() {
		var provider, operation string
		var durationMs int64
		var success, cached, rateLimited int
		var promptLen, responseLen int

		if err := rows.Scan(&provider, &operation, &durationMs, &success,
			&promptLen, &responseLen, &cached, &rateLimited); err != nil {
			return nil, err
		}

		key := metrics.FormatKey(provider, operation)
		agg, ok := out[key]
		if !ok {
			agg = &metrics.Aggregate{}
			out[key] = agg
		}

		agg.TotalCalls++
		if success != 0 {
			agg.SuccessfulCalls++
		} else {
			agg.FailedCalls++
		}
		agg.TotalDuration += time.Duration(durationMs) * time.Millisecond
		if cached != 0 {
			agg.CacheHits++
		} else {
			agg.CacheMisses++
		}
		if rateLimited != 0 {
			agg.RateLimitHits++
		}
		agg.TotalPromptLength += promptLen
		agg.TotalResponseLength += responseLen
		agg.AvgDuration = agg.TotalDuration / time.Duration(agg.TotalCalls)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]metrics.Aggregate, len(out))
	for k, v := range out {
		result[k] = *v
	}
	return result, nil
}

// RecentRecords returns up to limit most recent call records, newest first.
func (h *History) RecentRecords(limit int) ([]metrics.CallRecord, error) {
	rows, err := h.db.Query(`SELECT
		provider, operation, start_time, end_time, duration_ms, success,
		error_message, prompt_length, response_length, cached, rate_limited
		FROM api_calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []metrics.CallRecord
	for rows.Next() {
		var r metrics.CallRecord
		var startStr, endStr string
		var errMsg sql.NullString
		var durationMs int64
		var success, cached, rateLimited int

		if err := rows.Scan(&r.Provider, &r.Operation, &startStr, &endStr,
			&durationMs, &success, &errMsg, &r.PromptLength, &r.ResponseLength,
			&cached, &rateLimited); err != nil {
			return nil, err
		}

		r.StartTime, _ = time.Parse(time.RFC3339Nano, startStr)
		r.EndTime, _ = time.Parse(time.RFC3339Nano, endStr)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Success = success != 0
		r.Cached = cached != 0
		r.RateLimited = rateLimited != 0
		if errMsg.Valid {
			r.ErrorMessage = errMsg.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CallCount returns the number of stored call records.
func (h *History) CallCount() (int, error) {
	var count int
	err := h.db.QueryRow("SELECT COUNT(*) FROM api_calls").Scan(&count)
	return count, err
}

// Prune deletes records older than the cutoff.
func (h *History) Prune(before time.Time) error {
	_, err := h.db.Exec("DELETE FROM api_calls WHERE start_time < ?",
		before.UTC().Format(time.RFC3339Nano))
	return err
}
