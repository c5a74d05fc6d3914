package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// requestLimiter is the rate limiter the Rust original kept inline against
// its own sqlite connection (check_last_request/record_request): one row
// per funding request, queried for the most recent hit against an address.
type requestLimiter struct {
	db *sql.DB
}

func openRequestLimiter(path string) (*requestLimiter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("faucet: failed to create data directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("faucet: failed to open sqlite db: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS requests (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			address   TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS requests_address_idx ON requests(address);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("faucet: migrating schema: %w", err)
	}
	return &requestLimiter{db: db}, nil
}

func (r *requestLimiter) Close() error {
	return r.db.Close()
}

// recentlyFunded reports whether address received funds within the last
// 24 hours, mirroring the original's check_last_request.
func (r *requestLimiter) recentlyFunded(ctx context.Context, address string, now time.Time) (bool, error) {
	var timestamp int64
	err := r.db.QueryRowContext(ctx,
		`SELECT timestamp FROM requests WHERE address = ? ORDER BY timestamp DESC LIMIT 1`, address,
	).Scan(&timestamp)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return now.Sub(time.Unix(timestamp, 0)) < 24*time.Hour, nil
}

// recordRequest logs a successful payout so recentlyFunded can rate-limit
// the next one.
func (r *requestLimiter) recordRequest(ctx context.Context, address string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests (address, timestamp) VALUES (?, ?)`, address, now.Unix())
	return err
}
