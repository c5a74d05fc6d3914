// Package headercache is a local sqlite mirror of the committed headers the
// relayer has submitted, so it can resupply the CommittedBlockHeader values
// the core's commit-echo check requires without re-deriving the whole
// chain from genesis on every call. Trimmed from teranode's
// stores/blockchain/sql package (full-block storage, Postgres/SQLite dual
// backend, query caching) down to header-only storage against sqlite alone
// — this repo has no block/transaction store of its own.
package headercache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/yona-labs/btc-relay/header"
)

// Store is a sqlite-backed cache of committed headers and small key/value
// state blobs under caller-chosen keys. The tip is derived from the highest
// cached header, and fork state is not stored here.
type Store struct {
	db *sql.DB
}

// Open creates (if necessary) and opens a sqlite database at path,
// following the teacher's sqlite pragma choices (WAL journal, shared
// locking, short busy timeout — fail fast rather than mask a contention
// bug behind a long wait).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("headercache: failed to create data directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("headercache: failed to open sqlite db: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("headercache: enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS committed_headers (
		block_height INTEGER PRIMARY KEY,
		chain_work BLOB NOT NULL,
		version INTEGER NOT NULL,
		reversed_prev_blockhash BLOB NOT NULL,
		merkle_root BLOB NOT NULL,
		timestamp INTEGER NOT NULL,
		n_bits INTEGER NOT NULL,
		nonce INTEGER NOT NULL,
		last_diff_adjustment INTEGER NOT NULL,
		prev_block_timestamps BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS state (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutCommittedHeader upserts c, keyed by its block height.
func (s *Store) PutCommittedHeader(ctx context.Context, c header.CommittedBlockHeader) error {
	var prevTimestamps [40]byte
	for i, ts := range c.PrevBlockTimestamps {
		binary.LittleEndian.PutUint32(prevTimestamps[i*4:i*4+4], ts)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO committed_headers (
			block_height, chain_work, version, reversed_prev_blockhash,
			merkle_root, timestamp, n_bits, nonce, last_diff_adjustment,
			prev_block_timestamps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (block_height) DO UPDATE SET
			chain_work = excluded.chain_work,
			version = excluded.version,
			reversed_prev_blockhash = excluded.reversed_prev_blockhash,
			merkle_root = excluded.merkle_root,
			timestamp = excluded.timestamp,
			n_bits = excluded.n_bits,
			nonce = excluded.nonce,
			last_diff_adjustment = excluded.last_diff_adjustment,
			prev_block_timestamps = excluded.prev_block_timestamps
	`,
		c.BlockHeight, c.ChainWork[:], c.Header.Version, c.Header.ReversedPrevBlockhash[:],
		c.Header.MerkleRoot[:], c.Header.Timestamp, c.Header.NBits, c.Header.Nonce, c.LastDiffAdjustment,
		prevTimestamps[:],
	)
	return err
}

// GetCommittedHeader returns the cached record at blockHeight.
func (s *Store) GetCommittedHeader(ctx context.Context, blockHeight uint32) (header.CommittedBlockHeader, error) {
	var c header.CommittedBlockHeader
	var chainWork, reversedPrev, merkleRoot, prevTimestamps []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT block_height, chain_work, version, reversed_prev_blockhash,
			merkle_root, timestamp, n_bits, nonce, last_diff_adjustment,
			prev_block_timestamps
		FROM committed_headers WHERE block_height = ?
	`, blockHeight).Scan(
		&c.BlockHeight, &chainWork, &c.Header.Version, &reversedPrev,
		&merkleRoot, &c.Header.Timestamp, &c.Header.NBits, &c.Header.Nonce, &c.LastDiffAdjustment,
		&prevTimestamps,
	)
	if err != nil {
		return header.CommittedBlockHeader{}, err
	}

	copy(c.ChainWork[:], chainWork)
	copy(c.Header.ReversedPrevBlockhash[:], reversedPrev)
	copy(c.Header.MerkleRoot[:], merkleRoot)
	for i := range c.PrevBlockTimestamps {
		c.PrevBlockTimestamps[i] = binary.LittleEndian.Uint32(prevTimestamps[i*4 : i*4+4])
	}
	return c, nil
}

// HasTip reports whether any committed header has been cached yet, so a
// caller can distinguish "needs bootstrapping from a trusted checkpoint"
// from a real GetTip failure.
func (s *Store) HasTip(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM committed_headers`).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetTip returns the highest-height cached committed header.
func (s *Store) GetTip(ctx context.Context) (header.CommittedBlockHeader, error) {
	var height uint32
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(block_height) FROM committed_headers`).Scan(&height); err != nil {
		return header.CommittedBlockHeader{}, err
	}
	return s.GetCommittedHeader(ctx, height)
}

// GetState returns the blob stored under key, following the teacher's
// generic key/value state table pattern (stores/blockchain/sql/State.go).
func (s *Store) GetState(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM state WHERE key = ?`, key).Scan(&data)
	return data, err
}

// SetState upserts the blob stored under key.
func (s *Store) SetState(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state (key, data) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, key, data)
	return err
}
