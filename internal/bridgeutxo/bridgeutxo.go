// Package bridgeutxo tracks the UTXOs the bridge's signing key controls —
// the change outputs from prior withdrawal transactions plus whatever the
// operator seeds the vault with — so a withdrawal request has coins to
// select from. Trimmed from teranode's stores/utxo/sql schema (full UTXO
// set for every on-chain transaction, Postgres/SQLite dual backend,
// aerospike variant) down to a single sqlite table scoped to the coins one
// key controls.
package bridgeutxo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusUTXOAdd   prometheus.Counter
	prometheusUTXOSpend prometheus.Counter
	prometheusUTXOGet   prometheus.Counter
)

func init() {
	prometheusUTXOAdd = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeutxo_add",
		Help: "Number of UTXOs added to the bridge key's tracked set",
	})
	prometheusUTXOSpend = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeutxo_spend",
		Help: "Number of UTXOs marked spent",
	})
	prometheusUTXOGet = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridgeutxo_get",
		Help: "Number of unspent-UTXO listing calls",
	})
}

// UTXO is one coin the bridge key can spend.
type UTXO struct {
	TxID          [32]byte
	Vout          uint32
	Satoshis      uint64
	LockingScript []byte
}

// Store is a sqlite-backed set of UTXOs the bridge key controls.
type Store struct {
	db *sql.DB
}

// Open creates (if necessary) and opens a sqlite database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bridgeutxo: failed to create data directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=5000&_pragma=journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("bridgeutxo: failed to open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS utxos (
			txid             BLOB NOT NULL,
			vout             INTEGER NOT NULL,
			satoshis         INTEGER NOT NULL,
			locking_script   BLOB NOT NULL,
			spending_txid    BLOB,
			PRIMARY KEY (txid, vout)
		);
	`)
	return err
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records a new UTXO the bridge key can spend.
func (s *Store) Add(ctx context.Context, u UTXO) error {
	prometheusUTXOAdd.Inc()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO utxos (txid, vout, satoshis, locking_script)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (txid, vout) DO NOTHING
	`, u.TxID[:], u.Vout, u.Satoshis, u.LockingScript)
	return err
}

// MarkSpent records that spendingTxID consumed the (txid, vout) output.
func (s *Store) MarkSpent(ctx context.Context, txid [32]byte, vout uint32, spendingTxID [32]byte) error {
	prometheusUTXOSpend.Inc()
	_, err := s.db.ExecContext(ctx, `
		UPDATE utxos SET spending_txid = ? WHERE txid = ? AND vout = ? AND spending_txid IS NULL
	`, spendingTxID[:], txid[:], vout)
	return err
}

// ListUnspent returns every UTXO not yet marked spent.
func (s *Store) ListUnspent(ctx context.Context) ([]UTXO, error) {
	prometheusUTXOGet.Inc()
	rows, err := s.db.QueryContext(ctx, `
		SELECT txid, vout, satoshis, locking_script FROM utxos WHERE spending_txid IS NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UTXO
	for rows.Next() {
		var u UTXO
		var txid []byte
		if err := rows.Scan(&txid, &u.Vout, &u.Satoshis, &u.LockingScript); err != nil {
			return nil, err
		}
		copy(u.TxID[:], txid)
		out = append(out, u)
	}
	return out, rows.Err()
}

// SelectCoins greedily accumulates unspent UTXOs (largest first) until their
// total satisfies targetSats, returning the selected coins and their sum.
// Bookkeeping only — this repo does not construct or sign the withdrawal
// transaction itself (spec.md §4.9's Non-goal).
func (s *Store) SelectCoins(ctx context.Context, targetSats uint64) ([]UTXO, uint64, error) {
	unspent, err := s.ListUnspent(ctx)
	if err != nil {
		return nil, 0, err
	}

	for i := range unspent {
		for j := i + 1; j < len(unspent); j++ {
			if unspent[j].Satoshis > unspent[i].Satoshis {
				unspent[i], unspent[j] = unspent[j], unspent[i]
			}
		}
	}

	var selected []UTXO
	var total uint64
	for _, u := range unspent {
		if total >= targetSats {
			break
		}
		selected = append(selected, u)
		total += u.Satoshis
	}

	if total < targetSats {
		return nil, 0, fmt.Errorf("bridgeutxo: insufficient funds: have %d, need %d", total, targetSats)
	}
	return selected, total, nil
}
