// Package persistence provides SQLite-based chain storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nicheai/luxbin/internal/ledger"
)

// ErrNotFound is returned by GetMeta for an unknown key.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for chain persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blocks (
		number INTEGER PRIMARY KEY,
		timestamp TEXT NOT NULL,
		transactions INTEGER NOT NULL,
		previous_hash TEXT NOT NULL,
		miner TEXT NOT NULL,
		quantum_nonce INTEGER NOT NULL,
		hash TEXT NOT NULL UNIQUE,
		consensus_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS service_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_blocks_miner ON blocks(miner);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type blockRow struct {
	Number        uint64 `db:"number"`
	Timestamp     string `db:"timestamp"`
	Transactions  int    `db:"transactions"`
	PreviousHash  string `db:"previous_hash"`
	Miner         string `db:"miner"`
	QuantumNonce  uint8  `db:"quantum_nonce"`
	Hash          string `db:"hash"`
	ConsensusJSON string `db:"consensus_json"`
}

func (r blockRow) block() (*ledger.Block, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("block %d timestamp: %w", r.Number, err)
	}
	b := &ledger.Block{
		Number:       r.Number,
		Timestamp:    ts.UTC(),
		Transactions: r.Transactions,
		PreviousHash: r.PreviousHash,
		Miner:        r.Miner,
		QuantumNonce: r.QuantumNonce,
		Hash:         r.Hash,
	}
	if err := json.Unmarshal([]byte(r.ConsensusJSON), &b.Consensus); err != nil {
		return nil, fmt.Errorf("block %d consensus: %w", r.Number, err)
	}
	return b, nil
}

const insertBlock = `INSERT OR REPLACE INTO blocks
	(number, timestamp, transactions, previous_hash, miner, quantum_nonce, hash, consensus_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveBlock(ex execer, b *ledger.Block) error {
	consensusJSON, err := json.Marshal(b.Consensus)
	if err != nil {
		return err
	}
	_, err = ex.Exec(insertBlock,
		b.Number, b.Timestamp.UTC().Format(time.RFC3339Nano), b.Transactions,
		b.PreviousHash, b.Miner, b.QuantumNonce, b.Hash, string(consensusJSON),
	)
	if err != nil {
		return fmt.Errorf("insert block %d: %w", b.Number, err)
	}
	return nil
}

// SaveBlock writes one block, replacing any block with the same number.
func (db *DB) SaveBlock(b *ledger.Block) error {
	return saveBlock(db.conn, b)
}

// SaveChain writes all blocks to the database (full replace).
func (db *DB) SaveChain(blocks []ledger.Block) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM blocks"); err != nil {
		return err
	}
	for i := range blocks {
		if err := saveBlock(tx, &blocks[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadChain returns every stored block in chain order.
func (db *DB) LoadChain() ([]*ledger.Block, error) {
	var rows []blockRow
	if err := db.conn.Select(&rows, "SELECT * FROM blocks ORDER BY number ASC"); err != nil {
		return nil, fmt.Errorf("select blocks: %w", err)
	}

	blocks := make([]*ledger.Block, 0, len(rows))
	for _, r := range rows {
		b, err := r.block()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	slog.Debug("chain loaded", "blocks", len(blocks))
	return blocks, nil
}

// RecentBlocks returns the most recent N blocks, newest first.
func (db *DB) RecentBlocks(limit int) ([]*ledger.Block, error) {
	var rows []blockRow
	err := db.conn.Select(&rows,
		"SELECT * FROM blocks ORDER BY number DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select blocks: %w", err)
	}

	blocks := make([]*ledger.Block, 0, len(rows))
	for _, r := range rows {
		b, err := r.block()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// HasChain returns true if at least one block is stored.
func (db *DB) HasChain() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM blocks"); err != nil {
		return false
	}
	return count > 0
}

// SaveMeta stores a key-value pair in service metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO service_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM service_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, ErrNotFound)
	}
	return value, err
}
