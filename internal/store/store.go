// Package store persists screener snapshots to MySQL so token history
// survives restarts and can be queried offline.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/dexlens/dexlens/internal/datasource"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	fetched_at DATETIME NOT NULL,
	ref_price_usd DOUBLE NOT NULL DEFAULT 0,
	token_count INT NOT NULL,
	INDEX idx_snapshots_fetched_at (fetched_at)
)`

const createTokensTable = `
CREATE TABLE IF NOT EXISTS snapshot_tokens (
	snapshot_id BIGINT NOT NULL,
	rank_pos INT NOT NULL,
	chain VARCHAR(32) NOT NULL,
	address VARCHAR(128) NOT NULL,
	symbol VARCHAR(64) NOT NULL,
	price DOUBLE NOT NULL,
	price_change_24h DOUBLE NOT NULL,
	slippage DOUBLE NOT NULL,
	holder_count BIGINT NOT NULL,
	market_cap DOUBLE NOT NULL,
	deployed_at DATETIME NULL,
	PRIMARY KEY (snapshot_id, rank_pos),
	INDEX idx_snapshot_tokens_address (address)
)`

const insertSnapshot = `INSERT INTO snapshots (fetched_at, ref_price_usd, token_count) VALUES (?, ?, ?)`

const insertToken = `INSERT INTO snapshot_tokens
	(snapshot_id, rank_pos, chain, address, symbol, price, price_change_24h, slippage, holder_count, market_cap, deployed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Archive writes snapshots to MySQL.
type Archive struct {
	db *sql.DB
}

// Open connects to MySQL with the given DSN and ensures the schema exists.
func Open(dsn string) (*Archive, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	a := &Archive{db: db}
	if err := a.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// NewWithDB wraps an existing database handle. The caller owns schema setup.
func NewWithDB(db *sql.DB) *Archive {
	return &Archive{db: db}
}

func (a *Archive) ensureSchema() error {
	for _, stmt := range []string{createSnapshotsTable, createTokensTable} {
		if _, err := a.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveSnapshot writes one snapshot and all its token rows in a single
// transaction. Rank positions follow the feed order, starting at 1.
func (a *Archive) SaveSnapshot(ctx context.Context, snap datasource.Snapshot) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, insertSnapshot,
		snap.FetchedAt.UTC(), snap.RefPriceUSD, len(snap.Records))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	snapID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertToken)
	if err != nil {
		return fmt.Errorf("prepare token insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snap.Records {
		var deployed any
		if !rec.DeployedAt.IsZero() {
			deployed = rec.DeployedAt.UTC()
		}
		if _, err := stmt.ExecContext(ctx, snapID, i+1,
			rec.Chain, rec.Address, rec.Symbol,
			rec.Price, rec.PriceChange24h, rec.Slippage,
			rec.HolderCount, rec.MarketCap, deployed); err != nil {
			return fmt.Errorf("insert token %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LatestSnapshotAt returns the fetch time of the most recent archived
// snapshot, or the zero time when the archive is empty.
func (a *Archive) LatestSnapshotAt(ctx context.Context) (time.Time, error) {
	var ts sql.NullTime
	err := a.db.QueryRowContext(ctx, `SELECT MAX(fetched_at) FROM snapshots`).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}

// Close closes the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}
