package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect selects SQL placeholder and DDL flavor.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) ddl() string {
	stateType := "BLOB"
	if d == Postgres {
		stateType = "JSONB"
	}
	return `CREATE TABLE IF NOT EXISTS storex_snapshots (
		store_id TEXT PRIMARY KEY,
		sequence BIGINT NOT NULL,
		action_type TEXT NOT NULL,
		state ` + stateType + ` NOT NULL,
		saved_at BIGINT NOT NULL
	)`
}

// SQLPersister keeps the latest snapshot per store in the
// storex_snapshots table. State is stored as JSON.
type SQLPersister struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLPersister wraps an open database and ensures the snapshot table exists.
func NewSQLPersister(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLPersister, error) {
	if db == nil {
		return nil, errors.New("nil database")
	}
	if _, err := db.ExecContext(ctx, dialect.ddl()); err != nil {
		return nil, fmt.Errorf("ensure snapshot table (%s): %w", dialect, err)
	}
	return &SQLPersister{db: db, dialect: dialect}, nil
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLPersister, error) {
	if path == "" {
		path = "storex.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	p, err := NewSQLPersister(ctx, db, SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// OpenPostgres connects to Postgres through pgx.
func OpenPostgres(ctx context.Context, dsn string) (*SQLPersister, error) {
	if dsn == "" {
		return nil, errors.New("postgres DSN required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p, err := NewSQLPersister(ctx, db, Postgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// DB exposes the underlying database.
func (p *SQLPersister) DB() *sql.DB { return p.db }

// Close closes the underlying database.
func (p *SQLPersister) Close() error { return p.db.Close() }

func (p *SQLPersister) Save(ctx context.Context, snapshot Snapshot) error {
	if err := validateStoreID(snapshot.StoreID); err != nil {
		return err
	}
	state, err := json.Marshal(snapshot.State)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	ts := snapshot.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	d := p.dialect
	query := fmt.Sprintf(`INSERT INTO storex_snapshots (store_id, sequence, action_type, state, saved_at)
		VALUES (%s, %s, %s, %s, %s)
		ON CONFLICT (store_id) DO UPDATE SET
			sequence = excluded.sequence,
			action_type = excluded.action_type,
			state = excluded.state,
			saved_at = excluded.saved_at`,
		d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4), d.placeholder(5))

	var stateArg any = state
	if d == Postgres {
		stateArg = string(state)
	}
	if _, err := p.db.ExecContext(ctx, query,
		snapshot.StoreID, int64(snapshot.Sequence), snapshot.ActionType, stateArg, ts.UnixNano()); err != nil {
		return fmt.Errorf("upsert snapshot %q: %w", snapshot.StoreID, err)
	}
	return nil
}

func (p *SQLPersister) Load(ctx context.Context, storeID string) (Snapshot, error) {
	query := fmt.Sprintf(`SELECT sequence, action_type, state, saved_at FROM storex_snapshots WHERE store_id = %s`,
		p.dialect.placeholder(1))

	var (
		seq     int64
		action  string
		state   []byte
		savedAt int64
	)
	err := p.db.QueryRowContext(ctx, query, storeID).Scan(&seq, &action, &state, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("store %q: %w", storeID, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("select snapshot %q: %w", storeID, err)
	}

	snap := Snapshot{
		StoreID:    storeID,
		Sequence:   uint64(seq),
		ActionType: action,
		Timestamp:  time.Unix(0, savedAt),
	}
	if err := json.Unmarshal(state, &snap.State); err != nil {
		return Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return snap, nil
}

func (p *SQLPersister) Delete(ctx context.Context, storeID string) error {
	query := fmt.Sprintf(`DELETE FROM storex_snapshots WHERE store_id = %s`, p.dialect.placeholder(1))
	if _, err := p.db.ExecContext(ctx, query, storeID); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", storeID, err)
	}
	return nil
}

// StoreIDs lists stores with a saved snapshot, sorted.
func (p *SQLPersister) StoreIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT store_id FROM storex_snapshots ORDER BY store_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
