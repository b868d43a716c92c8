package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the ledger in a local SQLite file.
type SQLiteStore struct {
	db    *sql.DB
	table string
	mu    sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database file and makes sure the
// trade table exists. An existing table is used as is.
func NewSQLiteStore(path, table string) (*SQLiteStore, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("create database directory", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, storageErr("open", err)
	}
	s := &SQLiteStore{db: db, table: table}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, storageErr("init schema", err)
	}
	return s, nil
}

// OpenSQLiteStore opens an existing database file read-write and checks that
// the trade table is present. Nothing is created.
func OpenSQLiteStore(ctx context.Context, path, table string) (*SQLiteStore, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=rw&_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, storageErr("open", err)
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("open "+path, err)
	}
	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if err != nil {
		db.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storageErr("lookup table", fmt.Errorf("table %s does not exist in %s", table, path))
		}
		return nil, storageErr("lookup table", err)
	}
	return &SQLiteStore{db: db, table: table}, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		strategy TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%s_strategy ON %s(strategy);
	`, s.table, s.table, s.table)
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Trades(ctx context.Context) ([]Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT strategy, side, quantity, price FROM %s ORDER BY rowid`, s.table))
	if err != nil {
		return nil, storageErr("query trades", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var side string
		if err := rows.Scan(&t.Strategy, &side, &t.Quantity, &t.Price); err != nil {
			return nil, storageErr("scan trade", err)
		}
		t.Side = Side(side)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate trades", err)
	}
	return out, nil
}

// Insert appends trades in one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, trades []Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (strategy, side, quantity, price) VALUES (?, ?, ?, ?)`, s.table))
	if err != nil {
		tx.Rollback()
		return storageErr("prepare insert", err)
	}
	defer stmt.Close()
	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx, t.Strategy, string(t.Side), t.Quantity.InexactFloat64(), t.Price.InexactFloat64()); err != nil {
			tx.Rollback()
			return storageErr("insert trade", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
