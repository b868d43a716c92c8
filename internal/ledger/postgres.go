package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore reads the ledger from a PostgreSQL table through a pgx pool.
type PostgresStore struct {
	db    *pgxpool.Pool
	table string
}

// NewPostgresStore connects and creates the trade table when missing.
func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	s, err := connectPostgres(ctx, dsn, table)
	if err != nil {
		return nil, err
	}
	if err := s.initSchema(ctx); err != nil {
		s.db.Close()
		return nil, storageErr("init schema", err)
	}
	return s, nil
}

// OpenPostgresStore connects to a database that must already hold the table.
func OpenPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	s, err := connectPostgres(ctx, dsn, table)
	if err != nil {
		return nil, err
	}
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var exists bool
	err = s.db.QueryRow(qctx, `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = lower($1))`, table).Scan(&exists)
	if err != nil {
		s.db.Close()
		return nil, storageErr("lookup table", err)
	}
	if !exists {
		s.db.Close()
		return nil, storageErr("lookup table", fmt.Errorf("table %s does not exist", table))
	}
	return s, nil
}

func connectPostgres(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, storageErr("connect", err)
	}
	pctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	if err := db.Ping(pctx); err != nil {
		db.Close()
		return nil, storageErr("ping", err)
	}
	return &PostgresStore{db: db, table: table}, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			strategy TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			price NUMERIC NOT NULL
		)`, s.table))
	return err
}

func (s *PostgresStore) Trades(ctx context.Context) ([]Trade, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		`SELECT strategy, side, quantity::text, price::text FROM %s ORDER BY id`, s.table))
	if err != nil {
		return nil, storageErr("query trades", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var (
			t          Trade
			side       string
			qty, price string
		)
		if err := rows.Scan(&t.Strategy, &side, &qty, &price); err != nil {
			return nil, storageErr("scan trade", err)
		}
		if t.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, storageErr("parse quantity", err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, storageErr("parse price", err)
		}
		t.Side = Side(side)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate trades", err)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, trades []Trade) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	sql := fmt.Sprintf(`INSERT INTO %s (strategy, side, quantity, price) VALUES ($1, $2, $3::numeric, $4::numeric)`, s.table)
	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(sql, t.Strategy, string(t.Side), t.Quantity.String(), t.Price.String())
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return storageErr("insert trades", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
