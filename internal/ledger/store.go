package ledger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultTable is the trade table of the EPEX session export.
const DefaultTable = "epex_12_20_12_13"

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrStorage wraps every failure of the backing database.
var ErrStorage = errors.New("ledger storage")

const queryTimeout = 5 * time.Second

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validTable(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("invalid ledger table name %q", name)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

// Store is a persistent trade ledger.
type Store interface {
	Trades(ctx context.Context) ([]Trade, error)
	Insert(ctx context.Context, trades []Trade) error
	Close() error
}

// Open connects to the ledger named by driver, creating the trade table (and
// for SQLite the database file) when missing. An empty table uses DefaultTable.
func Open(ctx context.Context, driver, dsn, table string) (Store, error) {
	return open(ctx, driver, dsn, table, true)
}

// OpenExisting connects to a ledger that must already hold the trade table.
// It never creates files or schema, so a mistyped DSN surfaces as ErrStorage
// rather than as an empty ledger. Reporting paths use it.
func OpenExisting(ctx context.Context, driver, dsn, table string) (Store, error) {
	return open(ctx, driver, dsn, table, false)
}

func open(ctx context.Context, driver, dsn, table string, create bool) (Store, error) {
	if table == "" {
		table = DefaultTable
	}
	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite3":
		if !create {
			return OpenSQLiteStore(ctx, dsn, table)
		}
		s, err := NewSQLiteStore(dsn, table)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres, "postgresql", "pgx":
		if !create {
			return OpenPostgresStore(ctx, dsn, table)
		}
		s, err := NewPostgresStore(ctx, dsn, table)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}

// Reporter answers the reporting queries on top of a Store.
type Reporter struct {
	store Store
}

func NewReporter(s Store) *Reporter { return &Reporter{store: s} }

// PnL loads the ledger and computes one strategy's PnL.
func (r *Reporter) PnL(ctx context.Context, strategyID string) (decimal.Decimal, error) {
	trades, err := r.store.Trades(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	pnl := ComputePnL(strategyID, trades)
	log.Debug().Str("strategy", strategyID).Int("trades", len(trades)).Str("pnl", pnl.String()).Msg("pnl computed")
	return pnl, nil
}

func (r *Reporter) Volume(ctx context.Context) (Volume, error) {
	trades, err := r.store.Trades(ctx)
	if err != nil {
		return Volume{}, err
	}
	return Volumes(trades), nil
}

func (r *Reporter) Strategies(ctx context.Context) ([]string, error) {
	trades, err := r.store.Trades(ctx)
	if err != nil {
		return nil, err
	}
	return Strategies(trades), nil
}
