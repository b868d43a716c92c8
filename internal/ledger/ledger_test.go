package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTrades() []Trade {
	return []Trade{
		{Strategy: "strategy_1", Side: SideBuy, Quantity: d("10"), Price: d("50.5")},
		{Strategy: "strategy_1", Side: SideSell, Quantity: d("10"), Price: d("60")},
		{Strategy: "strategy_2", Side: SideSell, Quantity: d("2.5"), Price: d("-10")},
		{Strategy: "strategy_1", Side: SideSell, Quantity: d("1"), Price: d("1.1")},
		{Strategy: "strategy_2", Side: "hold", Quantity: d("100"), Price: d("100")},
	}
}

func TestVolumes(t *testing.T) {
	v := Volumes(sampleTrades())
	assert.True(t, v.Buy.Equal(d("10")), v.Buy.String())
	assert.True(t, v.Sell.Equal(d("13.5")), v.Sell.String())
	assert.True(t, BuyVolume(nil).IsZero())
}

func TestComputePnL(t *testing.T) {
	trades := sampleTrades()
	// 600 + 1.1 - 505
	assert.Equal(t, "96.1", ComputePnL("strategy_1", trades).String())
	assert.Equal(t, "-25", ComputePnL("strategy_2", trades).String())
	assert.True(t, ComputePnL("strategy_9", trades).IsZero())
	assert.Equal(t, []string{"strategy_1", "strategy_2"}, Strategies(trades))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "trades.sqlite")
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, path, "")
	require.NoError(t, err)
	defer s.Close()

	trades, err := s.Trades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades)

	require.NoError(t, s.Insert(ctx, sampleTrades()))
	trades, err = s.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 5)
	assert.Equal(t, "strategy_1", trades[0].Strategy)
	assert.Equal(t, SideBuy, trades[0].Side)
	assert.True(t, trades[0].Price.Equal(d("50.5")))

	r := NewReporter(s)
	pnl, err := r.PnL(ctx, "strategy_1")
	require.NoError(t, err)
	assert.InDelta(t, 96.1, pnl.InexactFloat64(), 1e-9)

	vol, err := r.Volume(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 13.5, vol.Sell.InexactFloat64(), 1e-9)

	ids, err := r.Strategies(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestSQLiteStore_ClosedIsStorageError(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "t.sqlite"), "trades")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewReporter(s).PnL(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrStorage), "got %v", err)
}

func TestOpenExisting_MissingDatabaseIsStorageError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "typo", "trades.sqlite")

	_, err := OpenExisting(ctx, DriverSQLite, path, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage), "got %v", err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "database file was created")
}

func TestOpenExisting_MissingTableIsStorageError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "t.sqlite")
	s, err := Open(ctx, DriverSQLite, path, "other_trades")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = OpenExisting(ctx, DriverSQLite, path, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage), "got %v", err)
	assert.Contains(t, err.Error(), DefaultTable)
}

func TestOpenExisting_ReadsCreatedLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "t.sqlite")
	s, err := Open(ctx, DriverSQLite, path, "")
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleTrades()))
	require.NoError(t, s.Close())

	s, err = OpenExisting(ctx, DriverSQLite, path, "")
	require.NoError(t, err)
	defer s.Close()
	trades, err := s.Trades(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, len(sampleTrades()))

	pnl, err := NewReporter(s).PnL(ctx, "strategy_1")
	require.NoError(t, err)
	assert.InDelta(t, 96.1, pnl.InexactFloat64(), 1e-9)
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "t.sqlite"), "trades; DROP TABLE x")
	assert.Error(t, err)

	_, err = Open(ctx, "mongodb", "", "")
	assert.Error(t, err)
	_, err = OpenExisting(ctx, "mongodb", "", "")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("LEDGER_PG_DSN")
	if dsn == "" {
		t.Skip("LEDGER_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, DriverPostgres, dsn, "ledger_test_trades")
	require.NoError(t, err)
	defer s.Close()

	before, err := s.Trades(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleTrades()))
	after, err := s.Trades(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+5)

	existing, err := OpenExisting(ctx, DriverPostgres, dsn, "ledger_test_trades")
	require.NoError(t, err)
	existing.Close()
	_, err = OpenExisting(ctx, DriverPostgres, dsn, "ledger_test_missing")
	assert.True(t, errors.Is(err, ErrStorage), "got %v", err)
}
