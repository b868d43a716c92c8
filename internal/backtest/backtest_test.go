package backtest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"energy-backtest/internal/forecast"
	"energy-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

// syntheticDataset builds days of 15-minute periods with a daily price shape.
func syntheticDataset(days int) *model.Dataset {
	rng := rand.New(rand.NewSource(11))
	n := days * 96
	recs := make([]model.PeriodRecord, n)
	for i := range recs {
		hour := float64(i%96) / 4
		da := 50 + 20*math.Sin(hour/24*2*math.Pi) + rng.NormFloat64()
		recs[i] = model.PeriodRecord{
			Timestamp:      start.Add(time.Duration(i) * 15 * time.Minute),
			DAPrice:        da,
			IDPrice:        da + rng.NormFloat64()*5,
			WindDAForecast: 1000 + rng.Float64()*5000,
			PVDAForecast:   math.Max(0, 3000*math.Sin((hour-6)/12*math.Pi)) + rng.Float64(),
			WindIDForecast: math.NaN(),
			PVIDForecast:   math.NaN(),
		}
	}
	return &model.Dataset{Records: recs, PeriodsPerHour: 4, Location: time.UTC}
}

func checkLedger(t *testing.T, res *Result, n int) {
	t.Helper()
	require.Len(t, res.Ledger, n)
	sum := 0.0
	for i, r := range res.Ledger {
		assert.False(t, math.IsNaN(r.PNL), "row %d", i)
		sum += r.PNL
		assert.InDelta(t, sum, r.CumPNL, 1e-9)
		switch r.Action {
		case model.ActionBuyDASellID:
			assert.Greater(t, r.Forecast, r.DAPrice)
			assert.Equal(t, r.DAPrice, r.BuyPrice)
			assert.Equal(t, r.FutureIDPrice, r.SellPrice)
		case model.ActionBuyIDSellDA:
			assert.LessOrEqual(t, r.Forecast, r.DAPrice)
			assert.Equal(t, r.FutureIDPrice, r.BuyPrice)
			assert.Equal(t, r.DAPrice, r.SellPrice)
		case model.ActionNoTrade:
			assert.Equal(t, 0.0, r.PNL)
		default:
			t.Fatalf("unexpected action %q", r.Action)
		}
		if r.Action != model.ActionNoTrade {
			assert.InDelta(t, (r.SellPrice-r.BuyPrice)/4, r.PNL, 1e-9)
		}
	}
	assert.InDelta(t, sum, res.TotalPNL, 1e-9)
	assert.InDelta(t, res.TotalPNL, res.Summary.TotalPnL, 1e-9)
	assert.LessOrEqual(t, res.Summary.MaxDrawdown, 0.0)
}

func TestRun_Linear(t *testing.T) {
	ds := syntheticDataset(3)
	res, err := New().Run(ds, RunConfig{Model: forecast.ModelLinear})
	require.NoError(t, err)

	checkLedger(t, res, 288)
	assert.Equal(t, 192, res.TrainRows)
	assert.Equal(t, 0, res.TestRows)
	assert.Equal(t, "in-sample", res.Evaluation)
	assert.Equal(t, 96, res.Drops.NoTarget)
	assert.Len(t, res.OutOfSample, 96)
	assert.Equal(t, ds.Records[200].Timestamp, res.OutOfSample[8].Timestamp)
	for _, r := range res.Ledger[192:] {
		assert.Equal(t, model.ActionNoTrade, r.Action)
	}
	require.NotNil(t, res.Diagnostics.Intercept)
	assert.Len(t, res.Diagnostics.Weights, 4)
}

func TestRun_ForestHoldout(t *testing.T) {
	ds := syntheticDataset(3)
	res, err := New().Run(ds, RunConfig{
		Model:         forecast.ModelForest,
		TrainFraction: 0.8,
		SplitSeed:     42,
		Forest:        forecast.ForestParams{Trees: 5, Seed: 42, MaxDepth: 6},
	})
	require.NoError(t, err)
	checkLedger(t, res, 288)
	assert.Equal(t, "holdout", res.Evaluation)
	assert.Equal(t, 192, res.TrainRows+res.TestRows)
	assert.Equal(t, 39, res.TestRows)
	assert.Equal(t, "importance", res.Diagnostics.Kind)

	again, err := New().Run(ds, RunConfig{
		Model:         forecast.ModelForest,
		TrainFraction: 0.8,
		SplitSeed:     42,
		Forest:        forecast.ForestParams{Trees: 5, Seed: 42, MaxDepth: 6, Workers: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, res.TotalPNL, again.TotalPNL)
}

func TestRun_OracleIsUpperBound(t *testing.T) {
	ds := syntheticDataset(3)
	oracle, err := New().Run(ds, RunConfig{Model: ModelOracle})
	require.NoError(t, err)
	checkLedger(t, oracle, 288)
	assert.Empty(t, oracle.OutOfSample)

	lin, err := New().Run(ds, RunConfig{Model: forecast.ModelLinear})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, oracle.TotalPNL, lin.TotalPNL)
	for _, r := range oracle.Ledger {
		assert.GreaterOrEqual(t, r.PNL, 0.0)
	}
}

func TestRun_MissingFeatureIsRowScoped(t *testing.T) {
	ds := syntheticDataset(2)
	ds.Records[10].WindDAForecast = math.NaN()

	res, err := New().Run(ds, RunConfig{Model: forecast.ModelLinear})
	require.NoError(t, err)
	checkLedger(t, res, 192)
	assert.Equal(t, 1, res.Drops.MissingFeature)
	require.Len(t, res.Drops.Samples, 1)
	assert.Contains(t, res.Drops.Samples[0], model.FeatureWindDA)
	assert.Equal(t, model.ActionNoTrade, res.Ledger[10].Action)
	assert.Equal(t, 95, res.TrainRows)
}

func TestRun_SingularFitCarriesTimeRange(t *testing.T) {
	ds := syntheticDataset(2)
	for i := range ds.Records {
		ds.Records[i].PVDAForecast = 0
	}
	_, err := New().Run(ds, RunConfig{Model: forecast.ModelLinear})
	var se *model.SingularMatrixError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, ds.Records[0].Timestamp, se.From)
	assert.Equal(t, ds.Records[95].Timestamp, se.To)
	assert.Contains(t, err.Error(), "pv_da_forecast")
}

func TestRun_Errors(t *testing.T) {
	_, err := New().Run(nil, RunConfig{})
	assert.Error(t, err)

	_, err = New().Run(syntheticDataset(1), RunConfig{Model: forecast.ModelLinear})
	assert.Error(t, err, "one day has no targets")

	_, err = New().Run(syntheticDataset(2), RunConfig{Model: "arima"})
	assert.Error(t, err)
}

func TestWriteLedger(t *testing.T) {
	ledger := []LedgerRow{
		{Index: 0, Timestamp: start, DAPrice: 50, IDPrice: 49, FutureIDPrice: 60, Forecast: 55,
			Action: model.ActionBuyDASellID, BuyPrice: 50, SellPrice: 60, PNL: 2.5, CumPNL: 2.5},
		{Index: 1, Timestamp: start.Add(15 * time.Minute), DAPrice: 51, IDPrice: 48,
			FutureIDPrice: math.NaN(), Forecast: math.NaN(), Action: model.ActionNoTrade, CumPNL: 2.5},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, ledger))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "index", recs[0][0])
	assert.Equal(t, "2021-03-01T00:00:00Z", recs[1][1])
	assert.Equal(t, "", recs[1][2])
	assert.Equal(t, "2.500000", recs[1][10])
	assert.Equal(t, "", recs[2][5])
	assert.Equal(t, "NO_TRADE", recs[2][7])
}

func TestWriteArbitrage(t *testing.T) {
	days := []model.DailyArbitrage{
		{Date: start, Action: model.ActionCycle, BuyHour: 1, BuyPrice: 5, SellHour: 2, SellPrice: 20, Revenue: 15},
		{Date: start.AddDate(0, 0, 1), Action: model.ActionNoTrade, BuyHour: -1, SellHour: -1, Reason: "no positive-price hour"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteArbitrage(&buf, days))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2021-03-01,CYCLE,1,5.000000,2,20.000000,15.000000,", lines[1])
	assert.Equal(t, "2021-03-02,NO_TRADE,,,,,0.000000,no positive-price hour", lines[2])
}

func TestWriteHourly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHourly(&buf, []model.HourlyAggregate{
		{Date: start, Hour: 3, Intervals: 4, WindDAMWh: 10, DAPrice: 40, IDPrice: math.NaN()},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2021-03-01,3,4,10.000000,0.000000,0.000000,0.000000,40.000000,", lines[1])
}

func TestCompareForecasts(t *testing.T) {
	t1 := start
	t2 := start.Add(15 * time.Minute)
	a := &Result{Model: "ols", OutOfSample: []ForecastPoint{{t2, 2}, {t1, 1}}}
	b := &Result{Model: "forest", OutOfSample: []ForecastPoint{{t2, 20}}}

	c := CompareForecasts(a, b)
	assert.Equal(t, []string{"ols", "forest"}, c.Models)
	assert.Equal(t, []time.Time{t1, t2}, c.Timestamps)
	assert.Equal(t, 1.0, c.Values[0][0])
	assert.True(t, math.IsNaN(c.Values[0][1]))
	assert.Equal(t, []float64{2, 20}, c.Values[1])

	var buf bytes.Buffer
	require.NoError(t, WriteComparison(&buf, c))
	assert.True(t, strings.HasPrefix(buf.String(), "timestamp,ols,forest\n"))
}
