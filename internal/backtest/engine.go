package backtest

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"energy-backtest/internal/forecast"
	"energy-backtest/internal/model"
	"energy-backtest/internal/performance"
	"energy-backtest/internal/prep"
	"energy-backtest/internal/strategy"

	"github.com/rs/zerolog/log"
)

// ModelOracle runs the perfect-foresight strategy instead of a fitted model.
const ModelOracle = "oracle"

// RunConfig selects the model and how it is fitted.
type RunConfig struct {
	Model string
	// TargetShift is the look-ahead in periods; 0 means one day.
	TargetShift int
	// TrainFraction of the eligible rows is used for fitting, the rest is
	// held out for scoring. 0 or >= 1 trains on everything.
	TrainFraction float64
	// SplitSeed seeds the train/test shuffle.
	SplitSeed int64
	Forest    forecast.ForestParams
}

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run fits the configured model on every row that has a target and complete
// features, forecasts every row with complete features, and turns each
// forecast into a trade decision. Every prepared row appears in the ledger;
// rows that cannot be traded are NO_TRADE with zero PnL.
//
// A model fitting failure aborts the run. A *model.SingularMatrixError is
// returned with the fitted time range filled in.
func (e *Engine) Run(ds *model.Dataset, cfg RunConfig) (*Result, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, fmt.Errorf("no records")
	}
	start := time.Now()
	name := strings.ToLower(strings.TrimSpace(cfg.Model))
	if name == "" {
		name = forecast.ModelLinear
	}

	rows := prep.Prepare(ds, cfg.TargetShift)
	res := &Result{Model: name}

	var (
		strat     strategy.Strategy = strategy.ForecastDriven{}
		forecasts []float64
		err       error
	)
	if name == ModelOracle {
		strat = strategy.Oracle{}
		forecasts = make([]float64, len(rows))
		for i, r := range rows {
			forecasts[i] = r.FutureIDPrice
		}
		res.Evaluation = "perfect-foresight"
	} else {
		forecasts, err = e.fitPredict(rows, cfg, res)
		if err != nil {
			observeRun(name, "error", time.Since(start))
			return nil, err
		}
	}

	res.Ledger = make([]LedgerRow, 0, len(rows))
	cum := 0.0
	for i, r := range rows {
		d, derr := strat.Decide(strategy.Context{Row: r, Forecast: forecasts[i], PeriodsPerHour: ds.PeriodsPerHour})
		if derr != nil {
			res.Drops.Add(derr)
		} else if !r.HasTarget {
			res.Drops.NoTarget++
		}
		cum += d.PnL
		res.Ledger = append(res.Ledger, LedgerRow{
			Index:           r.Index,
			Timestamp:       r.Timestamp,
			FutureTimestamp: r.FutureTimestamp,
			DAPrice:         r.DAPrice,
			IDPrice:         r.IDPrice,
			FutureIDPrice:   r.FutureIDPrice,
			Forecast:        forecasts[i],
			Action:          d.Action,
			BuyPrice:        d.BuyPrice,
			SellPrice:       d.SellPrice,
			PNL:             d.PnL,
			CumPNL:          cum,
		})
		if !r.HasTarget && !math.IsNaN(forecasts[i]) && name != ModelOracle {
			res.OutOfSample = append(res.OutOfSample, ForecastPoint{Timestamp: r.Timestamp, Value: forecasts[i]})
		}
	}
	res.TotalPNL = cum
	res.Summary = performance.Summarize(res.PNLSeries())

	observeRun(res.Model, "ok", time.Since(start))
	log.Info().
		Str("model", res.Model).
		Int("rows", len(rows)).
		Int("train_rows", res.TrainRows).
		Int("test_rows", res.TestRows).
		Int("missing_feature", res.Drops.MissingFeature).
		Int("no_target", res.Drops.NoTarget).
		Float64("total_pnl", res.TotalPNL).
		Dur("elapsed", time.Since(start)).
		Msg("backtest finished")
	return res, nil
}

// fitPredict trains the model and returns one forecast per row (NaN where
// features are missing).
func (e *Engine) fitPredict(rows []model.PreparedRow, cfg RunConfig, res *Result) ([]float64, error) {
	var (
		X      [][]float64
		y      []float64
		fitIdx []int
		scored []int
		XAll   [][]float64
	)
	for i, r := range rows {
		x, missing := r.Features()
		if missing != "" {
			continue
		}
		XAll = append(XAll, x)
		scored = append(scored, i)
		if r.HasTarget {
			X = append(X, x)
			y = append(y, r.FutureIDPrice)
			fitIdx = append(fitIdx, i)
		}
	}
	if len(X) == 0 {
		return nil, fmt.Errorf("no rows with a target and complete features to fit %s", cfg.Model)
	}

	m, err := forecast.New(res.Model, model.FeatureNames, cfg.Forest)
	if err != nil {
		return nil, err
	}
	res.Model = m.Name()

	testFraction := 0.0
	if cfg.TrainFraction > 0 && cfg.TrainFraction < 1 {
		testFraction = 1 - cfg.TrainFraction
	}
	train, test := forecast.TrainTestSplit(len(X), testFraction, cfg.SplitSeed)
	Xtr, ytr := forecast.Rows(X, y, train)

	if err := m.Fit(Xtr, ytr); err != nil {
		var se *model.SingularMatrixError
		if errors.As(err, &se) {
			se.From = rows[fitIdx[0]].Timestamp
			se.To = rows[fitIdx[len(fitIdx)-1]].Timestamp
		}
		return nil, fmt.Errorf("fit %s: %w", res.Model, err)
	}
	res.TrainRows = len(train)
	res.TestRows = len(test)
	res.Diagnostics = m.Diagnostics()

	evalIdx := test
	res.Evaluation = "holdout"
	if len(test) == 0 {
		evalIdx = train
		res.Evaluation = "in-sample"
	}
	Xev, yev := forecast.Rows(X, y, evalIdx)
	yhat, err := m.Predict(Xev)
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", res.Model, err)
	}
	res.Score = forecast.Evaluate(yev, yhat)

	out := make([]float64, len(rows))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(XAll) > 0 {
		pred, err := m.Predict(XAll)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", res.Model, err)
		}
		for k, i := range scored {
			out[i] = pred[k]
		}
	}
	return out, nil
}
