package backtest

import (
	"errors"
	"fmt"
	"time"

	"energy-backtest/internal/forecast"
	"energy-backtest/internal/model"
	"energy-backtest/internal/performance"
)

// LedgerRow is one row of per-period output.
// This is the primary artifact for "what happened" in a backtest.
type LedgerRow struct {
	Index int `json:"index"`

	Timestamp       time.Time `json:"timestamp"`
	FutureTimestamp time.Time `json:"future_timestamp"`

	DAPrice       float64 `json:"da_price"`
	IDPrice       float64 `json:"id_price"`
	FutureIDPrice float64 `json:"future_id_price"`
	Forecast      float64 `json:"forecast"`

	Action    model.Action `json:"action"`
	BuyPrice  float64      `json:"buy_price"`
	SellPrice float64      `json:"sell_price"`

	PNL    float64 `json:"pnl"`
	CumPNL float64 `json:"cum_pnl"`
}

// ForecastPoint is a prediction for a row whose target lies beyond the dataset.
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Result is the outcome of one model run.
type Result struct {
	Model    string      `json:"model"`
	Ledger   []LedgerRow `json:"ledger,omitempty"`
	TotalPNL float64     `json:"total_pnl"`

	Summary     performance.Summary  `json:"summary"`
	Diagnostics forecast.Diagnostics `json:"diagnostics"`

	// Score is measured on held-out rows, or in-sample when the whole
	// eligible set was used for training (Evaluation says which).
	Score      forecast.Score `json:"score"`
	Evaluation string         `json:"evaluation"`
	TrainRows  int            `json:"train_rows"`
	TestRows   int            `json:"test_rows"`

	Drops DropReport `json:"drops"`

	// OutOfSample holds forecasts for the tail rows that have no target.
	OutOfSample []ForecastPoint `json:"out_of_sample,omitempty"`
}

// PNLSeries returns the per-period PnL in ledger order.
func (r *Result) PNLSeries() []float64 {
	out := make([]float64, len(r.Ledger))
	for i, row := range r.Ledger {
		out[i] = row.PNL
	}
	return out
}

const maxDropSamples = 10

// DropReport counts rows that could not be scored. Missing features are
// errors; rows without a target are expected at the tail of the series.
type DropReport struct {
	MissingFeature int      `json:"missing_feature"`
	NoTarget       int      `json:"no_target"`
	Samples        []string `json:"samples,omitempty"`
}

// Add records a row-scoped error.
func (d *DropReport) Add(err error) {
	var mf *model.MissingFeatureError
	if errors.As(err, &mf) {
		d.MissingFeature++
	}
	if len(d.Samples) < maxDropSamples {
		d.Samples = append(d.Samples, err.Error())
	}
}

func (d DropReport) String() string {
	return fmt.Sprintf("missing_feature=%d no_target=%d", d.MissingFeature, d.NoTarget)
}
