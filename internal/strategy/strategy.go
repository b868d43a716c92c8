package strategy

import (
	"math"

	"energy-backtest/internal/model"
)

// DefaultPeriodsPerHour is used when a Context leaves PeriodsPerHour unset.
const DefaultPeriodsPerHour = 4

// Context is everything a strategy sees for one settlement period.
type Context struct {
	Row model.PreparedRow
	// Forecast is the model's prediction of Row.FutureIDPrice; NaN when the
	// model produced nothing for this row.
	Forecast       float64
	PeriodsPerHour int
}

// Strategy converts one period into a trade decision. Implementations are
// stateless and safe for concurrent use.
type Strategy interface {
	Name() string
	Decide(ctx Context) (model.TradeDecision, error)
}

// ForecastDriven trades the spread between the day-ahead price and the
// realized future intraday price in the direction the forecast points.
type ForecastDriven struct{}

func (ForecastDriven) Name() string { return "forecast" }

func (ForecastDriven) Decide(ctx Context) (model.TradeDecision, error) {
	return Decide(ctx.Row, ctx.Forecast, ctx.PeriodsPerHour)
}

// NoTrade is the decision for periods that cannot be traded.
var NoTrade = model.TradeDecision{Action: model.ActionNoTrade}

// Decide applies the forecast-driven rule to a single row:
//
//	forecast >  DA: buy DA, sell future ID
//	forecast <= DA: buy future ID, sell DA
//	pnl = (sell - buy) / periodsPerHour
//
// A row with a missing predictor returns *model.MissingFeatureError together
// with NoTrade. A row without a target or without a forecast is NoTrade with
// zero PnL and no error.
func Decide(row model.PreparedRow, forecast float64, periodsPerHour int) (model.TradeDecision, error) {
	if _, missing := row.Features(); missing != "" {
		return NoTrade, &model.MissingFeatureError{Row: row.Index, Timestamp: row.Timestamp, Feature: missing}
	}
	if !row.HasTarget || math.IsNaN(forecast) || math.IsNaN(row.FutureIDPrice) {
		return NoTrade, nil
	}
	if periodsPerHour <= 0 {
		periodsPerHour = DefaultPeriodsPerHour
	}

	d := model.TradeDecision{Action: model.ActionFromForecast(forecast, row.DAPrice)}
	if d.Action == model.ActionBuyDASellID {
		d.BuyPrice, d.SellPrice = row.DAPrice, row.FutureIDPrice
	} else {
		d.BuyPrice, d.SellPrice = row.FutureIDPrice, row.DAPrice
	}
	d.PnL = (d.SellPrice - d.BuyPrice) / float64(periodsPerHour)
	return d, nil
}
