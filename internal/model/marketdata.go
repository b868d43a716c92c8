package model

import (
	"math"
	"time"
)

// Feature names, in the column order the forecast models are fitted on.
const (
	FeatureIDPrice = "id_price"
	FeatureDAPrice = "da_price"
	FeatureWindDA  = "wind_da_forecast"
	FeaturePVDA    = "pv_da_forecast"
)

// FeatureNames lists the predictor columns of a Period Record.
var FeatureNames = []string{FeatureIDPrice, FeatureDAPrice, FeatureWindDA, FeaturePVDA}

// PeriodRecord is one settlement period of the input dataset.
// Units:
// - prices: EUR/MWh (may be negative)
// - forecasts: MW (average power over the period)
//
// Missing numeric cells are stored as NaN; use Features to detect them.
type PeriodRecord struct {
	Timestamp time.Time

	DAPrice float64
	IDPrice float64

	WindDAForecast float64
	PVDAForecast   float64

	// Intraday forecasts are optional in the input; NaN when absent.
	WindIDForecast float64
	PVIDForecast   float64
}

// Features returns the predictor vector in FeatureNames order.
// If any predictor is missing it returns the name of the first missing one.
func (r PeriodRecord) Features() ([]float64, string) {
	x := []float64{r.IDPrice, r.DAPrice, r.WindDAForecast, r.PVDAForecast}
	for i, v := range x {
		if math.IsNaN(v) {
			return nil, FeatureNames[i]
		}
	}
	return x, ""
}

// PreparedRow is a Period Record enriched with calendar features and the
// shifted prediction target.
type PreparedRow struct {
	Index int
	PeriodRecord

	Date      time.Time // local midnight of Timestamp
	Hour      int
	Weekday   time.Weekday
	IsWeekend bool

	// FutureTimestamp / FutureIDPrice are the values TargetShift periods ahead.
	// HasTarget is false for the tail of the series.
	FutureTimestamp time.Time
	FutureIDPrice   float64
	HasTarget       bool
}

// HourlyAggregate is one (date, hour) bucket of the period series.
// Power fields are energy-integrated (MWh), price fields are arithmetic means.
type HourlyAggregate struct {
	Date time.Time
	Hour int

	// Intervals is the number of periods that fell into the hour (4 nominal,
	// fewer or more around daylight-saving changes).
	Intervals int

	WindDAMWh float64
	PVDAMWh   float64
	WindIDMWh float64
	PVIDMWh   float64

	DAPrice float64
	IDPrice float64
}

// TradeDecision is the forecast-driven strategy output for one period.
type TradeDecision struct {
	Action    Action
	BuyPrice  float64
	SellPrice float64
	PnL       float64
}

// DailyArbitrage is the best single charge/discharge pair for one day.
// When Action is ActionNoTrade the hours are -1 and all prices and Revenue are 0.
type DailyArbitrage struct {
	Date      time.Time
	Action    Action
	BuyHour   int
	BuyPrice  float64
	SellHour  int
	SellPrice float64
	Revenue   float64
	// Reason is set for no-trade days.
	Reason string
}

// Traded reports whether the day produced a charge/discharge pair.
func (d DailyArbitrage) Traded() bool { return d.Action == ActionCycle }

// DateKey formats a calendar day the way all outputs print it.
func DateKey(t time.Time) string { return t.Format("2006-01-02") }
