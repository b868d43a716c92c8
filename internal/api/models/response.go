package models

import (
	"math"
	"time"

	"energy-backtest/internal/forecast"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID          string               `json:"id,omitempty"`
	Status      string               `json:"status"`
	Model       string               `json:"model"`
	Summary     BacktestSummary      `json:"summary"`
	Diagnostics forecast.Diagnostics `json:"diagnostics"`
	Ledger      []LedgerRow          `json:"ledger,omitempty"`
}

// BacktestSummary contains aggregated backtest results
type BacktestSummary struct {
	TotalPNL       float64    `json:"total_pnl"`
	MaxDrawdown    float64    `json:"max_drawdown"`
	TradeCount     int        `json:"trade_count"`
	Wins           int        `json:"wins"`
	WinRate        float64    `json:"win_rate"`
	TotalIntervals int        `json:"total_intervals"`
	BacktestWindow TimeWindow `json:"backtest_window"`

	Evaluation string   `json:"evaluation"`
	TrainRows  int      `json:"train_rows"`
	TestRows   int      `json:"test_rows"`
	MSE        *float64 `json:"mse,omitempty"`
	R2         *float64 `json:"r2,omitempty"`

	DroppedMissingFeature int `json:"dropped_missing_feature"`
	DroppedNoTarget       int `json:"dropped_no_target"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LedgerRow represents one period in the backtest ledger.
// Missing values are null.
type LedgerRow struct {
	Index           int        `json:"index"`
	Timestamp       time.Time  `json:"timestamp"`
	FutureTimestamp *time.Time `json:"future_timestamp"`
	DAPrice         *float64   `json:"da_price"`
	IDPrice         *float64   `json:"id_price"`
	FutureIDPrice   *float64   `json:"future_id_price"`
	Forecast        *float64   `json:"forecast"`
	Action          string     `json:"action"` // "BUY_DA_SELL_ID", "BUY_ID_SELL_DA", "NO_TRADE"
	BuyPrice        float64    `json:"buy_price"`
	SellPrice       float64    `json:"sell_price"`
	PNL             float64    `json:"pnl"`
	CumPNL          float64    `json:"cum_pnl"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison  []ComparisonResult `json:"comparison"`
	OutOfSample []ForecastRow      `json:"out_of_sample"`
	Skipped     []SkippedModel     `json:"skipped,omitempty"`
}

// SkippedModel is a requested model whose backtest failed, with the reason
type SkippedModel struct {
	Model string `json:"model"`
	Error string `json:"error"`
}

// ComparisonResult contains results for one model
type ComparisonResult struct {
	Model   string          `json:"model"`
	Summary BacktestSummary `json:"summary"`
}

// ForecastRow is one timestamp of the out-of-sample comparison, keyed by model.
type ForecastRow struct {
	Timestamp time.Time           `json:"timestamp"`
	Values    map[string]*float64 `json:"values"`
}

// RankResponse represents the response from ranking models
type RankResponse struct {
	Rankings []Ranking     `json:"rankings"`
	Skipped  []SkippedModel `json:"skipped,omitempty"`
}

// Ranking represents one ranked model
type Ranking struct {
	Rank        int      `json:"rank"`
	Model       string   `json:"model"`
	TotalPNL    float64  `json:"total_pnl"`
	MaxDrawdown float64  `json:"max_drawdown"`
	WinRate     float64  `json:"win_rate"`
	TradeCount  int      `json:"trade_count"`
	R2          *float64 `json:"r2,omitempty"`
	Evaluation  string   `json:"evaluation"`
}

// ArbitrageResponse is the daily optimizer table plus its summary
type ArbitrageResponse struct {
	ID         string           `json:"id"`
	TopK       int              `json:"top_k"`
	Exhaustive bool             `json:"exhaustive"`
	Summary    ArbitrageSummary `json:"summary"`
	Days       []ArbitrageDay   `json:"days"`
}

type ArbitrageSummary struct {
	Days         int     `json:"days"`
	TradedDays   int     `json:"traded_days"`
	TotalRevenue float64 `json:"total_revenue"`
	MeanRevenue  float64 `json:"mean_revenue"`
	MaxDrawdown  float64 `json:"max_drawdown"`
}

// ArbitrageDay is one calendar day. Hours and prices are null on no-trade days.
type ArbitrageDay struct {
	Date      string   `json:"date"` // YYYY-MM-DD
	Action    string   `json:"action"`
	BuyHour   *int     `json:"buy_hour"`
	BuyPrice  *float64 `json:"buy_price"`
	SellHour  *int     `json:"sell_hour"`
	SellPrice *float64 `json:"sell_price"`
	Revenue   float64  `json:"revenue"`
	Reason    string   `json:"reason,omitempty"`
}

// PnLResponse is the body of GET /pnl/:strategy_id
type PnLResponse struct {
	Strategy    string  `json:"strategy"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	CaptureTime string  `json:"capture_time"` // UTC, YYYY-MM-DDTHH:MM:SSZ
}

// PnLErrorResponse is the flat error body of the PnL endpoint
type PnLErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// VolumeResponse is the total traded volume per side
type VolumeResponse struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
	Unit string  `json:"unit"`
}

// StrategyInfo represents information about a strategy or forecast model
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// DatasetInfo describes the dataset loaded at start-up
type DatasetInfo struct {
	Path           string     `json:"path"`
	Records        int        `json:"records"`
	PeriodsPerHour int        `json:"periods_per_hour"`
	Days           int        `json:"days"`
	Window         TimeWindow `json:"window"`
	Timezone       string     `json:"timezone"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Float converts a possibly missing value for JSON; NaN and Inf become null.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
