package model

// Action is a human-friendly trade direction for a settlement period.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	// ActionBuyDASellID buys at the day-ahead price and sells at the realized intraday price.
	ActionBuyDASellID Action = "BUY_DA_SELL_ID"
	// ActionBuyIDSellDA buys at the realized intraday price and sells at the day-ahead price.
	ActionBuyIDSellDA Action = "BUY_ID_SELL_DA"
	ActionNoTrade     Action = "NO_TRADE"

	// ActionCycle is a completed charge/discharge cycle of the daily arbitrage optimizer.
	ActionCycle Action = "CYCLE"
)

// ActionFromForecast picks the trade direction for a forecast of the intraday price.
//
// A forecast strictly above the day-ahead price buys day-ahead. Everything else,
// including forecast == daPrice, buys intraday and sells day-ahead.
func ActionFromForecast(forecast, daPrice float64) Action {
	if forecast > daPrice {
		return ActionBuyDASellID
	}
	return ActionBuyIDSellDA
}
