package strategy

import "energy-backtest/internal/model"

// Oracle is a perfect-foresight strategy: it uses the realized future
// intraday price as its forecast, so it always trades the profitable side.
// It is an upper bound for ranking forecast models, not a tradable strategy.
type Oracle struct{}

func (Oracle) Name() string { return "oracle" }

func (Oracle) Decide(ctx Context) (model.TradeDecision, error) {
	return Decide(ctx.Row, ctx.Row.FutureIDPrice, ctx.PeriodsPerHour)
}
