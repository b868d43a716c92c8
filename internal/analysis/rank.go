package analysis

import (
	"sort"

	"energy-backtest/internal/backtest"
)

type RankedModel struct {
	Rank        int     `json:"rank"`
	Model       string  `json:"model"`
	TotalPnL    float64 `json:"total_pnl"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
	TradeCount  int     `json:"trade_count"`
	R2          float64 `json:"r2"`
	Evaluation  string  `json:"evaluation"`
}

// RankModels sorts runs by total PnL, descending. Equal PnL keeps input order.
func RankModels(results []*backtest.Result) []RankedModel {
	out := make([]RankedModel, 0, len(results))
	for _, r := range results {
		out = append(out, RankedModel{
			Model:       r.Model,
			TotalPnL:    r.Summary.TotalPnL,
			MaxDrawdown: r.Summary.MaxDrawdown,
			WinRate:     r.Summary.WinRate,
			TradeCount:  r.Summary.TradeCount,
			R2:          r.Score.R2,
			Evaluation:  r.Evaluation,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPnL > out[j].TotalPnL
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
