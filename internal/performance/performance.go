// Package performance summarizes an ordered series of per-period or per-day
// PnL values.
package performance

import "math"

// Summary is the performance record of one PnL series.
type Summary struct {
	TotalPnL    float64   `json:"total_pnl"`
	Cumulative  []float64 `json:"cumulative,omitempty"`
	MaxDrawdown float64   `json:"max_drawdown"`
	TradeCount  int       `json:"trade_count"`
	Wins        int       `json:"wins"`
	WinRate     float64   `json:"win_rate"`
}

// Summarize computes the cumulative series, the maximum drawdown (<= 0), the
// number of nonzero entries and the percentage of them that are positive.
// NaN entries count as zero.
func Summarize(pnl []float64) Summary {
	s := Summary{Cumulative: make([]float64, len(pnl))}
	peak := math.Inf(-1)
	cum := 0.0
	for i, v := range pnl {
		if math.IsNaN(v) {
			v = 0
		}
		cum += v
		s.Cumulative[i] = cum
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
		if v != 0 {
			s.TradeCount++
			if v > 0 {
				s.Wins++
			}
		}
	}
	s.TotalPnL = cum
	if s.TradeCount > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TradeCount) * 100
	}
	return s
}

// Compact drops the cumulative series, for responses that only need totals.
func (s Summary) Compact() Summary {
	s.Cumulative = nil
	return s
}
