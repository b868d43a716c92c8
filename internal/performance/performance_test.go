package performance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	cases := []struct {
		name     string
		pnl      []float64
		total    float64
		drawdown float64
		trades   int
		winRate  float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"all zero", []float64{0, 0, 0}, 0, 0, 0, 0},
		{"monotone", []float64{1, 0, 2, 3}, 6, 0, 3, 100},
		{"dip and recover", []float64{5, -3, -4, 10}, 8, -7, 4, 50},
		{"starts negative", []float64{-2, 1}, -1, 0, 2, 50},
		{"nan is zero", []float64{2, math.NaN(), -1}, 1, -1, 2, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(tc.pnl)
			assert.InDelta(t, tc.total, s.TotalPnL, 1e-12)
			assert.InDelta(t, tc.drawdown, s.MaxDrawdown, 1e-12)
			assert.Equal(t, tc.trades, s.TradeCount)
			assert.InDelta(t, tc.winRate, s.WinRate, 1e-12)
			assert.LessOrEqual(t, s.MaxDrawdown, 0.0)
			assert.Len(t, s.Cumulative, len(tc.pnl))
		})
	}
}

func TestSummarize_Cumulative(t *testing.T) {
	s := Summarize([]float64{1, 2, -1})
	assert.Equal(t, []float64{1, 3, 2}, s.Cumulative)
	assert.Nil(t, s.Compact().Cumulative)
	assert.Equal(t, 2.0, s.Compact().TotalPnL)
}

func TestSummarize_Idempotent(t *testing.T) {
	in := []float64{3, -1, 4, -1, -5, 9}
	assert.Equal(t, Summarize(in), Summarize(in))
}
