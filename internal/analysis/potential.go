package analysis

import (
	"math"
	"sort"
	"time"

	"energy-backtest/internal/model"
	"energy-backtest/internal/performance"
	"energy-backtest/internal/strategy"
)

// PriceDistribution summarizes a price series. Missing values are skipped.
type PriceDistribution struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P05   float64 `json:"p05"`
	P95   float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`
}

func ComputeDistribution(prices []float64) PriceDistribution {
	vals := make([]float64, 0, len(prices))
	sum := 0.0
	for _, v := range prices {
		if math.IsNaN(v) {
			continue
		}
		vals = append(vals, v)
		sum += v
	}
	d := PriceDistribution{Count: len(vals)}
	if len(vals) == 0 {
		return d
	}
	sort.Float64s(vals)
	d.Min = vals[0]
	d.Max = vals[len(vals)-1]
	d.Mean = sum / float64(len(vals))
	d.P05 = percentileSorted(vals, 0.05)
	d.P95 = percentileSorted(vals, 0.95)
	d.SpreadP95P05 = d.P95 - d.P05
	return d
}

// ArbitragePotential is the daily battery optimizer outcome over a dataset,
// next to the hourly DA price distribution it was computed from.
type ArbitragePotential struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	Days       int `json:"days"`
	TradedDays int `json:"traded_days"`

	DAPrice PriceDistribution `json:"da_price"`

	TotalRevenue float64             `json:"total_revenue"`
	MeanRevenue  float64             `json:"mean_revenue"`
	Performance  performance.Summary `json:"performance"`
}

func ComputePotential(hourly []model.HourlyAggregate, days []model.DailyArbitrage) ArbitragePotential {
	p := ArbitragePotential{Days: len(days)}
	if len(days) > 0 {
		p.Start = days[0].Date
		p.End = days[len(days)-1].Date
	}
	prices := make([]float64, len(hourly))
	for i, h := range hourly {
		prices[i] = h.DAPrice
	}
	p.DAPrice = ComputeDistribution(prices)

	for _, d := range days {
		if d.Traded() {
			p.TradedDays++
		}
	}
	p.Performance = performance.Summarize(strategy.DailyRevenue(days)).Compact()
	p.TotalRevenue = p.Performance.TotalPnL
	if p.TradedDays > 0 {
		p.MeanRevenue = p.TotalRevenue / float64(p.TradedDays)
	}
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
