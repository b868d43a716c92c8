package strategy

import (
	"math"
	"sort"
	"time"

	"energy-backtest/internal/model"
)

// DefaultTopK is the number of highest-priced hours tried as sell candidates.
const DefaultTopK = 12

// ArbitrageOptions tunes the daily battery optimizer.
//
// Restricting sell candidates to the TopK highest prices is an approximation:
// a lower-priced sell hour preceded by a much cheaper buy hour can beat every
// top-K pair. Exhaustive tries every positive-price hour instead, which is the
// exact optimum under the ordering and positivity constraints.
type ArbitrageOptions struct {
	TopK       int  `yaml:"top_k" json:"top_k"`
	Exhaustive bool `yaml:"exhaustive" json:"exhaustive"`
}

// HourPrice is one hour of a day's DA price curve.
type HourPrice struct {
	Hour  int
	Price float64
}

const reasonNoEarlier = "no hour precedes a positive-price candidate"

// OptimizeByDay groups the hourly table by calendar day and optimizes each day
// independently. Days come out in input order, one record per day, including
// no-trade days. Hours with a missing DA price are ignored.
func OptimizeByDay(hourly []model.HourlyAggregate, opts ArbitrageOptions) []model.DailyArbitrage {
	var (
		out        []model.DailyArbitrage
		day        []HourPrice
		currentDay time.Time
	)
	for i, h := range hourly {
		if i > 0 && !h.Date.Equal(currentDay) {
			out = append(out, OptimizeDay(currentDay, day, opts))
			day = day[:0]
		}
		if i == 0 || !h.Date.Equal(currentDay) {
			currentDay = h.Date
		}
		if !math.IsNaN(h.DAPrice) {
			day = append(day, HourPrice{Hour: h.Hour, Price: h.DAPrice})
		}
	}
	if len(hourly) > 0 {
		out = append(out, OptimizeDay(currentDay, day, opts))
	}
	return out
}

// OptimizeDay finds the (buy, sell) hour pair with buy strictly before sell
// that maximizes sell - buy, where the sell price must be positive.
//
// Conventions:
//   - Candidates are ranked by price descending, earlier hour first on equal price.
//   - The buy hour is the cheapest earlier hour; on equal prices the earliest wins.
//   - On equal revenue the first candidate examined wins.
//   - The best revenue is reported even when it is negative.
func OptimizeDay(date time.Time, prices []HourPrice, opts ArbitrageOptions) model.DailyArbitrage {
	res := model.DailyArbitrage{
		Date:     date,
		Action:   model.ActionNoTrade,
		BuyHour:  -1,
		SellHour: -1,
	}

	var cands []HourPrice
	for _, p := range prices {
		if p.Price > 0 {
			cands = append(cands, p)
		}
	}
	if len(cands) == 0 {
		res.Reason = model.ErrNoCandidate.Error()
		return res
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Price != cands[j].Price {
			return cands[i].Price > cands[j].Price
		}
		return cands[i].Hour < cands[j].Hour
	})
	if !opts.Exhaustive {
		k := opts.TopK
		if k <= 0 {
			k = DefaultTopK
		}
		if k < len(cands) {
			cands = cands[:k]
		}
	}

	found := false
	for _, sell := range cands {
		buy, ok := cheapestBefore(prices, sell.Hour)
		if !ok {
			continue
		}
		rev := sell.Price - buy.Price
		if !found || rev > res.Revenue {
			res.BuyHour, res.BuyPrice = buy.Hour, buy.Price
			res.SellHour, res.SellPrice = sell.Hour, sell.Price
			res.Revenue = rev
			found = true
		}
	}
	if !found {
		res.Reason = reasonNoEarlier
		return res
	}
	res.Action = model.ActionCycle
	return res
}

// cheapestBefore returns the lowest-priced hour strictly before hour,
// earliest first on ties.
func cheapestBefore(prices []HourPrice, hour int) (HourPrice, bool) {
	var best HourPrice
	found := false
	for _, p := range prices {
		if p.Hour >= hour {
			continue
		}
		if !found || p.Price < best.Price || (p.Price == best.Price && p.Hour < best.Hour) {
			best = p
			found = true
		}
	}
	return best, found
}

// DailyRevenue extracts per-day revenue for the performance evaluator;
// no-trade days contribute 0.
func DailyRevenue(days []model.DailyArbitrage) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		if d.Traded() {
			out[i] = d.Revenue
		}
	}
	return out
}
