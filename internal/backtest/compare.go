package backtest

import (
	"math"
	"sort"
	"time"
)

// Comparison lines up the out-of-sample forecasts of several runs by timestamp.
// Values[i][k] is model k's forecast for Timestamps[i], NaN when it has none.
type Comparison struct {
	Models     []string
	Timestamps []time.Time
	Values     [][]float64
}

func CompareForecasts(results ...*Result) Comparison {
	c := Comparison{}
	pos := map[time.Time]int{}
	for _, r := range results {
		for _, p := range r.OutOfSample {
			if _, ok := pos[p.Timestamp]; !ok {
				pos[p.Timestamp] = len(c.Timestamps)
				c.Timestamps = append(c.Timestamps, p.Timestamp)
			}
		}
	}
	sort.Slice(c.Timestamps, func(i, j int) bool { return c.Timestamps[i].Before(c.Timestamps[j]) })
	for i, ts := range c.Timestamps {
		pos[ts] = i
	}

	c.Values = make([][]float64, len(c.Timestamps))
	for i := range c.Values {
		c.Values[i] = make([]float64, len(results))
		for k := range c.Values[i] {
			c.Values[i][k] = math.NaN()
		}
	}
	for k, r := range results {
		c.Models = append(c.Models, r.Model)
		for _, p := range r.OutOfSample {
			c.Values[pos[p.Timestamp]][k] = p.Value
		}
	}
	return c
}
