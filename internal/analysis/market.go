package analysis

import (
	"math"
	"time"

	"energy-backtest/internal/model"
)

// HourProfile is the average production for one hour of the day over the
// whole dataset, in MWh per hour (mean period MW scaled by periods per hour).
type HourProfile struct {
	Hour   int     `json:"hour"`
	WindDA float64 `json:"wind_da"`
	WindID float64 `json:"wind_id"`
	PVDA   float64 `json:"pv_da"`
	PVID   float64 `json:"pv_id"`
}

// AverageHourlyProfile returns one entry per hour of day that occurs in the data.
func AverageHourlyProfile(ds *model.Dataset) []HourProfile {
	type acc struct {
		sum [4]float64
		n   [4]int
	}
	var byHour [24]acc
	var seen [24]bool
	for _, r := range ds.Records {
		h := r.Timestamp.Hour()
		seen[h] = true
		for k, v := range [4]float64{r.WindDAForecast, r.WindIDForecast, r.PVDAForecast, r.PVIDForecast} {
			if !math.IsNaN(v) {
				byHour[h].sum[k] += v
				byHour[h].n[k]++
			}
		}
	}
	scale := float64(ds.PeriodsPerHour)
	var out []HourProfile
	for h := 0; h < 24; h++ {
		if !seen[h] {
			continue
		}
		a := byHour[h]
		m := func(k int) float64 {
			if a.n[k] == 0 {
				return 0
			}
			return a.sum[k] / float64(a.n[k]) * scale
		}
		out = append(out, HourProfile{Hour: h, WindDA: m(0), WindID: m(1), PVDA: m(2), PVID: m(3)})
	}
	return out
}

// ValueFactor compares the production-weighted DA price captured by wind and
// PV with the plain hourly mean DA price.
type ValueFactor struct {
	MeanDAPrice float64 `json:"mean_da_price"`
	WindValue   float64 `json:"wind_value"`
	PVValue     float64 `json:"pv_value"`
	WindAbove   bool    `json:"wind_above_mean"`
	PVAbove     bool    `json:"pv_above_mean"`
}

func ComputeValueFactor(hourly []model.HourlyAggregate) ValueFactor {
	var windEUR, windMWh, pvEUR, pvMWh, priceSum float64
	n := 0
	for _, h := range hourly {
		if math.IsNaN(h.DAPrice) {
			continue
		}
		priceSum += h.DAPrice
		n++
		windEUR += h.WindDAMWh * h.DAPrice
		windMWh += h.WindDAMWh
		pvEUR += h.PVDAMWh * h.DAPrice
		pvMWh += h.PVDAMWh
	}
	v := ValueFactor{}
	if n > 0 {
		v.MeanDAPrice = priceSum / float64(n)
	}
	if windMWh != 0 {
		v.WindValue = windEUR / windMWh
	}
	if pvMWh != 0 {
		v.PVValue = pvEUR / pvMWh
	}
	v.WindAbove = v.WindValue > v.MeanDAPrice
	v.PVAbove = v.PVValue > v.MeanDAPrice
	return v
}

// RenewableDay is the day-ahead wind plus PV forecast summed over one day.
type RenewableDay struct {
	Date        time.Time `json:"date"`
	TotalMW     float64   `json:"total_mw"`
	MeanDAPrice float64   `json:"mean_da_price"`
}

// RenewableExtremes finds the days with the highest and lowest summed
// renewable forecast. The first day wins ties. ok is false for an empty dataset.
func RenewableExtremes(ds *model.Dataset) (highest, lowest RenewableDay, ok bool) {
	type acc struct {
		day      RenewableDay
		priceSum float64
		priceN   int
	}
	var days []*acc
	index := map[string]int{}
	for _, r := range ds.Records {
		key := model.DateKey(r.Timestamp)
		i, seen := index[key]
		if !seen {
			i = len(days)
			index[key] = i
			y, m, d := r.Timestamp.Date()
			days = append(days, &acc{day: RenewableDay{Date: time.Date(y, m, d, 0, 0, 0, 0, r.Timestamp.Location())}})
		}
		a := days[i]
		if !math.IsNaN(r.WindDAForecast) {
			a.day.TotalMW += r.WindDAForecast
		}
		if !math.IsNaN(r.PVDAForecast) {
			a.day.TotalMW += r.PVDAForecast
		}
		if !math.IsNaN(r.DAPrice) {
			a.priceSum += r.DAPrice
			a.priceN++
		}
	}
	if len(days) == 0 {
		return highest, lowest, false
	}
	for i, a := range days {
		if a.priceN > 0 {
			a.day.MeanDAPrice = a.priceSum / float64(a.priceN)
		}
		if i == 0 || a.day.TotalMW > highest.TotalMW {
			highest = a.day
		}
		if i == 0 || a.day.TotalMW < lowest.TotalMW {
			lowest = a.day
		}
	}
	return highest, lowest, true
}

// DayTypePrices is the mean period DA price on weekdays and weekends.
type DayTypePrices struct {
	Weekday float64 `json:"weekday"`
	Weekend float64 `json:"weekend"`
}

func WeekdayWeekend(ds *model.Dataset) DayTypePrices {
	var wdSum, weSum float64
	var wdN, weN int
	for _, r := range ds.Records {
		if math.IsNaN(r.DAPrice) {
			continue
		}
		switch r.Timestamp.Weekday() {
		case time.Saturday, time.Sunday:
			weSum += r.DAPrice
			weN++
		default:
			wdSum += r.DAPrice
			wdN++
		}
	}
	out := DayTypePrices{}
	if wdN > 0 {
		out.Weekday = wdSum / float64(wdN)
	}
	if weN > 0 {
		out.Weekend = weSum / float64(weN)
	}
	return out
}

// MarketStats bundles the descriptive statistics of a dataset.
type MarketStats struct {
	Profile []HourProfile     `json:"profile"`
	Value   ValueFactor       `json:"value_factor"`
	Highest RenewableDay      `json:"highest_renewable_day"`
	Lowest  RenewableDay      `json:"lowest_renewable_day"`
	DayType DayTypePrices     `json:"day_type"`
	DAPrice PriceDistribution `json:"da_price"`
	IDPrice PriceDistribution `json:"id_price"`
	Periods int               `json:"periods"`
	Hours   int               `json:"hours"`
}

func ComputeMarketStats(ds *model.Dataset, hourly []model.HourlyAggregate) MarketStats {
	s := MarketStats{
		Profile: AverageHourlyProfile(ds),
		Value:   ComputeValueFactor(hourly),
		DayType: WeekdayWeekend(ds),
		Periods: len(ds.Records),
		Hours:   len(hourly),
	}
	s.Highest, s.Lowest, _ = RenewableExtremes(ds)
	da := make([]float64, len(ds.Records))
	id := make([]float64, len(ds.Records))
	for i, r := range ds.Records {
		da[i] = r.DAPrice
		id[i] = r.IDPrice
	}
	s.DAPrice = ComputeDistribution(da)
	s.IDPrice = ComputeDistribution(id)
	return s
}
