package prep

import (
	"math"
	"time"

	"energy-backtest/internal/model"
)

// Prepare derives calendar features and the shifted intraday target for every
// record. shift is the number of periods to look ahead; shift <= 0 uses one
// day (PeriodsPerDay), i.e. the same settlement period tomorrow.
//
// The last shift rows get HasTarget=false; their target is never imputed.
// The dataset is not modified.
func Prepare(ds *model.Dataset, shift int) []model.PreparedRow {
	if ds == nil {
		return nil
	}
	if shift <= 0 {
		shift = ds.PeriodsPerDay()
	}
	recs := ds.Records
	out := make([]model.PreparedRow, len(recs))
	for i, r := range recs {
		row := model.PreparedRow{
			Index:         i,
			PeriodRecord:  r,
			Date:          dayOf(r.Timestamp),
			Hour:          r.Timestamp.Hour(),
			Weekday:       r.Timestamp.Weekday(),
			FutureIDPrice: math.NaN(),
		}
		row.IsWeekend = row.Weekday == time.Saturday || row.Weekday == time.Sunday
		if j := i + shift; j < len(recs) {
			row.FutureTimestamp = recs[j].Timestamp
			row.FutureIDPrice = recs[j].IDPrice
			row.HasTarget = !math.IsNaN(recs[j].IDPrice)
		}
		out[i] = row
	}
	return out
}

// Hourly groups records by (date, hour).
//
// Power is integrated to energy with the actual number of periods in the hour:
// MWh = sum(MW) * (1 / n). This keeps hours with 3 or 5 periods (daylight
// saving changes) correct. Prices are plain means. Missing values are skipped
// in sums and means but still count towards n, so a gap lowers the energy.
//
// Output order follows the first appearance of each bucket.
func Hourly(ds *model.Dataset) []model.HourlyAggregate {
	if ds == nil {
		return nil
	}
	type key struct {
		date string
		hour int
	}
	type acc struct {
		agg                        model.HourlyAggregate
		windDA, pvDA, windID, pvID float64
		daSum, idSum               float64
		daN, idN                   int
	}
	index := map[key]int{}
	var buckets []*acc

	for _, r := range ds.Records {
		k := key{date: model.DateKey(r.Timestamp), hour: r.Timestamp.Hour()}
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, &acc{agg: model.HourlyAggregate{Date: dayOf(r.Timestamp), Hour: k.hour}})
		}
		b := buckets[i]
		b.agg.Intervals++
		b.windDA += nanZero(r.WindDAForecast)
		b.pvDA += nanZero(r.PVDAForecast)
		b.windID += nanZero(r.WindIDForecast)
		b.pvID += nanZero(r.PVIDForecast)
		if !math.IsNaN(r.DAPrice) {
			b.daSum += r.DAPrice
			b.daN++
		}
		if !math.IsNaN(r.IDPrice) {
			b.idSum += r.IDPrice
			b.idN++
		}
	}

	out := make([]model.HourlyAggregate, 0, len(buckets))
	for _, b := range buckets {
		a := b.agg
		a.WindDAMWh = MWToMWh(b.windDA, a.Intervals)
		a.PVDAMWh = MWToMWh(b.pvDA, a.Intervals)
		a.WindIDMWh = MWToMWh(b.windID, a.Intervals)
		a.PVIDMWh = MWToMWh(b.pvID, a.Intervals)
		a.DAPrice = mean(b.daSum, b.daN)
		a.IDPrice = mean(b.idSum, b.idN)
		out = append(out, a)
	}
	return out
}

// MWToMWh integrates the summed average power of n equal sub-hourly periods
// over one hour.
func MWToMWh(sumMW float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sumMW * (1 / float64(n))
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nanZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
