package prep

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"energy-backtest/internal/data"
	"energy-backtest/internal/model"

	"github.com/xuri/excelize/v2"
)

// DefaultLayouts are tried in order when parsing timestamps.
// The first one is the day-first format of the EPEX analysis workbook.
var DefaultLayouts = []string{
	"02/01/06 15:04",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04",
}

// Options controls how a raw table becomes a Dataset.
type Options struct {
	Columns  data.ColumnMap
	Layouts  []string
	Location *time.Location

	// PeriodsPerHour overrides the granularity inferred from timestamps.
	PeriodsPerHour int
}

// Report summarizes row-level data-quality problems. Rows counted here were
// dropped from the dataset; they never abort the batch.
type Report struct {
	Rows        int
	Kept        int
	ParseErrors int
	Duplicates  int

	// Samples holds the first few error messages for diagnostics.
	Samples []string
}

const maxSamples = 10

// Dropped is the total number of input rows that did not make it into the dataset.
func (r Report) Dropped() int { return r.ParseErrors + r.Duplicates }

func (r *Report) note(err error) {
	if len(r.Samples) < maxSamples {
		r.Samples = append(r.Samples, err.Error())
	}
}

// Parse converts a raw table into a chronologically ordered Dataset.
//
// Unparseable timestamps and non-numeric cells drop the row (counted as parse
// errors). Empty numeric cells and absent optional columns become NaN. Only a
// missing timestamp column or an input with no usable rows is fatal.
func Parse(t *data.RawTable, opts Options) (*model.Dataset, Report, error) {
	var rep Report
	if t == nil {
		return nil, rep, errors.New("nil table")
	}
	idx, err := t.Resolve(opts.Columns)
	if err != nil {
		return nil, rep, err
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	cols := opts.Columns.WithDefaults()

	rep.Rows = len(t.Rows)
	records := make([]model.PeriodRecord, 0, len(t.Rows))
	folds := foldTracker{}
	for i := range t.Rows {
		rowNum := i + 1
		raw := t.Cell(i, idx.Timestamp)
		ts, naive, err := parseTimestamp(raw, layouts, loc)
		if err != nil {
			rep.ParseErrors++
			rep.note(&model.ParseError{Row: rowNum, Column: cols.Timestamp, Value: raw, Err: err})
			continue
		}
		if naive {
			ts = folds.resolve(ts)
		}

		rec := model.PeriodRecord{Timestamp: ts}
		fields := []struct {
			col  int
			name string
			dst  *float64
		}{
			{idx.DAPrice, cols.DAPrice, &rec.DAPrice},
			{idx.IDPrice, cols.IDPrice, &rec.IDPrice},
			{idx.WindDAForecast, cols.WindDAForecast, &rec.WindDAForecast},
			{idx.PVDAForecast, cols.PVDAForecast, &rec.PVDAForecast},
			{idx.WindIDForecast, cols.WindIDForecast, &rec.WindIDForecast},
			{idx.PVIDForecast, cols.PVIDForecast, &rec.PVIDForecast},
		}
		ok := true
		for _, f := range fields {
			v, err := parseNumber(t.Cell(i, f.col))
			if err != nil {
				rep.ParseErrors++
				rep.note(&model.ParseError{Row: rowNum, Column: f.name, Value: t.Cell(i, f.col), Err: err})
				ok = false
				break
			}
			*f.dst = v
		}
		if ok {
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Timestamp.Before(records[b].Timestamp)
	})
	deduped := records[:0]
	for i, r := range records {
		if i > 0 && r.Timestamp.Equal(deduped[len(deduped)-1].Timestamp) {
			rep.Duplicates++
			rep.note(fmt.Errorf("duplicate timestamp %s", r.Timestamp.Format(time.RFC3339)))
			continue
		}
		deduped = append(deduped, r)
	}
	rep.Kept = len(deduped)
	if rep.Kept == 0 {
		return nil, rep, fmt.Errorf("no usable rows (%d parse errors)", rep.ParseErrors)
	}

	pph := opts.PeriodsPerHour
	if pph <= 0 {
		pph = InferPeriodsPerHour(deduped)
	}
	return &model.Dataset{Records: deduped, PeriodsPerHour: pph, Location: loc}, rep, nil
}

// ParseTimestamp parses s with the first matching layout and returns it in
// loc. Naive readings are taken as wall clock in loc; readings carrying an
// offset are converted. A plain number is read as an Excel serial date.
func ParseTimestamp(s string, layouts []string, loc *time.Location) (time.Time, error) {
	t, _, err := parseTimestamp(s, layouts, loc)
	return t, err
}

// parseTimestamp also reports whether s was a naive wall-clock reading.
func parseTimestamp(s string, layouts []string, loc *time.Location) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, errors.New("empty timestamp")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), !hasZone(layout), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false, err
		}
		t = t.Round(time.Second)
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true, nil
	}
	return time.Time{}, false, fmt.Errorf("no layout matches %q", s)
}

func hasZone(layout string) bool {
	return strings.Contains(layout, "Z07") || strings.Contains(layout, "-07") || strings.Contains(layout, "MST")
}

// foldTracker resolves the wall-clock readings repeated when clocks fall back
// (02:00-02:59 twice in Europe/Berlin). The first reading of such a time gets
// the earlier instant, every later one the instant an hour on.
type foldTracker map[int64]int

func (f foldTracker) resolve(t time.Time) time.Time {
	alt, ok := foldAlternative(t)
	if !ok {
		return t
	}
	early, late := t, alt
	if alt.Before(t) {
		early, late = alt, t
	}
	key := early.Unix()
	f[key]++
	if f[key] == 1 {
		return early
	}
	return late
}

// foldAlternative returns the other instant showing the same wall clock as t
// in t's location, if the reading is ambiguous.
func foldAlternative(t time.Time) (time.Time, bool) {
	for _, d := range []time.Duration{-time.Hour, time.Hour} {
		if a := t.Add(d); sameWallClock(a, t) {
			return a, true
		}
	}
	return time.Time{}, false
}

func sameWallClock(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay() &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return v, nil
}

// InferPeriodsPerHour derives the granularity from the median spacing between
// consecutive timestamps. It falls back to 4 (15-minute periods) when the
// series is too short or irregular.
func InferPeriodsPerHour(records []model.PeriodRecord) int {
	const fallback = 4
	if len(records) < 2 {
		return fallback
	}
	gaps := make([]time.Duration, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		gaps = append(gaps, records[i].Timestamp.Sub(records[i-1].Timestamp))
	}
	sort.Slice(gaps, func(a, b int) bool { return gaps[a] < gaps[b] })
	median := gaps[len(gaps)/2]
	if median <= 0 || median > time.Hour || time.Hour%median != 0 {
		return fallback
	}
	return int(time.Hour / median)
}
