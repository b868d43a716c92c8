package backtest

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"energy-backtest/internal/model"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	return writeFile(path, func(w io.Writer) error { return WriteLedger(w, ledger) })
}

func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	header := []string{
		"index",
		"timestamp",
		"future_timestamp",
		"da_price",
		"id_price",
		"future_id_price",
		"forecast",
		"action",
		"buy_price",
		"sell_price",
		"pnl",
		"cum_pnl",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			fmtTime(r.FutureTimestamp),
			fmtFloat(r.DAPrice),
			fmtFloat(r.IDPrice),
			fmtFloat(r.FutureIDPrice),
			fmtFloat(r.Forecast),
			string(r.Action),
			fmtFloat(r.BuyPrice),
			fmtFloat(r.SellPrice),
			fmtFloat(r.PNL),
			fmtFloat(r.CumPNL),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteHourlyCSV(path string, hourly []model.HourlyAggregate) error {
	return writeFile(path, func(w io.Writer) error { return WriteHourly(w, hourly) })
}

func WriteHourly(out io.Writer, hourly []model.HourlyAggregate) error {
	w := csv.NewWriter(out)
	header := []string{
		"date",
		"hour",
		"intervals",
		"wind_da_mwh",
		"pv_da_mwh",
		"wind_id_mwh",
		"pv_id_mwh",
		"da_price",
		"id_price",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, h := range hourly {
		row := []string{
			model.DateKey(h.Date),
			strconv.Itoa(h.Hour),
			strconv.Itoa(h.Intervals),
			fmtFloat(h.WindDAMWh),
			fmtFloat(h.PVDAMWh),
			fmtFloat(h.WindIDMWh),
			fmtFloat(h.PVIDMWh),
			fmtFloat(h.DAPrice),
			fmtFloat(h.IDPrice),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteArbitrageCSV(path string, days []model.DailyArbitrage) error {
	return writeFile(path, func(w io.Writer) error { return WriteArbitrage(w, days) })
}

// WriteArbitrage writes one row per day; no-trade days leave hours and
// prices empty and carry the reason.
func WriteArbitrage(out io.Writer, days []model.DailyArbitrage) error {
	w := csv.NewWriter(out)
	header := []string{"date", "action", "buy_hour", "buy_price", "sell_hour", "sell_price", "revenue", "reason"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, d := range days {
		row := []string{model.DateKey(d.Date), string(d.Action), "", "", "", "", fmtFloat(0), d.Reason}
		if d.Traded() {
			row[2] = strconv.Itoa(d.BuyHour)
			row[3] = fmtFloat(d.BuyPrice)
			row[4] = strconv.Itoa(d.SellHour)
			row[5] = fmtFloat(d.SellPrice)
			row[6] = fmtFloat(d.Revenue)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteComparisonCSV(path string, c Comparison) error {
	return writeFile(path, func(w io.Writer) error { return WriteComparison(w, c) })
}

func WriteComparison(out io.Writer, c Comparison) error {
	w := csv.NewWriter(out)
	if err := w.Write(append([]string{"timestamp"}, c.Models...)); err != nil {
		return err
	}
	for i, ts := range c.Timestamps {
		row := []string{fmtTime(ts)}
		for _, v := range c.Values[i] {
			row = append(row, fmtFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// fmtFloat prints missing values as an empty cell.
func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
