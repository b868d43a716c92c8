package data

import (
	"fmt"
	"strings"
)

// RawTable is an untyped tabular dataset as read from disk.
// Rows may be ragged; missing trailing cells read as "".
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Cell returns the cell at (row, col) or "" when the row is short or col < 0.
func (t *RawTable) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// ColumnMap maps the logical period fields to header names in the source file.
type ColumnMap struct {
	Timestamp      string `yaml:"timestamp"`
	DAPrice        string `yaml:"da_price"`
	IDPrice        string `yaml:"id_price"`
	WindDAForecast string `yaml:"wind_da_forecast"`
	PVDAForecast   string `yaml:"pv_da_forecast"`
	WindIDForecast string `yaml:"wind_id_forecast"`
	PVIDForecast   string `yaml:"pv_id_forecast"`
}

// DefaultColumns are the headers of the EPEX analysis workbook.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Timestamp:      "time",
		DAPrice:        "Day Ahead Price hourly [in EUR/MWh]",
		IDPrice:        "Intraday Price Hourly  [in EUR/MWh]",
		WindDAForecast: "Wind Day Ahead Forecast [in MW]",
		PVDAForecast:   "PV Day Ahead Forecast [in MW]",
		WindIDForecast: "Wind Intraday Forecast [in MW]",
		PVIDForecast:   "PV Intraday Forecast [in MW]",
	}
}

// WithDefaults fills empty names from DefaultColumns.
func (m ColumnMap) WithDefaults() ColumnMap {
	d := DefaultColumns()
	if m.Timestamp == "" {
		m.Timestamp = d.Timestamp
	}
	if m.DAPrice == "" {
		m.DAPrice = d.DAPrice
	}
	if m.IDPrice == "" {
		m.IDPrice = d.IDPrice
	}
	if m.WindDAForecast == "" {
		m.WindDAForecast = d.WindDAForecast
	}
	if m.PVDAForecast == "" {
		m.PVDAForecast = d.PVDAForecast
	}
	if m.WindIDForecast == "" {
		m.WindIDForecast = d.WindIDForecast
	}
	if m.PVIDForecast == "" {
		m.PVIDForecast = d.PVIDForecast
	}
	return m
}

// ColumnIndex holds resolved header positions; -1 means the column is absent.
type ColumnIndex struct {
	Timestamp      int
	DAPrice        int
	IDPrice        int
	WindDAForecast int
	PVDAForecast   int
	WindIDForecast int
	PVIDForecast   int
}

// Resolve locates the mapped columns in the header. Matching ignores case and
// surrounding whitespace, but not inner whitespace (the source headers carry
// a double space in the intraday price name).
//
// Only the timestamp column is required; every other column may be absent.
func (t *RawTable) Resolve(m ColumnMap) (ColumnIndex, error) {
	m = m.WithDefaults()
	pos := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	find := func(name string) int {
		if i, ok := pos[strings.ToLower(strings.TrimSpace(name))]; ok {
			return i
		}
		return -1
	}
	idx := ColumnIndex{
		Timestamp:      find(m.Timestamp),
		DAPrice:        find(m.DAPrice),
		IDPrice:        find(m.IDPrice),
		WindDAForecast: find(m.WindDAForecast),
		PVDAForecast:   find(m.PVDAForecast),
		WindIDForecast: find(m.WindIDForecast),
		PVIDForecast:   find(m.PVIDForecast),
	}
	if idx.Timestamp < 0 {
		return idx, fmt.Errorf("timestamp column %q not found in header", m.Timestamp)
	}
	return idx, nil
}
