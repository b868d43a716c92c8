package data

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := "\ufefftime, Day Ahead Price hourly [in EUR/MWh]\n01/01/21 00:00,50\n01/01/21 00:15\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "Day Ahead Price hourly [in EUR/MWh]"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "50", tbl.Cell(0, 1))
	assert.Equal(t, "", tbl.Cell(1, 1))
	assert.Equal(t, "", tbl.Cell(5, 0))
	assert.Equal(t, "", tbl.Cell(0, -1))

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tbl := &RawTable{Header: []string{" TIME ", "Intraday Price Hourly  [in EUR/MWh]", "Wind Day Ahead Forecast [in MW]"}}
	idx, err := tbl.Resolve(ColumnMap{})
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Timestamp)
	assert.Equal(t, 1, idx.IDPrice)
	assert.Equal(t, 2, idx.WindDAForecast)
	assert.Equal(t, -1, idx.DAPrice)
	assert.Equal(t, -1, idx.PVIDForecast)

	// Single space does not match the double-spaced source header.
	idx, err = tbl.Resolve(ColumnMap{IDPrice: "Intraday Price Hourly [in EUR/MWh]"})
	require.NoError(t, err)
	assert.Equal(t, -1, idx.IDPrice)

	_, err = tbl.Resolve(ColumnMap{Timestamp: "ts"})
	assert.Error(t, err)
}

func TestLoadFile_XLSXRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"time", "Day Ahead Price hourly [in EUR/MWh]"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"01/01/21 00:00", 50.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"01/01/21 00:15", -3}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := LoadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "time", tbl.Header[0])
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "01/01/21 00:15", tbl.Cell(1, 0))
	assert.Equal(t, "50.5", tbl.Cell(0, 1))
	assert.Equal(t, "-3", tbl.Cell(1, 1))

	_, err = LoadFile(path, "Missing")
	assert.Error(t, err)
}

func TestLoadFile_XLSXDateCellsAreSerials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.xlsx")
	ts := time.Date(2021, 1, 13, 0, 15, 0, 0, time.UTC)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"time", "Day Ahead Price hourly [in EUR/MWh]"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{ts, 42.0}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := LoadFile(path, "")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	serial, err := strconv.ParseFloat(tbl.Cell(0, 0), 64)
	require.NoError(t, err, "date cell %q", tbl.Cell(0, 0))
	got, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	assert.Equal(t, ts, got.Round(time.Second))
	assert.Equal(t, "42", tbl.Cell(0, 1))
}

func TestLoadFile_CSVAndUnknown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,x\n01/01/21 00:00,1\n"), 0o644))

	tbl, err := LoadFile(path, "ignored")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)

	_, err = LoadFile(filepath.Join(dir, "prices.parquet"), "")
	assert.Error(t, err)
}
