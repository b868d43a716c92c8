package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	_ "time/tzdata"

	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/logging"
	"energy-backtest/internal/prep"

	"github.com/rs/zerolog/log"
)

// Demo:
// - Load the period dataset (workbook or CSV)
// - Fit one forecast model and trade on its predictions
// - Print the first few ledger rows to show how the pieces fit together
func main() {
	dataPath := flag.String("data", "", "Path to the input workbook or CSV (overrides data.path)")
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	modelName := flag.String("model", "ols", "Model to run: ols, forest or oracle")
	n := flag.Int("n", 12, "Number of ledger rows to print")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/ledger.csv)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	logging.Setup(cfg.LogLevel, true)

	opts, err := cfg.Data.ParseOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid data options")
	}
	ds, rep, err := prep.Load(cfg.Data.Path, cfg.Data.Sheet, opts)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.Path).Msg("failed to load dataset")
	}
	if len(ds.Records) == 0 {
		log.Fatal().Str("path", cfg.Data.Path).Msg("no records in dataset")
	}

	result, err := backtest.New().Run(ds, cfg.Forecast.RunConfig(*modelName))
	if err != nil {
		log.Fatal().Err(err).Str("model", *modelName).Msg("backtest failed")
	}

	fmt.Printf("Loaded %d periods (%d dropped), %d per hour\n", len(ds.Records), rep.Dropped(), ds.PeriodsPerHour)
	fmt.Printf("Model=%s  train=%d  test=%d  evaluation=%s\n\n", result.Model, result.TrainRows, result.TestRows, result.Evaluation)

	for i := 0; i < min(*n, len(result.Ledger)); i++ {
		r := result.Ledger[i]
		fmt.Printf(
			"%s da=%8.2f  id=%8.2f  forecast=%8.2f  action=%-8s  pnl=%8.2f  cum=%9.2f\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.DAPrice,
			r.IDPrice,
			orZero(r.Forecast),
			string(r.Action),
			r.PNL,
			r.CumPNL,
		)
	}

	if *outCSV != "" {
		if err := backtest.WriteLedgerCSV(*outCSV, result.Ledger); err != nil {
			log.Fatal().Err(err).Str("path", *outCSV).Msg("failed to write ledger")
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	fmt.Printf("\nDone. Trades=%d  Win rate=%.1f%%  Total PnL=%.2f EUR\n",
		result.Summary.TradeCount, result.Summary.WinRate, result.TotalPNL)
}

func orZero(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
