package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"energy-backtest/internal/analysis"
	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/forecast"
	"energy-backtest/internal/ledger"
	"energy-backtest/internal/logging"
	"energy-backtest/internal/model"
	"energy-backtest/internal/prep"
	"energy-backtest/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// .env is optional for the CLI
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "hourly":
		cmdHourly(os.Args[2:])
	case "stats":
		cmdStats(os.Args[2:])
	case "arbitrage":
		cmdArbitrage(os.Args[2:])
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "forecast":
		cmdForecast(os.Args[2:])
	case "pnl":
		cmdPnL(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli hourly    --config config.yaml --out results/hourly.csv")
	fmt.Println("  cli stats     --config config.yaml")
	fmt.Println("  cli arbitrage --config config.yaml --out results/arbitrage.csv [--top-k 12] [--exhaustive]")
	fmt.Println("  cli backtest  --config config.yaml --model ols|forest|oracle|all --out-dir results")
	fmt.Println("  cli forecast  --config config.yaml --out results/forecast_comparison.csv")
	fmt.Println("  cli pnl       --config config.yaml --strategy strategy_1")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --data overrides data.path from the config (.csv or .xlsx)")
	fmt.Println("  - backtest writes one ledger CSV per model with action=BUY_DA_SELL_ID/BUY_ID_SELL_DA/NO_TRADE")
}

// commonFlags registers the flags shared by every subcommand.
func commonFlags(fs *flag.FlagSet) (cfgPath, dataPath *string) {
	cfgPath = fs.String("config", "", "Path to YAML config (optional)")
	dataPath = fs.String("data", "", "Path to the input workbook or CSV (overrides data.path)")
	return cfgPath, dataPath
}

func setup(cfgPath, dataPath string) *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	logging.Setup(cfg.LogLevel, true)
	return cfg
}

func loadDataset(cfg *config.Config) *model.Dataset {
	opts, err := cfg.Data.ParseOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid data options")
	}
	ds, rep, err := prep.Load(cfg.Data.Path, cfg.Data.Sheet, opts)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.Path).Msg("failed to load dataset")
	}
	ev := log.Info()
	if rep.Dropped() > 0 {
		ev = log.Warn().Strs("samples", rep.Samples)
	}
	ev.Str("path", cfg.Data.Path).
		Int("rows", rep.Rows).
		Int("kept", rep.Kept).
		Int("parse_errors", rep.ParseErrors).
		Int("duplicates", rep.Duplicates).
		Int("periods_per_hour", ds.PeriodsPerHour).
		Msg("dataset loaded")
	return ds
}

func ensureDir(path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to create output directory")
	}
}

func cmdHourly(args []string) {
	fs := flag.NewFlagSet("hourly", flag.ExitOnError)
	cfgPath, dataPath := commonFlags(fs)
	outPath := fs.String("out", "results/hourly.csv", "Output CSV path")
	_ = fs.Parse(args)

	cfg := setup(*cfgPath, *dataPath)
	ds := loadDataset(cfg)
	hourly := prep.Hourly(ds)

	ensureDir(*outPath)
	if err := backtest.WriteHourlyCSV(*outPath, hourly); err != nil {
		log.Fatal().Err(err).Msg("failed to write hourly CSV")
	}
	fmt.Printf("Wrote %d hourly rows to %s\n", len(hourly), *outPath)
}

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath, dataPath := commonFlags(fs)
	_ = fs.Parse(args)

	cfg := setup(*cfgPath, *dataPath)
	ds := loadDataset(cfg)
	s := analysis.ComputeMarketStats(ds, prep.Hourly(ds))

	fmt.Printf("periods=%d hours=%d\n\n", s.Periods, s.Hours)
	fmt.Printf("%-5s %-12s %-12s %-12s %-12s\n", "hour", "wind_da", "wind_id", "pv_da", "pv_id")
	for _, p := range s.Profile {
		fmt.Printf("%-5d %-12.1f %-12.1f %-12.1f %-12.1f\n", p.Hour, p.WindDA, p.WindID, p.PVDA, p.PVID)
	}

	fmt.Println()
	fmt.Printf("mean DA price           %8.2f EUR/MWh\n", s.Value.MeanDAPrice)
	fmt.Printf("wind value (weighted)   %8.2f EUR/MWh above_mean=%t\n", s.Value.WindValue, s.Value.WindAbove)
	fmt.Printf("PV value (weighted)     %8.2f EUR/MWh above_mean=%t\n", s.Value.PVValue, s.Value.PVAbove)
	fmt.Printf("highest renewable day   %s total=%.0f MW mean DA=%.2f\n", model.DateKey(s.Highest.Date), s.Highest.TotalMW, s.Highest.MeanDAPrice)
	fmt.Printf("lowest renewable day    %s total=%.0f MW mean DA=%.2f\n", model.DateKey(s.Lowest.Date), s.Lowest.TotalMW, s.Lowest.MeanDAPrice)
	fmt.Printf("mean DA weekday/weekend %8.2f / %.2f EUR/MWh\n", s.DayType.Weekday, s.DayType.Weekend)
	fmt.Printf("DA price min/max        %8.2f / %.2f  p05/p95 %.2f / %.2f\n", s.DAPrice.Min, s.DAPrice.Max, s.DAPrice.P05, s.DAPrice.P95)
	fmt.Printf("ID price min/max        %8.2f / %.2f  p05/p95 %.2f / %.2f\n", s.IDPrice.Min, s.IDPrice.Max, s.IDPrice.P05, s.IDPrice.P95)
}

func cmdArbitrage(args []string) {
	fs := flag.NewFlagSet("arbitrage", flag.ExitOnError)
	cfgPath, dataPath := commonFlags(fs)
	outPath := fs.String("out", "results/arbitrage.csv", "Output CSV path")
	topK := fs.Int("top-k", 0, "Sell candidates per day (0 = config value)")
	exhaustive := fs.Bool("exhaustive", false, "Try every positive-price hour as a sell candidate")
	_ = fs.Parse(args)

	cfg := setup(*cfgPath, *dataPath)
	opts := cfg.Arbitrage
	if *topK > 0 {
		opts.TopK = *topK
	}
	if *exhaustive {
		opts.Exhaustive = true
	}

	ds := loadDataset(cfg)
	hourly := prep.Hourly(ds)
	days := strategy.OptimizeByDay(hourly, opts)

	ensureDir(*outPath)
	if err := backtest.WriteArbitrageCSV(*outPath, days); err != nil {
		log.Fatal().Err(err).Msg("failed to write arbitrage CSV")
	}

	p := analysis.ComputePotential(hourly, days)
	fmt.Printf("Wrote %d days to %s\n", len(days), *outPath)
	fmt.Printf("traded days=%d/%d total revenue=%.2f EUR/MWh mean=%.2f max drawdown=%.2f\n",
		p.TradedDays, p.Days, p.TotalRevenue, p.MeanRevenue, p.Performance.MaxDrawdown)
	fmt.Printf("DA p95-p05 spread=%.2f\n", p.DAPrice.SpreadP95P05)
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	cfgPath, dataPath := commonFlags(fs)
	modelName := fs.String("model", "all", "ols, forest, oracle or all")
	outDir := fs.String("out-dir", "results", "Directory for ledger_<model>.csv files")
	_ = fs.Parse(args)

	cfg := setup(*cfgPath, *dataPath)
	names := []string{forecast.ModelLinear, forecast.ModelForest, backtest.ModelOracle}
	if *modelName != "all" {
		names = splitList(*modelName)
	}

	ds := loadDataset(cfg)
	engine := backtest.New()
	var results []*backtest.Result
	for _, name := range names {
		res, err := engine.Run(ds, cfg.Forecast.RunConfig(name))
		if err != nil {
			log.Fatal().Err(err).Str("model", name).Msg("backtest failed")
		}
		outPath := filepath.Join(*outDir, "ledger_"+res.Model+".csv")
		ensureDir(outPath)
		if err := backtest.WriteLedgerCSV(outPath, res.Ledger); err != nil {
			log.Fatal().Err(err).Msg("failed to write ledger CSV")
		}
		fmt.Printf("Wrote %d rows to %s (%s)\n", len(res.Ledger), outPath, res.Drops)
		results = append(results, res)
	}

	fmt.Println()
	fmt.Printf("%-4s %-8s %-12s %-12s %-8s %-8s %-8s %-10s\n", "rank", "model", "total_pnl", "max_dd", "trades", "win%", "r2", "eval")
	for _, r := range analysis.RankModels(results) {
		fmt.Printf("%-4d %-8s %-12.2f %-12.2f %-8d %-8.1f %-8.3f %-10s\n",
			r.Rank, r.Model, r.TotalPnL, r.MaxDrawdown, r.TradeCount, r.WinRate, r.R2, r.Evaluation)
	}
}

func cmdForecast(args []string) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	cfgPath, dataPath := commonFlags(fs)
	outPath := fs.String("out", "results/forecast_comparison.csv", "Output CSV path")
	_ = fs.Parse(args)

	cfg := setup(*cfgPath, *dataPath)
	ds := loadDataset(cfg)
	engine := backtest.New()

	var results []*backtest.Result
	for _, name := range []string{forecast.ModelLinear, forecast.ModelForest} {
		res, err := engine.Run(ds, cfg.Forecast.RunConfig(name))
		if err != nil {
			log.Fatal().Err(err).Str("model", name).Msg("model fit failed")
		}
		results = append(results, res)

		d := res.Diagnostics
		fmt.Printf("%s: mse=%.3f r2=%.4f (%s, train=%d test=%d)\n",
			res.Model, res.Score.MSE, res.Score.R2, res.Evaluation, res.TrainRows, res.TestRows)
		if d.Intercept != nil {
			fmt.Printf("  %-18s %12.6f\n", "intercept", *d.Intercept)
		}
		for _, w := range d.Weights {
			fmt.Printf("  %-18s %12.6f (%s)\n", w.Feature, w.Value, d.Kind)
		}
	}

	cmp := backtest.CompareForecasts(results...)
	ensureDir(*outPath)
	if err := backtest.WriteComparisonCSV(*outPath, cmp); err != nil {
		log.Fatal().Err(err).Msg("failed to write comparison CSV")
	}
	fmt.Printf("Wrote %d out-of-sample forecasts to %s\n", len(cmp.Timestamps), *outPath)
}

func cmdPnL(args []string) {
	fs := flag.NewFlagSet("pnl", flag.ExitOnError)
	cfgPath, _ := commonFlags(fs)
	strategyID := fs.String("strategy", "", "Strategy id in the trade ledger")
	_ = fs.Parse(args)

	if *strategyID == "" {
		fmt.Println("--strategy is required")
		os.Exit(2)
	}
	cfg := setup(*cfgPath, "")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := ledger.OpenExisting(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN, cfg.Ledger.Table)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Ledger.Driver).Msg("failed to open ledger")
	}
	defer store.Close()

	r := ledger.NewReporter(store)
	pnl, err := r.PnL(ctx, *strategyID)
	if err != nil {
		log.Fatal().Err(err).Msg("pnl query failed")
	}
	vol, err := r.Volume(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("volume query failed")
	}

	fmt.Printf("strategy=%s pnl=%s euro\n", *strategyID, pnl.StringFixed(2))
	fmt.Printf("ledger buy volume=%s sell volume=%s MW\n", vol.Buy.String(), vol.Sell.String())
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
