package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"energy-backtest/internal/api"
	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/ledger"
	"energy-backtest/internal/logging"
	"energy-backtest/internal/model"
	"energy-backtest/internal/prep"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using environment")
	}

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	production := cfg.Server.Env == "production"
	logging.Setup(cfg.LogLevel, !production)
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The dataset and the ledger are optional; their endpoints report errors
	// when they are unavailable.
	ds := loadDataset(cfg)

	var reporter *ledger.Reporter
	store, err := ledger.OpenExisting(ctx, cfg.Ledger.Driver, cfg.Ledger.DSN, cfg.Ledger.Table)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Ledger.Driver).Msg("trade ledger unavailable")
	} else {
		defer store.Close()
		reporter = ledger.NewReporter(store)
		log.Info().Str("driver", cfg.Ledger.Driver).Str("table", cfg.Ledger.Table).Msg("trade ledger opened")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := backtest.RegisterMetrics(reg); err != nil {
		log.Fatal().Err(err).Msg("failed to register backtest metrics")
	}

	router, err := api.NewRouter(api.Deps{
		Config:   cfg,
		Dataset:  ds,
		Reporter: reporter,
		Registry: reg,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Server.Env).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func loadDataset(cfg *config.Config) *model.Dataset {
	opts, err := cfg.Data.ParseOptions()
	if err != nil {
		log.Warn().Err(err).Msg("invalid data options, serving without dataset")
		return nil
	}
	ds, rep, err := prep.Load(cfg.Data.Path, cfg.Data.Sheet, opts)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Data.Path).Msg("dataset unavailable")
		return nil
	}
	log.Info().
		Str("path", cfg.Data.Path).
		Int("records", len(ds.Records)).
		Int("dropped", rep.Dropped()).
		Int("periods_per_hour", ds.PeriodsPerHour).
		Msg("dataset loaded")
	return ds
}
