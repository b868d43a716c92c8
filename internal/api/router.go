// Package api wires the HTTP handlers and middleware into a gin engine.
package api

import (
	"net/http"
	"time"

	"energy-backtest/internal/api/handlers"
	"energy-backtest/internal/api/middleware"
	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/ledger"
	"energy-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the long-lived objects shared by all requests. Dataset and
// Reporter may be nil; the endpoints that need them then answer with errors.
type Deps struct {
	Config   *config.Config
	Dataset  *model.Dataset
	Reporter *ledger.Reporter
	Registry *prometheus.Registry
}

// NewRouter builds the engine. It registers the request metrics with
// d.Registry, creating a fresh registry when nil.
func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())
	router.Use(metrics.Handler())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	results := backtest.NewResultCache(time.Hour, 64)
	backtestHandler := handlers.NewBacktestHandler(d.Dataset, cfg.Forecast, results)
	rankHandler := handlers.NewRankHandler(d.Dataset, cfg.Forecast, results)
	arbitrageHandler := handlers.NewArbitrageHandler(d.Dataset, cfg.Arbitrage)
	strategyHandler := handlers.NewStrategyHandler(cfg.Forecast, cfg.Arbitrage)
	datasetHandler := handlers.NewDatasetHandler(cfg.Data.Path, d.Dataset)
	ledgerHandler := handlers.NewLedgerHandler(d.Reporter)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"dataset": d.Dataset != nil,
			"ledger":  d.Reporter != nil,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	limited := router.Group("/", middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	limited.GET("/pnl/:strategy_id", ledgerHandler.GetPnL)

	api := limited.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/ledger", backtestHandler.GetLedger)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.GET("/rank", rankHandler.RankModels)
		api.GET("/arbitrage", arbitrageHandler.GetArbitrage)

		api.GET("/strategies", strategyHandler.ListStrategies)
		api.GET("/dataset", datasetHandler.GetDataset)

		api.GET("/ledger/volume", ledgerHandler.GetVolume)
		api.GET("/ledger/strategies", ledgerHandler.ListLedgerStrategies)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router, nil
}
