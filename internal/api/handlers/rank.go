package handlers

import (
	"net/http"
	"strings"

	"energy-backtest/internal/analysis"
	"energy-backtest/internal/api/models"
	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/forecast"
	"energy-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

var defaultRankModels = []string{forecast.ModelLinear, forecast.ModelForest}

// RankHandler handles ranking-related requests
type RankHandler struct {
	dataset  *model.Dataset
	forecast config.ForecastConfig
	engine   *backtest.Engine
	cache    *backtest.ResultCache
}

// NewRankHandler creates a new rank handler. It shares the result cache
// with the backtest handler.
func NewRankHandler(ds *model.Dataset, fc config.ForecastConfig, cache *backtest.ResultCache) *RankHandler {
	return &RankHandler{dataset: ds, forecast: fc, engine: backtest.New(), cache: cache}
}

// RankModels handles GET /api/v1/rank
func (h *RankHandler) RankModels(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if !requireDataset(c, h.dataset) {
		return
	}

	names := defaultRankModels
	if req.Models != "" {
		names = strings.Split(req.Models, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
	}

	results, skipped, err := runModels(h.engine, h.cache, h.dataset, h.forecast, names, models.ForestOverrides{})
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_MODEL", err.Error(), nil)
		return
	}
	ranked := analysis.RankModels(results)

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:        r.Rank,
			Model:       r.Model,
			TotalPNL:    r.TotalPnL,
			MaxDrawdown: r.MaxDrawdown,
			WinRate:     r.WinRate,
			TradeCount:  r.TradeCount,
			Evaluation:  r.Evaluation,
		}
		if r.Model != backtest.ModelOracle {
			rankings[i].R2 = models.Float(r.R2)
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings, Skipped: skipped})
}
