package handlers

import (
	"errors"
	"net/http"
	"strings"

	"energy-backtest/internal/api/models"
	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/forecast"
	"energy-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	dataset  *model.Dataset
	forecast config.ForecastConfig
	engine   *backtest.Engine
	cache    *backtest.ResultCache
}

// NewBacktestHandler creates a new backtest handler. The dataset is shared
// read-only between requests; nil disables the endpoints. A nil cache
// disables ledger retrieval by id.
func NewBacktestHandler(ds *model.Dataset, fc config.ForecastConfig, cache *backtest.ResultCache) *BacktestHandler {
	return &BacktestHandler{
		dataset:  ds,
		forecast: fc,
		engine:   backtest.New(),
		cache:    cache,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if !requireDataset(c, h.dataset) {
		return
	}
	name, err := normalizeModel(req.Model)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_MODEL", err.Error(), nil)
		return
	}

	rc := runConfig(h.forecast, name, req.Forest)
	if req.TargetShift > 0 {
		rc.TargetShift = req.TargetShift
	}
	if req.TrainFraction > 0 {
		rc.TrainFraction = req.TrainFraction
	}

	result, err := run(h.engine, h.cache, h.dataset, rc)
	if err != nil {
		respondRunError(c, err)
		return
	}

	id := uuid.New().String()
	h.cache.Set(id, result)

	response := buildResponse(result, req.Options.IncludeLedger)
	response.ID = id
	c.JSON(http.StatusOK, response)
}

// GetLedger handles GET /api/v1/backtest/:id/ledger
// Only the most recent runs are kept.
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	result, ok := h.cache.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no cached backtest with this id", map[string]interface{}{"id": id})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"model":  result.Model,
		"ledger": convertLedger(result.Ledger),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if !requireDataset(c, h.dataset) {
		return
	}

	results, skipped, err := runModels(h.engine, h.cache, h.dataset, h.forecast, req.Models, req.Forest)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_MODEL", err.Error(), nil)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(results))
	for _, r := range results {
		comparison = append(comparison, models.ComparisonResult{
			Model:   r.Model,
			Summary: buildSummary(r),
		})
	}

	cmp := backtest.CompareForecasts(results...)
	rows := make([]models.ForecastRow, len(cmp.Timestamps))
	for i, ts := range cmp.Timestamps {
		values := make(map[string]*float64, len(cmp.Models))
		for k, m := range cmp.Models {
			values[m] = models.Float(cmp.Values[i][k])
		}
		rows[i] = models.ForecastRow{Timestamp: ts, Values: values}
	}

	c.JSON(http.StatusOK, models.CompareBacktestResponse{
		Comparison:  comparison,
		OutOfSample: rows,
		Skipped:     skipped,
	})
}

// Helper functions

func requireDataset(c *gin.Context, ds *model.Dataset) bool {
	if ds == nil || len(ds.Records) == 0 {
		respondError(c, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", "no dataset was loaded at start-up", nil)
		return false
	}
	return true
}

// normalizeModel maps aliases to the canonical model name.
func normalizeModel(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == backtest.ModelOracle {
		return n, nil
	}
	m, err := forecast.New(n, nil, forecast.ForestParams{})
	if err != nil {
		return "", err
	}
	return m.Name(), nil
}

func runConfig(fc config.ForecastConfig, name string, o models.ForestOverrides) backtest.RunConfig {
	rc := fc.RunConfig(name)
	rc.Forest = config.MergeForest(rc.Forest, forecast.ForestParams{
		Trees:          o.Trees,
		Seed:           o.Seed,
		MaxDepth:       o.MaxDepth,
		MinSamplesLeaf: o.MinSamplesLeaf,
		MaxFeatures:    o.MaxFeatures,
	})
	rc.SplitSeed = rc.Forest.Seed
	return rc
}

// run returns the cached result of an identical configuration or runs it.
func run(engine *backtest.Engine, cache *backtest.ResultCache, ds *model.Dataset, rc backtest.RunConfig) (*backtest.Result, error) {
	key := backtest.RunKey(rc)
	if r, ok := cache.Get(key); ok {
		log.Debug().Str("model", rc.Model).Msg("backtest served from cache")
		return r, nil
	}
	r, err := engine.Run(ds, rc)
	if err != nil {
		return nil, err
	}
	cache.Set(key, r)
	return r, nil
}

// runModels runs every named model on ds. Unknown names fail the whole call;
// a model that fails to fit is left out of the results and reported in the
// skipped list instead.
func runModels(engine *backtest.Engine, cache *backtest.ResultCache, ds *model.Dataset, fc config.ForecastConfig, names []string, o models.ForestOverrides) ([]*backtest.Result, []models.SkippedModel, error) {
	canonical := make([]string, 0, len(names))
	for _, n := range names {
		name, err := normalizeModel(n)
		if err != nil {
			return nil, nil, err
		}
		canonical = append(canonical, name)
	}

	results := make([]*backtest.Result, 0, len(canonical))
	var skipped []models.SkippedModel
	for _, name := range canonical {
		r, err := run(engine, cache, ds, runConfig(fc, name, o))
		if err != nil {
			log.Warn().Err(err).Str("model", name).Msg("skipping failed backtest")
			skipped = append(skipped, models.SkippedModel{Model: name, Error: err.Error()})
			continue
		}
		results = append(results, r)
	}
	return results, skipped, nil
}

func respondRunError(c *gin.Context, err error) {
	var se *model.SingularMatrixError
	if errors.As(err, &se) {
		respondError(c, http.StatusUnprocessableEntity, "SINGULAR_MATRIX", err.Error(), map[string]interface{}{
			"features": se.Features,
			"rows":     se.Rows,
			"from":     se.From,
			"to":       se.To,
		})
		return
	}
	respondError(c, http.StatusInternalServerError, "BACKTEST_ERROR", err.Error(), nil)
}

func buildResponse(result *backtest.Result, includeLedger bool) models.BacktestResponse {
	response := models.BacktestResponse{
		Status:      "completed",
		Model:       result.Model,
		Summary:     buildSummary(result),
		Diagnostics: result.Diagnostics,
	}

	if includeLedger {
		response.Ledger = convertLedger(result.Ledger)
	}

	return response
}

func buildSummary(result *backtest.Result) models.BacktestSummary {
	summary := models.BacktestSummary{
		TotalPNL:              result.TotalPNL,
		MaxDrawdown:           result.Summary.MaxDrawdown,
		TradeCount:            result.Summary.TradeCount,
		Wins:                  result.Summary.Wins,
		WinRate:               result.Summary.WinRate,
		TotalIntervals:        len(result.Ledger),
		Evaluation:            result.Evaluation,
		TrainRows:             result.TrainRows,
		TestRows:              result.TestRows,
		DroppedMissingFeature: result.Drops.MissingFeature,
		DroppedNoTarget:       result.Drops.NoTarget,
	}
	if n := len(result.Ledger); n > 0 {
		summary.BacktestWindow = models.TimeWindow{
			Start: result.Ledger[0].Timestamp,
			End:   result.Ledger[n-1].Timestamp,
		}
	}
	if result.Score.Rows > 0 {
		summary.MSE = models.Float(result.Score.MSE)
		summary.R2 = models.Float(result.Score.R2)
	}
	return summary
}

func convertLedger(ledger []backtest.LedgerRow) []models.LedgerRow {
	result := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		result[i] = models.LedgerRow{
			Index:         row.Index,
			Timestamp:     row.Timestamp,
			DAPrice:       models.Float(row.DAPrice),
			IDPrice:       models.Float(row.IDPrice),
			FutureIDPrice: models.Float(row.FutureIDPrice),
			Forecast:      models.Float(row.Forecast),
			Action:        string(row.Action),
			BuyPrice:      row.BuyPrice,
			SellPrice:     row.SellPrice,
			PNL:           row.PNL,
			CumPNL:        row.CumPNL,
		}
		if !row.FutureTimestamp.IsZero() {
			ts := row.FutureTimestamp
			result[i].FutureTimestamp = &ts
		}
	}
	return result
}
