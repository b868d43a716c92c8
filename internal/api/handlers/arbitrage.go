package handlers

import (
	"net/http"

	"energy-backtest/internal/analysis"
	"energy-backtest/internal/api/models"
	"energy-backtest/internal/model"
	"energy-backtest/internal/prep"
	"energy-backtest/internal/strategy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ArbitrageHandler serves the daily battery optimizer over the loaded dataset.
type ArbitrageHandler struct {
	hourly   []model.HourlyAggregate
	defaults strategy.ArbitrageOptions
}

// NewArbitrageHandler aggregates the dataset to hours once; requests only
// re-run the optimizer.
func NewArbitrageHandler(ds *model.Dataset, defaults strategy.ArbitrageOptions) *ArbitrageHandler {
	h := &ArbitrageHandler{defaults: defaults}
	if ds != nil {
		h.hourly = prep.Hourly(ds)
	}
	return h
}

// GetArbitrage handles GET /api/v1/arbitrage
func (h *ArbitrageHandler) GetArbitrage(c *gin.Context) {
	var req models.ArbitrageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if len(h.hourly) == 0 {
		respondError(c, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", "no dataset was loaded at start-up", nil)
		return
	}

	opts := h.defaults
	if req.TopK > 0 {
		opts.TopK = req.TopK
	}
	if _, ok := c.GetQuery("exhaustive"); ok {
		opts.Exhaustive = req.Exhaustive
	}
	if opts.TopK <= 0 {
		opts.TopK = strategy.DefaultTopK
	}

	days := strategy.OptimizeByDay(h.hourly, opts)
	potential := analysis.ComputePotential(h.hourly, days)

	out := make([]models.ArbitrageDay, len(days))
	for i, d := range days {
		out[i] = models.ArbitrageDay{
			Date:    model.DateKey(d.Date),
			Action:  string(d.Action),
			Revenue: d.Revenue,
			Reason:  d.Reason,
		}
		if d.Traded() {
			buyHour, sellHour := d.BuyHour, d.SellHour
			out[i].BuyHour = &buyHour
			out[i].SellHour = &sellHour
			out[i].BuyPrice = models.Float(d.BuyPrice)
			out[i].SellPrice = models.Float(d.SellPrice)
		}
	}

	c.JSON(http.StatusOK, models.ArbitrageResponse{
		ID:         uuid.New().String(),
		TopK:       opts.TopK,
		Exhaustive: opts.Exhaustive,
		Summary: models.ArbitrageSummary{
			Days:         potential.Days,
			TradedDays:   potential.TradedDays,
			TotalRevenue: potential.TotalRevenue,
			MeanRevenue:  potential.MeanRevenue,
			MaxDrawdown:  potential.Performance.MaxDrawdown,
		},
		Days: out,
	})
}
