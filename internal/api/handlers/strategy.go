package handlers

import (
	"net/http"

	"energy-backtest/internal/api/models"
	"energy-backtest/internal/backtest"
	"energy-backtest/internal/config"
	"energy-backtest/internal/forecast"
	"energy-backtest/internal/strategy"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct {
	forecast  config.ForecastConfig
	arbitrage strategy.ArbitrageOptions
}

// NewStrategyHandler creates a new strategy handler. Parameter defaults are
// taken from the loaded configuration.
func NewStrategyHandler(fc config.ForecastConfig, ao strategy.ArbitrageOptions) *StrategyHandler {
	return &StrategyHandler{forecast: fc, arbitrage: ao}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	fp := h.forecast.Forest
	topK := h.arbitrage.TopK
	if topK <= 0 {
		topK = strategy.DefaultTopK
	}

	strategies := []models.StrategyInfo{
		{
			Name:        forecast.ModelLinear,
			Description: "Forecast-driven trading with an ordinary least squares forecast of the next-day intraday price.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "train_fraction",
					Type:        "float",
					Description: "Share of eligible rows used for fitting; 1 scores in-sample",
					Default:     h.forecast.Linear.TrainFraction,
				},
				{
					Name:        "target_shift",
					Type:        "int",
					Description: "Forecast horizon in periods (0 = one day)",
					Default:     h.forecast.TargetShift,
				},
			},
		},
		{
			Name:        forecast.ModelForest,
			Description: "Forecast-driven trading with a bagged regression-tree ensemble forecast.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "trees",
					Type:        "int",
					Description: "Number of trees in the ensemble",
					Default:     fp.Trees,
				},
				{
					Name:        "seed",
					Type:        "int",
					Description: "Seed of the bootstrap samples and the train/test split",
					Default:     fp.Seed,
				},
				{
					Name:        "max_depth",
					Type:        "int",
					Description: "Maximum tree depth (0 = unlimited)",
					Default:     fp.MaxDepth,
				},
				{
					Name:        "min_samples_leaf",
					Type:        "int",
					Description: "Minimum rows per leaf",
					Default:     fp.MinSamplesLeaf,
				},
				{
					Name:        "max_features",
					Type:        "int",
					Description: "Features tried per split (0 = all)",
					Default:     fp.MaxFeatures,
				},
				{
					Name:        "train_fraction",
					Type:        "float",
					Description: "Share of eligible rows used for fitting",
					Default:     fp.TrainFraction,
				},
			},
		},
		{
			Name:        backtest.ModelOracle,
			Description: "Perfect foresight benchmark. Trades on the realized next-day intraday price.",
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        "arbitrage",
			Description: "Daily battery arbitrage. Buys one hour and sells one later hour per day on day-ahead prices.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "top_k",
					Type:        "int",
					Description: "Highest-priced hours tried as sell candidates",
					Default:     topK,
				},
				{
					Name:        "exhaustive",
					Type:        "bool",
					Description: "Try every positive-price hour instead of the top K",
					Default:     h.arbitrage.Exhaustive,
				},
			},
		},
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}
