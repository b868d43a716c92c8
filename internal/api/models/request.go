package models

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	Model string `json:"model" binding:"required"` // "ols", "forest" or "oracle"

	// TargetShift overrides forecast.target_shift (periods); 0 keeps the config.
	TargetShift int `json:"target_shift,omitempty" binding:"min=0"`
	// TrainFraction overrides the model's train fraction; 0 keeps the config.
	TrainFraction float64 `json:"train_fraction,omitempty" binding:"min=0,max=1"`

	Forest  ForestOverrides `json:"forest,omitempty"`
	Options BacktestOptions `json:"options,omitempty"`
}

// ForestOverrides are per-request forest parameters. Zero fields keep the
// configured value.
type ForestOverrides struct {
	Trees          int   `json:"trees,omitempty" binding:"min=0,max=1000"`
	Seed           int64 `json:"seed,omitempty"`
	MaxDepth       int   `json:"max_depth,omitempty" binding:"min=0"`
	MinSamplesLeaf int   `json:"min_samples_leaf,omitempty" binding:"min=0"`
	MaxFeatures    int   `json:"max_features,omitempty" binding:"min=0"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
}

// CompareBacktestRequest runs several models on the same dataset
type CompareBacktestRequest struct {
	Models []string        `json:"models" binding:"required,min=1,dive,required"`
	Forest ForestOverrides `json:"forest,omitempty"`
}

// ArbitrageRequest holds the query parameters of the daily optimizer
type ArbitrageRequest struct {
	TopK       int  `form:"top_k" binding:"min=0,max=24"` // 0 = configured value
	Exhaustive bool `form:"exhaustive"`
}

// RankRequest represents a request to rank forecast models
type RankRequest struct {
	Models string `form:"models,omitempty"` // comma-separated, default: ols,forest
	Limit  int    `form:"limit,omitempty"`  // default: 10
}
