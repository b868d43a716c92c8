package prep

import (
	"fmt"

	"energy-backtest/internal/data"
	"energy-backtest/internal/model"
)

// Load reads a .csv or .xlsx file and parses it into a Dataset.
func Load(path, sheet string, opts Options) (*model.Dataset, Report, error) {
	t, err := data.LoadFile(path, sheet)
	if err != nil {
		return nil, Report{}, fmt.Errorf("load %s: %w", path, err)
	}
	return Parse(t, opts)
}
