package data

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LoadFile reads a CSV or XLSX file depending on its extension.
// sheet is ignored for CSV input.
func LoadFile(path, sheet string) (*RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported data file extension %q (want .csv or .xlsx)", ext)
	}
}
