package handlers

import (
	"net/http"
	"time"

	"energy-backtest/internal/api/models"
	"energy-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

// DatasetHandler describes the dataset loaded at start-up.
type DatasetHandler struct {
	path    string
	dataset *model.Dataset
}

func NewDatasetHandler(path string, ds *model.Dataset) *DatasetHandler {
	return &DatasetHandler{path: path, dataset: ds}
}

// GetDataset handles GET /api/v1/dataset
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	if !requireDataset(c, h.dataset) {
		return
	}
	start, end := h.dataset.Span()

	loc := h.dataset.Location
	if loc == nil {
		loc = time.UTC
	}
	days := 0
	var last string
	for _, r := range h.dataset.Records {
		if k := model.DateKey(r.Timestamp.In(loc)); k != last {
			days++
			last = k
		}
	}

	c.JSON(http.StatusOK, models.DatasetInfo{
		Path:           h.path,
		Records:        len(h.dataset.Records),
		PeriodsPerHour: h.dataset.PeriodsPerHour,
		Days:           days,
		Window:         models.TimeWindow{Start: start, End: end},
		Timezone:       loc.String(),
	})
}
