package handlers

import (
	"errors"
	"net/http"
	"time"

	"energy-backtest/internal/api/models"
	"energy-backtest/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const captureTimeLayout = "2006-01-02T15:04:05Z"

var errLedgerUnavailable = errors.New("trade ledger is not configured")

// LedgerHandler answers reporting queries against the trade ledger.
type LedgerHandler struct {
	reporter *ledger.Reporter
}

// NewLedgerHandler creates a ledger handler; a nil reporter makes every
// request fail with a database error.
func NewLedgerHandler(r *ledger.Reporter) *LedgerHandler {
	return &LedgerHandler{reporter: r}
}

// GetPnL handles GET /pnl/:strategy_id
func (h *LedgerHandler) GetPnL(c *gin.Context) {
	strategyID := c.Param("strategy_id")
	if h.reporter == nil {
		h.pnlError(c, strategyID, errLedgerUnavailable)
		return
	}
	pnl, err := h.reporter.PnL(c.Request.Context(), strategyID)
	if err != nil {
		h.pnlError(c, strategyID, err)
		return
	}
	c.JSON(http.StatusOK, models.PnLResponse{
		Strategy:    strategyID,
		Value:       pnl.InexactFloat64(),
		Unit:        "euro",
		CaptureTime: time.Now().UTC().Format(captureTimeLayout),
	})
}

func (h *LedgerHandler) pnlError(c *gin.Context, strategyID string, err error) {
	log.Error().Err(err).Str("strategy", strategyID).Msg("pnl query failed")
	msg := "An unexpected error occurred"
	if errors.Is(err, ledger.ErrStorage) || errors.Is(err, errLedgerUnavailable) {
		msg = "Database error"
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.PnLErrorResponse{
		Error:   msg,
		Details: err.Error(),
	})
}

// GetVolume handles GET /api/v1/ledger/volume
func (h *LedgerHandler) GetVolume(c *gin.Context) {
	if h.reporter == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", errLedgerUnavailable.Error(), nil)
		return
	}
	v, err := h.reporter.Volume(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("volume query failed")
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, models.VolumeResponse{
		Buy:  v.Buy.InexactFloat64(),
		Sell: v.Sell.InexactFloat64(),
		Unit: "MW",
	})
}

// ListLedgerStrategies handles GET /api/v1/ledger/strategies
func (h *LedgerHandler) ListLedgerStrategies(c *gin.Context) {
	if h.reporter == nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", errLedgerUnavailable.Error(), nil)
		return
	}
	ids, err := h.reporter.Strategies(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("strategy query failed")
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": ids, "count": len(ids)})
}
