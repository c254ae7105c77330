package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
)

// GetAnalytics returns the aggregate collection report: totals, breakdowns,
// the month-by-month inventory trend, and the valuation snapshot trend.
func (h *handler) GetAnalytics(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	report, err := h.store.GetAnalytics(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to compute analytics")
		return
	}

	history, err := h.store.ListValuationHistory(ctx, userID)
	if err != nil {
		respondInternalError(c, err, "Failed to load valuation history")
		return
	}

	dto := AnalyticsDTO{
		TotalCards:     report.TotalCards,
		TotalValue:     report.TotalValue,
		ByBrand:        report.ByBrand,
		ByYear:         report.ByYear,
		ByPlayer:       report.ByPlayer,
		TrendInventory: make([]MonthPointDTO, 0, len(report.TrendInventory)),
		TrendValuation: make([]ValuationPointDTO, 0, len(history)),
	}
	for _, m := range report.TrendInventory {
		dto.TrendInventory = append(dto.TrendInventory, MonthPointDTO{
			Month: fmt.Sprintf("%04d-%02d", m.Year, m.Month),
			Count: m.Count,
			Value: m.Value,
		})
	}
	for _, p := range history {
		dto.TrendValuation = append(dto.TrendValuation, ValuationPointDTO{
			Timestamp:  p.Timestamp,
			TotalValue: p.TotalValue,
			CardCount:  p.CardCount,
		})
	}

	c.JSON(http.StatusOK, dto)
}
