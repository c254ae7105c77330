package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

type createSaleRequest struct {
	CardID   int64     `json:"card_id" binding:"required"`
	Price    float64   `json:"price" binding:"required,gt=0"`
	SaleDate time.Time `json:"sale_date" binding:"required"`
	Source   string    `json:"source"`
	URL      string    `json:"url"`
}

// CreateSale records a manually observed sale for an owned card
func (h *handler) CreateSale(c *gin.Context) {
	var req createSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	card, err := h.store.GetCard(ctx, middleware.UserID(c), req.CardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return
	}

	sale := schema.CardSale{
		CardID:   req.CardID,
		Price:    req.Price,
		SaleDate: req.SaleDate,
		Source:   req.Source,
		URL:      req.URL,
	}
	if sale.Source == "" {
		sale.Source = "manual"
	}

	if err := h.store.CreateCardSale(ctx, &sale); err != nil {
		respondInternalError(c, err, "Failed to record sale")
		return
	}
	c.JSON(http.StatusCreated, toCardSaleDTO(&sale))
}

// ListSales returns recent sales for an owned card, newest first
func (h *handler) ListSales(c *gin.Context) {
	card, ok := h.ownedCardFromPath(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		respondValidationError(c, "limit must be between 1 and 500")
		return
	}

	sales, err := h.store.ListCardSales(c.Request.Context(), card.ID, limit)
	if err != nil {
		respondInternalError(c, err, "Failed to list sales")
		return
	}

	out := make([]CardSaleDTO, 0, len(sales))
	for i := range sales {
		out = append(out, toCardSaleDTO(&sales[i]))
	}
	c.JSON(http.StatusOK, out)
}

// SaleStats returns min/max/avg over an owned card's recorded sales
func (h *handler) SaleStats(c *gin.Context) {
	card, ok := h.ownedCardFromPath(c)
	if !ok {
		return
	}

	stats, err := h.store.CardSaleStats(c.Request.Context(), card.ID)
	if err != nil {
		respondInternalError(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SaleTrends returns monthly averages plus rolling-window averages over an
// owned card's sales.
func (h *handler) SaleTrends(c *gin.Context) {
	card, ok := h.ownedCardFromPath(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	monthly, err := h.store.MonthlySaleAverages(ctx, card.ID)
	if err != nil {
		respondInternalError(c, err, "Failed to compute trends")
		return
	}

	months := make([]gin.H, 0, len(monthly))
	for _, m := range monthly {
		months = append(months, gin.H{
			"month":     strconv.Itoa(m.Year) + "-" + pad2(m.Month),
			"avg_price": m.AvgPrice,
			"count":     m.Count,
		})
	}

	sales, err := h.store.ListCardSales(ctx, card.ID, 0)
	if err != nil {
		respondInternalError(c, err, "Failed to load sales")
		return
	}

	now := h.clock.Now()
	c.JSON(http.StatusOK, gin.H{
		"monthly":  months,
		"last_30":  rollingAvg(sales, now, 30),
		"last_90":  rollingAvg(sales, now, 90),
		"last_365": rollingAvg(sales, now, 365),
	})
}

// FetchSalesNow triggers the sales sweep outside its schedule
func (h *handler) FetchSalesNow(c *gin.Context) {
	if h.sales == nil {
		respondBadRequest(c, "Sales sync is not configured")
		return
	}

	go h.sales.RunOnce(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, gin.H{"message": "Sales sync started"})
}

// ownedCardFromPath loads the :card_id card scoped to the requester
func (h *handler) ownedCardFromPath(c *gin.Context) (*schema.Card, bool) {
	cardID, ok := pathID(c, "card_id")
	if !ok {
		return nil, false
	}

	card, err := h.store.GetCard(c.Request.Context(), middleware.UserID(c), cardID)
	if err != nil {
		respondInternalError(c, err, "Failed to load card")
		return nil, false
	}
	if card == nil {
		respondNotFound(c, "Card not found")
		return nil, false
	}
	return card, true
}

// rollingAvg averages sale prices inside the trailing window, nil when empty
func rollingAvg(sales []schema.CardSale, now time.Time, days int) *float64 {
	cutoff := now.AddDate(0, 0, -days)

	var sum float64
	var n int
	for _, s := range sales {
		if s.SaleDate.After(cutoff) {
			sum += s.Price
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
