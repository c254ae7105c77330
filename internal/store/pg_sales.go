package store

import (
	"context"
	"time"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// CreateCardSale records one observed sale
func (s *pgStore) CreateCardSale(ctx context.Context, sale *schema.CardSale) error {
	return s.db.WithContext(ctx).Create(sale).Error
}

// ListCardSales returns the most recent sales for a card, newest first
func (s *pgStore) ListCardSales(ctx context.Context, cardID int64, limit int) ([]schema.CardSale, error) {
	q := s.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("sale_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var sales []schema.CardSale
	if err := q.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// CardSaleExists reports whether a sale with the same listing URL was already
// recorded for the card. The sync job uses this for deduplication.
func (s *pgStore) CardSaleExists(ctx context.Context, cardID int64, url string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.CardSale{}).
		Where("card_id = ? AND url = ?", cardID, url).
		Count(&count).Error
	return count > 0, err
}

// CardSaleStats aggregates min/max/avg price over every recorded sale for
// a card. Returns a zero-count result, not nil, when no sales exist.
func (s *pgStore) CardSaleStats(ctx context.Context, cardID int64) (*SaleStats, error) {
	var row struct {
		Count        int64
		Min          *float64
		Max          *float64
		Avg          *float64
		LastSaleDate *time.Time
	}
	err := s.db.WithContext(ctx).
		Model(&schema.CardSale{}).
		Select("COUNT(*) AS count, MIN(price) AS min, MAX(price) AS max, AVG(price) AS avg, MAX(sale_date) AS last_sale_date").
		Where("card_id = ?", cardID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := SaleStats{Count: row.Count, LastSaleDate: row.LastSaleDate}
	if row.Min != nil {
		stats.Min = *row.Min
	}
	if row.Max != nil {
		stats.Max = *row.Max
	}
	if row.Avg != nil {
		stats.Avg = *row.Avg
	}
	return &stats, nil
}

// MonthlySaleAverages buckets a card's sales by calendar month, oldest first
func (s *pgStore) MonthlySaleAverages(ctx context.Context, cardID int64) ([]MonthlySaleAvg, error) {
	var rows []struct {
		Year     int
		Month    int
		AvgPrice float64
		Count    int64
	}
	err := s.db.WithContext(ctx).
		Model(&schema.CardSale{}).
		Select("EXTRACT(YEAR FROM sale_date)::int AS year, EXTRACT(MONTH FROM sale_date)::int AS month, AVG(price) AS avg_price, COUNT(*) AS count").
		Where("card_id = ?", cardID).
		Group("year, month").
		Order("year ASC, month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]MonthlySaleAvg, 0, len(rows))
	for _, r := range rows {
		out = append(out, MonthlySaleAvg{Year: r.Year, Month: r.Month, AvgPrice: r.AvgPrice, Count: r.Count})
	}
	return out, nil
}
