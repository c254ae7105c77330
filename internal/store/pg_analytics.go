package store

import (
	"context"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// ListValuationHistory returns the user's valuation snapshots oldest first
func (s *pgStore) ListValuationHistory(ctx context.Context, userID int64) ([]schema.ValuationHistory, error) {
	var history []schema.ValuationHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp ASC, id ASC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

// GetAnalytics computes the aggregate collection report: totals plus
// breakdowns by brand, year, and player, and the month-by-month inventory
// trend. Undefined card values count as 0 in every sum.
func (s *pgStore) GetAnalytics(ctx context.Context, userID int64) (*Analytics, error) {
	report := Analytics{}

	var totals struct {
		Count int64
		Value *float64
	}
	err := s.db.WithContext(ctx).
		Model(&schema.Card{}).
		Select("COUNT(*) AS count, SUM(COALESCE(value, 0)) AS value").
		Where("user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	report.TotalCards = totals.Count
	if totals.Value != nil {
		report.TotalValue = *totals.Value
	}

	byBrand, err := s.groupCards(ctx, userID, "brand", "brand ASC")
	if err != nil {
		return nil, err
	}
	report.ByBrand = byBrand

	byYear, err := s.groupCards(ctx, userID, "year::text", "label ASC")
	if err != nil {
		return nil, err
	}
	report.ByYear = byYear

	byPlayer, err := s.groupCards(ctx, userID, "last_name || ', ' || first_name", "value DESC")
	if err != nil {
		return nil, err
	}
	report.ByPlayer = byPlayer

	var months []MonthBucket
	err = s.db.WithContext(ctx).
		Model(&schema.Card{}).
		Select("EXTRACT(YEAR FROM created_at)::int AS year, EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*) AS count, SUM(COALESCE(value, 0)) AS value").
		Where("user_id = ?", userID).
		Group("year, month").
		Order("year ASC, month ASC").
		Scan(&months).Error
	if err != nil {
		return nil, err
	}
	report.TrendInventory = months

	return &report, nil
}

func (s *pgStore) groupCards(ctx context.Context, userID int64, labelExpr, order string) ([]GroupBreakdown, error) {
	var buckets []GroupBreakdown
	err := s.db.WithContext(ctx).
		Model(&schema.Card{}).
		Select(labelExpr+" AS label, COUNT(*) AS count, SUM(COALESCE(value, 0)) AS value").
		Where("user_id = ?", userID).
		Group("label").
		Order(order).
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}
