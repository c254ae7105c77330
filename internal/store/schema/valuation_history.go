package schema

import (
	"time"
)

// ValuationHistory represents the valuation_history table - append-only
// snapshots of a user's total collection value, written only by bulk
// revaluation. Rows are never updated or deleted by normal flows.
type ValuationHistory struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user
	UserID int64 `gorm:"column:user_id;not null;index"`
	// Timestamp is when the snapshot was taken
	Timestamp time.Time `gorm:"column:timestamp;not null;default:now();index"`
	// TotalValue is the sum of all card values at snapshot time (nil values counted as 0)
	TotalValue float64 `gorm:"column:total_value;not null"`
	// CardCount is the number of cards owned at snapshot time
	CardCount int `gorm:"column:card_count;not null"`
}

// TableName specifies the table name for the ValuationHistory model
func (ValuationHistory) TableName() string {
	return "valuation_history"
}
