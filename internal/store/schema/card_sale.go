package schema

import (
	"time"
)

// CardSale represents the card_sales table - observed auction/marketplace
// sales for a card, written by the background sync job or manual entry.
// Deduplicated by (card_id, url).
type CardSale struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CardID references the card this sale was observed for
	CardID int64 `gorm:"column:card_id;not null;index:idx_card_sales_card_url,priority:1"`
	// Price is the observed sale price
	Price float64 `gorm:"column:price;not null"`
	// SaleDate is the date the sale completed
	SaleDate time.Time `gorm:"column:sale_date;not null;index"`
	// Source names where the sale was observed (e.g. "eBay")
	Source string `gorm:"column:source;type:text"`
	// URL is the listing URL, used for deduplication
	URL string `gorm:"column:url;type:text;index:idx_card_sales_card_url,priority:2"`
	// CreatedAt is when the row was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the CardSale model
func (CardSale) TableName() string {
	return "card_sales"
}
