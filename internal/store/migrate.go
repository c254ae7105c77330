package store

import (
	"gorm.io/gorm"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// AutoMigrate creates or updates the full table set. Order matters for the
// foreign-key constraints.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.User{},
		&schema.Settings{},
		&schema.Card{},
		&schema.ValuationHistory{},
		&schema.DictionaryEntry{},
		&schema.CardSale{},
	)
}
