package schema

import (
	"time"
)

// ValidGrades is the fixed condition scale a card grade must belong to,
// highest to lowest (mint, excellent, very good, good, fair, poor).
var ValidGrades = []float64{3.0, 1.5, 1.0, 0.8, 0.4, 0.2}

// GradeValid reports whether g is on the fixed condition scale.
func GradeValid(g float64) bool {
	for _, v := range ValidGrades {
		if g == v {
			return true
		}
	}
	return false
}

// Card represents the cards table - a single card in a user's collection
type Card struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user
	UserID int64 `gorm:"column:user_id;not null;index"`
	// FirstName is the player's first name
	FirstName string `gorm:"column:first_name;not null;type:text"`
	// LastName is the player's last name
	LastName string `gorm:"column:last_name;not null;type:text;index"`
	// Year is the card's production year
	Year int `gorm:"column:year;not null;index"`
	// Brand is the card manufacturer (Topps, Bowman, ...)
	Brand string `gorm:"column:brand;type:text;index"`
	// CardNumber is the number printed on the card
	CardNumber string `gorm:"column:card_number;type:text"`
	// Rookie indicates whether this is the player's rookie-year card
	Rookie bool `gorm:"column:rookie;not null;default:false"`
	// Grade is the condition code on the fixed scale (see ValidGrades)
	Grade *float64 `gorm:"column:grade"`

	// Book values are catalog reference prices per condition tier
	BookHigh    *float64 `gorm:"column:book_high"`
	BookHighMid *float64 `gorm:"column:book_high_mid"`
	BookMid     *float64 `gorm:"column:book_mid"`
	BookLowMid  *float64 `gorm:"column:book_low_mid"`
	BookLow     *float64 `gorm:"column:book_low"`

	// MarketFactor is the derived multiplier picked from the owner's settings.
	// Overwritten on every revaluation, never edited directly.
	MarketFactor *float64 `gorm:"column:market_factor"`
	// Value is the derived estimate in whole dollars, nil while not computable
	Value *float64 `gorm:"column:value"`

	// FrontImage and BackImage are upload paths relative to the static root
	FrontImage *string `gorm:"column:front_image;type:text"`
	BackImage  *string `gorm:"column:back_image;type:text"`

	// CreatedAt is when the card was added to the collection
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index"`
	// UpdatedAt is the last mutation timestamp
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`

	// Associations
	Sales []CardSale `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Card model
func (Card) TableName() string {
	return "cards"
}
