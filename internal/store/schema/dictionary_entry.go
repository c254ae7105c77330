package schema

// DictionaryEntry represents the dictionary_entries table - shared, unowned
// reference data of known card numbers per player/brand/year, used for
// smart-fill lookups. Seeded once and grown opportunistically when a fully
// specified card is created.
type DictionaryEntry struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// FirstName is the player's first name
	FirstName string `gorm:"column:first_name;not null;type:text"`
	// LastName is the player's last name
	LastName string `gorm:"column:last_name;not null;type:text;index"`
	// RookieYear is the player's rookie year, when known
	RookieYear *int `gorm:"column:rookie_year"`
	// Brand is the card manufacturer
	Brand string `gorm:"column:brand;not null;type:text"`
	// Year is the card's production year
	Year int `gorm:"column:year;not null;index"`
	// CardNumber is the number printed on the card
	CardNumber string `gorm:"column:card_number;type:text"`
}

// TableName specifies the table name for the DictionaryEntry model
func (DictionaryEntry) TableName() string {
	return "dictionary_entries"
}
