package store

import (
	"context"
	"errors"
	"time"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// ErrNoSettings is returned by valuation operations when the user has no
// settings row. Callers surface it as a precondition failure (400), not a
// server error.
var ErrNoSettings = errors.New("settings not provisioned for user")

// DictionaryFilter narrows dictionary listings
type DictionaryFilter struct {
	LastName string
	Brand    string
	Year     *int
}

// PlayerName is a distinct (first, last) pair for autocomplete
type PlayerName struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SaleStats aggregates observed sales for one card
type SaleStats struct {
	Count        int64      `json:"count"`
	Min          float64    `json:"min"`
	Max          float64    `json:"max"`
	Avg          float64    `json:"avg"`
	LastSaleDate *time.Time `json:"last_sale_date"`
}

// MonthlySaleAvg is one month's average sale price for a card
type MonthlySaleAvg struct {
	Year     int     `json:"-"`
	Month    int     `json:"-"`
	AvgPrice float64 `json:"avg_price"`
	Count    int64   `json:"count"`
}

// GroupBreakdown is an analytics bucket (by brand, year, or player)
type GroupBreakdown struct {
	Label string  `json:"label"`
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// MonthBucket is one month of the inventory-creation trend
type MonthBucket struct {
	Year  int
	Month int
	Count int64
	Value float64
}

// Analytics holds the aggregate collection report
type Analytics struct {
	TotalCards     int64
	TotalValue     float64
	ByBrand        []GroupBreakdown
	ByYear         []GroupBreakdown
	ByPlayer       []GroupBreakdown
	TrendInventory []MonthBucket
}

// RevalueResult reports the outcome of a bulk revaluation
type RevalueResult struct {
	Updated    int
	TotalValue float64
}

// Store defines the interface for database operations
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *schema.User) error
	GetUserByID(ctx context.Context, id int64) (*schema.User, error)
	GetUserByEmail(ctx context.Context, email string) (*schema.User, error)
	GetUserByUsername(ctx context.Context, username string) (*schema.User, error)
	UpdateUser(ctx context.Context, user *schema.User) error
	DeleteUser(ctx context.Context, id int64) error
	MarkUserVerified(ctx context.Context, email string) error

	// Settings
	GetSettings(ctx context.Context, userID int64) (*schema.Settings, error)
	CreateSettings(ctx context.Context, s *schema.Settings) error
	UpdateSettings(ctx context.Context, userID int64, updates map[string]interface{}) (*schema.Settings, error)

	// Cards
	CreateCard(ctx context.Context, card *schema.Card) error
	CreateCards(ctx context.Context, cards []*schema.Card) error
	GetCard(ctx context.Context, userID, cardID int64) (*schema.Card, error)
	ListCards(ctx context.Context, userID int64, offset, limit int) ([]schema.Card, error)
	ListAllUserCards(ctx context.Context, userID int64) ([]schema.Card, error)
	ListAllCards(ctx context.Context) ([]schema.Card, error)
	CountCards(ctx context.Context, userID int64) (int64, error)
	UpdateCard(ctx context.Context, card *schema.Card) error
	DeleteCard(ctx context.Context, userID, cardID int64) error
	// RevalueAllCards recomputes factor and value for every card owned by
	// the user inside one transaction and, when the user owns at least one
	// card, appends a single valuation history snapshot. Returns
	// ErrNoSettings when the user has no settings row.
	RevalueAllCards(ctx context.Context, userID int64, at time.Time) (*RevalueResult, error)

	// Dictionary
	ListDictionaryEntries(ctx context.Context, filter DictionaryFilter, offset, limit int) ([]schema.DictionaryEntry, error)
	GetDictionaryEntry(ctx context.Context, id int64) (*schema.DictionaryEntry, error)
	CreateDictionaryEntry(ctx context.Context, entry *schema.DictionaryEntry) error
	CreateDictionaryEntries(ctx context.Context, entries []*schema.DictionaryEntry) error
	UpdateDictionaryEntry(ctx context.Context, entry *schema.DictionaryEntry) error
	DeleteDictionaryEntry(ctx context.Context, id int64) error
	CountDictionaryEntries(ctx context.Context) (int64, error)
	ListDictionaryPlayers(ctx context.Context) ([]PlayerName, error)
	SearchDictionary(ctx context.Context, firstName, lastName string, brand string, year *int) (*schema.DictionaryEntry, error)
	DictionaryFingerprints(ctx context.Context) (map[string]struct{}, error)
	SetPlayerRookieYear(ctx context.Context, firstName, lastName string, rookieYear *int) (int64, error)

	// Card fingerprints for in-collection annotation of dictionary listings
	CardFingerprints(ctx context.Context, userID int64) (map[string]struct{}, error)

	// Sales
	CreateCardSale(ctx context.Context, sale *schema.CardSale) error
	ListCardSales(ctx context.Context, cardID int64, limit int) ([]schema.CardSale, error)
	CardSaleExists(ctx context.Context, cardID int64, url string) (bool, error)
	CardSaleStats(ctx context.Context, cardID int64) (*SaleStats, error)
	MonthlySaleAverages(ctx context.Context, cardID int64) ([]MonthlySaleAvg, error)

	// Analytics
	ListValuationHistory(ctx context.Context, userID int64) ([]schema.ValuationHistory, error)
	GetAnalytics(ctx context.Context, userID int64) (*Analytics, error)
}
