package rest

import (
	"encoding/json"
	"time"

	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// UserDTO is the public account representation
type UserDTO struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Username   *string   `json:"username"`
	IsVerified bool      `json:"is_verified"`
	MFAEnabled bool      `json:"mfa_enabled"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserDTO(u *schema.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		IsVerified: u.IsVerified,
		MFAEnabled: u.MFAEnabled,
		CreatedAt:  u.CreatedAt,
	}
}

// CardDTO is the wire representation of a card
type CardDTO struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Year         int       `json:"year"`
	Brand        string    `json:"brand"`
	CardNumber   string    `json:"card_number"`
	Rookie       bool      `json:"rookie"`
	Grade        *float64  `json:"grade"`
	BookHigh     *float64  `json:"book_high"`
	BookHighMid  *float64  `json:"book_high_mid"`
	BookMid      *float64  `json:"book_mid"`
	BookLowMid   *float64  `json:"book_low_mid"`
	BookLow      *float64  `json:"book_low"`
	MarketFactor *float64  `json:"market_factor"`
	Value        *float64  `json:"value"`
	FrontImage   *string   `json:"front_image"`
	BackImage    *string   `json:"back_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCardDTO(c *schema.Card) CardDTO {
	return CardDTO{
		ID:           c.ID,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Year:         c.Year,
		Brand:        c.Brand,
		CardNumber:   c.CardNumber,
		Rookie:       c.Rookie,
		Grade:        c.Grade,
		BookHigh:     c.BookHigh,
		BookHighMid:  c.BookHighMid,
		BookMid:      c.BookMid,
		BookLowMid:   c.BookLowMid,
		BookLow:      c.BookLow,
		MarketFactor: c.MarketFactor,
		Value:        c.Value,
		FrontImage:   c.FrontImage,
		BackImage:    c.BackImage,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toCardDTOs(cards []schema.Card) []CardDTO {
	out := make([]CardDTO, 0, len(cards))
	for i := range cards {
		out = append(out, toCardDTO(&cards[i]))
	}
	return out
}

// SettingsDTO is the wire representation of the per-user settings row
type SettingsDTO struct {
	AppName       string         `json:"app_name"`
	RookieFactor  float64        `json:"rookie_factor"`
	AutoFactor    float64        `json:"auto_factor"`
	MTGradeFactor float64        `json:"mtgrade_factor"`
	EXGradeFactor float64        `json:"exgrade_factor"`
	VGGradeFactor float64        `json:"vggrade_factor"`
	GDGradeFactor float64        `json:"gdgrade_factor"`
	FRGradeFactor float64        `json:"frgrade_factor"`
	PRGradeFactor float64        `json:"prgrade_factor"`
	VintageYear   int            `json:"vintage_year"`
	ModernYear    int            `json:"modern_year"`
	VintageFactor float64        `json:"vintage_factor"`
	ModernFactor  float64        `json:"modern_factor"`
	DisplayPrefs  map[string]any `json:"display_prefs"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toSettingsDTO(s *schema.Settings) SettingsDTO {
	dto := SettingsDTO{
		AppName:       s.AppName,
		RookieFactor:  s.RookieFactor,
		AutoFactor:    s.AutoFactor,
		MTGradeFactor: s.MTGradeFactor,
		EXGradeFactor: s.EXGradeFactor,
		VGGradeFactor: s.VGGradeFactor,
		GDGradeFactor: s.GDGradeFactor,
		FRGradeFactor: s.FRGradeFactor,
		PRGradeFactor: s.PRGradeFactor,
		VintageYear:   s.VintageYear,
		ModernYear:    s.ModernYear,
		VintageFactor: s.VintageFactor,
		ModernFactor:  s.ModernFactor,
		UpdatedAt:     s.UpdatedAt,
	}
	if len(s.DisplayPrefs) > 0 {
		// Display prefs are stored as opaque JSON; a corrupt value falls
		// back to empty rather than failing the request
		_ = json.Unmarshal(s.DisplayPrefs, &dto.DisplayPrefs)
	}
	if dto.DisplayPrefs == nil {
		dto.DisplayPrefs = map[string]any{}
	}
	return dto
}

// DictionaryEntryDTO is the wire representation of a dictionary entry.
// InCollection is filled only on listings for an authenticated user.
type DictionaryEntryDTO struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	RookieYear   *int   `json:"rookie_year"`
	Brand        string `json:"brand"`
	Year         int    `json:"year"`
	CardNumber   string `json:"card_number"`
	InCollection bool   `json:"in_collection"`
}

func toDictionaryEntryDTO(e *schema.DictionaryEntry) DictionaryEntryDTO {
	return DictionaryEntryDTO{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		RookieYear: e.RookieYear,
		Brand:      e.Brand,
		Year:       e.Year,
		CardNumber: e.CardNumber,
	}
}

// ValuationPointDTO is one snapshot of the valuation trend
type ValuationPointDTO struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalValue float64   `json:"total_value"`
	CardCount  int       `json:"card_count"`
}

// CardSaleDTO is the wire representation of an observed sale
type CardSaleDTO struct {
	ID       int64     `json:"id"`
	CardID   int64     `json:"card_id"`
	Price    float64   `json:"price"`
	SaleDate time.Time `json:"sale_date"`
	Source   string    `json:"source"`
	URL      string    `json:"url"`
}

func toCardSaleDTO(s *schema.CardSale) CardSaleDTO {
	return CardSaleDTO{
		ID:       s.ID,
		CardID:   s.CardID,
		Price:    s.Price,
		SaleDate: s.SaleDate,
		Source:   s.Source,
		URL:      s.URL,
	}
}

// MonthPointDTO is one month of a trend series, labelled "YYYY-MM"
type MonthPointDTO struct {
	Month string  `json:"month"`
	Count int64   `json:"count"`
	Value float64 `json:"value"`
}

// AnalyticsDTO is the aggregate collection report
type AnalyticsDTO struct {
	TotalCards     int64                  `json:"total_cards"`
	TotalValue     float64                `json:"total_value"`
	ByBrand        []store.GroupBreakdown `json:"by_brand"`
	ByYear         []store.GroupBreakdown `json:"by_year"`
	ByPlayer       []store.GroupBreakdown `json:"by_player"`
	TrendInventory []MonthPointDTO        `json:"trend_inventory"`
	TrendValuation []ValuationPointDTO    `json:"trend_valuation"`
}
