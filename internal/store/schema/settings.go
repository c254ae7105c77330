package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Default market factors, applied when a settings row is provisioned.
// Values match the historical production defaults.
const (
	DefaultRookieFactor  = 0.8
	DefaultAutoFactor    = 1.0
	DefaultMTGradeFactor = 0.85
	DefaultEXGradeFactor = 0.75
	DefaultVGGradeFactor = 0.6
	DefaultGDGradeFactor = 0.55
	DefaultFRGradeFactor = 0.5
	DefaultPRGradeFactor = 0.4
)

// Settings represents the settings table - per-user market adjustment factors
// and display preferences. Exactly one row per user, provisioned at
// registration and cascade-deleted with the owner.
type Settings struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user (one-to-one)
	UserID int64 `gorm:"column:user_id;not null;uniqueIndex"`
	// AppName is a display label for the user's collection
	AppName string `gorm:"column:app_name;type:text;default:'CardStoard'"`

	// Market factors keyed by grade bucket. AutoFactor applies only to
	// mint-grade rookies; RookieFactor to rookies at any lower grade.
	RookieFactor  float64 `gorm:"column:rookie_factor;not null;default:0.8"`
	AutoFactor    float64 `gorm:"column:auto_factor;not null;default:1.0"`
	MTGradeFactor float64 `gorm:"column:mtgrade_factor;not null;default:0.85"`
	EXGradeFactor float64 `gorm:"column:exgrade_factor;not null;default:0.75"`
	VGGradeFactor float64 `gorm:"column:vggrade_factor;not null;default:0.6"`
	GDGradeFactor float64 `gorm:"column:gdgrade_factor;not null;default:0.55"`
	FRGradeFactor float64 `gorm:"column:frgrade_factor;not null;default:0.5"`
	PRGradeFactor float64 `gorm:"column:prgrade_factor;not null;default:0.4"`

	// Era boundaries and factors. Present in the schema for the planned
	// era-weighted pricing; not consulted by the current valuation formula.
	VintageYear   int     `gorm:"column:vintage_year;not null;default:1980"`
	ModernYear    int     `gorm:"column:modern_year;not null;default:2000"`
	VintageFactor float64 `gorm:"column:vintage_factor;not null;default:1.0"`
	ModernFactor  float64 `gorm:"column:modern_factor;not null;default:1.0"`

	// DisplayPrefs holds UI toggles as free-form JSON
	DisplayPrefs datatypes.JSON `gorm:"column:display_prefs"`

	// CreatedAt is when the row was provisioned
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
	// UpdatedAt is the last explicit update timestamp
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()"`
}

// TableName specifies the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}

// NewDefaultSettings returns a settings row with the hard-coded defaults
// for the given user.
func NewDefaultSettings(userID int64) *Settings {
	return &Settings{
		UserID:        userID,
		AppName:       "CardStoard",
		RookieFactor:  DefaultRookieFactor,
		AutoFactor:    DefaultAutoFactor,
		MTGradeFactor: DefaultMTGradeFactor,
		EXGradeFactor: DefaultEXGradeFactor,
		VGGradeFactor: DefaultVGGradeFactor,
		GDGradeFactor: DefaultGDGradeFactor,
		FRGradeFactor: DefaultFRGradeFactor,
		PRGradeFactor: DefaultPRGradeFactor,
		VintageYear:   1980,
		ModernYear:    2000,
		VintageFactor: 1.0,
		ModernFactor:  1.0,
	}
}
