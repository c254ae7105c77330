package schema

import (
	"time"
)

// User represents the users table - a registered collector account
type User struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Email is the login identifier, unique across accounts
	Email string `gorm:"column:email;not null;uniqueIndex;type:text"`
	// Username is an optional display handle, unique when set
	Username *string `gorm:"column:username;uniqueIndex;type:text"`
	// PasswordHash is the bcrypt hash of the account password
	PasswordHash string `gorm:"column:password_hash;not null;type:text"`
	// IsVerified indicates whether the email address has been confirmed
	IsVerified bool `gorm:"column:is_verified;not null;default:false"`
	// MFAEnabled indicates whether TOTP login is required
	MFAEnabled bool `gorm:"column:mfa_enabled;not null;default:false"`
	// MFASecret is the base32 TOTP secret (nil until MFA setup)
	MFASecret *string `gorm:"column:mfa_secret;type:text"`
	// CreatedAt is the registration timestamp
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`

	// Associations
	Cards            []Card             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Settings         *Settings          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ValuationHistory []ValuationHistory `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
