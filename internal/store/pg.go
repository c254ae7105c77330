package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
	"github.com/cardstoard/cardstoard-api/internal/valuation"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. It accesses the underlying *sql.DB and sets the pool
// configuration. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// CreateUser inserts a new user row
func (s *pgStore) CreateUser(ctx context.Context, user *schema.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by primary key, returning nil if not found
func (s *pgStore) GetUserByID(ctx context.Context, id int64) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, returning nil if not found
func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username, returning nil if not found
func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser saves all fields of an existing user row
func (s *pgStore) UpdateUser(ctx context.Context, user *schema.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// DeleteUser removes a user; cards, settings and history cascade at the
// database level.
func (s *pgStore) DeleteUser(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&schema.User{}).Error
}

// MarkUserVerified flips the verification flag for the given email
func (s *pgStore) MarkUserVerified(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).
		Model(&schema.User{}).
		Where("email = ?", email).
		Update("is_verified", true).Error
}

// GetSettings retrieves the settings row for a user, returning nil if the
// user has none.
func (s *pgStore) GetSettings(ctx context.Context, userID int64) (*schema.Settings, error) {
	var settings schema.Settings
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// CreateSettings inserts a settings row
func (s *pgStore) CreateSettings(ctx context.Context, settings *schema.Settings) error {
	return s.db.WithContext(ctx).Create(settings).Error
}

// UpdateSettings applies a partial column update and returns the fresh row.
// Returns ErrNoSettings when the user has no settings row.
func (s *pgStore) UpdateSettings(ctx context.Context, userID int64, updates map[string]interface{}) (*schema.Settings, error) {
	updates["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).
		Model(&schema.Settings{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNoSettings
	}

	return s.GetSettings(ctx, userID)
}

// CreateCard inserts a card row
func (s *pgStore) CreateCard(ctx context.Context, card *schema.Card) error {
	return s.db.WithContext(ctx).Create(card).Error
}

// CreateCards bulk-inserts cards in batches
func (s *pgStore) CreateCards(ctx context.Context, cards []*schema.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(cards, 500).Error
}

// GetCard retrieves one card scoped to its owner, returning nil if not found
func (s *pgStore) GetCard(ctx context.Context, userID, cardID int64) (*schema.Card, error) {
	var card schema.Card
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", cardID, userID).
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// ListCards returns a page of the user's cards in stable insertion order
func (s *pgStore) ListCards(ctx context.Context, userID int64, offset, limit int) ([]schema.Card, error) {
	var cards []schema.Card
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListAllUserCards returns every card the user owns, unpaged
func (s *pgStore) ListAllUserCards(ctx context.Context, userID int64) ([]schema.Card, error) {
	var cards []schema.Card
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// ListAllCards returns every card across all users. Used by the sales sync
// job.
func (s *pgStore) ListAllCards(ctx context.Context) ([]schema.Card, error) {
	var cards []schema.Card
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// CountCards returns the number of cards the user owns
func (s *pgStore) CountCards(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Card{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// UpdateCard saves all fields of an existing card row
func (s *pgStore) UpdateCard(ctx context.Context, card *schema.Card) error {
	return s.db.WithContext(ctx).Save(card).Error
}

// DeleteCard removes one card scoped to its owner
func (s *pgStore) DeleteCard(ctx context.Context, userID, cardID int64) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", cardID, userID).
		Delete(&schema.Card{}).Error
}

// RevalueAllCards recomputes the derived factor and value for every card the
// user owns inside a single transaction, then appends one valuation history
// snapshot when at least one card exists. Cards whose value comes out
// undefined count as 0 toward the snapshot total.
func (s *pgStore) RevalueAllCards(ctx context.Context, userID int64, at time.Time) (*RevalueResult, error) {
	var result RevalueResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var settings schema.Settings
		err := tx.Where("user_id = ?", userID).First(&settings).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoSettings
			}
			return err
		}

		var cards []schema.Card
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&cards).Error; err != nil {
			return err
		}
		if len(cards) == 0 {
			return nil
		}

		var total float64
		for i := range cards {
			valuation.Revalue(&cards[i], &settings)
			if err := tx.Model(&schema.Card{}).
				Where("id = ?", cards[i].ID).
				Updates(map[string]interface{}{
					"market_factor": cards[i].MarketFactor,
					"value":         cards[i].Value,
					"updated_at":    at,
				}).Error; err != nil {
				return err
			}
			if cards[i].Value != nil {
				total += *cards[i].Value
			}
		}

		snapshot := schema.ValuationHistory{
			UserID:     userID,
			Timestamp:  at,
			TotalValue: total,
			CardCount:  len(cards),
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		result.Updated = len(cards)
		result.TotalValue = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
