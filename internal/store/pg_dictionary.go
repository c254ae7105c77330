package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cardstoard/cardstoard-api/internal/store/schema"
)

// Fingerprint builds the case-insensitive identity key used to match
// dictionary entries against each other and against owned cards.
func Fingerprint(firstName, lastName string, year int, brand, cardNumber string) string {
	return strings.ToLower(fmt.Sprintf("%s|%s|%d|%s|%s",
		strings.TrimSpace(firstName),
		strings.TrimSpace(lastName),
		year,
		strings.TrimSpace(brand),
		strings.TrimSpace(cardNumber)))
}

// ListDictionaryEntries returns a filtered page of dictionary entries ordered
// by player name then year.
func (s *pgStore) ListDictionaryEntries(ctx context.Context, filter DictionaryFilter, offset, limit int) ([]schema.DictionaryEntry, error) {
	q := s.db.WithContext(ctx).Model(&schema.DictionaryEntry{})

	if filter.LastName != "" {
		q = q.Where("LOWER(last_name) LIKE ?", strings.ToLower(filter.LastName)+"%")
	}
	if filter.Brand != "" {
		q = q.Where("LOWER(brand) = ?", strings.ToLower(filter.Brand))
	}
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}

	q = q.Order("last_name ASC, first_name ASC, year ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []schema.DictionaryEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetDictionaryEntry retrieves one entry by id, returning nil if not found
func (s *pgStore) GetDictionaryEntry(ctx context.Context, id int64) (*schema.DictionaryEntry, error) {
	var entry schema.DictionaryEntry
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// CreateDictionaryEntry inserts one entry
func (s *pgStore) CreateDictionaryEntry(ctx context.Context, entry *schema.DictionaryEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// CreateDictionaryEntries bulk-inserts entries in batches
func (s *pgStore) CreateDictionaryEntries(ctx context.Context, entries []*schema.DictionaryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(entries, 500).Error
}

// UpdateDictionaryEntry saves all fields of an existing entry
func (s *pgStore) UpdateDictionaryEntry(ctx context.Context, entry *schema.DictionaryEntry) error {
	return s.db.WithContext(ctx).Save(entry).Error
}

// DeleteDictionaryEntry removes one entry by id
func (s *pgStore) DeleteDictionaryEntry(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&schema.DictionaryEntry{}).Error
}

// CountDictionaryEntries returns the total dictionary size
func (s *pgStore) CountDictionaryEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.DictionaryEntry{}).
		Count(&count).Error
	return count, err
}

// ListDictionaryPlayers returns the distinct player names in the dictionary
func (s *pgStore) ListDictionaryPlayers(ctx context.Context) ([]PlayerName, error) {
	var players []PlayerName
	err := s.db.WithContext(ctx).
		Model(&schema.DictionaryEntry{}).
		Distinct("first_name", "last_name").
		Order("last_name ASC, first_name ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

// SearchDictionary finds the best dictionary match for a player name plus
// optional brand and year narrowing. Name matching is case-insensitive exact;
// returns nil when nothing matches.
func (s *pgStore) SearchDictionary(ctx context.Context, firstName, lastName string, brand string, year *int) (*schema.DictionaryEntry, error) {
	q := s.db.WithContext(ctx).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ?",
			strings.ToLower(strings.TrimSpace(firstName)),
			strings.ToLower(strings.TrimSpace(lastName)))

	if brand != "" {
		q = q.Where("LOWER(brand) = ?", strings.ToLower(brand))
	}
	if year != nil {
		q = q.Where("year = ?", *year)
	}

	var entry schema.DictionaryEntry
	err := q.Order("year ASC").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// DictionaryFingerprints returns the identity keys of every dictionary entry,
// used to skip duplicates during bulk import.
func (s *pgStore) DictionaryFingerprints(ctx context.Context) (map[string]struct{}, error) {
	var entries []schema.DictionaryEntry
	err := s.db.WithContext(ctx).
		Select("first_name", "last_name", "year", "brand", "card_number").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		keys[Fingerprint(e.FirstName, e.LastName, e.Year, e.Brand, e.CardNumber)] = struct{}{}
	}
	return keys, nil
}

// SetPlayerRookieYear stamps the rookie year on every dictionary entry for a
// player, returning the number of rows touched.
func (s *pgStore) SetPlayerRookieYear(ctx context.Context, firstName, lastName string, rookieYear *int) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&schema.DictionaryEntry{}).
		Where("LOWER(first_name) = ? AND LOWER(last_name) = ?",
			strings.ToLower(strings.TrimSpace(firstName)),
			strings.ToLower(strings.TrimSpace(lastName))).
		Update("rookie_year", rookieYear)
	return res.RowsAffected, res.Error
}

// CardFingerprints returns the identity keys of the user's cards so
// dictionary listings can flag entries already in the collection.
func (s *pgStore) CardFingerprints(ctx context.Context, userID int64) (map[string]struct{}, error) {
	var cards []schema.Card
	err := s.db.WithContext(ctx).
		Select("first_name", "last_name", "year", "brand", "card_number").
		Where("user_id = ?", userID).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		keys[Fingerprint(c.FirstName, c.LastName, c.Year, c.Brand, c.CardNumber)] = struct{}{}
	}
	return keys, nil
}
